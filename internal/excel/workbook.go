// Package excel holds the workbook engine: coordinate-based read/write
// recipes against the pre-formatted xlsx files that serve as both the
// persistent store and the human-facing report.
package excel

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	// TemplateFile is the master weekly workbook all week files are cloned from.
	TemplateFile = "Hodiny_Cap.xlsx"
	// WeekSheet is the single data sheet of a week workbook.
	WeekSheet = "Týden"
	// AdvancesSheet is the cash-advance ledger sheet in the template workbook.
	AdvancesSheet = "Zálohy"

	// employeeStartRow is the first row of the employee block in week and
	// advance sheets; rows above it are the sheet header.
	employeeStartRow = 9

	fmtHours    = "0.00"
	fmtDate     = "DD.MM.YYYY"
	fmtCurrency = "#,##0.00"
)

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy %s -> %s: %w", src, dst, err)
	}
	return out.Sync()
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// setNumberedCell writes value and applies a custom number format.
func setNumberedCell(f *excelize.File, sheet, cell string, value interface{}, numFmt string) error {
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, cell, cell, style)
}

// cloneSheetValues copies cell values from a sheet of one workbook into a new
// sheet of another, value by value. Styles are not carried over; the template
// content is what the layout recipes depend on.
func cloneSheetValues(src *excelize.File, srcSheet string, dst *excelize.File, dstSheet string) error {
	if _, err := dst.NewSheet(dstSheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", dstSheet, err)
	}
	rows, err := src.GetRows(srcSheet)
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", srcSheet, err)
	}
	for r, row := range rows {
		for c, val := range row {
			if val == "" {
				continue
			}
			if err := dst.SetCellValue(dstSheet, cellName(c+1, r+1), val); err != nil {
				return err
			}
		}
	}
	return nil
}

func parseFloat(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseInt(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return int(parseFloat(s))
	}
	return v
}
