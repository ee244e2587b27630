package excel

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"hodiny/internal/logger"
	"hodiny/internal/model"

	"github.com/xuri/excelize/v2"
)

// MonthlyFile is the month-aggregate workbook: one sheet per month cloned
// from the MMhod25 template sheet.
const (
	MonthlyFile        = "Hodiny2025.xlsx"
	monthTemplateSheet = "MMhod25"

	headerRow    = 2
	dataStartRow = 3
	dataEndRow   = 33
	summaryRow   = 34

	colDay        = 1
	colDate       = 2
	colWeekday    = 3
	colHoliday    = 4
	colStart      = 5
	colLunch      = 6
	colEnd        = 7
	colTotalHours = 8
	colOvertime   = 9
	colNight      = 10
	colWeekend    = 11
	colHolidayHrs = 12
	colEmployees  = 13
	colTotalAll   = 14
)

var czechMonths = [13]string{"", "Leden", "Únor", "Březen", "Duben", "Květen", "Červen",
	"Červenec", "Srpen", "Září", "Říjen", "Listopad", "Prosinec"}

var czechWeekdays = [7]string{"Po", "Út", "St", "Čt", "Pá", "So", "Ne"}

var monthHeaders = []string{
	"Den", "Datum", "Den v týdnu", "Svátek", "Začátek", "Oběd (h)", "Konec",
	"Celkem hodin", "Přesčasy", "Noční práce", "Víkend", "Svátky",
	"Zaměstnanci", "Celkem odpracováno",
}

// MonthlyStore manages the month-aggregate workbook. One row per calendar
// day; total, overtime and crew-total columns carry sheet formulas so the
// workbook stays a live report when opened by hand.
type MonthlyStore struct {
	dir         string
	cellMapPath string
	mu          sync.Mutex
}

func NewMonthlyStore(dir, cellMapPath string) *MonthlyStore {
	return &MonthlyStore{dir: dir, cellMapPath: cellMapPath}
}

func (s *MonthlyStore) path() string {
	return filepath.Join(s.dir, MonthlyFile)
}

func sheetName(month, year int) string {
	return fmt.Sprintf("%02dhod%02d", month, year%100)
}

func MonthName(month int) string {
	if month < 1 || month > 12 {
		return "Neznámý"
	}
	return czechMonths[month]
}

func (s *MonthlyStore) ensureFile() error {
	if _, err := os.Stat(s.path()); err == nil {
		return nil
	}
	logger.Info("creating monthly workbook", "file", MonthlyFile)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", monthTemplateSheet); err != nil {
		return err
	}
	if err := s.setupTemplateSheet(f); err != nil {
		return err
	}

	now := time.Now()
	name := sheetName(int(now.Month()), now.Year())
	if err := s.cloneMonthSheet(f, name, int(now.Month()), now.Year()); err != nil {
		return err
	}
	return f.SaveAs(s.path())
}

func (s *MonthlyStore) setupTemplateSheet(f *excelize.File) error {
	sheet := monthTemplateSheet
	f.SetCellValue(sheet, "A1", "Měsíční výkaz práce - [Měsíc] 2025")

	boldCenter, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	for col, header := range monthHeaders {
		cell := cellName(col+1, headerRow)
		f.SetCellValue(sheet, cell, header)
		f.SetCellStyle(sheet, cell, cell, boldCenter)
	}

	for day := 1; day <= 31; day++ {
		row := dataStartRow + day - 1
		f.SetCellValue(sheet, cellName(colDay, row), day)
		if err := setDayFormulas(f, sheet, row); err != nil {
			return err
		}
	}
	return s.setSummaryFormulas(f, sheet)
}

func setDayFormulas(f *excelize.File, sheet string, row int) error {
	formulas := map[int]string{
		colTotalHours: fmt.Sprintf(`IF(AND(E%d<>"",G%d<>""),(G%d-E%d)*24-F%d,0)`, row, row, row, row, row),
		colOvertime:   fmt.Sprintf("MAX(0,H%d-8)", row),
		colTotalAll:   fmt.Sprintf("H%d*M%d", row, row),
	}
	for col, formula := range formulas {
		if err := f.SetCellFormula(sheet, cellName(col, row), formula); err != nil {
			return err
		}
	}
	return nil
}

func (s *MonthlyStore) setSummaryFormulas(f *excelize.File, sheet string) error {
	grey, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"CCCCCC"}},
	})
	if err != nil {
		return err
	}
	f.SetCellValue(sheet, cellName(1, summaryRow), "SOUHRN:")
	for _, sum := range []struct {
		col    int
		letter string
	}{{colTotalHours, "H"}, {colOvertime, "I"}, {colTotalAll, "N"}} {
		cell := cellName(sum.col, summaryRow)
		formula := fmt.Sprintf("SUM(%s%d:%s%d)", sum.letter, dataStartRow, sum.letter, dataEndRow)
		if err := f.SetCellFormula(sheet, cell, formula); err != nil {
			return err
		}
		f.SetCellStyle(sheet, cell, cell, grey)
	}
	return nil
}

// cloneMonthSheet copies the template sheet and stamps it with the month's
// dates, Czech weekday abbreviations and a weekend fill.
func (s *MonthlyStore) cloneMonthSheet(f *excelize.File, name string, month, year int) error {
	tmplIdx, err := f.GetSheetIndex(monthTemplateSheet)
	if err != nil || tmplIdx < 0 {
		return fmt.Errorf("template sheet %s not found", monthTemplateSheet)
	}
	idx, err := f.NewSheet(name)
	if err != nil {
		return err
	}
	if err := f.CopySheet(tmplIdx, idx); err != nil {
		return fmt.Errorf("copy template sheet: %w", err)
	}

	f.SetCellValue(name, "A1", fmt.Sprintf("Měsíční výkaz práce - %s %d", MonthName(month), year))

	weekendFill, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFE6E6"}},
	})
	if err != nil {
		return err
	}

	days := daysInMonth(month, year)
	for day := 1; day <= days; day++ {
		row := dataStartRow + day - 1
		date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		f.SetCellValue(name, cellName(colDate, row), date.Format(sheetDateFormat))
		f.SetCellValue(name, cellName(colWeekday, row), czechWeekdays[(int(date.Weekday())+6)%7])
		if wd := (int(date.Weekday()) + 6) % 7; wd >= 5 {
			f.SetCellStyle(name, cellName(1, row), cellName(colTotalAll, row), weekendFill)
		}
	}
	// Rows past the month's end are blanked, formulas included.
	for day := days + 1; day <= 31; day++ {
		row := dataStartRow + day - 1
		for col := 1; col <= colTotalAll; col++ {
			f.SetCellValue(name, cellName(col, row), "")
		}
	}
	logger.Info("month sheet created", "sheet", name)
	return nil
}

func daysInMonth(month, year int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// openMonth returns the workbook with the month sheet present, creating the
// workbook and sheet lazily. Caller closes the file.
func (s *MonthlyStore) openMonth(month, year int) (*excelize.File, string, error) {
	if err := s.ensureFile(); err != nil {
		return nil, "", err
	}
	f, err := excelize.OpenFile(s.path())
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", MonthlyFile, err)
	}

	name := sheetName(month, year)
	if idx, _ := f.GetSheetIndex(name); idx < 0 {
		if err := s.cloneMonthSheet(f, name, month, year); err != nil {
			f.Close()
			return nil, "", err
		}
		if err := f.Save(); err != nil {
			f.Close()
			return nil, "", fmt.Errorf("save %s: %w", MonthlyFile, err)
		}
	}
	return f, name, nil
}

// SaveDay writes one day's record into the month sheet. "00:00" start or end
// times mean a free day and leave the time cells blank so the total formula
// yields zero.
func (s *MonthlyStore) SaveDay(date, start, end string, lunch float64, crew int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	day, err := time.Parse(dateFormat, date)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", date, err)
	}
	f, sheet, err := s.openMonth(int(day.Month()), day.Year())
	if err != nil {
		return err
	}
	defer f.Close()

	row := dataStartRow + day.Day() - 1
	cm := LoadCellMap(s.cellMapPath)

	writeField := func(field string, fallbackCol int, value interface{}, numFmt string) error {
		coords := cm.Coordinates("monthly_time", field, MonthlyFile, sheet)
		if len(coords) == 0 {
			coords = [][2]int{{fallbackCol, row}}
		}
		for _, c := range coords {
			cell := cellName(c[0], c[1])
			var err error
			if numFmt != "" {
				err = setNumberedCell(f, sheet, cell, value, numFmt)
			} else {
				err = f.SetCellValue(sheet, cell, value)
			}
			if err != nil {
				return fmt.Errorf("write %s: %w", field, err)
			}
		}
		return nil
	}

	if start != "" && start != "00:00" {
		if err := writeField("start_time", colStart, start, ""); err != nil {
			return err
		}
	}
	if end != "" && end != "00:00" {
		if err := writeField("end_time", colEnd, end, ""); err != nil {
			return err
		}
	}
	if err := writeField("lunch_hours", colLunch, lunch, "0.0"); err != nil {
		return err
	}
	if crew < 0 {
		crew = 0
	}
	if err := writeField("num_employees", colEmployees, crew, ""); err != nil {
		return err
	}

	// A hand edit may have replaced a formula with a literal; put it back.
	if err := ensureDayFormulas(f, sheet, row); err != nil {
		return err
	}

	if err := f.Save(); err != nil {
		return fmt.Errorf("save %s: %w", MonthlyFile, err)
	}
	logger.Info("monthly record saved", "date", date, "sheet", sheet)
	return nil
}

func ensureDayFormulas(f *excelize.File, sheet string, row int) error {
	formulas := map[int]string{
		colTotalHours: fmt.Sprintf(`IF(AND(E%d<>"",G%d<>""),(G%d-E%d)*24-F%d,0)`, row, row, row, row, row),
		colOvertime:   fmt.Sprintf("MAX(0,H%d-8)", row),
		colTotalAll:   fmt.Sprintf("H%d*M%d", row, row),
	}
	for col, formula := range formulas {
		cell := cellName(col, row)
		existing, _ := f.GetCellFormula(sheet, cell)
		if existing != "" {
			continue
		}
		if err := f.SetCellFormula(sheet, cell, formula); err != nil {
			return err
		}
	}
	return nil
}

// MonthlySummary reads the summary row of a month sheet, evaluating the SUM
// formulas. When formula evaluation fails the day rows are summed directly.
func (s *MonthlyStore) MonthlySummary(month, year int) (*model.MonthlySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, sheet, err := s.openMonth(month, year)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	summary := &model.MonthlySummary{
		Month: month, Year: year,
		MonthName: MonthName(month),
		SheetName: sheet,
	}
	summary.TotalHours = s.calcOrSum(f, sheet, colTotalHours)
	summary.TotalOvertime = s.calcOrSum(f, sheet, colOvertime)
	summary.TotalAllEmployees = s.calcOrSum(f, sheet, colTotalAll)
	return summary, nil
}

func (s *MonthlyStore) calcOrSum(f *excelize.File, sheet string, col int) float64 {
	if val, err := f.CalcCellValue(sheet, cellName(col, summaryRow)); err == nil && val != "" {
		return parseFloat(val)
	}
	var total float64
	for row := dataStartRow; row <= dataEndRow; row++ {
		if val, err := f.CalcCellValue(sheet, cellName(col, row)); err == nil {
			total += parseFloat(val)
		}
	}
	return total
}

// DailyRecord reads one day row. Formula columns that evaluate to zero are
// recomputed locally from the raw cells so a freshly written day reads back
// correctly even before a spreadsheet application recalculates.
func (s *MonthlyStore) DailyRecord(date string) (*model.DailyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	day, err := time.Parse(dateFormat, date)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", date, err)
	}
	f, sheet, err := s.openMonth(int(day.Month()), day.Year())
	if err != nil {
		return nil, err
	}
	defer f.Close()

	row := dataStartRow + day.Day() - 1
	get := func(col int) string {
		v, _ := f.GetCellValue(sheet, cellName(col, row))
		return v
	}
	calc := func(col int) float64 {
		v, err := f.CalcCellValue(sheet, cellName(col, row))
		if err != nil {
			return 0
		}
		return parseFloat(v)
	}

	rec := &model.DailyRecord{
		Date: date, Day: day.Day(), Row: row, SheetName: sheet,
		StartTime:         get(colStart),
		EndTime:           get(colEnd),
		LunchHours:        parseFloat(get(colLunch)),
		TotalHours:        calc(colTotalHours),
		Overtime:          calc(colOvertime),
		NumEmployees:      parseInt(get(colEmployees)),
		TotalAllEmployees: calc(colTotalAll),
	}
	recalculate(rec)
	return rec, nil
}

func recalculate(rec *model.DailyRecord) {
	if rec.TotalHours == 0 && rec.StartTime != "" && rec.EndTime != "" {
		start, err1 := time.Parse(timeFormat, rec.StartTime)
		end, err2 := time.Parse(timeFormat, rec.EndTime)
		if err1 == nil && err2 == nil {
			hours := end.Sub(start).Hours() - rec.LunchHours
			if hours < 0 {
				hours = 0
			}
			rec.TotalHours = hours
		}
	}
	if rec.Overtime == 0 && rec.TotalHours > 8 {
		rec.Overtime = rec.TotalHours - 8
	}
	if rec.TotalAllEmployees == 0 && rec.TotalHours > 0 {
		rec.TotalAllEmployees = rec.TotalHours * float64(rec.NumEmployees)
	}
}

// ValidateIntegrity walks every month sheet checking that the formula cells
// still hold formulas and that start/end times come in pairs.
func (s *MonthlyStore) ValidateIntegrity() (*model.IntegrityReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureFile(); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(s.path())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", MonthlyFile, err)
	}
	defer f.Close()

	report := &model.IntegrityReport{Valid: true, Errors: []string{}, Warnings: []string{}}
	for _, sheet := range f.GetSheetList() {
		if sheet == monthTemplateSheet {
			continue
		}
		report.SheetsChecked++
		for row := dataStartRow; row <= dataEndRow; row++ {
			report.RecordsChecked++

			formula, _ := f.GetCellFormula(sheet, cellName(colTotalHours, row))
			value, _ := f.GetCellValue(sheet, cellName(colTotalHours, row))
			if formula == "" && value != "" {
				report.Valid = false
				report.Errors = append(report.Errors,
					fmt.Sprintf("list %s, řádek %d: chybí vzorec", sheet, row))
			}

			start, _ := f.GetCellValue(sheet, cellName(colStart, row))
			end, _ := f.GetCellValue(sheet, cellName(colEnd, row))
			if (start == "") != (end == "") {
				report.Warnings = append(report.Warnings,
					fmt.Sprintf("list %s, řádek %d: chybí čas začátku/konce", sheet, row))
			}
		}
	}
	return report, nil
}
