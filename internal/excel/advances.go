package excel

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"hodiny/internal/logger"

	"github.com/xuri/excelize/v2"
)

const (
	// advanceDateCol is the last-transaction date column (Z) of the ledger.
	advanceDateCol = 26
	// optionNameRow holds the four bucket names in B80/D80/F80/H80.
	optionNameRow = 80
)

// defaultOptions name the four advance buckets when the sheet cells are blank.
var defaultOptions = [4]string{"Záloha", "Materiál", "Nářadí", "Ostatní"}

// ValidCurrencies are the two currencies the ledger tracks, one column each
// per option bucket.
var ValidCurrencies = []string{"EUR", "CZK"}

// AdvanceStore manages the Zálohy ledger sheet of the master workbook:
// running per-employee totals in fixed cells, one column per
// (option, currency) pair, last-transaction date in column Z.
type AdvanceStore struct {
	baseDir     string
	cellMapPath string
	mu          sync.Mutex
}

func NewAdvanceStore(baseDir, cellMapPath string) *AdvanceStore {
	return &AdvanceStore{baseDir: baseDir, cellMapPath: cellMapPath}
}

func (s *AdvanceStore) path() string {
	return filepath.Join(s.baseDir, TemplateFile)
}

func validateAdvance(employee string, amount float64, currency, date string) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	valid := false
	for _, c := range ValidCurrencies {
		if c == currency {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid currency %q", currency)
	}
	if strings.TrimSpace(employee) == "" {
		return fmt.Errorf("employee name must not be blank")
	}
	if _, err := time.Parse(dateFormat, date); err != nil {
		return fmt.Errorf("invalid date %q: %w", date, err)
	}
	return nil
}

// OptionNames reads the four bucket names from the ledger header cells,
// falling back to the defaults for blank cells or a missing sheet.
func (s *AdvanceStore) OptionNames() [4]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.optionNames()
}

func (s *AdvanceStore) optionNames() [4]string {
	names := defaultOptions

	f, err := excelize.OpenFile(s.path())
	if err != nil {
		logger.Error("advance workbook unreadable, using default options", "err", err)
		return names
	}
	defer f.Close()

	if idx, _ := f.GetSheetIndex(AdvancesSheet); idx < 0 {
		return names
	}
	for i := 0; i < 4; i++ {
		cell := cellName(2+2*i, optionNameRow)
		val, _ := f.GetCellValue(AdvancesSheet, cell)
		if v := strings.TrimSpace(val); v != "" {
			names[i] = v
		}
	}
	return names
}

// AddAdvance accumulates an advance into the employee's cell for the given
// option and currency, creating the employee row when missing, and stamps
// the transaction date.
func (s *AdvanceStore) AddAdvance(employee string, amount float64, currency, option, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validateAdvance(employee, amount, currency, date); err != nil {
		return err
	}

	options := s.optionNames()
	optionIndex := -1
	for i, name := range options {
		if name == option {
			optionIndex = i
			break
		}
	}
	if optionIndex < 0 {
		return fmt.Errorf("invalid advance option %q", option)
	}

	f, err := excelize.OpenFile(s.path())
	if err != nil {
		return fmt.Errorf("open %s: %w", TemplateFile, err)
	}
	defer f.Close()

	if idx, _ := f.GetSheetIndex(AdvancesSheet); idx < 0 {
		return fmt.Errorf("sheet %s not found in %s", AdvancesSheet, TemplateFile)
	}

	rows, err := f.GetRows(AdvancesSheet)
	if err != nil {
		return fmt.Errorf("read %s: %w", AdvancesSheet, err)
	}
	row := findOrAppendEmployeeRow(f, AdvancesSheet, rows, employee)

	cm := LoadCellMap(s.cellMapPath)
	amountField := "amount_" + strings.ToLower(currency)
	coords := cm.Coordinates("advances", amountField, TemplateFile, AdvancesSheet)
	if len(coords) == 0 {
		czk := 0
		if currency == "CZK" {
			czk = 1
		}
		coords = [][2]int{{2 + 2*optionIndex + czk, row}}
	}
	for _, c := range coords {
		if err := s.accumulate(f, cellName(c[0], c[1]), amount); err != nil {
			return err
		}
	}

	dateCoords := cm.Coordinates("advances", "date", TemplateFile, AdvancesSheet)
	if len(dateCoords) == 0 {
		dateCoords = [][2]int{{advanceDateCol, row}}
	}
	day, _ := time.Parse(dateFormat, date)
	for _, c := range dateCoords {
		if err := setNumberedCell(f, AdvancesSheet, cellName(c[0], c[1]), day.Format(sheetDateFormat), fmtDate); err != nil {
			return fmt.Errorf("write advance date: %w", err)
		}
	}

	if err := f.Save(); err != nil {
		return fmt.Errorf("save %s: %w", TemplateFile, err)
	}
	logger.Info("advance recorded", "employee", employee, "amount", amount, "currency", currency, "option", option)
	return nil
}

func (s *AdvanceStore) accumulate(f *excelize.File, cell string, amount float64) error {
	// Raw read: the currency number format would add thousands separators.
	current, _ := f.GetCellValue(AdvancesSheet, cell, excelize.Options{RawCellValue: true})
	total := parseFloat(current) + amount
	if err := setNumberedCell(f, AdvancesSheet, cell, total, fmtCurrency); err != nil {
		return fmt.Errorf("write advance amount: %w", err)
	}
	return nil
}
