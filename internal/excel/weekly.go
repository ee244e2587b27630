package excel

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"hodiny/internal/logger"
	"hodiny/internal/model"

	"github.com/xuri/excelize/v2"
)

const (
	dateFormat = "2006-01-02"
	timeFormat = "15:04"
	// sheetDateFormat is how dates are stamped into the week sheets (row 80).
	sheetDateFormat = "02.01.2006"

	// weekStartRow / weekDateRow are the fixed header coordinates of the
	// week sheet: the day's start time sits in row 7 of the day column, the
	// day's date stamp in row 80.
	weekStartTimeRow = 7
	weekDateRow      = 80
)

var weekFileRe = regexp.MustCompile(`^Hodiny_Cap_Tyden(\d+)\.xlsx$`)

// WeeklyStore manages the per-week workbooks cloned from the master template.
// One file per ISO week, one Týden sheet per file: employees in column A from
// row 9, one column pair per weekday.
type WeeklyStore struct {
	baseDir     string
	cellMapPath string
	mu          sync.Mutex
}

func NewWeeklyStore(baseDir, cellMapPath string) *WeeklyStore {
	return &WeeklyStore{baseDir: baseDir, cellMapPath: cellMapPath}
}

func (s *WeeklyStore) TemplatePath() string {
	return filepath.Join(s.baseDir, TemplateFile)
}

// WeekNumber returns the ISO week of a YYYY-MM-DD date.
func WeekNumber(date string) (int, error) {
	t, err := time.Parse(dateFormat, date)
	if err != nil {
		return 0, fmt.Errorf("parse date %q: %w", date, err)
	}
	_, week := t.ISOWeek()
	return week, nil
}

// SaveWorkDay writes one day of work for the given employees into the week
// workbook of the date, creating the workbook and sheet from the template
// when missing.
func (s *WeeklyStore) SaveWorkDay(date, start, end string, lunch float64, employees []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	day, err := time.Parse(dateFormat, date)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", date, err)
	}
	startT, err := time.Parse(timeFormat, start)
	if err != nil {
		return fmt.Errorf("parse start time %q: %w", start, err)
	}
	endT, err := time.Parse(timeFormat, end)
	if err != nil {
		return fmt.Errorf("parse end time %q: %w", end, err)
	}

	_, week := day.ISOWeek()
	path, err := s.getOrCreateWeekFile(week)
	if err != nil {
		return err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("open week file %s: %w", path, err)
	}
	defer f.Close()

	if err := s.ensureWeekSheet(f); err != nil {
		return err
	}
	if err := s.writeDay(f, day, startT, endT, lunch, employees); err != nil {
		return err
	}

	if err := f.Save(); err != nil {
		return fmt.Errorf("save week file %s: %w", path, err)
	}
	logger.Info("work day saved", "date", date, "week", week, "file", filepath.Base(path), "employees", len(employees))
	return nil
}

func (s *WeeklyStore) weekFilePath(week int) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("Hodiny_Cap_Tyden%d.xlsx", week))
}

// getOrCreateWeekFile clones the nearest previous week file, falling back to
// the template, so mid-project layout edits carry forward.
func (s *WeeklyStore) getOrCreateWeekFile(week int) (string, error) {
	path := s.weekFilePath(week)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	src := s.findPreviousWeekFile(week)
	fromWeekFile := src != ""
	if !fromWeekFile {
		src = s.TemplatePath()
		if _, err := os.Stat(src); err != nil {
			return "", fmt.Errorf("template %s missing: %w", TemplateFile, err)
		}
	}
	if err := copyFile(src, path); err != nil {
		return "", err
	}
	if fromWeekFile {
		// The clone carries the roster forward but must not carry last
		// week's hours and date stamps, or reports would count them twice.
		if err := clearWeekData(path); err != nil {
			return "", err
		}
	}
	logger.Info("week file created", "week", week, "from", filepath.Base(src))
	return path, nil
}

func clearWeekData(path string) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	if idx, _ := f.GetSheetIndex(WeekSheet); idx < 0 {
		return nil
	}
	rows, err := f.GetRows(WeekSheet)
	if err != nil {
		return fmt.Errorf("read week sheet: %w", err)
	}
	for col := 2; col <= 11; col++ {
		f.SetCellValue(WeekSheet, cellName(col, weekStartTimeRow), "")
		f.SetCellValue(WeekSheet, cellName(col, weekDateRow), "")
		for row := employeeStartRow; row <= len(rows); row++ {
			f.SetCellValue(WeekSheet, cellName(col, row), "")
		}
	}
	if err := f.Save(); err != nil {
		return fmt.Errorf("save %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (s *WeeklyStore) findPreviousWeekFile(week int) string {
	for w := week - 1; w > 0; w-- {
		path := s.weekFilePath(w)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ensureWeekSheet clones the Týden sheet from the template when the week
// workbook lacks it (the workbook may have been created from an older copy).
func (s *WeeklyStore) ensureWeekSheet(f *excelize.File) error {
	if idx, _ := f.GetSheetIndex(WeekSheet); idx >= 0 {
		return nil
	}
	tmpl, err := excelize.OpenFile(s.TemplatePath())
	if err != nil {
		// No template to clone from; an empty sheet keeps the write going.
		logger.Warn("template unavailable, creating empty week sheet", "err", err)
		_, err := f.NewSheet(WeekSheet)
		return err
	}
	defer tmpl.Close()

	if idx, _ := tmpl.GetSheetIndex(WeekSheet); idx < 0 {
		logger.Warn("template has no week sheet, creating empty one")
		_, err := f.NewSheet(WeekSheet)
		return err
	}
	return cloneSheetValues(tmpl, WeekSheet, f, WeekSheet)
}

func (s *WeeklyStore) writeDay(f *excelize.File, day time.Time, start, end time.Time, lunch float64, employees []string) error {
	cm := LoadCellMap(s.cellMapPath)

	// Monday is day 0; each weekday owns a (start/date, hours) column pair.
	weekday := (int(day.Weekday()) + 6) % 7
	dayCol := 2 + 2*weekday

	total := end.Sub(start).Hours() - lunch
	total = math.Round(total*100) / 100
	if total < 0 {
		total = 0
	}

	rows, err := f.GetRows(WeekSheet)
	if err != nil {
		return fmt.Errorf("read week sheet: %w", err)
	}
	for _, emp := range employees {
		row := findOrAppendEmployeeRow(f, WeekSheet, rows, emp)
		if err := setNumberedCell(f, WeekSheet, cellName(dayCol+1, row), total, fmtHours); err != nil {
			return fmt.Errorf("write hours for %s: %w", emp, err)
		}
		// Refresh the scan so a just-appended name is found next round.
		rows, _ = f.GetRows(WeekSheet)
	}

	writeField := func(field string, fallbackCol, fallbackRow int, value interface{}, numFmt string) error {
		coords := cm.Coordinates("weekly_time", field, TemplateFile, WeekSheet)
		if len(coords) == 0 {
			if fallbackCol == 0 {
				return nil // field only written when mapped
			}
			coords = [][2]int{{fallbackCol, fallbackRow}}
		}
		for _, c := range coords {
			if err := setNumberedCell(f, WeekSheet, cellName(c[0], c[1]), value, numFmt); err != nil {
				return fmt.Errorf("write %s: %w", field, err)
			}
		}
		return nil
	}

	if err := writeField("start_time", dayCol, weekStartTimeRow, start.Format(timeFormat), "HH:MM"); err != nil {
		return err
	}
	if err := writeField("end_time", 0, 0, end.Format(timeFormat), "HH:MM"); err != nil {
		return err
	}
	if err := writeField("lunch_duration", 0, 0, lunch, fmtHours); err != nil {
		return err
	}
	if err := writeField("total_hours", 0, 0, total, fmtHours); err != nil {
		return err
	}
	return writeField("date", dayCol, weekDateRow, day.Format(sheetDateFormat), fmtDate)
}

// findOrAppendEmployeeRow returns the row of the employee in column A,
// writing the name into the first blank row at or below employeeStartRow
// when absent.
func findOrAppendEmployeeRow(f *excelize.File, sheet string, rows [][]string, name string) int {
	row := employeeStartRow
	for ; row <= len(rows); row++ {
		var val string
		if len(rows[row-1]) > 0 {
			val = rows[row-1][0]
		}
		if val == name {
			return row
		}
		if val == "" {
			break
		}
	}
	f.SetCellValue(sheet, cellName(1, row), name)
	logger.Info("employee row added", "sheet", sheet, "name", name, "row", row)
	return row
}

// MonthlyReport aggregates worked hours and free days per employee from the
// week workbooks whose date stamps fall into the given month. Employees with
// no activity in the month are dropped.
func (s *WeeklyStore) MonthlyReport(month, year int, filter []string) (map[string]*model.MonthEmployee, error) {
	if month < 1 || month > 12 || year < 2000 || year > 2100 {
		return nil, fmt.Errorf("invalid month %d or year %d", month, year)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := map[string]bool{}
	for _, e := range filter {
		wanted[e] = true
	}

	report := map[string]*model.MonthEmployee{}
	paths, _ := filepath.Glob(filepath.Join(s.baseDir, "Hodiny_Cap_Tyden*.xlsx"))
	for _, path := range paths {
		if !weekFileRe.MatchString(filepath.Base(path)) {
			continue
		}
		f, err := excelize.OpenFile(path)
		if err != nil {
			logger.Error("week file unreadable, skipping", "file", filepath.Base(path), "err", err)
			continue
		}
		s.collectSheet(f, month, year, wanted, report)
		f.Close()
	}

	for name, data := range report {
		if data.TotalHours == 0 && data.FreeDays == 0 {
			delete(report, name)
		}
	}
	return report, nil
}

func (s *WeeklyStore) collectSheet(f *excelize.File, month, year int, wanted map[string]bool, report map[string]*model.MonthEmployee) {
	rows, err := f.GetRows(WeekSheet)
	if err != nil {
		return
	}

	// Which day columns belong to the month, judged by the row-80 stamps.
	inMonth := map[int]bool{}
	for col := 2; col <= 10; col += 2 {
		val, _ := f.GetCellValue(WeekSheet, cellName(col, weekDateRow))
		d, err := time.Parse(sheetDateFormat, val)
		if err != nil {
			continue
		}
		if int(d.Month()) == month && d.Year() == year {
			inMonth[col] = true
		}
	}
	if len(inMonth) == 0 {
		return
	}

	for row := employeeStartRow; row <= len(rows); row++ {
		var name string
		if len(rows[row-1]) > 0 {
			name = rows[row-1][0]
		}
		if name == "" || (len(wanted) > 0 && !wanted[name]) {
			continue
		}
		if report[name] == nil {
			report[name] = &model.MonthEmployee{}
		}
		for col := 3; col <= 11; col += 2 {
			if !inMonth[col-1] {
				continue
			}
			val, _ := f.GetCellValue(WeekSheet, cellName(col, row))
			if val == "" {
				continue
			}
			hours := parseFloat(val)
			if hours > 0 {
				report[name].TotalHours += hours
			} else {
				report[name].FreeDays++
			}
		}
	}
}

// WeekGrid returns the top-left corner of a week sheet as a string grid for
// the main-page preview. Falls back to the template when the week file does
// not exist yet.
func (s *WeeklyStore) WeekGrid(week int) (*model.WeekGrid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.weekFilePath(week)
	if _, err := os.Stat(path); err != nil {
		path = s.TemplatePath()
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	if idx, _ := f.GetSheetIndex(WeekSheet); idx < 0 {
		return nil, fmt.Errorf("sheet %s not found in %s", WeekSheet, filepath.Base(path))
	}

	rows, err := f.GetRows(WeekSheet)
	if err != nil {
		return nil, fmt.Errorf("read week sheet: %w", err)
	}

	const maxRows, maxCols = 20, 10
	grid := make([][]string, 0, maxRows)
	for r := 0; r < len(rows) && r < maxRows; r++ {
		line := make([]string, maxCols)
		for c := 0; c < maxCols; c++ {
			if c < len(rows[r]) {
				line[c] = rows[r][c]
			}
		}
		grid = append(grid, line)
	}

	cols := 0
	if len(grid) > 0 {
		cols = len(grid[0])
	}
	return &model.WeekGrid{
		SheetName: fmt.Sprintf("%s %d", WeekSheet, week),
		Data:      grid,
		Rows:      len(grid),
		Cols:      cols,
	}, nil
}

// Archive snapshots the master workbook under the last archived week's name
// and strips its week sheets. Returns false when the current week has
// already been archived.
func (s *WeeklyStore) Archive(currentWeek, lastArchivedWeek int) (bool, error) {
	if currentWeek <= lastArchivedWeek {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	archivePath := filepath.Join(s.baseDir, fmt.Sprintf("Hodiny_Cap_Tyden_%d.xlsx", lastArchivedWeek))
	if err := copyFile(s.TemplatePath(), archivePath); err != nil {
		return false, err
	}
	logger.Info("workbook archived", "file", filepath.Base(archivePath))

	f, err := excelize.OpenFile(s.TemplatePath())
	if err != nil {
		return false, fmt.Errorf("open template: %w", err)
	}
	defer f.Close()

	for _, name := range f.GetSheetList() {
		if len(name) >= len(WeekSheet) && name[:len(WeekSheet)] == WeekSheet {
			if err := f.DeleteSheet(name); err != nil {
				return false, fmt.Errorf("delete sheet %s: %w", name, err)
			}
		}
	}
	if _, err := f.NewSheet(WeekSheet); err != nil {
		return false, err
	}
	if err := f.Save(); err != nil {
		return false, fmt.Errorf("save template: %w", err)
	}
	return true, nil
}
