package excel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// newTemplate writes a minimal master workbook with the week and advances
// sheets into dir and returns the directory.
func newTemplate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", WeekSheet))
	_, err := f.NewSheet(AdvancesSheet)
	require.NoError(t, err)

	f.SetCellValue(WeekSheet, "A1", "Týdenní výkaz")
	for i, name := range defaultOptions {
		f.SetCellValue(AdvancesSheet, cellName(2+2*i, optionNameRow), name)
	}

	require.NoError(t, f.SaveAs(filepath.Join(dir, TemplateFile)))
	require.NoError(t, f.Close())
	return dir
}

func cell(t *testing.T, path, sheet, ref string) string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	val, err := f.GetCellValue(sheet, ref, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	return val
}

func TestWeekNumber(t *testing.T) {
	week, err := WeekNumber("2025-06-02")
	require.NoError(t, err)
	assert.Equal(t, 23, week)

	_, err = WeekNumber("02.06.2025")
	assert.Error(t, err)
}

func TestSaveWorkDayCreatesWeekFile(t *testing.T) {
	dir := newTemplate(t)
	store := NewWeeklyStore(dir, filepath.Join(dir, "cell_map.json"))

	// 2025-06-02 is a Monday in ISO week 23.
	err := store.SaveWorkDay("2025-06-02", "07:00", "18:00", 1.0, []string{"Čáp Jakub", "Novák Petr"})
	require.NoError(t, err)

	path := filepath.Join(dir, "Hodiny_Cap_Tyden23.xlsx")
	require.FileExists(t, path)

	assert.Equal(t, "Čáp Jakub", cell(t, path, WeekSheet, "A9"))
	assert.Equal(t, "Novák Petr", cell(t, path, WeekSheet, "A10"))
	// Monday hours land in column C, 18:00 - 07:00 - 1h lunch = 10.
	assert.InDelta(t, 10.0, parseFloat(cell(t, path, WeekSheet, "C9")), 0.001)
	assert.InDelta(t, 10.0, parseFloat(cell(t, path, WeekSheet, "C10")), 0.001)
	// Start time in row 7 of the day column, date stamp in row 80.
	assert.Equal(t, "07:00", cell(t, path, WeekSheet, "B7"))
	assert.Equal(t, "02.06.2025", cell(t, path, WeekSheet, "B80"))
}

func TestSaveWorkDayFreeDay(t *testing.T) {
	dir := newTemplate(t)
	store := NewWeeklyStore(dir, filepath.Join(dir, "cell_map.json"))

	require.NoError(t, store.SaveWorkDay("2025-06-03", "00:00", "00:00", 0, []string{"Čáp Jakub"}))

	path := filepath.Join(dir, "Hodiny_Cap_Tyden23.xlsx")
	// Tuesday hours column is E; a free day records zero hours.
	assert.InDelta(t, 0.0, parseFloat(cell(t, path, WeekSheet, "E9")), 0.001)
}

func TestSaveWorkDayRejectsBadInput(t *testing.T) {
	dir := newTemplate(t)
	store := NewWeeklyStore(dir, filepath.Join(dir, "cell_map.json"))

	assert.Error(t, store.SaveWorkDay("junk", "07:00", "18:00", 1, []string{"A B"}))
	assert.Error(t, store.SaveWorkDay("2025-06-02", "7h", "18:00", 1, []string{"A B"}))
	assert.Error(t, store.SaveWorkDay("2025-06-02", "07:00", "6pm", 1, []string{"A B"}))
}

func TestSaveWorkDayFindsExistingRow(t *testing.T) {
	dir := newTemplate(t)
	store := NewWeeklyStore(dir, filepath.Join(dir, "cell_map.json"))

	require.NoError(t, store.SaveWorkDay("2025-06-02", "07:00", "18:00", 1, []string{"Čáp Jakub"}))
	require.NoError(t, store.SaveWorkDay("2025-06-03", "08:00", "16:00", 0.5, []string{"Čáp Jakub"}))

	path := filepath.Join(dir, "Hodiny_Cap_Tyden23.xlsx")
	assert.Equal(t, "Čáp Jakub", cell(t, path, WeekSheet, "A9"))
	assert.Equal(t, "", cell(t, path, WeekSheet, "A10"))
	assert.InDelta(t, 7.5, parseFloat(cell(t, path, WeekSheet, "E9")), 0.001)
}

func TestMonthlyReport(t *testing.T) {
	dir := newTemplate(t)
	store := NewWeeklyStore(dir, filepath.Join(dir, "cell_map.json"))

	require.NoError(t, store.SaveWorkDay("2025-06-02", "07:00", "18:00", 1, []string{"Čáp Jakub", "Novák Petr"}))
	require.NoError(t, store.SaveWorkDay("2025-06-03", "00:00", "00:00", 0, []string{"Čáp Jakub"}))
	// Different ISO week, same month.
	require.NoError(t, store.SaveWorkDay("2025-06-10", "08:00", "16:00", 0.5, []string{"Čáp Jakub"}))

	report, err := store.MonthlyReport(6, 2025, nil)
	require.NoError(t, err)

	require.Contains(t, report, "Čáp Jakub")
	assert.InDelta(t, 17.5, report["Čáp Jakub"].TotalHours, 0.001)
	assert.Equal(t, 1, report["Čáp Jakub"].FreeDays)

	require.Contains(t, report, "Novák Petr")
	assert.InDelta(t, 10.0, report["Novák Petr"].TotalHours, 0.001)

	// July has no stamped days.
	empty, err := store.MonthlyReport(7, 2025, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMonthlyReportFilter(t *testing.T) {
	dir := newTemplate(t)
	store := NewWeeklyStore(dir, filepath.Join(dir, "cell_map.json"))

	require.NoError(t, store.SaveWorkDay("2025-06-02", "07:00", "18:00", 1, []string{"Čáp Jakub", "Novák Petr"}))

	report, err := store.MonthlyReport(6, 2025, []string{"Novák Petr"})
	require.NoError(t, err)
	assert.NotContains(t, report, "Čáp Jakub")
	assert.Contains(t, report, "Novák Petr")
}

func TestMonthlyReportRejectsBadParams(t *testing.T) {
	store := NewWeeklyStore(t.TempDir(), "")
	_, err := store.MonthlyReport(0, 2025, nil)
	assert.Error(t, err)
	_, err = store.MonthlyReport(13, 2025, nil)
	assert.Error(t, err)
	_, err = store.MonthlyReport(6, 1900, nil)
	assert.Error(t, err)
}

func TestWeekGrid(t *testing.T) {
	dir := newTemplate(t)
	store := NewWeeklyStore(dir, filepath.Join(dir, "cell_map.json"))

	require.NoError(t, store.SaveWorkDay("2025-06-02", "07:00", "18:00", 1, []string{"Čáp Jakub"}))

	grid, err := store.WeekGrid(23)
	require.NoError(t, err)
	assert.Equal(t, "Týden 23", grid.SheetName)
	assert.LessOrEqual(t, grid.Rows, 20)
	assert.Equal(t, 10, grid.Cols)
	assert.Equal(t, "Čáp Jakub", grid.Data[8][0])

	// Missing week falls back to the template.
	tmplGrid, err := store.WeekGrid(40)
	require.NoError(t, err)
	assert.Equal(t, "Týdenní výkaz", tmplGrid.Data[0][0])
}

func TestArchive(t *testing.T) {
	dir := newTemplate(t)
	store := NewWeeklyStore(dir, filepath.Join(dir, "cell_map.json"))

	rotated, err := store.Archive(24, 23)
	require.NoError(t, err)
	assert.True(t, rotated)
	require.FileExists(t, filepath.Join(dir, "Hodiny_Cap_Tyden_23.xlsx"))

	// The master keeps a fresh week sheet after rotation.
	f, err := excelize.OpenFile(store.TemplatePath())
	require.NoError(t, err)
	defer f.Close()
	idx, err := f.GetSheetIndex(WeekSheet)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, idx, 0)

	rotated, err = store.Archive(24, 24)
	require.NoError(t, err)
	assert.False(t, rotated)
}

func TestFindPreviousWeekFileSeedsNewWeek(t *testing.T) {
	dir := newTemplate(t)
	store := NewWeeklyStore(dir, filepath.Join(dir, "cell_map.json"))

	require.NoError(t, store.SaveWorkDay("2025-06-02", "07:00", "18:00", 1, []string{"Čáp Jakub"}))
	// The next week's file is cloned from week 23, carrying the roster.
	require.NoError(t, store.SaveWorkDay("2025-06-09", "07:00", "15:00", 0, []string{"Novák Petr"}))

	path := filepath.Join(dir, "Hodiny_Cap_Tyden24.xlsx")
	require.FileExists(t, path)
	assert.Equal(t, "Čáp Jakub", cell(t, path, WeekSheet, "A9"))
	assert.Equal(t, "Novák Petr", cell(t, path, WeekSheet, "A10"))
}

func TestCellMapOverride(t *testing.T) {
	dir := newTemplate(t)
	mapPath := filepath.Join(dir, "cell_map.json")
	doc := `{"weekly_time":{"start_time":[{"file":"` + TemplateFile + `","sheet":"` + WeekSheet + `","cell":"D2"}]}}`
	require.NoError(t, os.WriteFile(mapPath, []byte(doc), 0o644))

	store := NewWeeklyStore(dir, mapPath)
	require.NoError(t, store.SaveWorkDay("2025-06-02", "07:00", "18:00", 1, []string{"Čáp Jakub"}))

	path := filepath.Join(dir, "Hodiny_Cap_Tyden23.xlsx")
	assert.Equal(t, "07:00", cell(t, path, WeekSheet, "D2"))
	// The mapped cell replaces the default row-7 slot.
	assert.Equal(t, "", cell(t, path, WeekSheet, "B7"))
}
