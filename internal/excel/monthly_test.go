package excel

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newMonthlyStore(t *testing.T) (*MonthlyStore, string) {
	t.Helper()
	dir := t.TempDir()
	return NewMonthlyStore(dir, filepath.Join(dir, "cell_map.json")), dir
}

func TestMonthName(t *testing.T) {
	assert.Equal(t, "Leden", MonthName(1))
	assert.Equal(t, "Červen", MonthName(6))
	assert.Equal(t, "Prosinec", MonthName(12))
	assert.Equal(t, "Neznámý", MonthName(0))
	assert.Equal(t, "Neznámý", MonthName(13))
}

func TestSaveDayCreatesWorkbookAndSheet(t *testing.T) {
	store, dir := newMonthlyStore(t)

	require.NoError(t, store.SaveDay("2025-06-02", "07:00", "18:00", 1.0, 3))

	path := filepath.Join(dir, MonthlyFile)
	require.FileExists(t, path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	idx, err := f.GetSheetIndex("06hod25")
	require.NoError(t, err)
	require.GreaterOrEqual(t, idx, 0)

	// Day 2 sits in row 4: start E4, lunch F4, end G4, crew M4.
	val, _ := f.GetCellValue("06hod25", "E4")
	assert.Equal(t, "07:00", val)
	val, _ = f.GetCellValue("06hod25", "G4")
	assert.Equal(t, "18:00", val)
	val, _ = f.GetCellValue("06hod25", "F4")
	assert.InDelta(t, 1.0, parseFloat(val), 0.001)
	val, _ = f.GetCellValue("06hod25", "M4")
	assert.Equal(t, 3, parseInt(val))

	// The formula columns stay formulas.
	formula, _ := f.GetCellFormula("06hod25", "H4")
	assert.NotEmpty(t, formula)
	formula, _ = f.GetCellFormula("06hod25", "N4")
	assert.NotEmpty(t, formula)
}

func TestSaveDayFreeDayLeavesTimesBlank(t *testing.T) {
	store, dir := newMonthlyStore(t)

	require.NoError(t, store.SaveDay("2025-06-03", "00:00", "00:00", 0, 2))

	f, err := excelize.OpenFile(filepath.Join(dir, MonthlyFile))
	require.NoError(t, err)
	defer f.Close()

	val, _ := f.GetCellValue("06hod25", "E5")
	assert.Empty(t, val)
	val, _ = f.GetCellValue("06hod25", "G5")
	assert.Empty(t, val)
}

func TestSaveDayRejectsBadDate(t *testing.T) {
	store, _ := newMonthlyStore(t)
	assert.Error(t, store.SaveDay("02.06.2025", "07:00", "18:00", 1, 1))
}

func TestDailyRecord(t *testing.T) {
	store, _ := newMonthlyStore(t)

	require.NoError(t, store.SaveDay("2025-06-02", "07:00", "18:00", 1.0, 3))

	rec, err := store.DailyRecord("2025-06-02")
	require.NoError(t, err)

	assert.Equal(t, 2, rec.Day)
	assert.Equal(t, 4, rec.Row)
	assert.Equal(t, "06hod25", rec.SheetName)
	assert.Equal(t, "07:00", rec.StartTime)
	assert.Equal(t, "18:00", rec.EndTime)
	assert.InDelta(t, 1.0, rec.LunchHours, 0.001)
	assert.InDelta(t, 10.0, rec.TotalHours, 0.001)
	assert.InDelta(t, 2.0, rec.Overtime, 0.001)
	assert.Equal(t, 3, rec.NumEmployees)
	assert.InDelta(t, 30.0, rec.TotalAllEmployees, 0.001)
}

func TestDailyRecordFreeDay(t *testing.T) {
	store, _ := newMonthlyStore(t)

	require.NoError(t, store.SaveDay("2025-06-03", "00:00", "00:00", 0, 2))

	rec, err := store.DailyRecord("2025-06-03")
	require.NoError(t, err)
	assert.InDelta(t, 0.0, rec.TotalHours, 0.001)
	assert.InDelta(t, 0.0, rec.Overtime, 0.001)
}

func TestMonthlySummaryShape(t *testing.T) {
	store, _ := newMonthlyStore(t)

	require.NoError(t, store.SaveDay("2025-06-02", "07:00", "18:00", 1.0, 3))

	summary, err := store.MonthlySummary(6, 2025)
	require.NoError(t, err)
	assert.Equal(t, 6, summary.Month)
	assert.Equal(t, 2025, summary.Year)
	assert.Equal(t, "Červen", summary.MonthName)
	assert.Equal(t, "06hod25", summary.SheetName)
}

func TestCloneMonthSheetStampsDates(t *testing.T) {
	store, dir := newMonthlyStore(t)

	require.NoError(t, store.SaveDay("2025-06-02", "07:00", "18:00", 1, 1))

	f, err := excelize.OpenFile(filepath.Join(dir, MonthlyFile))
	require.NoError(t, err)
	defer f.Close()

	// 2025-06-01 is a Sunday.
	val, _ := f.GetCellValue("06hod25", "B3")
	assert.Equal(t, "01.06.2025", val)
	val, _ = f.GetCellValue("06hod25", "C3")
	assert.Equal(t, "Ne", val)
	// June has 30 days; day 31 is blanked.
	val, _ = f.GetCellValue("06hod25", "B33")
	assert.Empty(t, val)
}

func TestValidateIntegrity(t *testing.T) {
	store, dir := newMonthlyStore(t)

	require.NoError(t, store.SaveDay("2025-06-02", "07:00", "18:00", 1, 2))

	report, err := store.ValidateIntegrity()
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.GreaterOrEqual(t, report.SheetsChecked, 1)
	assert.Empty(t, report.Errors)

	// Replace a formula with a literal and expect the check to flag it.
	f, err := excelize.OpenFile(filepath.Join(dir, MonthlyFile))
	require.NoError(t, err)
	require.NoError(t, f.SetCellFormula("06hod25", "H4", ""))
	require.NoError(t, f.SetCellValue("06hod25", "H4", 99))
	require.NoError(t, f.Save())
	require.NoError(t, f.Close())

	report, err = store.ValidateIntegrity()
	require.NoError(t, err)
	assert.False(t, report.Valid)
	assert.NotEmpty(t, report.Errors)
}
