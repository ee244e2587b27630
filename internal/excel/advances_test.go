package excel

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestOptionNamesFromSheet(t *testing.T) {
	dir := newTemplate(t)
	store := NewAdvanceStore(dir, filepath.Join(dir, "cell_map.json"))

	names := store.OptionNames()
	assert.Equal(t, defaultOptions, names)
}

func TestOptionNamesCustom(t *testing.T) {
	dir := newTemplate(t)

	f, err := excelize.OpenFile(filepath.Join(dir, TemplateFile))
	require.NoError(t, err)
	f.SetCellValue(AdvancesSheet, "B80", "Benzín")
	require.NoError(t, f.Save())
	require.NoError(t, f.Close())

	store := NewAdvanceStore(dir, filepath.Join(dir, "cell_map.json"))
	names := store.OptionNames()
	assert.Equal(t, "Benzín", names[0])
	assert.Equal(t, "Materiál", names[1])
}

func TestOptionNamesMissingWorkbook(t *testing.T) {
	store := NewAdvanceStore(t.TempDir(), "")
	assert.Equal(t, defaultOptions, store.OptionNames())
}

func TestAddAdvanceAccumulates(t *testing.T) {
	dir := newTemplate(t)
	store := NewAdvanceStore(dir, filepath.Join(dir, "cell_map.json"))

	require.NoError(t, store.AddAdvance("Čáp Jakub", 100, "EUR", "Záloha", "2025-06-02"))
	require.NoError(t, store.AddAdvance("Čáp Jakub", 50.5, "EUR", "Záloha", "2025-06-09"))

	path := filepath.Join(dir, TemplateFile)
	assert.Equal(t, "Čáp Jakub", cell(t, path, AdvancesSheet, "A9"))
	assert.InDelta(t, 150.5, parseFloat(cell(t, path, AdvancesSheet, "B9")), 0.001)
	// The date column carries the last transaction.
	assert.Equal(t, "09.06.2025", cell(t, path, AdvancesSheet, "Z9"))
}

func TestAddAdvanceCurrencyColumns(t *testing.T) {
	dir := newTemplate(t)
	store := NewAdvanceStore(dir, filepath.Join(dir, "cell_map.json"))

	require.NoError(t, store.AddAdvance("Čáp Jakub", 100, "EUR", "Záloha", "2025-06-02"))
	require.NoError(t, store.AddAdvance("Čáp Jakub", 2500, "CZK", "Záloha", "2025-06-02"))
	require.NoError(t, store.AddAdvance("Čáp Jakub", 40, "EUR", "Materiál", "2025-06-02"))

	path := filepath.Join(dir, TemplateFile)
	assert.InDelta(t, 100, parseFloat(cell(t, path, AdvancesSheet, "B9")), 0.001)
	assert.InDelta(t, 2500, parseFloat(cell(t, path, AdvancesSheet, "C9")), 0.001)
	assert.InDelta(t, 40, parseFloat(cell(t, path, AdvancesSheet, "D9")), 0.001)
}

func TestAddAdvanceSecondEmployeeNewRow(t *testing.T) {
	dir := newTemplate(t)
	store := NewAdvanceStore(dir, filepath.Join(dir, "cell_map.json"))

	require.NoError(t, store.AddAdvance("Čáp Jakub", 100, "EUR", "Záloha", "2025-06-02"))
	require.NoError(t, store.AddAdvance("Novák Petr", 60, "EUR", "Záloha", "2025-06-02"))

	path := filepath.Join(dir, TemplateFile)
	assert.Equal(t, "Novák Petr", cell(t, path, AdvancesSheet, "A10"))
	assert.InDelta(t, 60, parseFloat(cell(t, path, AdvancesSheet, "B10")), 0.001)
}

func TestAddAdvanceValidation(t *testing.T) {
	dir := newTemplate(t)
	store := NewAdvanceStore(dir, filepath.Join(dir, "cell_map.json"))

	tests := []struct {
		name     string
		employee string
		amount   float64
		currency string
		option   string
		date     string
	}{
		{"zero amount", "Čáp Jakub", 0, "EUR", "Záloha", "2025-06-02"},
		{"negative amount", "Čáp Jakub", -5, "EUR", "Záloha", "2025-06-02"},
		{"bad currency", "Čáp Jakub", 100, "USD", "Záloha", "2025-06-02"},
		{"unknown option", "Čáp Jakub", 100, "EUR", "Pivo", "2025-06-02"},
		{"blank employee", "  ", 100, "EUR", "Záloha", "2025-06-02"},
		{"bad date", "Čáp Jakub", 100, "EUR", "Záloha", "02.06.2025"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, store.AddAdvance(tt.employee, tt.amount, tt.currency, tt.option, tt.date))
		})
	}
}
