package service

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateName(t *testing.T) {
	name, err := ValidateName("  Novák Petr  ")
	require.NoError(t, err)
	assert.Equal(t, "Novák Petr", name)

	_, err = ValidateName("X")
	assert.Error(t, err)
	_, err = ValidateName("Novák 2")
	assert.Error(t, err)
	_, err = ValidateName("")
	assert.Error(t, err)
}

func TestRegistryAddAndList(t *testing.T) {
	r := NewEmployeeRegistry(t.TempDir())

	require.NoError(t, r.Add("Novák Petr"))
	require.NoError(t, r.Add("Bílý Adam"))
	assert.Error(t, r.Add("Novák Petr"), "duplicate names are rejected")

	all := r.All()
	require.Len(t, all, 2)
	// Roster listing is alphabetical.
	assert.Equal(t, "Bílý Adam", all[0].Name)
	assert.Equal(t, "Novák Petr", all[1].Name)
	assert.False(t, all[0].Selected)
}

func TestRegistryPriorityEmployeeAutoSelected(t *testing.T) {
	r := NewEmployeeRegistry(t.TempDir())

	require.NoError(t, r.Add("Novák Petr"))
	require.NoError(t, r.Add(PriorityEmployee))

	selected := r.Selected()
	require.Len(t, selected, 1)
	assert.Equal(t, PriorityEmployee, selected[0])
}

func TestRegistrySelectionOrder(t *testing.T) {
	r := NewEmployeeRegistry(t.TempDir())

	require.NoError(t, r.Add(PriorityEmployee))
	require.NoError(t, r.Add("Adam Bílý"))
	require.NoError(t, r.Add("Novák Petr"))
	require.NoError(t, r.Select("Novák Petr"))
	require.NoError(t, r.Select("Adam Bílý"))

	selected := r.Selected()
	require.Len(t, selected, 3)
	assert.Equal(t, PriorityEmployee, selected[0], "priority employee sorts first")
	assert.Equal(t, "Adam Bílý", selected[1])
	assert.Equal(t, "Novák Petr", selected[2])
}

func TestRegistryDeselectProtectsPriority(t *testing.T) {
	r := NewEmployeeRegistry(t.TempDir())

	require.NoError(t, r.Add(PriorityEmployee))
	require.NoError(t, r.Add("Novák Petr"))
	require.NoError(t, r.Select("Novák Petr"))

	assert.Error(t, r.Deselect(PriorityEmployee))
	require.NoError(t, r.Deselect("Novák Petr"))
	assert.Equal(t, []string{PriorityEmployee}, r.Selected())
}

func TestRegistryRename(t *testing.T) {
	r := NewEmployeeRegistry(t.TempDir())

	require.NoError(t, r.Add("Novák Petr"))
	require.NoError(t, r.Select("Novák Petr"))
	require.NoError(t, r.Rename("Novák Petr", "Novák Pavel"))

	assert.False(t, r.Exists("Novák Petr"))
	assert.True(t, r.Exists("Novák Pavel"))
	assert.Contains(t, r.Selected(), "Novák Pavel")

	assert.Error(t, r.Rename("Neznámý Kdo", "Jiný Kdo"))
	require.NoError(t, r.Add("Bílý Adam"))
	assert.Error(t, r.Rename("Bílý Adam", "Novák Pavel"), "rename cannot collide")
}

func TestRegistryRemove(t *testing.T) {
	r := NewEmployeeRegistry(t.TempDir())

	require.NoError(t, r.Add("Novák Petr"))
	require.NoError(t, r.Select("Novák Petr"))
	require.NoError(t, r.Remove("Novák Petr"))

	assert.False(t, r.Exists("Novák Petr"))
	assert.Empty(t, r.Selected())
	assert.Error(t, r.Remove("Novák Petr"))
}

func TestRegistrySetSelected(t *testing.T) {
	r := NewEmployeeRegistry(t.TempDir())

	require.NoError(t, r.Add(PriorityEmployee))
	require.NoError(t, r.Add("Novák Petr"))
	require.NoError(t, r.Add("Bílý Adam"))

	require.NoError(t, r.SetSelected([]string{"Novák Petr", "Cizí Jméno"}))

	selected := r.Selected()
	assert.Contains(t, selected, "Novák Petr")
	assert.Contains(t, selected, PriorityEmployee, "priority employee is re-added")
	assert.NotContains(t, selected, "Cizí Jméno", "unknown names are dropped")
	assert.NotContains(t, selected, "Bílý Adam")
}

func TestRegistryPersistence(t *testing.T) {
	dir := t.TempDir()

	r := NewEmployeeRegistry(dir)
	require.NoError(t, r.Add(PriorityEmployee))
	require.NoError(t, r.Add("Novák Petr"))
	require.NoError(t, r.Select("Novák Petr"))
	require.FileExists(t, filepath.Join(dir, "employee_config.json"))

	reloaded := NewEmployeeRegistry(dir)
	assert.True(t, reloaded.Exists("Novák Petr"))
	assert.Equal(t, []string{PriorityEmployee, "Novák Petr"}, reloaded.Selected())
}

func TestRegistryMissingConfigStartsEmpty(t *testing.T) {
	r := NewEmployeeRegistry(t.TempDir())
	assert.Empty(t, r.All())
	assert.Empty(t, r.Selected())
}
