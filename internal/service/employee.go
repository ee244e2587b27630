// Package service holds the non-spreadsheet business layer: the employee
// registry, the settings store and the voice command pipeline.
package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode"

	"hodiny/internal/logger"
	"hodiny/internal/model"
)

// PriorityEmployee is the company owner: always sorted first, always kept
// in the active selection and never deselectable.
const PriorityEmployee = "Čáp Jakub"

const employeeConfigFile = "employee_config.json"

// employeeConfig is the on-disk shape of the registry. The Czech keys are
// load-bearing: existing installations carry files with these names.
type employeeConfig struct {
	Employees []string `json:"zamestnanci"`
	Selected  []string `json:"vybrani_zamestnanci"`
}

// EmployeeRegistry keeps the known employee roster and the subset currently
// selected for time entry, persisted as a JSON document in the data dir.
type EmployeeRegistry struct {
	path string
	mu   sync.Mutex

	employees []string
	selected  []string
}

func NewEmployeeRegistry(dataDir string) *EmployeeRegistry {
	r := &EmployeeRegistry{path: filepath.Join(dataDir, employeeConfigFile)}
	r.load()
	return r
}

func (r *EmployeeRegistry) load() {
	data, err := os.ReadFile(r.path)
	if err != nil {
		logger.Warn("employee config not found, starting empty", "path", r.path)
		return
	}
	var cfg employeeConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		logger.Error("employee config unreadable, starting empty", "path", r.path, "err", err)
		return
	}
	r.employees = cfg.Employees
	sort.Strings(r.employees)
	r.selected = cfg.Selected

	if contains(r.employees, PriorityEmployee) && !contains(r.selected, PriorityEmployee) {
		r.selected = append(r.selected, PriorityEmployee)
	}
	sortSelected(r.selected)
}

func (r *EmployeeRegistry) save() error {
	sortSelected(r.selected)
	sorted := append([]string(nil), r.employees...)
	sort.Strings(sorted)

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	data, err := json.MarshalIndent(employeeConfig{Employees: sorted, Selected: r.selected}, "", "    ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", r.path, err)
	}
	return nil
}

// sortSelected keeps the priority employee first, the rest alphabetical.
func sortSelected(names []string) {
	sort.Slice(names, func(i, j int) bool {
		if names[i] == PriorityEmployee {
			return names[j] != PriorityEmployee
		}
		if names[j] == PriorityEmployee {
			return false
		}
		return names[i] < names[j]
	})
}

func contains(list []string, name string) bool {
	for _, v := range list {
		if v == name {
			return true
		}
	}
	return false
}

func remove(list []string, name string) []string {
	out := list[:0]
	for _, v := range list {
		if v != name {
			out = append(out, v)
		}
	}
	return out
}

// ValidateName trims and checks an employee name: 2 to 100 runes, no digits.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	n := len([]rune(name))
	if n < 2 || n > 100 {
		return "", fmt.Errorf("employee name must be 2 to 100 characters")
	}
	for _, ch := range name {
		if unicode.IsDigit(ch) {
			return "", fmt.Errorf("employee name must not contain digits")
		}
	}
	return name, nil
}

// All returns the roster with per-employee selection state, sorted by name.
func (r *EmployeeRegistry) All() []model.Employee {
	r.mu.Lock()
	defer r.mu.Unlock()

	sorted := append([]string(nil), r.employees...)
	sort.Strings(sorted)
	out := make([]model.Employee, 0, len(sorted))
	for _, name := range sorted {
		out = append(out, model.Employee{Name: name, Selected: contains(r.selected, name)})
	}
	return out
}

// Selected returns the active selection, priority employee first.
func (r *EmployeeRegistry) Selected() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := append([]string(nil), r.selected...)
	sortSelected(out)
	return out
}

// Add registers a new employee. The priority employee is auto-selected.
func (r *EmployeeRegistry) Add(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name, err := ValidateName(name)
	if err != nil {
		return err
	}
	if contains(r.employees, name) {
		return fmt.Errorf("employee %q already exists", name)
	}
	r.employees = append(r.employees, name)
	if name == PriorityEmployee {
		r.selected = append(r.selected, name)
	}
	return r.save()
}

// Rename changes an employee's name everywhere, selection included.
func (r *EmployeeRegistry) Rename(oldName, newName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	newName, err := ValidateName(newName)
	if err != nil {
		return err
	}
	if contains(r.employees, newName) {
		return fmt.Errorf("employee %q already exists", newName)
	}
	if !contains(r.employees, oldName) {
		return fmt.Errorf("employee %q not found", oldName)
	}
	for i, v := range r.employees {
		if v == oldName {
			r.employees[i] = newName
		}
	}
	for i, v := range r.selected {
		if v == oldName {
			r.selected[i] = newName
		}
	}
	return r.save()
}

// Remove drops an employee from the roster and the selection.
func (r *EmployeeRegistry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !contains(r.employees, name) {
		return fmt.Errorf("employee %q not found", name)
	}
	r.employees = remove(r.employees, name)
	r.selected = remove(r.selected, name)
	return r.save()
}

// Select adds a roster employee to the active selection.
func (r *EmployeeRegistry) Select(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !contains(r.employees, name) {
		return fmt.Errorf("employee %q not found", name)
	}
	if contains(r.selected, name) {
		return nil
	}
	r.selected = append(r.selected, name)
	return r.save()
}

// Deselect removes an employee from the selection. The priority employee
// stays selected.
func (r *EmployeeRegistry) Deselect(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == PriorityEmployee {
		return fmt.Errorf("employee %q cannot be deselected", PriorityEmployee)
	}
	if !contains(r.selected, name) {
		return fmt.Errorf("employee %q is not selected", name)
	}
	r.selected = remove(r.selected, name)
	return r.save()
}

// SetSelected replaces the selection wholesale. Unknown names are dropped
// with a warning and the priority employee is re-added when registered.
func (r *EmployeeRegistry) SetSelected(names []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var valid []string
	for _, name := range names {
		if !contains(r.employees, name) {
			logger.Warn("ignoring unknown employee in selection", "name", name)
			continue
		}
		if !contains(valid, name) {
			valid = append(valid, name)
		}
	}
	if contains(r.employees, PriorityEmployee) && !contains(valid, PriorityEmployee) {
		valid = append(valid, PriorityEmployee)
	}
	r.selected = valid
	return r.save()
}

// Exists reports whether the name is on the roster.
func (r *EmployeeRegistry) Exists(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return contains(r.employees, name)
}
