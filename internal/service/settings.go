package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"hodiny/internal/excel"
	"hodiny/internal/logger"
)

const settingsFile = "settings.json"

var (
	timeRe        = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)
	unsafeNameRe  = regexp.MustCompile(`[\\/:*?"<>|']`)
	fileTimestamp = "20060102_150405"
)

// ProjectInfo describes the construction project the active workbook tracks.
type ProjectInfo struct {
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// Settings are the operator defaults and the active workbook pointer,
// persisted as settings.json in the data dir.
type Settings struct {
	StartTime        string      `json:"start_time"`
	EndTime          string      `json:"end_time"`
	LunchDuration    float64     `json:"lunch_duration"`
	ProjectInfo      ProjectInfo `json:"project_info"`
	ActiveExcelFile  string      `json:"active_excel_file"`
	LastArchivedWeek int         `json:"last_archived_week"`
}

func defaultSettings() Settings {
	return Settings{
		StartTime:     "07:00",
		EndTime:       "18:00",
		LunchDuration: 1.0,
		ProjectInfo:   ProjectInfo{},
	}
}

// SettingsStore loads and saves the settings document and manages the
// active workbook lifecycle (creation from template, archiving).
type SettingsStore struct {
	dataDir    string
	excelDir   string
	archiveDir string
	mu         sync.Mutex
}

func NewSettingsStore(dataDir, excelDir, archiveDir string) *SettingsStore {
	return &SettingsStore{dataDir: dataDir, excelDir: excelDir, archiveDir: archiveDir}
}

func (s *SettingsStore) path() string {
	return filepath.Join(s.dataDir, settingsFile)
}

// Load reads settings.json, merging the stored document over the defaults.
// A missing or malformed file yields the defaults, written back to disk.
func (s *SettingsStore) Load() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *SettingsStore) load() Settings {
	settings := defaultSettings()

	data, err := os.ReadFile(s.path())
	if err != nil {
		logger.Warn("settings file not found, writing defaults", "path", s.path())
		if err := s.write(settings); err != nil {
			logger.Error("cannot write default settings", "err", err)
		}
		return settings
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		logger.Error("settings file unreadable, using defaults", "path", s.path(), "err", err)
		settings = defaultSettings()
		if err := s.write(settings); err != nil {
			logger.Error("cannot write default settings", "err", err)
		}
	}
	return settings
}

func (s *SettingsStore) write(settings Settings) error {
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	data, err := json.MarshalIndent(settings, "", "    ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path(), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.path(), err)
	}
	return nil
}

func validateProjectDates(start, end string) error {
	var startDate time.Time
	var err error
	if start != "" {
		startDate, err = time.Parse("2006-01-02", start)
		if err != nil {
			return fmt.Errorf("invalid project start date %q", start)
		}
	}
	if end != "" {
		endDate, err := time.Parse("2006-01-02", end)
		if err != nil {
			return fmt.Errorf("invalid project end date %q", end)
		}
		if start != "" && endDate.Before(startDate) {
			return fmt.Errorf("project end date precedes start date")
		}
	}
	return nil
}

// Update validates and persists the operator-editable settings. The active
// file pointer is preserved.
func (s *SettingsStore) Update(startTime, endTime string, lunch float64, project ProjectInfo) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !timeRe.MatchString(startTime) {
		return Settings{}, fmt.Errorf("invalid start time %q, expected HH:MM", startTime)
	}
	if !timeRe.MatchString(endTime) {
		return Settings{}, fmt.Errorf("invalid end time %q, expected HH:MM", endTime)
	}
	if lunch <= 0 {
		return Settings{}, fmt.Errorf("lunch duration must be positive")
	}
	if strings.TrimSpace(project.Name) == "" {
		return Settings{}, fmt.Errorf("project name must not be empty")
	}
	if err := validateProjectDates(project.StartDate, project.EndDate); err != nil {
		return Settings{}, err
	}

	settings := s.load()
	settings.StartTime = startTime
	settings.EndTime = endTime
	settings.LunchDuration = lunch
	settings.ProjectInfo = project
	if err := s.write(settings); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// safeFileName strips filesystem-hostile characters from the project name.
func safeFileName(project string) string {
	name := unsafeNameRe.ReplaceAllString(project, "")
	name = strings.ReplaceAll(name, " ", "_")
	if name == "" {
		name = "Projekt"
	}
	return name
}

func (s *SettingsStore) newFileFromTemplate(project string) (string, error) {
	template := filepath.Join(s.excelDir, excel.TemplateFile)
	if _, err := os.Stat(template); err != nil {
		return "", fmt.Errorf("template %s not found: %w", excel.TemplateFile, err)
	}
	filename := fmt.Sprintf("%s_%s.xlsx", safeFileName(project), time.Now().Format(fileTimestamp))
	if err := copyWorkbook(template, filepath.Join(s.excelDir, filename)); err != nil {
		return "", err
	}
	logger.Info("active workbook created from template", "file", filename)
	return filename, nil
}

func copyWorkbook(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return nil
}

// EnsureActiveFile makes sure the settings point at an existing workbook,
// creating one from the template when the pointer is empty or stale.
func (s *SettingsStore) EnsureActiveFile() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := s.load()
	if settings.ActiveExcelFile != "" {
		if _, err := os.Stat(filepath.Join(s.excelDir, settings.ActiveExcelFile)); err == nil {
			return settings, nil
		}
		logger.Warn("active workbook missing, creating a new one", "file", settings.ActiveExcelFile)
	}

	// A project end date before the start date is pushed out a month so
	// the file name and reports stay sane.
	if settings.ProjectInfo.StartDate != "" && settings.ProjectInfo.EndDate != "" {
		start, err1 := time.Parse("2006-01-02", settings.ProjectInfo.StartDate)
		end, err2 := time.Parse("2006-01-02", settings.ProjectInfo.EndDate)
		if err1 == nil && err2 == nil && end.Before(start) {
			logger.Warn("project end precedes start, pushing end out 30 days")
			settings.ProjectInfo.EndDate = start.AddDate(0, 0, 30).Format("2006-01-02")
		}
	}

	project := settings.ProjectInfo.Name
	if project == "" {
		project = "Nový_projekt"
	}
	filename, err := s.newFileFromTemplate(project)
	if err != nil {
		settings.ActiveExcelFile = ""
		return settings, err
	}
	settings.ActiveExcelFile = filename
	if err := s.write(settings); err != nil {
		return settings, err
	}
	return settings, nil
}

// StartNewFile archives the current workbook and starts a fresh one for
// the project named in settings.
func (s *SettingsStore) StartNewFile() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := s.load()
	if strings.TrimSpace(settings.ProjectInfo.Name) == "" || settings.ProjectInfo.StartDate == "" {
		return Settings{}, fmt.Errorf("project name and start date must be set first")
	}
	if err := validateProjectDates(settings.ProjectInfo.StartDate, settings.ProjectInfo.EndDate); err != nil {
		return Settings{}, err
	}

	if settings.ActiveExcelFile != "" {
		if err := s.moveToArchive(settings.ActiveExcelFile); err != nil {
			return Settings{}, err
		}
	}

	filename, err := s.newFileFromTemplate(settings.ProjectInfo.Name)
	if err != nil {
		settings.ActiveExcelFile = ""
		s.write(settings)
		return Settings{}, err
	}
	settings.ActiveExcelFile = filename
	if err := s.write(settings); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// ArchiveActive moves the active workbook to the archive, re-creates it
// from the template and rolls the project period: the old end date becomes
// the new start date.
func (s *SettingsStore) ArchiveActive() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := s.load()
	if settings.ProjectInfo.EndDate == "" {
		return Settings{}, fmt.Errorf("project end date must be set before archiving")
	}
	if err := validateProjectDates(settings.ProjectInfo.StartDate, settings.ProjectInfo.EndDate); err != nil {
		return Settings{}, err
	}
	if settings.ActiveExcelFile == "" {
		return Settings{}, fmt.Errorf("no active workbook to archive")
	}

	activePath := filepath.Join(s.excelDir, settings.ActiveExcelFile)
	if _, err := os.Stat(activePath); err == nil {
		if err := s.moveToArchive(settings.ActiveExcelFile); err != nil {
			return Settings{}, err
		}
	}

	template := filepath.Join(s.excelDir, excel.TemplateFile)
	if err := copyWorkbook(template, activePath); err != nil {
		return Settings{}, fmt.Errorf("recreate active workbook: %w", err)
	}
	logger.Info("active workbook archived and recreated", "file", settings.ActiveExcelFile)

	settings.ProjectInfo.StartDate = settings.ProjectInfo.EndDate
	settings.ProjectInfo.EndDate = ""
	if err := s.write(settings); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// SetLastArchivedWeek records the week number of the last weekly rotation.
func (s *SettingsStore) SetLastArchivedWeek(week int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := s.load()
	settings.LastArchivedWeek = week
	return s.write(settings)
}

func (s *SettingsStore) moveToArchive(filename string) error {
	if err := os.MkdirAll(s.archiveDir, 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}
	src := filepath.Join(s.excelDir, filename)
	dst := filepath.Join(s.archiveDir, filename)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("archive %s: %w", filename, err)
	}
	logger.Info("workbook archived", "file", filename)
	return nil
}
