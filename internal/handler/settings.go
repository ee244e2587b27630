package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"hodiny/internal/excel"
	"hodiny/internal/logger"
	"hodiny/internal/service"
)

type SettingsHandler struct {
	settings *service.SettingsStore
	weekly   *excel.WeeklyStore
}

func NewSettingsHandler(settings *service.SettingsStore, weekly *excel.WeeklyStore) *SettingsHandler {
	return &SettingsHandler{settings: settings, weekly: weekly}
}

// Get handles GET /api/v1/settings.
func (h *SettingsHandler) Get(c *gin.Context) {
	ok(c, "", h.settings.Load())
}

type updateSettingsRequest struct {
	StartTime     string              `json:"start_time" binding:"required"`
	EndTime       string              `json:"end_time" binding:"required"`
	LunchDuration float64             `json:"lunch_duration" binding:"required"`
	ProjectInfo   service.ProjectInfo `json:"project_info"`
}

// Update handles PUT /api/v1/settings.
func (h *SettingsHandler) Update(c *gin.Context) {
	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", "start_time, end_time and lunch_duration are required")
		return
	}
	settings, err := h.settings.Update(req.StartTime, req.EndTime, req.LunchDuration, req.ProjectInfo)
	if err != nil {
		fail(c, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}
	ok(c, "settings saved", settings)
}

// StartNewFile handles POST /api/v1/settings/new-file — archives the active
// workbook and starts a fresh one for the configured project.
func (h *SettingsHandler) StartNewFile(c *gin.Context) {
	settings, err := h.settings.StartNewFile()
	if err != nil {
		fail(c, http.StatusBadRequest, "NEW_FILE_FAILED", err.Error())
		return
	}
	ok(c, "new workbook started", settings)
}

// ArchiveProject handles POST /api/v1/settings/archive — moves the active
// workbook to the archive and rolls the project period.
func (h *SettingsHandler) ArchiveProject(c *gin.Context) {
	settings, err := h.settings.ArchiveActive()
	if err != nil {
		fail(c, http.StatusBadRequest, "ARCHIVE_FAILED", err.Error())
		return
	}
	ok(c, "workbook archived", settings)
}

// ArchiveWeeks handles POST /api/v1/archive — the weekly rotation: when a new
// week has started, stale week sheets are moved aside and a clean template
// file takes their place.
func (h *SettingsHandler) ArchiveWeeks(c *gin.Context) {
	_, currentWeek := time.Now().ISOWeek()
	settings := h.settings.Load()

	rotated, err := h.weekly.Archive(currentWeek, settings.LastArchivedWeek)
	if err != nil {
		logger.Error("weekly archive failed", "week", currentWeek, "err", err)
		fail(c, http.StatusInternalServerError, "ARCHIVE_FAILED", err.Error())
		return
	}
	if rotated {
		if err := h.settings.SetLastArchivedWeek(currentWeek); err != nil {
			fail(c, http.StatusInternalServerError, "ARCHIVE_FAILED", err.Error())
			return
		}
	}
	ok(c, "archive checked", gin.H{"rotated": rotated, "week": currentWeek})
}
