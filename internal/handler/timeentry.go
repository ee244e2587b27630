package handler

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"hodiny/internal/excel"
	"hodiny/internal/logger"
	"hodiny/internal/model"
	"hodiny/internal/service"
)

var hhmmRe = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

type TimeEntryHandler struct {
	weekly   *excel.WeeklyStore
	monthly  *excel.MonthlyStore
	registry *service.EmployeeRegistry
}

func NewTimeEntryHandler(weekly *excel.WeeklyStore, monthly *excel.MonthlyStore, registry *service.EmployeeRegistry) *TimeEntryHandler {
	return &TimeEntryHandler{weekly: weekly, monthly: monthly, registry: registry}
}

func validateEntry(req *model.TimeEntryRequest) error {
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return errors.New("invalid date, expected YYYY-MM-DD")
	}
	if req.IsFreeDay {
		req.StartTime, req.EndTime = "00:00", "00:00"
		req.LunchDuration = 0
		return nil
	}
	if !hhmmRe.MatchString(req.StartTime) {
		return errors.New("invalid start_time, expected HH:MM")
	}
	if !hhmmRe.MatchString(req.EndTime) {
		return errors.New("invalid end_time, expected HH:MM")
	}
	if req.LunchDuration < 0 || req.LunchDuration > 8 {
		return errors.New("lunch_duration must be between 0 and 8 hours")
	}
	return nil
}

// Save handles POST /api/v1/time-entry. The entry is written to the weekly
// file and the monthly workbook for every currently selected employee.
func (h *TimeEntryHandler) Save(c *gin.Context) {
	var req model.TimeEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", "date is required")
		return
	}
	if err := validateEntry(&req); err != nil {
		fail(c, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	employees := h.registry.Selected()
	if len(employees) == 0 {
		fail(c, http.StatusBadRequest, "NO_SELECTION", "no employees selected")
		return
	}

	if err := h.weekly.SaveWorkDay(req.Date, req.StartTime, req.EndTime, req.LunchDuration, employees); err != nil {
		logger.Error("weekly save failed", "date", req.Date, "err", err)
		fail(c, http.StatusInternalServerError, "WEEKLY_SAVE_FAILED", err.Error())
		return
	}
	if err := h.monthly.SaveDay(req.Date, req.StartTime, req.EndTime, req.LunchDuration, len(employees)); err != nil {
		logger.Error("monthly save failed", "date", req.Date, "err", err)
		fail(c, http.StatusInternalServerError, "MONTHLY_SAVE_FAILED", err.Error())
		return
	}

	logger.Info("time entry saved", "date", req.Date, "employees", len(employees), "free_day", req.IsFreeDay)
	ok(c, "time entry saved", gin.H{"date": req.Date, "employees": employees})
}

// WeekGrid handles GET /api/v1/time-entries?week=N.
func (h *TimeEntryHandler) WeekGrid(c *gin.Context) {
	week, err := strconv.Atoi(c.DefaultQuery("week", "0"))
	if err != nil || week < 1 || week > 53 {
		if c.Query("week") == "" {
			_, wk := time.Now().ISOWeek()
			week = wk
		} else {
			fail(c, http.StatusBadRequest, "INVALID_WEEK", "week must be 1 to 53")
			return
		}
	}
	grid, err := h.weekly.WeekGrid(week)
	if err != nil {
		fail(c, http.StatusInternalServerError, "GRID_FAILED", err.Error())
		return
	}
	ok(c, "", grid)
}

// DailyRecord handles GET /api/v1/records/:date.
func (h *TimeEntryHandler) DailyRecord(c *gin.Context) {
	date := c.Param("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_DATE", "invalid date, expected YYYY-MM-DD")
		return
	}
	rec, err := h.monthly.DailyRecord(date)
	if err != nil {
		fail(c, http.StatusNotFound, "RECORD_NOT_FOUND", err.Error())
		return
	}
	ok(c, "", rec)
}
