package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"hodiny/internal/excel"
	"hodiny/internal/service"
)

type ReportHandler struct {
	weekly   *excel.WeeklyStore
	monthly  *excel.MonthlyStore
	registry *service.EmployeeRegistry
}

func NewReportHandler(weekly *excel.WeeklyStore, monthly *excel.MonthlyStore, registry *service.EmployeeRegistry) *ReportHandler {
	return &ReportHandler{weekly: weekly, monthly: monthly, registry: registry}
}

func monthYearParams(c *gin.Context) (int, int, bool) {
	now := time.Now()
	month, err := strconv.Atoi(c.DefaultQuery("month", strconv.Itoa(int(now.Month()))))
	if err != nil || month < 1 || month > 12 {
		fail(c, http.StatusBadRequest, "INVALID_MONTH", "month must be 1 to 12")
		return 0, 0, false
	}
	year, err := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(now.Year())))
	if err != nil || year < 2000 || year > 2100 {
		fail(c, http.StatusBadRequest, "INVALID_YEAR", "year is out of range")
		return 0, 0, false
	}
	return month, year, true
}

// Monthly handles GET /api/v1/reports/monthly — per-employee hours and free
// days aggregated over the weekly files of the month.
func (h *ReportHandler) Monthly(c *gin.Context) {
	month, year, okParams := monthYearParams(c)
	if !okParams {
		return
	}
	report, err := h.weekly.MonthlyReport(month, year, h.registry.Selected())
	if err != nil {
		fail(c, http.StatusInternalServerError, "REPORT_FAILED", err.Error())
		return
	}
	ok(c, "", gin.H{
		"month":      month,
		"year":       year,
		"month_name": excel.MonthName(month),
		"employees":  report,
	})
}

// Summary handles GET /api/v1/reports/summary — the month totals from the
// summary row of the monthly workbook.
func (h *ReportHandler) Summary(c *gin.Context) {
	month, year, okParams := monthYearParams(c)
	if !okParams {
		return
	}
	summary, err := h.monthly.MonthlySummary(month, year)
	if err != nil {
		fail(c, http.StatusNotFound, "SUMMARY_FAILED", err.Error())
		return
	}
	ok(c, "", summary)
}

// Integrity handles GET /api/v1/reports/integrity — formula and pairing
// checks over the monthly workbook.
func (h *ReportHandler) Integrity(c *gin.Context) {
	report, err := h.monthly.ValidateIntegrity()
	if err != nil {
		fail(c, http.StatusInternalServerError, "INTEGRITY_FAILED", err.Error())
		return
	}
	ok(c, "", report)
}
