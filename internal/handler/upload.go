package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"hodiny/internal/excel"
	"hodiny/internal/logger"
	"hodiny/internal/model"
	"hodiny/internal/service"
)

const previewTTL = 10 * time.Minute

type UploadHandler struct {
	weekly   *excel.WeeklyStore
	monthly  *excel.MonthlyStore
	registry *service.EmployeeRegistry
	cache    sync.Map // token -> *uploadPreview
}

type uploadPreview struct {
	entries   []model.TimeEntryRequest
	createdAt time.Time
}

func NewUploadHandler(weekly *excel.WeeklyStore, monthly *excel.MonthlyStore, registry *service.EmployeeRegistry) *UploadHandler {
	h := &UploadHandler{weekly: weekly, monthly: monthly, registry: registry}
	go func() {
		for range time.Tick(5 * time.Minute) {
			h.cache.Range(func(k, v any) bool {
				if time.Since(v.(*uploadPreview).createdAt) > previewTTL {
					h.cache.Delete(k)
				}
				return true
			})
		}
	}()
	return h
}

// parseDateCell accepts the formats the crews' spreadsheets actually carry.
func parseDateCell(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", "2.1.2006", "02.01.2006", "2/1/2006"} {
		if d, err := time.Parse(layout, s); err == nil {
			return d.Format("2006-01-02"), true
		}
	}
	return "", false
}

func parseTimeCell(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04"), true
		}
	}
	return "", false
}

// extractEntries walks the first sheet and collects rows that look like a
// time entry: a date, then start and end times, then an optional lunch
// duration in the following cells.
func extractEntries(f *excelize.File) []model.TimeEntryRequest {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil
	}

	var entries []model.TimeEntryRequest
	for _, row := range rows {
		var entry model.TimeEntryRequest
		entry.LunchDuration = 1.0
		stage := 0
		for _, cell := range row {
			switch stage {
			case 0:
				if d, found := parseDateCell(cell); found {
					entry.Date = d
					stage = 1
				}
			case 1:
				if t, found := parseTimeCell(cell); found {
					entry.StartTime = t
					stage = 2
				}
			case 2:
				if t, found := parseTimeCell(cell); found {
					entry.EndTime = t
					stage = 3
				}
			case 3:
				if v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(cell), ",", "."), 64); err == nil && v >= 0 && v <= 8 {
					entry.LunchDuration = v
					stage = 4
				}
			}
		}
		if stage >= 3 {
			if entry.StartTime == "00:00" && entry.EndTime == "00:00" {
				entry.IsFreeDay = true
				entry.LunchDuration = 0
			}
			entries = append(entries, entry)
		}
	}
	return entries
}

// Preview handles POST /api/v1/upload/preview — parse the uploaded workbook
// into entry candidates and cache them for confirmation.
func (h *UploadHandler) Preview(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, "NO_FILE", "upload a workbook in the 'file' field")
		return
	}
	if !strings.HasSuffix(strings.ToLower(file.Filename), ".xlsx") {
		fail(c, http.StatusBadRequest, "INVALID_FILE", "only .xlsx workbooks are accepted")
		return
	}

	tmp := filepath.Join(os.TempDir(), "upload_"+uuid.NewString()+".xlsx")
	if err := c.SaveUploadedFile(file, tmp); err != nil {
		fail(c, http.StatusInternalServerError, "SAVE_FAILED", err.Error())
		return
	}
	defer os.Remove(tmp)

	f, err := excelize.OpenFile(tmp)
	if err != nil {
		fail(c, http.StatusBadRequest, "PARSE_FAILED", "workbook could not be parsed")
		return
	}
	defer f.Close()

	entries := extractEntries(f)
	logger.Info("upload preview", "file", file.Filename, "entries", len(entries))
	if len(entries) == 0 {
		ok(c, "no entries found", gin.H{"token": "", "entries": []model.TimeEntryRequest{}})
		return
	}

	token := uuid.NewString()
	h.cache.Store(token, &uploadPreview{entries: entries, createdAt: time.Now()})
	ok(c, "", gin.H{"token": token, "entries": entries})
}

// Confirm handles POST /api/v1/upload/confirm — replay the cached entries
// into the weekly and monthly stores for the current selection.
func (h *UploadHandler) Confirm(c *gin.Context) {
	var req model.UploadConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", "token is required")
		return
	}

	val, found := h.cache.LoadAndDelete(req.Token)
	if !found {
		fail(c, http.StatusBadRequest, "PREVIEW_EXPIRED", "preview expired, upload the file again")
		return
	}
	cached := val.(*uploadPreview)
	if time.Since(cached.createdAt) > previewTTL {
		fail(c, http.StatusBadRequest, "PREVIEW_EXPIRED", "preview expired, upload the file again")
		return
	}

	employees := h.registry.Selected()
	if len(employees) == 0 {
		fail(c, http.StatusBadRequest, "NO_SELECTION", "no employees selected")
		return
	}

	saved, failed := 0, 0
	var errors []string
	for _, entry := range cached.entries {
		if err := h.weekly.SaveWorkDay(entry.Date, entry.StartTime, entry.EndTime, entry.LunchDuration, employees); err != nil {
			failed++
			errors = append(errors, entry.Date+": "+err.Error())
			continue
		}
		if err := h.monthly.SaveDay(entry.Date, entry.StartTime, entry.EndTime, entry.LunchDuration, len(employees)); err != nil {
			failed++
			errors = append(errors, entry.Date+": "+err.Error())
			continue
		}
		saved++
	}

	logger.Info("upload confirm", "saved", saved, "failed", failed)
	ok(c, "entries imported", gin.H{"saved": saved, "failed": failed, "errors": errors})
}
