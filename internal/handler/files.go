package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"hodiny/internal/excel"
	"hodiny/internal/logger"
	"hodiny/internal/model"
)

// Sheet previews are capped so a stray giant workbook cannot blow up the UI.
const (
	maxPreviewRows = 100
	maxPreviewCols = 30
)

type FilesHandler struct {
	excelDir string
}

func NewFilesHandler(excelDir string) *FilesHandler {
	return &FilesHandler{excelDir: excelDir}
}

// safeXlsxName rejects path traversal and non-xlsx names.
func (h *FilesHandler) safeXlsxName(name string) (string, bool) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", false
	}
	if !strings.HasSuffix(strings.ToLower(name), ".xlsx") {
		return "", false
	}
	return filepath.Join(h.excelDir, name), true
}

// List handles GET /api/v1/files.
func (h *FilesHandler) List(c *gin.Context) {
	entries, err := os.ReadDir(h.excelDir)
	if err != nil {
		fail(c, http.StatusInternalServerError, "LIST_FAILED", err.Error())
		return
	}
	var files []gin.H
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".xlsx") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, gin.H{
			"name":     e.Name(),
			"size":     info.Size(),
			"modified": info.ModTime().Format("2006-01-02 15:04:05"),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i]["name"].(string) < files[j]["name"].(string) })
	ok(c, "", gin.H{"files": files})
}

// Sheets handles GET /api/v1/files/:name/sheets.
func (h *FilesHandler) Sheets(c *gin.Context) {
	path, valid := h.safeXlsxName(c.Param("name"))
	if !valid {
		fail(c, http.StatusBadRequest, "INVALID_FILE", "invalid workbook name")
		return
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		fail(c, http.StatusNotFound, "OPEN_FAILED", err.Error())
		return
	}
	defer f.Close()
	ok(c, "", gin.H{"sheets": f.GetSheetList()})
}

// Content handles GET /api/v1/files/:name/sheets/:sheet — the sheet as a
// string grid, truncated to the preview cap.
func (h *FilesHandler) Content(c *gin.Context) {
	path, valid := h.safeXlsxName(c.Param("name"))
	if !valid {
		fail(c, http.StatusBadRequest, "INVALID_FILE", "invalid workbook name")
		return
	}
	sheet := c.Param("sheet")

	f, err := excelize.OpenFile(path)
	if err != nil {
		fail(c, http.StatusNotFound, "OPEN_FAILED", err.Error())
		return
	}
	defer f.Close()

	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		fail(c, http.StatusNotFound, "SHEET_NOT_FOUND", "sheet does not exist")
		return
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		fail(c, http.StatusInternalServerError, "READ_FAILED", err.Error())
		return
	}

	grid := make([][]string, 0, maxPreviewRows)
	for r, row := range rows {
		if r >= maxPreviewRows {
			break
		}
		line := make([]string, maxPreviewCols)
		for col := 0; col < maxPreviewCols && col < len(row); col++ {
			line[col] = row[col]
		}
		grid = append(grid, line)
	}
	ok(c, "", model.WeekGrid{SheetName: sheet, Data: grid, Rows: len(grid), Cols: maxPreviewCols})
}

// Rename handles POST /api/v1/files/rename. The active workbook pointer is
// not touched; renaming it makes the settings create a fresh file.
func (h *FilesHandler) Rename(c *gin.Context) {
	var req model.RenameFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", "old_name and new_name are required")
		return
	}
	oldPath, okOld := h.safeXlsxName(req.OldName)
	newPath, okNew := h.safeXlsxName(req.NewName)
	if !okOld || !okNew {
		fail(c, http.StatusBadRequest, "INVALID_FILE", "invalid workbook name")
		return
	}
	if _, err := os.Stat(newPath); err == nil {
		fail(c, http.StatusConflict, "FILE_EXISTS", "target file already exists")
		return
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		fail(c, http.StatusNotFound, "RENAME_FAILED", err.Error())
		return
	}
	logger.Info("workbook renamed", "from", req.OldName, "to", req.NewName)
	ok(c, "workbook renamed", gin.H{"name": req.NewName})
}

// Download handles GET /api/v1/download — streams the master workbook, the
// live store every advance and week-file clone comes from.
func (h *FilesHandler) Download(c *gin.Context) {
	path := filepath.Join(h.excelDir, excel.TemplateFile)
	if _, err := os.Stat(path); err != nil {
		fail(c, http.StatusNotFound, "NO_WORKBOOK", "master workbook not found")
		return
	}
	c.FileAttachment(path, excel.TemplateFile)
}
