package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hodiny/internal/model"
	"hodiny/internal/service"
)

type EmployeeHandler struct {
	registry *service.EmployeeRegistry
}

func NewEmployeeHandler(registry *service.EmployeeRegistry) *EmployeeHandler {
	return &EmployeeHandler{registry: registry}
}

// List handles GET /api/v1/employees.
func (h *EmployeeHandler) List(c *gin.Context) {
	ok(c, "", h.registry.All())
}

// Add handles POST /api/v1/employees.
func (h *EmployeeHandler) Add(c *gin.Context) {
	var req model.AddEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", "employee name is required")
		return
	}
	if err := h.registry.Add(req.Name); err != nil {
		fail(c, http.StatusBadRequest, "ADD_FAILED", err.Error())
		return
	}
	ok(c, "employee added", h.registry.All())
}

// Rename handles PUT /api/v1/employees/:name.
func (h *EmployeeHandler) Rename(c *gin.Context) {
	var req model.RenameEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", "new_name is required")
		return
	}
	if err := h.registry.Rename(c.Param("name"), req.NewName); err != nil {
		fail(c, http.StatusBadRequest, "RENAME_FAILED", err.Error())
		return
	}
	ok(c, "employee renamed", h.registry.All())
}

// Delete handles DELETE /api/v1/employees/:name.
func (h *EmployeeHandler) Delete(c *gin.Context) {
	if err := h.registry.Remove(c.Param("name")); err != nil {
		fail(c, http.StatusNotFound, "DELETE_FAILED", err.Error())
		return
	}
	ok(c, "employee removed", h.registry.All())
}

// GetSelection handles GET /api/v1/employees/selected.
func (h *EmployeeHandler) GetSelection(c *gin.Context) {
	ok(c, "", gin.H{"employees": h.registry.Selected()})
}

// SetSelection handles POST /api/v1/employees/selected.
func (h *EmployeeHandler) SetSelection(c *gin.Context) {
	var req model.SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", "employees list is required")
		return
	}
	if err := h.registry.SetSelected(req.Employees); err != nil {
		fail(c, http.StatusInternalServerError, "SELECTION_FAILED", err.Error())
		return
	}
	ok(c, "selection updated", gin.H{"employees": h.registry.Selected()})
}
