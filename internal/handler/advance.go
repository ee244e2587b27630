package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hodiny/internal/excel"
	"hodiny/internal/logger"
	"hodiny/internal/model"
	"hodiny/internal/service"
)

type AdvanceHandler struct {
	advances *excel.AdvanceStore
	registry *service.EmployeeRegistry
}

func NewAdvanceHandler(advances *excel.AdvanceStore, registry *service.EmployeeRegistry) *AdvanceHandler {
	return &AdvanceHandler{advances: advances, registry: registry}
}

// Options handles GET /api/v1/advances/options.
func (h *AdvanceHandler) Options(c *gin.Context) {
	names := h.advances.OptionNames()
	ok(c, "", gin.H{"options": names[:], "currencies": excel.ValidCurrencies})
}

// Add handles POST /api/v1/advances.
func (h *AdvanceHandler) Add(c *gin.Context) {
	var req model.AdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", "employee, amount, currency, option and date are required")
		return
	}
	if !h.registry.Exists(req.Employee) {
		fail(c, http.StatusBadRequest, "UNKNOWN_EMPLOYEE", "employee is not registered")
		return
	}
	if err := h.advances.AddAdvance(req.Employee, req.Amount, req.Currency, req.Option, req.Date); err != nil {
		logger.Error("advance save failed", "employee", req.Employee, "err", err)
		fail(c, http.StatusBadRequest, "ADVANCE_FAILED", err.Error())
		return
	}
	ok(c, "advance recorded", gin.H{
		"employee": req.Employee,
		"amount":   req.Amount,
		"currency": req.Currency,
		"option":   req.Option,
	})
}
