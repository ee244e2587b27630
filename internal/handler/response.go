// Package handler exposes the HTTP API. Every response uses a common JSON
// envelope so the single-page frontend can treat errors uniformly.
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type apiError struct {
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

type apiResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     *apiError   `json:"error,omitempty"`
	Timestamp string      `json:"timestamp"`
}

func ok(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, apiResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func fail(c *gin.Context, status int, code, message string) {
	failWith(c, status, code, message, nil)
}

func failWith(c *gin.Context, status int, code, message string, details interface{}) {
	c.JSON(status, apiResponse{
		Success:   false,
		Error:     &apiError{Message: message, Code: code, Details: details},
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// Health handles GET /api/v1/health.
func Health(c *gin.Context) {
	ok(c, "ok", gin.H{"status": "healthy"})
}
