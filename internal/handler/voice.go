package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hodiny/internal/model"
	"hodiny/internal/service"
)

type VoiceHandler struct {
	voice *service.VoiceService
}

func NewVoiceHandler(voice *service.VoiceService) *VoiceHandler {
	return &VoiceHandler{voice: voice}
}

// Command handles POST /api/v1/voice/command — text in, structured command
// out. Execution is left to the client so the operator can review first.
func (h *VoiceHandler) Command(c *gin.Context) {
	var req model.VoiceCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", "text is required")
		return
	}
	cmd, err := h.voice.Process(c.Request.Context(), req.Text)
	if err != nil {
		failWith(c, http.StatusUnprocessableEntity, "COMMAND_FAILED", err.Error(), gin.H{"original_text": req.Text})
		return
	}
	ok(c, "", cmd)
}
