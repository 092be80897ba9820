package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arslanaka/GDPR-Explainer/internal/models"
	"github.com/arslanaka/GDPR-Explainer/internal/pkg/logger"
)

type ChatHandler struct {
	chat   ChatStreamer
	logger *logger.Logger
}

func NewChatHandler(chat ChatStreamer, log *logger.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, logger: log}
}

// Chat handles POST /api/chat. The response is an application/x-ndjson
// stream: one ResponseChunk per line, flushed as soon as it is produced.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Query is required"})
		return
	}

	c.Header("Content-Type", "application/x-ndjson")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	chunks := h.chat.ChatStream(c.Request.Context(), req)

	c.Stream(func(w io.Writer) bool {
		chunk, ok := <-chunks
		if !ok {
			return false
		}

		line, err := json.Marshal(chunk)
		if err != nil {
			h.logger.WithError(err).Error("Failed to encode response chunk")
			return false
		}

		w.Write(line)
		w.Write([]byte("\n"))
		return true
	})
}
