package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arslanaka/GDPR-Explainer/internal/pkg/logger"
)

type TopicHandler struct {
	graph  GraphReader
	logger *logger.Logger
}

func NewTopicHandler(graph GraphReader, log *logger.Logger) *TopicHandler {
	return &TopicHandler{graph: graph, logger: log}
}

// GetTopics handles GET /api/topics.
func (h *TopicHandler) GetTopics(c *gin.Context) {
	topics, err := h.graph.GetAllTopics(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Topic listing failed")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"topics": topics})
}

// GetArticlesByTopic handles GET /api/topics/:topic. An unknown topic yields
// an empty article list, never a 404.
func (h *TopicHandler) GetArticlesByTopic(c *gin.Context) {
	topic := c.Param("topic")

	articles, err := h.graph.GetArticlesByTopic(c.Request.Context(), topic)
	if err != nil {
		h.logger.WithError(err).Error("Topic lookup failed", "topic", topic)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"topic": topic, "articles": articles})
}
