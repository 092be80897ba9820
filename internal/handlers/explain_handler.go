package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arslanaka/GDPR-Explainer/internal/models"
	"github.com/arslanaka/GDPR-Explainer/internal/pkg/logger"
	"github.com/arslanaka/GDPR-Explainer/internal/services"
)

type ExplainHandler struct {
	explainer Explainer
	llm       services.LLMSelector
	logger    *logger.Logger
}

func NewExplainHandler(explainer Explainer, llm services.LLMSelector, log *logger.Logger) *ExplainHandler {
	return &ExplainHandler{explainer: explainer, llm: llm, logger: log}
}

// ExplainArticle handles GET /api/explain/:article_id. The optional model
// query parameter selects the generation provider.
func (h *ExplainHandler) ExplainArticle(c *gin.Context) {
	articleID := models.NormalizeArticleID(c.Param("article_id"))
	llm := h.llm.Client(c.Query("model"))

	result, err := h.explainer.ExplainArticle(c.Request.Context(), llm, articleID)
	if err != nil {
		h.logger.WithError(err).Error("Article explanation failed", "article_id", articleID)
		respondError(c, err)
		return
	}
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Article not found"})
		return
	}

	c.JSON(http.StatusOK, result)
}
