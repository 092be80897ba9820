package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arslanaka/GDPR-Explainer/internal/models"
	"github.com/arslanaka/GDPR-Explainer/internal/pkg/logger"
	"github.com/arslanaka/GDPR-Explainer/internal/services"
)

type ArticleHandler struct {
	graph  GraphReader
	cache  services.Cache
	logger *logger.Logger
}

func NewArticleHandler(graph GraphReader, cache services.Cache, log *logger.Logger) *ArticleHandler {
	return &ArticleHandler{graph: graph, cache: cache, logger: log}
}

// GetArticle handles GET /api/articles/:article_id. Bare numeric ids are
// accepted and normalized to the ART- form.
func (h *ArticleHandler) GetArticle(c *gin.Context) {
	articleID := models.NormalizeArticleID(c.Param("article_id"))
	ctx := c.Request.Context()

	var cached models.ArticleDetails
	if h.cache.Get(ctx, "article", articleID, nil, &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}

	details, err := h.graph.GetArticleDetails(ctx, articleID)
	if err != nil {
		h.logger.WithError(err).Error("Article lookup failed", "article_id", articleID)
		respondError(c, err)
		return
	}
	if details == nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Article not found"})
		return
	}

	h.cache.Set(ctx, "article", articleID, details, nil)
	c.JSON(http.StatusOK, details)
}
