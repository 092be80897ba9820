package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arslanaka/GDPR-Explainer/internal/models"
	"github.com/arslanaka/GDPR-Explainer/internal/pkg/logger"
	"github.com/arslanaka/GDPR-Explainer/internal/services"
)

const defaultSearchLimit = 5

type SearchHandler struct {
	search Searcher
	cache  services.Cache
	logger *logger.Logger
}

func NewSearchHandler(search Searcher, cache services.Cache, log *logger.Logger) *SearchHandler {
	return &SearchHandler{search: search, cache: cache, logger: log}
}

// Search handles GET /api/search?q=<text>.
func (h *SearchHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Query parameter 'q' is required"})
		return
	}

	ctx := c.Request.Context()
	cacheParams := map[string]string{"limit": "5"}

	var cached []models.SearchHit
	if h.cache.Get(ctx, "search", query, cacheParams, &cached) {
		c.JSON(http.StatusOK, gin.H{"results": cached})
		return
	}

	results := h.search.Search(ctx, query, defaultSearchLimit)
	if len(results) > 0 {
		h.cache.Set(ctx, "search", query, results, cacheParams)
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}
