package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arslanaka/GDPR-Explainer/internal/pkg/logger"
)

type CacheHandler struct {
	cache  CacheAdmin
	logger *logger.Logger
}

func NewCacheHandler(cache CacheAdmin, log *logger.Logger) *CacheHandler {
	return &CacheHandler{cache: cache, logger: log}
}

// GetStats handles GET /api/cache/stats.
func (h *CacheHandler) GetStats(c *gin.Context) {
	stats := h.cache.Stats(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   stats,
	})
}

// InvalidatePattern handles POST /api/cache/invalidate/:pattern. Pattern
// matching is delegated to the store's glob semantics.
func (h *CacheHandler) InvalidatePattern(c *gin.Context) {
	pattern := c.Param("pattern")
	deleted := h.cache.InvalidatePattern(c.Request.Context(), pattern)

	c.JSON(http.StatusOK, gin.H{
		"status":        "success",
		"message":       fmt.Sprintf("Invalidated %d cache entries", deleted),
		"deleted_count": deleted,
	})
}

// Clear handles DELETE /api/cache/clear.
func (h *CacheHandler) Clear(c *gin.Context) {
	deleted := h.cache.InvalidatePattern(c.Request.Context(), "*")

	c.JSON(http.StatusOK, gin.H{
		"status":        "success",
		"message":       fmt.Sprintf("Cleared all cache (%d entries)", deleted),
		"deleted_count": deleted,
	})
}
