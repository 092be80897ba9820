// Package handlers contains the Gin HTTP handlers for the GDPR Explainer API.
// Each handler is constructed with the collaborators it consumes so tests can
// substitute fakes.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arslanaka/GDPR-Explainer/internal/models"
	"github.com/arslanaka/GDPR-Explainer/internal/services"
)

// GraphReader is the structured article store consumed by the lookup handlers.
type GraphReader interface {
	GetArticleDetails(ctx context.Context, articleID string) (*models.ArticleDetails, error)
	GetAllTopics(ctx context.Context) ([]string, error)
	GetArticlesByTopic(ctx context.Context, topic string) ([]models.TopicArticle, error)
}

// Searcher is the semantic search collaborator.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) []models.SearchHit
}

// Explainer generates article explanations.
type Explainer interface {
	ExplainArticle(ctx context.Context, llm services.LLMClient, articleID string) (*models.Explanation, error)
}

// ChatStreamer runs one chat orchestration and produces its chunk stream.
type ChatStreamer interface {
	ChatStream(ctx context.Context, req models.ChatRequest) <-chan models.ResponseChunk
}

// CacheAdmin exposes the administrative cache operations.
type CacheAdmin interface {
	Stats(ctx context.Context) services.CacheStats
	InvalidatePattern(ctx context.Context, pattern string) int64
}

// respondError maps a service error category onto an HTTP status.
func respondError(c *gin.Context, err error) {
	var svcErr *models.ServiceError
	if errors.As(err, &svcErr) {
		switch svcErr.Category {
		case models.ErrorCategoryValidation:
			c.JSON(http.StatusBadRequest, gin.H{"detail": svcErr.Message})
			return
		case models.ErrorCategoryNotFound:
			c.JSON(http.StatusNotFound, gin.H{"detail": svcErr.Message})
			return
		case models.ErrorCategoryTimeout:
			c.JSON(http.StatusGatewayTimeout, gin.H{"detail": svcErr.Message})
			return
		}
	}
	c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
}
