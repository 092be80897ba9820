package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arslanaka/GDPR-Explainer/internal/pkg/logger"
)

// HealthChecker is implemented by every collaborator that can report its own
// health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type HealthHandler struct {
	checks map[string]HealthChecker
	logger *logger.Logger
}

func NewHealthHandler(checks map[string]HealthChecker, log *logger.Logger) *HealthHandler {
	return &HealthHandler{checks: checks, logger: log}
}

// Health handles GET /health. The cache is reported but never fails the
// check: the service runs degraded without it.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	status := http.StatusOK
	components := gin.H{}

	for name, check := range h.checks {
		if err := check.HealthCheck(ctx); err != nil {
			components[name] = gin.H{"healthy": false, "error": err.Error()}
			if name != "cache" {
				status = http.StatusServiceUnavailable
			}
			continue
		}
		components[name] = gin.H{"healthy": true}
	}

	c.JSON(status, gin.H{
		"status":     statusLabel(status),
		"components": components,
	})
}

func statusLabel(status int) string {
	if status == http.StatusOK {
		return "healthy"
	}
	return "unhealthy"
}
