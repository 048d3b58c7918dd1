// backend/internal/api/handlers/health.go
package handlers

import (
	"net/http"

	"github.com/ecosearch/backend/internal/health"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type HealthHandler struct {
	checker *health.HealthChecker
	logger  *logrus.Logger
}

func NewHealthHandler(checker *health.HealthChecker, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{checker: checker, logger: logger}
}

// HandleHealth reports the status of every dependency the pipeline
// needs: postgres, redis, the completion provider and the search
// mirrors.
func (h *HealthHandler) HandleHealth(c *gin.Context) {
	overall := h.checker.CheckAll(c.Request.Context())

	code := http.StatusOK
	if overall.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, overall)
}

// HandleLiveness is a cheap probe for orchestrators; it only proves
// the process is serving.
func (h *HealthHandler) HandleLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}
