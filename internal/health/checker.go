package health

import (
	"context"
	"net/http"
	"time"

	"github.com/ecosearch/backend/internal/database"
	"github.com/ecosearch/backend/internal/models"
	"github.com/sirupsen/logrus"
)

// HealthChecker manages health checks for all services
type HealthChecker struct {
	dbManager  *database.Manager
	healthRepo models.SystemHealthRepository
	logger     *logrus.Logger
	groqURL    string
	instances  []string
	httpClient *http.Client
}

func NewHealthChecker(dbManager *database.Manager, healthRepo models.SystemHealthRepository, logger *logrus.Logger, groqURL string, instances []string) *HealthChecker {
	return &HealthChecker{
		dbManager:  dbManager,
		healthRepo: healthRepo,
		logger:     logger,
		groqURL:    groqURL,
		instances:  instances,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// ServiceHealth represents the health status of a service
type ServiceHealth struct {
	Name         string `json:"name"`
	Status       string `json:"status"`
	ResponseTime int    `json:"response_time_ms"`
	Error        string `json:"error,omitempty"`
	LastChecked  string `json:"last_checked"`
}

// OverallHealth represents the overall system health
type OverallHealth struct {
	Status   string          `json:"status"`
	Services []ServiceHealth `json:"services"`
}

// CheckPostgreSQL checks PostgreSQL database health
func (h *HealthChecker) CheckPostgreSQL() ServiceHealth {
	start := time.Now()
	err := h.dbManager.PingDatabase()
	return h.record("postgresql", start, err)
}

// CheckRedis checks Redis cache health
func (h *HealthChecker) CheckRedis() ServiceHealth {
	start := time.Now()
	err := h.dbManager.PingRedis()
	return h.record("redis", start, err)
}

// CheckGroq probes the completion endpoint's model listing.
func (h *HealthChecker) CheckGroq(ctx context.Context) ServiceHealth {
	start := time.Now()
	err := h.probe(ctx, h.groqURL+"/models")
	return h.record("groq", start, err)
}

// CheckSearxNG probes mirrors until one answers; the pool only needs
// one healthy mirror to serve queries.
func (h *HealthChecker) CheckSearxNG(ctx context.Context) ServiceHealth {
	start := time.Now()
	var lastErr error
	for _, instance := range h.instances {
		if lastErr = h.probe(ctx, instance); lastErr == nil {
			break
		}
	}
	return h.record("searxng", start, lastErr)
}

// CheckAll runs every probe and folds the results.
func (h *HealthChecker) CheckAll(ctx context.Context) OverallHealth {
	services := []ServiceHealth{
		h.CheckPostgreSQL(),
		h.CheckRedis(),
		h.CheckGroq(ctx),
		h.CheckSearxNG(ctx),
	}

	status := "healthy"
	for _, s := range services {
		if s.Status != "healthy" {
			status = "degraded"
			break
		}
	}

	return OverallHealth{Status: status, Services: services}
}

func (h *HealthChecker) probe(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (h *HealthChecker) record(name string, start time.Time, err error) ServiceHealth {
	responseTime := int(time.Since(start).Milliseconds())

	status := "healthy"
	errorMsg := ""
	if err != nil {
		status = "unhealthy"
		errorMsg = err.Error()
		h.logger.WithError(err).WithField("service", name).Error("Health check failed")
	}

	if h.healthRepo != nil {
		h.healthRepo.UpdateServiceHealth(name, status, responseTime, errorMsg)
	}

	return ServiceHealth{
		Name:         name,
		Status:       status,
		ResponseTime: responseTime,
		Error:        errorMsg,
		LastChecked:  time.Now().Format(time.RFC3339),
	}
}
