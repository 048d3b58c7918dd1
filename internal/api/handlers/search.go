// backend/internal/api/handlers/search.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ecosearch/backend/internal/aggregate"
	"github.com/ecosearch/backend/internal/database"
	"github.com/ecosearch/backend/internal/llm"
	"github.com/ecosearch/backend/internal/models"
	"github.com/ecosearch/backend/internal/repository"
	"github.com/ecosearch/backend/internal/search"
	"github.com/ecosearch/backend/internal/services"
	"github.com/ecosearch/backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	minQueryLength = 2
	maxQueryLength = 2000
	cycleTimeout   = 90 * time.Second
)

type SearchHandler struct {
	answerService *services.AnswerService
	repoManager   *repository.RepositoryManager
	cache         *database.Cache
	answerTTL     time.Duration
	logger        *logrus.Logger
}

func NewSearchHandler(
	answerService *services.AnswerService,
	repoManager *repository.RepositoryManager,
	cache *database.Cache,
	answerTTL time.Duration,
	logger *logrus.Logger,
) *SearchHandler {
	return &SearchHandler{
		answerService: answerService,
		repoManager:   repoManager,
		cache:         cache,
		answerTTL:     answerTTL,
		logger:        logger,
	}
}

// HandleSearch runs one evidence cycle for the posted query.
func (h *SearchHandler) HandleSearch(c *gin.Context) {
	startTime := time.Now()

	var req models.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("Invalid search request")
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	query := strings.TrimSpace(req.Query)
	if len(query) < minQueryLength {
		utils.ErrorResponse(c, http.StatusBadRequest, "Query too short (min 2 characters)", nil)
		return
	}
	if len(query) > maxQueryLength {
		utils.ErrorResponse(c, http.StatusBadRequest, "Query too long (max 2000 characters)", nil)
		return
	}

	userSession := h.getUserSession(c)

	h.logger.WithFields(logrus.Fields{
		"query":        query,
		"user_session": userSession,
		"ip_address":   c.ClientIP(),
	}).Info("Processing search request")

	ctx, cancel := context.WithTimeout(c.Request.Context(), cycleTimeout)
	defer cancel()

	cacheKey := utils.MD5Hash(strings.ToLower(query))
	if cached, err := h.cache.GetCachedAnswer(ctx, cacheKey); err == nil {
		h.logger.Debug("Answer served from cache")
		cached.ResponseTime = int(time.Since(startTime).Milliseconds())
		utils.SuccessResponse(c, http.StatusOK, "Search completed", cached)
		return
	}

	response, err := h.answerService.Answer(ctx, query)
	if err != nil {
		h.handleCycleError(c, err, query, userSession, startTime)
		return
	}

	response.ResponseTime = int(time.Since(startTime).Milliseconds())

	if err := h.cache.CacheAnswer(ctx, cacheKey, response, h.answerTTL); err != nil {
		h.logger.WithError(err).Warn("Failed to cache answer")
	}

	go h.trackQuery(userSession, query, response, models.CycleCompleted, time.Since(startTime), c.Copy())
	go h.updatePopularQueries(query, len(response.Sources), time.Since(startTime))

	h.logger.WithFields(logrus.Fields{
		"sources_count": len(response.Sources),
		"response_time": response.ResponseTime,
	}).Info("Search completed successfully")

	utils.SuccessResponse(c, http.StatusOK, "Search completed", response)
}

// handleCycleError maps pipeline failures onto the three distinct
// user-visible outcomes: nothing found, upstreams down, generation
// failed.
func (h *SearchHandler) handleCycleError(c *gin.Context, err error, query, userSession string, startTime time.Time) {
	elapsed := time.Since(startTime)

	var aggErr *search.AggregateError
	var complErr *llm.CompletionError

	switch {
	case errors.Is(err, aggregate.ErrNoEvidence):
		go h.trackQuery(userSession, query, nil, models.CycleNoEvidence, elapsed, c.Copy())
		utils.ErrorResponse(c, http.StatusNotFound, "We found nothing to answer your query", nil)

	case errors.As(err, &aggErr), errors.Is(err, search.ErrNoInstances):
		go h.trackQuery(userSession, query, nil, models.CycleUpstreamFailed, elapsed, c.Copy())
		utils.ErrorResponseWithDetails(c, http.StatusServiceUnavailable,
			"Search engines are currently busy. Please try your request again in a moment.", err.Error())

	case errors.As(err, &complErr):
		go h.trackQuery(userSession, query, nil, models.CycleCompletionFailed, elapsed, c.Copy())
		utils.ErrorResponse(c, http.StatusBadGateway, "We found evidence but could not generate an answer", err)

	default:
		h.logger.WithError(err).Error("Search failed")
		go h.trackQuery(userSession, query, nil, models.CycleUpstreamFailed, elapsed, c.Copy())
		utils.ErrorResponse(c, http.StatusInternalServerError, "Search failed", err)
	}
}

// HandleHistory returns the caller's recent evidence cycles.
func (h *SearchHandler) HandleHistory(c *gin.Context) {
	session := h.getUserSession(c)

	queries, err := h.repoManager.QueryLog.GetBySession(session)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load history")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to load history", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "History retrieved", queries)
}

// HandleFeedback processes user feedback on generated answers
func (h *SearchHandler) HandleFeedback(c *gin.Context) {
	var req struct {
		QueryID      uint   `json:"query_id" binding:"required"`
		FeedbackType string `json:"feedback_type" binding:"required"`
		FeedbackText string `json:"feedback_text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid feedback format", err)
		return
	}

	feedback := &models.UserFeedback{
		QueryID:      req.QueryID,
		FeedbackType: req.FeedbackType,
		FeedbackText: req.FeedbackText,
		UserSession:  h.getUserSession(c),
	}

	if err := feedback.Validate(); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid feedback", err)
		return
	}

	if err := h.repoManager.UserFeedback.Create(feedback); err != nil {
		h.logger.WithError(err).Error("Failed to save feedback")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to save feedback", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Feedback recorded", nil)
}

// HandleSuggestions returns popular queries matching a prefix
func (h *SearchHandler) HandleSuggestions(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Query parameter 'q' is required", nil)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))
	if limit > 10 {
		limit = 10
	}

	suggestions, err := h.repoManager.PopularQuery.GetTop(limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get search suggestions")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to get suggestions", err)
		return
	}

	filtered := make([]models.PopularQuery, 0)
	queryLower := strings.ToLower(query)
	for _, suggestion := range suggestions {
		if strings.Contains(strings.ToLower(suggestion.QueryText), queryLower) {
			filtered = append(filtered, suggestion)
		}
	}

	utils.SuccessResponse(c, http.StatusOK, "Suggestions retrieved", filtered)
}

// Helper methods

func (h *SearchHandler) getUserSession(c *gin.Context) string {
	if session := c.GetHeader("X-Session-ID"); session != "" {
		return session
	}

	// Fall back to basic fingerprinting
	userAgent := c.GetHeader("User-Agent")
	clientIP := c.ClientIP()
	return utils.GenerateSessionID(clientIP + userAgent)
}

func (h *SearchHandler) trackQuery(userSession, query string, response *models.SearchResponse, status string, elapsed time.Duration, c *gin.Context) {
	record := &models.QueryLog{
		QueryText:       query,
		UserSession:     userSession,
		Status:          status,
		SearchTimestamp: time.Now(),
		ResponseTimeMs:  int(elapsed.Milliseconds()),
		UserAgent:       c.GetHeader("User-Agent"),
		IPAddress:       c.ClientIP(),
	}
	if response != nil {
		record.Answer = response.Answer
		record.SourcesCount = len(response.Sources)
		record.ImagesCount = len(response.Images)
		record.VideosCount = len(response.Videos)
	}

	if err := h.repoManager.QueryLog.Create(record); err != nil {
		h.logger.WithError(err).Error("Failed to track query")
	}
}

func (h *SearchHandler) updatePopularQueries(query string, sourcesCount int, elapsed time.Duration) {
	if err := h.repoManager.PopularQuery.IncrementCount(query); err != nil {
		h.logger.WithError(err).Error("Failed to update popular queries")
		return
	}

	if err := h.repoManager.PopularQuery.UpdateStats(query, float64(sourcesCount), int(elapsed.Milliseconds())); err != nil {
		h.logger.WithError(err).Error("Failed to update query stats")
	}
}
