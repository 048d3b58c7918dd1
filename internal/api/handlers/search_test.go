package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ecosearch/backend/internal/aggregate"
	"github.com/ecosearch/backend/internal/database"
	"github.com/ecosearch/backend/internal/llm"
	"github.com/ecosearch/backend/internal/models"
	"github.com/ecosearch/backend/internal/repository"
	"github.com/ecosearch/backend/internal/search"
	"github.com/ecosearch/backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

type fakeAggregator struct {
	evidence *models.Evidence
	err      error
}

func (f *fakeAggregator) Aggregate(ctx context.Context, query string) (*models.Evidence, error) {
	return f.evidence, f.err
}

type fakeCompleter struct {
	answer string
	err    error
}

func (f *fakeCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	return f.answer, f.err
}

type fakeQueryLogRepo struct {
	mu      sync.Mutex
	created []models.QueryLog
	session []models.QueryLog
}

func (f *fakeQueryLogRepo) Create(q *models.QueryLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, *q)
	return nil
}

func (f *fakeQueryLogRepo) GetByID(id uint) (*models.QueryLog, error) { return nil, nil }

func (f *fakeQueryLogRepo) GetBySession(session string) ([]models.QueryLog, error) {
	return f.session, nil
}

func (f *fakeQueryLogRepo) GetRecent(limit int) ([]models.QueryLog, error) { return nil, nil }

type fakeFeedbackRepo struct {
	created []models.UserFeedback
}

func (f *fakeFeedbackRepo) Create(fb *models.UserFeedback) error {
	f.created = append(f.created, *fb)
	return nil
}

func (f *fakeFeedbackRepo) GetByQueryID(queryID uint) ([]models.UserFeedback, error) {
	return nil, nil
}

func (f *fakeFeedbackRepo) GetRecentFeedback(limit int) ([]models.UserFeedback, error) {
	return nil, nil
}

type fakePopularRepo struct {
	top []models.PopularQuery
}

func (f *fakePopularRepo) IncrementCount(queryText string) error { return nil }
func (f *fakePopularRepo) GetTop(limit int) ([]models.PopularQuery, error) {
	return f.top, nil
}
func (f *fakePopularRepo) UpdateStats(queryText string, sourcesCount float64, responseTime int) error {
	return nil
}

// deadCache talks to a closed port; every cache operation fails and
// the handler has to fall through to the pipeline.
func deadCache() *database.Cache {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
	})
	return database.NewCache(client, testLogger())
}

func newTestHandler(aggregator services.Aggregator, completer llm.Completer) (*SearchHandler, *fakeQueryLogRepo) {
	logger := testLogger()
	svc := services.NewAnswerService(aggregator, completer, nil, logger)
	queryLogs := &fakeQueryLogRepo{}
	repos := &repository.RepositoryManager{
		QueryLog:     queryLogs,
		UserFeedback: &fakeFeedbackRepo{},
		PopularQuery: &fakePopularRepo{},
	}
	return NewSearchHandler(svc, repos, deadCache(), time.Minute, logger), queryLogs
}

func newTestRouter(handler *SearchHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/search", handler.HandleSearch)
	router.GET("/api/history", handler.HandleHistory)
	router.POST("/api/feedback", handler.HandleFeedback)
	router.GET("/api/suggestions", handler.HandleSuggestions)
	return router
}

func postSearch(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/search", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-ID", "test-session")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func parisEvidence() *models.Evidence {
	return &models.Evidence{
		Sources: []models.Source{
			{ID: 1, Title: "Paris", URL: "https://en.wikipedia.org/wiki/Paris", Content: "Paris is the capital of France.", Origin: "wikipedia"},
		},
		Images: []models.ImageResult{},
		Videos: []models.VideoResult{},
	}
}

func TestHandleSearch_Success(t *testing.T) {
	handler, _ := newTestHandler(
		&fakeAggregator{evidence: parisEvidence()},
		&fakeCompleter{answer: "The capital of France is Paris [1]."},
	)
	router := newTestRouter(handler)

	w := postSearch(router, `{"query":"capital of France"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool                  `json:"success"`
		Data    models.SearchResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "The capital of France is Paris [1].", resp.Data.Answer)
	require.Len(t, resp.Data.Sources, 1)
	assert.Equal(t, 1, resp.Data.Sources[0].ID)

	var foundLink bool
	for _, seg := range resp.Data.Segments {
		if seg.Kind == models.SegmentLink && seg.SourceID == 1 {
			foundLink = true
		}
	}
	assert.True(t, foundLink, "a resolved citation must come back as a link segment")
}

func TestHandleSearch_MalformedBody(t *testing.T) {
	handler, _ := newTestHandler(&fakeAggregator{}, &fakeCompleter{})
	router := newTestRouter(handler)

	w := postSearch(router, `{"query":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleSearch_QueryTooShort(t *testing.T) {
	handler, _ := newTestHandler(&fakeAggregator{}, &fakeCompleter{})
	router := newTestRouter(handler)

	w := postSearch(router, `{"query":"  a  "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "too short")
}

func TestHandleSearch_MissingQuery(t *testing.T) {
	handler, _ := newTestHandler(&fakeAggregator{}, &fakeCompleter{})
	router := newTestRouter(handler)

	w := postSearch(router, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleSearch_NoEvidenceIs404(t *testing.T) {
	handler, _ := newTestHandler(&fakeAggregator{err: aggregate.ErrNoEvidence}, &fakeCompleter{})
	router := newTestRouter(handler)

	w := postSearch(router, `{"query":"something nobody wrote about"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "found nothing")
}

func TestHandleSearch_UpstreamFailureIs503(t *testing.T) {
	aggErr := &search.AggregateError{Attempts: 7, Last: errors.New("connection refused")}
	handler, _ := newTestHandler(&fakeAggregator{err: aggErr}, &fakeCompleter{})
	router := newTestRouter(handler)

	w := postSearch(router, `{"query":"anything"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "try your request again")
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestHandleSearch_CompletionFailureIs502(t *testing.T) {
	complErr := &llm.CompletionError{Model: "llama-3.3-70b-versatile", Cause: errors.New("overloaded")}
	handler, _ := newTestHandler(&fakeAggregator{evidence: parisEvidence()}, &fakeCompleter{err: complErr})
	router := newTestRouter(handler)

	w := postSearch(router, `{"query":"anything"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "could not generate")
}

func TestHandleHistory(t *testing.T) {
	handler, queryLogs := newTestHandler(&fakeAggregator{}, &fakeCompleter{})
	queryLogs.session = []models.QueryLog{
		{QueryText: "capital of France", Status: models.CycleCompleted},
	}
	router := newTestRouter(handler)

	req := httptest.NewRequest("GET", "/api/history", nil)
	req.Header.Set("X-Session-ID", "test-session")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "capital of France")
}

func TestHandleFeedback(t *testing.T) {
	handler, _ := newTestHandler(&fakeAggregator{}, &fakeCompleter{})
	router := newTestRouter(handler)

	body := `{"query_id":1,"feedback_type":"helpful","feedback_text":"good answer"}`
	req := httptest.NewRequest("POST", "/api/feedback", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestHandleFeedback_InvalidType(t *testing.T) {
	handler, _ := newTestHandler(&fakeAggregator{}, &fakeCompleter{})
	router := newTestRouter(handler)

	body := `{"query_id":1,"feedback_type":"amazing"}`
	req := httptest.NewRequest("POST", "/api/feedback", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleSuggestions(t *testing.T) {
	handler, _ := newTestHandler(&fakeAggregator{}, &fakeCompleter{})
	handler.repoManager.PopularQuery = &fakePopularRepo{top: []models.PopularQuery{
		{QueryText: "capital of France", SearchCount: 10},
		{QueryText: "golang tutorial", SearchCount: 5},
	}}
	router := newTestRouter(handler)

	req := httptest.NewRequest("GET", "/api/suggestions?q=france", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "capital of France")
	assert.NotContains(t, w.Body.String(), "golang tutorial")
}

func TestHandleSuggestions_MissingQuery(t *testing.T) {
	handler, _ := newTestHandler(&fakeAggregator{}, &fakeCompleter{})
	router := newTestRouter(handler)

	req := httptest.NewRequest("GET", "/api/suggestions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
