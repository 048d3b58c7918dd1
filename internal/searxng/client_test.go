package searxng

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "golang concurrency", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "google,bing,duckduckgo", r.URL.Query().Get("engines"))
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"title":"Go Concurrency Patterns","url":"https://go.dev/blog/pipelines","content":"Pipelines and cancellation","engine":"google"}]}`))
	}))
	defer server.Close()

	client := NewClient("google,bing,duckduckgo", 5*time.Second, testLogger())

	resp, err := client.Search(context.Background(), server.URL, "golang concurrency")
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Go Concurrency Patterns", resp.Results[0].Title)
	assert.Equal(t, "google", resp.Results[0].Engine)
}

func TestClient_SearchNonJSONContentType(t *testing.T) {
	// Some instances answer format=json with an HTML block page.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>rate limited</body></html>"))
	}))
	defer server.Close()

	client := NewClient("google", 5*time.Second, testLogger())

	_, err := client.Search(context.Background(), server.URL, "query")
	require.Error(t, err)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, server.URL, fetchErr.Instance)
	assert.ErrorIs(t, err, ErrEmptyOrMalformed)
}

func TestClient_SearchMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results": [truncated`))
	}))
	defer server.Close()

	client := NewClient("google", 5*time.Second, testLogger())

	_, err := client.Search(context.Background(), server.URL, "query")
	assert.ErrorIs(t, err, ErrEmptyOrMalformed)
}

func TestClient_SearchErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient("google", 5*time.Second, testLogger())

	_, err := client.Search(context.Background(), server.URL, "query")
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, fetchErr.Error(), "429")
}

func TestClient_SearchZeroResultsIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	client := NewClient("google", 5*time.Second, testLogger())

	resp, err := client.Search(context.Background(), server.URL, "query")
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestClient_SearchContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient("google", 5*time.Second, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Search(ctx, server.URL, "query")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestResult_Kind(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		want   ResultKind
	}{
		{"plain text", Result{URL: "https://example.com/article", Content: "body"}, KindText},
		{"image result", Result{URL: "https://example.com/page", ImgSrc: "https://example.com/cat.jpg"}, KindImage},
		{"youtube url", Result{URL: "https://www.youtube.com/watch?v=abc123"}, KindVideo},
		{"short youtube url", Result{URL: "https://youtu.be/abc123"}, KindVideo},
		{"vimeo url", Result{URL: "https://vimeo.com/12345"}, KindVideo},
		{"videos category", Result{URL: "https://example.com/clip", Category: "videos"}, KindVideo},
		{"videos template", Result{URL: "https://example.com/clip", Template: "videos.html"}, KindVideo},
		{"video wins over image", Result{URL: "https://www.youtube.com/watch?v=x", ImgSrc: "https://i.ytimg.com/thumb.jpg"}, KindVideo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.result.Kind())
		})
	}
}
