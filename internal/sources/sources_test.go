package sources

import (
	"context"
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

func jsonServer(t *testing.T, check func(r *http.Request), body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
}

func TestWikipediaClient_Fetch(t *testing.T) {
	server := jsonServer(t, func(r *http.Request) {
		assert.Equal(t, "query", r.URL.Query().Get("action"))
		assert.Equal(t, "search", r.URL.Query().Get("list"))
		assert.Equal(t, "go language", r.URL.Query().Get("srsearch"))
		assert.Equal(t, "2", r.URL.Query().Get("srlimit"))
	}, `{"query":{"search":[
		{"title":"Go (programming language)","snippet":"<span class=\"searchmatch\">Go</span> is a statically typed language","pageid":1},
		{"title":"Go","snippet":"board game","pageid":2}
	]}}`)
	defer server.Close()

	client := NewWikipediaClient(5*time.Second, testLogger())
	client.baseURL = server.URL

	results, err := client.Fetch(context.Background(), "go language", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "Go (programming language)", results[0].Title)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Go_(programming_language)", results[0].URL)
	assert.Equal(t, "Go is a statically typed language", results[0].Content, "html markup is stripped")
}

func TestGitHubClient_Fetch(t *testing.T) {
	server := jsonServer(t, func(r *http.Request) {
		assert.Equal(t, "stars", r.URL.Query().Get("sort"))
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
	}, `{"items":[
		{"full_name":"gin-gonic/gin","html_url":"https://github.com/gin-gonic/gin","description":"HTTP web framework","language":"Go","stargazers_count":75000}
	]}`)
	defer server.Close()

	client := NewGitHubClient(5*time.Second, testLogger())
	client.baseURL = server.URL

	results, err := client.Fetch(context.Background(), "gin", 2)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "gin-gonic/gin", results[0].Title)
	assert.Equal(t, "https://github.com/gin-gonic/gin", results[0].URL)
	assert.Contains(t, results[0].Content, "HTTP web framework")
	assert.Contains(t, results[0].Content, "Written in Go.")
	assert.Contains(t, results[0].Content, "75000 stars")
}

func TestHackerNewsClient_Fetch(t *testing.T) {
	server := jsonServer(t, func(r *http.Request) {
		assert.Equal(t, "story", r.URL.Query().Get("tags"))
	}, `{"hits":[
		{"objectID":"123","title":"Show HN: my project","url":"","story_text":"","points":150,"num_comments":42},
		{"objectID":"456","title":"Go 1.24 released","url":"https://go.dev/blog/go1.24","story_text":"<p>Release notes</p>","points":900,"num_comments":300}
	]}`)
	defer server.Close()

	client := NewHackerNewsClient(5*time.Second, testLogger())
	client.baseURL = server.URL

	results, err := client.Fetch(context.Background(), "go", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Ask-style stories fall back to the HN item page.
	assert.Equal(t, "https://news.ycombinator.com/item?id=123", results[0].URL)
	assert.Contains(t, results[0].Content, "150 points and 42 comments")

	assert.Equal(t, "https://go.dev/blog/go1.24", results[1].URL)
	assert.Contains(t, results[1].Content, "Release notes")
	assert.NotContains(t, results[1].Content, "<p>")
}

func TestOpenLibraryClient_Fetch(t *testing.T) {
	server := jsonServer(t, func(r *http.Request) {
		assert.Equal(t, "the go programming language", r.URL.Query().Get("q"))
	}, `{"docs":[
		{"title":"The Go Programming Language","author_name":["Alan Donovan","Brian Kernighan"],"first_publish_year":2015,"key":"/works/OL17781134W"}
	]}`)
	defer server.Close()

	client := NewOpenLibraryClient(5*time.Second, testLogger())
	client.baseURL = server.URL

	results, err := client.Fetch(context.Background(), "the go programming language", 2)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "The Go Programming Language", results[0].Title)
	assert.Equal(t, "https://openlibrary.org/works/OL17781134W", results[0].URL)
	assert.Equal(t, "Book: The Go Programming Language by Alan Donovan, Brian Kernighan, first published 2015.", results[0].Content)
}

func TestFetch_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewWikipediaClient(5*time.Second, testLogger())
	client.baseURL = server.URL

	_, err := client.Fetch(context.Background(), "query", 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wikipedia search failed")
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "plain", stripTags("plain"))
	assert.Equal(t, "bold text", stripTags("<b>bold</b> text"))
	assert.Equal(t, "", stripTags("<div></div>"))
}
