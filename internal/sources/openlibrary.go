package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const openLibraryAPI = "https://openlibrary.org/search.json"

// OpenLibraryClient searches the Open Library book catalog.
type OpenLibraryClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

type openLibraryResponse struct {
	Docs []struct {
		Title            string   `json:"title"`
		AuthorName       []string `json:"author_name"`
		FirstPublishYear int      `json:"first_publish_year"`
		Key              string   `json:"key"`
	} `json:"docs"`
}

func NewOpenLibraryClient(timeout time.Duration, logger *logrus.Logger) *OpenLibraryClient {
	return &OpenLibraryClient{
		baseURL:    openLibraryAPI,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *OpenLibraryClient) Name() string { return "openlibrary" }

func (c *OpenLibraryClient) Fetch(ctx context.Context, query string, limit int) ([]Result, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", fmt.Sprintf("%d", limit))
	params.Set("fields", "title,author_name,first_publish_year,key")

	var resp openLibraryResponse
	if err := getJSON(ctx, c.httpClient, c.baseURL+"?"+params.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("openlibrary search failed: %w", err)
	}

	results := make([]Result, 0, len(resp.Docs))
	for _, doc := range resp.Docs {
		var b strings.Builder
		fmt.Fprintf(&b, "Book: %s", doc.Title)
		if len(doc.AuthorName) > 0 {
			fmt.Fprintf(&b, " by %s", strings.Join(doc.AuthorName, ", "))
		}
		if doc.FirstPublishYear > 0 {
			fmt.Fprintf(&b, ", first published %d", doc.FirstPublishYear)
		}
		b.WriteString(".")

		results = append(results, Result{
			Title:   doc.Title,
			URL:     "https://openlibrary.org" + doc.Key,
			Content: b.String(),
		})
	}

	c.logger.WithFields(logrus.Fields{
		"source":  c.Name(),
		"results": len(results),
	}).Debug("Specialized fetch completed")

	return results, nil
}
