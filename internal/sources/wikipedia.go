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

const wikipediaAPI = "https://en.wikipedia.org/w/api.php"

// WikipediaClient searches the English Wikipedia fulltext index.
type WikipediaClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

type wikipediaResponse struct {
	Query struct {
		Search []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
			PageID  int    `json:"pageid"`
		} `json:"search"`
	} `json:"query"`
}

func NewWikipediaClient(timeout time.Duration, logger *logrus.Logger) *WikipediaClient {
	return &WikipediaClient{
		baseURL:    wikipediaAPI,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *WikipediaClient) Name() string { return "wikipedia" }

func (c *WikipediaClient) Fetch(ctx context.Context, query string, limit int) ([]Result, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", query)
	params.Set("srlimit", fmt.Sprintf("%d", limit))
	params.Set("format", "json")
	params.Set("utf8", "1")

	var resp wikipediaResponse
	if err := getJSON(ctx, c.httpClient, c.baseURL+"?"+params.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("wikipedia search failed: %w", err)
	}

	results := make([]Result, 0, len(resp.Query.Search))
	for _, item := range resp.Query.Search {
		pageURL := "https://en.wikipedia.org/wiki/" + url.PathEscape(strings.ReplaceAll(item.Title, " ", "_"))
		results = append(results, Result{
			Title:   item.Title,
			URL:     pageURL,
			Content: stripTags(item.Snippet),
		})
	}

	c.logger.WithFields(logrus.Fields{
		"source":  c.Name(),
		"results": len(results),
	}).Debug("Specialized fetch completed")

	return results, nil
}
