package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

const hnAlgoliaAPI = "https://hn.algolia.com/api/v1/search"

// HackerNewsClient searches stories through the public Algolia index.
type HackerNewsClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

type hnResponse struct {
	Hits []struct {
		Title       string `json:"title"`
		URL         string `json:"url"`
		Points      int    `json:"points"`
		NumComments int    `json:"num_comments"`
		StoryText   string `json:"story_text"`
		ObjectID    string `json:"objectID"`
	} `json:"hits"`
}

func NewHackerNewsClient(timeout time.Duration, logger *logrus.Logger) *HackerNewsClient {
	return &HackerNewsClient{
		baseURL:    hnAlgoliaAPI,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *HackerNewsClient) Name() string { return "hackernews" }

func (c *HackerNewsClient) Fetch(ctx context.Context, query string, limit int) ([]Result, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("tags", "story")
	params.Set("hitsPerPage", fmt.Sprintf("%d", limit))

	var resp hnResponse
	if err := getJSON(ctx, c.httpClient, c.baseURL+"?"+params.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("hackernews search failed: %w", err)
	}

	results := make([]Result, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		storyURL := hit.URL
		if storyURL == "" {
			storyURL = "https://news.ycombinator.com/item?id=" + hit.ObjectID
		}

		content := stripTags(hit.StoryText)
		if content == "" {
			content = hit.Title
		}
		content = fmt.Sprintf("%s Discussed on Hacker News with %d points and %d comments.",
			content, hit.Points, hit.NumComments)

		results = append(results, Result{
			Title:   hit.Title,
			URL:     storyURL,
			Content: content,
		})
	}

	c.logger.WithFields(logrus.Fields{
		"source":  c.Name(),
		"results": len(results),
	}).Debug("Specialized fetch completed")

	return results, nil
}
