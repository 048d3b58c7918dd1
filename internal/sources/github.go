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

const githubAPI = "https://api.github.com/search/repositories"

// GitHubClient searches public repositories. Unauthenticated; the
// search endpoint allows a small request budget which one call per
// query cycle stays well inside.
type GitHubClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

type githubResponse struct {
	Items []struct {
		FullName    string `json:"full_name"`
		HTMLURL     string `json:"html_url"`
		Description string `json:"description"`
		Stars       int    `json:"stargazers_count"`
		Language    string `json:"language"`
	} `json:"items"`
}

func NewGitHubClient(timeout time.Duration, logger *logrus.Logger) *GitHubClient {
	return &GitHubClient{
		baseURL:    githubAPI,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *GitHubClient) Name() string { return "github" }

func (c *GitHubClient) Fetch(ctx context.Context, query string, limit int) ([]Result, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("sort", "stars")
	params.Set("per_page", fmt.Sprintf("%d", limit))

	headers := map[string]string{"Accept": "application/vnd.github+json"}

	var resp githubResponse
	if err := getJSON(ctx, c.httpClient, c.baseURL+"?"+params.Encode(), headers, &resp); err != nil {
		return nil, fmt.Errorf("github search failed: %w", err)
	}

	results := make([]Result, 0, len(resp.Items))
	for _, item := range resp.Items {
		var parts []string
		if item.Description != "" {
			parts = append(parts, item.Description)
		}
		if item.Language != "" {
			parts = append(parts, fmt.Sprintf("Written in %s.", item.Language))
		}
		parts = append(parts, fmt.Sprintf("%d stars on GitHub.", item.Stars))

		results = append(results, Result{
			Title:   item.FullName,
			URL:     item.HTMLURL,
			Content: strings.Join(parts, " "),
		})
	}

	c.logger.WithFields(logrus.Fields{
		"source":  c.Name(),
		"results": len(results),
	}).Debug("Specialized fetch completed")

	return results, nil
}
