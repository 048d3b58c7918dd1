// Package sources holds the single-purpose upstream fetchers that run
// alongside the web-search failover pool. Each fetcher is independent
// and best-effort: a failure degrades its contribution to empty and is
// absorbed by the aggregator.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
)

// Result is the normalized shape every specialized fetcher produces.
type Result struct {
	Title   string
	URL     string
	Content string
}

// Fetcher is one specialized upstream. Name doubles as the origin tag
// stamped on merged sources.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, query string, limit int) ([]Result, error)
}

var htmlTags = regexp.MustCompile(`<[^>]*>`)

// stripTags removes inline markup from API snippets (Wikipedia wraps
// matches in <span> elements).
func stripTags(s string) string {
	return strings.TrimSpace(htmlTags.ReplaceAllString(s, ""))
}

// getJSON performs one GET and decodes a JSON body, converting any
// non-success outcome into an error.
func getJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}
