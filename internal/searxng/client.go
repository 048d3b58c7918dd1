package searxng

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Public instances block default Go user agents, so queries go out
// looking like a browser. Same header set the instances expect from
// their own web UI.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ErrEmptyOrMalformed marks a 2xx response whose body was not usable
// JSON. Treated as a fetch failure, never as success.
var ErrEmptyOrMalformed = errors.New("empty or malformed response body")

// FetchError is the typed failure for one fetch against one instance.
// It always carries the instance identity and the underlying cause.
type FetchError struct {
	Instance string
	Cause    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("searxng instance %s: %v", e.Instance, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

// Client queries individual SearxNG instances. It is safe for
// concurrent use; per-call state lives in the request context.
type Client struct {
	engines    string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewClient(engines string, timeout time.Duration, logger *logrus.Logger) *Client {
	return &Client{
		engines: engines,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Search runs one query against one instance. Any network, status,
// or decode problem comes back as a *FetchError; a well-formed body
// with zero results is returned as-is and left for the caller to
// judge.
func (c *Client) Search(ctx context.Context, instance, query string) (*SearchResponse, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("engines", c.engines)

	searchURL := strings.TrimRight(instance, "/") + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, &FetchError{Instance: instance, Cause: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.WithFields(logrus.Fields{
		"instance": instance,
		"query":    query,
	}).Debug("Querying SearxNG instance")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Instance: instance, Cause: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{Instance: instance, Cause: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "application/json") {
		return nil, &FetchError{Instance: instance, Cause: fmt.Errorf("%w: content-type %q", ErrEmptyOrMalformed, contentType)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Instance: instance, Cause: fmt.Errorf("failed to read response: %w", err)}
	}

	if len(body) == 0 {
		return nil, &FetchError{Instance: instance, Cause: ErrEmptyOrMalformed}
	}

	var result SearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &FetchError{Instance: instance, Cause: fmt.Errorf("%w: %v", ErrEmptyOrMalformed, err)}
	}

	c.logger.WithFields(logrus.Fields{
		"instance": instance,
		"results":  len(result.Results),
	}).Debug("SearxNG response received")

	return &result, nil
}
