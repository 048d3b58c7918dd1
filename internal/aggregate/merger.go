// Package aggregate fans a query out across the web failover pool and
// the specialized fetchers, then folds the raw results into one
// id-stamped evidence set.
package aggregate

import (
	"context"
	"errors"
	"sync"

	"github.com/ecosearch/backend/internal/models"
	"github.com/ecosearch/backend/internal/searxng"
	"github.com/ecosearch/backend/internal/sources"
	"github.com/sirupsen/logrus"
)

// ErrNoEvidence is the terminal outcome of a cycle that produced zero
// textual sources while at least one channel answered. Callers must
// not build a prompt from it.
var ErrNoEvidence = errors.New("no usable evidence found for query")

const snippetLength = 200

// WebSearcher is the failover pool as seen by the merger.
type WebSearcher interface {
	TryInstances(ctx context.Context, query string) (*searxng.SearchResponse, error)
}

// Limits are the per-channel truncation and filter knobs. The exact
// counts are tunable configuration, not correctness requirements.
type Limits struct {
	MaxWebSources     int
	MaxPerSpecialized int
	MaxImages         int
	MaxVideos         int
	MinContentLength  int
}

// Merger owns source-id assignment for a query cycle. Each call to
// Aggregate builds its own id space; nothing is shared between cycles.
type Merger struct {
	web         WebSearcher
	specialized []sources.Fetcher
	limits      Limits
	logger      *logrus.Logger
}

// NewMerger creates a merger. The order of the specialized fetchers is
// the channel precedence: their sources are numbered before any web
// source, in this order.
func NewMerger(web WebSearcher, specialized []sources.Fetcher, limits Limits, logger *logrus.Logger) *Merger {
	return &Merger{
		web:         web,
		specialized: specialized,
		limits:      limits,
		logger:      logger,
	}
}

type specializedOutcome struct {
	results []sources.Result
	err     error
}

// Aggregate runs one fan-out/fan-in pass and returns the merged,
// numbered evidence set. Specialized channels are best-effort; only
// the combination "zero textual sources anywhere" fails the cycle.
func (m *Merger) Aggregate(ctx context.Context, query string) (*models.Evidence, error) {
	var wg sync.WaitGroup

	var webResp *searxng.SearchResponse
	var webErr error
	outcomes := make([]specializedOutcome, len(m.specialized))

	wg.Add(1)
	go func() {
		defer wg.Done()
		webResp, webErr = m.web.TryInstances(ctx, query)
	}()

	for i, fetcher := range m.specialized {
		wg.Add(1)
		go func(i int, fetcher sources.Fetcher) {
			defer wg.Done()
			results, err := fetcher.Fetch(ctx, query, m.limits.MaxPerSpecialized)
			if err != nil {
				m.logger.WithError(err).WithField("source", fetcher.Name()).Warn("Specialized fetch failed, degrading to empty")
				outcomes[i] = specializedOutcome{err: err}
				return
			}
			outcomes[i] = specializedOutcome{results: results}
		}(i, fetcher)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	evidence := &models.Evidence{
		Sources: []models.Source{},
		Images:  []models.ImageResult{},
		Videos:  []models.VideoResult{},
	}
	seen := make(map[string]bool)

	// Specialized channels first, in registration order.
	anySpecializedOK := false
	for i, outcome := range outcomes {
		if outcome.err != nil {
			continue
		}
		anySpecializedOK = true
		origin := m.specialized[i].Name()
		count := 0
		for _, r := range outcome.results {
			if count >= m.limits.MaxPerSpecialized {
				break
			}
			if r.URL == "" || r.Content == "" || seen[r.URL] {
				continue
			}
			seen[r.URL] = true
			evidence.Sources = append(evidence.Sources, models.Source{
				Title:   r.Title,
				URL:     r.URL,
				Content: r.Content,
				Snippet: makeSnippet(r.Content),
				Origin:  origin,
			})
			count++
		}
	}

	// Then the generic web channel, classified once at ingestion.
	if webErr != nil {
		m.logger.WithError(webErr).Warn("Web channel contributed nothing")
	} else {
		m.mergeWebResults(evidence, webResp.Results, seen)
	}

	if len(evidence.Sources) == 0 {
		// Distinguish "everything was down" from "everything answered
		// with nothing usable".
		if webErr != nil && !anySpecializedOK {
			return nil, webErr
		}
		return nil, ErrNoEvidence
	}

	// IDs are dense, 1-based, and final from here on: the prompt
	// builder and citation binder both rely on this numbering.
	for i := range evidence.Sources {
		evidence.Sources[i].ID = i + 1
	}

	m.logger.WithFields(logrus.Fields{
		"query":   query,
		"sources": len(evidence.Sources),
		"images":  len(evidence.Images),
		"videos":  len(evidence.Videos),
	}).Info("Evidence aggregation completed")

	return evidence, nil
}

func (m *Merger) mergeWebResults(evidence *models.Evidence, results []searxng.Result, seen map[string]bool) {
	webSources := 0
	for _, r := range results {
		if r.URL == "" || seen[r.URL] {
			continue
		}

		switch r.Kind() {
		case searxng.KindVideo:
			if len(evidence.Videos) >= m.limits.MaxVideos {
				continue
			}
			seen[r.URL] = true
			evidence.Videos = append(evidence.Videos, models.VideoResult{
				URL:   r.URL,
				Title: r.Title,
			})
		case searxng.KindImage:
			if len(evidence.Images) >= m.limits.MaxImages {
				continue
			}
			seen[r.URL] = true
			evidence.Images = append(evidence.Images, models.ImageResult{
				URL:    r.URL,
				ImgSrc: r.ImgSrc,
				Title:  r.Title,
			})
		default:
			if webSources >= m.limits.MaxWebSources {
				continue
			}
			if len(r.Content) <= m.limits.MinContentLength {
				continue
			}
			seen[r.URL] = true
			title := r.Title
			if title == "" {
				title = r.URL
			}
			origin := "web"
			if r.Engine != "" {
				origin = "web/" + r.Engine
			}
			evidence.Sources = append(evidence.Sources, models.Source{
				Title:   title,
				URL:     r.URL,
				Content: r.Content,
				Snippet: makeSnippet(r.Content),
				Origin:  origin,
			})
			webSources++
		}
	}
}

func makeSnippet(content string) string {
	if len(content) <= snippetLength {
		return content
	}
	return content[:snippetLength] + "..."
}
