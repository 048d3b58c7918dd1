// Package search coordinates failover across interchangeable SearxNG
// mirrors. Mirrors are redundant copies of one capability, so a failed
// mirror is skipped, never retried within a call.
package search

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/ecosearch/backend/internal/searxng"
	"github.com/sirupsen/logrus"
)

// ErrNoInstances is returned when the pool was built with an empty
// instance list.
var ErrNoInstances = errors.New("no searxng instances configured")

// AggregateError reports that every instance in the pool failed. It
// keeps the last individual failure for diagnostics.
type AggregateError struct {
	Attempts int
	Last     error
}

func (e *AggregateError) Error() string {
	return fmt.Sprintf("all %d searxng instances failed, last error: %v", e.Attempts, e.Last)
}

func (e *AggregateError) Unwrap() error { return e.Last }

// Fetcher is the single-instance query operation the pool drives.
type Fetcher interface {
	Search(ctx context.Context, instance, query string) (*searxng.SearchResponse, error)
}

// Pool holds the mirror list and a shuffle source. The list is
// read-only after construction and shared across query cycles; only
// the rand source needs locking.
type Pool struct {
	instances []string
	fetcher   Fetcher
	logger    *logrus.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPool creates a failover pool. rng fixes the shuffle permutation
// for tests; pass nil for time-seeded production behaviour. The
// shuffle only distributes load, any permutation is correct.
func NewPool(instances []string, fetcher Fetcher, rng *rand.Rand, logger *logrus.Logger) *Pool {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Pool{
		instances: instances,
		fetcher:   fetcher,
		logger:    logger,
		rng:       rng,
	}
}

// TryInstances shuffles the mirror list once, then walks it
// sequentially until one mirror yields a well-formed, non-empty result
// set. Sequential on purpose: hitting all mirrors at once would waste
// load on instances that would otherwise be skipped.
func (p *Pool) TryInstances(ctx context.Context, query string) (*searxng.SearchResponse, error) {
	if len(p.instances) == 0 {
		return nil, ErrNoInstances
	}

	shuffled := make([]string, len(p.instances))
	copy(shuffled, p.instances)
	p.mu.Lock()
	p.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	p.mu.Unlock()

	var lastErr error
	for _, instance := range shuffled {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := p.fetcher.Search(ctx, instance, query)
		if err != nil {
			p.logger.WithError(err).WithField("instance", instance).Warn("Instance failed, trying next")
			lastErr = err
			continue
		}

		if len(resp.Results) == 0 {
			p.logger.WithField("instance", instance).Warn("Instance returned zero results, trying next")
			lastErr = &searxng.FetchError{Instance: instance, Cause: errors.New("well-formed response with zero results")}
			continue
		}

		p.logger.WithFields(logrus.Fields{
			"instance": instance,
			"results":  len(resp.Results),
		}).Info("Fetched results from instance")
		return resp, nil
	}

	return nil, &AggregateError{Attempts: len(shuffled), Last: lastErr}
}
