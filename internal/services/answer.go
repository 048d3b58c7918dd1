// backend/internal/services/answer.go
package services

import (
	"context"

	"github.com/ecosearch/backend/internal/citations"
	"github.com/ecosearch/backend/internal/llm"
	"github.com/ecosearch/backend/internal/models"
	"github.com/ecosearch/backend/internal/prompt"
	"github.com/sirupsen/logrus"
)

// Aggregator produces the merged evidence set for a query.
type Aggregator interface {
	Aggregate(ctx context.Context, query string) (*models.Evidence, error)
}

// Enricher optionally expands thin source contents before prompting.
type Enricher interface {
	EnrichSources(ctx context.Context, srcs []models.Source)
}

// AnswerService runs one evidence cycle: aggregate, prompt, complete,
// bind. Each call owns its source list and id space; nothing is
// shared between concurrent cycles.
type AnswerService struct {
	aggregator Aggregator
	completer  llm.Completer
	enricher   Enricher
	logger     *logrus.Logger
}

func NewAnswerService(
	aggregator Aggregator,
	completer llm.Completer,
	enricher Enricher,
	logger *logrus.Logger,
) *AnswerService {
	return &AnswerService{
		aggregator: aggregator,
		completer:  completer,
		enricher:   enricher,
		logger:     logger,
	}
}

// Answer resolves a query into a cited, bound answer. Errors come
// through untranslated so the handler can map aggregate.ErrNoEvidence,
// *search.AggregateError and *llm.CompletionError to distinct
// user-visible outcomes.
func (s *AnswerService) Answer(ctx context.Context, query string) (*models.SearchResponse, error) {
	s.logger.WithField("query", query).Debug("Starting evidence cycle")

	evidence, err := s.aggregator.Aggregate(ctx, query)
	if err != nil {
		return nil, err
	}

	if s.enricher != nil {
		s.enricher.EnrichSources(ctx, evidence.Sources)
	}

	userPrompt, err := prompt.Build(query, evidence.Sources)
	if err != nil {
		// Unreachable when the aggregator honors its contract; kept as
		// a guard because prompting without evidence must never happen.
		return nil, err
	}

	answer, err := s.completer.Complete(ctx, prompt.SystemPrompt, userPrompt)
	if err != nil {
		s.logger.WithError(err).Error("Completion failed")
		return nil, err
	}

	segments := citations.Bind(answer, evidence.Sources)

	s.logger.WithFields(logrus.Fields{
		"query":        query,
		"sources":      len(evidence.Sources),
		"answer_chars": len(answer),
	}).Info("Evidence cycle completed")

	return &models.SearchResponse{
		Answer:   answer,
		Segments: segments,
		Sources:  evidence.Sources,
		Images:   evidence.Images,
		Videos:   evidence.Videos,
	}, nil
}
