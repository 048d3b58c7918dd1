// Package prompt serializes merged evidence into the grounding prompt.
// Pure and deterministic; the instruction wording is load-bearing for
// downstream citation parsing and must not drift casually.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ecosearch/backend/internal/models"
)

// ErrNoSources guards against building a grounding prompt with
// nothing to ground on.
var ErrNoSources = errors.New("cannot build prompt without sources")

// SystemPrompt is the fixed system message for the completion call.
const SystemPrompt = "You are an expert research assistant that provides detailed, well-cited answers. Always cite sources with [number] and provide comprehensive explanations."

const instructions = `Provide a comprehensive, detailed answer (400-600 words) that:
1. Directly answers the query in the opening
2. Provides deep analysis with multiple paragraphs
3. Includes specific data, numbers, and facts
4. Cites EVERY claim with [1], [2], etc.
5. Covers multiple perspectives if sources differ
6. Is well-structured with logical flow
7. Explains context and background
8. Only uses information from the provided sources

Answer:`

// Build composes the user prompt: the numbered evidence block in id
// order followed by the fixed instruction set.
func Build(query string, srcs []models.Source) (string, error) {
	if len(srcs) == 0 {
		return "", ErrNoSources
	}

	blocks := make([]string, 0, len(srcs))
	for _, s := range srcs {
		blocks = append(blocks, fmt.Sprintf("[%d] %s\n%s\n---", s.ID, s.Title, s.Content))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Research Query: %q\n\n", query)
	b.WriteString("Sources:\n")
	b.WriteString(strings.Join(blocks, "\n\n"))
	b.WriteString("\n\n")
	b.WriteString(instructions)

	return b.String(), nil
}
