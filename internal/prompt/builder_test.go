package prompt

import (
	"strings"
	"testing"

	"github.com/ecosearch/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	srcs := []models.Source{
		{ID: 1, Title: "Paris", URL: "https://en.wikipedia.org/wiki/Paris", Content: "Paris is the capital of France."},
		{ID: 2, Title: "France", URL: "https://en.wikipedia.org/wiki/France", Content: "France is a country in Europe."},
	}

	out, err := Build("capital of France", srcs)
	require.NoError(t, err)

	assert.Contains(t, out, `Research Query: "capital of France"`)
	assert.Contains(t, out, "[1] Paris\nParis is the capital of France.\n---")
	assert.Contains(t, out, "[2] France\nFrance is a country in Europe.\n---")
	assert.True(t, strings.HasSuffix(out, "Answer:"))

	// Evidence blocks appear in id order, before the instructions.
	assert.Less(t, strings.Index(out, "[1] Paris"), strings.Index(out, "[2] France"))
	assert.Less(t, strings.Index(out, "[2] France"), strings.Index(out, "Cites EVERY claim"))
}

func TestBuildNoSources(t *testing.T) {
	_, err := Build("anything", nil)
	assert.ErrorIs(t, err, ErrNoSources)

	_, err = Build("anything", []models.Source{})
	assert.ErrorIs(t, err, ErrNoSources)
}

func TestBuildIsDeterministic(t *testing.T) {
	srcs := []models.Source{
		{ID: 1, Title: "A", Content: "content a"},
		{ID: 2, Title: "B", Content: "content b"},
	}

	first, err := Build("query", srcs)
	require.NoError(t, err)
	second, err := Build("query", srcs)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
