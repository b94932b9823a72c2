package summarizer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deusflow/newsrelay/internal/logger"
	"github.com/deusflow/newsrelay/internal/news"
)

type stubGenerator struct {
	text    string
	err     error
	prompts []string
}

func (s *stubGenerator) Name() string { return "stub" }

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.text, s.err
}

var batch = []news.Item{
	{ID: "a", Title: "Chip launch", Source: "Wire", URL: "https://example.com/chip", Description: "<p>New <b>chip</b> ships.</p>"},
	{ID: "b", Title: "Model release", Source: "YouTube", URL: "https://www.youtube.com/watch?v=b"},
}

func TestSummarizeBatch(t *testing.T) {
	gen := &stubGenerator{text: "## Tech News Digest\n- **Chips**: ..."}
	s, err := New(gen, "", logger.Discard())
	require.NoError(t, err)

	sum := s.SummarizeBatch(context.Background(), news.TechNews, batch)
	require.False(t, sum.Fallback)
	require.NoError(t, sum.Err)
	require.Equal(t, gen.text, sum.Text)

	require.Len(t, gen.prompts, 1, "one call per batch")
	prompt := gen.prompts[0]
	require.Contains(t, prompt, `"Tech News" channel`)
	require.Contains(t, prompt, "[1] Chip launch")
	require.Contains(t, prompt, "URL: https://example.com/chip")
	require.Contains(t, prompt, "Content: New chip ships.")
	require.Contains(t, prompt, "[2] Model release")
	require.Contains(t, prompt, "Source: YouTube")
	require.Contains(t, prompt, "4-5 sentence")
}

func TestSummarizeBatchFallbackOnError(t *testing.T) {
	gen := &stubGenerator{err: errors.New("quota exceeded")}
	s, err := New(gen, "", logger.Discard())
	require.NoError(t, err)

	sum := s.SummarizeBatch(context.Background(), news.AINews, batch)
	require.True(t, sum.Fallback)
	require.Equal(t, FallbackSummary, sum.Text)
	require.ErrorIs(t, sum.Err, ErrGeneration)
}

func TestSummarizeBatchFallbackOnEmpty(t *testing.T) {
	s, err := New(&stubGenerator{}, "", logger.Discard())
	require.NoError(t, err)

	sum := s.SummarizeBatch(context.Background(), news.AINews, batch)
	require.True(t, sum.Fallback)
	require.Equal(t, FallbackSummary, sum.Text)
}

func TestCustomTemplate(t *testing.T) {
	gen := &stubGenerator{text: "ok"}
	s, err := New(gen, "{{.Category}}:{{range .Items}} {{.Title}}{{end}}", logger.Discard())
	require.NoError(t, err)

	prompt, err := s.BuildPrompt(news.StartupNews, batch)
	require.NoError(t, err)
	require.Equal(t, "Startup News: Chip launch Model release", prompt)

	_, err = New(gen, "{{.Broken", logger.Discard())
	require.Error(t, err)
}
