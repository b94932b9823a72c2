package summarizer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"text/template"

	"github.com/deusflow/newsrelay/internal/news"
	"github.com/deusflow/newsrelay/internal/scraper"
)

// FallbackSummary is posted when the generation call fails or returns nothing.
const FallbackSummary = "⚠️ Summary generation is unavailable right now. Please check the original sources for this batch."

// maxDescriptionRunes bounds each item's description inside the prompt.
const maxDescriptionRunes = 1000

// ErrGeneration marks a failed or empty generation call.
var ErrGeneration = errors.New("generation failure")

// Generator is the external text-generation API.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// Summary is the outcome of one batch. Text is always displayable; Err is set
// when Text is the fallback.
type Summary struct {
	Text     string
	Fallback bool
	Err      error
}

type Summarizer struct {
	generator Generator
	prompt    *template.Template
	log       *slog.Logger
}

// New builds a summarizer around a generator. An empty templateText selects
// DefaultPrompt.
func New(generator Generator, templateText string, log *slog.Logger) (*Summarizer, error) {
	if templateText == "" {
		templateText = DefaultPrompt
	}
	tmpl, err := template.New("prompt").Parse(templateText)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template: %w", err)
	}
	return &Summarizer{generator: generator, prompt: tmpl, log: log}, nil
}

// LoadTemplate reads a prompt template file; an empty path yields "".
func LoadTemplate(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read prompt template: %w", err)
	}
	return string(data), nil
}

// SummarizeBatch produces one digest for all items of a category. It never
// fails: generation errors and empty answers become FallbackSummary.
func (s *Summarizer) SummarizeBatch(ctx context.Context, category news.Category, items []news.Item) Summary {
	prompt, err := s.BuildPrompt(category, items)
	if err != nil {
		s.log.Error("error building prompt", "category", category, "err", err)
		return fallback(fmt.Errorf("%w: %w", ErrGeneration, err))
	}

	text, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.log.Error("error summarizing batch", "category", category, "provider", s.generator.Name(), "err", err)
		return fallback(fmt.Errorf("%w: %w", ErrGeneration, err))
	}
	if text == "" {
		s.log.Warn("empty response from generator", "category", category, "provider", s.generator.Name())
		return fallback(fmt.Errorf("%w: empty response", ErrGeneration))
	}

	s.log.Info("summarized batch", "category", category, "items", len(items), "chars", len(text))
	return Summary{Text: text}
}

func fallback(err error) Summary {
	return Summary{Text: FallbackSummary, Fallback: true, Err: err}
}

type promptItem struct {
	Index       int
	Title       string
	Source      string
	URL         string
	Description string
}

type promptData struct {
	Category string
	Items    []promptItem
}

// BuildPrompt renders the prompt template for a batch.
func (s *Summarizer) BuildPrompt(category news.Category, items []news.Item) (string, error) {
	data := promptData{Category: category.Title()}
	for i, it := range items {
		data.Items = append(data.Items, promptItem{
			Index:       i + 1,
			Title:       it.Title,
			Source:      it.Source,
			URL:         it.URL,
			Description: scraper.Truncate(scraper.PlainText(it.Description), maxDescriptionRunes),
		})
	}

	var buf bytes.Buffer
	if err := s.prompt.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
