package youtube

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/deusflow/newsrelay/internal/dedup"
	"github.com/deusflow/newsrelay/internal/news"
)

// QueryLister returns the search query configured for a category.
type QueryLister interface {
	Query(category news.Category) string
}

// Fetcher searches YouTube for the newest video matching a category query.
type Fetcher struct {
	service    *youtube.Service
	queries    QueryLister
	checker    dedup.Checker
	maxResults int64
	timeout    time.Duration
	log        *slog.Logger
}

// NewFetcher builds a fetcher. With an empty apiKey the fetcher is still
// usable but every Fetch reports news.ErrMissingCredential.
func NewFetcher(ctx context.Context, apiKey string, queries QueryLister, checker dedup.Checker,
	maxResults int, timeout time.Duration, log *slog.Logger, opts ...option.ClientOption) (*Fetcher, error) {
	f := &Fetcher{
		queries:    queries,
		checker:    checker,
		maxResults: int64(maxResults),
		timeout:    timeout,
		log:        log,
	}
	if apiKey == "" {
		return f, nil
	}

	svc, err := youtube.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube client: %w", err)
	}
	f.service = svc
	return f, nil
}

func (f *Fetcher) Name() string { return "youtube" }

// Fetch runs one search ordered by publish date. Failures yield no items and
// an error wrapping news.ErrMissingCredential or news.ErrSourceUnavailable.
func (f *Fetcher) Fetch(ctx context.Context, category news.Category) ([]news.Item, error) {
	if f.service == nil {
		f.log.Warn("YouTube API key not found", "category", category)
		return nil, fmt.Errorf("youtube: %w", news.ErrMissingCredential)
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	resp, err := f.service.Search.List([]string{"snippet"}).
		Q(f.queries.Query(category)).
		Type("video").
		Order("date").
		MaxResults(f.maxResults).
		Context(ctx).
		Do()
	if err != nil {
		f.log.Error("error fetching YouTube content", "category", category, "err", err)
		return nil, fmt.Errorf("%w: youtube search: %w", news.ErrSourceUnavailable, err)
	}

	var items []news.Item
	for _, hit := range resp.Items {
		item, err := news.FromVideoHit(hit)
		if err != nil {
			f.log.Warn("skipping search result", "err", err)
			continue
		}
		if !f.checker.IsNew(item.ID) {
			continue
		}
		items = append(items, item)
	}

	f.log.Info("fetched YouTube videos", "category", category, "new_items", len(items))
	return items, nil
}
