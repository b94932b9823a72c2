package rss

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/deusflow/newsrelay/internal/dedup"
	"github.com/deusflow/newsrelay/internal/news"
)

const userAgent = "newsrelay/1.0 (+https://github.com/deusflow/newsrelay)"

// FeedLister returns the feed URLs configured for a category.
type FeedLister interface {
	Feeds(category news.Category) []string
}

// Fetcher reads every feed of a category and returns entries not delivered yet.
type Fetcher struct {
	parser   *gofeed.Parser
	feeds    FeedLister
	checker  dedup.Checker
	maxItems int
	timeout  time.Duration
	log      *slog.Logger
}

func NewFetcher(feeds FeedLister, checker dedup.Checker, maxItems int, timeout time.Duration, log *slog.Logger) *Fetcher {
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	return &Fetcher{
		parser:   parser,
		feeds:    feeds,
		checker:  checker,
		maxItems: maxItems,
		timeout:  timeout,
		log:      log,
	}
}

func (f *Fetcher) Name() string { return "rss" }

// Fetch downloads and parses all feeds of the category. A feed that fails is
// logged and skipped; the returned error then wraps news.ErrSourceUnavailable
// while the items of the healthy feeds are still returned.
func (f *Fetcher) Fetch(ctx context.Context, category news.Category) ([]news.Item, error) {
	urls := f.feeds.Feeds(category)
	var items []news.Item
	var errs []error
	successCount := 0

	for _, url := range urls {
		feedItems, err := f.fetchFeed(ctx, url)
		if err != nil {
			f.log.Error("error fetching RSS feed", "feed", url, "category", category, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", url, err))
			continue // Log error, but don't stop
		}
		items = append(items, feedItems...)
		successCount++
		f.log.Info("fetched RSS feed", "feed", url, "new_items", len(feedItems))
	}

	f.log.Info("processed RSS feeds", "category", category, "ok", successCount, "total", len(urls))
	if len(errs) > 0 {
		return items, fmt.Errorf("%w: %w", news.ErrSourceUnavailable, errors.Join(errs...))
	}
	return items, nil
}

func (f *Fetcher) fetchFeed(ctx context.Context, url string) ([]news.Item, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	feed, err := f.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, err
	}

	entries := feed.Items
	if f.maxItems > 0 && len(entries) > f.maxItems {
		entries = entries[:f.maxItems]
	}

	out := make([]news.Item, 0, len(entries))
	for _, entry := range entries {
		item, err := news.FromFeedEntry(url, entry)
		if err != nil {
			f.log.Warn("skipping feed entry", "feed", url, "err", err)
			continue
		}
		if !f.checker.IsNew(item.ID) {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}
