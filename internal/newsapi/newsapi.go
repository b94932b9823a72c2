package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/deusflow/newsrelay/internal/dedup"
	"github.com/deusflow/newsrelay/internal/news"
)

const everythingPath = "/v2/everything"

// QueryLister returns the search query configured for a category.
type QueryLister interface {
	Query(category news.Category) string
}

// Response is the NewsAPI "everything" payload.
type Response struct {
	Status       string            `json:"status"`
	TotalResults int               `json:"totalResults"`
	Articles     []news.ArticleHit `json:"articles"`
	Code         string            `json:"code,omitempty"`
	Message      string            `json:"message,omitempty"`
}

// Fetcher searches NewsAPI for the newest articles of a category.
type Fetcher struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	queries    QueryLister
	checker    dedup.Checker
	maxResults int
	log        *slog.Logger
}

func NewFetcher(baseURL, apiKey string, queries QueryLister, checker dedup.Checker,
	maxResults int, timeout time.Duration, log *slog.Logger) *Fetcher {
	return &Fetcher{
		client:     &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		queries:    queries,
		checker:    checker,
		maxResults: maxResults,
		log:        log,
	}
}

func (f *Fetcher) Name() string { return "newsapi" }

// Fetch requests articles sorted by publish date and keeps the first
// maxResults of them.
func (f *Fetcher) Fetch(ctx context.Context, category news.Category) ([]news.Item, error) {
	if f.apiKey == "" {
		f.log.Warn("News API key not found", "category", category)
		return nil, fmt.Errorf("newsapi: %w", news.ErrMissingCredential)
	}

	resp, err := f.search(ctx, f.queries.Query(category))
	if err != nil {
		f.log.Error("error fetching news articles", "category", category, "err", err)
		return nil, fmt.Errorf("%w: newsapi: %w", news.ErrSourceUnavailable, err)
	}

	articles := resp.Articles
	if f.maxResults > 0 && len(articles) > f.maxResults {
		articles = articles[:f.maxResults]
	}

	var items []news.Item
	for _, a := range articles {
		item, err := news.FromArticleHit(a)
		if err != nil {
			f.log.Warn("skipping article", "err", err)
			continue
		}
		if !f.checker.IsNew(item.ID) {
			continue
		}
		items = append(items, item)
	}

	f.log.Info("fetched news articles", "category", category, "new_items", len(items))
	return items, nil
}

func (f *Fetcher) search(ctx context.Context, query string) (*Response, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("sortBy", "publishedAt")
	params.Set("pageSize", strconv.Itoa(f.maxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+everythingPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-Api-Key", f.apiKey)
	req.Header.Set("User-Agent", "newsrelay/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if out.Status != "" && out.Status != "ok" {
		return nil, fmt.Errorf("API error %s: %s", out.Code, out.Message)
	}
	return &out, nil
}
