package newsapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/deusflow/newsrelay/internal/dedup"
	"github.com/deusflow/newsrelay/internal/logger"
	"github.com/deusflow/newsrelay/internal/news"
)

type staticQueries map[news.Category]string

func (s staticQueries) Query(c news.Category) string { return s[c] }

const everythingResponse = `{
  "status": "ok",
  "totalResults": 6,
  "articles": [
    {"source": {"id": null, "name": "Wire A"}, "title": "One", "description": "d1", "url": "https://a.example.com/1"},
    {"source": {"id": null, "name": "Wire B"}, "title": "Two", "description": "d2", "url": "https://b.example.com/2"},
    {"source": {"id": null, "name": "Wire C"}, "title": "", "description": "no title", "url": "https://c.example.com/3"},
    {"source": {"id": null, "name": "Wire D"}, "title": "Four", "description": "d4", "url": "https://d.example.com/4"},
    {"source": {"id": null, "name": "Wire E"}, "title": "Five", "description": "d5", "url": "https://e.example.com/5"},
    {"source": {"id": null, "name": "Wire F"}, "title": "Six", "description": "d6", "url": "https://f.example.com/6"}
  ]
}`

func TestFetchArticles(t *testing.T) {
	var gotKey, gotSort, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/everything", r.URL.Path)
		gotKey = r.Header.Get("X-Api-Key")
		gotSort = r.URL.Query().Get("sortBy")
		gotQuery = r.URL.Query().Get("q")
		_, _ = w.Write([]byte(everythingResponse))
	}))
	defer srv.Close()

	reg := dedup.NewRegistry()
	reg.MarkProcessed("google_https://b.example.com/2")
	f := NewFetcher(srv.URL, "secret", staticQueries{news.TechNews: "latest technology news"}, reg, 5, time.Second, logger.Discard())

	items, err := f.Fetch(context.Background(), news.TechNews)
	require.NoError(t, err)
	require.Equal(t, "secret", gotKey)
	require.Equal(t, "publishedAt", gotSort)
	require.Equal(t, "latest technology news", gotQuery)

	// first five articles only; the processed one and the untitled one are dropped
	require.Equal(t, []string{
		"google_https://a.example.com/1",
		"google_https://d.example.com/4",
		"google_https://e.example.com/5",
	}, news.IDs(items))
	require.Equal(t, "Wire A", items[0].Source)
}

func TestFetchNonOKIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status":"error","code":"apiKeyInvalid","message":"bad key"}`))
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, "bad", staticQueries{}, dedup.NewRegistry(), 5, time.Second, logger.Discard())

	items, err := f.Fetch(context.Background(), news.AINews)
	require.ErrorIs(t, err, news.ErrSourceUnavailable)
	require.Empty(t, items)
}

func TestFetchWithoutKey(t *testing.T) {
	f := NewFetcher("http://unused", "", staticQueries{}, dedup.NewRegistry(), 5, time.Second, logger.Discard())

	items, err := f.Fetch(context.Background(), news.AINews)
	require.ErrorIs(t, err, news.ErrMissingCredential)
	require.Empty(t, items)
	require.Equal(t, "newsapi", f.Name())
}
