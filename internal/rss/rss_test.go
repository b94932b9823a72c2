package rss

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/deusflow/newsrelay/internal/dedup"
	"github.com/deusflow/newsrelay/internal/logger"
	"github.com/deusflow/newsrelay/internal/news"
)

type staticFeeds map[news.Category][]string

func (s staticFeeds) Feeds(c news.Category) []string { return s[c] }

func rssDoc(guids ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><rss version="2.0"><channel><title>t</title>`)
	for _, g := range guids {
		fmt.Fprintf(&b, `<item><guid>%s</guid><title>Title %s</title><link>https://example.com/%s</link><description>&lt;p&gt;desc %s&lt;/p&gt;</description></item>`, g, g, g, g)
	}
	b.WriteString(`</channel></rss>`)
	return b.String()
}

func newFeedServer(t *testing.T, feeds map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := feeds[r.URL.Path]
		if !ok {
			http.Error(w, "gone", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchNormalizesAndCaps(t *testing.T) {
	srv := newFeedServer(t, map[string]string{"/a": rssDoc("1", "2", "3")})
	feedURL := srv.URL + "/a"
	f := NewFetcher(staticFeeds{news.TechNews: {feedURL}}, dedup.NewRegistry(), 2, time.Second, logger.Discard())

	items, err := f.Fetch(context.Background(), news.TechNews)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, feedURL+"_1", items[0].ID)
	require.Equal(t, "https://example.com/1", items[0].URL)
	require.Equal(t, "<p>desc 1</p>", items[0].Description)
	require.Equal(t, feedURL, items[0].Source)
}

func TestFetchSkipsProcessed(t *testing.T) {
	srv := newFeedServer(t, map[string]string{"/a": rssDoc("1", "2")})
	feedURL := srv.URL + "/a"
	reg := dedup.NewRegistry()
	reg.MarkProcessed(feedURL + "_1")
	f := NewFetcher(staticFeeds{news.AINews: {feedURL}}, reg, 10, time.Second, logger.Discard())

	items, err := f.Fetch(context.Background(), news.AINews)
	require.NoError(t, err)
	require.Equal(t, []string{feedURL + "_2"}, news.IDs(items))
}

func TestFetchSkipsBrokenFeed(t *testing.T) {
	srv := newFeedServer(t, map[string]string{
		"/good":    rssDoc("1"),
		"/garbage": "this is not xml",
	})
	feeds := staticFeeds{news.AINews: {srv.URL + "/missing", srv.URL + "/garbage", srv.URL + "/good"}}
	f := NewFetcher(feeds, dedup.NewRegistry(), 10, time.Second, logger.Discard())

	items, err := f.Fetch(context.Background(), news.AINews)
	require.ErrorIs(t, err, news.ErrSourceUnavailable)
	require.Equal(t, []string{srv.URL + "/good_1"}, news.IDs(items))
}

func TestFetchNoFeeds(t *testing.T) {
	f := NewFetcher(staticFeeds{}, dedup.NewRegistry(), 10, time.Second, logger.Discard())

	items, err := f.Fetch(context.Background(), news.StartupNews)
	require.NoError(t, err)
	require.Empty(t, items)
	require.Equal(t, "rss", f.Name())
}
