package news

import (
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
	"google.golang.org/api/youtube/v3"
)

const (
	youtubeWatchURL = "https://www.youtube.com/watch?v="
	youtubeSource   = "YouTube"
	articlePrefix   = "google_"
)

// ArticleHit is one entry of a NewsAPI "everything" response.
type ArticleHit struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
	Source      struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"source"`
}

// FromFeedEntry builds an item from a parsed feed entry. The description is
// passed through untouched, HTML included.
func FromFeedEntry(feedURL string, entry *gofeed.Item) (Item, error) {
	if entry == nil {
		return Item{}, fmt.Errorf("%w: nil feed entry", ErrMalformedRecord)
	}
	guid := strings.TrimSpace(entry.GUID)
	if guid == "" {
		guid = strings.TrimSpace(entry.Link)
	}
	if guid == "" {
		return Item{}, fmt.Errorf("%w: feed entry without guid or link", ErrMalformedRecord)
	}
	if strings.TrimSpace(entry.Title) == "" {
		return Item{}, fmt.Errorf("%w: feed entry %s has no title", ErrMalformedRecord, guid)
	}

	return Item{
		ID:          feedURL + "_" + guid,
		Title:       entry.Title,
		Description: entry.Description,
		URL:         entry.Link,
		Source:      feedURL,
		Kind:        KindRSS,
	}, nil
}

// FromVideoHit builds an item from a YouTube search result.
//
// The raw video id is used as the item id with no source prefix, unlike feed
// and article ids. Changing it would change which items collide in the
// registry, so it is kept as is.
func FromVideoHit(hit *youtube.SearchResult) (Item, error) {
	if hit == nil || hit.Id == nil || hit.Id.VideoId == "" {
		return Item{}, fmt.Errorf("%w: search result without video id", ErrMalformedRecord)
	}
	if hit.Snippet == nil {
		return Item{}, fmt.Errorf("%w: video %s has no snippet", ErrMalformedRecord, hit.Id.VideoId)
	}

	videoID := hit.Id.VideoId
	item := Item{
		ID:          videoID,
		Title:       hit.Snippet.Title,
		Description: hit.Snippet.Description,
		URL:         youtubeWatchURL + videoID,
		Source:      youtubeSource,
		Kind:        KindVideo,
	}
	if t := hit.Snippet.Thumbnails; t != nil && t.Default != nil {
		item.Thumbnail = t.Default.Url
	}
	return item, nil
}

// FromArticleHit builds an item from a news search article.
func FromArticleHit(a ArticleHit) (Item, error) {
	if strings.TrimSpace(a.URL) == "" {
		return Item{}, fmt.Errorf("%w: article without url", ErrMalformedRecord)
	}
	if strings.TrimSpace(a.Title) == "" {
		return Item{}, fmt.Errorf("%w: article %s has no title", ErrMalformedRecord, a.URL)
	}

	return Item{
		ID:          articlePrefix + a.URL,
		Title:       a.Title,
		Description: a.Description,
		URL:         a.URL,
		Source:      a.Source.Name,
		Kind:        KindArticle,
	}, nil
}
