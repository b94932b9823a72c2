package news

import "errors"

// Kind tells which source family produced an item.
type Kind string

const (
	KindRSS     Kind = "rss"
	KindVideo   Kind = "video"
	KindArticle Kind = "article"
)

var (
	// ErrMalformedRecord is returned when a raw source record lacks a field
	// required to build an Item.
	ErrMalformedRecord = errors.New("malformed source record")
	// ErrMissingCredential means a source cannot be queried because its API key is not configured.
	ErrMissingCredential = errors.New("missing credential")
	// ErrSourceUnavailable wraps fetch and parse failures of a single source.
	ErrSourceUnavailable = errors.New("source unavailable")
)

// Item is the uniform record every source is normalized into.
// ID is the dedup key and must be unique across sources and categories.
type Item struct {
	ID          string
	Title       string
	Description string
	URL         string
	Source      string
	Thumbnail   string // only set for videos
	Kind        Kind
}

// HasThumbnail reports whether the item carries a preview image.
func (i Item) HasThumbnail() bool {
	return i.Thumbnail != ""
}

// IDs returns the identifiers of items in order.
func IDs(items []Item) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids
}
