package relay

import (
	"fmt"
	"time"

	"github.com/deusflow/newsrelay/internal/news"
)

// Message is one outbound digest for a channel.
type Message struct {
	Category    news.Category
	Title       string
	Description string
	Color       int
	Timestamp   time.Time
	Footer      string
	Thumbnail   string
}

// composeMessage wraps a batch summary with the category style. The first
// video thumbnail of the batch, if any, becomes the preview image and
// switches the footer to the YouTube label.
func composeMessage(category news.Category, summary string, color int, items []news.Item, now time.Time) Message {
	msg := Message{
		Category:    category,
		Title:       fmt.Sprintf("%s Digest", category.Title()),
		Description: summary,
		Color:       color,
		Timestamp:   now.UTC(),
		Footer:      fmt.Sprintf("News Bot - %s", category.Title()),
	}
	for _, it := range items {
		if it.HasThumbnail() {
			msg.Thumbnail = it.Thumbnail
			msg.Footer = fmt.Sprintf("YouTube - %s", category.Title())
			break
		}
	}
	return msg
}
