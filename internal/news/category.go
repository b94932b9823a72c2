package news

import (
	"fmt"
	"strings"
)

// Category is one of the fixed topic buckets, each routed to its own channel.
type Category string

const (
	AINews        Category = "ai_news"
	HackathonNews Category = "hackathon_news"
	TechNews      Category = "tech_news"
	StartupNews   Category = "startup_news"
)

var order = []Category{AINews, HackathonNews, TechNews, StartupNews}

// All returns every category in processing order.
func All() []Category {
	out := make([]Category, len(order))
	copy(out, order)
	return out
}

// ParseCategory validates a raw category name.
func ParseCategory(raw string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range order {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", raw)
}

// Ordered returns the given categories sorted into processing order with
// duplicates removed. Unknown values are dropped.
func Ordered(categories []Category) []Category {
	want := make(map[Category]bool, len(categories))
	for _, c := range categories {
		want[c] = true
	}
	out := make([]Category, 0, len(categories))
	for _, c := range order {
		if want[c] {
			out = append(out, c)
		}
	}
	return out
}

// Title turns "ai_news" into "Ai News".
func (c Category) Title() string {
	words := strings.Split(string(c), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

func (c Category) String() string {
	return string(c)
}
