package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/deusflow/newsrelay/internal/news"
)

// Category holds the static routing of one category.
type Category struct {
	ChannelID string   `yaml:"channel_id"`
	Feeds     []string `yaml:"feeds"`
	Query     string   `yaml:"query"`
	Color     int      `yaml:"color"`
}

// Categories maps every category to its routing.
type Categories map[news.Category]Category

// CategoriesFile is the YAML layout:
//
//	categories:
//	  ai_news:
//	    channel_id: "1342736251022872636"
//	    color: 0x3498db
//	    query: artificial intelligence news
//	    feeds:
//	      - https://...
type CategoriesFile struct {
	Categories map[string]Category `yaml:"categories"`
}

// DefaultCategories returns the built-in routing table.
func DefaultCategories() Categories {
	return Categories{
		news.AINews: {
			ChannelID: "1342736251022872636",
			Query:     "artificial intelligence news",
			Color:     0x3498db,
			Feeds: []string{
				"https://arxiv.org/rss/cs.AI",
				"https://blogs.nvidia.com/feed/",
				"https://www.reddit.com/r/artificial/.rss",
				"https://www.reddit.com/r/ArtificialInteligence/.rss",
				"https://www.wired.com/feed/tag/ai/latest/rss",
			},
		},
		news.HackathonNews: {
			ChannelID: "1341818303630413895",
			Query:     "AI hackathon news",
			Color:     0x2ecc71,
			Feeds:     []string{"https://devpost.com/feed"},
		},
		news.TechNews: {
			ChannelID: "1342767292320186470",
			Query:     "latest technology news",
			Color:     0xe74c3c,
			Feeds: []string{
				"https://techcrunch.com/feed/",
				"https://www.theverge.com/rss/index.xml",
				"https://www.pcmag.com/feeds/rss/latest",
				"https://www.reddit.com/r/technology/.rss",
				"https://www.reddit.com/r/TechNews/.rss",
			},
		},
		news.StartupNews: {
			ChannelID: "1342767356224602202",
			Query:     "startup news",
			Color:     0xf1c40f,
			Feeds:     []string{"https://news.crunchbase.com/feed/"},
		},
	}
}

// LoadCategories reads the routing table from a YAML file. A missing file
// yields the defaults; categories absent from the file keep their default
// entry. DISCORD_CHANNEL_<CATEGORY> overrides a channel id.
func LoadCategories(path string) (Categories, error) {
	cats := DefaultCategories()

	f, err := os.Open(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		defer f.Close()

		var file CategoriesFile
		if err := yaml.NewDecoder(f).Decode(&file); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		for name, c := range file.Categories {
			cat, err := news.ParseCategory(name)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			cats[cat] = c
		}
	}

	for _, cat := range news.All() {
		key := "DISCORD_CHANNEL_" + strings.ToUpper(string(cat))
		if id := os.Getenv(key); id != "" {
			c := cats[cat]
			c.ChannelID = id
			cats[cat] = c
		}
	}
	return cats, nil
}

// Colors extracts the embed color of every category.
func (c Categories) Colors() map[news.Category]int {
	out := make(map[news.Category]int, len(c))
	for cat, v := range c {
		out[cat] = v.Color
	}
	return out
}

// Channels extracts the channel id of every category.
func (c Categories) Channels() map[news.Category]string {
	out := make(map[news.Category]string, len(c))
	for cat, v := range c {
		out[cat] = v.ChannelID
	}
	return out
}

// Feeds returns the feed URLs of a category.
func (c Categories) Feeds(cat news.Category) []string {
	return c[cat].Feeds
}

// Query returns the search query of a category.
func (c Categories) Query(cat news.Category) string {
	return c[cat].Query
}
