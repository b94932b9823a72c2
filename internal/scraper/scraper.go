package scraper

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// PlainText turns an HTML fragment (feed descriptions, snippets) into
// readable text: tags dropped, block elements on their own lines, whitespace
// collapsed. Loose text between blocks is kept.
// Input that fails to parse is returned with whitespace collapsed only.
func PlainText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	if !strings.Contains(fragment, "<") {
		return cleanContent(fragment)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return cleanContent(fragment)
	}

	doc.Find("script, style, noscript").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, div, li, tr, h1, h2, h3, h4, h5, h6, blockquote, pre").Each(func(i int, s *goquery.Selection) {
		s.PrependHtml("\n")
		s.AppendHtml("\n")
	})

	return cleanContent(doc.Text())
}

// Truncate cuts s to at most max runes, preferring the end of a sentence.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	trimmed := string(runes[:max])
	if idx := strings.LastIndex(trimmed, ". "); idx > len(trimmed)/2 {
		return trimmed[:idx+1]
	}
	return strings.TrimSpace(trimmed) + "..."
}

func cleanContent(content string) string {
	lines := strings.Split(content, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
