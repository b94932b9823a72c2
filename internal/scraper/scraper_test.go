package scraper

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "   ", ""},
		{"plain", "already   plain\n\n text", "already plain\ntext"},
		{"paragraphs", "<p>First <b>bold</b> line.</p><p>Second   line.</p>", "First bold line.\nSecond line."},
		{"script dropped", "<div>Hello<script>alert(1)</script> world</div>", "Hello world"},
		{"list", "<ul><li>one</li><li>two</li></ul>", "one\ntwo"},
		{"mixed inline and block",
			`OpenAI released a new model today. <a href="x">link</a><p>Read more below.</p>`,
			"OpenAI released a new model today. link\nRead more below."},
		{"line breaks", "first<br>second<br/>third", "first\nsecond\nthird"},
		{"nested list paragraphs", "<ul><li><p>one</p></li><li>two</li></ul>", "one\ntwo"},
		{"reddit style", `<table><tr><td>submitted by <a href="/u/x">/u/x</a></td></tr></table>`, "submitted by /u/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlainText(tt.in))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "no limit", Truncate("no limit", 0))

	long := "First sentence here. Second sentence is longer than the limit allows."
	assert.Equal(t, "First sentence here.", Truncate(long, 30))

	// The sentence break sits before the middle of the kept runes, so the
	// cut falls on the rune limit instead.
	cyrillic := "Короткое. " + strings.Repeat("я", 30)
	assert.Equal(t, "Короткое. "+strings.Repeat("я", 10)+"...", Truncate(cyrillic, 20))

	noStop := strings.Repeat("a", 20)
	assert.Equal(t, strings.Repeat("a", 10)+"...", Truncate(noStop, 10))
}
