package sources

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CleanText collapses whitespace, including non-breaking spaces.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}

// StripHTML returns the visible text of an HTML fragment. Plain text passes through
// CleanText only.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return CleanText(s)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return CleanText(s)
	}

	var b strings.Builder
	collectText(doc.Selection, &b)
	return CleanText(b.String())
}

func collectText(s *goquery.Selection, b *strings.Builder) {
	s.Contents().Each(func(_ int, node *goquery.Selection) {
		switch goquery.NodeName(node) {
		case "#text":
			b.WriteString(node.Text())
			b.WriteByte(' ')
		case "script", "style", "head":
		default:
			collectText(node, b)
		}
	})
}

// Truncate cuts s to at most limit runes. A non-positive limit disables truncation.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
