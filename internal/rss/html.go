package rss

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

// CleanHTMLText reduces an HTML fragment to plain text: tags dropped,
// entities decoded, all whitespace (NBSP included) collapsed to single spaces,
// composed to NFC.
func CleanHTMLText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	text := s
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
		doc.Find("script, style").Remove()
		text = doc.Text()
	}
	return norm.NFC.String(strings.Join(strings.Fields(text), " "))
}
