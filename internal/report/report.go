// Package report turns filtered stories into the Telegram digest text.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/deusflow/headlines/internal/markdown"
	"github.com/deusflow/headlines/internal/news"
)

// Partition splits grouped stories into those corroborated by at least
// minCount links and the rest, which need a significance check. Both keep
// the input order.
func Partition(items []news.NewsItem, minCount int) (eligible, candidates []news.NewsItem) {
	for _, it := range items {
		if len(it.Links) >= minCount {
			eligible = append(eligible, it)
		} else {
			candidates = append(candidates, it)
		}
	}
	return eligible, candidates
}

// Merge appends the approved candidates after the eligible stories.
func Merge(eligible, approved []news.NewsItem) []news.NewsItem {
	out := make([]news.NewsItem, 0, len(eligible)+len(approved))
	out = append(out, eligible...)
	return append(out, approved...)
}

// TimeOfDay names the part of the day an hour (0-23) falls in.
func TimeOfDay(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "Morning"
	case hour == 12:
		return "Noon"
	case hour > 12 && hour < 17:
		return "Afternoon"
	case hour >= 17 && hour < 21:
		return "Evening"
	default:
		return "Night"
	}
}

// Header is the bold first line, e.g. "Daily News - 2025-03-10 (Morning)".
func Header(label string, at time.Time) string {
	text := fmt.Sprintf("%s - %s (%s)", label, at.Format("2006-01-02"), TimeOfDay(at.Hour()))
	return "*" + markdown.EscapeMarkdownV2(text) + "*"
}

// FormatItem renders one story: title, summary, then a link per publisher.
func FormatItem(item news.NewsItem) string {
	var b strings.Builder
	b.WriteString("*__")
	b.WriteString(markdown.EscapeMarkdownV2(strings.Join(strings.Fields(item.Title), " ")))
	b.WriteString("__*")
	if s := strings.TrimSpace(item.Summary); s != "" {
		b.WriteString("\n")
		b.WriteString(markdown.EscapeMarkdownV2(s))
	}
	for _, l := range item.Links {
		b.WriteString("\n")
		b.WriteString(markdown.Link(l.Publisher, l.URL))
	}
	return b.String()
}

// Format builds the whole digest; at should already be in the report zone.
func Format(label string, at time.Time, items []news.NewsItem) string {
	parts := make([]string, 0, len(items)+1)
	parts = append(parts, Header(label, at))
	for _, it := range items {
		parts = append(parts, FormatItem(it))
	}
	return strings.Join(parts, "\n\n")
}
