// Package news holds the items that flow through a digest run.
package news

import (
	"strings"
	"time"
)

// FeedItem is one entry parsed from an RSS/Atom source.
type FeedItem struct {
	Title       string
	Summary     string
	Link        string
	PublishedAt time.Time
	Publisher   string
}

// Significance is the model's judgement of a story's global weight.
type Significance string

const (
	SignificanceHigh   Significance = "HIGH"
	SignificanceMedium Significance = "MEDIUM"
	SignificanceLow    Significance = "LOW"
)

// Significances lists the values accepted in the response schema.
func Significances() []string {
	return []string{string(SignificanceHigh), string(SignificanceMedium), string(SignificanceLow)}
}

// Qualifies reports whether a story with this rating belongs in the digest.
func (s Significance) Qualifies() bool {
	return Significance(strings.ToUpper(strings.TrimSpace(string(s)))) == SignificanceHigh
}

// NewsLink points at one publisher's coverage of a story.
type NewsLink struct {
	Publisher string `json:"publisher"`
	URL       string `json:"link"`
}

func (l NewsLink) Valid() bool {
	return strings.TrimSpace(l.Publisher) != "" && strings.TrimSpace(l.URL) != ""
}

// NewsItem is a story as grouped by the model: one headline, one or more links.
type NewsItem struct {
	Title        string       `json:"title"`
	Summary      string       `json:"summary"`
	Significance Significance `json:"significance,omitempty"`
	Links        []NewsLink   `json:"links"`
}

// Normalize drops invalid links and then items left without links. The
// result is never nil.
func Normalize(items []NewsItem) []NewsItem {
	out := make([]NewsItem, 0, len(items))
	for _, it := range items {
		links := make([]NewsLink, 0, len(it.Links))
		for _, l := range it.Links {
			if l.Valid() {
				links = append(links, NewsLink{
					Publisher: strings.TrimSpace(l.Publisher),
					URL:       strings.TrimSpace(l.URL),
				})
			}
		}
		if len(links) == 0 {
			continue
		}
		it.Links = links
		out = append(out, it)
	}
	return out
}
