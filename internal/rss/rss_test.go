package rss

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/deusflow/headlines/internal/retry"
)

func rssDoc(title string, items ...string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>` + title + `</title><link>https://example.com</link>
` + strings.Join(items, "\n") + `
</channel></rss>`
}

func rssItem(title, link string, published time.Time) string {
	return fmt.Sprintf(`<item><title>%s</title><link>%s</link><description><![CDATA[<p>About&nbsp;%s</p>]]></description><pubDate>%s</pubDate></item>`,
		title, link, title, published.Format(time.RFC1123Z))
}

func testCollector(client *http.Client, maxItems int) *Collector {
	return NewCollector(client, Options{
		MaxItems:    maxItems,
		Concurrency: 2,
		Timeout:     2 * time.Second,
		Retry:       retry.RetryConfig{MaxAttempts: 3, Delay: time.Millisecond},
	})
}

var since = time.Date(2025, 3, 9, 20, 0, 0, 0, time.UTC)

func TestCollect_FiltersByWindow(t *testing.T) {
	var ua atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua.Store(r.Header.Get("User-Agent"))
		fmt.Fprint(w, rssDoc("World Wire",
			rssItem("Fresh", "https://example.com/fresh", since.Add(time.Hour)),
			rssItem("Boundary", "https://example.com/boundary", since),
			rssItem("Stale", "https://example.com/stale", since.Add(-time.Hour)),
		))
	}))
	defer srv.Close()

	items := testCollector(srv.Client(), 10).Collect(context.Background(), []string{srv.URL}, since)
	if len(items) != 1 {
		t.Fatalf("Expected 1 item after the threshold, got %d: %+v", len(items), items)
	}
	it := items[0]
	if it.Title != "Fresh" || it.Link != "https://example.com/fresh" || it.Publisher != "World Wire" {
		t.Errorf("unexpected item: %+v", it)
	}
	if it.Summary != "About Fresh" {
		t.Errorf("Expected cleaned summary, got %q", it.Summary)
	}
	if got, _ := ua.Load().(string); got != DefaultUserAgent {
		t.Errorf("Expected descriptive user agent, got %q", got)
	}
}

func TestCollect_CapsBeforeFiltering(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var items []string
		for i := 0; i < 5; i++ {
			items = append(items, rssItem(fmt.Sprintf("n%d", i), fmt.Sprintf("https://e/%d", i), since.Add(time.Hour)))
		}
		fmt.Fprint(w, rssDoc("Feed", items...))
	}))
	defer srv.Close()

	items := testCollector(srv.Client(), 3).Collect(context.Background(), []string{srv.URL}, since)
	if len(items) != 3 {
		t.Errorf("Expected the per-source cap of 3, got %d", len(items))
	}
}

func TestFetchFeed_ParseErrorNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, "this is <not a feed")
	}))
	defer srv.Close()

	_, err := testCollector(srv.Client(), 10).FetchFeed(context.Background(), srv.URL)
	if !errors.Is(err, ErrFeedParseFailed) {
		t.Errorf("Expected ErrFeedParseFailed, got %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("Expected a single attempt, got %d", hits.Load())
	}
}

func TestFetchFeed_ServerErrorRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, rssDoc("Feed", rssItem("Late", "https://e/late", since.Add(time.Hour))))
	}))
	defer srv.Close()

	items, err := testCollector(srv.Client(), 10).FetchFeed(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Expected success on the third attempt, got %v", err)
	}
	if len(items) != 1 || hits.Load() != 3 {
		t.Errorf("Expected 1 item after 3 attempts, got %d items after %d", len(items), hits.Load())
	}
}

func TestFetchFeed_NotFoundNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := testCollector(srv.Client(), 10).FetchFeed(context.Background(), srv.URL)
	if !errors.Is(err, ErrFeedFetchFailed) {
		t.Errorf("Expected ErrFeedFetchFailed, got %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("Expected a single attempt, got %d", hits.Load())
	}
}

func TestFetchFeed_TransportFailureExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := testCollector(nil, 10).FetchFeed(context.Background(), url)
	if !errors.Is(err, ErrFeedFetchFailed) {
		t.Errorf("Expected ErrFeedFetchFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "failed after 3 attempts") {
		t.Errorf("Expected all attempts to be used, got %v", err)
	}
}

func TestCollect_DegradedSource(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var items []string
		for i := 0; i < 5; i++ {
			items = append(items, rssItem(fmt.Sprintf("g%d", i), fmt.Sprintf("https://g/%d", i), since.Add(time.Duration(i+1)*time.Minute)))
		}
		fmt.Fprint(w, rssDoc("Good", items...))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>oops</html>")
	}))
	defer bad.Close()

	items := testCollector(nil, 10).Collect(context.Background(), []string{bad.URL, good.URL}, since)
	if len(items) != 5 {
		t.Errorf("Expected the 5 items of the healthy source, got %d", len(items))
	}
	for _, it := range items {
		if it.Publisher != "Good" {
			t.Errorf("unexpected publisher %q", it.Publisher)
		}
	}
}

func TestCollect_SourceTimingOutOnEveryAttempt(t *testing.T) {
	var slowHits atomic.Int32
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slowHits.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var items []string
		for i := 0; i < 5; i++ {
			items = append(items, rssItem(fmt.Sprintf("g%d", i), fmt.Sprintf("https://g/%d", i), since.Add(time.Duration(i+1)*time.Minute)))
		}
		fmt.Fprint(w, rssDoc("Good", items...))
	}))
	defer good.Close()

	c := NewCollector(nil, Options{
		Concurrency: 2,
		Timeout:     50 * time.Millisecond,
		Retry:       retry.RetryConfig{MaxAttempts: 3, Delay: time.Millisecond},
	})
	items := c.Collect(context.Background(), []string{slow.URL, good.URL}, since)
	if len(items) != 5 {
		t.Errorf("Expected the 5 items of the healthy source, got %d", len(items))
	}
	if slowHits.Load() != 3 {
		t.Errorf("Expected the slow source to be tried 3 times, got %d", slowHits.Load())
	}
}

func TestParse_PublisherFallsBackToHost(t *testing.T) {
	data := []byte(rssDoc("", rssItem("x", "https://e/x", since)))
	items, err := Parse(data, "https://www.Example.org/feed.xml", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].Publisher != "example.org" {
		t.Errorf("Expected host publisher, got %+v", items)
	}
}

func TestParse_Atom(t *testing.T) {
	atom := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom"><title>Atom Wire</title>
<entry><title>Entry &amp; more</title><link href="https://atom.example/1"/><updated>2025-03-10T06:00:00Z</updated><summary>Short</summary></entry>
</feed>`
	items, err := Parse([]byte(atom), "https://atom.example/feed", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(items))
	}
	it := items[0]
	if it.Title != "Entry & more" || it.Link != "https://atom.example/1" || it.Publisher != "Atom Wire" {
		t.Errorf("unexpected entry: %+v", it)
	}
	if !it.PublishedAt.Equal(time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected updated time as fallback, got %v", it.PublishedAt)
	}
}

func TestCleanHTMLText(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"plain", "plain"},
		{"<p>Hello <b>world</b></p>", "Hello world"},
		{"a&nbsp;&nbsp;b", "a b"},
		{"Tom &amp; Jerry &lt;3", "Tom & Jerry <3"},
		{"line\n\n  break\t tab", "line break tab"},
		{"<script>alert(1)</script>text", "text"},
		{"Cafe\u0301", "Caf\u00e9"},
	}
	for _, tt := range tests {
		if got := CleanHTMLText(tt.in); got != tt.want {
			t.Errorf("CleanHTMLText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
