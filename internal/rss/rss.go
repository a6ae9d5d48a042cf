package rss

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"github.com/deusflow/headlines/internal/logger"
	"github.com/deusflow/headlines/internal/metrics"
	"github.com/deusflow/headlines/internal/news"
	"github.com/deusflow/headlines/internal/retry"
)

var (
	ErrFeedFetchFailed = errors.New("feed fetch failed")
	ErrFeedParseFailed = errors.New("feed parse failed")
)

const (
	DefaultUserAgent = "headlines-digest/1.0 (+https://github.com/deusflow/headlines)"
	maxFeedBytes     = 10 << 20
)

// Options tunes a Collector. Zero values fall back to sensible defaults.
type Options struct {
	UserAgent   string
	MaxItems    int           // per source, applied before the time filter
	Concurrency int           // parallel sources
	Timeout     time.Duration // per attempt
	Retry       retry.RetryConfig
}

// Collector downloads and parses feeds. It never fails a run: a source that
// cannot be read contributes nothing.
type Collector struct {
	client *http.Client
	opts   Options
}

func NewCollector(client *http.Client, opts Options) *Collector {
	if client == nil {
		client = http.DefaultClient
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.MaxItems <= 0 {
		opts.MaxItems = 10
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = retry.RetryConfig{MaxAttempts: 3, Delay: 200 * time.Millisecond, Backoff: true, MaxDelay: 2 * time.Second}
	}
	return &Collector{client: client, opts: opts}
}

// Collect fetches every source in parallel and returns the items published
// after since. Order across sources is not significant.
func (c *Collector) Collect(ctx context.Context, urls []string, since time.Time) []news.FeedItem {
	results := make([][]news.FeedItem, len(urls))

	var g errgroup.Group
	g.SetLimit(min(c.opts.Concurrency, max(len(urls), 1)))
	for i, u := range urls {
		g.Go(func() error {
			items, err := c.FetchFeed(ctx, u)
			if err != nil {
				metrics.Global.IncrementFeedFailures()
				logger.Warn("Feed skipped", "url", u, "error", err)
				return nil
			}
			metrics.Global.IncrementFeedsFetched()

			fresh := make([]news.FeedItem, 0, len(items))
			for _, it := range items {
				if it.PublishedAt.After(since) {
					fresh = append(fresh, it)
				}
			}
			results[i] = fresh
			logger.Debug("Feed loaded", "url", u, "items", len(items), "fresh", len(fresh))
			return nil
		})
	}
	_ = g.Wait()

	var all []news.FeedItem
	ok := 0
	for _, r := range results {
		if r != nil {
			ok++
		}
		all = append(all, r...)
	}
	metrics.Global.AddItemsCollected(len(all))
	logger.Info("Processed RSS feeds", "ok", ok, "total", len(urls), "items", len(all))
	return all
}

// FetchFeed downloads and parses one source, retrying transport failures.
// A parse failure is returned at once since the same bytes would fail again.
func (c *Collector) FetchFeed(ctx context.Context, feedURL string) ([]news.FeedItem, error) {
	cfg := c.opts.Retry
	cfg.OnRetry = func(attempt int, err error) {
		logger.Debug("Retrying feed", "url", feedURL, "attempt", attempt, "error", err)
	}

	var items []news.FeedItem
	err := retry.WithRetry(ctx, cfg, func(ctx context.Context) error {
		body, err := c.download(ctx, feedURL)
		if err != nil {
			return err
		}
		parsed, err := Parse(body, feedURL, c.opts.MaxItems)
		if err != nil {
			return retry.Permanent(err)
		}
		items = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Collector) download(ctx context.Context, feedURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("%w: %v", ErrFeedFetchFailed, err))
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedFetchFailed, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Debug("Failed to close feed body", "url", feedURL, "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("%w: status %d", ErrFeedFetchFailed, resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, err
		}
		return nil, retry.Permanent(err)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrFeedFetchFailed, err)
	}
	return body, nil
}

// Parse turns raw RSS/Atom bytes into at most maxItems feed items.
func Parse(data []byte, feedURL string, maxItems int) ([]news.FeedItem, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedParseFailed, err)
	}

	publisher := strings.TrimSpace(CleanHTMLText(feed.Title))
	if publisher == "" {
		publisher = hostOf(feedURL)
	}

	entries := feed.Items
	if maxItems > 0 && len(entries) > maxItems {
		entries = entries[:maxItems]
	}

	items := make([]news.FeedItem, 0, len(entries))
	for _, it := range entries {
		items = append(items, normalizeItem(it, publisher))
	}
	return items, nil
}

func normalizeItem(it *gofeed.Item, publisher string) news.FeedItem {
	link := it.Link
	if link == "" && len(it.Links) > 0 {
		link = it.Links[0]
	}

	var published time.Time
	switch {
	case it.PublishedParsed != nil:
		published = *it.PublishedParsed
	case it.UpdatedParsed != nil:
		published = *it.UpdatedParsed
	}

	summary := it.Description
	if strings.TrimSpace(summary) == "" {
		summary = it.Content
	}

	return news.FeedItem{
		Title:       CleanHTMLText(it.Title),
		Summary:     CleanHTMLText(summary),
		Link:        strings.TrimSpace(link),
		PublishedAt: published,
		Publisher:   publisher,
	}
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "Unknown Publisher"
	}
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
}
