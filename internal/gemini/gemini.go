package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deusflow/headlines/internal/logger"
	"github.com/deusflow/headlines/internal/metrics"
	"github.com/deusflow/headlines/internal/news"
	"github.com/deusflow/headlines/internal/ratelimit"
)

// ErrFilterRequestFailed means a filter stage produced no usable answer and
// must be treated as skipped, not as empty.
var ErrFilterRequestFailed = errors.New("filter request failed")

const DefaultTimeout = 60 * time.Second

// Client runs the two model passes over a Transport.
type Client struct {
	transport Transport
	budget    *ratelimit.Budget
	timeout   time.Duration
}

// NewClient wraps a transport. budget may be nil for no limit.
func NewClient(transport Transport, budget *ratelimit.Budget, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{transport: transport, budget: budget, timeout: timeout}
}

// GroupAndDeduplicate merges feed items that report the same event into one
// NewsItem with several links. An empty non-nil result means the model had
// nothing to return.
func (c *Client) GroupAndDeduplicate(ctx context.Context, items []news.FeedItem) ([]news.NewsItem, error) {
	if len(items) == 0 {
		return []news.NewsItem{}, nil
	}
	grouped, err := c.generate(ctx, "group", groupPrompt(items), NewsItemsSchema(false))
	if err != nil {
		return nil, err
	}
	logger.Info("Grouped feed items", "in", len(items), "out", len(grouped))
	return grouped, nil
}

// FilterSignificant asks the model to rate each story and keeps the ones
// rated HIGH.
func (c *Client) FilterSignificant(ctx context.Context, items []news.NewsItem) ([]news.NewsItem, error) {
	if len(items) == 0 {
		return []news.NewsItem{}, nil
	}
	prompt, err := significancePrompt(items)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFilterRequestFailed, err)
	}
	rated, err := c.generate(ctx, "significance", prompt, NewsItemsSchema(true))
	if err != nil {
		return nil, err
	}

	kept := make([]news.NewsItem, 0, len(rated))
	for _, it := range rated {
		if it.Significance.Qualifies() {
			kept = append(kept, it)
		}
	}
	logger.Info("Filtered stories by significance", "in", len(items), "rated", len(rated), "kept", len(kept))
	return kept, nil
}

func (c *Client) generate(ctx context.Context, stage, prompt string, schema *Schema) ([]news.NewsItem, error) {
	fail := func(format string, args ...any) ([]news.NewsItem, error) {
		metrics.Global.IncrementLLMFailures()
		err := fmt.Errorf("%w: %s: %s", ErrFilterRequestFailed, stage, fmt.Sprintf(format, args...))
		logger.Warn("Filter stage failed", "stage", stage, "backend", c.transport.Name(), "error", err)
		return nil, err
	}

	if c.budget != nil {
		if err := c.budget.Use(c.transport.Name()); err != nil {
			return fail("%v", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	metrics.Global.IncrementLLMRequests()
	resp, err := c.transport.Generate(ctx, Request{Prompt: prompt, Schema: schema})
	if err != nil {
		return fail("%v", err)
	}
	logger.Debug("Model replied", "stage", stage, "backend", c.transport.Name(), "elapsed", time.Since(start))

	if resp == nil {
		return fail("empty response")
	}
	if len(resp.Candidates) == 0 {
		logger.Info("Model returned no candidates", "stage", stage)
		return []news.NewsItem{}, nil
	}

	first := resp.Candidates[0]
	if first.Content == nil || len(first.Content.Parts) == 0 || first.Content.Parts[0].Text == nil {
		return fail("candidate has no text")
	}

	items, err := DecodeNewsItems(*first.Content.Parts[0].Text)
	if err != nil {
		return fail("%v", err)
	}
	return items, nil
}

// DecodeNewsItems parses the JSON array the model writes into its text part.
func DecodeNewsItems(text string) ([]news.NewsItem, error) {
	text = strings.TrimSpace(text)
	var items []news.NewsItem
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return nil, fmt.Errorf("decoding news items: %w", err)
	}
	if items == nil {
		return nil, fmt.Errorf("decoding news items: expected a JSON array, got %.20q", text)
	}
	return news.Normalize(items), nil
}
