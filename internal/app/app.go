package app

import (
	"context"
	"time"

	"github.com/deusflow/headlines/internal/logger"
	"github.com/deusflow/headlines/internal/metrics"
	"github.com/deusflow/headlines/internal/news"
	"github.com/deusflow/headlines/internal/report"
	"github.com/deusflow/headlines/internal/storage"
	"github.com/deusflow/headlines/internal/telegram"
	"github.com/deusflow/headlines/internal/window"
)

// FeedCollector returns the items published after since. It degrades per
// source and never fails the run.
type FeedCollector interface {
	Collect(ctx context.Context, urls []string, since time.Time) []news.FeedItem
}

// NewsFilter is the model-backed grouping and significance stage. A non-nil
// error means the stage was skipped.
type NewsFilter interface {
	GroupAndDeduplicate(ctx context.Context, items []news.FeedItem) ([]news.NewsItem, error)
	FilterSignificant(ctx context.Context, items []news.NewsItem) ([]news.NewsItem, error)
}

type Sender interface {
	Send(ctx context.Context, chatID, text string, markup *telegram.ReplyMarkup) error
}

// Archive records delivered reports. It is never read during a run.
type Archive interface {
	Record(ctx context.Context, entry storage.ReportEntry) error
}

type Outcome string

const (
	OutcomeDelivered Outcome = "delivered"
	OutcomeNoNews    Outcome = "no_news"
	OutcomeAborted   Outcome = "aborted"
	OutcomeFailed    Outcome = "failed"
)

// Settings is the read-only input of a run.
type Settings struct {
	Label          string
	ReportHours    []int
	TimeZone       string
	MinReportCount int
	Feeds          []string
	ChatID         string
	Markup         *telegram.ReplyMarkup
}

type Pipeline struct {
	settings  Settings
	collector FeedCollector
	filter    NewsFilter
	sender    Sender
	archive   Archive
	now       func() time.Time
}

// NewPipeline wires the stages together. archive may be nil.
func NewPipeline(settings Settings, collector FeedCollector, filter NewsFilter, sender Sender, archive Archive) *Pipeline {
	return &Pipeline{
		settings:  settings,
		collector: collector,
		filter:    filter,
		sender:    sender,
		archive:   archive,
		now:       time.Now,
	}
}

// Run performs one digest cycle. Only fatal problems are returned as errors:
// a bad window, a cancelled context, or a failed delivery. A skipped grouping
// stage ends the run as OutcomeAborted with a nil error.
func (p *Pipeline) Run(ctx context.Context) (Outcome, error) {
	start := time.Now()
	defer func() { metrics.Global.RecordProcessingTime(time.Since(start)) }()

	outcome, err := p.run(ctx)
	if err != nil {
		metrics.Global.SetError(err.Error())
		logger.Error("Run failed", "outcome", outcome, "error", err)
		return outcome, err
	}
	metrics.Global.SetLastRun(string(outcome))
	logger.Info("Run finished", "outcome", outcome, "elapsed", time.Since(start))
	return outcome, nil
}

func (p *Pipeline) run(ctx context.Context) (Outcome, error) {
	s := p.settings

	w, err := window.Resolve(p.now(), s.TimeZone, s.ReportHours)
	if err != nil {
		return OutcomeFailed, err
	}
	logger.Info("Report window", "start", w.Start.Format(time.RFC3339), "end", w.End.Format(time.RFC3339))

	items := p.collector.Collect(ctx, s.Feeds, w.Start)
	if err := ctx.Err(); err != nil {
		return OutcomeFailed, err
	}
	if len(items) == 0 {
		logger.Warn("No news found from RSS sources")
		return OutcomeNoNews, nil
	}

	grouped, err := p.filter.GroupAndDeduplicate(ctx, items)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return OutcomeFailed, ctxErr
		}
		logger.Warn("Grouping stage skipped, nothing to report", "error", err)
		return OutcomeAborted, nil
	}
	metrics.Global.AddStoriesGrouped(len(grouped))

	eligible, candidates := report.Partition(grouped, s.MinReportCount)
	logger.Info("Partitioned stories", "eligible", len(eligible), "candidates", len(candidates))

	var approved []news.NewsItem
	if len(candidates) > 0 {
		approved, err = p.filter.FilterSignificant(ctx, candidates)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return OutcomeFailed, ctxErr
			}
			logger.Warn("Significance stage skipped, using eligible stories only", "error", err)
			approved = nil
		}
	}

	selected := report.Merge(eligible, approved)
	if len(selected) == 0 {
		logger.Info("No significant news for this window")
		return OutcomeNoNews, nil
	}
	metrics.Global.AddStoriesApproved(len(selected))

	text := report.Format(s.Label, w.End, selected)

	if err := ctx.Err(); err != nil {
		return OutcomeFailed, err
	}
	if err := p.sender.Send(ctx, s.ChatID, text, s.Markup); err != nil {
		return OutcomeFailed, err
	}
	metrics.Global.IncrementReportsDelivered()

	p.record(ctx, w, selected, text)
	return OutcomeDelivered, nil
}

func (p *Pipeline) record(ctx context.Context, w window.Window, items []news.NewsItem, text string) {
	if p.archive == nil {
		return
	}
	titles := make([]string, len(items))
	for i, it := range items {
		titles[i] = it.Title
	}
	entry := storage.ReportEntry{
		Label:       p.settings.Label,
		ChatID:      p.settings.ChatID,
		WindowStart: w.Start,
		WindowEnd:   w.End,
		Stories:     len(items),
		Titles:      titles,
		Text:        text,
	}
	if err := p.archive.Record(ctx, entry); err != nil {
		logger.Warn("Failed to record report", "error", err)
	}
}
