package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	FeedsFetched        int64
	FeedFailures        int64
	ItemsCollected      int64
	StoriesGrouped      int64
	StoriesApproved     int64
	LLMRequests         int64
	LLMFailures         int64
	ReportsDelivered    int64
	TelegramMessageSent int64

	// Timings
	LastProcessingTime    time.Duration
	AverageProcessingTime time.Duration
	TotalProcessingTime   time.Duration
	ProcessingCount       int64

	// Status
	LastRunTime   time.Time
	LastOutcome   string
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

func (m *Metrics) add(field *int64, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*field += int64(n)
}

func (m *Metrics) IncrementFeedsFetched()        { m.add(&m.FeedsFetched, 1) }
func (m *Metrics) IncrementFeedFailures()        { m.add(&m.FeedFailures, 1) }
func (m *Metrics) AddItemsCollected(n int)       { m.add(&m.ItemsCollected, n) }
func (m *Metrics) AddStoriesGrouped(n int)       { m.add(&m.StoriesGrouped, n) }
func (m *Metrics) AddStoriesApproved(n int)      { m.add(&m.StoriesApproved, n) }
func (m *Metrics) IncrementLLMRequests()         { m.add(&m.LLMRequests, 1) }
func (m *Metrics) IncrementLLMFailures()         { m.add(&m.LLMFailures, 1) }
func (m *Metrics) IncrementReportsDelivered()    { m.add(&m.ReportsDelivered, 1) }
func (m *Metrics) IncrementTelegramMessageSent() { m.add(&m.TelegramMessageSent, 1) }

func (m *Metrics) RecordProcessingTime(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastProcessingTime = duration
	m.TotalProcessingTime += duration
	m.ProcessingCount++
	m.AverageProcessingTime = m.TotalProcessingTime / time.Duration(m.ProcessingCount)
}

// SetLastRun marks a run that finished without a fatal error.
func (m *Metrics) SetLastRun(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.LastOutcome = outcome
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.IsHealthy
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"feeds_fetched":              m.FeedsFetched,
		"feed_failures":              m.FeedFailures,
		"items_collected":            m.ItemsCollected,
		"stories_grouped":            m.StoriesGrouped,
		"stories_approved":           m.StoriesApproved,
		"llm_requests":               m.LLMRequests,
		"llm_failures":               m.LLMFailures,
		"reports_delivered":          m.ReportsDelivered,
		"telegram_messages_sent":     m.TelegramMessageSent,
		"last_processing_time_ms":    m.LastProcessingTime.Milliseconds(),
		"average_processing_time_ms": m.AverageProcessingTime.Milliseconds(),
		"last_run_time":              m.LastRunTime.Format(time.RFC3339),
		"last_outcome":               m.LastOutcome,
		"last_error_time":            m.LastErrorTime.Format(time.RFC3339),
		"last_error":                 m.LastError,
		"is_healthy":                 m.IsHealthy,
	}
}
