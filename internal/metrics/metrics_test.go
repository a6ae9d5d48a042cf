package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestCountersAreConcurrencySafe(t *testing.T) {
	m := &Metrics{IsHealthy: true}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncrementFeedsFetched()
			m.AddItemsCollected(2)
		}()
	}
	wg.Wait()

	stats := m.GetStats()
	if stats["feeds_fetched"].(int64) != 50 {
		t.Errorf("Expected 50 feeds fetched, got %v", stats["feeds_fetched"])
	}
	if stats["items_collected"].(int64) != 100 {
		t.Errorf("Expected 100 items collected, got %v", stats["items_collected"])
	}
}

func TestHealthTransitions(t *testing.T) {
	m := &Metrics{IsHealthy: true}

	m.SetError("boom")
	if m.Healthy() {
		t.Error("Expected unhealthy after an error")
	}
	m.SetLastRun("delivered")
	if !m.Healthy() {
		t.Error("Expected healthy after a finished run")
	}
	if m.GetStats()["last_outcome"] != "delivered" {
		t.Errorf("unexpected outcome: %v", m.GetStats()["last_outcome"])
	}
}

func TestRecordProcessingTime(t *testing.T) {
	m := &Metrics{}
	m.RecordProcessingTime(100 * time.Millisecond)
	m.RecordProcessingTime(300 * time.Millisecond)
	if m.AverageProcessingTime != 200*time.Millisecond {
		t.Errorf("Expected 200ms average, got %v", m.AverageProcessingTime)
	}
	if m.LastProcessingTime != 300*time.Millisecond {
		t.Errorf("Expected 300ms last, got %v", m.LastProcessingTime)
	}
}
