package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deusflow/headlines/internal/metrics"
	"github.com/deusflow/headlines/internal/ratelimit"
)

func TestHealthHandler(t *testing.T) {
	router := newMonitoringRouter(nil)

	metrics.Global.SetLastRun("delivered")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}

	metrics.Global.SetError("boom")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if body["status"] != "error" || body["last_error"] != "boom" {
		t.Errorf("unexpected body: %v", body)
	}
	metrics.Global.SetLastRun("delivered")
}

func TestMetricsHandler(t *testing.T) {
	budget := ratelimit.NewBudget(4)
	if err := budget.Use("rest"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec := httptest.NewRecorder()
	newMonitoringRouter(budget).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var stats map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if _, ok := stats["reports_delivered"]; !ok {
		t.Errorf("Expected report counters, got %v", stats)
	}
	// JSON numbers decode as float64.
	if stats["llm_used"] != float64(1) || stats["llm_limit"] != float64(4) {
		t.Errorf("Expected LLM budget usage 1/4, got %v/%v", stats["llm_used"], stats["llm_limit"])
	}
}
