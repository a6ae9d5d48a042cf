package ratelimit

import (
	"errors"
	"fmt"
	"sync"

	"github.com/deusflow/headlines/internal/logger"
)

// ErrBudgetExhausted is returned once a run has used all of its LLM calls.
var ErrBudgetExhausted = errors.New("llm request budget exhausted")

// Budget caps the number of LLM requests a single pipeline run may make.
// A limit of zero or less means unlimited.
type Budget struct {
	mu    sync.Mutex
	used  int
	limit int
}

func NewBudget(limit int) *Budget {
	return &Budget{limit: limit}
}

// Use reserves one request for backend or reports that none are left.
func (b *Budget) Use(backend string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.limit > 0 && b.used >= b.limit {
		return fmt.Errorf("%w (%d/%d)", ErrBudgetExhausted, b.used, b.limit)
	}
	b.used++

	logger.Debug("LLM usage", "backend", backend, "used", b.used, "limit", b.limit)
	return nil
}

// Reset starts a new run.
func (b *Budget) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.used = 0
}

func (b *Budget) GetStats() map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	return map[string]interface{}{
		"llm_used":  b.used,
		"llm_limit": b.limit,
	}
}
