package app

import (
	"context"
	"fmt"
	"time"

	"github.com/deusflow/headlines/internal/logger"
	"github.com/deusflow/headlines/internal/storage"
)

// OpenJournal picks PostgreSQL when databaseURL is set, a JSON file when
// filePath is set, and nothing otherwise. A database that cannot be reached
// falls back to the file.
func OpenJournal(ctx context.Context, databaseURL, filePath string, retention time.Duration) (storage.Journal, error) {
	if databaseURL != "" {
		pj, err := storage.NewPostgresJournal(ctx, databaseURL)
		if err == nil {
			if err := pj.Cleanup(ctx, retention); err != nil {
				logger.Warn("Journal cleanup failed", "error", err)
			}
			return pj, nil
		}
		if filePath == "" {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		logger.Warn("PostgreSQL journal unavailable, using file", "error", err)
	}
	if filePath == "" {
		return nil, nil
	}
	fj, err := storage.NewFileJournal(filePath, retention)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	logger.Info("Using file journal", "path", filePath)
	return fj, nil
}
