package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"
)

// FileJournal keeps delivered reports in a JSON file, pruning entries older
// than the retention period on every write.
type FileJournal struct {
	filePath  string
	retention time.Duration
	entries   []ReportEntry
	mu        sync.Mutex
}

// NewFileJournal loads filePath if it exists. retention <= 0 keeps everything.
func NewFileJournal(filePath string, retention time.Duration) (*FileJournal, error) {
	fj := &FileJournal{filePath: filePath, retention: retention}
	if err := fj.load(); err != nil {
		return nil, err
	}
	return fj, nil
}

func (fj *FileJournal) load() error {
	data, err := os.ReadFile(fj.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read journal file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, &fj.entries); err != nil {
		return fmt.Errorf("failed to unmarshal journal: %w", err)
	}
	return nil
}

// Record appends entry and rewrites the file. A report already recorded with
// the same hash is not duplicated.
func (fj *FileJournal) Record(_ context.Context, entry ReportEntry) error {
	entry = fill(entry)

	fj.mu.Lock()
	defer fj.mu.Unlock()

	if slices.ContainsFunc(fj.entries, func(e ReportEntry) bool { return e.Hash == entry.Hash }) {
		return nil
	}
	fj.entries = append(fj.entries, entry)
	fj.prune(time.Now())
	return fj.save()
}

func (fj *FileJournal) prune(now time.Time) {
	if fj.retention <= 0 {
		return
	}
	cutoff := now.Add(-fj.retention)
	fj.entries = slices.DeleteFunc(fj.entries, func(e ReportEntry) bool {
		return e.SentAt.Before(cutoff)
	})
}

func (fj *FileJournal) save() error {
	data, err := json.MarshalIndent(fj.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal journal: %w", err)
	}
	if dir := filepath.Dir(fj.filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create journal dir: %w", err)
		}
	}
	tmp := fj.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write journal file: %w", err)
	}
	if err := os.Rename(tmp, fj.filePath); err != nil {
		return fmt.Errorf("failed to replace journal file: %w", err)
	}
	return nil
}

// Len is the number of retained entries.
func (fj *FileJournal) Len() int {
	fj.mu.Lock()
	defer fj.mu.Unlock()
	return len(fj.entries)
}

func (fj *FileJournal) Close() error { return nil }
