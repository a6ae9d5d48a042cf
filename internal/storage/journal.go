package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// ReportEntry records one delivered digest.
type ReportEntry struct {
	Hash        string    `json:"hash"`
	Label       string    `json:"label"`
	ChatID      string    `json:"chat_id"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	Stories     int       `json:"stories"`
	Titles      []string  `json:"titles"`
	Text        string    `json:"text"`
	SentAt      time.Time `json:"sent_at"`
}

// Journal is a write-only log of delivered reports. Nothing in a run reads it
// back, so deliveries never depend on earlier runs.
type Journal interface {
	Record(ctx context.Context, entry ReportEntry) error
	Close() error
}

// ReportHash identifies a report by its chat and rendered text.
func ReportHash(chatID, text string) string {
	normalized := strings.Join(strings.Fields(text), " ")
	h := sha256.New()
	h.Write([]byte(chatID + "|" + normalized))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func fill(entry ReportEntry) ReportEntry {
	if entry.SentAt.IsZero() {
		entry.SentAt = time.Now()
	}
	if entry.Hash == "" {
		entry.Hash = ReportHash(entry.ChatID, entry.Text)
	}
	return entry
}
