package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/deusflow/headlines/internal/logger"
)

// PostgresJournal stores delivered reports in PostgreSQL.
type PostgresJournal struct {
	db *sql.DB
}

func NewPostgresJournal(ctx context.Context, connectionString string) (*PostgresJournal, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pj := &PostgresJournal{db: db}
	if err := pj.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("PostgreSQL journal connected")
	return pj, nil
}

func (pj *PostgresJournal) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS report_journal (
		id SERIAL PRIMARY KEY,
		hash VARCHAR(64) UNIQUE NOT NULL,
		label TEXT NOT NULL,
		chat_id TEXT NOT NULL,
		window_start TIMESTAMPTZ NOT NULL,
		window_end TIMESTAMPTZ NOT NULL,
		stories INTEGER NOT NULL,
		titles TEXT NOT NULL,
		body TEXT NOT NULL,
		sent_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_report_journal_sent_at ON report_journal(sent_at);
	`
	_, err := pj.db.ExecContext(ctx, schema)
	return err
}

// Record inserts entry; a repeated hash is ignored.
func (pj *PostgresJournal) Record(ctx context.Context, entry ReportEntry) error {
	entry = fill(entry)

	query := `
		INSERT INTO report_journal (hash, label, chat_id, window_start, window_end, stories, titles, body, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (hash) DO NOTHING
	`
	_, err := pj.db.ExecContext(ctx, query,
		entry.Hash, entry.Label, entry.ChatID, entry.WindowStart, entry.WindowEnd,
		entry.Stories, strings.Join(entry.Titles, "\n"), entry.Text, entry.SentAt)
	if err != nil {
		return fmt.Errorf("failed to record report: %w", err)
	}
	return nil
}

// Cleanup removes entries older than retention. retention <= 0 keeps everything.
func (pj *PostgresJournal) Cleanup(ctx context.Context, retention time.Duration) error {
	if retention <= 0 {
		return nil
	}
	result, err := pj.db.ExecContext(ctx, `DELETE FROM report_journal WHERE sent_at < $1`, time.Now().Add(-retention))
	if err != nil {
		return fmt.Errorf("failed to cleanup: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows > 0 {
		logger.Info("Cleaned up old journal records", "rows", rows)
	}
	return nil
}

func (pj *PostgresJournal) Close() error {
	if pj.db != nil {
		return pj.db.Close()
	}
	return nil
}
