package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/deusflow/headlines/internal/logger"
	"github.com/deusflow/headlines/internal/markdown"
)

const DefaultMaxChars = 4096

// Sender delivers a long report as a series of chunks.
type Sender struct {
	client   *Client
	maxChars int
	interval time.Duration
}

func NewSender(client *Client, maxChars int, interval time.Duration) *Sender {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Sender{client: client, maxChars: maxChars, interval: interval}
}

// Send splits text on line boundaries and sends the pieces in order. Only the
// last piece carries markup. It stops at the first piece that fails.
func (s *Sender) Send(ctx context.Context, chatID, text string, markup *ReplyMarkup) error {
	chunks, err := markdown.SplitMessageByNewlines(text, s.maxChars)
	if err != nil {
		return err
	}

	parts := chunks[:0]
	for _, c := range chunks {
		if strings.TrimSpace(c) != "" {
			parts = append(parts, c)
		}
	}

	for i, part := range parts {
		if i > 0 && s.interval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.interval):
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		var m *ReplyMarkup
		if i == len(parts)-1 {
			m = markup
		}
		if err := s.client.SendMessage(ctx, chatID, part, m); err != nil {
			return fmt.Errorf("chunk %d/%d: %w", i+1, len(parts), err)
		}
	}

	logger.Info("Telegram message sent", "chat", chatID, "chunks", len(parts))
	return nil
}
