package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/deusflow/headlines/internal/logger"
	"github.com/deusflow/headlines/internal/metrics"
	"github.com/deusflow/headlines/internal/retry"
)

const DefaultBaseURL = "https://api.telegram.org"

var ErrSendFailed = errors.New("telegram send failed")

// InlineKeyboardButton opens url when pressed.
type InlineKeyboardButton struct {
	Text string `json:"text"`
	URL  string `json:"url,omitempty"`
}

// ReplyMarkup is an inline keyboard attached below a message.
type ReplyMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

// LinkButton builds a one-button keyboard, or nil when text or url is empty.
func LinkButton(text, url string) *ReplyMarkup {
	if strings.TrimSpace(text) == "" || strings.TrimSpace(url) == "" {
		return nil
	}
	return &ReplyMarkup{InlineKeyboard: [][]InlineKeyboardButton{{{Text: text, URL: url}}}}
}

type sendMessageRequest struct {
	ChatID                string       `json:"chat_id"`
	Text                  string       `json:"text"`
	ParseMode             string       `json:"parse_mode"`
	DisableWebPagePreview bool         `json:"disable_web_page_preview"`
	ReplyMarkup           *ReplyMarkup `json:"reply_markup,omitempty"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// Client talks to the Bot API sendMessage method.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	retry      retry.RetryConfig
}

func NewClient(httpClient *http.Client, baseURL, token string, rc retry.RetryConfig) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if rc.MaxAttempts <= 0 {
		rc = retry.RetryConfig{MaxAttempts: 3, Delay: time.Second, Backoff: true, MaxDelay: 8 * time.Second}
	}
	return &Client{httpClient: httpClient, baseURL: strings.TrimRight(baseURL, "/"), token: token, retry: rc}
}

// SendMessage sends one MarkdownV2 message with retry logic.
func (c *Client) SendMessage(ctx context.Context, chatID, text string, markup *ReplyMarkup) error {
	body, err := json.Marshal(sendMessageRequest{
		ChatID:                chatID,
		Text:                  text,
		ParseMode:             "MarkdownV2",
		DisableWebPagePreview: true,
		ReplyMarkup:           markup,
	})
	if err != nil {
		return fmt.Errorf("error make JSON: %w", err)
	}

	rc := c.retry
	rc.OnRetry = func(attempt int, err error) {
		logger.Warn("Error send to Telegram", "attempt", attempt, "max", rc.MaxAttempts, "error", err)
	}

	err = retry.WithRetry(ctx, rc, func(ctx context.Context) error {
		return c.sendOnce(ctx, body)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	metrics.Global.IncrementTelegramMessageSent()
	return nil
}

func (c *Client) sendOnce(ctx context.Context, body []byte) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return retry.Permanent(fmt.Errorf("error build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error HTTP request: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logger.Debug("Failed to close response body", "error", err)
		}
	}(resp.Body)

	var out apiResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&out)

	if resp.StatusCode == http.StatusOK && out.OK {
		return nil
	}
	err = fmt.Errorf("telegram API error: status %d: %s", resp.StatusCode, out.Description)
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return err
	}
	// Bad markup or a wrong chat id will not fix itself.
	return retry.Permanent(err)
}
