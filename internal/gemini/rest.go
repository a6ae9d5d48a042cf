package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/deusflow/headlines/internal/logger"
)

const (
	DefaultBaseURL      = "https://generativelanguage.googleapis.com"
	DefaultModel        = "gemini-2.5-flash"
	DefaultAPIKeyHeader = "x-goog-api-key"
)

type RESTConfig struct {
	BaseURL      string
	Model        string
	APIKey       string
	APIKeyHeader string
}

// RESTTransport calls generateContent over plain HTTP.
type RESTTransport struct {
	client *http.Client
	cfg    RESTConfig
}

func NewRESTTransport(client *http.Client, cfg RESTConfig) *RESTTransport {
	if client == nil {
		client = http.DefaultClient
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.APIKeyHeader == "" {
		cfg.APIKeyHeader = DefaultAPIKeyHeader
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &RESTTransport{client: client, cfg: cfg}
}

func (t *RESTTransport) Name() string { return "rest" }

type generateRequest struct {
	Contents         []Content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	ResponseMimeType string  `json:"responseMimeType"`
	ResponseSchema   *Schema `json:"responseSchema,omitempty"`
}

func (t *RESTTransport) Generate(ctx context.Context, req Request) (*Response, error) {
	prompt := req.Prompt
	body, err := json.Marshal(generateRequest{
		Contents: []Content{{Parts: []Part{{Text: &prompt}}}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   req.Schema,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", t.cfg.BaseURL, url.PathEscape(t.cfg.Model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(t.cfg.APIKeyHeader, t.cfg.APIKey)

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Debug("Failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("gemini API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}
