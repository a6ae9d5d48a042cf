package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

const DefaultOpenAIModel = "gpt-4o-mini"

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// OpenAITransport serves the same passes through an OpenAI-compatible chat
// endpoint in JSON-object mode.
type OpenAITransport struct {
	client *openai.Client
	model  string
}

func NewOpenAITransport(httpClient *http.Client, cfg OpenAIConfig) *OpenAITransport {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if httpClient != nil {
		oc.HTTPClient = httpClient
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	return &OpenAITransport{client: openai.NewClientWithConfig(oc), model: cfg.Model}
}

func (t *OpenAITransport) Name() string { return "openai" }

func (t *OpenAITransport) Generate(ctx context.Context, req Request) (*Response, error) {
	schema, err := json.Marshal(req.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	system := "Reply with a single JSON object of the form {\"items\": [...]} where the array follows this schema:\n" + string(schema)

	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return &Response{}, nil
	}

	var wrapped struct {
		Items json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &wrapped); err != nil {
		return nil, fmt.Errorf("failed to decode completion: %w", err)
	}
	if len(wrapped.Items) == 0 {
		return nil, fmt.Errorf("completion has no items field")
	}
	return textResponse(string(wrapped.Items)), nil
}
