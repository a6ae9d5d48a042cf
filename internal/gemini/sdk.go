package gemini

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// SDKTransport calls Gemini through the official Go client.
type SDKTransport struct {
	client *genai.Client
	model  string
}

func NewSDKTransport(ctx context.Context, apiKey, model string, opts ...option.ClientOption) (*SDKTransport, error) {
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &SDKTransport{client: client, model: model}, nil
}

func (t *SDKTransport) Name() string { return "sdk" }

func (t *SDKTransport) Close() error {
	if t.client != nil {
		return t.client.Close()
	}
	return nil
}

func (t *SDKTransport) Generate(ctx context.Context, req Request) (*Response, error) {
	model := t.client.GenerativeModel(t.model)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = toGenaiSchema(req.Schema)

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}
	return fromGenaiResponse(resp), nil
}

func toGenaiSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:     genaiType(s.Type),
		Enum:     s.Enum,
		Required: s.Required,
		Items:    toGenaiSchema(s.Items),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, p := range s.Properties {
			out.Properties[name] = toGenaiSchema(p)
		}
	}
	return out
}

func genaiType(t string) genai.Type {
	switch t {
	case TypeArray:
		return genai.TypeArray
	case TypeObject:
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

// fromGenaiResponse keeps only text parts; anything else becomes a part
// without text so the client reports it as malformed.
func fromGenaiResponse(resp *genai.GenerateContentResponse) *Response {
	out := &Response{}
	if resp == nil {
		return out
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			out.Candidates = append(out.Candidates, Candidate{})
			continue
		}
		content := &Content{}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				s := string(text)
				content.Parts = append(content.Parts, Part{Text: &s})
			} else {
				content.Parts = append(content.Parts, Part{})
			}
		}
		out.Candidates = append(out.Candidates, Candidate{Content: content})
	}
	return out
}
