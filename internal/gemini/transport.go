package gemini

import "context"

// Request is one structured-output call.
type Request struct {
	Prompt string
	Schema *Schema
}

// Response mirrors the generateContent reply. Every backend converts its
// native reply into this shape so the client handles them alike.
type Response struct {
	Candidates []Candidate `json:"candidates"`
}

type Candidate struct {
	Content *Content `json:"content,omitempty"`
}

type Content struct {
	Parts []Part `json:"parts"`
}

type Part struct {
	Text *string `json:"text,omitempty"`
}

// Transport sends a prompt to a model backend.
type Transport interface {
	Name() string
	Generate(ctx context.Context, req Request) (*Response, error)
}

func textResponse(text string) *Response {
	return &Response{Candidates: []Candidate{{Content: &Content{Parts: []Part{{Text: &text}}}}}}
}
