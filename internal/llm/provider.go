package llm

import (
	"context"
	"encoding/json"
)

// Provider generates one completion per call. Implementations wrap a hosted
// model SDK; decorators (retry, timeout, logging) wrap a Provider.
type Provider interface {
	// Generate returns the model output for req. With req.Schema set the
	// output is JSON that has already passed validation.
	Generate(ctx context.Context, req Request) (*Response, error)

	ModelID() string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

// UserTurn is the single-message conversation used for one-shot prompts.
func UserTurn(text string) []Message {
	return []Message{{Role: RoleUser, Content: text}}
}

// Schema is a named JSON Schema. Anthropic receives it as a tool input
// schema, OpenAI and Gemini as a response format. Name is kebab-case and
// also keys the compiled-schema cache, so it must be unique per shape.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

type Request struct {
	System   string
	Messages []Message

	// Schema switches the provider to structured output. Nil means free
	// text, returned in Response.Content as-is.
	Schema *Schema

	MaxTokens int

	// Temperature in [0, 1]; zero asks for deterministic output.
	Temperature float64
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

type Response struct {
	Content json.RawMessage
	Usage   Usage

	// Model is the model that served the call, which may differ from
	// ModelID when the provider routes requests.
	Model string

	// StopReason is StopEnd or StopMaxTokens.
	StopReason string
}
