package llm

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when a provider is missing its credentials.
var ErrNotConfigured = errors.New("llm provider not configured")

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Response is a completed chat turn. Searched is set when the model asked for the
// web search tool and a second round trip was made.
type Response struct {
	Content     string `json:"content"`
	Searched    bool   `json:"searched,omitempty"`
	SearchQuery string `json:"query,omitempty"`
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature  float64
	MaxTokens    int
	Model        string // Override default model
	EnableSearch bool
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

// WithWebSearch offers the model a web_search tool. Providers without tool support ignore it.
func WithWebSearch(enabled bool) Option {
	return func(o *Options) {
		o.EnableSearch = enabled
	}
}

// Apply resolves opts over the given defaults.
func Apply(defaults Options, opts ...Option) Options {
	for _, opt := range opts {
		opt(&defaults)
	}
	return defaults
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Complete sends a chat history and returns the reply with tool metadata
	Complete(ctx context.Context, history []Message, options ...Option) (*Response, error)

	// Chat sends a chat history to the model and returns the response text
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}
