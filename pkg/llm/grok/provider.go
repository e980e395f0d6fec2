// Package grok talks to the xAI chat completions endpoint.
//
// When search is enabled the model is offered a web_search function tool. No search
// backend is wired in: if the model calls the tool, the provider answers with a fixed
// placeholder tool result and asks again, so the second reply rests on the model's own
// knowledge rather than verified search results.
package grok

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"friendlist-be/pkg/llm"

	"github.com/go-resty/resty/v2"
	"github.com/sashabaranov/go-openai"
)

const (
	DefaultBaseURL = "https://api.x.ai/v1"
	DefaultModel   = "grok-4-1-fast-non-reasoning"

	defaultTemperature = 0.7
	defaultMaxTokens   = 2048
	defaultTimeout     = 60 * time.Second

	webSearchTool = "web_search"
	noContent     = "No response generated"
)

var webSearchParameters = json.RawMessage(`{
  "type": "object",
  "properties": {
    "query": {
      "type": "string",
      "description": "The search query, e.g. \"Carbone restaurant NYC\" or \"best cocktail bars East Village\""
    }
  },
  "required": ["query"]
}`)

type GrokProvider struct {
	client  *resty.Client
	apiKey  string
	model   string
	baseURL string
	timeout time.Duration
}

var _ llm.LLMProvider = &GrokProvider{}

type Option func(*GrokProvider)

func WithBaseURL(url string) Option {
	return func(p *GrokProvider) {
		if url != "" {
			p.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithTimeout bounds every completion request, including the tool follow-up.
func WithTimeout(d time.Duration) Option {
	return func(p *GrokProvider) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func WithModel(model string) Option {
	return func(p *GrokProvider) {
		if model != "" {
			p.model = model
		}
	}
}

func NewGrokProvider(apiKey string, opts ...Option) *GrokProvider {
	p := &GrokProvider{
		client:  resty.New().SetHeader("Content-Type", "application/json"),
		apiKey:  apiKey,
		model:   DefaultModel,
		baseURL: DefaultBaseURL,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *GrokProvider) Complete(ctx context.Context, history []llm.Message, opts ...llm.Option) (*llm.Response, error) {
	if p.apiKey == "" {
		return nil, llm.ErrNotConfigured
	}

	options := llm.Apply(llm.Options{
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
		Model:       p.model,
	}, opts...)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	messages := toOpenAIMessages(history)
	req := p.newRequest(options, messages)
	if options.EnableSearch {
		req.Tools = []openai.Tool{{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        webSearchTool,
				Description: "Search the web for current information about restaurants, bars, clubs, venues, and places in NYC. Use this to find details like address, hours, reviews, and what places are known for.",
				Parameters:  webSearchParameters,
			},
		}}
		req.ToolChoice = "auto"
	}

	first, err := p.createChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}

	message := firstMessage(first)
	if call, ok := searchCall(message); ok {
		query := searchQuery(call)
		followUp := p.newRequest(options, append(messages,
			openai.ChatCompletionMessage{
				Role:      openai.ChatMessageRoleAssistant,
				ToolCalls: message.ToolCalls,
			},
			openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				ToolCallID: call.ID,
				Content:    placeholderToolResult(query),
			},
		))

		second, err := p.createChatCompletion(ctx, followUp)
		if err == nil {
			return &llm.Response{
				Content:     contentOrDefault(firstMessage(second).Content),
				Searched:    true,
				SearchQuery: query,
			}, nil
		}
		// A failed follow-up degrades to whatever the first reply carried
	}

	return &llm.Response{Content: contentOrDefault(message.Content)}, nil
}

func (p *GrokProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	res, err := p.Complete(ctx, history, opts...)
	if err != nil {
		return "", err
	}
	return res.Content, nil
}

func (p *GrokProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

func (p *GrokProvider) newRequest(options llm.Options, messages []openai.ChatCompletionMessage) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model:       options.Model,
		Messages:    messages,
		Temperature: float32(options.Temperature),
		MaxTokens:   options.MaxTokens,
	}
}

func (p *GrokProvider) createChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error) {
	var respBody openai.ChatCompletionResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(p.apiKey).
		SetBody(req).
		SetResult(&respBody).
		Post(p.baseURL + "/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("grok request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("grok error: status %d, body: %s", resp.StatusCode(), resp.String())
	}
	return &respBody, nil
}

func toOpenAIMessages(history []llm.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, msg := range history {
		role := msg.Role
		if role == "model" {
			role = llm.RoleAssistant
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}
	return out
}

func firstMessage(resp *openai.ChatCompletionResponse) openai.ChatCompletionMessage {
	if resp == nil || len(resp.Choices) == 0 {
		return openai.ChatCompletionMessage{}
	}
	return resp.Choices[0].Message
}

func searchCall(msg openai.ChatCompletionMessage) (openai.ToolCall, bool) {
	if len(msg.ToolCalls) == 0 {
		return openai.ToolCall{}, false
	}
	call := msg.ToolCalls[0]
	return call, call.Function.Name == webSearchTool
}

func searchQuery(call openai.ToolCall) string {
	var args struct {
		Query string `json:"query"`
	}
	_ = json.Unmarshal([]byte(call.Function.Arguments), &args)
	return args.Query
}

func placeholderToolResult(query string) string {
	return fmt.Sprintf("Web search performed for: %q. Use your knowledge to provide accurate information about this NYC place. Include address, neighborhood, type, price range, and what it's known for.", query)
}

func contentOrDefault(content string) string {
	if strings.TrimSpace(content) == "" {
		return noContent
	}
	return content
}
