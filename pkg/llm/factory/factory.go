package factory

import (
	"fmt"
	"time"

	"friendlist-be/pkg/llm"
	"friendlist-be/pkg/llm/grok"
	"friendlist-be/pkg/llm/ollama"
)

type Params struct {
	Provider      string
	Model         string
	GrokAPIKey    string
	GrokBaseURL   string
	OllamaBaseURL string
	Timeout       time.Duration
}

func NewLLMProvider(p Params) (llm.LLMProvider, error) {
	switch p.Provider {
	case "", "grok":
		// A missing key is reported per request so the rest of the service still boots.
		return grok.NewGrokProvider(p.GrokAPIKey,
			grok.WithBaseURL(p.GrokBaseURL),
			grok.WithModel(p.Model),
			grok.WithTimeout(p.Timeout),
		), nil
	case "ollama":
		baseURL := p.OllamaBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, p.Model, p.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", p.Provider)
	}
}
