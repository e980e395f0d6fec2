package dto

import (
	"friendlist-be/pkg/assistant/conversation"
	"friendlist-be/pkg/llm"
)

type SubmitTurnRequest struct {
	Text string `json:"text" validate:"required,max=4000"`
}

type SubmitTurnResponse struct {
	Reply        *conversation.Message `json:"reply"`
	Conversation conversation.Snapshot `json:"conversation"`
}

type DecisionResponse struct {
	Message      *conversation.Message `json:"message"`
	Conversation conversation.Snapshot `json:"conversation"`
}

// ChatCompletionRequest is the raw gateway call exposed at /api/grok.
type ChatCompletionRequest struct {
	Messages     []llm.Message `json:"messages" validate:"required,min=1,dive"`
	EnableSearch *bool         `json:"enableSearch"`
}
