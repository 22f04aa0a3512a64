package api

import (
	"encoding/json"
	"fmt"
)

// ---------------------------------------------------------------------------
// Messages
// ---------------------------------------------------------------------------

// MessageRole identifies the author of a chat message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is a single chat turn.
type Message struct {
	Role    MessageRole `json:"role" validate:"required,oneof=system user assistant"`
	Content string      `json:"content"`
}

// ---------------------------------------------------------------------------
// Request
// ---------------------------------------------------------------------------

// StopSequences holds the "stop" request field. Clients may send either a
// single string or an array of strings; both decode into a slice.
type StopSequences []string

// UnmarshalJSON accepts a string, an array of strings, or null.
func (s *StopSequences) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = nil
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*s = nil
		} else {
			*s = StopSequences{single}
		}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("stop must be a string or an array of strings")
	}
	*s = list
	return nil
}

// ChatRequest is the body of POST /v1/chat/completions.
type ChatRequest struct {
	Model            string        `json:"model" validate:"required"`
	Messages         []Message     `json:"messages" validate:"required,min=1,dive"`
	Temperature      *float64      `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	TopP             *float64      `json:"top_p,omitempty" validate:"omitempty,gte=0,lte=1"`
	N                *int          `json:"n,omitempty" validate:"omitempty,eq=1"`
	MaxTokens        *int          `json:"max_tokens,omitempty" validate:"omitempty,gt=0"`
	Stream           bool          `json:"stream,omitempty"`
	Stop             StopSequences `json:"stop,omitempty"`
	PresencePenalty  *float64      `json:"presence_penalty,omitempty"`
	FrequencyPenalty *float64      `json:"frequency_penalty,omitempty"`
	Seed             *int          `json:"seed,omitempty"`
	User             string        `json:"user,omitempty"`
}

// ---------------------------------------------------------------------------
// Response
// ---------------------------------------------------------------------------

// FinishReason explains why generation stopped.
type FinishReason string

const (
	FinishReasonStop   FinishReason = "stop"
	FinishReasonLength FinishReason = "length"
)

const (
	ObjectChatCompletion      = "chat.completion"
	ObjectChatCompletionChunk = "chat.completion.chunk"
	ObjectList                = "list"
	ObjectModel               = "model"
)

// Usage holds estimated token counts. The values come from a length
// heuristic (see package usage), not from a tokenizer.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// NewUsage builds a Usage whose total is the sum of its parts.
func NewUsage(prompt, completion int) Usage {
	return Usage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
	}
}

// Choice is one generated alternative in a ChatResponse.
type Choice struct {
	Index        int          `json:"index"`
	Message      Message      `json:"message"`
	FinishReason FinishReason `json:"finish_reason"`
}

// ChatResponse is the non-streaming chat completion result.
type ChatResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// ---------------------------------------------------------------------------
// Streaming
// ---------------------------------------------------------------------------

// Delta carries the incremental part of a streamed message.
type Delta struct {
	Role    MessageRole `json:"role,omitempty"`
	Content string      `json:"content,omitempty"`
}

// ChunkChoice is one choice inside a streamed chunk. FinishReason stays
// null until the final chunk.
type ChunkChoice struct {
	Index        int           `json:"index"`
	Delta        Delta         `json:"delta"`
	FinishReason *FinishReason `json:"finish_reason"`
}

// ChatCompletionChunk is a single server-sent event payload of a streamed
// chat completion.
type ChatCompletionChunk struct {
	ID      string        `json:"id"`
	Object  string        `json:"object"`
	Created int64         `json:"created"`
	Model   string        `json:"model"`
	Choices []ChunkChoice `json:"choices"`
	Usage   *Usage        `json:"usage,omitempty"`
}

// ---------------------------------------------------------------------------
// Models
// ---------------------------------------------------------------------------

// Model describes a model the upstream server can serve.
type Model struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

// ModelList is the body of GET /v1/models.
type ModelList struct {
	Object string  `json:"object"`
	Data   []Model `json:"data"`
}
