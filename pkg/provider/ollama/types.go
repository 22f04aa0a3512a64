package ollama

import "time"

// Native /api/chat wire types.

// ChatRequest is the request body for POST /api/chat.
type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"` // always sent: Ollama streams when the field is absent
	Options  *Options  `json:"options,omitempty"`
}

// Message is one entry of the native conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options carries sampling parameters. Absent fields fall back to the model
// defaults configured in Ollama.
type Options struct {
	Temperature      *float64 `json:"temperature,omitempty"`
	TopP             *float64 `json:"top_p,omitempty"`
	NumPredict       *int     `json:"num_predict,omitempty"`
	Stop             []string `json:"stop,omitempty"`
	Seed             *int     `json:"seed,omitempty"`
	PresencePenalty  *float64 `json:"presence_penalty,omitempty"`
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty"`
}

// ChatResponse is a complete /api/chat response or one line of a stream.
type ChatResponse struct {
	Model           string  `json:"model"`
	CreatedAt       string  `json:"created_at"`
	Message         Message `json:"message"`
	Done            bool    `json:"done"`
	DoneReason      string  `json:"done_reason,omitempty"`
	TotalDuration   int64   `json:"total_duration,omitempty"`
	PromptEvalCount int     `json:"prompt_eval_count,omitempty"`
	EvalCount       int     `json:"eval_count,omitempty"`

	// Error is set on stream lines that report a mid-stream failure.
	Error string `json:"error,omitempty"`
}

// ErrorResponse is the body Ollama returns with non-2xx status codes.
type ErrorResponse struct {
	Error string `json:"error"`
}

// TagsResponse is the body of GET /api/tags.
type TagsResponse struct {
	Models []ModelTag `json:"models"`
}

// ModelTag describes one locally available model.
type ModelTag struct {
	Name       string    `json:"name"`
	Model      string    `json:"model"`
	ModifiedAt time.Time `json:"modified_at"`
	Size       int64     `json:"size"`
	Digest     string    `json:"digest"`
}

// VersionResponse is the body of GET /api/version.
type VersionResponse struct {
	Version string `json:"version"`
}
