package provider

import "github.com/rhuss/ollagate/pkg/api"

// Completion is the backend's complete non-streaming answer, reduced to what
// the engine needs to build an OpenAI response.
type Completion struct {
	// Model is the model name reported by the backend.
	Model string

	// Role of the generated message; always assistant for chat backends.
	Role api.MessageRole

	// Content is the generated text.
	Content string

	// FinishReason is stop or length.
	FinishReason api.FinishReason

	// PromptEvalCount and EvalCount are the backend's own token counts when
	// it reports them (0 otherwise). They are informational only.
	PromptEvalCount int
	EvalCount       int
}

// EventType classifies a streaming event from the backend.
type EventType int

const (
	EventTextDelta EventType = iota // Incremental text content
	EventDone                       // Stream finished
	EventError                      // Stream error
)

// Event is a single streaming event from the backend.
type Event struct {
	// Type indicates what kind of event this is.
	Type EventType

	// Delta contains incremental text.
	Delta string

	// FinishReason is populated on EventDone.
	FinishReason api.FinishReason

	// Err is populated on EventError.
	Err error
}

// ModelInfo holds information about a model served by the provider.
type ModelInfo struct {
	ID      string `json:"id"`
	Created int64  `json:"created,omitempty"`
	OwnedBy string `json:"owned_by,omitempty"`
}
