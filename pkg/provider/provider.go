package provider

import (
	"context"

	"github.com/rhuss/ollagate/pkg/api"
)

// Provider abstracts an LLM inference backend. Each adapter translates the
// OpenAI-style request into its own wire protocol and back.
//
// Implementations must be safe for concurrent use by multiple goroutines.
// Errors returned by the methods are *api.APIError values.
type Provider interface {
	// Complete performs non-streaming inference. Exactly one backend call is
	// made per invocation; nothing is retried.
	Complete(ctx context.Context, req *api.ChatRequest) (*Completion, error)

	// Stream performs streaming inference. The returned channel receives
	// Event values and is closed by the provider when the stream completes
	// or errors.
	Stream(ctx context.Context, req *api.ChatRequest) (<-chan Event, error)

	// ListModels returns available models from the backend.
	ListModels(ctx context.Context) ([]ModelInfo, error)

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases provider resources (HTTP clients, connections).
	Close() error
}
