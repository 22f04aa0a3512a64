package transport

import (
	"context"

	"github.com/rhuss/ollagate/pkg/api"
)

// ChatCompleter handles the chat completion operation. The implementation
// receives a validated-shape request and writes the result (streaming chunks
// or a complete response) to the ResponseWriter.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req *api.ChatRequest, w ResponseWriter) error
}

// ChatCompleterFunc is an adapter that allows using an ordinary function
// as a ChatCompleter.
type ChatCompleterFunc func(ctx context.Context, req *api.ChatRequest, w ResponseWriter) error

// CreateChatCompletion calls f(ctx, req, w).
func (f ChatCompleterFunc) CreateChatCompletion(ctx context.Context, req *api.ChatRequest, w ResponseWriter) error {
	return f(ctx, req, w)
}

// ModelLister returns the models the gateway can serve.
type ModelLister interface {
	ListModels(ctx context.Context) (*api.ModelList, error)
}

// ResponseWriter abstracts streaming and non-streaming output for the handler.
// The transport layer creates a ResponseWriter for each request and provides
// it to the handler. The handler uses WriteChunk for streaming responses or
// WriteResponse for non-streaming responses.
//
// WriteChunk and WriteResponse are mutually exclusive on a single writer
// instance. Calling one after the other returns an error, as does calling
// WriteChunk after Close.
type ResponseWriter interface {
	// WriteChunk sends a single streaming chunk.
	WriteChunk(ctx context.Context, chunk *api.ChatCompletionChunk) error

	// WriteResponse sends a complete non-streaming response.
	WriteResponse(ctx context.Context, resp *api.ChatResponse) error

	// Close terminates a stream. For SSE this writes the [DONE] sentinel.
	// It is a no-op when nothing was streamed.
	Close() error

	// Flush ensures buffered data is sent to the client. Returns an error
	// if the client has disconnected.
	Flush() error
}
