// Package transport defines the handler interfaces and middleware chain for
// the ollagate HTTP/SSE transport layer.
//
// The transport layer bridges OpenAI-compatible clients and the engine. It
// deserializes incoming requests into the types defined in pkg/api,
// dispatches them for processing, and serializes responses back to the
// client as a JSON body or as a server-sent event stream.
//
// # Handler Interfaces
//
//   - ChatCompleter handles POST /v1/chat/completions.
//   - ModelLister handles GET /v1/models.
//
// The ResponseWriter interface abstracts streaming and non-streaming output,
// allowing the handler to emit SSE chunks or complete JSON responses without
// knowing the underlying transport protocol.
//
// # Middleware
//
// The middleware chain wraps ChatCompleter with cross-cutting concerns:
// panic recovery, request ID assignment (X-Request-ID), and structured
// logging via log/slog.
package transport
