// Package api defines the OpenAI-compatible wire types served by ollagate.
//
// It covers the chat completion request and response bodies, the streaming
// chunk format, the model list, the error envelope, completion ID
// generation, and request validation. All types produce JSON compatible with
// the OpenAI Chat Completions API so that existing client libraries work
// unchanged against the gateway.
//
// Core types:
//   - [ChatRequest]: client request for a chat completion
//   - [ChatResponse]: non-streaming completion result
//   - [ChatCompletionChunk]: one server-sent event of a streamed completion
//   - [APIError]: structured error with type, code, param, and message
//
// The package performs no I/O.
package api
