// Package ollama implements provider.Provider for a local Ollama server.
//
// Requests are sent to the native /api/chat endpoint. Non-streaming calls
// decode a single JSON object; streaming calls read newline-delimited JSON,
// one object per line, until an object with done=true arrives. Model listing
// uses /api/tags and reachability checks use /api/version.
//
// The translation between the OpenAI chat format and the native format lives
// in translate.go and performs no I/O.
package ollama
