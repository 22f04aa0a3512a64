// Package engine implements the chat completion pipeline of ollagate.
//
// The Engine implements transport.ChatCompleter and transport.ModelLister.
// For each request it validates the body, applies the configured default
// model, invokes the provider exactly once, and assembles the
// OpenAI-compatible result: a complete chat.completion object, or a
// sequence of chat.completion.chunk events when the client asked for
// streaming. Usage figures are estimates computed by package usage.
package engine
