package api

import "github.com/google/uuid"

const completionIDPrefix = "chatcmpl-"

// NewCompletionID generates a chat completion ID: "chatcmpl-" followed by
// a random (version 4) UUID.
func NewCompletionID() string {
	return completionIDPrefix + uuid.NewString()
}
