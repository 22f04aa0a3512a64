package ollama

import "time"

// Config holds configuration for the Ollama provider adapter.
type Config struct {
	// BaseURL is the Ollama server URL (e.g., "http://localhost:11434").
	BaseURL string

	// Timeout bounds a non-streaming call end to end, and the silence
	// between two lines of a streaming call. Defaults to 120s.
	Timeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL: baseURL,
		Timeout: 120 * time.Second,
	}
}
