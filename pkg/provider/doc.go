// Package provider defines the interface for LLM inference backends. Each
// adapter (e.g., ollama) handles its own backend protocol translation
// internally and reports results as Completion and Event values, keeping
// backend wire details invisible to the engine.
package provider
