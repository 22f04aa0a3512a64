// Package debug provides logging setup and category-based debug logging
// for ollagate.
//
// Two orthogonal controls:
//   - Categories (WHAT to debug): controlled via OLLAGATE_DEBUG env or config
//   - Levels (HOW MUCH detail): controlled via OLLAGATE_LOG_LEVEL env or config
//
// Usage:
//
//	debug.Log("upstream", "request", "method", "POST", "url", url)
//	if debug.Enabled("upstream") { /* expensive formatting */ }
//
// Categories: upstream, engine, auth, transport, streaming, config, all.
// Levels: ERROR, WARN, INFO, DEBUG, TRACE.
package debug

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LevelTrace is below slog.LevelDebug for maximum verbosity.
// At TRACE, full untruncated request/response bodies are logged.
const LevelTrace = slog.LevelDebug - 4

// categories holds the set of enabled debug categories.
// Access is read-only after Setup(), so no synchronization needed.
var categories map[string]bool

// rawOut receives Raw output. It is the same destination as the slog handler.
var rawOut io.Writer = os.Stderr

func init() {
	// Initialize from environment for immediate availability.
	// Setup() re-initializes with config values.
	categories = parseCategories(os.Getenv("OLLAGATE_DEBUG"))
}

// Options configures the process logger.
type Options struct {
	Level      string // TRACE, DEBUG, INFO, WARN, ERROR
	Format     string // "text" or "json"
	Categories string // comma-separated debug categories

	// File, when set, receives a copy of every log line. The file is rotated
	// once it reaches MaxSizeMB.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Setup configures the default slog logger and the debug categories. The
// environment (OLLAGATE_DEBUG, OLLAGATE_LOG_LEVEL) overrides opts. When a log
// file is configured, the returned Closer must be closed on shutdown; it is
// a no-op otherwise.
func Setup(opts Options, stderr io.Writer) (io.Closer, error) {
	cats := os.Getenv("OLLAGATE_DEBUG")
	if cats == "" {
		cats = opts.Categories
	}
	categories = parseCategories(cats)

	level := os.Getenv("OLLAGATE_LOG_LEVEL")
	if level == "" {
		level = opts.Level
	}

	out := stderr
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		}
		out = io.MultiWriter(stderr, rotated)
		closer = rotated
	}
	rawOut = out

	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "json":
		handler = slog.NewJSONHandler(out, handlerOpts)
	case "text", "":
		handler = slog.NewTextHandler(out, handlerOpts)
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	slog.SetDefault(slog.New(handler))
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Enabled reports whether debug output is active for the given category.
// This is a constant-time map lookup with zero allocation.
func Enabled(category string) bool {
	return categories["all"] || categories[category]
}

// Log emits a debug message for the given category.
// If the category is not enabled, this is a no-op (zero overhead).
func Log(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Debug(msg, append([]any{"debug", category}, args...)...)
}

// TraceIsEnabled reports whether TRACE level is active for the given category.
func TraceIsEnabled(category string) bool {
	if !Enabled(category) {
		return false
	}
	return slog.Default().Enabled(nil, LevelTrace)
}

// Raw writes plain text to the log output without any slog formatting.
// Use this for copy-paste-ready output (full HTTP bodies).
// Only emitted when category is enabled AND level is TRACE.
func Raw(category string, text string) {
	if !TraceIsEnabled(category) {
		return
	}
	fmt.Fprintln(rawOut, text)
}

// ParseLevel converts a level string to a slog.Level.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return slog.LevelDebug
	case "INFO", "":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Truncate returns s cut to at most maxLen bytes, with "..." appended if
// truncated. The cut never splits a UTF-8 sequence.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func parseCategories(s string) map[string]bool {
	m := make(map[string]bool)
	if s == "" {
		return m
	}
	for _, cat := range strings.Split(s, ",") {
		cat = strings.TrimSpace(strings.ToLower(cat))
		if cat != "" {
			m[cat] = true
		}
	}
	return m
}
