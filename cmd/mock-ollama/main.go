// Command mock-ollama runs a deterministic stand-in for an Ollama server.
// It echoes the last user message (or a fixed reply) through /api/chat,
// in single-object or NDJSON streaming mode, and answers /api/tags and
// /api/version.
//
// Configuration:
//
//	MOCK_PORT        - Listen port (default: 11434)
//	MOCK_REPLY       - Fixed assistant reply (default: echo)
//	MOCK_DELAY       - Delay before answering, as a Go duration (default: 0)
//	MOCK_DONE_REASON - Reported done_reason (default: stop)
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rhuss/ollagate/pkg/provider/ollama/ollamatest"
)

func main() {
	port := envOrDefault("MOCK_PORT", "11434")

	behavior := ollamatest.Behavior{
		Reply:      os.Getenv("MOCK_REPLY"),
		DoneReason: os.Getenv("MOCK_DONE_REASON"),
	}
	if v := os.Getenv("MOCK_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Error("invalid MOCK_DELAY", "value", v, "error", err)
			os.Exit(1)
		}
		behavior.Delay = d
	}

	_, handler := ollamatest.NewHandler(behavior)

	mux := http.NewServeMux()
	mux.Handle("/api/", handler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})

	srv := &http.Server{Addr: ":" + port, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("mock ollama starting", "port", port, "delay", behavior.Delay)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("mock ollama failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("mock ollama shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

func envOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
