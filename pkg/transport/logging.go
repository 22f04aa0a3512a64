package transport

import (
	"context"
	"log/slog"
	"time"

	"github.com/rhuss/ollagate/pkg/api"
	"github.com/rhuss/ollagate/pkg/auth"
)

// Logging returns middleware that emits one structured log entry per chat
// completion: request ID, caller fingerprint, model, stream flag, message
// count, duration, and the error when the call failed.
//
// HTTP-level details (status code, raw payload) are logged by the adapter.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next ChatCompleter) ChatCompleter {
		return ChatCompleterFunc(func(ctx context.Context, req *api.ChatRequest, w ResponseWriter) error {
			start := time.Now()

			err := next.CreateChatCompletion(ctx, req, w)

			attrs := []slog.Attr{
				slog.String("request_id", RequestIDFromContext(ctx)),
				slog.String("model", req.Model),
				slog.Bool("stream", req.Stream),
				slog.Int("messages", len(req.Messages)),
				slog.Duration("duration", time.Since(start)),
			}
			if id := auth.IdentityFromContext(ctx); id != nil {
				attrs = append(attrs, slog.String("subject", id.Subject))
			}

			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
				logger.LogAttrs(ctx, slog.LevelError, "chat completion failed", attrs...)
			} else {
				logger.LogAttrs(ctx, slog.LevelInfo, "chat completion", attrs...)
			}

			return err
		})
	}
}
