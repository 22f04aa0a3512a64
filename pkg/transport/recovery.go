package transport

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/rhuss/ollagate/pkg/api"
)

// Recovery returns middleware that catches panics in the handler and
// converts them to server error responses. The server continues to
// accept new requests after a panic is recovered.
func Recovery() Middleware {
	return func(next ChatCompleter) ChatCompleter {
		return ChatCompleterFunc(func(ctx context.Context, req *api.ChatRequest, w ResponseWriter) (retErr error) {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("panic in chat handler",
						"request_id", RequestIDFromContext(ctx),
						"panic", fmt.Sprint(r),
						"stack", string(debug.Stack()),
					)
					retErr = api.NewServerError(fmt.Sprintf("internal server error: %v", r))
				}
			}()
			return next.CreateChatCompletion(ctx, req, w)
		})
	}
}
