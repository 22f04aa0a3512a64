package ollama

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/rhuss/ollagate/pkg/api"
	"github.com/rhuss/ollagate/pkg/debug"
	"github.com/rhuss/ollagate/pkg/provider"
)

// maxLineSize bounds a single NDJSON line.
const maxLineSize = 1 << 20

// parseNDJSONStream reads native stream lines from body, translates each to
// provider events, and sends them on ch. The channel is NOT closed by this
// function; the caller is responsible for closing it.
//
// Stream format:
//
//	{"model":"llama2","message":{"role":"assistant","content":"Hel"},"done":false}
//	{"model":"llama2","message":{"role":"assistant","content":"lo"},"done":false}
//	{"model":"llama2","message":{"role":"assistant","content":""},"done":true,"done_reason":"stop"}
//
// ctx is the caller's context; the HTTP call itself runs under a child
// context that the idle timer cancels. Each received line resets the idle
// timer. A malformed line ends the stream
// with an upstream_malformed error. A body that ends before a done line ends
// the stream with an upstream_error.
func parseNDJSONStream(ctx context.Context, body io.Reader, idle *idleTimer, timeout time.Duration, ch chan<- provider.Event) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	send := func(ev provider.Event) bool {
		select {
		case ch <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for scanner.Scan() {
		if idle != nil && !idle.reset() {
			break
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var chunk ChatResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			slog.Warn("malformed upstream stream line",
				"error", err.Error(),
				"data", debug.Truncate(string(line), 200),
			)
			send(provider.Event{Type: provider.EventError, Err: malformed("stream line", err)})
			return
		}

		if chunk.Error != "" {
			send(provider.Event{Type: provider.EventError, Err: api.NewUpstreamError(api.CodeUpstreamStatus, chunk.Error)})
			return
		}

		if chunk.Message.Content != "" {
			if !send(provider.Event{Type: provider.EventTextDelta, Delta: chunk.Message.Content}) {
				return
			}
		}

		if chunk.Done {
			debug.Log("upstream", "chat stream done",
				"model", chunk.Model,
				"done_reason", chunk.DoneReason,
				"eval_count", chunk.EvalCount,
			)
			send(provider.Event{
				Type:         provider.EventDone,
				FinishReason: MapFinishReason(true, chunk.DoneReason),
			})
			return
		}
	}

	if idle != nil && idle.fired() {
		send(provider.Event{
			Type: provider.EventError,
			Err:  api.NewUpstreamTimeoutError(fmt.Sprintf("upstream stream stalled for %s", timeout)),
		})
		return
	}

	if ctx.Err() != nil {
		return
	}

	err := scanner.Err()
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	send(provider.Event{
		Type: provider.EventError,
		Err:  api.NewUpstreamError(api.CodeUpstreamStatus, "upstream stream ended early: "+err.Error()),
	})
}
