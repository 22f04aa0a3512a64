package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rhuss/ollagate/pkg/api"
	"github.com/rhuss/ollagate/pkg/transport"
)

// writerState tracks the state of an SSE ResponseWriter.
type writerState int

const (
	writerIdle      writerState = iota // Initial state, no writes yet
	writerStreaming                    // WriteChunk has been called at least once
	writerCompleted                    // [DONE] sent or WriteResponse called
)

// sseResponseWriter implements transport.ResponseWriter for HTTP/SSE responses.
// It handles both streaming (SSE) and non-streaming (JSON) output.
type sseResponseWriter struct {
	w  http.ResponseWriter
	rc *http.ResponseController

	mu       sync.Mutex
	state    writerState
	streamed bool
}

var _ transport.ResponseWriter = (*sseResponseWriter)(nil)

func newSSEResponseWriter(w http.ResponseWriter) *sseResponseWriter {
	return &sseResponseWriter{
		w:  w,
		rc: http.NewResponseController(w),
	}
}

// WriteChunk sends a single SSE event formatted as:
//
//	data: {json}\n
//	\n
func (s *sseResponseWriter) WriteChunk(ctx context.Context, chunk *api.ChatCompletionChunk) error {
	data, err := json.Marshal(chunk)
	if err != nil {
		return fmt.Errorf("failed to marshal chunk: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeDataLocked(data)
}

func (s *sseResponseWriter) writeDataLocked(data []byte) error {
	if s.state == writerCompleted {
		return errors.New("cannot write chunk: writer is completed")
	}

	// First event: set SSE headers. The server's write timeout bounds a
	// whole response; a stream is bounded by the upstream idle timeout
	// instead, so its deadline is lifted.
	if s.state == writerIdle {
		if err := s.rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
			return fmt.Errorf("failed to clear write deadline: %w", err)
		}
		s.w.Header().Set("Content-Type", "text/event-stream")
		s.w.Header().Set("Cache-Control", "no-cache")
		s.w.Header().Set("Connection", "keep-alive")
		s.w.WriteHeader(http.StatusOK)
		s.state = writerStreaming
		s.streamed = true
	}

	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("failed to write chunk: %w", err)
	}
	if err := s.rc.Flush(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	return nil
}

// WriteResponse sends a complete non-streaming JSON response.
// This is mutually exclusive with WriteChunk.
func (s *sseResponseWriter) WriteResponse(ctx context.Context, resp *api.ChatResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == writerStreaming {
		return errors.New("cannot write response: streaming has already started")
	}
	if s.state == writerCompleted {
		return errors.New("cannot write response: writer is completed")
	}

	s.w.Header().Set("Content-Type", "application/json")
	s.state = writerCompleted

	if err := json.NewEncoder(s.w).Encode(resp); err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	return nil
}

// Close sends the [DONE] sentinel that terminates a stream.
func (s *sseResponseWriter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *sseResponseWriter) closeLocked() error {
	if s.state != writerStreaming {
		return nil
	}
	s.state = writerCompleted
	if _, err := fmt.Fprint(s.w, "data: [DONE]\n\n"); err != nil {
		return fmt.Errorf("failed to write [DONE]: %w", err)
	}
	if err := s.rc.Flush(); err != nil {
		return fmt.Errorf("failed to flush [DONE]: %w", err)
	}
	return nil
}

// writeStreamError reports a failure after streaming began. The error
// envelope is sent as a data event followed by [DONE].
func (s *sseResponseWriter) writeStreamError(apiErr *api.APIError) error {
	data, err := json.Marshal(api.ErrorResponse{Error: apiErr})
	if err != nil {
		return fmt.Errorf("failed to marshal error: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != writerStreaming {
		return errors.New("cannot write stream error: not streaming")
	}
	if err := s.writeDataLocked(data); err != nil {
		return err
	}
	return s.closeLocked()
}

// Flush ensures buffered data is sent to the client.
func (s *sseResponseWriter) Flush() error {
	return s.rc.Flush()
}

// hasStartedStreaming returns true if at least one SSE event has been written.
func (s *sseResponseWriter) hasStartedStreaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamed
}

// isCompleted reports whether a response or the [DONE] sentinel was written.
func (s *sseResponseWriter) isCompleted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == writerCompleted
}
