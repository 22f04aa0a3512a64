// Package ollamatest provides a deterministic in-process Ollama server for
// tests and local runs. It answers /api/chat (single object or NDJSON
// stream), /api/tags, and /api/version, and counts chat calls so tests can
// assert that rejected requests never reached the upstream.
package ollamatest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/rhuss/ollagate/pkg/provider/ollama"
)

// Behavior controls how the stub answers /api/chat. The zero value echoes
// the last user message with done_reason "stop".
type Behavior struct {
	// Reply is the assistant content. Empty means echo the last user message.
	Reply string

	// DoneReason is reported on the final object ("stop" when empty).
	DoneReason string

	// Status, when non-zero and not 200, is returned with ErrorMessage
	// as a native {"error": "..."} body.
	Status       int
	ErrorMessage string

	// RawBody, when set, is written verbatim with status 200 instead of a
	// well-formed response.
	RawBody string

	// Delay is waited before answering. The wait ends early when the client
	// goes away.
	Delay time.Duration

	// StallAfter, in streaming mode, stops sending after this many content
	// lines and holds the connection open until the client goes away.
	StallAfter int
}

// Server is a stub Ollama server.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	behavior Behavior
	models   []string
	version  string
	calls    int
	requests []ollama.ChatRequest
}

// NewServer starts a stub server. Call Close when done.
func NewServer() *Server {
	s := &Server{
		models:  []string{"llama2:latest"},
		version: "0.5.7",
	}
	s.Server = httptest.NewServer(s.Handler())
	return s
}

// Handler returns the stub's HTTP handler, for use outside httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/tags", s.handleTags)
	mux.HandleFunc("GET /api/version", s.handleVersion)
	return mux
}

// NewHandler returns a stub handler that is not bound to a listener.
func NewHandler(b Behavior) (*Server, http.Handler) {
	s := &Server{
		behavior: b,
		models:   []string{"llama2:latest"},
		version:  "0.5.7",
	}
	return s, s.Handler()
}

// SetBehavior replaces the chat behavior.
func (s *Server) SetBehavior(b Behavior) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.behavior = b
}

// SetModels replaces the names reported by /api/tags.
func (s *Server) SetModels(names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models = append([]string(nil), names...)
}

// Calls returns the number of /api/chat requests received.
func (s *Server) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// LastRequest returns the most recent decoded /api/chat request.
func (s *Server) LastRequest() (ollama.ChatRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return ollama.ChatRequest{}, false
	}
	return s.requests[len(s.requests)-1], true
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ollama.ChatRequest
	decodeErr := json.NewDecoder(r.Body).Decode(&req)

	s.mu.Lock()
	s.calls++
	if decodeErr == nil {
		s.requests = append(s.requests, req)
	}
	b := s.behavior
	s.mu.Unlock()

	if decodeErr != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if b.Delay > 0 {
		select {
		case <-time.After(b.Delay):
		case <-r.Context().Done():
			return
		}
	}

	if b.Status != 0 && b.Status != http.StatusOK {
		writeError(w, b.Status, b.ErrorMessage)
		return
	}

	if b.RawBody != "" {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(b.RawBody))
		return
	}

	reply := b.Reply
	if reply == "" {
		reply = lastUserMessage(req.Messages)
	}
	doneReason := b.DoneReason
	if doneReason == "" {
		doneReason = "stop"
	}

	if req.Stream {
		s.streamChat(w, r, req.Model, reply, doneReason, b.StallAfter)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ollama.ChatResponse{
		Model:           req.Model,
		CreatedAt:       time.Now().UTC().Format(time.RFC3339Nano),
		Message:         ollama.Message{Role: "assistant", Content: reply},
		Done:            true,
		DoneReason:      doneReason,
		PromptEvalCount: len(req.Messages),
		EvalCount:       len(strings.Fields(reply)),
	})
}

func (s *Server) streamChat(w http.ResponseWriter, r *http.Request, model, reply, doneReason string, stallAfter int) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	rc := http.NewResponseController(w)
	enc := json.NewEncoder(w)

	for i, piece := range splitKeepSpaces(reply) {
		if stallAfter > 0 && i >= stallAfter {
			<-r.Context().Done()
			return
		}
		enc.Encode(ollama.ChatResponse{
			Model:     model,
			CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
			Message:   ollama.Message{Role: "assistant", Content: piece},
		})
		rc.Flush()
	}

	enc.Encode(ollama.ChatResponse{
		Model:      model,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339Nano),
		Message:    ollama.Message{Role: "assistant"},
		Done:       true,
		DoneReason: doneReason,
	})
	rc.Flush()
}

func (s *Server) handleTags(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	names := append([]string(nil), s.models...)
	s.mu.Unlock()

	resp := ollama.TagsResponse{Models: []ollama.ModelTag{}}
	modified := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, n := range names {
		resp.Models = append(resp.Models, ollama.ModelTag{Name: n, Model: n, ModifiedAt: modified})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	v := s.version
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ollama.VersionResponse{Version: v})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ollama.ErrorResponse{Error: message})
}

func lastUserMessage(msgs []ollama.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == "user" {
			return msgs[i].Content
		}
	}
	return ""
}

// splitKeepSpaces splits s into word pieces whose concatenation is s.
func splitKeepSpaces(s string) []string {
	var pieces []string
	start := 0
	for i := 1; i < len(s); i++ {
		if s[i] == ' ' {
			pieces = append(pieces, s[start:i])
			start = i
		}
	}
	if start < len(s) {
		pieces = append(pieces, s[start:])
	}
	return pieces
}
