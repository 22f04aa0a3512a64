package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rhuss/ollagate/pkg/api"
	"github.com/rhuss/ollagate/pkg/auth"
	"github.com/rhuss/ollagate/pkg/auth/apikey"
	"github.com/rhuss/ollagate/pkg/tokens"
	"github.com/rhuss/ollagate/pkg/transport"
)

// mockCompleter is a test ChatCompleter that returns canned responses.
type mockCompleter struct {
	response *api.ChatResponse
	chunks   []*api.ChatCompletionChunk
	err      error
	calls    atomic.Int32
}

func (m *mockCompleter) CreateChatCompletion(ctx context.Context, req *api.ChatRequest, w transport.ResponseWriter) error {
	m.calls.Add(1)
	if len(m.chunks) > 0 {
		for _, c := range m.chunks {
			if err := w.WriteChunk(ctx, c); err != nil {
				return err
			}
		}
		if m.err != nil {
			return m.err
		}
		return w.Close()
	}
	if m.err != nil {
		return m.err
	}
	return w.WriteResponse(ctx, m.response)
}

type mockLister struct {
	list *api.ModelList
	err  error
}

func (m *mockLister) ListModels(_ context.Context) (*api.ModelList, error) {
	return m.list, m.err
}

func newTestAdapter(completer transport.ChatCompleter, models transport.ModelLister) *Adapter {
	return NewAdapter(completer, models, DefaultConfig())
}

func testRequest() api.ChatRequest {
	return api.ChatRequest{
		Model:    "llama2",
		Messages: []api.Message{{Role: api.RoleUser, Content: "hi"}},
	}
}

func postJSON(t *testing.T, srv *httptest.Server, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	resp, err := http.Post(srv.URL+"/v1/chat/completions", "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST error: %v", err)
	}
	return resp
}

func decodeError(t *testing.T, resp *http.Response) *api.APIError {
	t.Helper()
	var errResp api.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if errResp.Error == nil {
		t.Fatal("error envelope has no error")
	}
	return errResp.Error
}

func stopReason() *api.FinishReason {
	r := api.FinishReasonStop
	return &r
}

// --- Non-streaming ---

func TestNonStreamingPostReturnsJSON(t *testing.T) {
	completer := &mockCompleter{
		response: &api.ChatResponse{
			ID:     "chatcmpl-3f1e2d4c-5b6a-4789-8abc-def012345678",
			Object: api.ObjectChatCompletion,
			Model:  "llama2",
			Choices: []api.Choice{{
				Message:      api.Message{Role: api.RoleAssistant, Content: "hello"},
				FinishReason: api.FinishReasonStop,
			}},
			Usage: api.NewUsage(1, 1),
		},
	}

	srv := httptest.NewServer(newTestAdapter(completer, nil).Handler())
	defer srv.Close()

	resp := postJSON(t, srv, testRequest())
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}

	var got api.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if got.Choices[0].Message.Content != "hello" {
		t.Errorf("content = %q, want %q", got.Choices[0].Message.Content, "hello")
	}
}

func TestJSONContentTypeWithCharsetAccepted(t *testing.T) {
	completer := &mockCompleter{response: &api.ChatResponse{Object: api.ObjectChatCompletion}}
	srv := httptest.NewServer(newTestAdapter(completer, nil).Handler())
	defer srv.Close()

	data, _ := json.Marshal(testRequest())
	resp, err := http.Post(srv.URL+"/v1/chat/completions", "application/json; charset=utf-8", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestInvalidJSONBodyReturns400(t *testing.T) {
	completer := &mockCompleter{}
	srv := httptest.NewServer(newTestAdapter(completer, nil).Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/chat/completions", "application/json", strings.NewReader("{invalid"))
	if err != nil {
		t.Fatalf("POST error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	apiErr := decodeError(t, resp)
	if apiErr.Type != api.ErrorTypeInvalidRequest {
		t.Errorf("error type = %q, want %q", apiErr.Type, api.ErrorTypeInvalidRequest)
	}
	if apiErr.Code != api.CodeInvalidJSON {
		t.Errorf("error code = %q, want %q", apiErr.Code, api.CodeInvalidJSON)
	}
	if completer.calls.Load() != 0 {
		t.Errorf("completer called %d times, want 0", completer.calls.Load())
	}
}

func TestOversizedBodyReturns413(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBodySize = 10
	srv := httptest.NewServer(NewAdapter(&mockCompleter{}, nil, cfg).Handler())
	defer srv.Close()

	resp := postJSON(t, srv, testRequest())
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusRequestEntityTooLarge)
	}
}

func TestWrongContentTypeReturns415(t *testing.T) {
	srv := httptest.NewServer(newTestAdapter(&mockCompleter{}, nil).Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/chat/completions", "text/plain", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("POST error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnsupportedMediaType)
	}
}

func TestUnknownPathReturns404Envelope(t *testing.T) {
	srv := httptest.NewServer(newTestAdapter(&mockCompleter{}, nil).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/nonexistent")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	if apiErr := decodeError(t, resp); apiErr.Type != api.ErrorTypeNotFound {
		t.Errorf("error type = %q, want %q", apiErr.Type, api.ErrorTypeNotFound)
	}
}

func TestHandlerErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        *api.APIError
		wantStatus int
	}{
		{"invalid_request -> 400", api.NewInvalidRequestError("messages", api.CodeInvalidValue, "empty"), http.StatusBadRequest},
		{"unreachable -> 502", api.NewUpstreamUnavailableError("connection refused"), http.StatusBadGateway},
		{"timeout -> 504", api.NewUpstreamTimeoutError("deadline exceeded"), http.StatusGatewayTimeout},
		{"upstream status -> 502", api.NewUpstreamError(api.CodeUpstreamStatus, "model not found"), http.StatusBadGateway},
		{"server_error -> 500", api.NewServerError("internal"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(newTestAdapter(&mockCompleter{err: tt.err}, nil).Handler())
			defer srv.Close()

			resp := postJSON(t, srv, testRequest())
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			apiErr := decodeError(t, resp)
			if apiErr.Type != tt.err.Type {
				t.Errorf("error type = %q, want %q", apiErr.Type, tt.err.Type)
			}
			if apiErr.Code != tt.err.Code {
				t.Errorf("error code = %q, want %q", apiErr.Code, tt.err.Code)
			}
		})
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv := httptest.NewServer(newTestAdapter(&mockCompleter{}, nil).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); len(got) != 32 {
		t.Errorf("generated X-Request-ID = %q, want 32 hex chars", got)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	req.Header.Set("X-Request-ID", "client-id-1")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "client-id-1" {
		t.Errorf("X-Request-ID = %q, want %q", got, "client-id-1")
	}
}

func TestRequestIDReachesCompleter(t *testing.T) {
	var seen string
	completer := transport.ChatCompleterFunc(func(ctx context.Context, req *api.ChatRequest, w transport.ResponseWriter) error {
		seen = transport.RequestIDFromContext(ctx)
		return w.WriteResponse(ctx, &api.ChatResponse{})
	})
	srv := httptest.NewServer(newTestAdapter(completer, nil).Handler())
	defer srv.Close()

	data, _ := json.Marshal(testRequest())
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/v1/chat/completions", bytes.NewReader(data))
	req.Header.Set("X-Request-ID", "trace-42")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST error: %v", err)
	}
	resp.Body.Close()

	if seen != "trace-42" {
		t.Errorf("request ID in context = %q, want %q", seen, "trace-42")
	}
}

// --- Health, models, metrics ---

func TestHealthEndpoint(t *testing.T) {
	srv := httptest.NewServer(newTestAdapter(&mockCompleter{}, nil).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	var got healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if got.Status != "ok" {
		t.Errorf("status = %q, want %q", got.Status, "ok")
	}
	if got.Timestamp == "" {
		t.Error("timestamp is empty")
	}
}

func TestListModels(t *testing.T) {
	lister := &mockLister{list: &api.ModelList{
		Object: api.ObjectList,
		Data:   []api.Model{{ID: "llama2:latest", Object: api.ObjectModel, OwnedBy: "ollama"}},
	}}
	srv := httptest.NewServer(newTestAdapter(&mockCompleter{}, lister).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/models")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	var got api.ModelList
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(got.Data) != 1 || got.Data[0].ID != "llama2:latest" {
		t.Errorf("models = %+v, want [llama2:latest]", got.Data)
	}
}

func TestListModelsUpstreamError(t *testing.T) {
	lister := &mockLister{err: api.NewUpstreamUnavailableError("connection refused")}
	srv := httptest.NewServer(newTestAdapter(&mockCompleter{}, lister).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/models")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadGateway)
	}
}

func TestListModelsWithoutLister(t *testing.T) {
	srv := httptest.NewServer(newTestAdapter(&mockCompleter{}, nil).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/models")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := httptest.NewServer(newTestAdapter(&mockCompleter{}, nil).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := httptest.NewServer(newTestAdapter(&mockCompleter{}, nil).Handler())
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/v1/chat/completions", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS error: %v", err)
	}
	resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, "*")
	}
}

func TestCORSRestrictedOrigins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CORSOrigins = []string{"https://app.example.com"}
	srv := httptest.NewServer(NewAdapter(&mockCompleter{}, nil, cfg).Handler())
	defer srv.Close()

	tests := []struct {
		origin string
		want   string
	}{
		{"https://app.example.com", "https://app.example.com"},
		{"https://evil.example.com", ""},
	}
	for _, tt := range tests {
		req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/v1/chat/completions", nil)
		req.Header.Set("Origin", tt.origin)
		req.Header.Set("Access-Control-Request-Method", "POST")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("OPTIONS error: %v", err)
		}
		resp.Body.Close()

		if got := resp.Header.Get("Access-Control-Allow-Origin"); got != tt.want {
			t.Errorf("origin %s: Access-Control-Allow-Origin = %q, want %q", tt.origin, got, tt.want)
		}
	}
}

// --- Authentication ---

func newAuthAdapter(completer transport.ChatCompleter) *Adapter {
	cfg := DefaultConfig()
	cfg.Auth = &auth.AuthChain{
		Authenticators:  []auth.Authenticator{apikey.New(tokens.New("secret-token"))},
		DefaultDecision: auth.No,
	}
	return NewAdapter(completer, nil, cfg)
}

func TestAuthRejectsMissingToken(t *testing.T) {
	completer := &mockCompleter{response: &api.ChatResponse{}}
	srv := httptest.NewServer(newAuthAdapter(completer).Handler())
	defer srv.Close()

	resp := postJSON(t, srv, testRequest())
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
	if apiErr := decodeError(t, resp); apiErr.Type != api.ErrorTypeAuthentication {
		t.Errorf("error type = %q, want %q", apiErr.Type, api.ErrorTypeAuthentication)
	}
	if completer.calls.Load() != 0 {
		t.Errorf("completer called %d times, want 0", completer.calls.Load())
	}
}

func TestAuthAcceptsKnownToken(t *testing.T) {
	completer := &mockCompleter{response: &api.ChatResponse{Object: api.ObjectChatCompletion}}
	srv := httptest.NewServer(newAuthAdapter(completer).Handler())
	defer srv.Close()

	data, _ := json.Marshal(testRequest())
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/v1/chat/completions", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer secret-token")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if completer.calls.Load() != 1 {
		t.Errorf("completer called %d times, want 1", completer.calls.Load())
	}
}

func TestAuthBypassesHealthAndMetrics(t *testing.T) {
	srv := httptest.NewServer(newAuthAdapter(&mockCompleter{}).Handler())
	defer srv.Close()

	for _, path := range []string{"/health", "/healthz", "/metrics"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s error: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d, want %d", path, resp.StatusCode, http.StatusOK)
		}
	}
}

func TestAuthBypassesCustomMetricsPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MetricsPath = "/internal/metrics"
	cfg.Auth = &auth.AuthChain{
		Authenticators:  []auth.Authenticator{apikey.New(tokens.New("secret-token"))},
		DefaultDecision: auth.No,
	}
	srv := httptest.NewServer(NewAdapter(&mockCompleter{}, nil, cfg).Handler())
	defer srv.Close()

	tests := []struct {
		path string
		want int
	}{
		{"/internal/metrics", http.StatusOK},
		{"/metrics", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		resp, err := http.Get(srv.URL + tt.path)
		if err != nil {
			t.Fatalf("GET %s error: %v", tt.path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != tt.want {
			t.Errorf("GET %s status = %d, want %d", tt.path, resp.StatusCode, tt.want)
		}
	}
}

// --- Streaming ---

func TestStreamingOutlivesWriteTimeout(t *testing.T) {
	const (
		writeTimeout = 300 * time.Millisecond
		chunkCount   = 10
		chunkGap     = 100 * time.Millisecond
	)

	slow := transport.ChatCompleterFunc(func(ctx context.Context, req *api.ChatRequest, w transport.ResponseWriter) error {
		for i := 0; i < chunkCount; i++ {
			chunk := &api.ChatCompletionChunk{
				ID:      "chatcmpl-slow",
				Object:  api.ObjectChatCompletionChunk,
				Choices: []api.ChunkChoice{{Delta: api.Delta{Content: "x"}}},
			}
			if err := w.WriteChunk(ctx, chunk); err != nil {
				return err
			}
			select {
			case <-time.After(chunkGap):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return w.Close()
	})

	gw := NewServer(slow, nil, WithTimeouts(5*time.Second, writeTimeout))
	srv := httptest.NewUnstartedServer(gw.Handler())
	srv.Config.WriteTimeout = writeTimeout
	srv.Start()
	defer srv.Close()

	req := testRequest()
	req.Stream = true
	start := time.Now()
	resp := postJSON(t, srv, req)
	defer resp.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("reading stream: %v", err)
	}
	body := buf.String()

	if elapsed := time.Since(start); elapsed <= writeTimeout {
		t.Fatalf("stream finished in %v, want longer than the write timeout %v", elapsed, writeTimeout)
	}
	if n := strings.Count(body, "data: {"); n != chunkCount {
		t.Errorf("chunk count = %d, want %d", n, chunkCount)
	}
	if !strings.HasSuffix(body, "data: [DONE]\n\n") {
		t.Errorf("stream does not end with [DONE]:\n%s", body)
	}
}

func TestStreamingPostReturnsSSE(t *testing.T) {
	completer := &mockCompleter{
		chunks: []*api.ChatCompletionChunk{
			{ID: "chatcmpl-1", Object: api.ObjectChatCompletionChunk, Choices: []api.ChunkChoice{{Delta: api.Delta{Role: api.RoleAssistant}}}},
			{ID: "chatcmpl-1", Object: api.ObjectChatCompletionChunk, Choices: []api.ChunkChoice{{Delta: api.Delta{Content: "hel"}}}},
			{ID: "chatcmpl-1", Object: api.ObjectChatCompletionChunk, Choices: []api.ChunkChoice{{Delta: api.Delta{Content: "lo"}}}},
			{ID: "chatcmpl-1", Object: api.ObjectChatCompletionChunk, Choices: []api.ChunkChoice{{FinishReason: stopReason()}}},
		},
	}

	srv := httptest.NewServer(newTestAdapter(completer, nil).Handler())
	defer srv.Close()

	req := testRequest()
	req.Stream = true
	resp := postJSON(t, srv, req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want %q", ct, "text/event-stream")
	}

	buf := new(bytes.Buffer)
	buf.ReadFrom(resp.Body)
	body := buf.String()

	if n := strings.Count(body, "data: {"); n != 4 {
		t.Errorf("chunk count = %d, want 4 in:\n%s", n, body)
	}
	if !strings.HasSuffix(body, "data: [DONE]\n\n") {
		t.Errorf("stream does not end with [DONE]:\n%s", body)
	}
}

func TestStreamingErrorBeforeChunksReturnsJSON(t *testing.T) {
	completer := &mockCompleter{err: api.NewUpstreamTimeoutError("upstream did not respond")}
	srv := httptest.NewServer(newTestAdapter(completer, nil).Handler())
	defer srv.Close()

	req := testRequest()
	req.Stream = true
	resp := postJSON(t, srv, req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusGatewayTimeout)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}
}

func TestStreamingErrorMidStreamSendsErrorEvent(t *testing.T) {
	completer := &mockCompleter{
		chunks: []*api.ChatCompletionChunk{
			{ID: "chatcmpl-1", Object: api.ObjectChatCompletionChunk, Choices: []api.ChunkChoice{{Delta: api.Delta{Role: api.RoleAssistant}}}},
		},
		err: api.NewUpstreamError(api.CodeUpstreamStatus, "upstream stream ended early"),
	}
	srv := httptest.NewServer(newTestAdapter(completer, nil).Handler())
	defer srv.Close()

	req := testRequest()
	req.Stream = true
	resp := postJSON(t, srv, req)
	defer resp.Body.Close()

	buf := new(bytes.Buffer)
	buf.ReadFrom(resp.Body)
	body := buf.String()

	if !strings.Contains(body, `"type":"upstream_error"`) {
		t.Errorf("missing error event in:\n%s", body)
	}
	if !strings.HasSuffix(body, "data: [DONE]\n\n") {
		t.Errorf("stream does not end with [DONE]:\n%s", body)
	}
}
