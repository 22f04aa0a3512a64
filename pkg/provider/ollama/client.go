package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rhuss/ollagate/pkg/api"
	"github.com/rhuss/ollagate/pkg/debug"
	"github.com/rhuss/ollagate/pkg/provider"
)

// Provider implements provider.Provider for an Ollama server.
type Provider struct {
	cfg    Config
	client *http.Client // bounded by cfg.Timeout
	stream *http.Client // no overall timeout; see Stream
}

// Ensure Provider implements provider.Provider at compile time.
var _ provider.Provider = (*Provider)(nil)

// New creates a new Provider with the given configuration.
// Returns an error if the configuration is invalid.
func New(cfg Config) (*Provider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("ollama: BaseURL is required")
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()

	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout, Transport: transport},
		stream: &http.Client{Transport: transport},
	}, nil
}

// BaseURL returns the normalized server URL.
func (p *Provider) BaseURL() string {
	return p.cfg.BaseURL
}

// Complete performs a single non-streaming /api/chat call.
func (p *Provider) Complete(ctx context.Context, req *api.ChatRequest) (*provider.Completion, error) {
	chatReq := TranslateRequest(req)
	chatReq.Stream = false

	httpReq, err := p.newChatRequest(ctx, chatReq)
	if err != nil {
		return nil, err
	}

	debug.Log("upstream", "chat request", "url", httpReq.URL.String(), "model", chatReq.Model, "messages", len(chatReq.Messages))

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, mapNetworkError(err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, mapHTTPError(httpResp)
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&chatResp); err != nil {
		if isTimeout(err) {
			return nil, mapNetworkError(err)
		}
		return nil, malformed("response", err)
	}
	if chatResp.Error != "" {
		return nil, api.NewUpstreamError(api.CodeUpstreamStatus, chatResp.Error)
	}

	debug.Log("upstream", "chat response",
		"model", chatResp.Model,
		"done_reason", chatResp.DoneReason,
		"prompt_eval_count", chatResp.PromptEvalCount,
		"eval_count", chatResp.EvalCount,
	)

	return TranslateResponse(&chatResp), nil
}

// Stream performs a streaming /api/chat call. It returns a channel of
// provider events that is closed when the stream completes, errors, or the
// context is cancelled.
//
// A stream can legitimately run longer than any fixed deadline, so the
// configured timeout is applied to the silence between lines instead: when
// the server sends nothing for that long, the call is aborted and an
// upstream_timeout error is delivered.
func (p *Provider) Stream(ctx context.Context, req *api.ChatRequest) (<-chan provider.Event, error) {
	chatReq := TranslateRequest(req)
	chatReq.Stream = true

	callCtx, cancel := context.WithCancel(ctx)
	idle := newIdleTimer(p.cfg.Timeout, cancel)

	httpReq, err := p.newChatRequest(callCtx, chatReq)
	if err != nil {
		idle.stop()
		cancel()
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/x-ndjson")

	debug.Log("upstream", "chat stream request", "url", httpReq.URL.String(), "model", chatReq.Model)

	httpResp, err := p.stream.Do(httpReq)
	if err != nil {
		idle.stop()
		cancel()
		if idle.fired() {
			return nil, api.NewUpstreamTimeoutError(fmt.Sprintf("upstream sent no response within %s", p.cfg.Timeout))
		}
		return nil, mapNetworkError(err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		idle.stop()
		defer cancel()
		defer httpResp.Body.Close()
		return nil, mapHTTPError(httpResp)
	}

	ch := make(chan provider.Event, 16)

	go func() {
		defer close(ch)
		defer cancel()
		defer idle.stop()
		defer httpResp.Body.Close()
		parseNDJSONStream(ctx, httpResp.Body, idle, p.cfg.Timeout, ch)
	}()

	return ch, nil
}

// ListModels returns the locally available models from GET /api/tags.
func (p *Provider) ListModels(ctx context.Context) ([]provider.ModelInfo, error) {
	var tags TagsResponse
	if err := p.getJSON(ctx, "/api/tags", &tags); err != nil {
		return nil, err
	}

	models := make([]provider.ModelInfo, 0, len(tags.Models))
	for _, m := range tags.Models {
		id := m.Name
		if id == "" {
			id = m.Model
		}
		info := provider.ModelInfo{ID: id, OwnedBy: "ollama"}
		if !m.ModifiedAt.IsZero() {
			info.Created = m.ModifiedAt.Unix()
		}
		models = append(models, info)
	}

	return models, nil
}

// Version returns the server version from GET /api/version.
func (p *Provider) Version(ctx context.Context) (string, error) {
	var v VersionResponse
	if err := p.getJSON(ctx, "/api/version", &v); err != nil {
		return "", err
	}
	return v.Version, nil
}

// Ping checks that the server answers GET /api/version.
func (p *Provider) Ping(ctx context.Context) error {
	_, err := p.Version(ctx)
	return err
}

// Close releases client resources.
func (p *Provider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

func (p *Provider) newChatRequest(ctx context.Context, chatReq *ChatRequest) (*http.Request, error) {
	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to marshal request: %s", err.Error()))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to create HTTP request: %s", err.Error()))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	if debug.TraceIsEnabled("upstream") {
		debug.Raw("upstream", string(body))
	}

	return httpReq, nil
}

func (p *Provider) getJSON(ctx context.Context, path string, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.BaseURL+path, nil)
	if err != nil {
		return api.NewServerError(fmt.Sprintf("failed to create HTTP request: %s", err.Error()))
	}

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return mapNetworkError(err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return mapHTTPError(httpResp)
	}

	if err := json.NewDecoder(httpResp.Body).Decode(out); err != nil {
		return malformed(strings.TrimPrefix(path, "/api/")+" response", err)
	}
	return nil
}

// idleTimer cancels a call when it is not reset within the timeout.
type idleTimer struct {
	d       time.Duration
	t       *time.Timer
	expired atomic.Bool
}

func newIdleTimer(d time.Duration, cancel context.CancelFunc) *idleTimer {
	it := &idleTimer{d: d}
	it.t = time.AfterFunc(d, func() {
		it.expired.Store(true)
		cancel()
	})
	return it
}

// reset restarts the countdown. It returns false if the timer already fired.
func (it *idleTimer) reset() bool {
	if !it.t.Stop() {
		return false
	}
	it.t.Reset(it.d)
	return true
}

func (it *idleTimer) stop()       { it.t.Stop() }
func (it *idleTimer) fired() bool { return it.expired.Load() }
