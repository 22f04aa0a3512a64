package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rhuss/ollagate/pkg/api"
	"github.com/rhuss/ollagate/pkg/debug"
	"github.com/rhuss/ollagate/pkg/observability"
	"github.com/rhuss/ollagate/pkg/provider"
	"github.com/rhuss/ollagate/pkg/transport"
	"github.com/rhuss/ollagate/pkg/usage"
)

// Engine orchestrates request processing between the transport layer
// and the provider backend.
type Engine struct {
	provider provider.Provider
	cfg      Config
}

var (
	_ transport.ChatCompleter = (*Engine)(nil)
	_ transport.ModelLister   = (*Engine)(nil)
)

// New creates a new Engine. The provider must not be nil.
func New(p provider.Provider, cfg Config) (*Engine, error) {
	if p == nil {
		return nil, fmt.Errorf("engine: provider must not be nil")
	}
	return &Engine{
		provider: p,
		cfg:      cfg,
	}, nil
}

// CreateChatCompletion handles a streaming or non-streaming chat completion.
// Invalid requests are rejected before the provider is contacted.
func (e *Engine) CreateChatCompletion(ctx context.Context, req *api.ChatRequest, w transport.ResponseWriter) error {
	if req == nil {
		return api.NewInvalidRequestError("", api.CodeInvalidJSON, "request body is required")
	}
	if req.Model == "" && e.cfg.DefaultModel != "" {
		req.Model = e.cfg.DefaultModel
	}
	if apiErr := api.ValidateRequest(req); apiErr != nil {
		return apiErr
	}

	if req.Stream {
		return e.stream(ctx, req, w)
	}

	start := time.Now()
	comp, err := e.provider.Complete(ctx, req)
	recordUpstream(req.Model, start, err)
	if err != nil {
		return err
	}

	resp := buildResponse(req, comp, time.Now())
	recordTokens(req.Model, resp.Usage)
	debug.Log("engine", "completion finished",
		"model", req.Model,
		"upstream_model", comp.Model,
		"finish_reason", resp.Choices[0].FinishReason,
		"completion_tokens", resp.Usage.CompletionTokens,
		"native_prompt_eval", comp.PromptEvalCount,
		"native_eval", comp.EvalCount,
	)

	return w.WriteResponse(ctx, resp)
}

// buildResponse assembles the chat.completion object. The model field echoes
// the request so clients see the name they asked for.
func buildResponse(req *api.ChatRequest, comp *provider.Completion, now time.Time) *api.ChatResponse {
	role := comp.Role
	if role == "" {
		role = api.RoleAssistant
	}
	finish := comp.FinishReason
	if finish == "" {
		finish = api.FinishReasonStop
	}

	return &api.ChatResponse{
		ID:      api.NewCompletionID(),
		Object:  api.ObjectChatCompletion,
		Created: now.Unix(),
		Model:   req.Model,
		Choices: []api.Choice{{
			Index:        0,
			Message:      api.Message{Role: role, Content: comp.Content},
			FinishReason: finish,
		}},
		Usage: usage.For(req.Messages, comp.Content),
	}
}

// stream relays provider events as chunks: a role delta, the content
// deltas, then a final chunk carrying finish_reason and usage. The event
// channel is always drained before returning so the provider goroutine
// exits.
func (e *Engine) stream(ctx context.Context, req *api.ChatRequest, w transport.ResponseWriter) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	start := time.Now()
	events, err := e.provider.Stream(ctx, req)
	if err != nil {
		recordUpstream(req.Model, start, err)
		return err
	}
	defer func() {
		cancel()
		for range events {
		}
	}()

	observability.StreamingConnections.Inc()
	defer observability.StreamingConnections.Dec()

	s := &chunkStream{
		id:      api.NewCompletionID(),
		created: time.Now().Unix(),
		model:   req.Model,
	}

	if err := w.WriteChunk(ctx, s.chunk(api.Delta{Role: api.RoleAssistant}, nil, nil)); err != nil {
		return err
	}

	var content strings.Builder
	for ev := range events {
		switch ev.Type {
		case provider.EventTextDelta:
			if ev.Delta == "" {
				continue
			}
			content.WriteString(ev.Delta)
			if err := w.WriteChunk(ctx, s.chunk(api.Delta{Content: ev.Delta}, nil, nil)); err != nil {
				return err
			}

		case provider.EventDone:
			recordUpstream(req.Model, start, nil)
			finish := ev.FinishReason
			if finish == "" {
				finish = api.FinishReasonStop
			}
			u := usage.For(req.Messages, content.String())
			recordTokens(req.Model, u)
			debug.Log("engine", "stream finished",
				"model", req.Model, "finish_reason", finish, "completion_tokens", u.CompletionTokens)
			if err := w.WriteChunk(ctx, s.chunk(api.Delta{}, &finish, &u)); err != nil {
				return err
			}
			return w.Close()

		case provider.EventError:
			recordUpstream(req.Model, start, ev.Err)
			return ev.Err
		}
	}

	if err := ctx.Err(); err != nil {
		slog.Debug("stream aborted", "model", req.Model, "error", err)
		return err
	}
	streamErr := api.NewUpstreamError(api.CodeUpstreamStatus, "upstream stream ended early")
	recordUpstream(req.Model, start, streamErr)
	return streamErr
}

// chunkStream holds the fields shared by every chunk of one stream.
type chunkStream struct {
	id      string
	created int64
	model   string
}

func (s *chunkStream) chunk(delta api.Delta, finish *api.FinishReason, u *api.Usage) *api.ChatCompletionChunk {
	return &api.ChatCompletionChunk{
		ID:      s.id,
		Object:  api.ObjectChatCompletionChunk,
		Created: s.created,
		Model:   s.model,
		Choices: []api.ChunkChoice{{
			Index:        0,
			Delta:        delta,
			FinishReason: finish,
		}},
		Usage: u,
	}
}

// Ping reports whether the provider backend answers.
func (e *Engine) Ping(ctx context.Context) error {
	return e.provider.Ping(ctx)
}

// ListModels returns the models exposed by the provider in OpenAI format.
func (e *Engine) ListModels(ctx context.Context) (*api.ModelList, error) {
	infos, err := e.provider.ListModels(ctx)
	if err != nil {
		return nil, err
	}

	list := &api.ModelList{
		Object: api.ObjectList,
		Data:   make([]api.Model, 0, len(infos)),
	}
	for _, m := range infos {
		list.Data = append(list.Data, api.Model{
			ID:      m.ID,
			Object:  api.ObjectModel,
			Created: m.Created,
			OwnedBy: m.OwnedBy,
		})
	}
	return list, nil
}

// upstreamStatus is the status label of the upstream metrics: "ok" or the
// error code.
func upstreamStatus(err error) string {
	if err == nil {
		return "ok"
	}
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Code != "" {
		return apiErr.Code
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	return "error"
}

func recordUpstream(model string, start time.Time, err error) {
	observability.UpstreamRequestsTotal.WithLabelValues(model, upstreamStatus(err)).Inc()
	observability.UpstreamLatency.WithLabelValues(model).Observe(time.Since(start).Seconds())
}

func recordTokens(model string, u api.Usage) {
	observability.TokensTotal.WithLabelValues(model, "prompt").Add(float64(u.PromptTokens))
	observability.TokensTotal.WithLabelValues(model, "completion").Add(float64(u.CompletionTokens))
}
