package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"slices"
	"time"

	"github.com/rs/cors"

	"github.com/rhuss/ollagate/pkg/api"
	"github.com/rhuss/ollagate/pkg/auth"
	"github.com/rhuss/ollagate/pkg/debug"
	"github.com/rhuss/ollagate/pkg/observability"
	"github.com/rhuss/ollagate/pkg/transport"
)

// payloadLogLimit caps the request body echoed into error logs.
const payloadLogLimit = 512

// Adapter serves the OpenAI-compatible API over HTTP.
// It routes requests to the appropriate handler and serializes responses.
type Adapter struct {
	completer transport.ChatCompleter
	models    transport.ModelLister // nil disables GET /v1/models
	mux       *http.ServeMux
	config    Config
	logger    *slog.Logger
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	MaxBodySize int64

	// MetricsPath exposes Prometheus metrics when non-empty.
	MetricsPath string

	// Auth guards every route except the health and metrics endpoints.
	// A nil chain disables authentication.
	Auth *auth.AuthChain

	// CORSOrigins lists allowed origins. Empty allows all.
	CORSOrigins []string

	Logger *slog.Logger
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		MaxBodySize: 10 << 20, // 10 MB
		MetricsPath: "/metrics",
	}
}

// NewAdapter creates an HTTP adapter with the given ChatCompleter and options.
// The ModelLister is optional; when nil, GET /v1/models answers 404.
// Middleware is applied to the ChatCompleter in the given order.
func NewAdapter(completer transport.ChatCompleter, models transport.ModelLister, cfg Config, middlewares ...transport.Middleware) *Adapter {
	if len(middlewares) > 0 {
		completer = transport.Chain(middlewares...)(completer)
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultConfig().MaxBodySize
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &Adapter{
		completer: completer,
		models:    models,
		mux:       http.NewServeMux(),
		config:    cfg,
		logger:    logger,
	}

	a.mux.HandleFunc("POST /v1/chat/completions", a.handleChatCompletions)
	a.mux.HandleFunc("GET /v1/models", a.handleListModels)
	a.mux.HandleFunc("GET /health", handleHealth)
	a.mux.HandleFunc("GET /healthz", handleHealthz)
	if cfg.MetricsPath != "" {
		a.mux.Handle("GET "+cfg.MetricsPath, observability.Handler())
	}
	a.mux.HandleFunc("/", handleNotFound)

	return a
}

// Handler returns the http.Handler for this adapter. Use this to integrate
// with an http.Server or test with httptest. The handler stack is, from the
// outside in: request ID, access log, metrics, CORS, authentication, routes.
func (a *Adapter) Handler() http.Handler {
	var h http.Handler = a.mux
	if a.config.Auth != nil {
		h = auth.Middleware(a.config.Auth, a.bypassEndpoints())(h)
	}
	h = a.corsHandler().Handler(h)
	h = observability.MetricsMiddleware(a.config.MetricsPath)(h)
	h = a.accessLog(h)
	return httpRequestIDMiddleware(h)
}

func (a *Adapter) bypassEndpoints() []string {
	eps := slices.Clone(auth.DefaultBypassEndpoints)
	if a.config.MetricsPath != "" {
		eps = append(eps, a.config.MetricsPath)
	}
	return eps
}

func (a *Adapter) corsHandler() *cors.Cors {
	origins := a.config.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"X-Request-ID"},
	})
}

// httpRequestIDMiddleware assigns every request an ID. A client-supplied
// X-Request-ID is honored; otherwise a new one is generated. The ID is put
// into the context and echoed in the response header.
func httpRequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = transport.NewRequestID()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(transport.ContextWithRequestID(r.Context(), id)))
	})
}

// accessLog emits one log entry per HTTP request.
func (a *Adapter) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		} else if rec.status >= http.StatusBadRequest {
			level = slog.LevelWarn
		}
		a.logger.LogAttrs(r.Context(), level, "http request",
			slog.String("method", r.Method),
			slog.String("route", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", transport.RequestIDFromContext(r.Context())),
		)
	})
}

// statusRecorder captures the response status for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *statusRecorder) WriteHeader(status int) {
	if !w.written {
		w.status = status
		w.written = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	w.written = true
	return w.ResponseWriter.Write(b)
}

// Unwrap returns the underlying ResponseWriter for http.NewResponseController.
func (w *statusRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// handleChatCompletions handles POST /v1/chat/completions.
func (a *Adapter) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil || mt != "application/json" {
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("content_type", api.CodeInvalidValue, "Content-Type must be application/json"),
				http.StatusUnsupportedMediaType,
			)
			return
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("body", api.CodeInvalidValue,
					fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize)),
				http.StatusRequestEntityTooLarge,
			)
			return
		}
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("body", api.CodeInvalidJSON, "failed to read request body: "+err.Error()),
			http.StatusBadRequest,
		)
		return
	}

	debug.Log("transport", "request body", "body", debug.Truncate(string(body), payloadLogLimit))

	var req api.ChatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		a.logFailure(r, body, err)
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("", api.CodeInvalidJSON, "invalid JSON: "+err.Error()),
			http.StatusBadRequest,
		)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	rw := newSSEResponseWriter(w)
	if err := a.completer.CreateChatCompletion(ctx, &req, rw); err != nil {
		a.logFailure(r, body, err)
		a.writeHandlerError(w, rw, err)
	}
}

// handleListModels handles GET /v1/models.
func (a *Adapter) handleListModels(w http.ResponseWriter, r *http.Request) {
	if a.models == nil {
		transport.WriteAPIError(w, api.NewNotFoundError("model listing is not available"))
		return
	}

	list, err := a.models.ListModels(r.Context())
	if err != nil {
		a.logFailure(r, nil, err)
		transport.WriteAPIError(w, transport.AsAPIError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

// healthResponse is the body of GET /health.
type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	transport.WriteAPIError(w, api.NewNotFoundError(fmt.Sprintf("no route for %s %s", r.Method, r.URL.Path)))
}

// logFailure records a failed request with its route, request ID and a
// truncated copy of the payload.
func (a *Adapter) logFailure(r *http.Request, body []byte, err error) {
	a.logger.Warn("request failed",
		"route", r.URL.Path,
		"request_id", transport.RequestIDFromContext(r.Context()),
		"payload", debug.Truncate(string(body), payloadLogLimit),
		"error", err.Error(),
	)
}

// writeHandlerError writes an error response from the handler. If streaming
// has already started, the error is sent as a final SSE event. Otherwise it
// writes a standard JSON error response.
func (a *Adapter) writeHandlerError(w http.ResponseWriter, rw *sseResponseWriter, err error) {
	apiErr := transport.AsAPIError(err)

	if rw.hasStartedStreaming() {
		if !rw.isCompleted() {
			rw.writeStreamError(apiErr)
		}
		return
	}
	if rw.isCompleted() {
		return
	}

	transport.WriteAPIError(w, apiErr)
}
