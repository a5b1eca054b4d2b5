package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/techiemaya-admin/lad-onboarding/internal/logging"
	"github.com/techiemaya-admin/lad-onboarding/internal/presentation/graph"
	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
	"github.com/techiemaya-admin/lad-onboarding/pkg/runner"
)

// Service is the part of onboarding.Service the API exposes.
type Service interface {
	Start(ctx context.Context, id string) (*domain.Session, error)
	Session(ctx context.Context, id string) (*domain.Session, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, id string) error
	Reply(ctx context.Context, id string, input any) (*domain.Session, error)
	SubmitLeads(ctx context.Context, id string, leads []domain.Lead) (*domain.Session, error)
	Resolve(ctx context.Context, id string, r domain.Resolution) (*domain.Session, error)
	Launch(ctx context.Context, id string) (*domain.Session, error)
	Payload(ctx context.Context, id string) (domain.CampaignPayload, error)
	Reset(ctx context.Context, id string) (*domain.Session, error)
}

// Server exposes a Service over HTTP.
type Server struct {
	Service  Service
	Streams  *StreamManager
	Contract *Contract

	logger   *slog.Logger
	gatherer prometheus.Gatherer
	version  string
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithStreams shares a StreamManager already registered as a session observer.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithMetrics serves the gatherer at /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithVersion sets the build version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = strings.TrimSpace(v)
	}
}

// NewServer loads the API contract and creates a Server for svc.
func NewServer(ctx context.Context, svc Service, opts ...Option) (*Server, error) {
	contract, err := LoadContract(ctx)
	if err != nil {
		return nil, err
	}
	s := &Server{
		Service:  svc,
		Contract: contract,
		logger:   logging.NewNop(),
		version:  "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}
	return s, nil
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)
	r.Use(s.Contract.Validate)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(s.Contract.Raw())
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.StartSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.withID(s.GetSession))
			r.Delete("/", s.withID(s.DeleteSession))
			r.Post("/reply", s.withID(s.Reply))
			r.Post("/reset", s.withID(s.ResetSession))
			r.Post("/leads", s.withID(s.SubmitLeads))
			r.Post("/resolve", s.withID(s.Resolve))
			r.Post("/launch", s.withID(s.Launch))
			r.Get("/workflow", s.withID(s.GetWorkflow))
			r.Get("/payload", s.withID(s.GetPayload))
			r.Get("/events", s.withID(s.SubscribeEvents))
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, id string)

// withID binds the {id} path parameter.
func (s *Server) withID(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var id string
		err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
			runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid session id: %v", err))
			return
		}
		h(w, r, id)
	}
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "lad-onboarding",
		"version":     s.version,
		"api_version": s.Contract.Version(),
	})
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Service.List(r.Context())
	if err != nil {
		s.fail(w, r, "List sessions", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

type startRequest struct {
	SessionID string `json:"session_id"`
}

// StartSession handles POST /sessions. The body is optional.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	var body startRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	session, err := s.Service.Start(r.Context(), body.SessionID)
	if err != nil {
		s.fail(w, r, "Start session", err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request, id string) {
	session, err := s.Service.Session(r.Context(), id)
	if err != nil {
		s.fail(w, r, "Get session", err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.Service.Delete(r.Context(), id); err != nil {
		s.fail(w, r, "Delete session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type replyRequest struct {
	Input json.RawMessage `json:"input"`
}

// Reply handles POST /sessions/{id}/reply. Input is a string or a list of strings.
func (s *Server) Reply(w http.ResponseWriter, r *http.Request, id string) {
	var body replyRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	input, err := decodeInput(body.Input)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	session, err := s.Service.Reply(r.Context(), id, input)
	if err != nil {
		s.fail(w, r, "Reply", err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// decodeInput accepts a JSON string or array of strings and sanitizes every value.
func decodeInput(raw json.RawMessage) (any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, errors.New("input is required")
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return runner.SanitizeInput(text)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, errors.New("input must be a string or a list of strings")
	}
	for i, v := range list {
		clean, err := runner.SanitizeInput(v)
		if err != nil {
			return nil, err
		}
		list[i] = clean
	}
	return list, nil
}

// ResetSession handles POST /sessions/{id}/reset.
func (s *Server) ResetSession(w http.ResponseWriter, r *http.Request, id string) {
	session, err := s.Service.Reset(r.Context(), id)
	if err != nil {
		s.fail(w, r, "Reset", err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

type leadsRequest struct {
	Leads []domain.Lead `json:"leads"`
}

// SubmitLeads handles POST /sessions/{id}/leads.
func (s *Server) SubmitLeads(w http.ResponseWriter, r *http.Request, id string) {
	var body leadsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	session, err := s.Service.SubmitLeads(r.Context(), id, body.Leads)
	if err != nil {
		s.fail(w, r, "Submit leads", err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

type resolveRequest struct {
	Resolution domain.Resolution `json:"resolution"`
}

// Resolve handles POST /sessions/{id}/resolve.
func (s *Server) Resolve(w http.ResponseWriter, r *http.Request, id string) {
	var body resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	session, err := s.Service.Resolve(r.Context(), id, body.Resolution)
	if err != nil {
		s.fail(w, r, "Resolve", err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

type launchFailure struct {
	Error   string          `json:"error"`
	Session *domain.Session `json:"session,omitempty"`
}

// Launch handles POST /sessions/{id}/launch. A failed launch still returns the
// session, which carries the manual fallback message.
func (s *Server) Launch(w http.ResponseWriter, r *http.Request, id string) {
	session, err := s.Service.Launch(r.Context(), id)
	if errors.Is(err, domain.ErrLaunchFailed) {
		s.logger.ErrorContext(r.Context(), "Launch failed", "err", err, "session_id", id)
		writeJSON(w, http.StatusBadGateway, launchFailure{Error: err.Error(), Session: session})
		return
	}
	if err != nil {
		s.fail(w, r, "Launch", err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// GetWorkflow handles GET /sessions/{id}/workflow. format=mermaid renders a flowchart
// with the session progress overlaid.
func (s *Server) GetWorkflow(w http.ResponseWriter, r *http.Request, id string) {
	var format *string
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &format); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid format: %v", err))
		return
	}
	session, err := s.Service.Session(r.Context(), id)
	if err != nil {
		s.fail(w, r, "Get workflow", err)
		return
	}
	if format != nil && *format == "mermaid" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(graph.GenerateMermaid(session.Workflow, graph.OverlayFor(session))))
		return
	}
	writeJSON(w, http.StatusOK, session.Workflow)
}

// GetPayload handles GET /sessions/{id}/payload.
func (s *Server) GetPayload(w http.ResponseWriter, r *http.Request, id string) {
	payload, err := s.Service.Payload(r.Context(), id)
	if err != nil {
		s.fail(w, r, "Get payload", err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// SubscribeEvents handles GET /sessions/{id}/events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request, id string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}
	var watch *string
	if err := runtime.BindQueryParameter("form", true, false, "watch", r.URL.Query(), &watch); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid watch: %v", err))
		return
	}
	var watchList []string
	if watch != nil && *watch != "" {
		watchList = strings.Split(*watch, ",")
	}

	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()
	s.logger.InfoContext(r.Context(), "SSE: Subscribing to session updates", "session_id", id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.InfoContext(r.Context(), "SSE client disconnected", "session_id", id)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if !diffMatches(msg, watchList) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// fail maps service errors to status codes.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), op+" failed", "err", err)
	} else {
		s.logger.WarnContext(r.Context(), op+" rejected", "err", err)
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSessionBusy),
		errors.Is(err, domain.ErrCheckpointPending),
		errors.Is(err, domain.ErrCheckpointResolved),
		errors.Is(err, domain.ErrNotComplete):
		return http.StatusConflict
	case errors.Is(err, domain.ErrEmptyInput),
		errors.Is(err, domain.ErrNoCheckpoint),
		errors.Is(err, domain.ErrInvalidResolution),
		errors.Is(err, runner.ErrInputTooLarge),
		errors.Is(err, runner.ErrInvalidUTF8):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotConfigured):
		return http.StatusNotImplemented
	case errors.Is(err, context.Canceled):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
