package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/chatflow/internal/logging"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/graph"
	"github.com/aretw0/chatflow/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Service is the conversation backend served over HTTP.
type Service interface {
	TurnDiff(ctx context.Context, sessionID, text string) (domain.State, *domain.StateDiff, error)
	Load(ctx context.Context, sessionID string) (domain.State, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, sessionID string) error
	Graph() *graph.Graph
}

// Server wires a Service to chi routes.
type Server struct {
	Service Service
	Streams *StreamManager

	metrics http.Handler
	version string
	logger  *slog.Logger
}

// Option configures the handler.
type Option func(*Server)

// WithMetrics mounts h at GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithVersion sets the version reported by GET /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = strings.TrimSpace(v)
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewHandler creates the HTTP handler for svc.
func NewHandler(svc Service, opts ...Option) http.Handler {
	s := &Server{
		Service: svc,
		Streams: NewStreamManager(),
		version: "dev",
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/graph", s.GetGraph)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.StartSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Post("/messages", s.PostMessage)
			r.Get("/export", s.ExportSession)
			r.Get("/events", s.SubscribeEvents)
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

// MessageRequest is the body of a user turn.
type MessageRequest struct {
	Message string `json:"message"`
}

// TurnResponse is returned after a successful turn.
type TurnResponse struct {
	SessionID string           `json:"session_id"`
	Reply     domain.Message   `json:"reply"`
	Messages  []domain.Message `json:"messages"`
	Metadata  map[string]any   `json:"metadata,omitempty"`
}

// StartSession handles POST /sessions: a first turn under a fresh ID.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	s.turn(w, r, uuid.NewString(), http.StatusCreated)
}

// PostMessage handles POST /sessions/{id}/messages.
func (s *Server) PostMessage(w http.ResponseWriter, r *http.Request) {
	s.turn(w, r, chi.URLParam(r, "id"), http.StatusOK)
}

func (s *Server) turn(w http.ResponseWriter, r *http.Request, sessionID string, status int) {
	var body MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		s.logger.Warn("turn: invalid request body", "err", err)
		return
	}

	final, diff, err := s.Service.TurnDiff(r.Context(), sessionID, body.Message)
	if err != nil {
		code := statusFor(err)
		if code >= http.StatusInternalServerError {
			s.logger.Error("turn failed", "session_id", sessionID, "err", err)
		}
		writeError(w, code, err.Error())
		return
	}

	if diff != nil {
		if data, err := json.Marshal(diff); err == nil {
			s.Streams.Broadcast(sessionID, string(data))
		}
	}

	reply, _ := final.Last()
	writeJSON(w, status, TurnResponse{
		SessionID: sessionID,
		Reply:     reply,
		Messages:  final.Transcript(),
		Metadata:  final.Metadata(),
	})
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Service.List(r.Context())
	if err != nil {
		s.logger.Error("list sessions failed", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	state, err := s.Service.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportSession handles GET /sessions/{id}/export.
func (s *Server) ExportSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	state, err := s.Service.Load(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	data, err := session.Export(id, state)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="chat_history.json"`)
	_, _ = w.Write(data)
}

// GraphResponse describes the conversation graph.
type GraphResponse struct {
	Entry string           `json:"entry"`
	Nodes []string         `json:"nodes"`
	Edges []graph.EdgeInfo `json:"edges"`
}

// GetGraph handles GET /graph. ?format=mermaid returns the diagram source.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	g := s.Service.Graph()
	if r.URL.Query().Get("format") == "mermaid" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(g.Mermaid()))
		return
	}
	writeJSON(w, http.StatusOK, GraphResponse{
		Entry: g.Entry(),
		Nodes: g.Nodes(),
		Edges: g.Edges(),
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "chatflow-http",
		"version": s.version,
	})
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	var nodeErr *domain.NodeExecutionError
	switch {
	case errors.Is(err, session.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &nodeErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
