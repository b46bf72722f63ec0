// Package api provides the HTTP REST API server for MacroLens.
//
// It exposes the tool registry over REST, read endpoints for saved
// series snapshots, a WebSocket event feed, and Prometheus metrics.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/seenimoa/macrolens/internal/config"
	"github.com/seenimoa/macrolens/internal/fred"
	"github.com/seenimoa/macrolens/internal/infra"
	"github.com/seenimoa/macrolens/internal/mcp"
	"github.com/seenimoa/macrolens/internal/snapshot"
	"github.com/seenimoa/macrolens/internal/tools"
)

// maxBodyBytes caps tool-call request bodies.
const maxBodyBytes = 1 << 20

// toolCallTimeout bounds a single tool execution, upstream fetch included.
const toolCallTimeout = 60 * time.Second

// Server is the HTTP API server.
type Server struct {
	router   chi.Router
	cfg      *config.Config
	registry *mcp.Registry
	store    *snapshot.Store
	wsHub    *WSHub
	log      *zap.Logger
}

// NewServer creates a configured API server with all routes and middleware.
// The WebSocket hub is wired in as the tool layer's event sink, so fetch and
// snapshot events reach connected clients regardless of which tool ran.
func NewServer(cfg *config.Config, deps *tools.Deps) *Server {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	hub := NewWSHub()
	if deps.Events == nil {
		deps.Events = hub
	}

	s := &Server{
		cfg:      cfg,
		registry: tools.NewRegistry(deps),
		store:    deps.Store,
		wsHub:    hub,
		log:      log,
	}
	s.router = s.buildRouter()
	return s
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Hub returns the WebSocket hub so callers can wire it into other
// transports before the server starts.
func (s *Server) Hub() *WSHub {
	return s.wsHub
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start WebSocket hub
	go s.wsHub.Run()

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		s.log.Info("http server listening", zap.String("addr", addr))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Fatal("http server", zap.Error(err))
		}
	}()

	<-done
	s.log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Service banner and health check
	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)

	// Prometheus metrics
	r.Handle("/metrics", metricsHandler())

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health (also available at /health)
		r.Get("/health", s.handleHealth)

		// Service status
		r.Get("/status", s.handleStatus)

		// Tools
		r.Get("/tools", s.handleListTools)
		r.Post("/tools/{name}", s.handleExecuteTool)

		// Saved series
		r.Get("/series", s.handleListSeries)
		r.Get("/series/{id}/history", s.handleSeriesHistory)
		r.Get("/series/{id}/snapshots", s.handleSeriesSnapshots)

		// WebSocket event feed
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// ============================================================
// Response types
// ============================================================

// APIResponse is the standard response wrapper.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ToolDescriptor describes one registered tool on the REST surface.
type ToolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema *mcp.JSONSchema `json:"input_schema"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"message": "MacroLens FRED server",
		"status":  "running",
		"usage":   "POST /api/v1/tools/{name}, or run `macrolens mcp` for the stdio transport",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "macrolens",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	list := s.registry.List()
	descriptors := make([]ToolDescriptor, 0, len(list))
	for _, t := range list {
		descriptors = append(descriptors, ToolDescriptor{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.Parameters,
		})
	}
	s.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: descriptors})
}

func (s *Server) handleExecuteTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, ok := s.registry.Get(name); !ok {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("unknown tool: %s", name))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "read request body: "+err.Error())
		return
	}
	args := json.RawMessage(bytes.TrimSpace(body))

	ctx, cancel := context.WithTimeout(r.Context(), toolCallTimeout)
	defer cancel()

	start := time.Now()
	result, err := s.registry.Execute(ctx, name, args)
	elapsed := time.Since(start)

	observeToolExecution(name, err, elapsed)

	if err != nil {
		status := statusFor(err)
		s.log.Warn("tool execution failed",
			zap.String("tool", name),
			zap.Int("status", status),
			zap.Error(err))
		s.wsHub.Publish("tool_executed", map[string]any{
			"tool":        name,
			"success":     false,
			"error":       err.Error(),
			"duration_ms": elapsed.Milliseconds(),
		})
		s.writeError(w, status, err.Error())
		return
	}

	s.wsHub.Publish("tool_executed", map[string]any{
		"tool":        name,
		"success":     true,
		"duration_ms": elapsed.Milliseconds(),
	})

	// Tool handlers return either JSON or plain text.
	var data any = result
	if json.Valid([]byte(result)) {
		data = json.RawMessage(result)
	}
	s.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: data})
}

func (s *Server) handleListSeries(w http.ResponseWriter, r *http.Request) {
	series, err := s.store.ListAllSeries()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "list series: "+err.Error())
		return
	}
	if series == nil {
		series = []string{}
	}
	s.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: series})
}

func (s *Server) handleSeriesHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	limit := s.cfg.Snapshots.HistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	records, err := s.store.LoadRecent(id, limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "load history: "+err.Error())
		return
	}
	if records == nil {
		records = []snapshot.Record{}
	}
	s.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: records})
}

func (s *Server) handleSeriesSnapshots(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	names, err := s.store.List(id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "list snapshots: "+err.Error())
		return
	}
	if names == nil {
		names = []string{}
	}
	s.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: names})
}

// ============================================================
// Helpers
// ============================================================

// statusFor maps tool errors onto HTTP status codes. Argument problems are
// the caller's fault, a missing credential is a deployment problem, and
// upstream failures split between bad-gateway and gateway-timeout.
func statusFor(err error) int {
	var (
		argErr      *fred.ArgumentError
		httpErr     *infra.ErrHTTP
		decodeErr   *fred.DecodeError
		unreachable *fred.UnreachableError
	)

	switch {
	case errors.As(err, &argErr):
		return http.StatusBadRequest
	case errors.Is(err, fred.ErrAPIKeyRequired):
		return http.StatusInternalServerError
	case errors.Is(err, fred.ErrNoObservations):
		return http.StatusNotFound
	case errors.As(err, &httpErr),
		errors.As(err, &decodeErr),
		errors.Is(err, fred.ErrEmptyResponse):
		return http.StatusBadGateway
	case errors.As(err, &unreachable):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("write JSON response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
