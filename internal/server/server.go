// Package server serves the link directory search over HTTP: a rendered
// search page, a JSON search API and a WebSocket live session that keeps
// the browser URL and results in sync as the user types.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xming13/GoGovSG/internal/config"
	"github.com/xming13/GoGovSG/pkg/navigator"
	"github.com/xming13/GoGovSG/pkg/searchstate"
)

// Server is the gogov HTTP server.
type Server struct {
	cfg      *config.Config
	service  searchstate.Service
	logger   *slog.Logger
	metrics  *Metrics
	gatherer prometheus.Gatherer
	upgrader websocket.Upgrader

	// heartbeat is the live session ping period.
	heartbeat time.Duration

	mu       sync.Mutex
	sessions map[string]*liveSession
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics sets the collectors and the gatherer served on the metrics
// path.
func WithMetrics(m *Metrics, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

// WithHeartbeat sets the live session ping period.
func WithHeartbeat(d time.Duration) Option {
	return func(s *Server) { s.heartbeat = d }
}

// New creates a server answering searches with service.
func New(cfg *config.Config, service searchstate.Service, opts ...Option) *Server {
	s := &Server{
		cfg:       cfg,
		service:   service,
		logger:    slog.Default(),
		heartbeat: 30 * time.Second,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		sessions: make(map[string]*liveSession),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil && cfg.Telemetry.Metrics {
		s.metrics = NewMetrics()
		s.gatherer = prometheus.DefaultGatherer
	}
	s.logger = s.logger.With("component", "server")
	return s
}

// Handler returns the HTTP handler with every route and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger(s.logger))
	if s.cfg.Telemetry.Tracing {
		r.Use(tracing(s.cfg.Telemetry.TracerName))
	}
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil && s.gatherer != nil {
		r.Method(http.MethodGet, s.cfg.Telemetry.MetricsPath, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/live", s.handleLive)

	r.Group(func(r chi.Router) {
		if s.cfg.Server.Gzip {
			r.Use(compress)
		}
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, navigator.DefaultPath, http.StatusFound)
		})
		r.Get(navigator.DefaultPath, s.handlePage)
		r.Get("/api/search", s.handleAPI)
	})
	return r
}

// ListenAndServe serves on cfg.Server.Addr until ctx is done, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.cfg.Server.ReadTimeout.Std(),
		ReadTimeout:       s.cfg.Server.ReadTimeout.Std(),
		WriteTimeout:      s.cfg.Server.WriteTimeout.Std(),
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout.Std())
	defer cancel()
	s.closeSessions()
	err := srv.Shutdown(shutdownCtx)
	if serveErr := <-errCh; serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return serveErr
	}
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessionCount(),
	})
}

func (s *Server) addSession(ls *liveSession) {
	s.mu.Lock()
	s.sessions[ls.id] = ls
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.liveSessions.Inc()
	}
}

func (s *Server) removeSession(ls *liveSession) {
	s.mu.Lock()
	_, ok := s.sessions[ls.id]
	delete(s.sessions, ls.id)
	s.mu.Unlock()
	if ok && s.metrics != nil {
		s.metrics.liveSessions.Dec()
	}
}

func (s *Server) sessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) closeSessions() {
	s.mu.Lock()
	open := make([]*liveSession, 0, len(s.sessions))
	for _, ls := range s.sessions {
		open = append(open, ls)
	}
	s.mu.Unlock()
	for _, ls := range open {
		ls.Close()
	}
}

// hooks returns the controller hooks for this server.
func (s *Server) hooks() searchstate.Hooks {
	if s.metrics == nil {
		return searchstate.Hooks{}
	}
	return s.metrics.SearchHooks()
}
