package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vovakirdan/tui-2048/internal/games/t2048"
	"github.com/vovakirdan/tui-2048/internal/session"
	"github.com/vovakirdan/tui-2048/internal/storage"
)

// SlotPrefix namespaces WebSocket games in the shared backend.
const SlotPrefix = "ws:"

// Server owns the HTTP routes and the live WebSocket sessions.
type Server struct {
	backend  storage.Backend
	rules    t2048.Rules
	logger   *log.Logger
	sessions *session.Registry
	router   chi.Router
}

// NewServer creates a server that saves games in backend.
func NewServer(backend storage.Backend, rules t2048.Rules, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{
		backend:  backend,
		rules:    rules,
		logger:   logger,
		sessions: session.NewRegistry(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/ws/game", s.handleGame)
	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/best", s.handleBest)
		r.Get("/sessions", s.handleSessions)
	})

	s.router = r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Sessions exposes the live session registry.
func (s *Server) Sessions() *session.Registry { return s.sessions }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down and
// ends every live session.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("stopping http server")
	s.sessions.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) factory(id session.ID) (*t2048.Manager, error) {
	slot := storage.SlotOf(s.backend, SlotPrefix+string(id))
	return t2048.NewManager(slot,
		t2048.WithRules(s.rules),
		t2048.WithLogger(s.logger.With("session", string(id))),
	), nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Count(),
	})
}

func (s *Server) handleBest(w http.ResponseWriter, _ *http.Request) {
	best, err := s.backend.BestScore()
	if err != nil {
		s.logger.Error("best score lookup failed", "err", err)
		respondError(w, http.StatusServiceUnavailable, "best score unavailable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"bestScore": best})
}

// SessionInfo is one entry of GET /api/sessions.
type SessionInfo struct {
	ID     string    `json:"id"`
	Opened time.Time `json:"opened"`
}

func (s *Server) handleSessions(w http.ResponseWriter, _ *http.Request) {
	out := make([]SessionInfo, 0, s.sessions.Count())
	for _, id := range s.sessions.List() {
		// A session can end between List and Get.
		if sess, ok := s.sessions.Get(id); ok {
			out = append(out, SessionInfo{ID: string(id), Opened: sess.Opened()})
		}
	}
	respondJSON(w, http.StatusOK, map[string][]SessionInfo{"sessions": out})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// requestLogger logs one line per request. WebSocket requests are logged
// when the connection ends.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
