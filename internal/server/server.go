package server

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/ogulcanaydogan/cdt-guardian/pkg/runlog"
)

// CheckRunner runs one check pass and returns the encoded snapshot.
type CheckRunner interface {
	RunCheck(ctx context.Context) ([]byte, error)
}

// Instrumenter exposes metrics and wraps handlers with request counting.
type Instrumenter interface {
	Handler() http.Handler
	Middleware(next http.Handler) http.Handler
}

// Server provides the health, check, log and metrics endpoints.
type Server struct {
	runner       CheckRunner
	logPath      string
	instrumenter Instrumenter
	checkTimeout time.Duration
	mux          *http.ServeMux
	logger       *slog.Logger
}

// NewServer creates an API server. instrumenter may be nil.
func NewServer(runner CheckRunner, logPath string, instrumenter Instrumenter, logger *slog.Logger) *Server {
	s := &Server{
		runner:       runner,
		logPath:      logPath,
		instrumenter: instrumenter,
		checkTimeout: 5 * time.Minute,
		mux:          http.NewServeMux(),
		logger:       logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("POST /api/v1/check", s.handleCheck)
	s.mux.HandleFunc("GET /api/v1/log", s.handleLog)
	if s.instrumenter != nil {
		s.mux.Handle("GET /metrics", s.instrumenter.Handler())
	}
}

// Handler returns the HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	if s.instrumenter != nil {
		return s.instrumenter.Middleware(s.mux)
	}
	return s.mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.checkTimeout)
	defer cancel()

	data, err := s.runner.RunCheck(ctx)
	if err != nil {
		s.logger.Error("run check", "error", err)
		if data == nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write(data)
}

func (s *Server) handleLog(w http.ResponseWriter, _ *http.Request) {
	data, err := runlog.Read(s.logPath)
	if errors.Is(err, fs.ErrNotExist) {
		http.Error(w, "no run log yet", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("read run log", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write(data)
}

// Serve runs srv until ctx is cancelled, then shuts it down gracefully.
func Serve(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server started", "listen", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
