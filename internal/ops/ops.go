// Package ops serves liveness and readiness probes.
package ops

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/m3rciful/intakebot/core/logger"
)

const checkTimeout = 3 * time.Second

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SendStats exposes the outbound dispatcher's failure counter.
type SendStats interface {
	ErrorCount() uint64
}

// Server is the health listener.
type Server struct {
	srv *http.Server
}

// NewRouter builds the probe routes: /healthz always answers ok and reports
// failed Bot API calls, /readyz pings the database. sends may be nil.
func NewRouter(db Pinger, sends SendStats) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		body := map[string]any{"status": "ok"}
		if sends != nil {
			body["send_errors"] = sends.ErrorCount()
		}
		writeJSON(w, http.StatusOK, body)
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), checkTimeout)
		defer cancel()

		status := map[string]any{"status": "ready", "checks": map[string]string{"database": "ok"}}
		code := http.StatusOK
		if err := db.Ping(ctx); err != nil {
			logger.LogEvent(ctx, logger.Ops, slog.LevelWarn, "ops.readyz", logger.Err(err))
			status = map[string]any{"status": "degraded", "checks": map[string]string{"database": "unreachable"}}
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, status)
	})
	return r
}

// New prepares a server bound to addr.
func New(addr string, db Pinger, sends SendStats) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           NewRouter(db, sends),
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

// Start serves in the background until Shutdown.
func (s *Server) Start() {
	go func() {
		logger.Ops.Info("ops listening", slog.String("event", "ops.start"), slog.String("listen", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Ops.Error("ops server failed", slog.String("event", "ops.fail"), logger.Err(err))
		}
	}()
}

// Shutdown stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
