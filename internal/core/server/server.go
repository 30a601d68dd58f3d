// Package server wires the chi router, middleware stack, and graceful
// shutdown for the RoadPulse HTTP surface, following the teacher's
// server.Run shape (listen in a goroutine, select on ctx.Done() vs a
// listen error, shut down with a bounded timeout).
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ciprian87/roadpulse/internal/core/middleware"
	"github.com/ciprian87/roadpulse/internal/core/router"
)

// Run starts listening on addr and blocks until ctx is cancelled or the
// listener fails. On cancellation it shuts down with a 10s grace period.
func Run(ctx context.Context, addr string, logger *slog.Logger, deps router.Deps) error {
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS())

	r.Get("/healthz", healthz)
	r.Handle("/metrics", promhttp.Handler())

	deps.Logger = logger
	router.Mount(r, deps)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
