package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// healthHandler answers liveness probes.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// healthCheckServer returns the health and metrics server, or nil when it
// is disabled.
func (a *App) healthCheckServer() *http.Server {
	if a.config.HealthcheckPort <= 0 {
		a.logger.Warn("Health check server not started: disabled")
		return nil
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	mux.Handle("/metrics", a.metrics.Handler())
	return &http.Server{
		Addr:    fmt.Sprintf(":%d", a.config.HealthcheckPort),
		Handler: mux,
	}
}

// serveUntilDone runs srv until ctx ends, then shuts it down gracefully.
func serveUntilDone(ctx context.Context, logger *slog.Logger, name string, srv *http.Server) error {
	errc := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", "server", name, "address", srv.Addr)
		// ListenAndServe returns ErrServerClosed on graceful shutdown.
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("%s server: %w", name, err)
			return
		}
		errc <- nil
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("Shutting down HTTP server...", "server", name)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "server", name, "error", err)
		return err
	}
	return <-errc
}
