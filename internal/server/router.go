// Package server exposes the download method over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"ytbridge/internal/domain/consts"
	"ytbridge/internal/domain/logger"
	"ytbridge/internal/metrics"
	"ytbridge/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Submitter queues a download and delivers its single result on the returned channel.
type Submitter interface {
	Submit(url, format string) <-chan models.DownloadResult
}

// NewRouter returns a http Handler.
func NewRouter(q Submitter) http.Handler {
	h := &handlers{queue: q}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	// --- API Routes ---
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/channels/{channel}", h.handleMethodCall)
	})

	return r
}

// StartServer serves on addr until ctx is done, then shuts down gracefully.
func StartServer(ctx context.Context, addr string, q Submitter) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(q),
		ReadHeaderTimeout: consts.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Pl.Info().Str("addr", addr).Msg("ytbridge web server running")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), consts.ShutdownTimeout)
		defer cancel()
		logger.Pl.Info().Msg("Shutting down web server")
		return srv.Shutdown(shutdownCtx)
	}
}

// requestLogger logs each request through the program logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		metrics.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(ww.Status())).Inc()

		logger.Pl.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", time.Since(start)).
			Msg("HTTP request")
	})
}
