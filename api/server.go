package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/siegeai/shapecast/capture"
	"github.com/siegeai/shapecast/codegen"
)

// Server exposes schema generation and the capture store over HTTP.
type Server struct {
	router  *mux.Router
	store   *capture.Store
	dialect codegen.Dialect
	metrics *metrics
}

// NewServer registers its metrics with reg and serves them at /metrics. Requests that do not
// name a dialect are rendered with dialect.
func NewServer(store *capture.Store, dialect codegen.Dialect, reg *prometheus.Registry) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		store:   store,
		dialect: dialect,
		metrics: newMetrics(reg),
	}
	s.setupRoutes(reg)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ServeJob serves on addr until ctx is cancelled.
func (s *Server) ServeJob(ctx context.Context, wg *sync.WaitGroup, addr string) {
	defer wg.Done()

	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("api shutdown", "err", err)
		}
	}()

	slog.Info("api listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("api stopped", "err", err)
	}
}
