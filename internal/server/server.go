package server

import (
	"context"
	"embed"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/detect-web/internal/config"
	"github.com/ironsheep/detect-web/internal/pipeline"
)

//go:embed static
var staticFiles embed.FS

// shutdownGrace bounds how long in-flight requests may finish during
// shutdown.
const shutdownGrace = 10 * time.Second

// Server wires the HTTP routes to the detection pipeline.
type Server struct {
	cfg      *config.Config
	pipeline *pipeline.Pipeline
	log      *logrus.Logger
	router   *mux.Router
	metrics  metrics
}

// metrics holds simple request counters exposed on /metrics.
type metrics struct {
	requests       atomic.Int64
	succeeded      atomic.Int64
	invalidInput   atomic.Int64
	remoteFailures atomic.Int64
}

// New creates a Server and registers its routes.
func New(cfg *config.Config, p *pipeline.Pipeline, log *logrus.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		pipeline: p,
		log:      log,
		router:   mux.NewRouter(),
	}

	s.router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	s.router.HandleFunc("/api/detect", s.handleDetect).Methods(http.MethodPost)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)
	s.router.Use(s.requestLogger)

	return s
}

// Handler returns the configured router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves HTTP until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.log.WithFields(logrus.Fields{
		"addr":  s.cfg.Addr,
		"model": s.cfg.ModelID,
	}).Info("server listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	s.log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		s.sendError(w, "internal_error", "demo page unavailable", "", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}
