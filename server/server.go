// Package server exposes the session boundary over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/loanmesh/core"
	"github.com/hupe1980/loanmesh/engine"
	"github.com/hupe1980/loanmesh/logging"
)

// Sessions is the session boundary served over HTTP. *engine.Manager
// implements it.
type Sessions interface {
	CreateSession(ctx context.Context, customerID string) (string, error)
	GetSession(ctx context.Context, sessionID string) (*core.Record, error)
	ProcessMessage(ctx context.Context, sessionID, text string) (engine.Result, error)
	DiscardSession(ctx context.Context, sessionID string) error
	AttachDocument(ctx context.Context, sessionID string, up engine.Upload) (string, error)
	SetOTPPhone(ctx context.Context, sessionID, phone string) error
}

var _ Sessions = (*engine.Manager)(nil)

// Options configures a Server.
type Options struct {
	// Artifacts serves generated letters and uploads. Optional.
	Artifacts core.ArtifactStore
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	// MaxUploadBytes bounds document uploads.
	MaxUploadBytes int64
	Logger         logging.Logger
}

// Server routes HTTP requests to the session boundary.
type Server struct {
	sessions  Sessions
	artifacts core.ArtifactStore
	gatherer  prometheus.Gatherer
	maxUpload int64
	logger    logging.Logger
}

// New creates a Server.
func New(sessions Sessions, optFns ...func(o *Options)) *Server {
	opts := Options{
		MaxUploadBytes: 10 << 20,
		Logger:         logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Server{
		sessions:  sessions,
		artifacts: opts.Artifacts,
		gatherer:  opts.Gatherer,
		maxUpload: opts.MaxUploadBytes,
		logger:    opts.Logger,
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/health"))

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/", s.createSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Delete("/", s.discardSession)
			r.Post("/messages", s.processMessage)
			r.Post("/documents", s.attachDocument)
			r.Put("/otp-phone", s.setOTPPhone)
			r.Get("/artifacts/{artifactID}", s.getArtifact)
		})
	})

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration) error {
	srv.Handler = s.Handler()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
