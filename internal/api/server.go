// Package api exposes classification over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sells-group/hts-classify/internal/classify"
	"github.com/sells-group/hts-classify/internal/monitoring"
	"github.com/sells-group/hts-classify/internal/reference"
)

const defaultMaxBodyBytes = 1 << 20

// Classifier classifies one request. *classify.Service satisfies it.
type Classifier interface {
	Classify(ctx context.Context, req classify.Request) (*classify.Response, error)
}

// StatusReporter reports reference table health. *reference.Loader satisfies it.
type StatusReporter interface {
	Status(sourceID string) reference.Status
}

// Metrics records request outcomes the classifier does not see and exposes
// the counters. *monitoring.Collector satisfies it.
type Metrics interface {
	RecordRejection()
	RecordFailure()
	Snapshot() *monitoring.MetricsSnapshot
}

// Options configures the Server.
type Options struct {
	// Source is the reference source reported by /api/reference.
	Source       string
	CORSOrigins  []string
	MaxBodyBytes int64
}

// Server holds the HTTP handlers.
type Server struct {
	classifier Classifier
	status     StatusReporter
	metrics    Metrics
	opts       Options
}

// New creates a Server.
func New(classifier Classifier, status StatusReporter, metrics Metrics, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	return &Server{classifier: classifier, status: status, metrics: metrics, opts: opts}
}

// Routes returns the router with middleware and all endpoints mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/classify", s.handleClassify)
		r.Get("/reference", s.handleReference)
		r.Get("/metrics", s.handleMetrics)
	})
	return r
}
