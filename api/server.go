// Package api serves wrapping and execution over HTTP.
//
// Endpoints:
//
//	GET  /health                 liveness
//	GET  /metrics                request counters
//	GET  /api/languages          supported languages
//	POST /api/names              derive a function name from a title
//	POST /api/wrap               wrap user code into a runnable program
//	GET  /api/problems           list the catalog
//	GET  /api/problems/{id}      one problem with its tests
//	POST /api/run                wrap and execute
//	GET  /api/ws/run             wrap and execute, streaming per-case results
//
// JSON responses use the {error, data, message} envelope.
package api

import (
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/skillupx/skillupx/problem"
	"github.com/skillupx/skillupx/runner"
	"github.com/skillupx/skillupx/wrapper"
)

// Metrics counts requests since start.
type Metrics struct {
	Requests    atomic.Uint64
	Errors      atomic.Uint64
	RateLimited atomic.Uint64
	Wraps       atomic.Uint64
	Runs        atomic.Uint64
	Cases       atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	Requests    uint64 `json:"requests"`
	Errors      uint64 `json:"errors"`
	RateLimited uint64 `json:"rateLimited"`
	Wraps       uint64 `json:"wraps"`
	Runs        uint64 `json:"runs"`
	Cases       uint64 `json:"cases"`
	Uptime      string `json:"uptime"`
}

// Server holds the handlers' dependencies.
type Server struct {
	wrapper        *wrapper.Wrapper
	store          problem.Store
	runner         runner.Runner
	logger         *slog.Logger
	metrics        *Metrics
	limiter        *ipRateLimiter
	origins        []string
	maxSourceBytes int
	timeLimit      time.Duration
	memoryLimitKB  int
	concurrency    int
	started        time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithStore sets the problem catalog.
func WithStore(store problem.Store) Option {
	return func(s *Server) {
		s.store = store
	}
}

// WithRunner sets the execution backend. Without one, run endpoints answer
// 503.
func WithRunner(r runner.Runner) Option {
	return func(s *Server) {
		s.runner = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithRateLimit allows r requests per second per client with bursts of b.
// A zero rate disables limiting.
func WithRateLimit(r float64, b int) Option {
	return func(s *Server) {
		if r <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = newIPRateLimiter(rate.Limit(r), b)
	}
}

// WithAllowedOrigins sets the CORS origins. Default is any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// WithMaxSourceBytes caps the size of submitted code.
func WithMaxSourceBytes(n int) Option {
	return func(s *Server) {
		s.maxSourceBytes = n
	}
}

// WithLimits sets the default per-run time and memory limits.
func WithLimits(timeLimit time.Duration, memoryLimitKB int) Option {
	return func(s *Server) {
		s.timeLimit = timeLimit
		s.memoryLimitKB = memoryLimitKB
	}
}

// WithConcurrency bounds how many test cases of one run execute at once.
func WithConcurrency(n int) Option {
	return func(s *Server) {
		s.concurrency = n
	}
}

// New creates a Server around w.
func New(w *wrapper.Wrapper, opts ...Option) *Server {
	s := &Server{
		wrapper:        w,
		logger:         slog.Default(),
		metrics:        &Metrics{},
		origins:        []string{"*"},
		maxSourceBytes: 64 * 1024,
		timeLimit:      runner.DefaultTimeLimit,
		concurrency:    4,
		started:        time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Metrics returns the live counters.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := chi.NewRouter()

	mux.Use(requestID)
	mux.Use(middleware.Recoverer)
	mux.Use(s.logRequests)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Get("/metrics", s.handleMetrics)

	mux.Route("/api", func(r chi.Router) {
		r.Use(s.rateLimit)

		r.Get("/languages", s.handleLanguages)
		r.Post("/names", s.handleNames)
		r.Post("/wrap", s.handleWrap)
		r.Post("/run", s.handleRun)
		r.Get("/ws/run", s.handleRunWS)

		r.Route("/problems", func(r chi.Router) {
			r.Get("/", s.handleListProblems)
			r.Get("/{id}", s.handleGetProblem)
		})
	})

	return mux
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	m := s.metrics
	writeJSON(w, http.StatusOK, MetricsSnapshot{
		Requests:    m.Requests.Load(),
		Errors:      m.Errors.Load(),
		RateLimited: m.RateLimited.Load(),
		Wraps:       m.Wraps.Load(),
		Runs:        m.Runs.Load(),
		Cases:       m.Cases.Load(),
		Uptime:      time.Since(s.started).Round(time.Second).String(),
	}, "")
}
