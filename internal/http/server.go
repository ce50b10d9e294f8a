// Package http exposes the analysis engine over a small JSON API. Every
// endpoint is a pure function of its request body, so responses are safe to
// cache by request digest.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"finsight/internal/analysis"
	"finsight/internal/cache"
	"finsight/internal/log"
)

const (
	defaultCacheSize = 256
	defaultCacheTTL  = 15 * time.Minute
)

// BatchStore persists analysis batches for asynchronous processing and
// serves reports the worker has already produced.
type BatchStore interface {
	SaveBatch(ctx context.Context, id string, req analysis.Request) error
	GetReport(ctx context.Context, digest string) (*analysis.Report, error)
	Ping(ctx context.Context) error
}

// JobPublisher enqueues an analysis job for the worker.
type JobPublisher interface {
	PublishAnalysisJob(ctx context.Context, batchID string, version int64) error
}

// Options carries the optional collaborators. A nil Store disables async
// batches and stored-report lookups; a nil ReportCache gets a default one.
type Options struct {
	Store       BatchStore
	Publisher   JobPublisher
	ReportCache *cache.LRUCache[*analysis.Report]
	Logger      *log.Logger
}

type Server struct {
	http.Server
	analyzer    *analysis.Analyzer
	store       BatchStore
	publisher   JobPublisher
	reportCache *cache.LRUCache[*analysis.Report]
	rateLimiter *rateLimiter
	metrics     *securityMetrics
	logger      *log.Logger
	started     time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server listening on addr.
func NewServer(addr string, analyzer *analysis.Analyzer, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	reportCache := opts.ReportCache
	if reportCache == nil {
		reportCache = cache.NewLRUCache[*analysis.Report](defaultCacheSize, defaultCacheTTL)
	}

	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		analyzer:    analyzer,
		store:       opts.Store,
		publisher:   opts.Publisher,
		reportCache: reportCache,
		rateLimiter: newRateLimiter(),
		metrics:     &securityMetrics{},
		logger:      logger.WithComponent(log.ComponentHTTP),
		started:     time.Now(),
	}

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/v1/reports", s.withSecurityHeaders(s.handleAnalyzeReport))
	mux.HandleFunc("/v1/reports/", s.withSecurityHeaders(s.handleGetReport))
	mux.HandleFunc("/v1/variance", s.withSecurityHeaders(s.handleVariance))
	mux.HandleFunc("/v1/forecast", s.withSecurityHeaders(s.handleForecast))
	mux.HandleFunc("/v1/optimize", s.withSecurityHeaders(s.handleOptimize))
	mux.HandleFunc("/v1/goals", s.withSecurityHeaders(s.handleGoals))

	requestID := func(r *http.Request) string {
		if id := r.Header.Get("X-Request-ID"); id != "" {
			return id
		}
		return generateRequestID()
	}
	s.Handler = log.Middleware(s.logger)(log.RequestIDMiddleware(requestID)(mux))

	return s
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		clientIP := extractClientIP(r)
		httpLog := log.NewHTTPLogger(log.FromContext(ctx))

		httpLog.LogStart(ctx, r, clientIP)

		if detectSuspiciousRequest(r, s.metrics) {
			log.FromContext(ctx).WarnContext(ctx, "Suspicious request pattern",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
		}

		// Rate limiting applies to the analysis endpoints only; probes on
		// healthz/readyz bypass this wrapper entirely.
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP, s.metrics) {
			log.FromContext(ctx).WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		httpLog.LogEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
