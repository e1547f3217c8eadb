package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"spendcraft/internal/core"
	applog "spendcraft/internal/log"
	"spendcraft/internal/services"
)

type Server struct {
	http.Server
	ledger  *services.LedgerService
	reports *services.ReportService
	logger  *applog.Logger

	rateLimiter *rateLimiter

	// Cached summary buckets keyed by range and grouping. Any write
	// through the ledger clears the whole cache.
	summaryCache *lruCache[[]core.Bucket]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes, returning a ready-to-run http.Server.
// rateLimitPerMinute caps mutating requests per client IP.
func NewServer(addr string, ledger *services.LedgerService, reports *services.ReportService, rateLimitPerMinute int) *Server {
	mux := http.NewServeMux()
	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: applog.ComponentHTTP,
	})

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           applog.Middleware(logger)(mux),
			ReadHeaderTimeout: 10 * time.Second,
		},
		ledger:           ledger,
		reports:          reports,
		logger:           logger,
		rateLimiter:      newRateLimiter(rateLimitPerMinute, 5*time.Minute),
		summaryCache:     newLRUCache[[]core.Bucket](100, 5*time.Minute), // Max 100 entries, 5min TTL
		stopCacheCleanup: make(chan struct{}),
	}

	// Start periodic cache cleanup
	go s.startCacheCleanup()

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	mux.HandleFunc("POST /records", s.withMiddleware(s.handleCreateRecord))
	mux.HandleFunc("GET /records", s.withMiddleware(s.handleListRecords))
	mux.HandleFunc("GET /records/{id}", s.withMiddleware(s.handleGetRecord))
	mux.HandleFunc("PUT /records/{id}", s.withMiddleware(s.handleUpdateRecord))
	mux.HandleFunc("DELETE /records/{id}", s.withMiddleware(s.handleDeleteRecord))

	mux.HandleFunc("GET /categories", s.withMiddleware(s.handleCategories))

	mux.HandleFunc("GET /summary", s.withMiddleware(s.handleSummary))
	mux.HandleFunc("GET /insights/forecast", s.withMiddleware(s.handleForecast))
	mux.HandleFunc("GET /insights/budgets", s.withMiddleware(s.handleBudgets))
	mux.HandleFunc("GET /insights/anomalies", s.withMiddleware(s.handleAnomalies))
	mux.HandleFunc("GET /insights/comparison", s.withMiddleware(s.handleComparison))
	mux.HandleFunc("GET /insights/trend", s.withMiddleware(s.handleTrend))

	mux.HandleFunc("GET /reports", s.withMiddleware(s.handleBuildReport))
	mux.HandleFunc("GET /export/csv", s.withMiddleware(s.handleExportCSV))
	mux.HandleFunc("GET /export/xlsx", s.withMiddleware(s.handleExportXLSX))
	mux.HandleFunc("POST /import/csv", s.withMiddleware(s.handleImportCSV))
	mux.HandleFunc("POST /retrain", s.withMiddleware(s.handleRetrain))

	mux.HandleFunc("GET /backup", s.withMiddleware(s.handleBackup))
	mux.HandleFunc("POST /restore", s.withMiddleware(s.handleRestore))

	return s
}

// withMiddleware adds security headers, rate limiting, and request logging.
// Every request gets a logger tagged with its request id; handlers reach it
// through applog.FromContext.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := generateRequestID()
		reqLogger := s.logger.With(applog.FieldRequestID, requestID)
		ctx := context.WithValue(r.Context(), applog.LoggerContextKey, reqLogger)
		r = r.WithContext(ctx)

		structured := applog.NewStructuredLogger(reqLogger)
		structured.LogHTTPStart(ctx, r, clientIP)

		// Apply rate limiting to mutating requests
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			reqLogger.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				"rejected_total", s.rateLimiter.rejectedTotal())
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// Create a custom response writer to capture status code
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		structured.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// startCacheCleanup runs periodic cleanup for the summary cache.
func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cleaned := s.summaryCache.CleanExpired(); cleaned > 0 {
				s.logger.Debug("Cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	// Readiness means storage answers a cheap query.
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := s.ledger.ListRecords(ctx, recentRecordsProbe()); err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Readiness check failed", applog.FieldError, err)
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
