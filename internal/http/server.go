// Package http exposes the ledger over a JSON API. Handlers stay thin:
// parse, delegate to the service, encode.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"zenbudget/internal/core"
	"zenbudget/internal/insights"
	"zenbudget/internal/ledger"
	"zenbudget/internal/services"
)

// Ledger is the service surface the handlers call.
type Ledger interface {
	Snapshot(ctx context.Context) (core.Snapshot, error)
	AccountViews(ctx context.Context, cutoff time.Time) ([]services.AccountView, error)
	NetWorth(ctx context.Context, start, end time.Time) (ledger.TrendSeries, error)
	AccountTrend(ctx context.Context, accountID string, start, end time.Time) (ledger.TrendSeries, error)
	Summary(ctx context.Context, start, end time.Time) (ledger.Summary, error)
	BudgetStatuses(ctx context.Context, year int, month time.Month) ([]ledger.BudgetStatus, error)
	AddTransaction(ctx context.Context, tx core.Transaction) (string, error)
	DeleteTransaction(ctx context.Context, id string) error
	SaveAccount(ctx context.Context, a core.Account) (string, error)
	DeleteAccount(ctx context.Context, id string) error
	SetBudget(ctx context.Context, category string, period core.BudgetPeriod, value core.Money) error
	DeleteBudget(ctx context.Context, category string) error
	SaveCategory(ctx context.Context, c core.Category) (string, error)
	DeleteCategory(ctx context.Context, id string) error
	RenameCategory(ctx context.Context, oldName, newName string) error
	SaveSettings(ctx context.Context, st core.Settings) error
	Import(ctx context.Context, data []byte) error
	Export(ctx context.Context) ([]byte, error)
}

// InsightGenerator produces model-backed spending advice. Optional.
type InsightGenerator interface {
	Generate(ctx context.Context, snap core.Snapshot, now time.Time) (insights.Insight, error)
}

type Server struct {
	http.Server
	ledger      Ledger
	insights    InsightGenerator
	rateLimiter *rateLimiter
	trendWindow time.Duration // default span for trend queries without ?start

	shutdownOnce sync.Once
}

const defaultTrendWindow = 30 * 24 * time.Hour

// NewServer configures the API routes and returns a ready-to-run server.
// A nil insight generator turns /api/insights into a 503.
func NewServer(addr string, svc Ledger, ins InsightGenerator, trendWindow time.Duration) *Server {
	if trendWindow <= 0 {
		trendWindow = defaultTrendWindow
	}
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		ledger:      svc,
		insights:    ins,
		rateLimiter: newRateLimiter(),
		trendWindow: trendWindow,
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/api/accounts", s.withRequestLogging(s.handleAccounts))
	mux.HandleFunc("/api/accounts/", s.withRequestLogging(s.handleAccountByID))
	mux.HandleFunc("/api/networth", s.withRequestLogging(s.handleNetWorth))
	mux.HandleFunc("/api/summary", s.withRequestLogging(s.handleSummary))
	mux.HandleFunc("/api/budgets", s.withRequestLogging(s.handleBudgets))
	mux.HandleFunc("/api/budgets/", s.withRequestLogging(s.handleBudgetByCategory))
	mux.HandleFunc("/api/transactions", s.withRequestLogging(s.handleTransactions))
	mux.HandleFunc("/api/transactions/", s.withRequestLogging(s.handleTransactionByID))
	mux.HandleFunc("/api/categories", s.withRequestLogging(s.handleCategories))
	mux.HandleFunc("/api/categories/rename", s.withRequestLogging(s.handleRenameCategory))
	mux.HandleFunc("/api/categories/", s.withRequestLogging(s.handleCategoryByID))
	mux.HandleFunc("/api/settings", s.withRequestLogging(s.handleSettings))
	mux.HandleFunc("/api/export", s.withRequestLogging(s.handleExport))
	mux.HandleFunc("/api/import", s.withRequestLogging(s.handleImport))
	mux.HandleFunc("/api/insights", s.withRequestLogging(s.handleInsights))

	return s
}

// Shutdown stops the rate limiter cleanup goroutine and drains the server.
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

// withRequestLogging adds request IDs, rate limiting on writes and
// start/completion logs around every API handler.
func (s *Server) withRequestLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if isWrite(r.Method) && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
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

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
