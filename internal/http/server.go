package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"spendlens/internal/analytics"
	"spendlens/internal/core"
	applog "spendlens/internal/log"
	"spendlens/internal/middleware/ratelimit"
	"spendlens/internal/middleware/security"
	"spendlens/internal/middleware/trace"
	"spendlens/internal/services"
)

// ExpenseAPI is the write side used by the handlers.
type ExpenseAPI interface {
	Create(ctx context.Context, in services.ExpenseInput) (core.Expense, error)
	Update(ctx context.Context, expenseID string, in services.ExpenseInput) (core.Expense, error)
	Delete(ctx context.Context, expenseID string) error
	Get(ctx context.Context, expenseID string) ([]core.Record, error)
	Taxonomy(ctx context.Context) (core.Taxonomy, error)
	AddPerson(ctx context.Context, p core.Person) error
	AddStore(ctx context.Context, st core.Store) error
	AddCategory(ctx context.Context, c core.Category) error
}

// AnalyticsAPI is the read side used by the handlers.
type AnalyticsAPI interface {
	Analyze(ctx context.Context, q services.Query) (services.Result, error)
	Records(ctx context.Context, from, to, person string) ([]core.Record, error)
	Overview(ctx context.Context, months int) (analytics.Overview, error)
	Summary(ctx context.Context, q services.Query) (string, error)
}

// Pinger reports whether the backing store is usable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures the server. Zero values fall back to defaults.
type Options struct {
	Addr              string
	RateLimitRPS      float64
	RateLimitBurst    int
	TrustProxyHeaders bool
	Logger            *applog.Logger
	// Readiness is checked by /readyz; nil means always ready.
	Readiness Pinger
}

type Server struct {
	http.Server
	expenses  ExpenseAPI
	analytics AnalyticsAPI
	readiness Pinger

	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	detector *security.Detector
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(opts Options, expenses ExpenseAPI, an AnalyticsAPI) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	detector := security.NewDetector(opts.TrustProxyHeaders)
	s := &Server{
		expenses:  expenses,
		analytics: an,
		readiness: opts.Readiness,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerSecond: opts.RateLimitRPS,
			Burst:             opts.RateLimitBurst,
		}),
		tracer:   trace.NewMiddleware(logger, detector.ExtractClientIP),
		detector: detector,
		started:  time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	api := http.NewServeMux()
	api.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	api.HandleFunc("GET /api/expenses/{id}", s.handleGetExpense)
	api.HandleFunc("PUT /api/expenses/{id}", s.handleUpdateExpense)
	api.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)
	api.HandleFunc("GET /api/records", s.handleRecords)
	api.HandleFunc("GET /api/analytics", s.handleAnalytics)
	api.HandleFunc("GET /api/overview", s.handleOverview)
	api.HandleFunc("GET /api/summary", s.handleSummary)
	api.HandleFunc("GET /api/taxonomy", s.handleTaxonomy)
	api.HandleFunc("POST /api/people", s.handleAddPerson)
	api.HandleFunc("POST /api/stores", s.handleAddStore)
	api.HandleFunc("POST /api/categories", s.handleAddCategory)

	onLimit := func(w http.ResponseWriter, r *http.Request) { TooManyRequestsError().Write(w) }
	mux.Handle("/api/", s.limiter.Middleware(detector.ExtractClientIP, onLimit)(api))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	handler := s.tracer.Middleware(
		headers.Middleware(
			detector.Middleware(
				applog.Middleware(logger)(mux))))

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and its rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady pings the store with a short deadline.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"store": "ok"}
	status := http.StatusOK
	if s.readiness != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.readiness.Ping(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", "error", err)
			checks["store"] = "failed"
			status = http.StatusServiceUnavailable
		}
	}
	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	NewResponse().Status(status).JSON(map[string]any{
		"status": state,
		"checks": checks,
	}).Write(w)
}

// handleMetrics reports the middleware counters as JSON.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	traced := s.tracer.GetMetrics()
	limited := s.limiter.GetMetrics()
	NewResponse().JSON(map[string]any{
		"requests_total":       traced.TotalRequests,
		"avg_response_time_us": traced.AverageResponseTime,
		"rate_limit_hits":      limited.TotalHits,
		"rate_limit_clients":   limited.ClientCount,
		"suspicious_requests":  s.detector.GetMetrics().SuspiciousRequests,
		"uptime_seconds":       int64(time.Since(s.started).Seconds()),
	}).Write(w)
}
