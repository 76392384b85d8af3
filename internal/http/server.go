package http

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"spendwise/internal/core"
	applog "spendwise/internal/log"
	"spendwise/internal/middleware/cors"
	"spendwise/internal/middleware/ratelimit"
	"spendwise/internal/middleware/recovery"
	"spendwise/internal/middleware/security"
	"spendwise/internal/middleware/trace"
	appweb "spendwise/web"
)

// ExpenseService is what the API needs from the domain layer.
type ExpenseService interface {
	CreateExpense(ctx context.Context, d core.Draft) (core.Expense, error)
	ListExpenses(ctx context.Context) ([]core.Expense, error)
	TotalSpending(ctx context.Context) (core.Amount, error)
	DeleteExpense(ctx context.Context, id int64) (core.Expense, error)
	Ready(ctx context.Context) error
}

// Options configures NewServer.
type Options struct {
	Addr              string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	CORSAllowedOrigin string
	// RateLimitPerMin caps POST requests per client; 0 disables the limit.
	RateLimitPerMin int
	Logger          *applog.Logger
}

type Server struct {
	http.Server
	expenses ExpenseService
	logger   *applog.Logger
	detector *security.Detector
	tracer   *trace.Middleware
	limiter  *ratelimit.Limiter

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(opts Options, svc ExpenseService) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			ReadTimeout:       opts.ReadTimeout,
			ReadHeaderTimeout: opts.ReadTimeout,
			WriteTimeout:      opts.WriteTimeout,
		},
		expenses: svc,
		logger:   logger,
		detector: security.NewDetector(),
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/ready", s.handleReady)
	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("GET /api/expenses/total", s.handleTotalSpending)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)
	mux.HandleFunc("GET /api/", func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("Not found").Write(w)
	})

	// Console page and assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		mux.Handle("GET /", security.StaticAssetMiddleware(300)(http.FileServer(http.FS(sub))))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	var handler http.Handler = mux
	if opts.RateLimitPerMin > 0 {
		s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMin})
		handler = s.limiter.Middleware(s.detector.ExtractClientIP, http.MethodPost)(handler)
	}
	handler = s.detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = cors.Middleware(opts.CORSAllowedOrigin)(handler)
	handler = recovery.Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Handler = handler
	return s
}

// Shutdown gracefully shuts down the server and the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		stats := []any{applog.FieldOperation, applog.OpShutdown, "suspicious_requests", s.detector.SuspiciousCount()}
		if s.limiter != nil {
			stats = append(stats, "rate_limited", s.limiter.Hits(), "tracked_clients", s.limiter.ActiveClients())
			s.limiter.Stop()
		}
		s.logger.InfoContext(ctx, "HTTP server shutting down", stats...)
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
