// Package http serves the JSON API: routing, middleware and handlers that
// translate requests into service calls.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"financas/internal/auth"
	"financas/internal/core"
	applog "financas/internal/log"
	"financas/internal/middleware/identity"
	"financas/internal/middleware/ratelimit"
	"financas/internal/middleware/security"
	"financas/internal/middleware/trace"
	"financas/internal/ports"
	"financas/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deps are the collaborators the handlers call into.
type Deps struct {
	Store    ports.Store
	Tokens   *auth.Tokens
	Incomes  *services.IncomeService
	Expenses *services.ExpenseService
	Accounts *services.AccountService
	Savings  *services.SavingsService
	Reports  *services.ReportService
	Exports  *services.ExportService
	Users    *services.UserService
	Backups  *services.BackupService
	Imports  *services.ImportService

	RateLimit ratelimit.Config
}

// NewDeps wires every service over one store. publisher and sheets may be
// nil.
func NewDeps(store ports.Store, publisher ports.EventPublisher, tokens *auth.Tokens, reports *services.ReportService, sheets services.SheetWriter) Deps {
	users := services.NewUserService(store, tokens)
	return Deps{
		Store:     store,
		Tokens:    tokens,
		Incomes:   services.NewIncomeService(store, reports),
		Expenses:  services.NewExpenseService(store, publisher, reports),
		Accounts:  services.NewAccountService(store, reports),
		Savings:   services.NewSavingsService(store),
		Reports:   reports,
		Exports:   services.NewExportService(reports, sheets),
		Users:     users,
		Backups:   services.NewBackupService(store, users, reports),
		Imports:   services.NewImportService(store, users, reports),
		RateLimit: ratelimit.DefaultConfig(),
	}
}

type Server struct {
	http.Server
	deps Deps

	securityDetector *security.Detector
	rateLimiter      *ratelimit.Limiter
	tracer           *trace.Middleware
	startedAt        time.Time

	shutdownOnce sync.Once
}

// NewServer builds the router and the middleware chain.
func NewServer(addr string, deps Deps) *Server {
	s := &Server{
		deps:             deps,
		securityDetector: security.NewDetector(),
		rateLimiter:      ratelimit.NewLimiter(deps.RateLimit),
		startedAt:        time.Now(),
	}
	s.tracer = trace.NewMiddleware(s.securityDetector.ExtractClientIP)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.CleanPath)
	r.Use(s.tracer.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.securityDetector.Middleware)
	r.Use(s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, onRateLimited))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusNotFound, CodeNotFound, "route not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, CodeValidation, "method not allowed").Write(w)
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(identity.Middleware(s.deps.Tokens, onUnauthenticated))

			r.Get("/auth/me", s.handleMe)
			r.Post("/auth/register", s.handleRegister)

			r.Route("/incomes", func(r chi.Router) {
				r.Use(applog.ComponentMiddleware(applog.ComponentIncome))
				r.Get("/", s.handleListIncomes)
				r.Post("/", s.handleCreateIncome)
				r.Get("/{id}", s.handleGetIncome)
				r.Put("/{id}", s.handleUpdateIncome)
				r.Delete("/{id}", s.handleDeleteIncome)
			})

			r.Route("/expenses", func(r chi.Router) {
				r.Use(applog.ComponentMiddleware(applog.ComponentExpense))
				r.Get("/", s.handleListExpenses)
				r.Post("/", s.handleCreateExpense)
				r.Get("/{id}", s.handleGetExpense)
				r.Put("/{id}", s.handleUpdateExpense)
				r.Delete("/{id}", s.handleDeleteExpense)
			})
			r.Get("/purchases/{id}", s.handleGetPurchase)
			r.Get("/installments", s.handleListInstallments)
			r.Get("/installments/summary", s.handleInstallmentSummary)

			r.Route("/accounts", func(r chi.Router) {
				r.Use(applog.ComponentMiddleware(applog.ComponentAccount))
				r.Get("/", s.handleListAccounts)
				r.Post("/", s.handleCreateAccount)
				r.Get("/{id}", s.handleGetAccount)
				r.Put("/{id}", s.handleUpdateAccount)
				r.Delete("/{id}", s.handleDeleteAccount)
			})

			r.Route("/savings", func(r chi.Router) {
				r.Use(applog.ComponentMiddleware(applog.ComponentSavings))
				r.Get("/", s.handleListSavings)
				r.Post("/", s.handleCreateSavings)
				r.Get("/evolution", s.handleSavingsEvolution)
				r.Put("/{id}", s.handleUpdateSavings)
				r.Delete("/{id}", s.handleDeleteSavings)
			})

			r.Get("/dashboard/summary", s.handleDashboardSummary)
			r.Get("/reports/annual", s.handleAnnualReport)
			r.Get("/reports/years", s.handleReportYears)
			r.Get("/reports/annual/xlsx", s.handleAnnualXLSX)
			r.Post("/reports/annual/sheets", s.handleAnnualSheets)

			r.Post("/backup/export", s.handleBackupExport)
			r.Post("/backup/import", s.handleBackupImport)
			r.Post("/import", s.handleImport)

			r.Get("/users", s.handleListUsers)
			r.Delete("/users/{id}", s.handleDeleteUser)
		})
	})

	return r
}

func onRateLimited(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded, try again later").Write(w)
}

func onUnauthenticated(w http.ResponseWriter, r *http.Request, err error) {
	UnauthorizedError("not authorized").Write(w)
}

// Shutdown stops background routines and then the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
	})
	return s.Server.Shutdown(ctx)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	}).Write(w)
}

// handleReady checks the store and reports middleware counters.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	checks := map[string]any{}

	if pinger, ok := s.deps.Store.(interface{ Ping(context.Context) error }); ok {
		if err := pinger.Ping(ctx); err != nil {
			trace.Logger(ctx).ErrorContext(ctx, "Readiness check failed", "component", applog.ComponentStorage, "error", err)
			checks["storage"] = "failed"
			status = "not_ready"
		} else {
			checks["storage"] = "ok"
		}
	} else {
		checks["storage"] = "ok"
	}
	if schema, ok := s.deps.Store.(interface{ SchemaVersion() uint }); ok {
		checks["schema_version"] = schema.SchemaVersion()
	}

	sec := s.securityDetector.GetMetrics()
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"limited":        s.rateLimiter.GetMetrics().TotalHits,
	}
	checks["security"] = map[string]any{
		"blocked_requests": sec.BlockedRequests,
	}
	traffic := s.tracer.GetMetrics()
	checks["requests"] = map[string]any{
		"total":           traffic.TotalRequests,
		"avg_response_us": traffic.AverageResponseTime,
	}
	checks["sheets_export"] = s.deps.Exports.SheetsEnabled()

	b := NewJSONResponse().Data(map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
	if status != "ready" {
		b.Status(http.StatusServiceUnavailable)
		b.body.Success = false
	}
	b.Write(w)
}

// caller returns the authenticated user id. The identity middleware
// guarantees it on every /api route except login and logout.
func caller(r *http.Request) string {
	id, _ := identity.FromContext(r.Context())
	return id.UserID
}

// fail logs server side failures and writes the mapped error response.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	resp := ErrorFrom(err)
	if resp.statusCode >= http.StatusInternalServerError {
		ctx := r.Context()
		logger := applog.FromContext(ctx)
		applog.NewStructuredLogger(logger).LogError(ctx, "Request failed", err,
			logger.Component(), operationFor(r.Method),
			applog.NewFields().WithUser(caller(r)))
	}
	resp.Write(w)
}

func operationFor(method string) string {
	switch method {
	case http.MethodPost:
		return applog.OpCreate
	case http.MethodPut, http.MethodPatch:
		return applog.OpUpdate
	case http.MethodDelete:
		return applog.OpDelete
	default:
		return applog.OpRead
	}
}

// created writes a 201 with the given payload.
func created(w http.ResponseWriter, v any) {
	NewJSONResponse().Status(http.StatusCreated).Data(v).Write(w)
}

func writeData(w http.ResponseWriter, v any) {
	NewJSONResponse().Data(v).Write(w)
}

// today is the default for "from" style parameters.
var today = core.Today
