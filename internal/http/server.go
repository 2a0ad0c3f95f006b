// Package http exposes the ledger, session and chat operations as a JSON API.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"spendlog/internal/chat"
	"spendlog/internal/core"
	applog "spendlog/internal/log"
	"spendlog/internal/middleware/ratelimit"
	"spendlog/internal/middleware/security"
	"spendlog/internal/middleware/trace"
	"spendlog/internal/sessions"
)

// Ledger is the service surface the handlers drive.
type Ledger interface {
	AddExpense(ctx context.Context, tenantID int64, date time.Time, name string, cost float64) error
	ListExpenses(ctx context.Context, tenantID int64, date *time.Time) ([]core.Expense, error)
	ExpensesInRange(ctx context.Context, tenantID int64, from, to time.Time) ([]core.Expense, error)
	StatisticsWithThreshold(ctx context.Context, tenantID int64, from, to time.Time, threshold float64) (core.Statistics, []core.Expense, error)
	DeleteLast(ctx context.Context, tenantID int64) (core.Expense, bool, error)
	Search(ctx context.Context, tenantID int64, text string, from, to *time.Time) ([]core.Expense, error)
	Threshold() float64
}

// Options carries the collaborators of a Server. Chat, Ready and Logger may be nil.
type Options struct {
	Ledger             Ledger
	Sessions           *sessions.Directory
	Chat               *chat.Dispatcher
	Location           *time.Location
	Logger             *slog.Logger
	RateLimitPerMinute int

	// Ready reports whether dependencies are usable; nil means always ready
	Ready func(context.Context) error
}

type Server struct {
	http.Server
	ledger   Ledger
	sessions *sessions.Directory
	chat     *chat.Dispatcher
	loc      *time.Location
	logger   *slog.Logger
	ready    func(context.Context) error
	now      func() time.Time

	limiter      *ratelimit.Limiter
	tracer       *trace.Middleware
	detector     *security.Detector
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, opts Options) *Server {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Sessions == nil {
		opts.Sessions = sessions.NewDirectory(0, 0)
	}

	s := &Server{
		ledger:   opts.Ledger,
		sessions: opts.Sessions,
		chat:     opts.Chat,
		loc:      opts.Location,
		logger:   applog.WithComponent(opts.Logger, applog.ComponentHTTP),
		ready:    opts.Ready,
		now:      time.Now,
	}
	s.detector = security.NewDetector(applog.WithComponent(opts.Logger, applog.ComponentSecurity))
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, applog.WithComponent(opts.Logger, applog.ComponentTrace))
	s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("PUT /api/tenants/{tenantID}/add", s.byTenant(s.handleAdd))
	mux.HandleFunc("GET /api/tenants/{tenantID}/all", s.byTenant(s.handleAll))
	mux.HandleFunc("GET /api/tenants/{tenantID}/expenses-for-dates", s.byTenant(s.handleExpensesForDates))
	mux.HandleFunc("GET /api/tenants/{tenantID}/statistics", s.byTenant(s.handleStatistics))
	mux.HandleFunc("POST /api/tenants/{tenantID}/pop", s.byTenant(s.handlePop))
	mux.HandleFunc("GET /api/tenants/{tenantID}/search", s.byTenant(s.handleSearch))
	mux.HandleFunc("POST /api/tenants/{tenantID}/sessions", s.byTenant(s.handleCreateSession))
	mux.HandleFunc("POST /api/tenants/{tenantID}/chat", s.byTenant(s.handleChat))

	mux.HandleFunc("GET /api/sessions/{token}/all", s.bySession(s.handleAll))
	mux.HandleFunc("GET /api/sessions/{token}/expenses-for-dates", s.bySession(s.handleExpensesForDates))
	mux.HandleFunc("GET /api/sessions/{token}/statistics", s.bySession(s.handleStatistics))
	mux.HandleFunc("GET /api/sessions/{token}/search", s.bySession(s.handleSearch))
	mux.HandleFunc("DELETE /api/sessions/{token}", s.handleRevokeSession)

	onLimit := func(w http.ResponseWriter, r *http.Request) {
		s.logger.WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, s.detector.ExtractClientIP(r),
			applog.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
	}

	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, onLimit)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.detector.Middleware(handler)
	handler = applog.Middleware(s.logger, func(r *http.Request) string { return trace.GetRequestID(r.Context()) })(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// tenantHandler serves a request already resolved to a tenant.
type tenantHandler func(w http.ResponseWriter, r *http.Request, tenantID int64)

func (s *Server) byTenant(h tenantHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := parseTenantID(r)
		if err != nil {
			BadRequestError(err.Error()).Write(w)
			return
		}
		h(w, r, tenantID)
	}
}

// bySession resolves {token}; unknown or expired tokens are 404.
func (s *Server) bySession(h tenantHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := s.sessions.ResolveSession(r.PathValue("token"))
		if !ok {
			NotFoundError(sessions.ErrUnknownSession.Error()).Write(w)
			return
		}
		h(w, r, tenantID)
	}
}

// Stats is a snapshot of the request counters.
type Stats struct {
	Requests    int64
	RateLimited int64
	Suspicious  int64
}

func (s *Server) Stats() Stats {
	return Stats{
		Requests:    s.tracer.TotalRequests(),
		RateLimited: s.limiter.Rejected(),
		Suspicious:  s.detector.Suspicious(),
	}
}

// Shutdown stops accepting requests and the limiter's cleanup loop.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
