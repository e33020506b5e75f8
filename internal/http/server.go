package http

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"expenses/internal/log"
	"expenses/internal/middleware/ratelimit"
	"expenses/internal/middleware/security"
	"expenses/internal/middleware/trace"
	"expenses/internal/services"
	appweb "expenses/web"
)

// Services are the application services the handlers call into.
type Services struct {
	Expenses    *services.ExpenseService
	Incomes     *services.IncomeService
	Summaries   *services.SummaryService
	Preferences *services.PreferenceService
	Accounts    *services.AccountService

	// Ready reports whether the backing store answers; used by /readyz.
	Ready func(ctx context.Context) error
}

// Options tune the transport.
type Options struct {
	Logger         *log.Logger
	SecureCookies  bool
	LoginRateLimit int // login attempts per client per minute, 0 disables
	TrustedProxies []string
}

type Server struct {
	http.Server
	svc    Services
	pages  *pageSet
	logger *log.Logger
	events *log.StructuredLogger

	detector      *security.Detector
	loginLimiter  *ratelimit.Limiter
	tracer        *trace.Middleware
	secureCookies bool
	started       time.Time
}

// NewServer parses the embedded templates and configures every route.
func NewServer(addr string, svc Services, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	pages, err := loadPages(appweb.TemplatesFS)
	if err != nil {
		return nil, err
	}

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", cidr, err)
		}
	}

	s := &Server{
		svc:           svc,
		pages:         pages,
		logger:        logger,
		events:        log.NewStructuredLogger(logger),
		detector:      detector,
		loginLimiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.LoginRateLimit, CleanupInterval: 5 * time.Minute}),
		secureCookies: opts.SecureCookies,
		started:       time.Now(),
	}
	s.tracer = trace.NewMiddleware(logger, detector.ExtractClientIP)

	mux := http.NewServeMux()
	if err := s.routes(mux); err != nil {
		return nil, err
	}

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Server = http.Server{
		Addr:    addr,
		Handler: s.tracer.Middleware(headers.Middleware(detector.Middleware(mux))),
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) error {
	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("mount static assets: %w", err)
	}
	static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /{$}", s.handleIndex)

	mux.Handle("GET /expenses/{$}", s.requireUser(s.handleExpenseList))
	mux.Handle("GET /expenses/add", s.requireUser(s.handleExpenseAddForm))
	mux.Handle("POST /expenses/add", s.requireUser(s.handleExpenseCreate))
	mux.Handle("GET /expenses/edit/{id}", s.requireUser(s.handleExpenseEditForm))
	mux.Handle("POST /expenses/edit/{id}", s.requireUser(s.handleExpenseUpdate))
	mux.Handle("POST /expenses/delete/{id}", s.requireUser(s.handleExpenseDelete))
	mux.Handle("/expenses/search", s.requireUser(s.handleExpenseSearch))
	mux.Handle("GET /expenses/category-summary", s.requireUser(s.handleExpenseCategorySummary))
	mux.Handle("GET /expenses/summary", s.requireUser(s.handleSummaryPage))
	mux.Handle("GET /expenses/summary/data", s.requireUser(s.handleSummaryData))
	mux.Handle("GET /expenses/stats", s.requireUser(s.handleStats))

	mux.Handle("GET /income/{$}", s.requireUser(s.handleIncomeList))
	mux.Handle("GET /income/add", s.requireUser(s.handleIncomeAddForm))
	mux.Handle("POST /income/add", s.requireUser(s.handleIncomeCreate))
	mux.Handle("GET /income/edit/{id}", s.requireUser(s.handleIncomeEditForm))
	mux.Handle("POST /income/edit/{id}", s.requireUser(s.handleIncomeUpdate))
	mux.Handle("POST /income/delete/{id}", s.requireUser(s.handleIncomeDelete))
	mux.Handle("/income/search", s.requireUser(s.handleIncomeSearch))
	mux.Handle("GET /income/summary", s.requireUser(s.handleIncomeSummary))

	mux.Handle("GET /preferences/{$}", s.requireUser(s.handlePreferences))
	mux.Handle("POST /preferences/{$}", s.requireUser(s.handlePreferencesSave))

	mux.HandleFunc("GET /authentication/register", s.handleRegisterForm)
	mux.HandleFunc("POST /authentication/register", s.handleRegister)
	mux.HandleFunc("GET /authentication/login", s.handleLoginForm)
	mux.Handle("POST /authentication/login",
		s.loginLimiter.Middleware(s.detector.ExtractClientIP, s.handleLoginLimited)(http.HandlerFunc(s.handleLogin)))
	mux.HandleFunc("POST /authentication/logout", s.handleLogout)
	mux.HandleFunc("POST /authentication/validate-username", s.handleValidateUsername)
	mux.HandleFunc("POST /authentication/validate-email", s.handleValidateEmail)
	mux.HandleFunc("GET /authentication/activate/{token}", s.handleActivate)
	return nil
}

// Metrics exposes request counters collected by the trace middleware.
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}
