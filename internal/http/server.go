package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"shelterstats/internal/highlights"
	applog "shelterstats/internal/log"
	"shelterstats/internal/middleware/ratelimit"
	"shelterstats/internal/middleware/security"
	"shelterstats/internal/middleware/trace"
	"shelterstats/internal/services"
	"shelterstats/internal/sheets"
	"shelterstats/internal/storage"

	"golang.org/x/sync/singleflight"
)

type (
	// Refresher is the part of the background refresher the API drives.
	Refresher interface {
		services.DatasetSource
		Trigger(trigger string) error
		Ready() bool
		InFlight() bool
	}

	// RunLister lists journaled refresh runs, newest first.
	RunLister interface {
		RecentRefreshes(ctx context.Context, limit int) ([]storage.RefreshRun, error)
	}

	// RunCounter counts journaled refresh runs per status.
	RunCounter interface {
		RefreshCounts(ctx context.Context) (map[string]int64, error)
	}

	// Observer receives request metrics.
	Observer interface {
		ObserveHTTP(route string, code int, d time.Duration)
		ProxyCall(outcome string)
	}
)

// Config wires the server's collaborators. Journal, Observer and
// MetricsHandler are optional.
type Config struct {
	Addr           string
	Stats          *services.StatsService
	Refresher      Refresher
	Proxy          sheets.MatrixReader
	Highlights     highlights.Set
	Journal        RunLister
	Observer       Observer
	MetricsHandler http.Handler
	Logger         *applog.Logger

	// ProxyTimeout bounds one upstream read of the boundary proxy.
	ProxyTimeout time.Duration
	// RefreshPerMinute limits POST /api/refresh per client.
	RefreshPerMinute int
	TrustedProxies   []string
}

// Server serves the stats API and the sheets boundary proxy.
type Server struct {
	http.Server

	stats      *services.StatsService
	refresher  Refresher
	proxy      sheets.MatrixReader
	highlights highlights.Set
	journal    RunLister
	counts     RunCounter
	observer   Observer

	rateLimiter *ratelimit.Limiter
	ipResolver  *security.ClientIPResolver
	trace       *trace.Middleware
	logger      *applog.Logger
	logs        *applog.StructuredLogger

	proxyGroup   singleflight.Group
	proxyTimeout time.Duration

	started      time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config) *Server {
	if cfg.ProxyTimeout <= 0 {
		cfg.ProxyTimeout = 30 * time.Second
	}
	if cfg.Proxy == nil {
		cfg.Proxy = sheets.Failing{Err: sheets.ErrNoData}
	}
	if cfg.Highlights.Cards == nil {
		cfg.Highlights.Cards = []highlights.Card{}
	}
	if cfg.Logger == nil {
		cfg.Logger = applog.FromContext(context.Background()).WithComponent(applog.ComponentHTTP)
	}

	s := &Server{
		stats:        cfg.Stats,
		refresher:    cfg.Refresher,
		proxy:        cfg.Proxy,
		highlights:   cfg.Highlights,
		journal:      cfg.Journal,
		observer:     cfg.Observer,
		ipResolver:   security.NewClientIPResolver(),
		proxyTimeout: cfg.ProxyTimeout,
		logger:       cfg.Logger,
		logs:         applog.NewStructuredLogger(cfg.Logger),
		started:      time.Now(),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.RefreshPerMinute,
		}),
	}
	if c, ok := cfg.Journal.(RunCounter); ok {
		s.counts = c
	}
	for _, cidr := range cfg.TrustedProxies {
		if err := s.ipResolver.AddTrustedProxy(cidr); err != nil {
			s.logger.Warn("Ignoring trusted proxy", "cidr", cidr, "error", err)
		}
	}
	s.trace = trace.NewMiddleware(s.ipResolver.ExtractClientIP, cfg.Logger)

	mux := http.NewServeMux()

	// Boundary proxy handles its own methods so CORS headers reach every response.
	s.handle(mux, "/api/sheets", "sheets", applog.ComponentProxy, http.HandlerFunc(s.handleSheetsProxy))

	s.handle(mux, "GET /api/stats/ytd", "stats_ytd", applog.ComponentStats, http.HandlerFunc(s.handleYearToDate))
	s.handle(mux, "GET /api/stats/full-year", "stats_full_year", applog.ComponentStats, http.HandlerFunc(s.handleFullYear))
	s.handle(mux, "GET /api/stats/monthly", "stats_monthly", applog.ComponentStats, http.HandlerFunc(s.handleMonthly))
	s.handle(mux, "GET /api/stats/shares", "stats_shares", applog.ComponentStats, http.HandlerFunc(s.handleShares))
	s.handle(mux, "GET /api/highlights", "highlights", applog.ComponentHTTP, http.HandlerFunc(s.handleHighlights))
	s.handle(mux, "GET /api/status", "status", applog.ComponentHTTP, security.NoStore(http.HandlerFunc(s.handleStatus)))

	limited := s.rateLimiter.Middleware(s.ipResolver.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
	})
	s.handle(mux, "POST /api/refresh", "refresh", applog.ComponentRefresh, limited(http.HandlerFunc(s.handleRefresh)))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if cfg.MetricsHandler != nil {
		mux.Handle("GET /metrics", cfg.MetricsHandler)
	}

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	var handler http.Handler = mux
	handler = applog.RequestIDMiddleware(func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	})(handler)
	handler = applog.Middleware(cfg.Logger)(handler)
	handler = headers.Middleware(handler)
	handler = s.trace.Middleware(handler)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.ProxyTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// handle registers h under pattern. Requests log as component with the
// route attached, and their latency is recorded under route.
func (s *Server) handle(mux *http.ServeMux, pattern, route, component string, h http.Handler) {
	h = applog.ComponentMiddleware(component)(h)
	mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := applog.NewContext(r.Context(), applog.FromContext(r.Context()).With(applog.FieldRoute, route))
		r = r.WithContext(ctx)
		if s.observer == nil {
			h.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rw := trace.NewResponseWriter(w)
		h.ServeHTTP(rw, r)
		s.observer.ObserveHTTP(route, rw.Status(), time.Since(start))
	}))
}

// Shutdown gracefully shuts down the server and its background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
