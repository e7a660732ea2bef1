package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"ledgerstats/internal/core"
	"ledgerstats/internal/dashboard"
	"ledgerstats/internal/log"
	"ledgerstats/internal/middleware/ratelimit"
	"ledgerstats/internal/middleware/security"
	"ledgerstats/internal/middleware/trace"
)

// LoadHistory lists recent dashboard loads, newest first.
type LoadHistory interface {
	RecentLoads(ctx context.Context, limit int) ([]core.LoadEvent, error)
}

// Pinger is checked by the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures optional collaborators of the server.
type Options struct {
	History LoadHistory
	Pinger  Pinger
	// ReloadLimit throttles POST /api/reload per client.
	ReloadLimit ratelimit.Config
	// ReloadTimeout bounds a reload started by a request. Zero means 30s.
	ReloadTimeout time.Duration
	Logger        *log.Logger
}

type Server struct {
	http.Server
	dash          *dashboard.Dashboard
	history       LoadHistory
	pinger        Pinger
	limiter       *ratelimit.Limiter
	detector      *security.Detector
	tracer        *trace.Middleware
	logger        *log.Logger
	reloadTimeout time.Duration
	started       time.Time

	shutdownOnce sync.Once
}

// NewServer builds the view API around dash.
func NewServer(addr string, dash *dashboard.Dashboard, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	limitCfg := opts.ReloadLimit
	if limitCfg.Logger == nil {
		limitCfg.Logger = logger
	}
	reloadTimeout := opts.ReloadTimeout
	if reloadTimeout <= 0 {
		reloadTimeout = 30 * time.Second
	}

	detector := security.NewDetector(logger)
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		dash:          dash,
		history:       opts.History,
		pinger:        opts.Pinger,
		limiter:       ratelimit.NewLimiter(limitCfg),
		detector:      detector,
		tracer:        trace.NewMiddleware(detector.ExtractClientIP, logger),
		logger:        logger.WithComponent(log.ComponentHTTP),
		reloadTimeout: reloadTimeout,
		started:       time.Now(),
	}
	s.Handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.tracer.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("Not found").Write(w)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "Method not allowed").Write(w)
	})

	// Routes live on the root router: subrouters report a method mismatch as
	// not found.
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)

	r.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/loads", s.handleLoads).Methods(http.MethodGet)
	r.HandleFunc("/api/notice", s.handleNotice).Methods(http.MethodGet)
	r.HandleFunc("/api/notice", s.handleClearNotice).Methods(http.MethodDelete)
	r.Handle("/api/reload", s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited)(
		http.HandlerFunc(s.handleReload))).Methods(http.MethodPost)

	r.HandleFunc("/api/options", s.handleOptions).Methods(http.MethodGet)
	r.HandleFunc("/api/filter", s.handleGetFilter).Methods(http.MethodGet)
	r.HandleFunc("/api/filter", s.handleSetFilter).Methods(http.MethodPut)
	r.HandleFunc("/api/filter", s.handleResetFilter).Methods(http.MethodDelete)
	r.HandleFunc("/api/filter/category", s.handleChangeCategories).Methods(http.MethodPut)
	r.HandleFunc("/api/filter/tags/{type}/{value}", s.handleRemoveFilterTag).Methods(http.MethodDelete)

	r.HandleFunc("/api/views/options", s.handleGetViewOptions).Methods(http.MethodGet)
	r.HandleFunc("/api/views/options", s.handleSetViewOptions).Methods(http.MethodPut)
	r.HandleFunc("/api/views/averages", s.handleAverages).Methods(http.MethodGet)
	r.HandleFunc("/api/views/calendar", s.handleCalendar).Methods(http.MethodGet)
	r.HandleFunc("/api/views/series", s.handleSeries).Methods(http.MethodGet)
	r.HandleFunc("/api/views/pivot", s.handlePivot).Methods(http.MethodGet)
	r.HandleFunc("/api/views/pie", s.handlePie).Methods(http.MethodGet)
	r.HandleFunc("/api/views/timespan", s.handleTimeSpan).Methods(http.MethodGet)
	r.HandleFunc("/api/views/timeline", s.handleTimeline).Methods(http.MethodGet)
	r.HandleFunc("/api/views/timeline/more", s.handleTimelineMore).Methods(http.MethodPost)
	r.HandleFunc("/api/views/table", s.handleTable).Methods(http.MethodGet)
	r.HandleFunc("/api/views/export", s.handleExport).Methods(http.MethodGet)

	return r
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(http.StatusTooManyRequests, "Too many reloads, try again later").Write(w)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
