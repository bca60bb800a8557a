package httpserver

import (
	"net/http"
	"time"

	"github.com/yndnr/chgrid-go/internal/channel"
	"github.com/yndnr/chgrid-go/internal/telemetry/logger"
	"github.com/yndnr/chgrid-go/pkg/grid"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Table is the channel grid served by the read endpoints.
	Table *grid.Table[channel.State]

	// Layout maps rows to channel classes.
	Layout channel.Layout

	// Diagnostics is the observer whose categories the diagnostics
	// endpoints read and replace. Nil disables those endpoints.
	Diagnostics *logger.GridObserver

	// Metrics serves /metrics. Nil disables the route.
	Metrics http.Handler

	// Timeout bounds every record acquisition made by a request.
	Timeout time.Duration

	// RateLimit is the per-client request rate (0 = unlimited).
	RateLimit int

	Logger logger.Logger
}

// NewRouter creates and configures the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	h := &handler{
		table:       cfg.Table,
		layout:      cfg.Layout,
		diagnostics: cfg.Diagnostics,
		timeout:     cfg.Timeout,
		logger:      log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.health)
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}
	mux.HandleFunc("GET /v1/summary", h.summary)
	mux.HandleFunc("GET /v1/channels/{row}/{column}", h.channel)
	mux.HandleFunc("GET /v1/locks", h.locks)
	if cfg.Diagnostics != nil {
		mux.HandleFunc("GET /v1/diagnostics", h.getDiagnostics)
		mux.HandleFunc("PUT /v1/diagnostics", h.putDiagnostics)
	}

	// Order: RequestID -> Recover -> RateLimit -> AccessLog -> mux
	middlewares := []Middleware{RequestID(), Recover(log)}
	if cfg.RateLimit > 0 {
		middlewares = append(middlewares, RateLimit(cfg.RateLimit))
	}
	middlewares = append(middlewares, AccessLog(log))

	return Chain(mux, middlewares...)
}
