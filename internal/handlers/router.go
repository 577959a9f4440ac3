package handlers

import (
	"fmt"
	"io/fs"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	mw "varanasihub.com/site/internal/middleware"
	"varanasihub.com/site/internal/platform/httpx"
	"varanasihub.com/site/templates"
)

// RouteRegistrar registers a set of routes against the provided router.
type RouteRegistrar func(r chi.Router)

type routerConfig struct {
	middlewares []func(http.Handler) http.Handler
	trusted     []netip.Prefix
	health      *HealthHandlers
	assets      fs.FS
	site        RouteRegistrar
}

// Option customises the router configuration before construction.
type Option func(*routerConfig)

const (
	defaultTimeout    = 30 * time.Second
	errorNotFoundCode = "route_not_found"
	assetsPrefix      = "/assets"
)

// NewRouter constructs the chi router with shared middleware, health checks,
// static assets, and the site routes.
func NewRouter(opts ...Option) chi.Router {
	cfg := routerConfig{
		middlewares: []func(http.Handler) http.Handler{
			middleware.RequestID,
			mw.HTMX,
			middleware.Timeout(defaultTimeout),
		},
		assets: templates.Assets(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	r := chi.NewRouter()
	r.Use(mw.RealIP(cfg.trusted))

	if cfg.health == nil {
		cfg.health = NewHealthHandlers()
	}

	for _, m := range cfg.middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError(errorNotFoundCode, fmt.Sprintf("no route for %s", req.URL.Path), http.StatusNotFound))
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("method_not_allowed", fmt.Sprintf("method %s not allowed on %s", req.Method, req.URL.Path), http.StatusMethodNotAllowed))
	})

	r.Get("/healthz", cfg.health.Healthz)
	r.Get("/readyz", cfg.health.Readyz)

	if cfg.assets != nil {
		r.With(middleware.Compress(5)).Handle(assetsPrefix+"/*", mw.AssetsWithCache(cfg.assets, assetsPrefix))
	}

	if cfg.site != nil {
		cfg.site(r)
	}

	return r
}

// WithMiddlewares appends additional global middleware to the router.
func WithMiddlewares(m ...func(http.Handler) http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.middlewares = append(cfg.middlewares, m...)
	}
}

// WithTrustedProxies lists the proxy networks whose forwarding headers are
// believed. Without it the client address is always the socket peer.
func WithTrustedProxies(prefixes ...netip.Prefix) Option {
	return func(cfg *routerConfig) {
		cfg.trusted = append(cfg.trusted, prefixes...)
	}
}

// WithHealthHandlers overrides the handlers used for /healthz and /readyz endpoints.
func WithHealthHandlers(h *HealthHandlers) Option {
	return func(cfg *routerConfig) {
		cfg.health = h
	}
}

// WithAssets overrides the static asset filesystem; nil disables /assets.
func WithAssets(fsys fs.FS) Option {
	return func(cfg *routerConfig) {
		cfg.assets = fsys
	}
}

// WithSiteRoutes configures the registrar responsible for pages, previews, and events.
func WithSiteRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.site = reg
	}
}
