package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"varanasihub.com/site/internal/domain"
	"varanasihub.com/site/internal/media"
	"varanasihub.com/site/internal/platform/httpx"
	"varanasihub.com/site/internal/platform/requestctx"
	"varanasihub.com/site/internal/services"
	"varanasihub.com/site/internal/site"
)

const (
	defaultMaxUploadBytes = 20 << 20
	previewWindow         = time.Minute
	notFoundMessage       = "We couldn't find a business at this address. It may not be published yet."
	unavailableMessage    = "We could not load this business right now. Please try again in a moment."
)

// SiteDeps groups the collaborators of the site handlers.
type SiteDeps struct {
	Profiles services.ProfileService
	Views    *site.Views
	Registry *media.Registry
	// Remote resolves stored image references for published pages and
	// serves as the fallback for string references in previews.
	Remote           media.Source
	Renderer         *Renderer
	RootDomain       string
	MapsAPIKey       string
	Location         *time.Location
	MaxUploadBytes   int64
	PreviewPerMinute int
	Clock            func() time.Time
}

// SiteHandlers serves published pages, previews, and interaction events.
type SiteHandlers struct {
	profiles   services.ProfileService
	views      *site.Views
	registry   *media.Registry
	remote     media.Source
	renderer   *Renderer
	rootDomain string
	mapsKey    string
	location   *time.Location
	maxUpload  int64
	limiter    rateLimiter
	clock      func() time.Time
}

// NewSiteHandlers validates deps and constructs the handlers.
func NewSiteHandlers(deps SiteDeps) (*SiteHandlers, error) {
	switch {
	case deps.Profiles == nil:
		return nil, errors.New("handlers: profile service is required")
	case deps.Views == nil:
		return nil, errors.New("handlers: view registry is required")
	case deps.Registry == nil:
		return nil, errors.New("handlers: blob registry is required")
	case deps.Remote == nil:
		return nil, errors.New("handlers: remote media source is required")
	case deps.Renderer == nil:
		return nil, errors.New("handlers: renderer is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	location := deps.Location
	if location == nil {
		location = time.Local
	}
	maxUpload := deps.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}
	return &SiteHandlers{
		profiles:   deps.Profiles,
		views:      deps.Views,
		registry:   deps.Registry,
		remote:     deps.Remote,
		renderer:   deps.Renderer,
		rootDomain: strings.ToLower(strings.Trim(deps.RootDomain, ".")),
		mapsKey:    deps.MapsAPIKey,
		location:   location,
		maxUpload:  maxUpload,
		limiter:    newWindowLimiter(deps.PreviewPerMinute, previewWindow, clock),
		clock:      clock,
	}, nil
}

// Routes registers every site route on r.
func (h *SiteHandlers) Routes(r chi.Router) {
	r.Get("/", h.Home)
	r.Get("/s/{slug}", h.Published)
	r.Get("/business/{slug}", h.Business)
	r.Get("/blob/{id}", h.Blob)
	r.Group(func(r chi.Router) {
		r.Use(limitByClientIP(h.limiter))
		r.Post("/preview", h.CreatePreview)
		r.Post("/preview/{viewID}", h.UpdatePreview)
	})
	r.Delete("/views/{viewID}", h.CloseView)
	r.Post("/views/{viewID}/close", h.CloseView)
	r.Post("/views/{viewID}/{event}", h.ApplyEvent)
}

// Home serves the tenant's site on "{slug}.{root}" hosts and the landing
// page everywhere else.
func (h *SiteHandlers) Home(w http.ResponseWriter, r *http.Request) {
	if slug, ok := requestctx.Tenant(r.Context()); ok {
		h.servePublished(w, r, slug, "/")
		return
	}
	h.html(w, r, http.StatusOK, "home", viewData{Title: "VaranasiHub", Home: h.homeURL()})
}

// Published serves "/s/{slug}".
func (h *SiteHandlers) Published(w http.ResponseWriter, r *http.Request) {
	slug := domain.NormalizeSlug(chi.URLParam(r, "slug"))
	h.servePublished(w, r, slug, "/s/"+slug)
}

// Business returns the published profile as JSON when format=json is
// requested and the rendered page otherwise.
func (h *SiteHandlers) Business(w http.ResponseWriter, r *http.Request) {
	slug := domain.NormalizeSlug(chi.URLParam(r, "slug"))
	if !wantsJSON(r) {
		http.Redirect(w, r, "/s/"+slug, http.StatusFound)
		return
	}
	ctx := r.Context()
	profile, err := h.profiles.Published(ctx, slug)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			httpx.WriteError(ctx, w, httpx.NewError("business_not_found", "business not found", http.StatusNotFound))
			return
		}
		requestctx.Logger(ctx).Warn("business lookup failed", zap.String("slug", slug), zap.Error(err))
		httpx.WriteError(ctx, w, httpx.NewError("upstream_unavailable", "business could not be loaded", http.StatusBadGateway))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"business": profile})
}

func wantsJSON(r *http.Request) bool {
	if strings.EqualFold(r.URL.Query().Get("format"), "json") {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}

func (h *SiteHandlers) servePublished(w http.ResponseWriter, r *http.Request, slug, returnPath string) {
	ctx := r.Context()
	logger := requestctx.Logger(ctx)

	resolver, err := media.NewResolver(h.remote, media.WithResolverLogger(logger))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	view, err := h.views.Create(resolver, false)
	if err != nil {
		resolver.Close()
		h.fail(w, r, err)
		return
	}
	if err := view.Load(ctx, slug, h.profiles.Published); err != nil {
		h.views.Close(view.ID())
		h.loadFailed(w, r, slug, err)
		return
	}
	view.ApplyQuery(r.URL.Query())
	h.renderView(w, r, view, http.StatusOK, returnPath)
}

func (h *SiteHandlers) loadFailed(w http.ResponseWriter, r *http.Request, slug string, err error) {
	logger := requestctx.Logger(r.Context())
	data := viewData{Home: h.homeURL(), Noindex: true}
	if errors.Is(err, services.ErrProfileNotFound) {
		logger.Info("business not found", zap.String("slug", slug))
		data.Title = "Business Not Found"
		data.Message = notFoundMessage
		h.html(w, r, http.StatusNotFound, "not-found", data)
		return
	}
	logger.Warn("business load failed", zap.String("slug", slug), zap.Error(err))
	data.Title = "Something went wrong"
	data.Message = unavailableMessage
	h.html(w, r, http.StatusBadGateway, "unavailable", data)
}

func (h *SiteHandlers) renderView(w http.ResponseWriter, r *http.Request, view *site.View, status int, returnPath string) {
	page, err := view.Render(h.renderOptions(r, view.Slug()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if view.Preview() {
		w.Header().Set("X-View-ID", view.ID())
	}
	h.html(w, r, status, "site", pageData(page, returnPath, h.homeURL()))
}

func (h *SiteHandlers) renderOptions(r *http.Request, slug string) site.RenderOptions {
	return site.RenderOptions{
		Now:          h.clock().In(h.location),
		CanonicalURL: h.canonicalURL(r, slug),
		MapsAPIKey:   h.mapsKey,
	}
}

// canonicalURL is the public address of slug's site.
func (h *SiteHandlers) canonicalURL(r *http.Request, slug string) string {
	if slug == "" {
		return ""
	}
	if h.rootDomain != "" {
		return "https://" + slug + "." + h.rootDomain + "/"
	}
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/s/" + slug
}

func (h *SiteHandlers) homeURL() string {
	if h.rootDomain != "" {
		return "https://" + h.rootDomain + "/"
	}
	return "/"
}

func (h *SiteHandlers) html(w http.ResponseWriter, r *http.Request, status int, name string, data viewData) {
	if err := h.renderer.HTML(w, status, name, data); err != nil {
		requestctx.Logger(r.Context()).Error("render failed", zap.String("template", name), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *SiteHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	requestctx.Logger(r.Context()).Error("site handler failed", zap.Error(err))
	httpx.WriteError(r.Context(), w, httpx.NewError("internal", "internal error", http.StatusInternalServerError))
}
