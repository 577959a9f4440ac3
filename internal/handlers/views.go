package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	mw "varanasihub.com/site/internal/middleware"
	"varanasihub.com/site/internal/platform/httpx"
	"varanasihub.com/site/internal/platform/requestctx"
	"varanasihub.com/site/internal/site"
)

// ApplyEvent runs one interaction event against a live view. htmx requests
// get the changed fragment back; plain form posts are redirected to the
// page with the new state in the query string.
func (h *SiteHandlers) ApplyEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "viewID")
	returnPath := safeReturn(r.FormValue("return"))

	view, ok := h.views.Get(id)
	if !ok {
		h.viewExpired(w, r, returnPath)
		return
	}

	fragment, err := view.Apply(ctx, site.Event{
		Name:      chi.URLParam(r, "event"),
		Value:     r.FormValue("value"),
		Label:     r.FormValue("label"),
		Clipboard: r.FormValue("clipboard"),
	})
	if err != nil {
		h.eventFailed(w, r, returnPath, err)
		return
	}

	if hx, ok := mw.HTMXFrom(ctx); ok {
		requestctx.Logger(ctx).Debug("view event applied",
			zap.String("fragment", string(fragment)),
			zap.String("trigger", hx.Trigger),
		)
	}
	if mw.IsHTMX(ctx) {
		page, err := view.Render(h.renderOptions(r, view.Slug()))
		if err != nil {
			h.eventFailed(w, r, returnPath, err)
			return
		}
		data := pageData(page, returnPath, h.homeURL())
		data.OOB = fragment == site.FragmentCopy
		h.html(w, r, http.StatusOK, "fragment-"+string(fragment), data)
		return
	}

	if view.Preview() {
		h.renderView(w, r, view, http.StatusOK, "")
		return
	}
	target := returnPath
	if target == "" {
		target = "/s/" + view.Slug()
	}
	if q := view.Query().Encode(); q != "" {
		target += "?" + q
	}
	// The redirected GET builds a fresh view from the query string.
	h.views.Close(id)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// CloseView tears down a view when the page is left.
func (h *SiteHandlers) CloseView(w http.ResponseWriter, r *http.Request) {
	if !h.views.Close(chi.URLParam(r, "viewID")) {
		httpx.WriteError(r.Context(), w, httpx.NewError("view_not_found", "view not found", http.StatusNotFound))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SiteHandlers) viewExpired(w http.ResponseWriter, r *http.Request, returnPath string) {
	if returnPath == "" {
		returnPath = h.homeURL()
	}
	if mw.IsHTMX(r.Context()) {
		w.Header().Set("HX-Retarget", "body")
		w.Header().Set("HX-Reswap", "beforeend")
		h.html(w, r, http.StatusOK, "fragment-expired", viewData{Return: returnPath})
		return
	}
	http.Redirect(w, r, returnPath, http.StatusSeeOther)
}

func (h *SiteHandlers) eventFailed(w http.ResponseWriter, r *http.Request, returnPath string, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, site.ErrViewClosed):
		h.viewExpired(w, r, returnPath)
	case errors.Is(err, site.ErrUnknownEvent):
		httpx.WriteError(ctx, w, httpx.NewError("unknown_event", err.Error(), http.StatusNotFound))
	case errors.Is(err, site.ErrNotLoaded):
		httpx.WriteError(ctx, w, httpx.NewError("view_not_ready", "view has no profile yet", http.StatusConflict))
	default:
		requestctx.Logger(ctx).Debug("event rejected", zap.Error(err))
		httpx.WriteError(ctx, w, httpx.NewError("invalid_event", err.Error(), http.StatusBadRequest))
	}
}

// safeReturn keeps only same-origin absolute paths.
func safeReturn(path string) string {
	path = strings.TrimSpace(path)
	if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") || strings.Contains(path, "\\") {
		return ""
	}
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	return path
}
