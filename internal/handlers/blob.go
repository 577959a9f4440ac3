package handlers

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"varanasihub.com/site/internal/platform/httpx"
)

// Blob serves a preview upload registered in the blob registry. The URL is
// valid only while the owning view holds it.
func (h *SiteHandlers) Blob(w http.ResponseWriter, r *http.Request) {
	blob, ok := h.registry.Open(chi.URLParam(r, "id"))
	if !ok {
		httpx.WriteError(r.Context(), w, httpx.NewError("blob_not_found", "object URL revoked or unknown", http.StatusNotFound))
		return
	}
	contentType := blob.ContentType
	if !strings.HasPrefix(contentType, "image/") {
		contentType = "application/octet-stream"
	}
	header := w.Header()
	header.Set("Content-Type", contentType)
	header.Set("Content-Disposition", "inline")
	header.Set("Content-Security-Policy", "default-src 'none'; sandbox")
	header.Set("Cache-Control", "private, no-store")
	header.Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, "", blob.CreatedAt, bytes.NewReader(blob.Data))
}
