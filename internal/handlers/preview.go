package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"varanasihub.com/site/internal/domain"
	"varanasihub.com/site/internal/media"
	"varanasihub.com/site/internal/platform/httpx"
	"varanasihub.com/site/internal/platform/requestctx"
)

// Multipart field names posted by the wizard.
const (
	previewProfileField     = "profile"
	previewLogoField        = "logo"
	previewImagesField      = "images"
	previewServiceImagePref = "service-image-"
)

var errPreviewTooLarge = errors.New("handlers: preview upload too large")

// CreatePreview renders an unsaved profile posted by the wizard and keeps a
// view alive for follow-up edits and interaction events. The view id is
// returned in the X-View-ID header.
func (h *SiteHandlers) CreatePreview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profile, err := h.readPreview(w, r)
	if err != nil {
		h.previewFailed(w, r, err)
		return
	}

	source, err := media.NewLocalSource(h.registry, h.remote)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	resolver, err := media.NewResolver(source, media.WithResolverLogger(requestctx.Logger(ctx)))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	view, err := h.views.Create(resolver, true)
	if err != nil {
		resolver.Close()
		h.fail(w, r, err)
		return
	}
	if err := view.SetProfile(ctx, profile); err != nil {
		h.views.Close(view.ID())
		h.fail(w, r, err)
		return
	}
	h.renderView(w, r, view, http.StatusCreated, "")
}

// UpdatePreview replaces the profile of an existing preview view. Local
// files from the previous post are released.
func (h *SiteHandlers) UpdatePreview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, ok := h.views.Get(chi.URLParam(r, "viewID"))
	if !ok || !view.Preview() {
		httpx.WriteError(ctx, w, httpx.NewError("view_not_found", "preview not found", http.StatusNotFound))
		return
	}
	profile, err := h.readPreview(w, r)
	if err != nil {
		h.previewFailed(w, r, err)
		return
	}
	if err := view.SetProfile(ctx, profile); err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderView(w, r, view, http.StatusOK, "")
}

// readPreview decodes the multipart preview post. Uploaded gallery images
// fill empty slots of profile.images in order and are appended after that.
func (h *SiteHandlers) readPreview(w http.ResponseWriter, r *http.Request) (domain.BusinessProfile, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.BusinessProfile{}, errPreviewTooLarge
		}
		return domain.BusinessProfile{}, badRequest("multipart form expected")
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	raw := r.MultipartForm.Value[previewProfileField]
	if len(raw) == 0 || strings.TrimSpace(raw[0]) == "" {
		return domain.BusinessProfile{}, badRequest("profile field is required")
	}
	var profile domain.BusinessProfile
	if err := json.Unmarshal([]byte(raw[0]), &profile); err != nil {
		return domain.BusinessProfile{}, badRequest("profile is not valid JSON")
	}

	files := r.MultipartForm.File
	if logo := files[previewLogoField]; len(logo) > 0 {
		file, err := readUpload(logo[0])
		if err != nil {
			return domain.BusinessProfile{}, err
		}
		profile.Logo = domain.ImageLocal(file)
	}

	slot := 0
	for _, header := range files[previewImagesField] {
		file, err := readUpload(header)
		if err != nil {
			return domain.BusinessProfile{}, err
		}
		for slot < len(profile.Images) && !profile.Images[slot].Empty() {
			slot++
		}
		if slot < len(profile.Images) {
			profile.Images[slot] = domain.ImageLocal(file)
			continue
		}
		profile.Images = append(profile.Images, domain.ImageLocal(file))
		slot = len(profile.Images)
	}

	keys := make([]string, 0, len(files))
	for key := range files {
		if strings.HasPrefix(key, previewServiceImagePref) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		idx, err := strconv.Atoi(strings.TrimPrefix(key, previewServiceImagePref))
		if err != nil || idx < 0 || idx >= len(profile.Services) {
			return domain.BusinessProfile{}, badRequest(fmt.Sprintf("%s does not match a service", key))
		}
		file, err := readUpload(files[key][0])
		if err != nil {
			return domain.BusinessProfile{}, err
		}
		profile.Services[idx].Image = domain.ImageLocal(file)
	}

	return h.profiles.PreparePreview(r.Context(), profile)
}

func readUpload(header *multipart.FileHeader) (domain.LocalFile, error) {
	f, err := header.Open()
	if err != nil {
		return domain.LocalFile{}, fmt.Errorf("open upload %s: %w", header.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return domain.LocalFile{}, fmt.Errorf("read upload %s: %w", header.Filename, err)
	}
	// The declared type is ignored; only sniffed raster images are served.
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return domain.LocalFile{}, badRequest(fmt.Sprintf("%s is not an image", header.Filename))
	}
	return domain.LocalFile{
		Name:        header.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}

type requestError struct {
	message string
}

func (e requestError) Error() string { return e.message }

func badRequest(message string) error { return requestError{message: message} }

func (h *SiteHandlers) previewFailed(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	var reqErr requestError
	var validation *domain.ValidationError
	switch {
	case errors.Is(err, errPreviewTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "preview upload exceeds the size limit", http.StatusRequestEntityTooLarge))
	case errors.As(err, &reqErr):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", reqErr.message, http.StatusBadRequest))
	case errors.As(err, &validation):
		fields := make([]map[string]string, 0, len(validation.Fields()))
		for _, f := range validation.Fields() {
			fields = append(fields, map[string]string{"field": f.Field, "rule": f.Rule})
		}
		httpx.WriteError(ctx, w, httpx.NewError("invalid_profile", "profile failed validation", http.StatusUnprocessableEntity).
			WithDetails(map[string]any{"fields": fields}))
	default:
		requestctx.Logger(ctx).Error("preview failed", zap.Error(err))
		httpx.WriteError(ctx, w, httpx.NewError("internal", "preview could not be rendered", http.StatusInternalServerError))
	}
}
