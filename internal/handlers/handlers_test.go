package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"varanasihub.com/site/internal/domain"
	"varanasihub.com/site/internal/media"
	mw "varanasihub.com/site/internal/middleware"
	"varanasihub.com/site/internal/repositories"
	"varanasihub.com/site/internal/services"
	"varanasihub.com/site/internal/site"
	"varanasihub.com/site/internal/testutil"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

type memoryRepository struct {
	mu       sync.Mutex
	profiles map[string]domain.BusinessProfile
	err      error
}

func (m *memoryRepository) GetBySlug(_ context.Context, slug string) (domain.BusinessProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.BusinessProfile{}, m.err
	}
	profile, ok := m.profiles[slug]
	if !ok {
		return domain.BusinessProfile{}, repositories.NewNotFound("memory.get", errors.New("missing"))
	}
	return profile, nil
}

func fixtureProfile() domain.BusinessProfile {
	reviews := make([]domain.Review, 0, 7)
	for i := 0; i < 7; i++ {
		reviews = append(reviews, domain.Review{Author: fmt.Sprintf("Guest %d", i+1), Rating: 5, Text: "Lovely"})
	}
	return domain.BusinessProfile{
		BusinessName: "Ganga Sweets",
		Slug:         "ganga-sweets",
		Category:     "Sweet Shop",
		MobileNumber: "+91 98765 43210",
		Email:        "hello@gangasweets.in",
		Address:      "Dashashwamedh Ghat Road, Varanasi",
		Description:  "Traditional sweets since 1952.",
		Images: []domain.ImageRef{
			domain.ImageURL("https://cdn.example.com/a.jpg"),
			domain.ImageURL("https://cdn.example.com/b.jpg"),
		},
		Services: []domain.Service{{Title: "Kaju Katli", Price: "450"}},
		GooglePlacesData: &domain.PlacesData{
			Rating:       4.6,
			TotalRatings: 7,
			Reviews:      reviews,
		},
		Status: domain.StatusApproved,
	}
}

type testEnv struct {
	router   chi.Router
	repo     *memoryRepository
	views    *site.Views
	registry *media.Registry
}

type envOption func(*SiteDeps)

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	repo := &memoryRepository{profiles: map[string]domain.BusinessProfile{"ganga-sweets": fixtureProfile()}}
	profiles, err := services.NewProfileService(services.ProfileServiceDeps{Repository: repo, CacheTTL: time.Millisecond})
	require.NoError(t, err)
	renderer, err := NewRenderer()
	require.NoError(t, err)

	env := &testEnv{repo: repo, views: site.NewViews(), registry: media.NewRegistry()}
	deps := SiteDeps{
		Profiles:         profiles,
		Views:            env.views,
		Registry:         env.registry,
		Remote:           media.NewRemoteSource(),
		Renderer:         renderer,
		Location:         time.UTC,
		PreviewPerMinute: 100,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	env.views = deps.Views
	siteHandlers, err := NewSiteHandlers(deps)
	require.NoError(t, err)

	env.router = NewRouter(
		WithMiddlewares(mw.Tenant(deps.RootDomain)),
		WithSiteRoutes(siteHandlers.Routes),
	)
	return env
}

func withViews(opts ...site.ViewsOption) envOption {
	return func(d *SiteDeps) { d.Views = site.NewViews(opts...) }
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func postForm(target string, values url.Values, htmx bool) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return req
}

type upload struct {
	field string
	name  string
	data  []byte
}

func previewRequest(t *testing.T, target string, profile domain.BusinessProfile, uploads ...upload) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	raw, err := json.Marshal(profile)
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("profile", string(raw)))
	for _, u := range uploads {
		part, err := writer.CreateFormFile(u.field, u.name)
		require.NoError(t, err)
		_, err = part.Write(u.data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func viewID(t *testing.T, body []byte) string {
	t.Helper()
	doc := testutil.ParseHTML(t, body)
	id, ok := doc.Find("body").Attr("data-view")
	require.True(t, ok, "body must carry the view id")
	require.NotEmpty(t, id)
	return id
}

func TestPublishedPageRendersVisibleSections(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/s/ganga-sweets", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	require.Equal(t, "Ganga Sweets", testutil.Text(doc, "#hero h1"))
	require.Equal(t, []string{"hero", "quick-info", "about", "services", "gallery", "reviews", "contact"}, testutil.IDs(doc, "main > section"))
	require.Equal(t, 0, doc.Find("#offers").Length())
	require.Equal(t, "Page 1 of 2", testutil.Text(doc, "#reviews .pager span"))
	require.Contains(t, doc.Find(`script[type="application/ld+json"]`).Text(), "LocalBusiness")
	require.Equal(t, 2, doc.Find("#gallery .thumb img").Length())
	require.Equal(t, 1, doc.Find(`#contact a[href^="tel:"]`).Length())
	require.Equal(t, 1, env.views.Len())
}

func TestPublishedPageRestoresStateFromQuery(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/s/ganga-sweets?reviews=2&lightbox=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	require.Equal(t, "Page 2 of 2", testutil.Text(doc, "#reviews .pager span"))
	require.Equal(t, 1, doc.Find("#reviews .review").Length())
	src, _ := doc.Find("#lightbox .lightbox-image").Attr("src")
	require.Equal(t, "https://cdn.example.com/b.jpg", src)
	require.Equal(t, "2 / 2", testutil.Text(doc, "#lightbox .lightbox-counter"))
}

func TestTenantHostServesSite(t *testing.T) {
	env := newTestEnv(t, func(d *SiteDeps) { d.RootDomain = "varanasihub.com" })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "ganga-sweets.varanasihub.com"
	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	canonical, _ := doc.Find(`link[rel="canonical"]`).Attr("href")
	require.Equal(t, "https://ganga-sweets.varanasihub.com/", canonical)
	ret, _ := doc.Find(`#nav input[name="return"]`).Attr("value")
	require.Equal(t, "/", ret)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "VaranasiHub", testutil.Text(testutil.ParseHTML(t, rec.Body.Bytes()), "h1"))
}

func TestUnknownBusinessRendersNotFoundPage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/s/missing-shop", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	require.Equal(t, "Business Not Found", testutil.Text(doc, "h1"))
	href, _ := doc.Find("a.btn").Attr("href")
	require.Equal(t, "/", href)
	require.Equal(t, 0, env.views.Len(), "failed loads must not leak views")
}

func TestPendingBusinessIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	pending := fixtureProfile()
	pending.Slug = "chai-corner"
	pending.Status = domain.StatusPending
	env.repo.profiles["chai-corner"] = pending

	rec := env.do(httptest.NewRequest(http.MethodGet, "/s/chai-corner", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnavailableSourceRendersBadGateway(t *testing.T) {
	env := newTestEnv(t)
	env.repo.err = repositories.NewUnavailable("memory.get", errors.New("connection refused"))

	rec := env.do(httptest.NewRequest(http.MethodGet, "/s/ganga-sweets", nil))
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, "Something went wrong", testutil.Text(testutil.ParseHTML(t, rec.Body.Bytes()), "h1"))
}

func TestBusinessJSON(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/business/ganga-sweets?format=json", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var payload struct {
		Business struct {
			Slug         string   `json:"slug"`
			BusinessName string   `json:"businessName"`
			Images       []string `json:"images"`
		} `json:"business"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, "ganga-sweets", payload.Business.Slug)
	require.Equal(t, "Ganga Sweets", payload.Business.BusinessName)
	require.Len(t, payload.Business.Images, 2)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/business/missing-shop?format=json", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	var envelope map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, "business_not_found", envelope["error"])
	require.EqualValues(t, http.StatusNotFound, envelope["status"])

	rec = env.do(httptest.NewRequest(http.MethodGet, "/business/ganga-sweets", nil))
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/s/ganga-sweets", rec.Header().Get("Location"))
}

func TestHTMXEventReturnsFragment(t *testing.T) {
	env := newTestEnv(t)
	id := viewID(t, env.do(httptest.NewRequest(http.MethodGet, "/s/ganga-sweets", nil)).Body.Bytes())

	rec := env.do(postForm("/views/"+id+"/reviews-page", url.Values{"value": {"next"}}, true))
	require.Equal(t, http.StatusOK, rec.Code)
	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	require.Equal(t, 1, doc.Find("section#reviews").Length())
	require.Equal(t, 0, doc.Find("#hero").Length(), "fragment must not include the full page")
	require.Equal(t, "Page 2 of 2", testutil.Text(doc, "#reviews .pager span"))

	rec = env.do(postForm("/views/"+id+"/lightbox-open", url.Values{"value": {"1"}}, true))
	require.Equal(t, http.StatusOK, rec.Code)
	doc = testutil.ParseHTML(t, rec.Body.Bytes())
	require.Equal(t, "true", doc.Find("#lightbox").AttrOr("data-open", ""))

	rec = env.do(postForm("/views/"+id+"/lightbox-key", url.Values{"value": {"ArrowRight"}}, true))
	doc = testutil.ParseHTML(t, rec.Body.Bytes())
	require.Equal(t, "1 / 2", testutil.Text(doc, "#lightbox .lightbox-counter"))

	rec = env.do(postForm("/views/"+id+"/lightbox-key", url.Values{"value": {"Escape"}}, true))
	doc = testutil.ParseHTML(t, rec.Body.Bytes())
	require.Equal(t, "false", doc.Find("#lightbox").AttrOr("data-open", ""))
}

func TestHeroImageOpensLightbox(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/s/ganga-sweets", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	id := viewID(t, rec.Body.Bytes())

	form := doc.Find(`#hero form[action$="/lightbox-open"]`)
	require.Equal(t, 1, form.Length())
	require.Equal(t, "/views/"+id+"/lightbox-open", form.AttrOr("hx-post", ""))
	require.Equal(t, 1, form.Find(`button[name="value"][value="0"] img.hero-image`).Length())

	rec = env.do(postForm("/views/"+id+"/lightbox-open", url.Values{"value": {"0"}}, true))
	require.Equal(t, http.StatusOK, rec.Code)
	doc = testutil.ParseHTML(t, rec.Body.Bytes())
	require.Equal(t, "true", doc.Find("#lightbox").AttrOr("data-open", ""))
	require.Equal(t, "1 / 2", testutil.Text(doc, "#lightbox .lightbox-counter"))
}

func TestLightboxClosesOnBackdropClick(t *testing.T) {
	env := newTestEnv(t)
	id := viewID(t, env.do(httptest.NewRequest(http.MethodGet, "/s/ganga-sweets", nil)).Body.Bytes())

	rec := env.do(postForm("/views/"+id+"/lightbox-open", url.Values{"value": {"1"}}, true))
	require.Equal(t, http.StatusOK, rec.Code)
	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	box := doc.Find("#lightbox")
	require.Equal(t, "/views/"+id+"/lightbox-close", box.AttrOr("data-close-url", ""))

	backdrop := box.Find("form.lightbox-backdrop")
	require.Equal(t, 1, backdrop.Length())
	action := backdrop.AttrOr("action", "")
	require.Equal(t, "/views/"+id+"/lightbox-close", action)
	require.Equal(t, 1, backdrop.Find(`button[type="submit"]`).Length())

	rec = env.do(postForm(action, url.Values{}, true))
	require.Equal(t, http.StatusOK, rec.Code)
	doc = testutil.ParseHTML(t, rec.Body.Bytes())
	require.Equal(t, "false", doc.Find("#lightbox").AttrOr("data-open", ""))
	require.Equal(t, 0, doc.Find("#lightbox form.lightbox-backdrop").Length())
}

func TestPlainFormEventRedirectsWithState(t *testing.T) {
	env := newTestEnv(t)
	id := viewID(t, env.do(httptest.NewRequest(http.MethodGet, "/s/ganga-sweets", nil)).Body.Bytes())

	rec := env.do(postForm("/views/"+id+"/reviews-page", url.Values{"value": {"next"}, "return": {"/s/ganga-sweets"}}, false))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/s/ganga-sweets?reviews=2", rec.Header().Get("Location"))
	require.Equal(t, 0, env.views.Len())
}

func TestEventOnExpiredView(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(postForm("/views/unknown/nav-toggle", url.Values{"return": {"/s/ganga-sweets"}}, true))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "body", rec.Header().Get("HX-Retarget"))
	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	require.Equal(t, "/s/ganga-sweets", doc.Find("#view-expired a").AttrOr("href", ""))

	rec = env.do(postForm("/views/unknown/nav-toggle", url.Values{"return": {"//evil.example"}}, false))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))
}

func TestUnknownEventIsRejected(t *testing.T) {
	env := newTestEnv(t)
	id := viewID(t, env.do(httptest.NewRequest(http.MethodGet, "/s/ganga-sweets", nil)).Body.Bytes())

	rec := env.do(postForm("/views/"+id+"/dance", nil, true))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "unknown_event")
}

func TestCopyEventSwapsContactOutOfBand(t *testing.T) {
	env := newTestEnv(t)
	id := viewID(t, env.do(httptest.NewRequest(http.MethodGet, "/s/ganga-sweets", nil)).Body.Bytes())

	rec := env.do(postForm("/views/"+id+"/copy", url.Values{"label": {"phone"}, "value": {"copied"}}, true))
	require.Equal(t, http.StatusOK, rec.Code)
	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	contact := doc.Find("section#contact")
	require.Equal(t, "true", contact.AttrOr("hx-swap-oob", ""))
	require.Equal(t, "Copied!", strings.TrimSpace(contact.Find(`[data-copy="phone"]`).Text()))
	require.Equal(t, "Copy", strings.TrimSpace(contact.Find(`[data-copy="email"]`).Text()))

	rec = env.do(postForm("/views/"+id+"/copy", url.Values{"label": {"email"}, "value": {"copy-failed"}}, true))
	doc = testutil.ParseHTML(t, rec.Body.Bytes())
	require.Equal(t, "Copy", strings.TrimSpace(doc.Find(`#contact [data-copy="email"]`).Text()))
}

func TestShareEventFallsBackToClipboard(t *testing.T) {
	env := newTestEnv(t)
	id := viewID(t, env.do(httptest.NewRequest(http.MethodGet, "/s/ganga-sweets", nil)).Body.Bytes())

	rec := env.do(postForm("/views/"+id+"/share", url.Values{"value": {"unavailable"}, "clipboard": {"copied"}}, true))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Link copied!", testutil.Text(testutil.ParseHTML(t, rec.Body.Bytes()), "#share button"))

	rec = env.do(postForm("/views/"+id+"/share", url.Values{"value": {"aborted"}}, true))
	require.Equal(t, "Link copied!", testutil.Text(testutil.ParseHTML(t, rec.Body.Bytes()), "#share button"), "an abort leaves the earlier confirmation alone")
}

func TestPreviewServesLocalFilesAsBlobs(t *testing.T) {
	env := newTestEnv(t)
	profile := fixtureProfile()
	profile.Status = domain.StatusPending
	profile.Images = []domain.ImageRef{{}, domain.ImageURL("https://cdn.example.com/b.jpg")}

	rec := env.do(previewRequest(t, "/preview", profile,
		upload{field: "logo", name: "logo.png", data: pngBytes},
		upload{field: "images", name: "shop.png", data: pngBytes},
		upload{field: "service-image-0", name: "katli.png", data: pngBytes},
	))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := rec.Header().Get("X-View-ID")
	require.NotEmpty(t, id)
	require.Equal(t, 3, env.registry.Outstanding())

	doc := testutil.ParseHTML(t, rec.Body.Bytes())
	require.Equal(t, id, doc.Find("body").AttrOr("data-view", ""))
	require.Equal(t, "true", doc.Find("body").AttrOr("data-preview", ""))
	require.Equal(t, 1, doc.Find(`meta[name="robots"][content="noindex"]`).Length())
	logo := doc.Find(".hero-logo").AttrOr("src", "")
	require.True(t, strings.HasPrefix(logo, "/blob/"), "logo should be a blob url, got %q", logo)
	thumbs := doc.Find("#gallery .thumb img").Map(func(_ int, s *goquery.Selection) string { return s.AttrOr("src", "") })
	require.Len(t, thumbs, 2)
	require.True(t, strings.HasPrefix(thumbs[0], "/blob/"))
	require.Equal(t, "https://cdn.example.com/b.jpg", thumbs[1])

	blob := env.do(httptest.NewRequest(http.MethodGet, logo, nil))
	require.Equal(t, http.StatusOK, blob.Code)
	require.Equal(t, "image/png", blob.Header().Get("Content-Type"))
	require.Equal(t, "default-src 'none'; sandbox", blob.Header().Get("Content-Security-Policy"))
	require.Equal(t, "inline", blob.Header().Get("Content-Disposition"))
	require.Equal(t, pngBytes, blob.Body.Bytes())

	profile.Logo = domain.ImageRef{}
	rec = env.do(previewRequest(t, "/preview/"+id, profile))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, 0, env.registry.Outstanding(), "replacing the profile releases earlier uploads")
	require.Equal(t, http.StatusNotFound, env.do(httptest.NewRequest(http.MethodGet, logo, nil)).Code)

	rec = env.do(httptest.NewRequest(http.MethodDelete, "/views/"+id, nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, 0, env.views.Len())
	require.Equal(t, http.StatusNotFound, env.do(httptest.NewRequest(http.MethodDelete, "/views/"+id, nil)).Code)
}

func TestPublishedTrafficKeepsPreviewAlive(t *testing.T) {
	env := newTestEnv(t, withViews(site.WithMaxViews(5)))
	profile := fixtureProfile()
	profile.Status = domain.StatusPending

	rec := env.do(previewRequest(t, "/preview", profile, upload{field: "logo", name: "logo.png", data: pngBytes}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := rec.Header().Get("X-View-ID")
	require.Equal(t, 1, env.registry.Outstanding())

	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusOK, env.do(httptest.NewRequest(http.MethodGet, "/s/ganga-sweets", nil)).Code)
	}
	require.Equal(t, 1, env.registry.Outstanding(), "published views must not evict the preview")
	require.Equal(t, 1, env.views.Previews())

	rec = env.do(previewRequest(t, "/preview/"+id, profile, upload{field: "logo", name: "logo.png", data: pngBytes}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, 1, env.registry.Outstanding())
}

func TestPreviewRejectsNonImageUploads(t *testing.T) {
	env := newTestEnv(t)
	page := []byte("<html><script>alert(document.domain)</script></html>")

	for _, field := range []string{"logo", "images", "service-image-0"} {
		rec := env.do(previewRequest(t, "/preview", fixtureProfile(), upload{field: field, name: "logo.png", data: page}))
		require.Equal(t, http.StatusBadRequest, rec.Code, field)

		var body struct {
			Error string `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "invalid_request", body.Error)
	}
	require.Equal(t, 0, env.registry.Outstanding())
	require.Equal(t, 0, env.views.Len())
}

func TestBlobNeverServesActiveContent(t *testing.T) {
	env := newTestEnv(t)
	_, url := env.registry.Allocate(domain.LocalFile{
		Name:        "page.html",
		ContentType: "text/html; charset=utf-8",
		Data:        []byte("<script>alert(1)</script>"),
	})

	rec := env.do(httptest.NewRequest(http.MethodGet, url, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
	require.Equal(t, "default-src 'none'; sandbox", rec.Header().Get("Content-Security-Policy"))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestPreviewMatchesPublishedStructure(t *testing.T) {
	env := newTestEnv(t)

	published := testutil.ParseHTML(t, env.do(httptest.NewRequest(http.MethodGet, "/s/ganga-sweets", nil)).Body.Bytes())
	rec := env.do(previewRequest(t, "/preview", fixtureProfile()))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	preview := testutil.ParseHTML(t, rec.Body.Bytes())

	require.Equal(t, testutil.IDs(published, "main > section"), testutil.IDs(preview, "main > section"))
	for _, selector := range []string{"#hero h1", "#about", "#services", "#reviews", "#contact", "#footer"} {
		require.Equal(t, testutil.Text(published, selector), testutil.Text(preview, selector), selector)
	}
}

func TestPreviewValidationErrors(t *testing.T) {
	env := newTestEnv(t)
	profile := fixtureProfile()
	profile.BusinessName = ""
	profile.Slug = "No Spaces Allowed"

	rec := env.do(previewRequest(t, "/preview", profile))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body struct {
		Error  string `json:"error"`
		Fields []struct {
			Field string `json:"field"`
		} `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "invalid_profile", body.Error)
	require.NotEmpty(t, body.Fields)
	require.Equal(t, 0, env.views.Len())

	rec = env.do(previewRequest(t, "/preview", fixtureProfile(), upload{field: "service-image-4", name: "x.png", data: pngBytes}))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPreviewIsRateLimited(t *testing.T) {
	env := newTestEnv(t, func(d *SiteDeps) { d.PreviewPerMinute = 1 })

	require.Equal(t, http.StatusCreated, env.do(previewRequest(t, "/preview", fixtureProfile())).Code)
	rec := env.do(previewRequest(t, "/preview", fixtureProfile()))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestPreviewRateLimitIgnoresForwardedFor(t *testing.T) {
	env := newTestEnv(t, func(d *SiteDeps) { d.PreviewPerMinute = 1 })

	first := previewRequest(t, "/preview", fixtureProfile())
	first.Header.Set("X-Forwarded-For", "198.51.100.1")
	require.Equal(t, http.StatusCreated, env.do(first).Code)

	second := previewRequest(t, "/preview", fixtureProfile())
	second.Header.Set("X-Forwarded-For", "198.51.100.2")
	second.Header.Set("X-Real-IP", "198.51.100.3")
	rec := env.do(second)
	require.Equal(t, http.StatusTooManyRequests, rec.Code, "untrusted forwarding headers must not reset the limit")
}

func TestPreviewUploadTooLarge(t *testing.T) {
	env := newTestEnv(t, func(d *SiteDeps) { d.MaxUploadBytes = 512 })

	rec := env.do(previewRequest(t, "/preview", fixtureProfile(), upload{field: "logo", name: "big.png", data: bytes.Repeat(pngBytes, 64)}))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestAssetsAreServedWithETag(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/assets/site.js", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("ETag"))
}

func TestUnknownRouteUsesJSONEnvelope(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/nope/at/all", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "route_not_found")
}
