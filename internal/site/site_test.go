package site

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"varanasihub.com/site/internal/domain"
	"varanasihub.com/site/internal/interact"
	"varanasihub.com/site/internal/media"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClock() *testClock {
	return &testClock{now: time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC)}
}

func newLocalResolver(t *testing.T, reg *media.Registry) *media.Resolver {
	t.Helper()
	src, err := media.NewLocalSource(reg, nil)
	if err != nil {
		t.Fatalf("NewLocalSource: %v", err)
	}
	res, err := media.NewResolver(src)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	return res
}

func sampleProfile(slug string) domain.BusinessProfile {
	reviews := make([]domain.Review, 13)
	return domain.BusinessProfile{
		BusinessName:     "Kashi Sweets",
		Slug:             slug,
		Description:      "Fresh sweets daily.",
		Logo:             domain.ImageLocal(domain.LocalFile{Name: "logo.png", Data: []byte("png")}),
		Images:           []domain.ImageRef{domain.ImageURL("https://cdn.test/a.jpg"), domain.ImageURL("https://cdn.test/b.jpg"), domain.ImageURL("https://cdn.test/c.jpg")},
		SpecialOffers:    []domain.SpecialOffer{{Title: "A"}, {Title: "B"}, {Title: "C"}},
		GooglePlacesData: &domain.PlacesData{Reviews: reviews},
		BusinessHours:    domain.Hours{}.Complete(),
	}
}

func staticFetch(profile domain.BusinessProfile) FetchFunc {
	return func(context.Context, string) (domain.BusinessProfile, error) { return profile, nil }
}

func TestLoadDiscardsStaleResult(t *testing.T) {
	reg := media.NewRegistry()
	views := NewViews()
	view, err := views.Create(newLocalResolver(t, reg), false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	release := make(chan struct{})
	started := make(chan struct{})
	slow := func(ctx context.Context, slug string) (domain.BusinessProfile, error) {
		close(started)
		<-release
		return sampleProfile(slug), nil
	}

	errCh := make(chan error, 1)
	go func() { errCh <- view.Load(context.Background(), "old-shop", slow) }()
	<-started

	if err := view.Load(context.Background(), "new-shop", staticFetch(sampleProfile("new-shop"))); err != nil {
		t.Fatalf("Load new-shop: %v", err)
	}
	close(release)
	if err := <-errCh; !errors.Is(err, ErrStaleResult) {
		t.Fatalf("expected ErrStaleResult for superseded fetch, got %v", err)
	}

	profile, ok := view.Profile()
	if !ok || profile.Slug != "new-shop" {
		t.Fatalf("expected new-shop to stay applied, got %q", profile.Slug)
	}
	if reg.Outstanding() != 1 {
		t.Fatalf("stale result must not allocate, outstanding=%d", reg.Outstanding())
	}
}

func TestLoadAfterCloseIsDiscarded(t *testing.T) {
	reg := media.NewRegistry()
	views := NewViews()
	view, _ := views.Create(newLocalResolver(t, reg), true)

	fetch := func(ctx context.Context, slug string) (domain.BusinessProfile, error) {
		views.Close(view.ID())
		return sampleProfile(slug), nil
	}
	if err := view.Load(context.Background(), "kashi-sweets", fetch); !errors.Is(err, ErrStaleResult) {
		t.Fatalf("expected ErrStaleResult after close, got %v", err)
	}
	if reg.Outstanding() != 0 {
		t.Fatalf("expected no allocations, got %d", reg.Outstanding())
	}
}

func TestLoadPropagatesFetchError(t *testing.T) {
	views := NewViews()
	view, _ := views.Create(newLocalResolver(t, media.NewRegistry()), false)
	boom := errors.New("boom")
	err := view.Load(context.Background(), "kashi-sweets", func(context.Context, string) (domain.BusinessProfile, error) {
		return domain.BusinessProfile{}, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if _, err := view.Render(RenderOptions{}); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
}

func TestProfileSwapsDoNotLeak(t *testing.T) {
	reg := media.NewRegistry()
	views := NewViews()
	view, _ := views.Create(newLocalResolver(t, reg), true)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if err := view.SetProfile(ctx, sampleProfile("kashi-sweets")); err != nil {
			t.Fatalf("SetProfile: %v", err)
		}
		if reg.Outstanding() != 1 {
			t.Fatalf("swap %d: expected 1 outstanding, got %d", i, reg.Outstanding())
		}
	}
	views.Close(view.ID())
	views.Close(view.ID())
	if reg.Outstanding() != 0 {
		t.Fatalf("expected zero outstanding after close, got %d", reg.Outstanding())
	}
	if err := view.SetProfile(ctx, sampleProfile("kashi-sweets")); !errors.Is(err, ErrViewClosed) {
		t.Fatalf("expected ErrViewClosed, got %v", err)
	}
}

func TestApplyEvents(t *testing.T) {
	clock := newClock()
	views := NewViews(WithClock(clock.Now))
	view, _ := views.Create(newLocalResolver(t, media.NewRegistry()), false)
	ctx := context.Background()

	if _, err := view.Apply(ctx, Event{Name: EventNavToggle}); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded before load, got %v", err)
	}
	if err := view.Load(ctx, "kashi-sweets", staticFetch(sampleProfile("kashi-sweets"))); err != nil {
		t.Fatalf("Load: %v", err)
	}

	steps := []struct {
		ev   Event
		want Fragment
	}{
		{Event{Name: EventLightboxOpen, Value: "2"}, FragmentLightbox},
		{Event{Name: EventLightboxNext}, FragmentLightbox},
		{Event{Name: EventLightboxKey, Value: interact.KeyArrowLeft}, FragmentLightbox},
		{Event{Name: EventReviewsPage, Value: "next"}, FragmentReviews},
		{Event{Name: EventReviewsPage, Value: "next"}, FragmentReviews},
		{Event{Name: EventReviewsPage, Value: "next"}, FragmentReviews},
		{Event{Name: EventOffersPage, Value: "1"}, FragmentOffers},
		{Event{Name: EventAboutToggle}, FragmentAbout},
		{Event{Name: EventNavToggle}, FragmentNav},
		{Event{Name: EventCopy, Label: "address", Value: interact.ReportCopied}, FragmentCopy},
		{Event{Name: EventShare, Value: interact.ReportFailed, Clipboard: interact.ReportCopied}, FragmentShare},
	}
	for _, step := range steps {
		got, err := view.Apply(ctx, step.ev)
		if err != nil {
			t.Fatalf("Apply(%s): %v", step.ev.Name, err)
		}
		if got != step.want {
			t.Fatalf("Apply(%s) = %s, want %s", step.ev.Name, got, step.want)
		}
	}

	page, err := view.Render(RenderOptions{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !page.Lightbox.Open || page.Lightbox.Index != 2 {
		t.Fatalf("expected lightbox at 2, got %#v", page.Lightbox)
	}
	if page.Reviews.Pager.Page != 2 || page.Reviews.Pager.HasNext {
		t.Fatalf("expected reviews clamped to last page, got %#v", page.Reviews.Pager)
	}
	if page.Offers.Pager.Page != 1 || len(page.Offers.Items) != 1 {
		t.Fatalf("unexpected offers state %#v", page.Offers)
	}
	if !page.Nav.Expanded || !page.Contact.AddressCopied || !page.Share.Copied {
		t.Fatalf("expected nav expanded and confirmations active")
	}

	clock.Advance(3 * time.Second)
	page, _ = view.Render(RenderOptions{})
	if page.Contact.AddressCopied || page.Share.Copied {
		t.Fatalf("confirmations should expire after 2s")
	}

	if _, err := view.Apply(ctx, Event{Name: EventLightboxOpen, Value: "9"}); err == nil {
		t.Fatalf("expected error for out of range lightbox index")
	}
	if _, err := view.Apply(ctx, Event{Name: "explode"}); !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("expected ErrUnknownEvent, got %v", err)
	}
	if _, err := view.Apply(ctx, Event{Name: EventShare, Value: interact.ReportAborted}); err != nil {
		t.Fatalf("Apply share: %v", err)
	}
}

func TestQueryRoundTrip(t *testing.T) {
	views := NewViews()
	ctx := context.Background()
	first, _ := views.Create(newLocalResolver(t, media.NewRegistry()), false)
	_ = first.Load(ctx, "kashi-sweets", staticFetch(sampleProfile("kashi-sweets")))
	_, _ = first.Apply(ctx, Event{Name: EventReviewsPage, Value: "next"})
	_, _ = first.Apply(ctx, Event{Name: EventLightboxOpen, Value: "1"})
	_, _ = first.Apply(ctx, Event{Name: EventAboutToggle})

	q := first.Query()
	if q.Get(QueryReviews) != "2" || q.Get(QueryLightbox) != "2" || q.Get(QueryAbout) != "open" {
		t.Fatalf("unexpected query %v", q)
	}

	second, _ := views.Create(newLocalResolver(t, media.NewRegistry()), false)
	_ = second.Load(ctx, "kashi-sweets", staticFetch(sampleProfile("kashi-sweets")))
	second.ApplyQuery(q)
	if got := second.Query().Encode(); got != q.Encode() {
		t.Fatalf("expected %q, got %q", q.Encode(), got)
	}
}

func TestSweepClosesIdleViews(t *testing.T) {
	clock := newClock()
	reg := media.NewRegistry()
	views := NewViews(WithClock(clock.Now))
	ctx := context.Background()

	idle, _ := views.Create(newLocalResolver(t, reg), true)
	_ = idle.SetProfile(ctx, sampleProfile("kashi-sweets"))
	clock.Advance(20 * time.Minute)
	active, _ := views.Create(newLocalResolver(t, reg), true)
	_ = active.SetProfile(ctx, sampleProfile("kashi-sweets"))
	clock.Advance(15 * time.Minute)

	sweeper, err := NewSweeper(views, "@every 1m", 30*time.Minute, nil)
	if err != nil {
		t.Fatalf("NewSweeper: %v", err)
	}
	sweeper.RunOnce()

	if _, ok := views.Get(idle.ID()); ok {
		t.Fatalf("idle view should be swept")
	}
	if _, ok := views.Get(active.ID()); !ok {
		t.Fatalf("active view should survive")
	}
	if reg.Outstanding() != 1 {
		t.Fatalf("expected swept view's allocations released, got %d", reg.Outstanding())
	}
}

func TestSweeperRejectsBadSchedule(t *testing.T) {
	if _, err := NewSweeper(NewViews(), "every minute", time.Minute, nil); err == nil {
		t.Fatalf("expected schedule error")
	}
}

func TestSweeperStartStop(t *testing.T) {
	sweeper, err := NewSweeper(NewViews(), "@every 1h", time.Minute, nil)
	if err != nil {
		t.Fatalf("NewSweeper: %v", err)
	}
	sweeper.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	sweeper.Stop(ctx)
}

func TestMaxPreviewsEvictsLeastRecentlyUsed(t *testing.T) {
	reg := media.NewRegistry()
	views := NewViews(WithMaxPreviews(2))
	ctx := context.Background()

	first, _ := views.Create(newLocalResolver(t, reg), true)
	_ = first.SetProfile(ctx, sampleProfile("kashi-sweets"))
	second, _ := views.Create(newLocalResolver(t, reg), true)
	_ = second.SetProfile(ctx, sampleProfile("kashi-sweets"))
	if _, ok := views.Get(first.ID()); !ok {
		t.Fatalf("first view should be live")
	}
	third, _ := views.Create(newLocalResolver(t, reg), true)

	if views.Len() != 2 {
		t.Fatalf("expected 2 live views, got %d", views.Len())
	}
	if _, ok := views.Get(second.ID()); ok {
		t.Fatalf("least recently used view should be evicted")
	}
	if _, ok := views.Get(first.ID()); !ok {
		t.Fatalf("recently used view should survive")
	}
	if _, ok := views.Get(third.ID()); !ok {
		t.Fatalf("third view should survive")
	}
	if reg.Outstanding() != 1 {
		t.Fatalf("evicted view must release its allocations, got %d", reg.Outstanding())
	}
}

func TestPublishedViewsNeverEvictPreviews(t *testing.T) {
	reg := media.NewRegistry()
	views := NewViews(WithMaxViews(5))
	ctx := context.Background()

	preview, _ := views.Create(newLocalResolver(t, reg), true)
	if err := preview.SetProfile(ctx, sampleProfile("kashi-sweets")); err != nil {
		t.Fatalf("SetProfile: %v", err)
	}
	for i := 0; i < 12; i++ {
		if _, err := views.Create(newLocalResolver(t, reg), false); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	if _, ok := views.Get(preview.ID()); !ok {
		t.Fatalf("preview must survive published churn")
	}
	if views.Len() != 6 || views.Previews() != 1 {
		t.Fatalf("expected 5 published and 1 preview, got %d total, %d previews", views.Len(), views.Previews())
	}
	if reg.Outstanding() != 1 {
		t.Fatalf("preview allocations must stay live, got %d", reg.Outstanding())
	}

	views.CloseAll()
	if views.Len() != 0 || views.Previews() != 0 || reg.Outstanding() != 0 {
		t.Fatalf("CloseAll must release everything, got %d views, %d blobs", views.Len(), reg.Outstanding())
	}
}
