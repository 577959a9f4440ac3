package site

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"varanasihub.com/site/internal/domain"
	"varanasihub.com/site/internal/interact"
	"varanasihub.com/site/internal/media"
	"varanasihub.com/site/internal/render"
)

var (
	// ErrViewClosed is returned for events on a torn-down view.
	ErrViewClosed = errors.New("site: view closed")
	// ErrNotLoaded is returned when a view has no profile yet.
	ErrNotLoaded = errors.New("site: view has no profile")
	// ErrUnknownEvent is returned for unsupported event names.
	ErrUnknownEvent = errors.New("site: unknown event")
)

// Event names accepted by View.Apply.
const (
	EventLightboxOpen  = "lightbox-open"
	EventLightboxNext  = "lightbox-next"
	EventLightboxPrev  = "lightbox-prev"
	EventLightboxClose = "lightbox-close"
	EventLightboxKey   = "lightbox-key"
	EventNavToggle     = "nav-toggle"
	EventNavLink       = "nav-link"
	EventAboutToggle   = "about-toggle"
	EventReviewsPage   = "reviews-page"
	EventOffersPage    = "offers-page"
	EventShare         = "share"
	EventCopy          = "copy"
)

// Fragment names the part of the page an event changed.
type Fragment string

const (
	FragmentLightbox Fragment = "lightbox"
	FragmentNav      Fragment = "nav"
	FragmentAbout    Fragment = "about"
	FragmentReviews  Fragment = "reviews"
	FragmentOffers   Fragment = "offers"
	FragmentShare    Fragment = "share"
	FragmentCopy     Fragment = "copy"
)

// Event is one interaction posted by the browser. Value carries the
// event's argument: an index, a key name, a page direction, or a
// browser-reported share/copy result.
type Event struct {
	Name      string
	Value     string
	Label     string
	Clipboard string
}

// RenderOptions are the per-request inputs to View.Render.
type RenderOptions struct {
	Now          time.Time
	CanonicalURL string
	MapsAPIKey   string
}

// View is one rendered page instance. It is the single owner of its media
// allocations and interaction state; all access goes through its mutex.
type View struct {
	id      string
	preview bool
	now     func() time.Time

	loader Loader

	mu         sync.Mutex
	profile    domain.BusinessProfile
	loaded     bool
	media      media.Media
	resolver   *media.Resolver
	lightbox   interact.Lightbox
	nav        interact.Toggle
	about      interact.Toggle
	reviews    interact.Pager
	offers     interact.Pager
	confirm    *interact.Confirmations
	lastActive time.Time
	closed     bool
}

func newView(id string, preview bool, resolver *media.Resolver, now func() time.Time) *View {
	return &View{
		id:         id,
		preview:    preview,
		now:        now,
		resolver:   resolver,
		reviews:    interact.NewPager(render.ReviewsPerPage, 0),
		offers:     interact.NewPager(render.OffersPerPage, 0),
		confirm:    interact.NewConfirmations(now),
		lastActive: now(),
	}
}

// ID returns the view id.
func (v *View) ID() string { return v.id }

// Preview reports whether the view renders an unsaved profile.
func (v *View) Preview() bool { return v.preview }

// Slug returns the slug of the most recent load.
func (v *View) Slug() string { return v.loader.Latest() }

// Load fetches slug and applies it when the fetch is still the latest one
// requested and the view is open. Superseded results yield ErrStaleResult.
func (v *View) Load(ctx context.Context, slug string, fetch FetchFunc) error {
	ticket := v.loader.Begin(slug)
	profile, err := fetch(ctx, slug)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || !v.loader.Current(ticket) {
		return ErrStaleResult
	}
	if err != nil {
		return err
	}
	return v.applyLocked(ctx, profile, true)
}

// SetProfile replaces the profile in place, e.g. when the wizard posts an
// edited preview. Interaction state is kept and re-clamped.
func (v *View) SetProfile(ctx context.Context, profile domain.BusinessProfile) error {
	v.loader.Begin(profile.Slug)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrViewClosed
	}
	return v.applyLocked(ctx, profile, false)
}

func (v *View) applyLocked(ctx context.Context, profile domain.BusinessProfile, reset bool) error {
	resolved, err := v.resolver.Resolve(ctx, profile)
	if err != nil {
		return fmt.Errorf("site: resolve media: %w", err)
	}
	if reset && v.loaded && v.profile.Slug != profile.Slug {
		v.lightbox = interact.Lightbox{}
		v.nav = interact.Toggle{}
		v.about = interact.Toggle{}
		v.reviews = interact.NewPager(render.ReviewsPerPage, 0)
		v.offers = interact.NewPager(render.OffersPerPage, 0)
	}
	v.profile = profile
	v.media = resolved
	v.loaded = true
	v.lightbox.SetCount(len(profile.Images))
	v.reviews.SetCount(len(profile.Reviews()))
	v.offers.SetCount(len(profile.SpecialOffers))
	v.lastActive = v.now()
	return nil
}

// Profile returns the loaded profile.
func (v *View) Profile() (domain.BusinessProfile, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.profile, v.loaded
}

// Apply runs one interaction event and reports which fragment changed.
func (v *View) Apply(ctx context.Context, ev Event) (Fragment, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return "", ErrViewClosed
	}
	if !v.loaded {
		return "", ErrNotLoaded
	}
	v.lastActive = v.now()

	switch ev.Name {
	case EventLightboxOpen:
		i, err := strconv.Atoi(ev.Value)
		if err != nil || !v.lightbox.Open(i) {
			return "", fmt.Errorf("site: invalid lightbox index %q", ev.Value)
		}
		return FragmentLightbox, nil
	case EventLightboxNext:
		v.lightbox.Next()
		return FragmentLightbox, nil
	case EventLightboxPrev:
		v.lightbox.Prev()
		return FragmentLightbox, nil
	case EventLightboxClose:
		v.lightbox.Close()
		return FragmentLightbox, nil
	case EventLightboxKey:
		v.lightbox.Key(ev.Value)
		return FragmentLightbox, nil
	case EventNavToggle:
		v.nav.Toggle()
		return FragmentNav, nil
	case EventNavLink:
		v.nav.LinkClicked()
		return FragmentNav, nil
	case EventAboutToggle:
		v.about.Toggle()
		return FragmentAbout, nil
	case EventReviewsPage:
		turnPage(&v.reviews, ev.Value)
		return FragmentReviews, nil
	case EventOffersPage:
		turnPage(&v.offers, ev.Value)
		return FragmentOffers, nil
	case EventShare:
		interact.ReplayShare(ctx, v.confirm, ev.Value, ev.Clipboard, interact.ShareData{Title: v.profile.BusinessName})
		return FragmentShare, nil
	case EventCopy:
		if ev.Label == "" {
			return "", errors.New("site: copy event without label")
		}
		interact.ReplayCopy(ctx, v.confirm, ev.Label, ev.Value, "")
		return FragmentCopy, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Name)
	}
}

func turnPage(p *interact.Pager, value string) {
	switch value {
	case "next":
		p.Next()
	case "prev":
		p.Prev()
	default:
		if n, err := strconv.Atoi(value); err == nil {
			p.Go(n)
		}
	}
}

// Render builds the page for the view's current state.
func (v *View) Render(opts RenderOptions) (render.Page, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return render.Page{}, ErrViewClosed
	}
	if !v.loaded {
		return render.Page{}, ErrNotLoaded
	}
	now := opts.Now
	if now.IsZero() {
		now = v.now()
	}
	return render.Render(render.Input{
		Profile: v.profile,
		Media:   v.media,
		Now:     now,
		State: render.State{
			Lightbox:  v.lightbox,
			Reviews:   v.reviews,
			Offers:    v.offers,
			Nav:       v.nav,
			About:     v.about,
			Confirmed: v.confirm.ActiveLabels(),
		},
		ViewID:       v.id,
		Preview:      v.preview,
		CanonicalURL: opts.CanonicalURL,
		MapsAPIKey:   opts.MapsAPIKey,
	}), nil
}

// LastActive returns the time of the last load or event.
func (v *View) LastActive() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastActive
}

// Close releases every media allocation. Further calls are no-ops.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	v.resolver.Close()
}
