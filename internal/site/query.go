package site

import (
	"net/url"
	"strconv"
)

// Query parameters carrying interaction state for clients without htmx.
const (
	QueryReviews  = "reviews"
	QueryOffers   = "offers"
	QueryLightbox = "lightbox"
	QueryAbout    = "about"
	QueryNav      = "nav"
)

// ApplyQuery restores state encoded by Query. Page numbers are one-based
// in the URL; invalid values are ignored.
func (v *View) ApplyQuery(q url.Values) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || !v.loaded {
		return
	}
	if n, err := strconv.Atoi(q.Get(QueryReviews)); err == nil {
		v.reviews.Go(n - 1)
	}
	if n, err := strconv.Atoi(q.Get(QueryOffers)); err == nil {
		v.offers.Go(n - 1)
	}
	if n, err := strconv.Atoi(q.Get(QueryLightbox)); err == nil {
		v.lightbox.Open(n - 1)
	}
	if q.Get(QueryAbout) == "open" {
		v.about.Expand()
	}
	if q.Get(QueryNav) == "open" {
		v.nav.Expand()
	}
}

// Query encodes the non-default interaction state.
func (v *View) Query() url.Values {
	v.mu.Lock()
	defer v.mu.Unlock()
	q := url.Values{}
	if p := v.reviews.Page(); p > 0 {
		q.Set(QueryReviews, strconv.Itoa(p+1))
	}
	if p := v.offers.Page(); p > 0 {
		q.Set(QueryOffers, strconv.Itoa(p+1))
	}
	if v.lightbox.IsOpen() {
		q.Set(QueryLightbox, strconv.Itoa(v.lightbox.Index()+1))
	}
	if v.about.Expanded() {
		q.Set(QueryAbout, "open")
	}
	if v.nav.Expanded() {
		q.Set(QueryNav, "open")
	}
	return q
}
