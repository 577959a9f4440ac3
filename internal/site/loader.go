package site

import (
	"context"
	"errors"
	"sync"

	"varanasihub.com/site/internal/domain"
)

// ErrStaleResult is returned when a fetch completed after a newer load was
// requested or after the view closed. The result is discarded.
var ErrStaleResult = errors.New("site: stale fetch result discarded")

// FetchFunc loads a profile by slug.
type FetchFunc func(ctx context.Context, slug string) (domain.BusinessProfile, error)

// Ticket identifies one requested load.
type Ticket struct {
	gen  uint64
	slug string
}

// Slug returns the slug the ticket was issued for.
func (t Ticket) Slug() string { return t.slug }

// Loader records the most recently requested slug. Only the newest ticket
// is current; older fetches are not cancelled, their results are ignored.
type Loader struct {
	mu   sync.Mutex
	gen  uint64
	slug string
}

// Begin issues a ticket for slug, superseding every earlier ticket.
func (l *Loader) Begin(slug string) Ticket {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen++
	l.slug = slug
	return Ticket{gen: l.gen, slug: slug}
}

// Current reports whether t is the latest ticket.
func (l *Loader) Current(t Ticket) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return t.gen == l.gen && t.slug == l.slug
}

// Latest returns the most recently requested slug.
func (l *Loader) Latest() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.slug
}
