package site

import (
	"container/list"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"varanasihub.com/site/internal/media"
)

const (
	defaultMaxViews    = 10000
	defaultMaxPreviews = 2000
)

// ViewsOption customises the registry.
type ViewsOption func(*Views)

// WithClock injects a custom clock.
func WithClock(clock func() time.Time) ViewsOption {
	return func(vs *Views) {
		if clock != nil {
			vs.now = clock
		}
	}
}

// WithMaxViews caps the number of live published views; the least recently
// used published view is closed to make room. Previews are never evicted
// for published views.
func WithMaxViews(n int) ViewsOption {
	return func(vs *Views) {
		if n > 0 {
			vs.published.max = n
		}
	}
}

// WithMaxPreviews caps the number of live preview views independently of
// published ones.
func WithMaxPreviews(n int) ViewsOption {
	return func(vs *Views) {
		if n > 0 {
			vs.previews.max = n
		}
	}
}

// WithLogger sets the registry logger.
func WithLogger(logger *zap.Logger) ViewsOption {
	return func(vs *Views) {
		if logger != nil {
			vs.logger = logger
		}
	}
}

// pool is one kind of view in least-recently-used order, front first.
type pool struct {
	max   int
	order *list.List
}

func newPool(max int) *pool {
	return &pool{max: max, order: list.New()}
}

type entry struct {
	view *View
	elem *list.Element
	pool *pool
}

// Views is the registry of live views.
type Views struct {
	mu        sync.Mutex
	views     map[string]entry
	published *pool
	previews  *pool
	now       func() time.Time
	logger    *zap.Logger
}

// NewViews constructs an empty registry.
func NewViews(opts ...ViewsOption) *Views {
	vs := &Views{
		views:     make(map[string]entry),
		published: newPool(defaultMaxViews),
		previews:  newPool(defaultMaxPreviews),
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(vs)
		}
	}
	return vs
}

// Create registers a new view that owns resolver.
func (vs *Views) Create(resolver *media.Resolver, preview bool) (*View, error) {
	if resolver == nil {
		return nil, errors.New("site: resolver is required")
	}
	view := newView(ulid.Make().String(), preview, resolver, vs.now)

	vs.mu.Lock()
	p := vs.published
	if preview {
		p = vs.previews
	}
	var evicted *View
	if p.order.Len() >= p.max {
		if back := p.order.Back(); back != nil {
			evicted = back.Value.(*View)
			vs.removeLocked(evicted.id)
		}
	}
	vs.views[view.id] = entry{view: view, elem: p.order.PushFront(view), pool: p}
	vs.mu.Unlock()

	if evicted != nil {
		evicted.Close()
		vs.logger.Debug("view evicted", zap.String("view_id", evicted.id), zap.Bool("preview", preview))
	}
	return view, nil
}

// Get returns the live view with id and marks it most recently used.
func (vs *Views) Get(id string) (*View, bool) {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	e, ok := vs.views[id]
	if !ok {
		return nil, false
	}
	e.pool.order.MoveToFront(e.elem)
	return e.view, true
}

// Close tears down the view with id and reports whether it existed.
func (vs *Views) Close(id string) bool {
	vs.mu.Lock()
	view := vs.removeLocked(id)
	vs.mu.Unlock()
	if view == nil {
		return false
	}
	view.Close()
	return true
}

// Sweep closes views idle for longer than idle and returns how many.
func (vs *Views) Sweep(idle time.Duration) int {
	cutoff := vs.now().Add(-idle)

	vs.mu.Lock()
	var stale []*View
	for id, e := range vs.views {
		if e.view.LastActive().Before(cutoff) {
			stale = append(stale, e.view)
			vs.removeLocked(id)
		}
	}
	vs.mu.Unlock()

	for _, view := range stale {
		view.Close()
	}
	return len(stale)
}

// Len returns the number of live views.
func (vs *Views) Len() int {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	return len(vs.views)
}

// Previews returns the number of live preview views.
func (vs *Views) Previews() int {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	return vs.previews.order.Len()
}

// CloseAll tears down every view.
func (vs *Views) CloseAll() {
	vs.mu.Lock()
	views := vs.views
	vs.views = make(map[string]entry)
	vs.published.order.Init()
	vs.previews.order.Init()
	vs.mu.Unlock()
	for _, e := range views {
		e.view.Close()
	}
}

func (vs *Views) removeLocked(id string) *View {
	e, ok := vs.views[id]
	if !ok {
		return nil
	}
	e.pool.order.Remove(e.elem)
	delete(vs.views, id)
	return e.view
}
