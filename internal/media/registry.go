package media

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/metric"

	"varanasihub.com/site/internal/domain"
	"varanasihub.com/site/internal/platform/observability"
)

const defaultBlobPrefix = "/blob/"

// Blob is the payload behind a temporary object URL.
type Blob struct {
	Name        string
	ContentType string
	Data        []byte
	CreatedAt   time.Time
}

// RegistryOption customises a Registry.
type RegistryOption func(*Registry)

// WithPathPrefix sets the URL prefix blobs are served under.
func WithPathPrefix(prefix string) RegistryOption {
	return func(r *Registry) {
		prefix = strings.TrimSpace(prefix)
		if prefix == "" {
			return
		}
		if !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		r.prefix = prefix
	}
}

// WithRegistryClock injects a custom clock.
func WithRegistryClock(clock func() time.Time) RegistryOption {
	return func(r *Registry) {
		if clock != nil {
			r.now = clock
		}
	}
}

// Registry is the process-wide table of temporary object URLs.
type Registry struct {
	mu     sync.RWMutex
	blobs  map[string]Blob
	prefix string
	now    func() time.Time

	allocated metric.Int64Counter
	revoked   metric.Int64Counter
}

// NewRegistry constructs an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	meter := observability.Meter("media")
	r := &Registry{
		blobs:     make(map[string]Blob),
		prefix:    defaultBlobPrefix,
		now:       time.Now,
		allocated: observability.Counter(meter, "media.object_urls.allocated", "Temporary object URLs allocated"),
		revoked:   observability.Counter(meter, "media.object_urls.revoked", "Temporary object URLs revoked"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Allocate stores the file and returns its id and URL.
func (r *Registry) Allocate(file domain.LocalFile) (id, url string) {
	contentType := strings.TrimSpace(file.ContentType)
	if contentType == "" {
		contentType = http.DetectContentType(file.Data)
	}
	id = ulid.Make().String()

	r.mu.Lock()
	r.blobs[id] = Blob{
		Name:        file.Name,
		ContentType: contentType,
		Data:        file.Data,
		CreatedAt:   r.now(),
	}
	r.mu.Unlock()

	r.allocated.Add(context.Background(), 1)
	return id, r.URL(id)
}

// Revoke frees id. It reports false when id is unknown or already revoked.
func (r *Registry) Revoke(id string) bool {
	r.mu.Lock()
	_, ok := r.blobs[id]
	delete(r.blobs, id)
	r.mu.Unlock()

	if ok {
		r.revoked.Add(context.Background(), 1)
	}
	return ok
}

// Open returns the blob for id.
func (r *Registry) Open(id string) (Blob, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	blob, ok := r.blobs[id]
	return blob, ok
}

// Outstanding returns the number of live allocations.
func (r *Registry) Outstanding() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.blobs)
}

// URL returns the path a blob id is served under.
func (r *Registry) URL(id string) string {
	return r.prefix + id
}
