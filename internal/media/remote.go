package media

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"varanasihub.com/site/internal/domain"
	"varanasihub.com/site/internal/platform/storage"
)

const publicStorageHost = "https://storage.googleapis.com/"

// URLSigner issues signed download URLs. *storage.Client implements it.
type URLSigner interface {
	DownloadURL(ctx context.Context, bucket, object string, opts storage.DownloadOptions) (storage.SignedURL, error)
}

// RemoteOption customises a RemoteSource.
type RemoteOption func(*RemoteSource)

// WithSigner enables signing of storage references against bucket.
func WithSigner(signer URLSigner, bucket string) RemoteOption {
	return func(s *RemoteSource) {
		s.signer = signer
		s.bucket = strings.TrimSpace(bucket)
	}
}

// WithURLTTL sets the lifetime of signed URLs.
func WithURLTTL(ttl time.Duration) RemoteOption {
	return func(s *RemoteSource) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// RemoteSource resolves persisted references. Absolute URLs pass through
// unchanged; gs:// references and bare object keys are signed when a signer
// is configured.
type RemoteSource struct {
	signer URLSigner
	bucket string
	ttl    time.Duration
}

// NewRemoteSource constructs a remote source.
func NewRemoteSource(opts ...RemoteOption) *RemoteSource {
	s := &RemoteSource{ttl: 10 * time.Minute}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Kind implements Source.
func (s *RemoteSource) Kind() Kind { return KindRemote }

// Resolve implements Source.
func (s *RemoteSource) Resolve(ctx context.Context, ref domain.ImageRef, target Target) (Resolved, error) {
	if ref.IsLocal() {
		return Resolved{}, ErrLocalNotAllowed
	}
	raw := strings.TrimSpace(ref.URL)
	if raw == "" {
		return Resolved{}, nil
	}
	if passThrough(raw) {
		return Resolved{URL: raw}, nil
	}

	if obj, ok := storage.ParseObjectRef(raw); ok {
		if s.signer == nil {
			return Resolved{URL: publicStorageHost + obj.Bucket + "/" + escapeObject(obj.Object)}, nil
		}
		return s.sign(ctx, obj.Bucket, obj.Object)
	}

	if s.signer == nil || s.bucket == "" {
		return Resolved{URL: raw}, nil
	}
	object := strings.TrimLeft(raw, "/")
	if !strings.Contains(object, "/") {
		built, err := storage.BuildObjectPath(target.Purpose, target.Slug, object)
		if err != nil {
			return Resolved{}, fmt.Errorf("media: build object path: %w", err)
		}
		object = built
	}
	return s.sign(ctx, s.bucket, object)
}

// Release implements Source. Remote URLs hold no local resources.
func (s *RemoteSource) Release(Resolved) bool { return false }

func (s *RemoteSource) sign(ctx context.Context, bucket, object string) (Resolved, error) {
	signed, err := s.signer.DownloadURL(ctx, bucket, object, storage.DownloadOptions{
		ExpiresIn:    s.ttl,
		CacheControl: "public, max-age=300",
	})
	if err != nil {
		return Resolved{}, fmt.Errorf("media: sign %s/%s: %w", bucket, object, err)
	}
	return Resolved{URL: signed.URL}, nil
}

func passThrough(raw string) bool {
	lower := strings.ToLower(raw)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return true
	case strings.HasPrefix(lower, "data:"), strings.HasPrefix(lower, "blob:"):
		return true
	case strings.HasPrefix(raw, "//"):
		return true
	}
	return false
}

func escapeObject(object string) string {
	parts := strings.Split(object, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
