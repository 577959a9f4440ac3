// Package media turns image references on a business profile into URLs a
// browser can display, and owns the lifetime of temporary object URLs
// created for unsaved uploads.
package media

import (
	"context"
	"errors"

	"varanasihub.com/site/internal/domain"
	"varanasihub.com/site/internal/platform/storage"
)

// Kind distinguishes where a source reads images from.
type Kind string

const (
	KindRemote Kind = "remote"
	KindLocal  Kind = "local"
)

var (
	// ErrLocalNotAllowed is returned when a local file reaches a remote-only source.
	ErrLocalNotAllowed = errors.New("media: local files cannot be resolved remotely")
	// ErrResolverClosed is returned by Resolve after Close.
	ErrResolverClosed = errors.New("media: resolver closed")
)

// Target says which profile field a reference belongs to, so bare file
// names can be expanded into storage object keys.
type Target struct {
	Slug    string
	Purpose storage.AssetPurpose
}

// Resolved is a displayable URL. BlobID is set when the URL is a temporary
// object URL that must be released.
type Resolved struct {
	URL    string
	BlobID string
}

// Source resolves a single image reference.
type Source interface {
	Kind() Kind
	Resolve(ctx context.Context, ref domain.ImageRef, target Target) (Resolved, error)
	// Release frees whatever Resolve allocated for r and reports whether
	// anything was freed.
	Release(r Resolved) bool
}
