package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrImageRefConflict is returned when an image reference carries both a URL and a local file.
var ErrImageRefConflict = errors.New("domain: image reference is both url and local file")

// LocalFile is an in-memory upload that has not been persisted anywhere.
type LocalFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// ImageRef points at an image either by URL or by a local file handle. The
// two forms are mutually exclusive; the zero value means "no image".
type ImageRef struct {
	URL   string
	Local *LocalFile
}

// ImageURL builds a reference backed by a remote URL or storage key.
func ImageURL(url string) ImageRef {
	return ImageRef{URL: strings.TrimSpace(url)}
}

// ImageLocal builds a reference backed by an in-memory file.
func ImageLocal(file LocalFile) ImageRef {
	f := file
	return ImageRef{Local: &f}
}

// Empty reports whether the reference resolves to no image.
func (r ImageRef) Empty() bool {
	return strings.TrimSpace(r.URL) == "" && r.Local == nil
}

// IsLocal reports whether the reference is a local file handle.
func (r ImageRef) IsLocal() bool {
	return r.Local != nil
}

// Validate enforces the url/local exclusivity invariant.
func (r ImageRef) Validate() error {
	if r.Local != nil && strings.TrimSpace(r.URL) != "" {
		return ErrImageRefConflict
	}
	return nil
}

// MarshalJSON writes URLs as plain strings. Local files never leave the
// process, so they encode as null.
func (r ImageRef) MarshalJSON() ([]byte, error) {
	if r.Local != nil || strings.TrimSpace(r.URL) == "" {
		return []byte("null"), nil
	}
	return json.Marshal(r.URL)
}

// UnmarshalJSON accepts a string, null, or an object with a "url" key as
// produced by some older wizard builds.
func (r *ImageRef) UnmarshalJSON(data []byte) error {
	*r = ImageRef{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		r.URL = strings.TrimSpace(s)
		return nil
	case '{':
		var obj struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return err
		}
		r.URL = strings.TrimSpace(obj.URL)
		return nil
	default:
		return fmt.Errorf("domain: image reference must be a string or null, got %s", string(trimmed))
	}
}
