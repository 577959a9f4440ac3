package storage

import (
	"fmt"
	"strings"
)

// AssetPurpose names where a business image is used on the site.
type AssetPurpose string

const (
	PurposeLogo    AssetPurpose = "logo"
	PurposeGallery AssetPurpose = "gallery"
	PurposeService AssetPurpose = "services"
)

// BuildObjectPath composes the object key for a file uploaded by the wizard:
// businesses/{slug}/{purpose}/{file}.
func BuildObjectPath(purpose AssetPurpose, slug, fileName string) (string, error) {
	switch purpose {
	case PurposeLogo, PurposeGallery, PurposeService:
	default:
		return "", fmt.Errorf("storage: unsupported asset purpose %q", purpose)
	}
	slug, err := validateSegment("slug", slug)
	if err != nil {
		return "", err
	}
	fileName, err = validateSegment("fileName", fileName)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("businesses/%s/%s/%s", slug, purpose, fileName), nil
}

// ObjectRef identifies one object in a bucket.
type ObjectRef struct {
	Bucket string
	Object string
}

// ParseObjectRef parses gs://bucket/object. ok is false for anything else.
func ParseObjectRef(ref string) (ObjectRef, bool) {
	rest, found := strings.CutPrefix(strings.TrimSpace(ref), "gs://")
	if !found {
		return ObjectRef{}, false
	}
	bucket, object, found := strings.Cut(rest, "/")
	if !found || bucket == "" || strings.Trim(object, "/") == "" {
		return ObjectRef{}, false
	}
	return ObjectRef{Bucket: bucket, Object: strings.TrimLeft(object, "/")}, true
}

func validateSegment(name, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("storage: %s is required", name)
	}
	if strings.ContainsAny(value, "/\\") {
		return "", fmt.Errorf("storage: %s contains invalid path characters", name)
	}
	if strings.Contains(value, "..") {
		return "", fmt.Errorf("storage: %s contains invalid traversal sequence", name)
	}
	return value, nil
}
