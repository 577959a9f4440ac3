package domain

import (
	"errors"
	"regexp"
	"strings"
)

const (
	SlugMinLength = 3
	SlugMaxLength = 50
)

var (
	// ErrInvalidSlug is returned for slugs outside [a-z0-9-]{3,50}.
	ErrInvalidSlug = errors.New("domain: invalid slug")

	slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)
)

// NormalizeSlug trims and lowercases a slug or subdomain. It does not
// validate.
func NormalizeSlug(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// ValidSlug reports whether slug is URL-safe and within length bounds.
func ValidSlug(slug string) bool {
	if len(slug) < SlugMinLength || len(slug) > SlugMaxLength {
		return false
	}
	return slugPattern.MatchString(slug)
}

// ParseSlug normalises and validates a slug in one step.
func ParseSlug(value string) (string, error) {
	slug := NormalizeSlug(value)
	if !ValidSlug(slug) {
		return "", ErrInvalidSlug
	}
	return slug, nil
}
