package seo

import (
	"encoding/json"
	"strings"
)

// JSON marshals v to a compact JSON string. It returns an empty string on error.
func JSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Address is the postal address of a business.
type Address struct {
	Street string
}

// OpeningHours is one schema.org OpeningHoursSpecification.
type OpeningHours struct {
	Day   string
	Opens string
	Close string
}

// Rating is an aggregate rating.
type Rating struct {
	Value float64
	Count int
}

// Business carries the fields used for the LocalBusiness schema.
type Business struct {
	Name        string
	Description string
	URL         string
	Logo        string
	Image       string
	Telephone   string
	Email       string
	Address     string
	MapURL      string
	SameAs      []string
	Hours       []OpeningHours
	Rating      Rating
}

// LocalBusiness returns a schema.org LocalBusiness payload.
func LocalBusiness(b Business) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "LocalBusiness",
		"name":     b.Name,
	}
	setIf(m, "description", b.Description)
	setIf(m, "url", b.URL)
	setIf(m, "logo", b.Logo)
	setIf(m, "image", b.Image)
	setIf(m, "telephone", b.Telephone)
	setIf(m, "email", b.Email)
	setIf(m, "hasMap", b.MapURL)
	if strings.TrimSpace(b.Address) != "" {
		m["address"] = map[string]any{
			"@type":         "PostalAddress",
			"streetAddress": b.Address,
		}
	}
	if len(b.SameAs) > 0 {
		m["sameAs"] = b.SameAs
	}
	if len(b.Hours) > 0 {
		specs := make([]map[string]any, 0, len(b.Hours))
		for _, h := range b.Hours {
			specs = append(specs, map[string]any{
				"@type":     "OpeningHoursSpecification",
				"dayOfWeek": "https://schema.org/" + h.Day,
				"opens":     h.Opens,
				"closes":    h.Close,
			})
		}
		m["openingHoursSpecification"] = specs
	}
	if b.Rating.Value > 0 && b.Rating.Count > 0 {
		m["aggregateRating"] = map[string]any{
			"@type":       "AggregateRating",
			"ratingValue": b.Rating.Value,
			"reviewCount": b.Rating.Count,
		}
	}
	return m
}

func setIf(m map[string]any, key, value string) {
	if value = strings.TrimSpace(value); value != "" {
		m[key] = value
	}
}
