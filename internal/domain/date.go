package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04",
	"2006/01/02",
}

// Date is a calendar date (or instant) entered in the wizard, e.g. an offer
// expiry. Bare dates are interpreted in the reader's location.
type Date struct {
	time.Time
	dateOnly bool
}

// NewDate wraps an instant.
func NewDate(t time.Time) Date {
	return Date{Time: t}
}

// DateOnly builds a calendar date without a time component.
func DateOnly(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), dateOnly: true}
}

// ParseDate accepts the layouts the wizard has historically produced.
func ParseDate(value string) (Date, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Date{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return Date{Time: t, dateOnly: layout == "2006-01-02" || layout == "2006/01/02"}, nil
		}
	}
	return Date{}, fmt.Errorf("domain: invalid date %q", value)
}

// At returns the instant in loc. Date-only values are pinned to midnight of
// that calendar day in loc rather than converted from UTC.
func (d Date) At(loc *time.Location) time.Time {
	if d.IsZero() {
		return time.Time{}
	}
	if loc == nil {
		loc = time.Local
	}
	if d.dateOnly {
		y, m, day := d.Date()
		return time.Date(y, m, day, 0, 0, 0, 0, loc)
	}
	return d.Time.In(loc)
}

// MarshalJSON writes date-only values as YYYY-MM-DD.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	if d.dateOnly {
		return json.Marshal(d.Format("2006-01-02"))
	}
	return json.Marshal(d.Format(time.RFC3339))
}

// UnmarshalJSON parses any supported layout; null and "" yield the zero date.
func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("domain: date must be a string: %w", err)
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
