package render

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"varanasihub.com/site/internal/domain"
)

// Canonical flag keys per group, in display order. Keys outside these lists
// are ignored.
var (
	AmenityKeys = []string{
		"wheelchairAccessibleEntrance",
		"wheelchairAccessibleRestroom",
		"wifi",
		"airConditioning",
		"restroom",
		"outdoorSeating",
		"delivery",
		"takeout",
		"dineIn",
		"reservable",
		"goodForChildren",
		"allowsDogs",
	}
	PaymentKeys = []string{
		"acceptsCashOnly",
		"acceptsCreditCards",
		"acceptsDebitCards",
		"acceptsNfc",
		"acceptsUpi",
	}
	ParkingKeys = []string{
		"freeParkingLot",
		"paidParkingLot",
		"freeStreetParking",
		"paidStreetParking",
		"valetParking",
		"freeGarageParking",
		"paidGarageParking",
	}
)

var labelOverrides = map[string]string{
	"wifi":       "Wi-Fi",
	"acceptsNfc": "NFC Payments",
	"acceptsUpi": "UPI",
	"dineIn":     "Dine-in",
}

// titleCase builds a fresh caser per call; a cases.Caser is stateful and
// must not be shared between goroutines.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// FlagGroup is one rendered group of amenity badges.
type FlagGroup struct {
	Title  string
	Labels []string
}

// EnabledLabels returns the labels of the keys set true in flags, in the
// canonical order.
func EnabledLabels(keys []string, flags map[string]bool) []string {
	var out []string
	for _, key := range keys {
		if flags[key] {
			out = append(out, FlagLabel(key))
		}
	}
	return out
}

// FlagLabel turns a camelCase key into a title-cased label.
func FlagLabel(key string) string {
	if label, ok := labelOverrides[key]; ok {
		return label
	}
	key = strings.TrimPrefix(key, "accepts")
	var b strings.Builder
	for i, r := range key {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return titleCase(b.String())
}

// AmenityGroups returns the non-empty groups for the places data.
func AmenityGroups(places *domain.PlacesData) []FlagGroup {
	if places == nil {
		return nil
	}
	var groups []FlagGroup
	for _, g := range []struct {
		title string
		keys  []string
		flags map[string]bool
	}{
		{"Amenities", AmenityKeys, places.Attributes},
		{"Payment Options", PaymentKeys, places.PaymentOptions},
		{"Parking", ParkingKeys, places.ParkingOptions},
	} {
		if labels := EnabledLabels(g.keys, g.flags); len(labels) > 0 {
			groups = append(groups, FlagGroup{Title: g.title, Labels: labels})
		}
	}
	return groups
}
