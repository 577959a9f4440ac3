package render

import (
	"math"
	"time"

	"varanasihub.com/site/internal/domain"
)

// Urgency classifies an offer by days left.
type Urgency string

const (
	UrgencyExpired Urgency = "expired"
	UrgencyUrgent  Urgency = "urgent"
	UrgencyNormal  Urgency = "normal"
)

const (
	// OffersPerPage is the offers page size.
	OffersPerPage = 2
	// ReviewsPerPage is the reviews page size.
	ReviewsPerPage = 6
)

// DaysUntilExpiry returns ceil((expiry - now) / 24h). Date-only expiries
// are read as midnight in now's location. ok is false without an expiry.
func DaysUntilExpiry(expiry domain.Date, now time.Time) (days int, ok bool) {
	if expiry.IsZero() {
		return 0, false
	}
	diff := expiry.At(now.Location()).Sub(now)
	return int(math.Ceil(diff.Hours() / 24)), true
}

// ClassifyExpiry maps days left to an urgency: <=0 expired, 1..3 urgent.
func ClassifyExpiry(days int) Urgency {
	switch {
	case days <= 0:
		return UrgencyExpired
	case days <= 3:
		return UrgencyUrgent
	default:
		return UrgencyNormal
	}
}
