package render

import (
	"math"

	"varanasihub.com/site/internal/domain"
)

// Star is one glyph of a five-star indicator.
type Star string

const (
	StarFull  Star = "full"
	StarHalf  Star = "half"
	StarEmpty Star = "empty"
)

// Stars renders rating (0..5) as five glyphs. Fractions of .5 and above
// show a half star.
func Stars(rating float64) [5]Star {
	var out [5]Star
	rating = math.Max(0, math.Min(5, rating))
	full := int(math.Floor(rating))
	half := rating-float64(full) >= 0.5
	for i := range out {
		switch {
		case i < full:
			out[i] = StarFull
		case i == full && half:
			out[i] = StarHalf
		default:
			out[i] = StarEmpty
		}
	}
	return out
}

// AverageRating prefers the Places aggregate and otherwise averages the
// reviews. The second value is the rating count shown next to it.
func AverageRating(places *domain.PlacesData) (float64, int) {
	if places == nil {
		return 0, 0
	}
	if places.Rating > 0 {
		count := places.TotalRatings
		if count == 0 {
			count = len(places.Reviews)
		}
		return places.Rating, count
	}
	if len(places.Reviews) == 0 {
		return 0, 0
	}
	var sum float64
	for _, r := range places.Reviews {
		sum += r.Rating
	}
	avg := sum / float64(len(places.Reviews))
	return math.Round(avg*10) / 10, len(places.Reviews)
}
