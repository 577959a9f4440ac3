package render

import (
	"strings"

	"varanasihub.com/site/internal/domain"
)

// Section names a page section; the names double as DOM ids.
type Section string

const (
	SectionHero        Section = "hero"
	SectionQuickInfo   Section = "quick-info"
	SectionAbout       Section = "about"
	SectionServices    Section = "services"
	SectionOffers      Section = "offers"
	SectionAmenities   Section = "amenities"
	SectionAppointment Section = "appointment"
	SectionVideo       Section = "video"
	SectionGallery     Section = "gallery"
	SectionReviews     Section = "reviews"
	SectionContact     Section = "contact"
	SectionFooter      Section = "footer"
)

// SectionOrder is the order sections appear on the page.
var SectionOrder = []Section{
	SectionHero,
	SectionQuickInfo,
	SectionAbout,
	SectionServices,
	SectionOffers,
	SectionAmenities,
	SectionAppointment,
	SectionVideo,
	SectionGallery,
	SectionReviews,
	SectionContact,
	SectionFooter,
}

func present(s string) bool { return strings.TrimSpace(s) != "" }

// ShowHero: businessName is set.
func ShowHero(p domain.BusinessProfile) bool { return present(p.BusinessName) }

// ShowQuickInfo: any day is open or an address is set.
func ShowQuickInfo(p domain.BusinessProfile) bool {
	return p.BusinessHours.AnyOpen() || present(p.Address)
}

// ShowAbout is always true.
func ShowAbout(domain.BusinessProfile) bool { return true }

// ShowServices: at least one service.
func ShowServices(p domain.BusinessProfile) bool { return len(p.Services) > 0 }

// ShowOffers: at least one special offer.
func ShowOffers(p domain.BusinessProfile) bool { return len(p.SpecialOffers) > 0 }

// ShowAmenities: at least one canonical amenity, payment or parking flag is true.
func ShowAmenities(p domain.BusinessProfile) bool { return len(AmenityGroups(p.GooglePlacesData)) > 0 }

// ShowAppointment: a contact method is set and a number exists to reach it.
func ShowAppointment(p domain.BusinessProfile) bool {
	if p.AppointmentSettings.ContactMethod == "" {
		return false
	}
	_, ok := BookingLink(p)
	return ok
}

// ShowVideo: youtubeVideo parses to a video id.
func ShowVideo(p domain.BusinessProfile) bool {
	_, ok := YouTubeID(p.YouTubeVideo)
	return ok
}

// ShowGallery: at least one image.
func ShowGallery(p domain.BusinessProfile) bool { return len(p.Images) > 0 }

// ShowReviews: at least one Google review.
func ShowReviews(p domain.BusinessProfile) bool { return len(p.Reviews()) > 0 }

// ShowContact: any of mobile number, email or address.
func ShowContact(p domain.BusinessProfile) bool {
	return present(p.MobileNumber) || present(p.Email) || present(p.Address)
}

// ShowFooter is always true.
func ShowFooter(domain.BusinessProfile) bool { return true }

var visibility = map[Section]func(domain.BusinessProfile) bool{
	SectionHero:        ShowHero,
	SectionQuickInfo:   ShowQuickInfo,
	SectionAbout:       ShowAbout,
	SectionServices:    ShowServices,
	SectionOffers:      ShowOffers,
	SectionAmenities:   ShowAmenities,
	SectionAppointment: ShowAppointment,
	SectionVideo:       ShowVideo,
	SectionGallery:     ShowGallery,
	SectionReviews:     ShowReviews,
	SectionContact:     ShowContact,
	SectionFooter:      ShowFooter,
}

// Visible lists the sections shown for p, in page order.
func Visible(p domain.BusinessProfile) []Section {
	out := make([]Section, 0, len(SectionOrder))
	for _, s := range SectionOrder {
		if visibility[s](p) {
			out = append(out, s)
		}
	}
	return out
}
