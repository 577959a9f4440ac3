package render

import (
	"net/url"
	"regexp"
	"strings"

	"varanasihub.com/site/internal/domain"
)

var (
	placeIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`[?&](?:query_)?place_id=([A-Za-z0-9_-]+)`),
		regexp.MustCompile(`place_id:([A-Za-z0-9_-]+)`),
		regexp.MustCompile(`!1s(ChIJ[A-Za-z0-9_-]+)`),
	}
	nonDigits = regexp.MustCompile(`\D`)
)

// DigitsOnly strips everything but ASCII digits.
func DigitsOnly(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}

// TelLink builds a tel: link. Spaces and dashes are dropped, a leading +
// is kept.
func TelLink(number string) string {
	number = strings.TrimSpace(number)
	if number == "" {
		return ""
	}
	prefix := ""
	if strings.HasPrefix(number, "+") {
		prefix = "+"
	}
	digits := DigitsOnly(number)
	if digits == "" {
		return ""
	}
	return "tel:" + prefix + digits
}

// WhatsAppLink builds https://wa.me/{digits} with an optional prefilled message.
func WhatsAppLink(number, text string) string {
	digits := DigitsOnly(number)
	if digits == "" {
		return ""
	}
	link := "https://wa.me/" + digits
	if text = strings.TrimSpace(text); text != "" {
		link += "?text=" + url.QueryEscape(text)
	}
	return link
}

// BookingMessage is the canned WhatsApp message for appointments.
func BookingMessage(businessName string) string {
	return "Hi " + strings.TrimSpace(businessName) + ", I would like to book an appointment."
}

// Booking is the resolved appointment call to action.
type Booking struct {
	Method domain.ContactMethod
	Link   string
	Label  string
}

// BookingLink resolves the appointment deep link. The preferred contact
// method falls back to the other number when its own is missing.
func BookingLink(p domain.BusinessProfile) (Booking, bool) {
	method := p.AppointmentSettings.ContactMethod
	if method == "" {
		return Booking{}, false
	}
	whatsapp := strings.TrimSpace(p.WhatsAppNumber)
	mobile := strings.TrimSpace(p.MobileNumber)

	useWhatsApp := method == domain.ContactWhatsApp
	if useWhatsApp && DigitsOnly(whatsapp) == "" {
		useWhatsApp = false
	}
	if !useWhatsApp && DigitsOnly(mobile) == "" && DigitsOnly(whatsapp) != "" {
		useWhatsApp = true
	}

	if useWhatsApp {
		return Booking{
			Method: domain.ContactWhatsApp,
			Link:   WhatsAppLink(whatsapp, BookingMessage(p.BusinessName)),
			Label:  "Book on WhatsApp",
		}, true
	}
	if link := TelLink(mobile); link != "" {
		return Booking{Method: domain.ContactCall, Link: link, Label: "Call to Book"}, true
	}
	return Booking{}, false
}

// PlaceID extracts a Google place id from a maps link.
func PlaceID(mapLink string) (string, bool) {
	for _, re := range placeIDPatterns {
		if m := re.FindStringSubmatch(mapLink); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// MapEmbedURL returns the iframe source for the contact map, keyed by the
// place id in mapLink when present and otherwise by address. apiKey
// selects the Maps Embed API; without it the keyless embed is used.
func MapEmbedURL(mapLink, address, apiKey string) string {
	query := ""
	if id, ok := PlaceID(mapLink); ok {
		query = "place_id:" + id
	} else if address = strings.TrimSpace(address); address != "" {
		query = address
	}
	if query == "" {
		return ""
	}
	if apiKey = strings.TrimSpace(apiKey); apiKey != "" {
		return "https://www.google.com/maps/embed/v1/place?key=" + url.QueryEscape(apiKey) + "&q=" + url.QueryEscape(query)
	}
	return "https://maps.google.com/maps?q=" + url.QueryEscape(query) + "&output=embed"
}

// DirectionsURL links to Google Maps for the business.
func DirectionsURL(mapLink, address string) string {
	if link := strings.TrimSpace(mapLink); link != "" {
		return link
	}
	if address = strings.TrimSpace(address); address != "" {
		return "https://www.google.com/maps/search/?api=1&query=" + url.QueryEscape(address)
	}
	return ""
}

// SocialURL normalises an Instagram or Facebook handle or URL.
func SocialURL(base, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	lower := strings.ToLower(value)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return value
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimPrefix(value, "@")
}
