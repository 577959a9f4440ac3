package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Theme names a fixed visual palette applied uniformly across the site.
type Theme string

const (
	// ThemeModern is the default palette.
	ThemeModern  Theme = "modern"
	ThemeClassic Theme = "classic"
	ThemeMinimal Theme = "minimal"
)

// ContactMethod selects how visitors book an appointment.
type ContactMethod string

const (
	ContactWhatsApp ContactMethod = "whatsapp"
	ContactCall     ContactMethod = "call"
)

// ProfileStatus tracks the approval state assigned by the admin workflow.
type ProfileStatus string

const (
	StatusPending  ProfileStatus = "pending"
	StatusApproved ProfileStatus = "approved"
)

// BusinessProfile is the canonical document describing one tenant's site content.
type BusinessProfile struct {
	BusinessName string `json:"businessName" validate:"required,max=120"`
	Category     string `json:"category,omitempty"`
	OwnerName    string `json:"ownerName,omitempty"`
	Slug         string `json:"slug" validate:"required,slug"`

	MobileNumber   string `json:"mobileNumber,omitempty" validate:"omitempty,max=32"`
	WhatsAppNumber string `json:"whatsappNumber,omitempty" validate:"omitempty,max=32"`
	Email          string `json:"email,omitempty" validate:"omitempty,email"`
	Address        string `json:"address,omitempty"`
	GoogleMapLink  string `json:"googleMapLink,omitempty" validate:"omitempty,url"`
	Website        string `json:"website,omitempty" validate:"omitempty,url"`
	Instagram      string `json:"instagram,omitempty"`
	Facebook       string `json:"facebook,omitempty"`

	Description       string `json:"description,omitempty"`
	NavbarTagline     string `json:"navbarTagline,omitempty"`
	FooterDescription string `json:"footerDescription,omitempty"`
	YouTubeVideo      string `json:"youtubeVideo,omitempty"`

	Logo   ImageRef   `json:"logo"`
	Images []ImageRef `json:"images"`

	Services      []Service      `json:"services" validate:"dive"`
	SpecialOffers []SpecialOffer `json:"specialOffers" validate:"dive"`
	BusinessHours Hours          `json:"businessHours"`

	GooglePlacesData    *PlacesData         `json:"googlePlacesData,omitempty" validate:"omitempty"`
	AppointmentSettings AppointmentSettings `json:"appointmentSettings"`
	Theme               Theme               `json:"theme,omitempty" validate:"omitempty,oneof=modern classic minimal"`

	Status    ProfileStatus `json:"status,omitempty" validate:"omitempty,oneof=pending approved"`
	CreatedAt time.Time     `json:"createdAt,omitempty"`
	UpdatedAt time.Time     `json:"updatedAt,omitempty"`
}

// Service is one card in the services section.
type Service struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description,omitempty"`
	Price       string   `json:"price,omitempty"`
	Image       ImageRef `json:"image"`
	Featured    bool     `json:"featured"`
}

// SpecialOffer is a time-limited promotion.
type SpecialOffer struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description,omitempty"`
	ExpiryDate  Date   `json:"expiryDate"`
}

// PlacesData is the optional Google Places enrichment supplied by the wizard.
type PlacesData struct {
	Rating         float64         `json:"rating" validate:"gte=0,lte=5"`
	TotalRatings   int             `json:"totalRatings" validate:"gte=0"`
	Reviews        []Review        `json:"reviews" validate:"dive"`
	Attributes     map[string]bool `json:"attributes,omitempty"`
	PaymentOptions map[string]bool `json:"paymentOptions,omitempty"`
	ParkingOptions map[string]bool `json:"parkingOptions,omitempty"`
}

// Review is a single Google review.
type Review struct {
	Author string  `json:"author"`
	Rating float64 `json:"rating" validate:"gte=0,lte=5"`
	Text   string  `json:"text"`
}

// AppointmentSettings configures the booking section.
type AppointmentSettings struct {
	ContactMethod  ContactMethod `json:"contactMethod,omitempty" validate:"omitempty,oneof=whatsapp call"`
	AvailableSlots []Slot        `json:"availableSlots"`
}

// Slot is a bookable time shown in the appointment section.
type Slot struct {
	Time  string `json:"time"`
	Label string `json:"label"`
}

// Reviews returns the Google reviews, or nil when no enrichment exists.
func (p BusinessProfile) Reviews() []Review {
	if p.GooglePlacesData == nil {
		return nil
	}
	return p.GooglePlacesData.Reviews
}

// Published reports whether the profile may be served on the public site.
// Profiles without an explicit status predate the approval workflow.
func (p BusinessProfile) Published() bool {
	return p.Status == "" || p.Status == StatusApproved
}

// Clone returns a deep copy so callers may attach local media without
// mutating a shared (cached) profile.
func (p BusinessProfile) Clone() BusinessProfile {
	cp := p
	cp.Images = append([]ImageRef(nil), p.Images...)
	cp.Services = append([]Service(nil), p.Services...)
	cp.SpecialOffers = append([]SpecialOffer(nil), p.SpecialOffers...)
	cp.AppointmentSettings.AvailableSlots = append([]Slot(nil), p.AppointmentSettings.AvailableSlots...)
	if p.GooglePlacesData != nil {
		places := *p.GooglePlacesData
		places.Reviews = append([]Review(nil), p.GooglePlacesData.Reviews...)
		places.Attributes = copyFlags(p.GooglePlacesData.Attributes)
		places.PaymentOptions = copyFlags(p.GooglePlacesData.PaymentOptions)
		places.ParkingOptions = copyFlags(p.GooglePlacesData.ParkingOptions)
		cp.GooglePlacesData = &places
	}
	return cp
}

// UnmarshalJSON accepts the legacy "subdomain" key as an alias for slug and
// fills in missing weekdays.
func (p *BusinessProfile) UnmarshalJSON(data []byte) error {
	type alias BusinessProfile
	aux := struct {
		*alias
		Subdomain string `json:"subdomain"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if strings.TrimSpace(p.Slug) == "" {
		p.Slug = aux.Subdomain
	}
	p.Slug = NormalizeSlug(p.Slug)
	p.BusinessHours = p.BusinessHours.Complete()
	return nil
}

func copyFlags(src map[string]bool) map[string]bool {
	if src == nil {
		return nil
	}
	dst := make(map[string]bool, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
