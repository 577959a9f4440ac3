// Package render maps a business profile to the view model shared by the
// published site and the wizard's live preview. Render is pure: the same
// input always yields the same page.
package render

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"varanasihub.com/site/internal/domain"
	"varanasihub.com/site/internal/interact"
	"varanasihub.com/site/internal/media"
	"varanasihub.com/site/internal/seo"
)

// Confirmation labels used by the copy buttons.
const (
	LabelAddress = "address"
	LabelPhone   = "phone"
	LabelEmail   = "email"
)

const metaDescriptionLimit = 160

// State is the interaction state of one view.
type State struct {
	Lightbox  interact.Lightbox
	Reviews   interact.Pager
	Offers    interact.Pager
	Nav       interact.Toggle
	About     interact.Toggle
	Confirmed map[string]bool
}

// Input is everything Render needs.
type Input struct {
	Profile domain.BusinessProfile
	// Theme overrides the profile's theme when set.
	Theme        domain.Theme
	Media        media.Media
	Now          time.Time
	State        State
	ViewID       string
	Preview      bool
	CanonicalURL string
	MapsAPIKey   string
}

// Page is the complete view model for one rendered page.
type Page struct {
	ViewID   string
	Preview  bool
	Palette  Palette
	Sections []Section
	Visible  map[Section]bool

	Meta   seo.Meta
	JSONLD template.JS

	Nav         Nav
	Hero        Hero
	QuickInfo   QuickInfo
	About       About
	Services    []ServiceCard
	Offers      Offers
	Amenities   []FlagGroup
	Appointment Appointment
	Video       Video
	Gallery     Gallery
	Reviews     Reviews
	Contact     Contact
	Footer      Footer
	Lightbox    Lightbox
	Share       Share
}

// Nav is the top navigation bar.
type Nav struct {
	Name     string
	LogoURL  string
	Initial  string
	Tagline  string
	Expanded bool
	Links    []NavLink
}

// NavLink points at a visible section.
type NavLink struct {
	Label  string
	Anchor Section
}

// Hero is the top banner.
type Hero struct {
	Name        string
	Category    string
	Tagline     string
	LogoURL     string
	Initial     string
	ImageURL    string
	Placeholder bool
	OpenNow     bool
	HoursToday  string
	Address     string
	CallLink    string
}

// QuickInfo is the hours and location strip.
type QuickInfo struct {
	OpenNow       bool
	HoursToday    string
	Hours         []DayRow
	Address       string
	DirectionsURL string
	AddressCopied bool
}

// About is the description block.
type About struct {
	Name      string
	OwnerName string
	Category  string
	Teaser    string
	Full      template.HTML
	Truncated bool
	Expanded  bool
}

// ServiceCard is one service.
type ServiceCard struct {
	Index       int
	Title       string
	Description string
	Price       string
	ImageURL    string
	Featured    bool
}

// Offers is the current page of special offers.
type Offers struct {
	Items []OfferCard
	Pager PagerView
}

// OfferCard is one special offer.
type OfferCard struct {
	Title       string
	Description string
	HasExpiry   bool
	ExpiryLabel string
	DaysLeft    int
	Urgency     Urgency
}

// PagerView is the pagination control state.
type PagerView struct {
	Page       int
	Display    int
	TotalPages int
	HasPrev    bool
	HasNext    bool
}

// Appointment is the booking call to action.
type Appointment struct {
	Booking Booking
	Slots   []domain.Slot
}

// Video is the embedded YouTube player.
type Video struct {
	EmbedURL string
}

// Gallery lists every image thumbnail.
type Gallery struct {
	Items []GalleryItem
}

// GalleryItem is one thumbnail; it opens the lightbox at Index.
type GalleryItem struct {
	Index       int
	URL         string
	Alt         string
	Placeholder bool
}

// Reviews is the current page of Google reviews plus the summary card.
type Reviews struct {
	Average float64
	Count   int
	Stars   [5]Star
	Items   []ReviewCard
	Pager   PagerView
}

// ReviewCard is one review.
type ReviewCard struct {
	Author  string
	Initial string
	Rating  float64
	Stars   [5]Star
	Text    string
}

// Contact is the contact section.
type Contact struct {
	Phone         string
	TelLink       string
	WhatsAppLink  string
	Email         string
	Address       string
	MapURL        string
	DirectionsURL string
	PhoneCopied   bool
	EmailCopied   bool
	AddressCopied bool
}

// Footer mirrors contact details and social links.
type Footer struct {
	Name        string
	Description template.HTML
	Phone       string
	TelLink     string
	Email       string
	Address     string
	Website     string
	Instagram   string
	Facebook    string
	Year        int
}

// Lightbox is the overlay state.
type Lightbox struct {
	Open    bool
	Index   int
	Display int
	Count   int
	URL     string
	Alt     string
}

// Share is the share button state.
type Share struct {
	Title  string
	Text   string
	URL    string
	Copied bool
}

// Render maps in to a page.
func Render(in Input) Page {
	p := in.Profile
	theme := in.Theme
	if theme == "" {
		theme = p.Theme
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	page := Page{
		ViewID:   in.ViewID,
		Preview:  in.Preview,
		Palette:  PaletteFor(theme),
		Sections: Visible(p),
		Visible:  make(map[Section]bool, len(SectionOrder)),
	}
	for _, s := range page.Sections {
		page.Visible[s] = true
	}

	openNow := IsOpenNow(p.BusinessHours, now)
	hoursToday := TodaySummary(p.BusinessHours, now)
	name := strings.TrimSpace(p.BusinessName)
	initial := Initial(name)
	confirmed := in.State.Confirmed

	page.Nav = Nav{
		Name:     name,
		LogoURL:  in.Media.Logo,
		Initial:  initial,
		Tagline:  strings.TrimSpace(p.NavbarTagline),
		Expanded: in.State.Nav.Expanded(),
		Links:    navLinks(page.Visible),
	}

	primary := in.Media.Primary()
	page.Hero = Hero{
		Name:        name,
		Category:    strings.TrimSpace(p.Category),
		Tagline:     heroTagline(p),
		LogoURL:     in.Media.Logo,
		Initial:     initial,
		ImageURL:    primary,
		Placeholder: primary == "",
		OpenNow:     openNow,
		HoursToday:  hoursToday,
		Address:     strings.TrimSpace(p.Address),
		CallLink:    TelLink(p.MobileNumber),
	}

	page.QuickInfo = QuickInfo{
		OpenNow:       openNow,
		HoursToday:    hoursToday,
		Hours:         HoursTable(p.BusinessHours, now),
		Address:       strings.TrimSpace(p.Address),
		DirectionsURL: DirectionsURL(p.GoogleMapLink, p.Address),
		AddressCopied: confirmed[LabelAddress],
	}

	teaser, truncated := Truncate(p.Description, DescriptionLimit)
	page.About = About{
		Name:      name,
		OwnerName: strings.TrimSpace(p.OwnerName),
		Category:  strings.TrimSpace(p.Category),
		Teaser:    teaser,
		Full:      Markdown(p.Description),
		Truncated: truncated,
		Expanded:  truncated && in.State.About.Expanded(),
	}

	for i, svc := range p.Services {
		page.Services = append(page.Services, ServiceCard{
			Index:       i,
			Title:       strings.TrimSpace(svc.Title),
			Description: strings.TrimSpace(svc.Description),
			Price:       formatPrice(svc.Price),
			ImageURL:    in.Media.ServiceImage(i),
			Featured:    svc.Featured,
		})
	}

	page.Offers = renderOffers(p.SpecialOffers, in.State.Offers, now)
	page.Amenities = AmenityGroups(p.GooglePlacesData)

	if booking, ok := BookingLink(p); ok {
		page.Appointment = Appointment{Booking: booking, Slots: p.AppointmentSettings.AvailableSlots}
	}
	page.Video = Video{EmbedURL: YouTubeEmbedURL(p.YouTubeVideo)}

	for i := range p.Images {
		url := in.Media.Image(i)
		page.Gallery.Items = append(page.Gallery.Items, GalleryItem{
			Index:       i,
			URL:         url,
			Alt:         fmt.Sprintf("%s photo %d", name, i+1),
			Placeholder: url == "",
		})
	}

	page.Reviews = renderReviews(p.GooglePlacesData, in.State.Reviews)

	page.Contact = Contact{
		Phone:         strings.TrimSpace(p.MobileNumber),
		TelLink:       TelLink(p.MobileNumber),
		WhatsAppLink:  WhatsAppLink(p.WhatsAppNumber, ""),
		Email:         strings.TrimSpace(p.Email),
		Address:       strings.TrimSpace(p.Address),
		MapURL:        MapEmbedURL(p.GoogleMapLink, p.Address, in.MapsAPIKey),
		DirectionsURL: DirectionsURL(p.GoogleMapLink, p.Address),
		PhoneCopied:   confirmed[LabelPhone],
		EmailCopied:   confirmed[LabelEmail],
		AddressCopied: confirmed[LabelAddress],
	}

	footerText := p.FooterDescription
	if strings.TrimSpace(footerText) == "" {
		footerText = teaser
	}
	page.Footer = Footer{
		Name:        name,
		Description: Markdown(footerText),
		Phone:       page.Contact.Phone,
		TelLink:     page.Contact.TelLink,
		Email:       page.Contact.Email,
		Address:     page.Contact.Address,
		Website:     strings.TrimSpace(p.Website),
		Instagram:   SocialURL("https://instagram.com", p.Instagram),
		Facebook:    SocialURL("https://facebook.com", p.Facebook),
		Year:        now.Year(),
	}

	page.Lightbox = renderLightbox(in.State.Lightbox, page.Gallery)

	description := Excerpt(string(page.About.Full), metaDescriptionLimit)
	if description == "" {
		description = heroTagline(p)
	}
	page.Share = Share{
		Title:  name,
		Text:   description,
		URL:    in.CanonicalURL,
		Copied: confirmed[interact.ShareLabel],
	}
	page.Meta = seo.ForBusiness(name, description, in.CanonicalURL, absoluteURL(primary))
	page.JSONLD = template.JS(seo.JSON(seo.LocalBusiness(businessSchema(p, description, in.CanonicalURL, in.Media))))

	return page
}

func heroTagline(p domain.BusinessProfile) string {
	if tagline := strings.TrimSpace(p.NavbarTagline); tagline != "" {
		return tagline
	}
	if category := strings.TrimSpace(p.Category); category != "" {
		return "Your trusted " + strings.ToLower(category) + " in Varanasi"
	}
	return "Your trusted local business in Varanasi"
}

func formatPrice(price string) string {
	price = strings.TrimSpace(price)
	if price == "" {
		return ""
	}
	if strings.ContainsAny(price[:1], "0123456789") {
		return "₹" + price
	}
	return price
}

func navLinks(visible map[Section]bool) []NavLink {
	links := []NavLink{{Label: "About", Anchor: SectionAbout}}
	for _, l := range []NavLink{
		{Label: "Services", Anchor: SectionServices},
		{Label: "Offers", Anchor: SectionOffers},
		{Label: "Gallery", Anchor: SectionGallery},
		{Label: "Reviews", Anchor: SectionReviews},
		{Label: "Contact", Anchor: SectionContact},
	} {
		if visible[l.Anchor] {
			links = append(links, l)
		}
	}
	return links
}

func pagerView(p interact.Pager) PagerView {
	return PagerView{
		Page:       p.Page(),
		Display:    p.Page() + 1,
		TotalPages: p.TotalPages(),
		HasPrev:    p.HasPrev(),
		HasNext:    p.HasNext(),
	}
}

func renderOffers(offers []domain.SpecialOffer, pager interact.Pager, now time.Time) Offers {
	pager = ensurePager(pager, OffersPerPage, len(offers))
	out := Offers{Pager: pagerView(pager)}
	for _, o := range interact.Slice(pager, offers) {
		card := OfferCard{
			Title:       strings.TrimSpace(o.Title),
			Description: strings.TrimSpace(o.Description),
			Urgency:     UrgencyNormal,
		}
		if days, ok := DaysUntilExpiry(o.ExpiryDate, now); ok {
			card.HasExpiry = true
			card.DaysLeft = days
			card.Urgency = ClassifyExpiry(days)
			card.ExpiryLabel = expiryLabel(days)
		}
		out.Items = append(out.Items, card)
	}
	return out
}

func expiryLabel(days int) string {
	switch {
	case days <= 0:
		return "Expired"
	case days == 1:
		return "Ends tomorrow"
	default:
		return fmt.Sprintf("%d days left", days)
	}
}

func renderReviews(places *domain.PlacesData, pager interact.Pager) Reviews {
	var reviews []domain.Review
	if places != nil {
		reviews = places.Reviews
	}
	pager = ensurePager(pager, ReviewsPerPage, len(reviews))
	avg, count := AverageRating(places)
	out := Reviews{
		Average: avg,
		Count:   count,
		Stars:   Stars(avg),
		Pager:   pagerView(pager),
	}
	for _, r := range interact.Slice(pager, reviews) {
		author := strings.TrimSpace(r.Author)
		if author == "" {
			author = "Google user"
		}
		out.Items = append(out.Items, ReviewCard{
			Author:  author,
			Initial: Initial(author),
			Rating:  r.Rating,
			Stars:   Stars(r.Rating),
			Text:    strings.TrimSpace(r.Text),
		})
	}
	return out
}

// ensurePager applies the fixed page size while keeping the caller's page.
func ensurePager(p interact.Pager, size, count int) interact.Pager {
	out := interact.NewPager(size, count)
	out.Go(p.Page())
	return out
}

func renderLightbox(lb interact.Lightbox, gallery Gallery) Lightbox {
	lb.SetCount(len(gallery.Items))
	out := Lightbox{Count: len(gallery.Items)}
	if !lb.IsOpen() {
		return out
	}
	item := gallery.Items[lb.Index()]
	out.Open = true
	out.Index = lb.Index()
	out.Display = lb.Index() + 1
	out.URL = item.URL
	out.Alt = item.Alt
	return out
}

func absoluteURL(u string) string {
	if strings.HasPrefix(u, "https://") || strings.HasPrefix(u, "http://") {
		return u
	}
	return ""
}

var schemaDays = map[domain.Weekday]string{
	domain.Monday:    "Monday",
	domain.Tuesday:   "Tuesday",
	domain.Wednesday: "Wednesday",
	domain.Thursday:  "Thursday",
	domain.Friday:    "Friday",
	domain.Saturday:  "Saturday",
	domain.Sunday:    "Sunday",
}

func businessSchema(p domain.BusinessProfile, description, canonical string, m media.Media) seo.Business {
	b := seo.Business{
		Name:        strings.TrimSpace(p.BusinessName),
		Description: description,
		URL:         canonical,
		Logo:        absoluteURL(m.Logo),
		Image:       absoluteURL(m.Primary()),
		Telephone:   strings.TrimSpace(p.MobileNumber),
		Email:       strings.TrimSpace(p.Email),
		Address:     strings.TrimSpace(p.Address),
		MapURL:      strings.TrimSpace(p.GoogleMapLink),
	}
	for _, social := range []string{
		SocialURL("https://instagram.com", p.Instagram),
		SocialURL("https://facebook.com", p.Facebook),
		strings.TrimSpace(p.Website),
	} {
		if social != "" {
			b.SameAs = append(b.SameAs, social)
		}
	}
	for _, day := range domain.Weekdays {
		entry, _ := p.BusinessHours.Day(day)
		if _, _, ok := entry.Window(); ok {
			b.Hours = append(b.Hours, seo.OpeningHours{Day: schemaDays[day], Opens: entry.Start, Close: entry.End})
		}
	}
	avg, count := AverageRating(p.GooglePlacesData)
	b.Rating = seo.Rating{Value: avg, Count: count}
	return b
}
