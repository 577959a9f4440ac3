package seo

// OpenGraph holds the og:* tags.
type OpenGraph struct {
	Title       string
	Description string
	Image       string
	Type        string
	URL         string
}

// Twitter holds the twitter:* card tags.
type Twitter struct {
	Card  string
	Image string
}

// Meta is the head metadata for one page.
type Meta struct {
	Title       string
	Description string
	Canonical   string
	OG          OpenGraph
	Twitter     Twitter
}

// ForBusiness builds head metadata for a business page. image should be an
// absolute URL; relative and temporary URLs are left out.
func ForBusiness(name, description, canonical, image string) Meta {
	card := "summary"
	if image != "" {
		card = "summary_large_image"
	}
	return Meta{
		Title:       name,
		Description: description,
		Canonical:   canonical,
		OG: OpenGraph{
			Title:       name,
			Description: description,
			Image:       image,
			Type:        "business.business",
			URL:         canonical,
		},
		Twitter: Twitter{Card: card, Image: image},
	}
}
