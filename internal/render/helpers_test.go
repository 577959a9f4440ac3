package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"varanasihub.com/site/internal/domain"
)

func TestBookingLink(t *testing.T) {
	p := domain.BusinessProfile{
		BusinessName:        "Kashi Sweets",
		WhatsAppNumber:      "+91 98765-43210",
		MobileNumber:        "0542 222 333",
		AppointmentSettings: domain.AppointmentSettings{ContactMethod: domain.ContactWhatsApp},
	}
	b, ok := BookingLink(p)
	require.True(t, ok)
	require.Equal(t, domain.ContactWhatsApp, b.Method)
	require.True(t, strings.HasPrefix(b.Link, "https://wa.me/919876543210?text="))
	require.Contains(t, b.Link, "Kashi+Sweets")

	p.AppointmentSettings.ContactMethod = domain.ContactCall
	b, _ = BookingLink(p)
	require.Equal(t, "tel:0542222333", b.Link)

	p.MobileNumber = ""
	b, ok = BookingLink(p)
	require.True(t, ok)
	require.Equal(t, domain.ContactWhatsApp, b.Method, "call falls back to whatsapp")

	p.AppointmentSettings.ContactMethod = domain.ContactWhatsApp
	p.WhatsAppNumber = ""
	p.MobileNumber = "+91 99999 00000"
	b, _ = BookingLink(p)
	require.Equal(t, "tel:+919999900000", b.Link)

	p.AppointmentSettings.ContactMethod = ""
	_, ok = BookingLink(p)
	require.False(t, ok)
}

func TestMapEmbedURL(t *testing.T) {
	link := "https://www.google.com/maps/place/?q=place_id:ChIJ2eUgeAK6j4ARbn5u_wAGqWA"
	require.Equal(t,
		"https://maps.google.com/maps?q=place_id%3AChIJ2eUgeAK6j4ARbn5u_wAGqWA&output=embed",
		MapEmbedURL(link, "12 Ghat Road", ""))
	require.Equal(t,
		"https://www.google.com/maps/embed/v1/place?key=k&q=12+Ghat+Road",
		MapEmbedURL("https://maps.app.goo.gl/abc", "12 Ghat Road", "k"))
	require.Empty(t, MapEmbedURL("", " ", ""))

	id, ok := PlaceID("https://www.google.com/maps/search/?api=1&query=x&query_place_id=ChIJabc_123")
	require.True(t, ok)
	require.Equal(t, "ChIJabc_123", id)
}

func TestAmenityLabels(t *testing.T) {
	groups := AmenityGroups(&domain.PlacesData{
		Attributes:     map[string]bool{"wifi": true, "wheelchairAccessibleEntrance": true, "madeUp": true},
		PaymentOptions: map[string]bool{"acceptsCreditCards": true, "acceptsUpi": true},
		ParkingOptions: map[string]bool{"freeStreetParking": false},
	})
	require.Len(t, groups, 2)
	require.Equal(t, []string{"Wheelchair Accessible Entrance", "Wi-Fi"}, groups[0].Labels)
	require.Equal(t, []string{"Credit Cards", "UPI"}, groups[1].Labels)
	require.Nil(t, AmenityGroups(nil))
}

func TestMarkdownIsSanitised(t *testing.T) {
	out := string(Markdown("**Fresh** sweets <script>alert(1)</script> at https://kashi.test"))
	require.Contains(t, out, "<strong>Fresh</strong>")
	require.NotContains(t, out, "<script>")
	require.Contains(t, out, `href="https://kashi.test"`)
	require.Contains(t, out, `rel="nofollow`)

	require.Equal(t, "Fresh sweets daily", Excerpt("<p>Fresh <em>sweets</em></p>\n<p>daily</p>", 160))
	require.Equal(t, "ab...", Excerpt("<p>abc</p>", 2))
}

func TestTruncateCountsRunes(t *testing.T) {
	s := strings.Repeat("é", 301)
	out, truncated := Truncate(s, 300)
	require.True(t, truncated)
	require.Equal(t, 303, len([]rune(out)))

	out, truncated = Truncate(strings.Repeat("é", 300), 300)
	require.False(t, truncated)
	require.Len(t, []rune(out), 300)
}

func TestStars(t *testing.T) {
	require.Equal(t, [5]Star{StarFull, StarFull, StarFull, StarFull, StarHalf}, Stars(4.5))
	require.Equal(t, [5]Star{StarFull, StarFull, StarFull, StarEmpty, StarEmpty}, Stars(3.2))
	require.Equal(t, [5]Star{StarEmpty, StarEmpty, StarEmpty, StarEmpty, StarEmpty}, Stars(-1))
	require.Equal(t, [5]Star{StarFull, StarFull, StarFull, StarFull, StarFull}, Stars(7))
}

func TestInitial(t *testing.T) {
	require.Equal(t, "K", Initial("kashi Sweets"))
	require.Equal(t, "", Initial("  "))
}
