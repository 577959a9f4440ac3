package render

import "varanasihub.com/site/internal/domain"

// Palette is the fixed colour set applied across every section.
type Palette struct {
	Name     domain.Theme
	Gradient string
	Solid    string
	Hover    string
	Accent   string
}

var palettes = map[domain.Theme]Palette{
	domain.ThemeModern: {
		Name:     domain.ThemeModern,
		Gradient: "linear-gradient(135deg, #4f46e5 0%, #9333ea 100%)",
		Solid:    "#4f46e5",
		Hover:    "#4338ca",
		Accent:   "#f59e0b",
	},
	domain.ThemeClassic: {
		Name:     domain.ThemeClassic,
		Gradient: "linear-gradient(135deg, #92400e 0%, #b45309 100%)",
		Solid:    "#92400e",
		Hover:    "#78350f",
		Accent:   "#d97706",
	},
	domain.ThemeMinimal: {
		Name:     domain.ThemeMinimal,
		Gradient: "linear-gradient(135deg, #1f2937 0%, #4b5563 100%)",
		Solid:    "#1f2937",
		Hover:    "#111827",
		Accent:   "#10b981",
	},
}

// PaletteFor returns the palette for theme. Unknown and empty themes fall
// back to modern.
func PaletteFor(theme domain.Theme) Palette {
	if p, ok := palettes[theme]; ok {
		return p
	}
	return palettes[domain.ThemeModern]
}
