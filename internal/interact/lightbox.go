// Package interact holds the state machines behind a rendered page's
// interactive widgets. Every type is a plain value; the owning view
// serialises access.
package interact

// Key names understood by the lightbox.
const (
	KeyEscape     = "Escape"
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowRight = "ArrowRight"
)

// Lightbox is either closed or open at an index in [0, count).
type Lightbox struct {
	open  bool
	index int
	count int
}

// NewLightbox returns a closed lightbox over count images.
func NewLightbox(count int) Lightbox {
	if count < 0 {
		count = 0
	}
	return Lightbox{count: count}
}

// IsOpen reports whether the lightbox is showing an image.
func (l Lightbox) IsOpen() bool { return l.open }

// Index returns the current image index, or -1 when closed.
func (l Lightbox) Index() int {
	if !l.open {
		return -1
	}
	return l.index
}

// Count returns the number of images.
func (l Lightbox) Count() int { return l.count }

// Open shows image i. It reports false and leaves the state unchanged when i
// is out of range.
func (l *Lightbox) Open(i int) bool {
	if i < 0 || i >= l.count {
		return false
	}
	l.open = true
	l.index = i
	return true
}

// Close hides the lightbox.
func (l *Lightbox) Close() {
	l.open = false
	l.index = 0
}

// Next advances with wraparound. No-op while closed.
func (l *Lightbox) Next() {
	if !l.open || l.count == 0 {
		return
	}
	l.index = (l.index + 1) % l.count
}

// Prev steps back with wraparound. No-op while closed.
func (l *Lightbox) Prev() {
	if !l.open || l.count == 0 {
		return
	}
	l.index = (l.index - 1 + l.count) % l.count
}

// Key applies a keyboard event and reports whether it was handled. Keys are
// ignored while closed.
func (l *Lightbox) Key(key string) bool {
	if !l.open {
		return false
	}
	switch key {
	case KeyEscape:
		l.Close()
	case KeyArrowLeft:
		l.Prev()
	case KeyArrowRight:
		l.Next()
	default:
		return false
	}
	return true
}

// SetCount updates the image count after a profile change, closing the
// lightbox if its index no longer exists.
func (l *Lightbox) SetCount(count int) {
	if count < 0 {
		count = 0
	}
	l.count = count
	if l.open && l.index >= count {
		l.Close()
	}
}
