package interact

// Toggle is a two-state collapsed/expanded switch used by the mobile nav and
// the about section's read-more.
type Toggle struct {
	expanded bool
}

// Expanded reports the current state.
func (t Toggle) Expanded() bool { return t.expanded }

// Toggle flips the state.
func (t *Toggle) Toggle() { t.expanded = !t.expanded }

// Expand opens the toggle.
func (t *Toggle) Expand() { t.expanded = true }

// Collapse closes the toggle.
func (t *Toggle) Collapse() { t.expanded = false }

// LinkClicked collapses the mobile nav after navigation.
func (t *Toggle) LinkClicked() { t.expanded = false }
