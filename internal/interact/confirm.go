package interact

import "time"

// ConfirmationTTL is how long a "copied" confirmation stays visible.
const ConfirmationTTL = 2 * time.Second

// Confirmations tracks transient per-label confirmations so that several
// copyable fields can show feedback independently.
type Confirmations struct {
	until map[string]time.Time
	ttl   time.Duration
	now   func() time.Time
}

// NewConfirmations constructs a tracker. A nil clock uses time.Now.
func NewConfirmations(now func() time.Time) *Confirmations {
	if now == nil {
		now = time.Now
	}
	return &Confirmations{until: make(map[string]time.Time), ttl: ConfirmationTTL, now: now}
}

// Confirm shows the confirmation for label, restarting its timer.
func (c *Confirmations) Confirm(label string) {
	c.until[label] = c.now().Add(c.ttl)
}

// Active reports whether label's confirmation is still visible.
func (c *Confirmations) Active(label string) bool {
	until, ok := c.until[label]
	if !ok {
		return false
	}
	if !c.now().Before(until) {
		delete(c.until, label)
		return false
	}
	return true
}

// Remaining returns how long label stays visible, or zero.
func (c *Confirmations) Remaining(label string) time.Duration {
	if !c.Active(label) {
		return 0
	}
	return c.until[label].Sub(c.now())
}

// ActiveLabels returns the labels whose confirmation is visible.
func (c *Confirmations) ActiveLabels() map[string]bool {
	out := make(map[string]bool, len(c.until))
	for label := range c.until {
		if c.Active(label) {
			out[label] = true
		}
	}
	return out
}
