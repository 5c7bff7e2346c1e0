// Package change tracks per-field modifications of synchronized records and
// resolves concurrent edits with last-writer-wins.
package change

import (
	"strings"
	"sync"
	"time"
)

// Stamp orders writes. At is wall time; Counter breaks ties between writes
// in the same instant; Device breaks ties between devices.
type Stamp struct {
	At      time.Time `json:"at"`
	Counter uint32    `json:"n,omitempty"`
	Device  string    `json:"device"`
}

// Compare returns -1, 0 or +1.
func (s Stamp) Compare(o Stamp) int {
	switch {
	case s.At.Before(o.At):
		return -1
	case s.At.After(o.At):
		return 1
	case s.Counter < o.Counter:
		return -1
	case s.Counter > o.Counter:
		return 1
	}
	return strings.Compare(s.Device, o.Device)
}

// After reports whether s orders strictly after o.
func (s Stamp) After(o Stamp) bool {
	return s.Compare(o) > 0
}

// IsZero reports whether the stamp was never set.
func (s Stamp) IsZero() bool {
	return s.At.IsZero() && s.Counter == 0 && s.Device == ""
}

// Clock is a hybrid logical clock. Stamps it issues never go backwards, even
// when the wall clock does, and always order after every stamp it has
// observed from other devices.
type Clock struct {
	mu     sync.Mutex
	device string
	now    func() time.Time
	last   Stamp
}

// NewClock returns a clock for device. A nil now uses time.Now.
func NewClock(device string, now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{device: device, now: now}
}

// Device is the identifier written into every stamp.
func (c *Clock) Device() string {
	return c.device
}

// Now issues a new stamp.
func (c *Clock) Now() Stamp {
	c.mu.Lock()
	defer c.mu.Unlock()
	wall := c.now().UTC().Truncate(time.Millisecond)
	next := Stamp{At: wall, Device: c.device}
	if !wall.After(c.last.At) {
		next.At = c.last.At
		next.Counter = c.last.Counter + 1
	}
	c.last = next
	return next
}

// Observe folds a remote stamp into the clock.
func (c *Clock) Observe(s Stamp) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.At.After(c.last.At) || (s.At.Equal(c.last.At) && s.Counter > c.last.Counter) {
		c.last = Stamp{At: s.At, Counter: s.Counter, Device: c.device}
	}
}
