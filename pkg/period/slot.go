package period

import (
	"fmt"
	"strings"
	"time"
)

const layoutISO = "2006-01-02"

// Slot is a normalized (period, date) pair: the place an assignment points at.
type Slot struct {
	Period Period
	Date   time.Time
}

// NewSlot normalizes date for p.
func NewSlot(p Period, date time.Time, cal Calendar) Slot {
	return Slot{Period: p, Date: cal.Normalize(p, date)}
}

// Matches reports whether the slot has the same period and calendar day.
func (s Slot) Matches(p Period, date time.Time) bool {
	return s.Period == p && sameDay(s.Date, date)
}

// Equal compares two slots.
func (s Slot) Equal(o Slot) bool {
	return s.Matches(o.Period, o.Date)
}

// Key is a stable map key for the slot.
func (s Slot) Key() string {
	return string(s.Period) + ":" + s.Date.Format(layoutISO)
}

func (s Slot) String() string {
	switch s.Period {
	case Year:
		return s.Date.Format("2006")
	case Month:
		return s.Date.Format("January 2006")
	default:
		return s.Date.Format("January 2, 2006")
	}
}

// ParseSlot reads "day:2026-02-05", "month:2026-02" or "year:2026".
func ParseSlot(raw string, cal Calendar) (Slot, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return Slot{}, fmt.Errorf("period: slot %q must look like day:2006-01-02", raw)
	}
	p, err := Parse(parts[0])
	if err != nil {
		return Slot{}, err
	}
	date, err := ParseDate(parts[1], cal)
	if err != nil {
		return Slot{}, err
	}
	return NewSlot(p, date, cal), nil
}

// ParseDate reads a full, month-only or year-only ISO date in the calendar's zone.
func ParseDate(raw string, cal Calendar) (time.Time, error) {
	v := strings.TrimSpace(raw)
	for _, layout := range []string{layoutISO, "2006-01", "2006"} {
		if t, err := time.ParseInLocation(layout, v, cal.loc()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("period: cannot parse date %q", raw)
}

func sameDay(a, b time.Time) bool {
	return a.Format(layoutISO) == b.Format(layoutISO)
}
