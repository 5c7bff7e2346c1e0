// Package spread defines journal pages bound to a period and the policy that
// decides which new spreads may be created.
package spread

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"tableflip.dev/spreads/pkg/period"
)

// Spread is a journal page. Year, month and day spreads are anchored on Date;
// multiday spreads cover [Start, End].
type Spread struct {
	ID      string        `json:"id"`
	Period  period.Period `json:"period"`
	Date    time.Time     `json:"date"`
	Start   time.Time     `json:"start"`
	End     time.Time     `json:"end"`
	Created time.Time     `json:"created"`
}

// New builds a year, month or day spread with a normalized date.
func New(p period.Period, date time.Time, cal period.Calendar, now time.Time) Spread {
	return Spread{
		ID:      uuid.NewString(),
		Period:  p,
		Date:    cal.Normalize(p, date),
		Created: now,
	}
}

// NewMultiday builds a multiday spread; both ends are normalized to midnight.
func NewMultiday(start, end time.Time, cal period.Calendar, now time.Time) Spread {
	s := cal.StartOfDay(start)
	return Spread{
		ID:      uuid.NewString(),
		Period:  period.Multiday,
		Date:    s,
		Start:   s,
		End:     cal.StartOfDay(end),
		Created: now,
	}
}

// Slot returns the (period, date) pair assignments point at.
func (s Spread) Slot() period.Slot {
	return period.Slot{Period: s.Period, Date: s.Date}
}

// Key identifies the spread in the coordinator index. Multiday keys include
// the range end.
func (s Spread) Key() string {
	if s.Period == period.Multiday {
		return s.Slot().Key() + ".." + s.End.Format("2006-01-02")
	}
	return s.Slot().Key()
}

// Contains reports whether date belongs to the spread.
func (s Spread) Contains(date time.Time, cal period.Calendar) bool {
	if s.Period == period.Multiday {
		return cal.InRange(s.Start, s.End, date)
	}
	return cal.Contains(s.Period, s.Date, date)
}

// Title is the human label for the spread.
func (s Spread) Title() string {
	if s.Period == period.Multiday {
		return fmt.Sprintf("%s – %s", s.Start.Format("Jan 2"), s.End.Format("Jan 2, 2006"))
	}
	return s.Slot().String()
}

// Before orders spreads: earliest date, then coarsest period, then creation.
func Before(a, b Spread) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	if a.Period.Rank() != b.Period.Rank() {
		return a.Period.Rank() > b.Period.Rank()
	}
	if !a.Created.Equal(b.Created) {
		return a.Created.Before(b.Created)
	}
	return a.ID < b.ID
}

// Bounds returns the first and last day the spread covers, inclusive.
func (s Spread) Bounds(cal period.Calendar) (time.Time, time.Time) {
	switch s.Period {
	case period.Multiday:
		return cal.StartOfDay(s.Start), cal.StartOfDay(s.End)
	case period.Year:
		first := cal.Normalize(period.Year, s.Date)
		return first, first.AddDate(1, 0, -1)
	case period.Month:
		first := cal.Normalize(period.Month, s.Date)
		return first, first.AddDate(0, 1, -1)
	}
	day := cal.StartOfDay(s.Date)
	return day, day
}

// Overlaps reports whether [start, end] shares a day with the spread.
func (s Spread) Overlaps(start, end time.Time, cal period.Calendar) bool {
	first, last := s.Bounds(cal)
	return !cal.StartOfDay(end).Before(first) && !cal.StartOfDay(start).After(last)
}
