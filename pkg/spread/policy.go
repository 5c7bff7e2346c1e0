package spread

import (
	"time"

	"tableflip.dev/spreads/pkg/period"
)

// Verdict is the outcome of a creation check. Callers use it to disable
// controls or explain a refusal.
type Verdict int

const (
	// Allowed means the spread may be created.
	Allowed Verdict = iota
	// Duplicate means a spread already exists for the same slot or range.
	Duplicate
	// PastDate means the spread lies before today at its own granularity.
	PastDate
	// InvalidRange means a multiday range ends before it starts.
	InvalidRange
	// Unassignable means the period is not a known spread period.
	Unassignable
)

func (v Verdict) String() string {
	switch v {
	case Allowed:
		return "allowed"
	case Duplicate:
		return "a spread already exists for that date"
	case PastDate:
		return "spreads cannot be created in the past"
	case InvalidRange:
		return "range ends before it starts"
	case Unassignable:
		return "unknown spread period"
	}
	return "unknown"
}

// Check evaluates a year, month or day spread request.
func Check(p period.Period, date time.Time, existing []Spread, today time.Time, cal period.Calendar) Verdict {
	if !p.Assignable() {
		return Unassignable
	}
	target := cal.Normalize(p, date)
	for _, s := range existing {
		if s.Period == p && s.Date.Equal(target) {
			return Duplicate
		}
	}
	if target.Before(cal.Normalize(p, today)) {
		return PastDate
	}
	return Allowed
}

// CheckMultiday evaluates a multiday request. The end must be today or later;
// the start may be in the past only within the current week.
func CheckMultiday(start, end time.Time, existing []Spread, today time.Time, cal period.Calendar) Verdict {
	s, e := cal.StartOfDay(start), cal.StartOfDay(end)
	if e.Before(s) {
		return InvalidRange
	}
	for _, sp := range existing {
		if sp.Period == period.Multiday && sp.Start.Equal(s) && sp.End.Equal(e) {
			return Duplicate
		}
	}
	day := cal.StartOfDay(today)
	if e.Before(day) {
		return PastDate
	}
	if s.Before(day) && s.Before(cal.FirstDayOfWeek(today)) {
		return PastDate
	}
	return Allowed
}

// CanCreate is the boolean form of Check.
func CanCreate(p period.Period, date time.Time, existing []Spread, today time.Time, cal period.Calendar) bool {
	return Check(p, date, existing, today, cal) == Allowed
}

// CanCreateMultiday is the boolean form of CheckMultiday.
func CanCreateMultiday(start, end time.Time, existing []Spread, today time.Time, cal period.Calendar) bool {
	return CheckMultiday(start, end, existing, today, cal) == Allowed
}

// CanCreateEntry reports whether a new entry may be dated at (p, date):
// present and future only, compared at the period's granularity.
func CanCreateEntry(p period.Period, date time.Time, today time.Time, cal period.Calendar) bool {
	if !p.Assignable() {
		return false
	}
	return !cal.Normalize(p, date).Before(cal.Normalize(p, today))
}
