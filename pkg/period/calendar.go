package period

import (
	"fmt"
	"strings"
	"time"
)

// Calendar carries the caller's week and time zone settings. The zero value
// is a Sunday-first calendar in the local zone.
type Calendar struct {
	FirstWeekday time.Weekday
	Location     *time.Location
}

// NewCalendar builds a calendar for the given first weekday and zone.
func NewCalendar(first time.Weekday, loc *time.Location) Calendar {
	return Calendar{FirstWeekday: first, Location: loc}
}

func (c Calendar) loc() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// Components returns the year, month and day of t in the calendar's zone.
func (c Calendar) Components(t time.Time) (int, time.Month, int) {
	return t.In(c.loc()).Date()
}

// StartOfDay truncates t to midnight.
func (c Calendar) StartOfDay(t time.Time) time.Time {
	y, m, d := c.Components(t)
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc())
}

// FirstDayOfWeek returns midnight of the first day of the week containing t.
func (c Calendar) FirstDayOfWeek(t time.Time) time.Time {
	day := c.StartOfDay(t)
	offset := (int(day.Weekday()) - int(c.FirstWeekday) + 7) % 7
	return day.AddDate(0, 0, -offset)
}

// Normalize maps t to the canonical date of a spread of period p. Multiday
// normalizes like a day; range ends are normalized independently.
func (c Calendar) Normalize(p Period, t time.Time) time.Time {
	y, m, d := c.Components(t)
	switch p {
	case Year:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, c.loc())
	case Month:
		return time.Date(y, m, 1, 0, 0, 0, 0, c.loc())
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, c.loc())
	}
}

// Contains reports whether t falls in the period p anchored at anchor.
// Multiday is handled by InRange.
func (c Calendar) Contains(p Period, anchor, t time.Time) bool {
	ay, am, ad := c.Components(anchor)
	ty, tm, td := c.Components(t)
	switch p {
	case Year:
		return ay == ty
	case Month:
		return ay == ty && am == tm
	case Day:
		return ay == ty && am == tm && ad == td
	}
	return false
}

// InRange reports whether the day of t lies within [start, end] inclusive.
func (c Calendar) InRange(start, end, t time.Time) bool {
	day := c.StartOfDay(t)
	return !day.Before(c.StartOfDay(start)) && !day.After(c.StartOfDay(end))
}

// ParseWeekday accepts weekday names ("monday", "mon") and numbers (0 = Sunday).
func ParseWeekday(raw string) (time.Weekday, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return time.Sunday, nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if v == name || v == name[:3] {
			return d, nil
		}
	}
	if len(v) == 1 && v[0] >= '0' && v[0] <= '6' {
		return time.Weekday(v[0] - '0'), nil
	}
	return time.Sunday, fmt.Errorf("period: unknown weekday %q", raw)
}
