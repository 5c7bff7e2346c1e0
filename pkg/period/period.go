// Package period maps dates onto the journal's time hierarchy
// (year ⊇ month ⊇ day, plus multiday ranges) and normalizes them into
// canonical spread dates.
package period

import (
	"fmt"
	"strings"
)

// Period identifies the granularity of a spread.
type Period string

const (
	// Year spreads are anchored on January 1.
	Year Period = "year"
	// Month spreads are anchored on the first of the month.
	Month Period = "month"
	// Day spreads are anchored on midnight.
	Day Period = "day"
	// Multiday spreads cover an inclusive range of days. They never take
	// direct assignments.
	Multiday Period = "multiday"
)

// All returns every period, coarsest first.
func All() []Period {
	return []Period{Year, Month, Day, Multiday}
}

// Parse converts user input into a Period.
func Parse(raw string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(raw)))
	switch p {
	case Year, Month, Day, Multiday:
		return p, nil
	case "":
		return Day, nil
	}
	return "", fmt.Errorf("period: unknown period %q", raw)
}

// Valid reports whether p is one of the known periods.
func (p Period) Valid() bool {
	switch p {
	case Year, Month, Day, Multiday:
		return true
	}
	return false
}

// Assignable reports whether entries may be assigned directly to spreads of
// this period.
func (p Period) Assignable() bool {
	return p == Year || p == Month || p == Day
}

// Ancestor returns the next coarser period. Year has none.
func (p Period) Ancestor() (Period, bool) {
	switch p {
	case Day, Multiday:
		return Month, true
	case Month:
		return Year, true
	}
	return "", false
}

// Rank orders periods by coarseness; a larger rank contains a smaller one.
// Multiday shares the day rank since it is a leaf.
func (p Period) Rank() int {
	switch p {
	case Year:
		return 3
	case Month:
		return 2
	case Day, Multiday:
		return 1
	}
	return 0
}

// Chain returns p followed by each of its ancestors, finest first. Multiday
// resolves as a day.
func (p Period) Chain() []Period {
	if p == Multiday {
		p = Day
	}
	chain := []Period{p}
	for {
		next, ok := p.Ancestor()
		if !ok {
			return chain
		}
		chain = append(chain, next)
		p = next
	}
}

func (p Period) String() string {
	return string(p)
}
