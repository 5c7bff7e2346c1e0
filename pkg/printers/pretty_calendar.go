package printers

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"tableflip.dev/spreads/pkg/period"
)

const width = len("11 12 13 14 15 16 17") // an example week

// Month prints a month grid starting on the calendar's first weekday. Days
// with a count above zero are bold; today is underlined.
func (pp *PrettyPrint) Month(month time.Time, cal period.Calendar, count []int, today time.Time) {
	first := cal.Normalize(period.Month, month)

	tf := color.New(color.FgWhite, color.Italic)
	m := first.Format("January 2006")
	mid := (width - len(m)) / 2
	if mid < 0 {
		mid = 0
	}
	_, _ = tf.Fprintf(pp.out(), "%s%s\n", strings.Repeat(" ", mid), m)

	head := color.New(color.Faint)
	for i := 0; i < 7; i++ {
		d := time.Weekday((int(cal.FirstWeekday) + i) % 7)
		_, _ = head.Fprintf(pp.out(), "%2s ", d.String()[:2])
	}
	_, _ = fmt.Fprintln(pp.out())

	// Pad out the start of the month.
	lead := (int(first.Weekday()) - int(cal.FirstWeekday) + 7) % 7
	_, _ = fmt.Fprint(pp.out(), strings.Repeat("   ", lead))

	l1 := color.New(color.Faint, color.FgWhite)
	l2 := color.New(color.Bold, color.FgHiWhite)
	days := DaysIn(first)
	col := lead
	for i := 0; i < days; i++ {
		printer := l1
		if i < len(count) && count[i] > 0 {
			printer = l2
		}
		day := first.AddDate(0, 0, i)
		if sameDate(day, today) {
			printer = color.New(color.Bold, color.Underline)
		}
		_, _ = printer.Fprintf(pp.out(), "%2d ", i+1)

		col++
		if col == 7 {
			col = 0
			_, _ = fmt.Fprintln(pp.out())
		}
	}
	_, _ = fmt.Fprint(pp.out(), "\n\n")
}

// DaysIn is the number of days in then's month.
func DaysIn(then time.Time) int {
	return time.Date(then.Year(), then.Month()+1, 0, 0, 0, 0, 0, then.Location()).Day()
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
