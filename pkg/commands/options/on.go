package options

import (
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/spreads/pkg/journal"
	"tableflip.dev/spreads/pkg/period"
)

const layoutISOShort = "1/2"

// OnOptions picks a period and date.
type OnOptions struct {
	Period string
	On     string
}

func AddOnArgs(cmd *cobra.Command, o *OnOptions, defaultPeriod period.Period) {
	cmd.Flags().StringVarP(&o.Period, "period", "p", string(defaultPeriod),
		"One of year, month or day.")
	cmd.Flags().StringVar(&o.On, "on", "",
		`Specify a date, example: --on="2026-02-28", --on="2026-02", --on="2/28".`)
}

// Slot resolves the flags against cal. An empty --on means today.
func (o *OnOptions) Slot(cal period.Calendar, today time.Time) (period.Period, time.Time, error) {
	p, err := period.Parse(o.Period)
	if err != nil {
		return "", time.Time{}, err
	}
	date, err := ParseOn(o.On, cal, today)
	if err != nil {
		return "", time.Time{}, err
	}
	return p, date, nil
}

// ParseOn reads an ISO date or a month/day in the current year. Empty means
// today.
func ParseOn(raw string, cal period.Calendar, today time.Time) (time.Time, error) {
	if raw == "" {
		return today, nil
	}
	t, err := period.ParseDate(raw, cal)
	if err == nil {
		return t, nil
	}
	short, serr := time.ParseInLocation(layoutISOShort, raw, today.Location())
	if serr != nil {
		return time.Time{}, err
	}
	// Let the year be the same.
	t = time.Date(today.Year(), short.Month(), short.Day(), 0, 0, 0, 0, today.Location())
	// I am gonna assume if you said 1/3 on 12/5, you meant next year, not 11 months ago.
	if t.Before(cal.StartOfDay(today)) {
		t = t.AddDate(1, 0, 0)
	}
	return t, nil
}

// ModeOptions selects how a spread is displayed.
type ModeOptions struct {
	Mode string
}

func AddModeArgs(cmd *cobra.Command, o *ModeOptions) {
	cmd.Flags().StringVar(&o.Mode, "mode", "",
		"conventional or traditional. Defaults to the configured mode.")
}

// Resolve returns the chosen mode or fallback.
func (o *ModeOptions) Resolve(fallback journal.Mode) (journal.Mode, error) {
	if o.Mode == "" {
		return fallback, nil
	}
	return journal.ParseMode(o.Mode)
}
