package commands

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/spreads/pkg/commands/options"
	"tableflip.dev/spreads/pkg/journal"
	"tableflip.dev/spreads/pkg/period"
	"tableflip.dev/spreads/pkg/printers"
	"tableflip.dev/spreads/pkg/spread"
)

func addSpread(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "spread",
		Aliases: []string{"spreads"},
		Short:   "Manage year, month, day and multiday spreads.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	addSpreadAdd(cmd)
	addSpreadList(cmd)
	addSpreadShow(cmd)
	addSpreadDelete(cmd)

	topLevel.AddCommand(cmd)
}

func addSpreadAdd(parent *cobra.Command) {
	var start, end string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "add <year|month|day|multiday> [date]",
		Short: "Create a spread.",
		Example: `
spreads spread add month 2026-02
spreads spread add day
spreads spread add multiday --start 2026-02-09 --end 2026-02-15
`,
		Args: cobra.RangeArgs(1, 2),
		ValidArgs: []string{
			string(period.Year), string(period.Month), string(period.Day), string(period.Multiday),
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			a, err := open(cmd)
			if err != nil {
				return output.HandleError(err)
			}
			defer a.Close()

			p, err := period.Parse(args[0])
			if err != nil {
				return output.HandleError(err)
			}
			j := a.Journal
			today := j.Today()

			var sp spread.Spread
			if p == period.Multiday {
				if start == "" || end == "" {
					return output.HandleError(errors.New("multiday spreads need --start and --end"))
				}
				s, err := options.ParseOn(start, j.Calendar(), today)
				if err != nil {
					return output.HandleError(err)
				}
				e, err := options.ParseOn(end, j.Calendar(), today)
				if err != nil {
					return output.HandleError(err)
				}
				if dryRun {
					return printVerdict(j.CheckMultiday(s, e))
				}
				sp, err = j.AddMultidaySpread(cmd.Context(), s, e)
				if err != nil {
					return output.HandleError(err)
				}
			} else {
				on := ""
				if len(args) > 1 {
					on = args[1]
				}
				date, err := options.ParseOn(on, j.Calendar(), today)
				if err != nil {
					return output.HandleError(err)
				}
				if dryRun {
					return printVerdict(j.CheckSpread(p, date))
				}
				sp, err = j.AddSpread(cmd.Context(), p, date)
				if err != nil {
					return output.HandleError(err)
				}
			}

			if output.JSON {
				return output.Print(sp)
			}
			pp := printers.PrettyPrint{ShowID: true}
			pp.Spreads(sp)
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "First day of a multiday spread.")
	cmd.Flags().StringVar(&end, "end", "", "Last day of a multiday spread.")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only report whether the spread could be created.")

	parent.AddCommand(cmd)
}

func addSpreadList(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List spreads in chronological order.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			a, err := open(cmd)
			if err != nil {
				return output.HandleError(err)
			}
			defer a.Close()

			spreads := a.Journal.Spreads()
			if output.JSON {
				return output.Print(spreads)
			}
			pp := printers.PrettyPrint{ShowID: true}
			pp.Spreads(spreads...)
			return nil
		},
	}

	parent.AddCommand(cmd)
}

func addSpreadShow(parent *cobra.Command) {
	io := &options.IDOptions{}
	mo := &options.ModeOptions{}

	cmd := &cobra.Command{
		Use:   "show [spread id | period:date]",
		Short: "Show the entries and events on a spread.",
		Example: `
spreads spread show month:2026-02
spreads spread show day:2026-02-05 --mode traditional
spreads spread show <spread id>
`,
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return spreadCompletions(cmd, toComplete), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			a, err := open(cmd)
			if err != nil {
				return output.HandleError(err)
			}
			defer a.Close()
			j := a.Journal

			ref := ""
			if len(args) > 0 {
				ref = args[0]
			}
			sp, err := resolveSpread(j, ref)
			if err != nil {
				return output.HandleError(err)
			}
			mode, err := mo.Resolve(j.Mode())
			if err != nil {
				return output.HandleError(err)
			}
			view, err := j.EntriesIn(sp.ID, mode)
			if err != nil {
				return output.HandleError(err)
			}

			if output.JSON {
				return output.Print(view)
			}
			pp := printers.PrettyPrint{ShowID: io.ShowID}
			if sp.Period == period.Month {
				pp.Month(sp.Date, j.Calendar(), dayCounts(j, sp.Date), j.Today())
			}
			pp.View(view)
			return nil
		},
	}

	options.AddShowIDArgs(cmd, io)
	options.AddModeArgs(cmd, mo)

	parent.AddCommand(cmd)
}

func addSpreadDelete(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "delete <spread id | period:date>",
		Aliases: []string{"rm"},
		Short:   "Delete a spread. Its entries move to the parent spread or the inbox.",
		Args:    cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return spreadCompletions(cmd, toComplete), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			a, err := open(cmd)
			if err != nil {
				return output.HandleError(err)
			}
			defer a.Close()

			sp, err := resolveSpread(a.Journal, args[0])
			if err != nil {
				return output.HandleError(err)
			}
			if err := a.Journal.DeleteSpread(cmd.Context(), sp.ID); err != nil {
				return output.HandleError(err)
			}
			if output.JSON {
				return output.Print(map[string]string{"deleted": sp.ID})
			}
			fmt.Printf("deleted %s\n", sp.Title())
			return nil
		},
	}

	parent.AddCommand(cmd)
}

func printVerdict(v spread.Verdict) error {
	if output.JSON {
		return output.Print(map[string]any{"allowed": v == spread.Allowed, "verdict": v.String()})
	}
	fmt.Println(v)
	return nil
}

// resolveSpread accepts a spread id or a period:date slot. Empty means
// today's most specific spread.
func resolveSpread(j *journal.Journal, ref string) (spread.Spread, error) {
	if ref == "" {
		sp, ok := j.BestSpread(period.NewSlot(period.Day, j.Today(), j.Calendar()))
		if !ok {
			return spread.Spread{}, fmt.Errorf("%w: no spread covers today", journal.ErrNotFound)
		}
		return sp, nil
	}
	if strings.Contains(ref, ":") {
		slot, err := period.ParseSlot(ref, j.Calendar())
		if err != nil {
			return spread.Spread{}, err
		}
		sp, ok := j.SpreadAt(slot)
		if !ok {
			return spread.Spread{}, fmt.Errorf("%w: spread %s", journal.ErrNotFound, slot.Key())
		}
		return sp, nil
	}
	return j.Spread(ref)
}

// dayCounts counts entries preferring each day of month.
func dayCounts(j *journal.Journal, month time.Time) []int {
	cal := j.Calendar()
	first := cal.Normalize(period.Month, month)
	count := make([]int, printers.DaysIn(first))
	tally := func(p period.Period, date time.Time) {
		if p != period.Day || !cal.Contains(period.Month, first, date) {
			return
		}
		_, _, d := cal.Components(date)
		count[d-1]++
	}
	for _, t := range j.Tasks() {
		tally(t.Period, t.Date)
	}
	for _, n := range j.Notes() {
		tally(n.Period, n.Date)
	}
	return count
}

func spreadCompletions(cmd *cobra.Command, toComplete string) []string {
	a, err := open(cmd)
	if err != nil {
		return nil
	}
	defer a.Close()
	var out []string
	for _, sp := range a.Journal.Spreads() {
		key := sp.Slot().Key()
		if sp.Period == period.Multiday {
			key = sp.ID
		}
		if strings.HasPrefix(key, toComplete) {
			out = append(out, key)
		}
	}
	return out
}
