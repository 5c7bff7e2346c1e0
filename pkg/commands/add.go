package commands

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/spreads/pkg/commands/options"
	"tableflip.dev/spreads/pkg/entry"
	"tableflip.dev/spreads/pkg/period"
	"tableflip.dev/spreads/pkg/printers"
)

func addAdd(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a task, note or event.",
		Example: `
spreads add task call the plumber
spreads add note --period month --on 2026-03 ideas for the garden
spreads add event --start 2026-02-09 --end 2026-02-11 offsite
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	addTask(cmd)
	addNote(cmd)
	addEvent(cmd)

	topLevel.AddCommand(cmd)
}

func requireTitle(args []string) (string, error) {
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		return "", errors.New("requires a title")
	}
	return title, nil
}

func addTask(parent *cobra.Command) {
	oo := &options.OnOptions{}

	cmd := &cobra.Command{
		Use:     "task <title>",
		Aliases: []string{"todo"},
		Short:   "Add a task for a year, month or day.",
		Example: `
spreads add task water the plants
spreads add task --on 2/28 file taxes
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			title, err := requireTitle(args)
			if err != nil {
				return output.HandleError(err)
			}
			a, err := open(cmd)
			if err != nil {
				return output.HandleError(err)
			}
			defer a.Close()
			j := a.Journal

			p, date, err := oo.Slot(j.Calendar(), j.Today())
			if err != nil {
				return output.HandleError(err)
			}
			t, err := j.AddTask(cmd.Context(), title, p, date)
			if err != nil {
				return output.HandleError(err)
			}
			if output.JSON {
				return output.Print(t)
			}
			pp := printers.PrettyPrint{ShowID: true}
			pp.Entries(placement(a.Journal, entry.FromTask(t)), entry.FromTask(t))
			return nil
		},
	}

	options.AddOnArgs(cmd, oo, period.Day)

	parent.AddCommand(cmd)
}

func addNote(parent *cobra.Command) {
	oo := &options.OnOptions{}
	var body string

	cmd := &cobra.Command{
		Use:   "note <title>",
		Short: "Add a note for a year, month or day.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			title, err := requireTitle(args)
			if err != nil {
				return output.HandleError(err)
			}
			a, err := open(cmd)
			if err != nil {
				return output.HandleError(err)
			}
			defer a.Close()
			j := a.Journal

			p, date, err := oo.Slot(j.Calendar(), j.Today())
			if err != nil {
				return output.HandleError(err)
			}
			n, err := j.AddNote(cmd.Context(), title, body, p, date)
			if err != nil {
				return output.HandleError(err)
			}
			if output.JSON {
				return output.Print(n)
			}
			pp := printers.PrettyPrint{ShowID: true}
			pp.Entries(placement(a.Journal, entry.FromNote(n)), entry.FromNote(n))
			return nil
		},
	}

	options.AddOnArgs(cmd, oo, period.Day)
	cmd.Flags().StringVar(&body, "body", "", "Longer text for the note.")

	parent.AddCommand(cmd)
}

func addEvent(parent *cobra.Command) {
	var start, end string

	cmd := &cobra.Command{
		Use:   "event <title>",
		Short: "Add an event. Events show on every spread their dates touch.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			title, err := requireTitle(args)
			if err != nil {
				return output.HandleError(err)
			}
			a, err := open(cmd)
			if err != nil {
				return output.HandleError(err)
			}
			defer a.Close()
			j := a.Journal

			s, err := options.ParseOn(start, j.Calendar(), j.Today())
			if err != nil {
				return output.HandleError(err)
			}
			e := s
			if end != "" {
				if e, err = options.ParseOn(end, j.Calendar(), j.Today()); err != nil {
					return output.HandleError(err)
				}
			}
			ev, err := j.AddEvent(cmd.Context(), title, s, e)
			if err != nil {
				return output.HandleError(err)
			}
			if output.JSON {
				return output.Print(ev)
			}
			pp := printers.PrettyPrint{ShowID: true}
			pp.Events("Event", ev)
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "First day of the event. Defaults to today.")
	cmd.Flags().StringVar(&end, "end", "", "Last day of the event. Defaults to the start.")

	parent.AddCommand(cmd)
}
