package commands

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/spreads/pkg/commands/options"
	"tableflip.dev/spreads/pkg/entry"
	"tableflip.dev/spreads/pkg/journal"
	"tableflip.dev/spreads/pkg/period"
	"tableflip.dev/spreads/pkg/printers"
)

// placement names the spread an entry is open on, or the inbox.
func placement(j *journal.Journal, e entry.Entry) string {
	slot, err := j.CurrentSlot(e.ID())
	if err != nil {
		return "Inbox"
	}
	if sp, ok := j.SpreadAt(slot); ok {
		return sp.Title()
	}
	return slot.String()
}

func addEdit(topLevel *cobra.Command) {
	var title string
	oo := &options.OnOptions{}

	cmd := &cobra.Command{
		Use:   "edit <entry id>",
		Short: "Change the title or preferred date of a task or note.",
		Example: `
spreads edit <entry id> --title "call the electrician"
spreads edit <entry id> --period month --on 2026-03
`,
		Args: cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return entryCompletions(cmd, toComplete), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			a, err := open(cmd)
			if err != nil {
				return output.HandleError(err)
			}
			defer a.Close()
			j := a.Journal

			var edit journal.Edit
			if cmd.Flags().Changed("title") {
				edit.Title = &title
			}
			if cmd.Flags().Changed("period") || cmd.Flags().Changed("on") {
				current, err := j.Entry(args[0])
				if err != nil {
					return output.HandleError(err)
				}
				slot := current.Slot()
				if !cmd.Flags().Changed("period") {
					oo.Period = string(slot.Period)
				}
				if !cmd.Flags().Changed("on") {
					oo.On = slot.Date.Format("2006-01-02")
				}
				p, date, err := oo.Slot(j.Calendar(), j.Today())
				if err != nil {
					return output.HandleError(err)
				}
				edit.Period = &p
				edit.Date = &date
			}

			e, err := j.EditEntry(cmd.Context(), args[0], edit)
			if err != nil {
				return output.HandleError(err)
			}
			return printEntry(j, e)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title.")
	options.AddOnArgs(cmd, oo, period.Day)

	topLevel.AddCommand(cmd)
}

func printEntry(j *journal.Journal, e entry.Entry) error {
	if output.JSON {
		if e.Kind == entry.KindTask {
			return output.Print(e.Task)
		}
		return output.Print(e.Note)
	}
	pp := printers.PrettyPrint{ShowID: true}
	pp.Entries(placement(j, e), e)
	return nil
}

type statusFunc func(j *journal.Journal, ctx context.Context, id string) (*entry.Task, error)

func addStatus(topLevel *cobra.Command) {
	for _, s := range []struct {
		use     string
		aliases []string
		short   string
		do      statusFunc
	}{
		{"complete", []string{"completed", "done"}, "Mark a task complete.", (*journal.Journal).Complete},
		{"cancel", []string{"strike"}, "Cancel a task. Cancelled tasks leave the inbox.", (*journal.Journal).Cancel},
		{"reopen", []string{"open"}, "Reopen a completed or cancelled task.", (*journal.Journal).Reopen},
	} {
		s := s
		cmd := &cobra.Command{
			Use:     s.use + " <task id>",
			Aliases: s.aliases,
			Short:   s.short,
			Args:    cobra.ExactArgs(1),
			ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
				return entryCompletions(cmd, toComplete), cobra.ShellCompDirectiveNoFileComp
			},
			RunE: func(cmd *cobra.Command, args []string) error {
				cmd.SilenceUsage = true
				a, err := open(cmd)
				if err != nil {
					return output.HandleError(err)
				}
				defer a.Close()

				t, err := s.do(a.Journal, cmd.Context(), args[0])
				if err != nil {
					return output.HandleError(err)
				}
				return printEntry(a.Journal, entry.FromTask(t))
			},
		}
		topLevel.AddCommand(cmd)
	}
}

func addMigrate(topLevel *cobra.Command) {
	var from, to string

	cmd := &cobra.Command{
		Use:     "migrate <entry id>",
		Aliases: []string{"move", "mv"},
		Short:   "Move a task or note to a more specific spread.",
		Example: `
spreads migrate <entry id> --to day:2026-02-10
spreads migrate <entry id> --from month:2026-02 --to day:2026-02-10
`,
		Args: cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return entryCompletions(cmd, toComplete), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			a, err := open(cmd)
			if err != nil {
				return output.HandleError(err)
			}
			defer a.Close()
			j := a.Journal

			dst, err := period.ParseSlot(to, j.Calendar())
			if err != nil {
				return output.HandleError(err)
			}
			var src period.Slot
			if from == "" {
				src, err = j.CurrentSlot(args[0])
			} else {
				src, err = period.ParseSlot(from, j.Calendar())
			}
			if err != nil {
				return output.HandleError(err)
			}

			e, err := j.Migrate(cmd.Context(), args[0], src, dst)
			if err != nil {
				return output.HandleError(err)
			}
			return printEntry(j, e)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Source slot. Defaults to where the entry is open.")
	cmd.Flags().StringVar(&to, "to", "", "Destination slot, example: --to day:2026-02-10.")
	_ = cmd.MarkFlagRequired("to")

	topLevel.AddCommand(cmd)
}

func addInbox(topLevel *cobra.Command) {
	io := &options.IDOptions{}

	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "Tasks and notes with no spread to live on.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			a, err := open(cmd)
			if err != nil {
				return output.HandleError(err)
			}
			defer a.Close()

			entries := a.Journal.Inbox()
			if output.JSON {
				return output.Print(entries)
			}
			pp := printers.PrettyPrint{ShowID: io.ShowID}
			pp.Entries("Inbox", entries...)
			return nil
		},
	}

	options.AddShowIDArgs(cmd, io)

	topLevel.AddCommand(cmd)
}

func addCandidates(topLevel *cobra.Command) {
	io := &options.IDOptions{}

	cmd := &cobra.Command{
		Use:   "candidates",
		Short: "Open tasks left on past spreads.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			a, err := open(cmd)
			if err != nil {
				return output.HandleError(err)
			}
			defer a.Close()

			cs := a.Journal.MigrationCandidates()
			if output.JSON {
				return output.Print(cs)
			}
			pp := printers.PrettyPrint{ShowID: io.ShowID}
			pp.Candidates(cs...)
			return nil
		},
	}

	options.AddShowIDArgs(cmd, io)

	topLevel.AddCommand(cmd)
}

func entryCompletions(cmd *cobra.Command, toComplete string) []string {
	a, err := open(cmd)
	if err != nil {
		return nil
	}
	defer a.Close()
	var out []string
	for _, t := range a.Journal.Tasks() {
		if strings.HasPrefix(t.ID, toComplete) {
			out = append(out, t.ID+"\t"+t.Title)
		}
	}
	for _, n := range a.Journal.Notes() {
		if strings.HasPrefix(n.ID, toComplete) {
			out = append(out, n.ID+"\t"+n.Title)
		}
	}
	return out
}
