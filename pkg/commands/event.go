package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"tableflip.dev/spreads/pkg/commands/options"
	"tableflip.dev/spreads/pkg/printers"
)

func addEvents(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "event",
		Aliases: []string{"events"},
		Short:   "List or delete events.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	addEventList(cmd)
	addEventDelete(cmd)

	topLevel.AddCommand(cmd)
}

func addEventList(parent *cobra.Command) {
	io := &options.IDOptions{}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List every event.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			a, err := open(cmd)
			if err != nil {
				return output.HandleError(err)
			}
			defer a.Close()

			events := a.Journal.Events()
			if output.JSON {
				return output.Print(events)
			}
			pp := printers.PrettyPrint{ShowID: io.ShowID}
			pp.Events("Events", events...)
			return nil
		},
	}

	options.AddShowIDArgs(cmd, io)

	parent.AddCommand(cmd)
}

func addEventDelete(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "delete <event id>",
		Aliases: []string{"rm"},
		Short:   "Delete an event.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			a, err := open(cmd)
			if err != nil {
				return output.HandleError(err)
			}
			defer a.Close()

			if err := a.Journal.DeleteEvent(cmd.Context(), args[0]); err != nil {
				return output.HandleError(err)
			}
			if output.JSON {
				return output.Print(map[string]string{"deleted": args[0]})
			}
			fmt.Printf("deleted event %s\n", args[0])
			return nil
		},
	}

	parent.AddCommand(cmd)
}
