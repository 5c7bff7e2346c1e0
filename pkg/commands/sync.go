package commands

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/spreads/pkg/printers"
	"tableflip.dev/spreads/pkg/syncer"
)

func addSync(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync cycle against the configured remote.",
		Example: `
spreads sync
spreads sync status
spreads sync log
spreads sync watch
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			a, err := open(cmd)
			if err != nil {
				return output.HandleError(err)
			}
			defer a.Close()

			st, err := a.Sync.Sync(cmd.Context())
			if errors.Is(err, syncer.ErrLocalOnly) {
				err = nil
			}
			if err != nil {
				return output.HandleError(err)
			}
			return printStatus(st)
		},
	}

	addSyncStatus(cmd)
	addSyncLog(cmd)
	addSyncWatch(cmd)

	topLevel.AddCommand(cmd)
}

func printStatus(st syncer.Status) error {
	if output.JSON {
		return output.Print(st)
	}
	pp := printers.PrettyPrint{}
	pp.SyncStatus(st)
	return nil
}

func addSyncStatus(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the sync state and the last successful sync.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			a, err := open(cmd)
			if err != nil {
				return output.HandleError(err)
			}
			defer a.Close()

			st := a.Sync.Status()
			cp, err := a.Store.Checkpoint(cmd.Context())
			if err != nil {
				return output.HandleError(err)
			}
			if output.JSON {
				return output.Print(map[string]any{
					"status":     st,
					"checkpoint": cp,
				})
			}
			pp := printers.PrettyPrint{}
			pp.SyncStatus(st)
			if cp.LastSync.IsZero() {
				fmt.Println("never synced")
			} else {
				fmt.Printf("last synced %s\n", cp.LastSync.Local().Format(time.RFC1123))
			}
			return nil
		},
	}

	parent.AddCommand(cmd)
}

func addSyncLog(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Run a sync cycle and print its diagnostic log.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			a, err := open(cmd)
			if err != nil {
				return output.HandleError(err)
			}
			defer a.Close()

			// Failures are already in the log.
			_, _ = a.Sync.Sync(cmd.Context())
			records := a.Sync.Log().Records()
			if output.JSON {
				return output.Print(records)
			}
			pp := printers.PrettyPrint{}
			pp.SyncLog(records...)
			return nil
		},
	}

	parent.AddCommand(cmd)
}

func addSyncWatch(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Sync on an interval and whenever the local journal changes.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := open(cmd)
			if err != nil {
				return output.HandleError(err)
			}
			defer a.Close()
			if a.Sync.Status().State == syncer.LocalOnly {
				return output.HandleError(syncer.ErrLocalOnly)
			}

			updates, cancel := a.Sync.Subscribe()
			defer cancel()
			go func() {
				pp := printers.PrettyPrint{}
				for st := range updates {
					if output.JSON {
						_ = output.Print(st)
						continue
					}
					pp.SyncStatus(st)
				}
			}()

			return output.HandleError(a.Watch(ctx, nil))
		},
	}

	parent.AddCommand(cmd)
}
