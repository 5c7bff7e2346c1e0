package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/spreads/pkg/runner/info"
)

func addInfo(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Details about the journal and where it is stored.",
		Example: `
spreads info
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			a, err := open(cmd)
			if err != nil {
				return output.HandleError(err)
			}
			defer a.Close()
			if output.JSON {
				return output.Print(a.Config)
			}
			s := info.Info{
				Config:  a.Config,
				Store:   a.Store,
				Journal: a.Journal,
				Sync:    a.Sync,
			}
			err = s.Do(cmd.Context())
			return output.HandleError(err)
		},
	}

	topLevel.AddCommand(cmd)
}
