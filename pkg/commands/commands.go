package commands

import (
	"github.com/spf13/cobra"

	base "github.com/n3wscott/cli-base/pkg/commands/options"

	"tableflip.dev/spreads/pkg/app"
	"tableflip.dev/spreads/pkg/commands/options"
	"tableflip.dev/spreads/pkg/config"
)

var (
	output = &options.OutputOptions{}
)

func New() *cobra.Command {

	cmd := &cobra.Command{
		Use:   "spreads",
		Short: base.Wrap80("Bullet journaling with year, month, day and multiday spreads."),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	options.AddOutputArg(cmd, output)

	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addSpread(topLevel)
	addAdd(topLevel)
	addEvents(topLevel)
	addEdit(topLevel)
	addStatus(topLevel)
	addMigrate(topLevel)
	addInbox(topLevel)
	addCandidates(topLevel)
	addSync(topLevel)
	addKey(topLevel)
	addInfo(topLevel)
	addVersion(topLevel)
	addMCP(topLevel)
	addCompletions(topLevel)
}

// open loads the config and opens the journal. Callers close the app.
func open(cmd *cobra.Command) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return app.Open(cmd.Context(), cfg)
}
