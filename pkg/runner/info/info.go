// Package info reports where the journal lives and what it holds.
package info

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"tableflip.dev/spreads/pkg/config"
	"tableflip.dev/spreads/pkg/journal"
	"tableflip.dev/spreads/pkg/store"
	"tableflip.dev/spreads/pkg/syncer"
	"tableflip.dev/spreads/pkg/timeutil"
)

type Info struct {
	Config  *config.Config
	Store   *store.Store
	Journal *journal.Journal
	// Sync is nil when sync is disabled.
	Sync    *syncer.Engine
	// Out defaults to color.Output.
	Out io.Writer
}

func (n *Info) Do(ctx context.Context) error {
	out := n.Out
	if out == nil {
		out = color.Output
	}
	if n.Config == nil {
		return fmt.Errorf("info requires a config")
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	if override := os.Getenv("SPREADS_CONFIG_PATH"); override != "" {
		tbl.AddRow("SPREADS_CONFIG_PATH", override)
	} else {
		tbl.AddRow("SPREADS_CONFIG_PATH", "not set")
	}
	file := n.Config.File
	if file == "" {
		file = "none (defaults)"
	}
	tbl.AddRow("config file", file)
	tbl.AddRow("store", n.Config.BasePath())
	if n.Store != nil {
		tbl.AddRow("device", n.Store.Device())
	}
	tbl.AddRow("mode", n.Config.Mode)
	tbl.AddRow("week starts", n.Config.FirstWeekday)

	if n.Journal != nil {
		tbl.AddRow("spreads", len(n.Journal.Spreads()))
		tbl.AddRow("tasks", len(n.Journal.Tasks()))
		tbl.AddRow("notes", len(n.Journal.Notes()))
		tbl.AddRow("events", len(n.Journal.Events()))
		tbl.AddRow("inbox", len(n.Journal.Inbox()))
	}

	st := syncer.Status{State: syncer.LocalOnly}
	if n.Sync != nil {
		st = n.Sync.Status()
	}
	tbl.AddRow("sync", st.String())
	if n.Config.Sync.Remote != "" {
		tbl.AddRow("remote", n.Config.Sync.Remote)
		tbl.AddRow("sync every", timeutil.FormatInterval(n.Config.Sync.Interval))
	}
	if n.Store != nil {
		if cp, err := n.Store.Checkpoint(ctx); err == nil && !cp.LastSync.IsZero() {
			tbl.AddRow("last sync", cp.LastSync.Local().Format("2006-01-02 15:04:05"))
		}
	}

	_, err := fmt.Fprintln(out, tbl)
	return err
}
