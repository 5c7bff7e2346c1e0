// Package key provides CLI helpers to display the journaling legend.
package key

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"tableflip.dev/spreads/pkg/glyph"
)

// Key prints a glyph legend describing bullets.
type Key struct {
	// Out defaults to color.Output.
	Out io.Writer
}

// Do renders the bullet key.
func (k *Key) Do(_ context.Context) error {
	out := k.Out
	if out == nil {
		out = color.Output
	}
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(glyph.Bold("Bullet"), glyph.Bold("Key"), glyph.Bold("Meaning"))
	for _, g := range glyph.Legend() {
		tbl.AddRow(g.Symbol, g.Key, g.Meaning)
	}
	tbl.RightAlign(0)

	_, err := fmt.Fprintf(out, "\n%s\n\n", tbl)
	return err
}
