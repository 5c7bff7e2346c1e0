// Package printers renders journal state for the terminal.
package printers

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"tableflip.dev/spreads/pkg/entry"
	"tableflip.dev/spreads/pkg/glyph"
	"tableflip.dev/spreads/pkg/journal"
	"tableflip.dev/spreads/pkg/spread"
	"tableflip.dev/spreads/pkg/syncer"
)

type PrettyPrint struct {
	ShowID bool
	// Out defaults to color.Output.
	Out io.Writer
}

var (
	spacing = strings.Repeat(" ", len("3f2c6a8e-5b1d-4c1e-9f0a-2d7b8c9e0f1a  "))
)

func (pp *PrettyPrint) out() io.Writer {
	if pp.Out == nil {
		return color.Output
	}
	return pp.Out
}

func (pp *PrettyPrint) NewLine() {
	_, _ = fmt.Fprintln(pp.out())
}

func (pp *PrettyPrint) Title(title string) {
	t := color.New(color.Bold, color.Underline)

	if pp.ShowID {
		_, _ = fmt.Fprint(pp.out(), spacing)
	}
	_, _ = t.Fprintln(pp.out(), title)
}

func (pp *PrettyPrint) TitleWithCount(title string, count int) {
	t := color.New(color.Bold, color.Underline)
	c := color.New(color.Faint)

	if pp.ShowID {
		_, _ = fmt.Fprint(pp.out(), spacing)
	}
	_, _ = t.Fprint(pp.out(), title)
	_, _ = c.Fprintf(pp.out(), " - %d", count)

	switch count {
	case 1:
		_, _ = c.Fprintln(pp.out(), " entry")
	default:
		_, _ = c.Fprintln(pp.out(), " entries")
	}
}

func (pp *PrettyPrint) none() {
	f := color.New(color.Faint, color.Italic)
	if pp.ShowID {
		_, _ = fmt.Fprint(pp.out(), spacing)
	}
	_, _ = f.Fprint(pp.out(), " none\n\n")
}

func (pp *PrettyPrint) id(id string) {
	if !pp.ShowID {
		return
	}
	y := color.New(color.FgHiYellow, color.Italic, color.Faint)
	_, _ = y.Fprint(pp.out(), id)
	if pad := len(spacing) - len(id); pad > 0 {
		_, _ = fmt.Fprint(pp.out(), strings.Repeat(" ", pad))
	}
}

func (pp *PrettyPrint) line(e entry.Entry, status string) {
	b := glyph.For(e, status)
	title := e.Title()
	switch b {
	case glyph.Cancelled:
		title = glyph.Strike(title)
	case glyph.Migrated, glyph.Completed:
		title = color.New(color.Faint).Sprint(title)
	}
	pp.id(e.ID())
	_, _ = fmt.Fprintf(pp.out(), "%s %s\n", b, title)
}

// View prints a spread with its events and entries.
func (pp *PrettyPrint) View(v journal.View) {
	pp.TitleWithCount(v.Spread.Title(), len(v.Items))
	for _, ev := range v.Events {
		pp.event(ev)
	}
	if len(v.Items) == 0 && len(v.Events) == 0 {
		pp.none()
		return
	}
	for _, it := range v.Items {
		pp.line(it.Entry, it.Status)
	}
	pp.NewLine()
}

func (pp *PrettyPrint) event(ev *entry.Event) {
	pp.id(ev.ID)
	_, _ = fmt.Fprintf(pp.out(), "%s %s %s\n", glyph.Event, ev.Title, color.New(color.Faint).Sprint(eventRange(ev)))
}

// Events prints a titled list of events.
func (pp *PrettyPrint) Events(title string, events ...*entry.Event) {
	pp.TitleWithCount(title, len(events))
	if len(events) == 0 {
		pp.none()
		return
	}
	for _, ev := range events {
		pp.event(ev)
	}
	pp.NewLine()
}

// Entries prints a titled list of entries in their own status.
func (pp *PrettyPrint) Entries(title string, entries ...entry.Entry) {
	pp.TitleWithCount(title, len(entries))
	if len(entries) == 0 {
		pp.none()
		return
	}
	for _, e := range entries {
		pp.line(e, e.Status())
	}
	pp.NewLine()
}

// Spreads prints a table of spreads.
func (pp *PrettyPrint) Spreads(spreads ...spread.Spread) {
	if len(spreads) == 0 {
		pp.Title("Spreads")
		pp.none()
		return
	}
	bold := color.New(color.Bold)
	tbl := uitable.New()
	tbl.Separator = "  "
	if pp.ShowID {
		tbl.AddRow(bold.Sprint("ID"), bold.Sprint("Period"), bold.Sprint("Spread"))
	} else {
		tbl.AddRow(bold.Sprint("Period"), bold.Sprint("Spread"))
	}
	for _, sp := range spreads {
		if pp.ShowID {
			tbl.AddRow(sp.ID, sp.Period, sp.Title())
		} else {
			tbl.AddRow(sp.Period, sp.Title())
		}
	}
	_, _ = fmt.Fprintln(pp.out(), tbl)
}

// Candidates prints tasks left open on past spreads.
func (pp *PrettyPrint) Candidates(cs ...journal.Candidate) {
	pp.TitleWithCount("Migration candidates", len(cs))
	if len(cs) == 0 {
		pp.none()
		return
	}
	tbl := uitable.New()
	tbl.Separator = "  "
	for _, c := range cs {
		to := color.New(color.Faint, color.Italic).Sprint("inbox")
		if c.To != nil {
			to = c.To.Title()
		}
		row := []interface{}{glyph.Task, c.Task.Title, c.From.Title(), glyph.Migrated, to}
		if pp.ShowID {
			row = append([]interface{}{c.Task.ID}, row...)
		}
		tbl.AddRow(row...)
	}
	_, _ = fmt.Fprintln(pp.out(), tbl)
	pp.NewLine()
}

// SyncStatus prints the engine status on one line.
func (pp *PrettyPrint) SyncStatus(st syncer.Status) {
	c := color.New(color.FgGreen)
	switch st.State {
	case syncer.Error, syncer.BackupUnavailable:
		c = color.New(color.FgRed)
	case syncer.Offline, syncer.LocalOnly:
		c = color.New(color.FgYellow)
	}
	_, _ = c.Fprintln(pp.out(), st.String())
}

// SyncLog prints sync diagnostics, oldest first.
func (pp *PrettyPrint) SyncLog(records ...syncer.Record) {
	if len(records) == 0 {
		pp.Title("Sync log")
		pp.none()
		return
	}
	faint := color.New(color.Faint)
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 100
	tbl.Wrap = true
	for _, r := range records {
		tbl.AddRow(faint.Sprint(r.Time.Format("2006-01-02 15:04:05")), r.Level, r.Message)
	}
	_, _ = fmt.Fprintln(pp.out(), tbl)
}

func eventRange(ev *entry.Event) string {
	if ev.Start.Equal(ev.End) {
		return ev.Start.Format("Jan 2")
	}
	return ev.Start.Format("Jan 2") + " – " + ev.End.Format("Jan 2")
}
