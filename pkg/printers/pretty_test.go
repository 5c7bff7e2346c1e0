package printers

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"tableflip.dev/spreads/pkg/entry"
	"tableflip.dev/spreads/pkg/journal"
	"tableflip.dev/spreads/pkg/period"
	"tableflip.dev/spreads/pkg/spread"
	"tableflip.dev/spreads/pkg/syncer"
)

func init() {
	color.NoColor = true
}

var cal = period.Calendar{FirstWeekday: time.Monday, Location: time.UTC}

func TestViewShowsBulletsPerStatus(t *testing.T) {
	now := time.Date(2026, 2, 4, 9, 0, 0, 0, time.UTC)
	sp := spread.New(period.Day, now, cal, now)
	open := entry.NewTask("write", period.Day, now, cal, now)
	moved := entry.NewTask("call", period.Day, now, cal, now)
	note := entry.NewNote("idea", period.Day, now, cal, now)
	ev := entry.NewEvent("standup", now, time.Time{}, cal, now)

	var buf bytes.Buffer
	pp := &PrettyPrint{Out: &buf}
	pp.View(journal.View{
		Spread: sp,
		Items: []journal.Item{
			{Entry: entry.FromTask(open), Status: string(entry.TaskOpen)},
			{Entry: entry.FromTask(moved), Status: string(entry.TaskMigrated)},
			{Entry: entry.FromNote(note), Status: string(entry.NoteActive)},
		},
		Events: []*entry.Event{ev},
	})

	out := buf.String()
	for _, want := range []string{"February 4, 2026 - 3 entries", "○ standup Feb 4", "● write", "› call", "⁃ idea"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in\n%s", want, out)
		}
	}
}

func TestEmptyInbox(t *testing.T) {
	var buf bytes.Buffer
	pp := &PrettyPrint{Out: &buf}
	pp.Entries("Inbox")
	if out := buf.String(); !strings.Contains(out, "Inbox - 0 entries") || !strings.Contains(out, "none") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestMonthGridStartsOnFirstWeekday(t *testing.T) {
	var buf bytes.Buffer
	pp := &PrettyPrint{Out: &buf}
	// February 2026 starts on a Sunday, the last column of a Monday-first week.
	pp.Month(time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), cal, make([]int, 28), time.Time{})

	lines := strings.Split(buf.String(), "\n")
	if !strings.HasPrefix(lines[1], "Mo Tu We") {
		t.Fatalf("unexpected header %q", lines[1])
	}
	if lines[2] != strings.Repeat("   ", 6)+" 1 " {
		t.Fatalf("unexpected first week %q", lines[2])
	}
	if DaysIn(time.Date(2028, 2, 1, 0, 0, 0, 0, time.UTC)) != 29 {
		t.Fatal("leap february")
	}
}

func TestSyncStatus(t *testing.T) {
	var buf bytes.Buffer
	pp := &PrettyPrint{Out: &buf}
	pp.SyncStatus(syncer.Status{State: syncer.Offline, Message: "network unreachable"})
	if got := strings.TrimSpace(buf.String()); got != "offline: network unreachable" {
		t.Fatalf("unexpected status %q", got)
	}
}
