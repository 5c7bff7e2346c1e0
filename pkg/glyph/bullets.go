// Package glyph maps entry kinds and statuses to bullet-journal symbols.
package glyph

import (
	"fmt"

	"tableflip.dev/spreads/pkg/entry"
)

type Glyph struct {
	Key     string
	Symbol  string
	Meaning string
}

const (
	escape     = "\x1b"
	resetCode  = 0
	boldCode   = 1
	strikeCode = 9
)

func Strike(in string) string {
	return fmt.Sprintf("%s[%dm%s%s[%dm", escape, strikeCode, in, escape, resetCode)
}

func Bold(in string) string {
	return fmt.Sprintf("%s[%dm%s%s[%dm", escape, boldCode, in, escape, resetCode)
}

type Bullet int

const (
	Task Bullet = iota
	Completed
	Migrated
	Cancelled
	Note
	Event
)

var bullets = []Glyph{
	Task:      {Key: "+", Symbol: "●", Meaning: "task"},
	Completed: {Key: "x", Symbol: "✘", Meaning: "task completed"},
	Migrated:  {Key: ">", Symbol: "›", Meaning: "migrated to another spread"},
	Cancelled: {Key: "~", Symbol: "⦵", Meaning: "task cancelled"},
	Note:      {Key: "-", Symbol: "⁃", Meaning: "note"},
	Event:     {Key: "o", Symbol: "○", Meaning: "event"},
}

// Legend lists every bullet in display order.
func Legend() []Glyph {
	out := make([]Glyph, len(bullets))
	copy(out, bullets)
	return out
}

func (g Glyph) String() string {
	return g.Symbol
}

func (b Bullet) Glyph() Glyph {
	return bullets[b]
}

func (b Bullet) String() string {
	return b.Glyph().String()
}

// ForTask is the bullet for a task, or task assignment, in status.
func ForTask(status entry.TaskStatus) Bullet {
	switch status {
	case entry.TaskComplete:
		return Completed
	case entry.TaskMigrated:
		return Migrated
	case entry.TaskCancelled:
		return Cancelled
	}
	return Task
}

// ForNote is the bullet for a note, or note assignment, in status.
func ForNote(status entry.NoteStatus) Bullet {
	if status == entry.NoteMigrated {
		return Migrated
	}
	return Note
}

// For picks the bullet for an entry shown with the given status string.
func For(e entry.Entry, status string) Bullet {
	if e.Kind == entry.KindNote {
		return ForNote(entry.NoteStatus(status))
	}
	return ForTask(entry.TaskStatus(status))
}
