package entry

import (
	"time"

	"tableflip.dev/spreads/pkg/period"
)

// Kind tags an Entry.
type Kind string

const (
	KindTask Kind = "task"
	KindNote Kind = "note"
)

// Entry is a task or a note. Exactly one of Task and Note is set, matching
// Kind. Entry shares the pointer it wraps; use Clone before mutating a
// value you do not own.
type Entry struct {
	Kind Kind
	Task *Task
	Note *Note
}

// FromTask wraps a task.
func FromTask(t *Task) Entry {
	return Entry{Kind: KindTask, Task: t}
}

// FromNote wraps a note.
func FromNote(n *Note) Entry {
	return Entry{Kind: KindNote, Note: n}
}

func (e Entry) ID() string {
	switch e.Kind {
	case KindTask:
		return e.Task.ID
	case KindNote:
		return e.Note.ID
	}
	return ""
}

func (e Entry) Title() string {
	switch e.Kind {
	case KindTask:
		return e.Task.Title
	case KindNote:
		return e.Note.Title
	}
	return ""
}

// Created is the entry's creation time.
func (e Entry) Created() time.Time {
	switch e.Kind {
	case KindTask:
		return e.Task.Created
	case KindNote:
		return e.Note.Created
	}
	return time.Time{}
}

// Status is the entry-level status as a string.
func (e Entry) Status() string {
	switch e.Kind {
	case KindTask:
		return string(e.Task.Status)
	case KindNote:
		return string(e.Note.Status)
	}
	return ""
}

// Slot is the preferred (period, date).
func (e Entry) Slot() period.Slot {
	switch e.Kind {
	case KindTask:
		return e.Task.Slot()
	case KindNote:
		return e.Note.Slot()
	}
	return period.Slot{}
}

// Cancelled reports whether the entry is a cancelled task.
func (e Entry) Cancelled() bool {
	return e.Kind == KindTask && e.Task.Status == TaskCancelled
}

// Slots lists every slot the entry has ever been assigned to, in order.
func (e Entry) Slots() []period.Slot {
	var out []period.Slot
	switch e.Kind {
	case KindTask:
		for _, a := range e.Task.Assignments {
			out = append(out, a.Slot())
		}
	case KindNote:
		for _, a := range e.Note.Assignments {
			out = append(out, a.Slot())
		}
	}
	return out
}

// AssignmentCount is the number of distinct slots in the assignment log.
func (e Entry) AssignmentCount() int {
	return len(e.Slots())
}

// StatusAt returns the status of the assignment for slot.
func (e Entry) StatusAt(slot period.Slot) (string, bool) {
	switch e.Kind {
	case KindTask:
		if a, ok := e.Task.Assignment(slot); ok {
			return string(a.Status), true
		}
	case KindNote:
		if a, ok := e.Note.Assignment(slot); ok {
			return string(a.Status), true
		}
	}
	return "", false
}

// Current returns the slot and status of the latest assignment that has not
// been migrated away.
func (e Entry) Current() (period.Slot, string, bool) {
	switch e.Kind {
	case KindTask:
		if a, ok := e.Task.Current(); ok {
			return a.Slot(), string(a.Status), true
		}
	case KindNote:
		if a, ok := e.Note.Current(); ok {
			return a.Slot(), string(a.Status), true
		}
	}
	return period.Slot{}, "", false
}

// Migrated reports whether status is the kind's migrated status.
func (e Entry) Migrated(status string) bool {
	switch e.Kind {
	case KindTask:
		return TaskStatus(status) == TaskMigrated
	case KindNote:
		return NoteStatus(status) == NoteMigrated
	}
	return false
}

// Open reports whether status is the kind's open status.
func (e Entry) Open(status string) bool {
	switch e.Kind {
	case KindTask:
		return TaskStatus(status) == TaskOpen
	case KindNote:
		return NoteStatus(status) == NoteActive
	}
	return false
}

// PlaceOpen opens (or reopens) the assignment for slot.
func (e Entry) PlaceOpen(slot period.Slot, at time.Time) bool {
	switch e.Kind {
	case KindTask:
		return e.Task.Assign(slot, TaskOpen, at)
	case KindNote:
		return e.Note.Assign(slot, NoteActive, at)
	}
	return false
}

// PlaceStatus sets the assignment for slot to a status of the entry's own
// domain, given as a string.
func (e Entry) PlaceStatus(slot period.Slot, status string, at time.Time) bool {
	switch e.Kind {
	case KindTask:
		return e.Task.Assign(slot, TaskStatus(status), at)
	case KindNote:
		return e.Note.Assign(slot, NoteStatus(status), at)
	}
	return false
}

// MarkMigrated flips an existing open assignment for slot to migrated. It
// never creates an assignment.
func (e Entry) MarkMigrated(slot period.Slot, at time.Time) bool {
	status, ok := e.StatusAt(slot)
	if !ok || !e.Open(status) {
		return false
	}
	switch e.Kind {
	case KindTask:
		return e.Task.Assign(slot, TaskMigrated, at)
	case KindNote:
		return e.Note.Assign(slot, NoteMigrated, at)
	}
	return false
}

// SetPreferred changes the preferred slot without touching assignments.
func (e Entry) SetPreferred(slot period.Slot) {
	switch e.Kind {
	case KindTask:
		e.Task.Period, e.Task.Date = slot.Period, slot.Date
	case KindNote:
		e.Note.Period, e.Note.Date = slot.Period, slot.Date
	}
}

// SetTitle renames the entry.
func (e Entry) SetTitle(title string) {
	switch e.Kind {
	case KindTask:
		e.Task.Title = title
	case KindNote:
		e.Note.Title = title
	}
}

// Refresh mirrors the current assignment into the convenience fields.
func (e Entry) Refresh() {
	switch e.Kind {
	case KindTask:
		e.Task.Refresh()
	case KindNote:
		e.Note.Refresh()
	}
}

// History returns the assignment log.
func (e Entry) History() []HistoryRecord {
	switch e.Kind {
	case KindTask:
		return e.Task.History
	case KindNote:
		return e.Note.History
	}
	return nil
}

// Clone deep-copies the wrapped value.
func (e Entry) Clone() Entry {
	switch e.Kind {
	case KindTask:
		return FromTask(e.Task.Clone())
	case KindNote:
		return FromNote(e.Note.Clone())
	}
	return e
}
