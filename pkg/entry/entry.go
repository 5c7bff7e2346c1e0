// Package entry holds the things written into a journal: tasks, notes and
// events, and the assignment log that places tasks and notes on spreads.
package entry

import (
	"time"

	"github.com/google/uuid"

	"tableflip.dev/spreads/pkg/period"
)

// TaskStatus is the status domain shared by tasks and task assignments.
type TaskStatus string

const (
	TaskOpen      TaskStatus = "open"
	TaskComplete  TaskStatus = "complete"
	TaskMigrated  TaskStatus = "migrated"
	TaskCancelled TaskStatus = "cancelled"
)

// NoteStatus is the status domain shared by notes and note assignments.
type NoteStatus string

const (
	NoteActive   NoteStatus = "active"
	NoteMigrated NoteStatus = "migrated"
)

// Task is an actionable entry. Period and Date hold the preferred slot and
// are kept in step with the current assignment after a migration.
type Task struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Created     time.Time        `json:"created"`
	Period      period.Period    `json:"period"`
	Date        time.Time        `json:"date"`
	Status      TaskStatus       `json:"status"`
	Assignments []TaskAssignment `json:"assignments"`
	History     []HistoryRecord  `json:"history"`
}

// NewTask creates an open task with no assignments.
func NewTask(title string, p period.Period, date time.Time, cal period.Calendar, now time.Time) *Task {
	return &Task{
		ID:      uuid.NewString(),
		Title:   title,
		Created: now,
		Period:  p,
		Date:    cal.Normalize(p, date),
		Status:  TaskOpen,
	}
}

// Slot is the task's preferred (period, date).
func (t *Task) Slot() period.Slot {
	return period.Slot{Period: t.Period, Date: t.Date}
}

// Assignment returns the assignment for slot, if any.
func (t *Task) Assignment(slot period.Slot) (TaskAssignment, bool) {
	return lookup(t.Assignments, slot)
}

// Assign sets the status of the assignment for slot, appending one if the
// task has never been placed there. It reports whether anything changed.
func (t *Task) Assign(slot period.Slot, status TaskStatus, at time.Time) bool {
	var changed bool
	t.Assignments, t.History, changed = place(t.Assignments, t.History, slot, status, at)
	return changed
}

// Refresh mirrors the current assignment into Period and Date. A complete or
// cancelled task keeps its status.
func (t *Task) Refresh() {
	a, ok := t.Current()
	if !ok {
		return
	}
	t.Period, t.Date = a.Period, a.Date
	if t.Status == TaskMigrated {
		t.Status = a.Status
	}
}

// SetStatus changes the task status and mirrors it onto the assignment for
// the preferred slot, or else onto the latest assignment not yet migrated.
func (t *Task) SetStatus(status TaskStatus, at time.Time) {
	t.Status = status
	slot := t.Slot()
	if _, ok := t.Assignment(slot); !ok {
		a, ok := current(t.Assignments, t.History, TaskMigrated)
		if !ok {
			return
		}
		slot = a.Slot()
	}
	t.Assign(slot, status, at)
}

// Current returns the latest assignment that has not been migrated away.
func (t *Task) Current() (TaskAssignment, bool) {
	return current(t.Assignments, t.History, TaskMigrated)
}

// Clone returns a deep copy.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	cp := *t
	cp.Assignments = cloneList(t.Assignments)
	cp.History = cloneHistory(t.History)
	return &cp
}

// Note is an informational entry.
type Note struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Body        string           `json:"body"`
	Created     time.Time        `json:"created"`
	Period      period.Period    `json:"period"`
	Date        time.Time        `json:"date"`
	Status      NoteStatus       `json:"status"`
	Assignments []NoteAssignment `json:"assignments"`
	History     []HistoryRecord  `json:"history"`
}

// NewNote creates an active note with no assignments.
func NewNote(title string, p period.Period, date time.Time, cal period.Calendar, now time.Time) *Note {
	return &Note{
		ID:      uuid.NewString(),
		Title:   title,
		Created: now,
		Period:  p,
		Date:    cal.Normalize(p, date),
		Status:  NoteActive,
	}
}

// Slot is the note's preferred (period, date).
func (n *Note) Slot() period.Slot {
	return period.Slot{Period: n.Period, Date: n.Date}
}

// Assignment returns the assignment for slot, if any.
func (n *Note) Assignment(slot period.Slot) (NoteAssignment, bool) {
	return lookup(n.Assignments, slot)
}

// Assign sets the status of the assignment for slot; see Task.Assign.
func (n *Note) Assign(slot period.Slot, status NoteStatus, at time.Time) bool {
	var changed bool
	n.Assignments, n.History, changed = place(n.Assignments, n.History, slot, status, at)
	return changed
}

// Refresh mirrors the current assignment into Period and Date.
func (n *Note) Refresh() {
	a, ok := n.Current()
	if !ok {
		return
	}
	n.Period, n.Date = a.Period, a.Date
	n.Status = a.Status
}

// Current returns the latest assignment that has not been migrated away.
func (n *Note) Current() (NoteAssignment, bool) {
	return current(n.Assignments, n.History, NoteMigrated)
}

// Clone returns a deep copy.
func (n *Note) Clone() *Note {
	if n == nil {
		return nil
	}
	cp := *n
	cp.Assignments = cloneList(n.Assignments)
	cp.History = cloneHistory(n.History)
	return &cp
}

// Event is a dated occurrence. Events are never assigned; they show on any
// spread whose range overlaps [Start, End].
type Event struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Created time.Time `json:"created"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}

// NewEvent creates an event; a zero end means a single-day event.
func NewEvent(title string, start, end time.Time, cal period.Calendar, now time.Time) *Event {
	if end.IsZero() || end.Before(start) {
		end = start
	}
	return &Event{
		ID:      uuid.NewString(),
		Title:   title,
		Created: now,
		Start:   cal.StartOfDay(start),
		End:     cal.StartOfDay(end),
	}
}

// Clone returns a copy.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	cp := *e
	return &cp
}
