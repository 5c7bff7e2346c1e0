package journal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tableflip.dev/spreads/pkg/entry"
	"tableflip.dev/spreads/pkg/period"
	"tableflip.dev/spreads/pkg/spread"
)

// AddTask creates a task preferring (p, date) and places it on the best
// existing spread. With no spread it starts in the inbox.
func (j *Journal) AddTask(ctx context.Context, title string, p period.Period, date time.Time) (*entry.Task, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	if err := j.checkEntryDate(p, date, now); err != nil {
		return nil, err
	}
	t := entry.NewTask(strings.TrimSpace(title), p, date, j.cal, now)
	if err := j.place(ctx, entry.FromTask(t), now); err != nil {
		return nil, err
	}
	return t.Clone(), nil
}

// AddNote creates a note the same way AddTask creates a task.
func (j *Journal) AddNote(ctx context.Context, title, body string, p period.Period, date time.Time) (*entry.Note, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	if err := j.checkEntryDate(p, date, now); err != nil {
		return nil, err
	}
	n := entry.NewNote(strings.TrimSpace(title), p, date, j.cal, now)
	n.Body = body
	if err := j.place(ctx, entry.FromNote(n), now); err != nil {
		return nil, err
	}
	return n.Clone(), nil
}

func (j *Journal) checkEntryDate(p period.Period, date, now time.Time) error {
	if !p.Assignable() {
		return fmt.Errorf("%w: %s", ErrInvalidPeriod, p)
	}
	if !spread.CanCreateEntry(p, date, now, j.cal) {
		return fmt.Errorf("%w: %s", ErrPastDate, period.NewSlot(p, date, j.cal))
	}
	return nil
}

func (j *Journal) place(ctx context.Context, e entry.Entry, now time.Time) error {
	if best, ok := j.bestSpread(e.Slot(), j.indexed); ok {
		e.PlaceOpen(best.Slot(), now)
	}
	if err := j.persist(ctx, e); err != nil {
		return err
	}
	j.rebuild()
	j.logger.Info("entry added", "kind", e.Kind, "id", e.ID(), "inbox", j.inboxed(e))
	return nil
}

// AddEvent records an event over [start, end]. Events are never assigned.
func (j *Journal) AddEvent(ctx context.Context, title string, start, end time.Time) (*entry.Event, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	ev := entry.NewEvent(strings.TrimSpace(title), start, end, j.cal, j.now())
	if err := j.repo.SaveEvent(ctx, ev); err != nil {
		return nil, fmt.Errorf("journal: save event: %w", err)
	}
	j.events = replace(j.events, ev, func(e *entry.Event) string { return e.ID })
	return ev.Clone(), nil
}

// DeleteEvent removes an event.
func (j *Journal) DeleteEvent(ctx context.Context, id string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	for i, ev := range j.events {
		if ev.ID != id {
			continue
		}
		if err := j.repo.DeleteEvent(ctx, ev); err != nil {
			return fmt.Errorf("journal: delete event: %w", err)
		}
		j.events = append(j.events[:i], j.events[i+1:]...)
		return nil
	}
	return fmt.Errorf("%w: event %s", ErrNotFound, id)
}

// Edit changes an entry. Nil fields are left alone.
type Edit struct {
	Title  *string
	Period *period.Period
	Date   *time.Time
}

// EditEntry applies edit. Moving the preferred date or period migrates the
// entry off its old spreads and onto the best spread for the new slot, or
// into the inbox when there is none.
func (j *Journal) EditEntry(ctx context.Context, id string, edit Edit) (entry.Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	found, err := j.findEntry(id)
	if err != nil {
		return entry.Entry{}, err
	}
	e := found.Clone()
	now := j.now()

	if edit.Title != nil {
		e.SetTitle(strings.TrimSpace(*edit.Title))
	}
	if edit.Period != nil || edit.Date != nil {
		old := e.Slot()
		p, date := old.Period, old.Date
		if edit.Period != nil {
			p = *edit.Period
		}
		if edit.Date != nil {
			date = *edit.Date
		}
		if err := j.checkEntryDate(p, date, now); err != nil {
			return entry.Entry{}, err
		}
		if next := period.NewSlot(p, date, j.cal); !next.Equal(old) {
			j.reassign(e, old, next, now)
		}
	}

	if err := j.persist(ctx, e); err != nil {
		return entry.Entry{}, err
	}
	j.rebuild()
	return e.Clone(), nil
}

// reassign moves e's preferred slot from old to next.
func (j *Journal) reassign(e entry.Entry, old, next period.Slot, now time.Time) {
	for _, p := range old.Period.Chain() {
		e.MarkMigrated(period.NewSlot(p, old.Date, j.cal), now)
	}
	e.SetPreferred(next)
	if best, ok := j.bestSpread(next, j.indexed); ok {
		e.PlaceOpen(best.Slot(), now)
	}
	j.logger.Info("entry moved", "id", e.ID(), "from", old.Key(), "to", next.Key(), "inbox", j.inboxed(e))
}

// Complete marks a task complete.
func (j *Journal) Complete(ctx context.Context, id string) (*entry.Task, error) {
	return j.setTaskStatus(ctx, id, entry.TaskComplete)
}

// Cancel marks a task cancelled. Cancelled tasks leave the inbox and cannot
// be migrated.
func (j *Journal) Cancel(ctx context.Context, id string) (*entry.Task, error) {
	return j.setTaskStatus(ctx, id, entry.TaskCancelled)
}

// Reopen marks a task open again.
func (j *Journal) Reopen(ctx context.Context, id string) (*entry.Task, error) {
	return j.setTaskStatus(ctx, id, entry.TaskOpen)
}

func (j *Journal) setTaskStatus(ctx context.Context, id string, status entry.TaskStatus) (*entry.Task, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	found, err := j.findEntry(id)
	if err != nil {
		return nil, err
	}
	if found.Kind != entry.KindTask {
		return nil, fmt.Errorf("%w: %s", ErrNotTask, found.Title())
	}
	t := found.Task.Clone()
	t.SetStatus(status, j.now())
	if err := j.persist(ctx, entry.FromTask(t)); err != nil {
		return nil, err
	}
	j.rebuild()
	return t.Clone(), nil
}
