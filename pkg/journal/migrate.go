package journal

import (
	"context"
	"fmt"
	"sort"
	"time"

	"tableflip.dev/spreads/pkg/entry"
	"tableflip.dev/spreads/pkg/period"
	"tableflip.dev/spreads/pkg/spread"
)

// Migrate moves an entry from the spread at from to the spread at to. The
// source assignment is kept as migrated and the destination is opened; a
// completed task stays complete there. The destination must lie within the
// source period, or for a move between two days or two months, within the
// same month or year. Nothing changes when any check fails.
func (j *Journal) Migrate(ctx context.Context, id string, from, to period.Slot) (entry.Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, ev := range j.events {
		if ev.ID == id {
			return entry.Entry{}, fmt.Errorf("%w: %s", ErrEventMigrationNotSupported, ev.Title)
		}
	}
	found, err := j.findEntry(id)
	if err != nil {
		return entry.Entry{}, err
	}
	if found.Cancelled() {
		return entry.Entry{}, fmt.Errorf("%w: %s", ErrTaskCancelled, found.Title())
	}
	if !to.Period.Assignable() {
		return entry.Entry{}, fmt.Errorf("%w: %s", ErrDestinationNotAssignable, to.Period)
	}
	from = period.NewSlot(from.Period, from.Date, j.cal)
	to = period.NewSlot(to.Period, to.Date, j.cal)
	if !j.within(from, to) {
		return entry.Entry{}, fmt.Errorf("%w: %s to %s", ErrNotDescendant, from, to)
	}
	if _, ok := found.StatusAt(from); !ok {
		return entry.Entry{}, fmt.Errorf("%w: %s", ErrNoSourceAssignment, from)
	}
	dest, ok := j.indexed(to.Key())
	if !ok {
		return entry.Entry{}, fmt.Errorf("%w: no spread for %s", ErrNotFound, to)
	}

	now := j.now()
	e := found.Clone()
	migrated := string(entry.TaskMigrated)
	if e.Kind == entry.KindNote {
		migrated = string(entry.NoteMigrated)
	}
	e.PlaceStatus(from, migrated, now)
	if e.Kind == entry.KindTask && e.Task.Status == entry.TaskComplete {
		e.PlaceStatus(dest.Slot(), string(entry.TaskComplete), now)
	} else {
		e.PlaceOpen(dest.Slot(), now)
	}
	e.Refresh()

	if err := j.persist(ctx, e); err != nil {
		return entry.Entry{}, err
	}
	j.rebuild()
	j.logger.Info("entry migrated", "id", e.ID(), "from", from.Key(), "to", to.Key())
	return e.Clone(), nil
}

// within reports whether to is a valid migration destination from from. Years
// have no sibling to move to.
func (j *Journal) within(from, to period.Slot) bool {
	switch fr, tr := from.Period.Rank(), to.Period.Rank(); {
	case tr > fr:
		return false
	case tr < fr:
		return j.cal.Contains(from.Period, from.Date, to.Date)
	}
	parent, ok := from.Period.Ancestor()
	return ok && j.cal.Contains(parent, from.Date, to.Date)
}

// Candidate is an open task left behind on a past spread.
type Candidate struct {
	Task *entry.Task
	// From is the spread the task is open on.
	From spread.Spread
	// To is the best spread for today, if one exists.
	To *spread.Spread
}

// MigrationCandidates lists open tasks whose current assignment sits on a
// spread that ended before today.
func (j *Journal) MigrationCandidates() []Candidate {
	j.mu.RLock()
	defer j.mu.RUnlock()

	now := j.now()
	var to *spread.Spread
	if best, ok := j.bestSpread(period.NewSlot(period.Day, now, j.cal), j.indexed); ok {
		to = &best
	}

	var out []Candidate
	for _, t := range j.tasks {
		if t.Status != entry.TaskOpen {
			continue
		}
		a, ok := t.Current()
		if !ok || a.Status != entry.TaskOpen {
			continue
		}
		from, ok := j.indexed(a.Slot().Key())
		if !ok || !past(from, now, j.cal) {
			continue
		}
		c := Candidate{Task: t.Clone(), From: from}
		if to != nil && to.ID != from.ID {
			dest := *to
			c.To = &dest
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(a, b int) bool {
		return spread.Before(out[a].From, out[b].From)
	})
	return out
}

// past reports whether sp lies before today at its own granularity.
func past(sp spread.Spread, now time.Time, cal period.Calendar) bool {
	return sp.Date.Before(cal.Normalize(sp.Period, now))
}

// CurrentSlot is the slot an entry is currently open on, which is the
// default source for a migration.
func (j *Journal) CurrentSlot(id string) (period.Slot, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	e, err := j.findEntry(id)
	if err != nil {
		return period.Slot{}, err
	}
	slot, _, ok := e.Current()
	if !ok {
		return period.Slot{}, fmt.Errorf("%w: %s", ErrNoSourceAssignment, e.Title())
	}
	return slot, nil
}
