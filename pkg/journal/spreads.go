package journal

import (
	"context"
	"fmt"
	"time"

	"tableflip.dev/spreads/pkg/entry"
	"tableflip.dev/spreads/pkg/period"
	"tableflip.dev/spreads/pkg/spread"
)

// CheckSpread reports whether a year, month or day spread could be created.
func (j *Journal) CheckSpread(p period.Period, date time.Time) spread.Verdict {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return spread.Check(p, date, j.canonical(), j.now(), j.cal)
}

// CheckMultiday reports whether a multiday spread could be created.
func (j *Journal) CheckMultiday(start, end time.Time) spread.Verdict {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return spread.CheckMultiday(start, end, j.canonical(), j.now(), j.cal)
}

// AddSpread creates a year, month or day spread and moves every inbox entry
// that now belongs on it onto it. The entries are saved before the spread;
// if any save fails, the ones already saved are restored and the spread is
// not created.
func (j *Journal) AddSpread(ctx context.Context, p period.Period, date time.Time) (spread.Spread, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	sp := spread.New(p, date, j.cal, now)
	if err := verdictError(spread.Check(p, date, j.canonical(), now, j.cal), sp.Title()); err != nil {
		return spread.Spread{}, err
	}

	// The candidates are taken from the inbox as it is before the spread
	// exists. Entries an existing spread already holds are left alone.
	var captured []entry.Entry
	lookup := j.with(sp)
	for _, e := range j.inbox() {
		if best, ok := j.bestSpread(e.Slot(), lookup); ok && best.ID == sp.ID {
			captured = append(captured, e)
		}
	}

	placed := make([]entry.Entry, 0, len(captured))
	for _, e := range captured {
		cp := e.Clone()
		cp.PlaceOpen(sp.Slot(), now)
		placed = append(placed, cp)
	}
	prev, err := j.persistAll(ctx, placed)
	if err != nil {
		j.rebuild()
		return spread.Spread{}, err
	}
	if err := j.repo.SaveSpread(ctx, sp); err != nil {
		j.restore(ctx, prev)
		j.rebuild()
		return spread.Spread{}, fmt.Errorf("journal: save spread: %w", err)
	}
	j.spreads = append(j.spreads, sp)
	j.rebuild()
	j.logger.Info("spread added", "spread", sp.Title(), "id", sp.ID, "resolved", len(placed))
	return sp, nil
}

// AddMultidaySpread creates a spread over [start, end]. Multiday spreads take
// no assignments, so nothing leaves the inbox.
func (j *Journal) AddMultidaySpread(ctx context.Context, start, end time.Time) (spread.Spread, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	sp := spread.NewMultiday(start, end, j.cal, now)
	if err := verdictError(spread.CheckMultiday(start, end, j.canonical(), now, j.cal), sp.Title()); err != nil {
		return spread.Spread{}, err
	}
	if err := j.repo.SaveSpread(ctx, sp); err != nil {
		return spread.Spread{}, fmt.Errorf("journal: save spread: %w", err)
	}
	j.spreads = append(j.spreads, sp)
	j.rebuild()
	j.logger.Info("spread added", "spread", sp.Title(), "id", sp.ID)
	return sp, nil
}

// DeleteSpread removes a spread. Every entry placed on it keeps its
// assignment; when a coarser spread exists for the same date the entry is
// also placed there with the same status, otherwise it falls to the inbox.
// A failed save restores every entry already moved.
func (j *Journal) DeleteSpread(ctx context.Context, id string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	sp, err := j.findSpread(id)
	if err != nil {
		return err
	}
	now := j.now()

	var moved []entry.Entry
	if owner, ok := j.index[sp.Key()]; ok && owner.spread.ID == sp.ID && sp.Period.Assignable() {
		parent, hasParent := j.parentOf(sp)
		affected := j.assignedTo(sp.Slot())
		if !hasParent && j.protectYears && sp.Period == period.Year && j.anyLive(affected, sp.Slot()) {
			return fmt.Errorf("%w: %s", ErrWouldOrphan, sp.Title())
		}
		if hasParent {
			for _, e := range affected {
				cp := e.Clone()
				status, _ := cp.StatusAt(sp.Slot())
				if _, placed := cp.StatusAt(parent.Slot()); placed && cp.Migrated(status) {
					continue
				}
				if cp.PlaceStatus(parent.Slot(), status, now) {
					moved = append(moved, cp)
				}
			}
		}
	}

	prev, err := j.persistAll(ctx, moved)
	if err != nil {
		j.rebuild()
		return err
	}
	if err := j.repo.DeleteSpread(ctx, sp); err != nil {
		j.restore(ctx, prev)
		j.rebuild()
		return fmt.Errorf("journal: delete spread: %w", err)
	}
	for i := range j.spreads {
		if j.spreads[i].ID == sp.ID {
			j.spreads = append(j.spreads[:i], j.spreads[i+1:]...)
			break
		}
	}
	j.rebuild()
	j.logger.Info("spread deleted", "spread", sp.Title(), "id", sp.ID, "reassigned", len(moved))
	return nil
}

// parentOf finds the nearest existing coarser spread for the same date.
func (j *Journal) parentOf(sp spread.Spread) (spread.Spread, bool) {
	chain := sp.Period.Chain()
	for _, p := range chain[1:] {
		if parent, ok := j.indexed(period.NewSlot(p, sp.Date, j.cal).Key()); ok {
			return parent, true
		}
	}
	return spread.Spread{}, false
}

// assignedTo lists entries with an assignment on slot, whatever its status.
func (j *Journal) assignedTo(slot period.Slot) []entry.Entry {
	var out []entry.Entry
	for _, e := range j.entries() {
		if _, ok := e.StatusAt(slot); ok {
			out = append(out, e)
		}
	}
	return out
}

func (j *Journal) anyLive(entries []entry.Entry, slot period.Slot) bool {
	for _, e := range entries {
		if e.Cancelled() {
			continue
		}
		if status, ok := e.StatusAt(slot); ok && !e.Migrated(status) {
			return true
		}
	}
	return false
}
