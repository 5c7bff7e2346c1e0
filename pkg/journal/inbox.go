package journal

import (
	"tableflip.dev/spreads/pkg/entry"
	"tableflip.dev/spreads/pkg/period"
	"tableflip.dev/spreads/pkg/spread"
)

// lookupFunc resolves a slot key to a spread.
type lookupFunc func(key string) (spread.Spread, bool)

func (j *Journal) indexed(key string) (spread.Spread, bool) {
	p, ok := j.index[key]
	if !ok {
		return spread.Spread{}, false
	}
	return p.spread, true
}

// with extends the index with a spread that does not exist yet.
func (j *Journal) with(extra spread.Spread) lookupFunc {
	return func(key string) (spread.Spread, bool) {
		if key == extra.Key() {
			return extra, true
		}
		return j.indexed(key)
	}
}

// bestSpread searches from the slot's own period up to the year for an
// existing spread covering the slot's date. Multiday spreads never match.
func (j *Journal) bestSpread(slot period.Slot, lookup lookupFunc) (spread.Spread, bool) {
	for _, p := range slot.Period.Chain() {
		if sp, ok := lookup(period.NewSlot(p, slot.Date, j.cal).Key()); ok {
			return sp, true
		}
	}
	return spread.Spread{}, false
}

// BestSpread is the spread an entry preferring slot belongs on, if any.
func (j *Journal) BestSpread(slot period.Slot) (spread.Spread, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.bestSpread(slot, j.indexed)
}

// inboxed reports whether none of the entry's assignments point at an
// existing spread. Migrated assignments are history and do not count.
// Cancelled tasks are never in the inbox.
func (j *Journal) inboxed(e entry.Entry) bool {
	if e.Cancelled() {
		return false
	}
	for _, slot := range e.Slots() {
		if status, _ := e.StatusAt(slot); e.Migrated(status) {
			continue
		}
		if _, ok := j.index[slot.Key()]; ok {
			return false
		}
	}
	return true
}

func (j *Journal) inbox() []entry.Entry {
	var out []entry.Entry
	for _, e := range j.entries() {
		if j.inboxed(e) {
			out = append(out, e)
		}
	}
	return out
}

// Inbox lists copies of the entries that sit on no existing spread.
func (j *Journal) Inbox() []entry.Entry {
	j.mu.RLock()
	defer j.mu.RUnlock()
	in := j.inbox()
	for i := range in {
		in[i] = in[i].Clone()
	}
	return in
}
