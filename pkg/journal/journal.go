// Package journal is the coordinator over spreads and entries. It owns the
// in-memory state, enforces the assignment rules and rebuilds the spread
// index after every mutation. All mutations are serialized.
package journal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"tableflip.dev/spreads/pkg/entry"
	"tableflip.dev/spreads/pkg/period"
	"tableflip.dev/spreads/pkg/spread"
	"tableflip.dev/spreads/pkg/store"
)

// Mode selects how a spread's entries are listed.
type Mode string

const (
	// Conventional lists every entry ever placed on the spread, migrated
	// ones included.
	Conventional Mode = "conventional"
	// Traditional lists each entry only on its most specific matching spread.
	Traditional Mode = "traditional"
)

// ParseMode reads a display mode; empty means conventional.
func ParseMode(raw string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(raw))); m {
	case "", Conventional:
		return Conventional, nil
	case Traditional:
		return Traditional, nil
	}
	return "", fmt.Errorf("journal: unknown mode %q", raw)
}

// Options configures a Journal.
type Options struct {
	Calendar period.Calendar
	Mode     Mode
	// ProtectYearSpreads refuses to delete a year spread that still holds
	// live entries, since they would fall to the inbox.
	ProtectYearSpreads bool
	Now                func() time.Time
	Logger             *slog.Logger
}

// Journal coordinates spreads, tasks, notes and events.
type Journal struct {
	mu   sync.RWMutex
	repo store.Repository
	cal  period.Calendar
	mode Mode

	protectYears bool
	now          func() time.Time
	logger       *slog.Logger

	spreads []spread.Spread
	tasks   []*entry.Task
	notes   []*entry.Note
	events  []*entry.Event

	// index maps spread keys to the spread that owns the key and the
	// entries assigned there. Duplicate spreads are not indexed.
	index map[string]*page
}

type page struct {
	spread spread.Spread
	tasks  []*entry.Task
	notes  []*entry.Note
}

// New loads a journal from repo.
func New(ctx context.Context, repo store.Repository, opts Options) (*Journal, error) {
	j := &Journal{
		repo:         repo,
		cal:          opts.Calendar,
		mode:         opts.Mode,
		protectYears: opts.ProtectYearSpreads,
		now:          opts.Now,
		logger:       opts.Logger,
	}
	if j.mode == "" {
		j.mode = Conventional
	}
	if j.now == nil {
		j.now = time.Now
	}
	if j.logger == nil {
		j.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := j.load(ctx); err != nil {
		return nil, err
	}
	return j, nil
}

// Calendar returns the calendar dates are normalized with.
func (j *Journal) Calendar() period.Calendar {
	return j.cal
}

// Mode returns the configured display mode.
func (j *Journal) Mode() Mode {
	return j.mode
}

// Today is the current day in the journal's calendar.
func (j *Journal) Today() time.Time {
	return j.cal.StartOfDay(j.now())
}

// Reload replaces the in-memory state with the repository's. Sync calls it
// after applying remote changes.
func (j *Journal) Reload(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.load(ctx)
}

// load reads everything before touching memory, so a failed read leaves the
// previous state in place.
func (j *Journal) load(ctx context.Context) error {
	spreads, err := j.repo.Spreads(ctx)
	if err != nil {
		return fmt.Errorf("journal: load spreads: %w", err)
	}
	tasks, err := j.repo.Tasks(ctx)
	if err != nil {
		return fmt.Errorf("journal: load tasks: %w", err)
	}
	notes, err := j.repo.Notes(ctx)
	if err != nil {
		return fmt.Errorf("journal: load notes: %w", err)
	}
	events, err := j.repo.Events(ctx)
	if err != nil {
		return fmt.Errorf("journal: load events: %w", err)
	}
	j.spreads, j.tasks, j.notes, j.events = spreads, tasks, notes, events
	j.rebuild()
	return nil
}

// rebuild recomputes the spread index. When sync brought in two spreads for
// the same key, the earliest created one wins.
func (j *Journal) rebuild() {
	ordered := append([]spread.Spread(nil), j.spreads...)
	sort.SliceStable(ordered, func(a, b int) bool {
		if !ordered[a].Created.Equal(ordered[b].Created) {
			return ordered[a].Created.Before(ordered[b].Created)
		}
		return ordered[a].ID < ordered[b].ID
	})
	index := make(map[string]*page, len(ordered))
	for _, sp := range ordered {
		key := sp.Key()
		if _, taken := index[key]; taken {
			continue
		}
		index[key] = &page{spread: sp}
	}
	for _, t := range j.tasks {
		for _, a := range t.Assignments {
			if p, ok := index[a.Slot().Key()]; ok {
				p.tasks = append(p.tasks, t)
			}
		}
	}
	for _, n := range j.notes {
		for _, a := range n.Assignments {
			if p, ok := index[a.Slot().Key()]; ok {
				p.notes = append(p.notes, n)
			}
		}
	}
	j.index = index
}

// canonical returns the indexed spreads in journal order.
func (j *Journal) canonical() []spread.Spread {
	out := make([]spread.Spread, 0, len(j.index))
	for _, p := range j.index {
		out = append(out, p.spread)
	}
	sort.SliceStable(out, func(a, b int) bool {
		return spread.Before(out[a], out[b])
	})
	return out
}

// Spreads lists the journal's spreads, earliest first.
func (j *Journal) Spreads() []spread.Spread {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.canonical()
}

// Spread finds a spread by ID.
func (j *Journal) Spread(id string) (spread.Spread, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.findSpread(id)
}

// SpreadAt finds the spread for slot.
func (j *Journal) SpreadAt(slot period.Slot) (spread.Spread, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	p, ok := j.index[period.NewSlot(slot.Period, slot.Date, j.cal).Key()]
	if !ok {
		return spread.Spread{}, false
	}
	return p.spread, true
}

func (j *Journal) findSpread(id string) (spread.Spread, error) {
	for _, sp := range j.spreads {
		if sp.ID == id {
			return sp, nil
		}
	}
	return spread.Spread{}, fmt.Errorf("%w: spread %s", ErrNotFound, id)
}

// Tasks returns copies of every task.
func (j *Journal) Tasks() []*entry.Task {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]*entry.Task, len(j.tasks))
	for i, t := range j.tasks {
		out[i] = t.Clone()
	}
	return out
}

// Notes returns copies of every note.
func (j *Journal) Notes() []*entry.Note {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]*entry.Note, len(j.notes))
	for i, n := range j.notes {
		out[i] = n.Clone()
	}
	return out
}

// Events returns copies of every event.
func (j *Journal) Events() []*entry.Event {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]*entry.Event, len(j.events))
	for i, e := range j.events {
		out[i] = e.Clone()
	}
	return out
}

// Entry returns a copy of the task or note with id.
func (j *Journal) Entry(id string) (entry.Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	e, err := j.findEntry(id)
	if err != nil {
		return entry.Entry{}, err
	}
	return e.Clone(), nil
}

func (j *Journal) findEntry(id string) (entry.Entry, error) {
	for _, t := range j.tasks {
		if t.ID == id {
			return entry.FromTask(t), nil
		}
	}
	for _, n := range j.notes {
		if n.ID == id {
			return entry.FromNote(n), nil
		}
	}
	return entry.Entry{}, fmt.Errorf("%w: entry %s", ErrNotFound, id)
}

// entries lists every task and note, tasks first.
func (j *Journal) entries() []entry.Entry {
	out := make([]entry.Entry, 0, len(j.tasks)+len(j.notes))
	for _, t := range j.tasks {
		out = append(out, entry.FromTask(t))
	}
	for _, n := range j.notes {
		out = append(out, entry.FromNote(n))
	}
	return out
}

// persist saves e and swaps it into memory. Memory is untouched if the save
// fails.
func (j *Journal) persist(ctx context.Context, e entry.Entry) error {
	switch e.Kind {
	case entry.KindTask:
		if err := j.repo.SaveTask(ctx, e.Task); err != nil {
			return fmt.Errorf("journal: save task %s: %w", e.Task.ID, err)
		}
		j.tasks = replace(j.tasks, e.Task, func(t *entry.Task) string { return t.ID })
	case entry.KindNote:
		if err := j.repo.SaveNote(ctx, e.Note); err != nil {
			return fmt.Errorf("journal: save note %s: %w", e.Note.ID, err)
		}
		j.notes = replace(j.notes, e.Note, func(n *entry.Note) string { return n.ID })
	}
	return nil
}

// persistAll saves each entry in order and returns the versions they
// replaced. If a save fails, the entries already saved are put back.
func (j *Journal) persistAll(ctx context.Context, next []entry.Entry) ([]entry.Entry, error) {
	prev := make([]entry.Entry, 0, len(next))
	for _, e := range next {
		old, err := j.findEntry(e.ID())
		if err != nil {
			j.restore(ctx, prev)
			return nil, err
		}
		old = old.Clone()
		if err := j.persist(ctx, e); err != nil {
			j.restore(ctx, prev)
			return nil, err
		}
		prev = append(prev, old)
	}
	return prev, nil
}

// restore saves prev back, latest first.
func (j *Journal) restore(ctx context.Context, prev []entry.Entry) {
	for i := len(prev) - 1; i >= 0; i-- {
		if err := j.persist(ctx, prev[i]); err != nil {
			j.logger.Error("rollback failed", "id", prev[i].ID(), "err", err)
		}
	}
}

func replace[T any](list []T, v T, id func(T) string) []T {
	for i := range list {
		if id(list[i]) == id(v) {
			list[i] = v
			return list
		}
	}
	return append(list, v)
}
