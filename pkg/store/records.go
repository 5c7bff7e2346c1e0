package store

import (
	"context"
	"sort"

	"tableflip.dev/spreads/pkg/change"
	"tableflip.dev/spreads/pkg/entry"
	"tableflip.dev/spreads/pkg/spread"
)

// TaskRepository loads and saves tasks.
type TaskRepository interface {
	Tasks(ctx context.Context) ([]*entry.Task, error)
	SaveTask(ctx context.Context, t *entry.Task) error
}

// NoteRepository loads and saves notes.
type NoteRepository interface {
	Notes(ctx context.Context) ([]*entry.Note, error)
	SaveNote(ctx context.Context, n *entry.Note) error
}

// SpreadRepository loads, saves and deletes spreads.
type SpreadRepository interface {
	Spreads(ctx context.Context) ([]spread.Spread, error)
	SaveSpread(ctx context.Context, s spread.Spread) error
	DeleteSpread(ctx context.Context, s spread.Spread) error
}

// EventRepository loads, saves and deletes events.
type EventRepository interface {
	Events(ctx context.Context) ([]*entry.Event, error)
	SaveEvent(ctx context.Context, e *entry.Event) error
	DeleteEvent(ctx context.Context, e *entry.Event) error
}

// Repository is everything the journal coordinator persists through.
type Repository interface {
	TaskRepository
	NoteRepository
	SpreadRepository
	EventRepository
}

var _ Repository = (*Store)(nil)

func (s *Store) Tasks(ctx context.Context) ([]*entry.Task, error) {
	var all []*entry.Task
	err := s.each(ctx, change.KindTask, func(doc change.Document) error {
		t := &entry.Task{}
		if err := doc.Decode(t); err != nil {
			s.logger.Warn("skipping task", "id", doc.ID, "err", err)
			return nil
		}
		all = append(all, t)
		return nil
	})
	sort.SliceStable(all, func(i, j int) bool {
		return createdBefore(all[i].Created.UnixNano(), all[i].ID, all[j].Created.UnixNano(), all[j].ID)
	})
	return all, err
}

func (s *Store) SaveTask(ctx context.Context, t *entry.Task) error {
	return s.save(ctx, change.KindTask, t.ID, t)
}

func (s *Store) Notes(ctx context.Context) ([]*entry.Note, error) {
	var all []*entry.Note
	err := s.each(ctx, change.KindNote, func(doc change.Document) error {
		n := &entry.Note{}
		if err := doc.Decode(n); err != nil {
			s.logger.Warn("skipping note", "id", doc.ID, "err", err)
			return nil
		}
		all = append(all, n)
		return nil
	})
	sort.SliceStable(all, func(i, j int) bool {
		return createdBefore(all[i].Created.UnixNano(), all[i].ID, all[j].Created.UnixNano(), all[j].ID)
	})
	return all, err
}

func (s *Store) SaveNote(ctx context.Context, n *entry.Note) error {
	return s.save(ctx, change.KindNote, n.ID, n)
}

func (s *Store) Spreads(ctx context.Context) ([]spread.Spread, error) {
	var all []spread.Spread
	err := s.each(ctx, change.KindSpread, func(doc change.Document) error {
		var sp spread.Spread
		if err := doc.Decode(&sp); err != nil {
			s.logger.Warn("skipping spread", "id", doc.ID, "err", err)
			return nil
		}
		all = append(all, sp)
		return nil
	})
	sort.SliceStable(all, func(i, j int) bool {
		return spread.Before(all[i], all[j])
	})
	return all, err
}

func (s *Store) SaveSpread(ctx context.Context, sp spread.Spread) error {
	return s.save(ctx, change.KindSpread, sp.ID, sp)
}

func (s *Store) DeleteSpread(ctx context.Context, sp spread.Spread) error {
	return s.remove(ctx, change.KindSpread, sp.ID)
}

func (s *Store) Events(ctx context.Context) ([]*entry.Event, error) {
	var all []*entry.Event
	err := s.each(ctx, change.KindEvent, func(doc change.Document) error {
		e := &entry.Event{}
		if err := doc.Decode(e); err != nil {
			s.logger.Warn("skipping event", "id", doc.ID, "err", err)
			return nil
		}
		all = append(all, e)
		return nil
	})
	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].Start.Equal(all[j].Start) {
			return all[i].Start.Before(all[j].Start)
		}
		return all[i].ID < all[j].ID
	})
	return all, err
}

func (s *Store) SaveEvent(ctx context.Context, e *entry.Event) error {
	return s.save(ctx, change.KindEvent, e.ID, e)
}

func (s *Store) DeleteEvent(ctx context.Context, e *entry.Event) error {
	return s.remove(ctx, change.KindEvent, e.ID)
}

func createdBefore(lt int64, lid string, rt int64, rid string) bool {
	if lt == rt {
		return lid < rid
	}
	return lt < rt
}
