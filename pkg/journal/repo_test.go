package journal

import (
	"context"
	"errors"
	"sort"
	"sync"

	"tableflip.dev/spreads/pkg/entry"
	"tableflip.dev/spreads/pkg/spread"
)

var errInjected = errors.New("injected failure")

// memoryRepository keeps copies of everything it is given so tests can tell
// persisted state apart from the coordinator's in-memory state.
type memoryRepository struct {
	mu      sync.Mutex
	spreads map[string]spread.Spread
	tasks   map[string]*entry.Task
	notes   map[string]*entry.Note
	events  map[string]*entry.Event

	failSpreads bool
	failEntries bool
	// failNth fails the nth entry save from now, counting from one.
	failNth int
	saves   int
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		spreads: make(map[string]spread.Spread),
		tasks:   make(map[string]*entry.Task),
		notes:   make(map[string]*entry.Note),
		events:  make(map[string]*entry.Event),
	}
}

func (m *memoryRepository) Tasks(context.Context) ([]*entry.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*entry.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryRepository) SaveTask(_ context.Context, t *entry.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failEntry() {
		return errInjected
	}
	m.saves++
	m.tasks[t.ID] = t.Clone()
	return nil
}

func (m *memoryRepository) failEntry() bool {
	if m.failEntries {
		return true
	}
	if m.failNth > 0 {
		m.failNth--
		return m.failNth == 0
	}
	return false
}

func (m *memoryRepository) Notes(context.Context) ([]*entry.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*entry.Note, 0, len(m.notes))
	for _, n := range m.notes {
		out = append(out, n.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryRepository) SaveNote(_ context.Context, n *entry.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failEntry() {
		return errInjected
	}
	m.saves++
	m.notes[n.ID] = n.Clone()
	return nil
}

func (m *memoryRepository) Spreads(context.Context) ([]spread.Spread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]spread.Spread, 0, len(m.spreads))
	for _, s := range m.spreads {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return spread.Before(out[i], out[j]) })
	return out, nil
}

func (m *memoryRepository) SaveSpread(_ context.Context, s spread.Spread) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSpreads {
		return errInjected
	}
	m.spreads[s.ID] = s
	return nil
}

func (m *memoryRepository) DeleteSpread(_ context.Context, s spread.Spread) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSpreads {
		return errInjected
	}
	delete(m.spreads, s.ID)
	return nil
}

func (m *memoryRepository) Events(context.Context) ([]*entry.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*entry.Event, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryRepository) SaveEvent(_ context.Context, e *entry.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[e.ID] = e.Clone()
	return nil
}

func (m *memoryRepository) DeleteEvent(_ context.Context, e *entry.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.events, e.ID)
	return nil
}

func (m *memoryRepository) task(id string) *entry.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tasks[id].Clone()
}

func (m *memoryRepository) spreadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.spreads)
}
