package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"tableflip.dev/spreads/pkg/change"
	"tableflip.dev/spreads/pkg/entry"
	"tableflip.dev/spreads/pkg/period"
	"tableflip.dev/spreads/pkg/spread"
	"tableflip.dev/spreads/pkg/store"
)

var cal = period.Calendar{FirstWeekday: time.Sunday, Location: time.UTC}

func feb(d int) time.Time {
	return time.Date(2026, time.February, d, 0, 0, 0, 0, time.UTC)
}

// memoryRemote is a change feed that merges pushes with the same rules as
// the local store.
type memoryRemote struct {
	mu   sync.Mutex
	docs map[string]change.Document
	rows map[string]int64
	seq  int64

	pullErr error
	pushErr error
	started chan struct{}
	release chan struct{}
}

func newMemoryRemote() *memoryRemote {
	return &memoryRemote{docs: make(map[string]change.Document), rows: make(map[string]int64)}
}

func (m *memoryRemote) Pull(ctx context.Context, cursor int64) (Batch, error) {
	m.mu.Lock()
	started, release, pullErr := m.started, m.release, m.pullErr
	m.mu.Unlock()
	if started != nil {
		close(started)
		select {
		case <-release:
		case <-ctx.Done():
			return Batch{}, ctx.Err()
		}
	}
	if pullErr != nil {
		return Batch{}, pullErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k, seq := range m.rows {
		if seq > cursor {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return m.rows[keys[i]] < m.rows[keys[j]] })
	b := Batch{Cursor: m.seq}
	for _, k := range keys {
		b.Documents = append(b.Documents, m.docs[k].Clone())
	}
	return b, nil
}

func (m *memoryRemote) Push(_ context.Context, docs []change.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pushErr != nil {
		return m.pushErr
	}
	for _, doc := range docs {
		doc.Seq = 0
		if cur, ok := m.docs[doc.Key()]; ok {
			doc = change.Merge(cur, doc)
			if change.Equal(cur, doc) {
				continue
			}
		}
		m.seq++
		m.docs[doc.Key()] = doc
		m.rows[doc.Key()] = m.seq
	}
	return nil
}

type device struct {
	store  *store.Store
	engine *Engine
	now    time.Time
}

func newDevice(name string, remote Remote, start time.Time) *device {
	d := &device{now: start}
	d.store = store.NewMemory(name, store.WithNow(func() time.Time { return d.now }))
	d.engine = New(d.store, remote, Options{Enabled: true, Now: func() time.Time { return d.now }})
	return d
}

func (d *device) sync(t *testing.T) {
	t.Helper()
	if _, err := d.engine.Sync(context.Background()); err != nil {
		t.Fatalf("sync %s: %v", d.store.Device(), err)
	}
}

func TestDevicesConverge(t *testing.T) {
	ctx := context.Background()
	remote := newMemoryRemote()
	a := newDevice("a", remote, feb(4))
	b := newDevice("b", remote, feb(4))

	sp := spread.New(period.Day, feb(5), cal, feb(4))
	if err := a.store.SaveSpread(ctx, sp); err != nil {
		t.Fatalf("save: %v", err)
	}
	a.sync(t)
	b.sync(t)

	spreads, _ := b.store.Spreads(ctx)
	if len(spreads) != 1 || spreads[0].ID != sp.ID {
		t.Fatalf("spread did not reach b: %+v", spreads)
	}
	if st := b.engine.Status(); st.State != Synced || !st.LastSync.Equal(feb(4)) {
		t.Fatalf("unexpected status %v", st)
	}

	b.now = feb(4).Add(time.Hour)
	if err := b.store.DeleteSpread(ctx, sp); err != nil {
		t.Fatalf("delete: %v", err)
	}
	b.sync(t)
	a.sync(t)
	if spreads, _ := a.store.Spreads(ctx); len(spreads) != 0 {
		t.Fatalf("delete did not reach a: %+v", spreads)
	}
}

func TestConcurrentEditsMergePerField(t *testing.T) {
	ctx := context.Background()
	remote := newMemoryRemote()
	a := newDevice("a", remote, feb(4))
	b := newDevice("b", remote, feb(4))

	task := entry.NewTask("write", period.Day, feb(5), cal, feb(4))
	if err := a.store.SaveTask(ctx, task); err != nil {
		t.Fatalf("save: %v", err)
	}
	a.sync(t)
	b.sync(t)

	// a renames offline; b completes later. Both survive.
	a.now = feb(4).Add(time.Minute)
	renamed := task.Clone()
	renamed.Title = "write report"
	if err := a.store.SaveTask(ctx, renamed); err != nil {
		t.Fatalf("save a: %v", err)
	}
	b.now = feb(4).Add(2 * time.Minute)
	done := task.Clone()
	done.Status = entry.TaskComplete
	if err := b.store.SaveTask(ctx, done); err != nil {
		t.Fatalf("save b: %v", err)
	}

	a.sync(t)
	b.sync(t)
	a.sync(t)

	for _, d := range []*device{a, b} {
		tasks, _ := d.store.Tasks(ctx)
		if len(tasks) != 1 {
			t.Fatalf("%s: expected one task, got %d", d.store.Device(), len(tasks))
		}
		if tasks[0].Title != "write report" || tasks[0].Status != entry.TaskComplete {
			t.Fatalf("%s: did not converge: %q %s", d.store.Device(), tasks[0].Title, tasks[0].Status)
		}
	}
}

func TestFailedCycleKeepsCheckpoint(t *testing.T) {
	ctx := context.Background()
	remote := newMemoryRemote()
	d := newDevice("a", remote, feb(4))
	if err := d.store.SaveSpread(ctx, spread.New(period.Month, feb(4), cal, feb(4))); err != nil {
		t.Fatalf("save: %v", err)
	}

	remote.pushErr = errors.New("backend exploded")
	st, err := d.engine.Sync(ctx)
	if err == nil || st.State != Error {
		t.Fatalf("expected error status, got %v %v", st, err)
	}
	if cp, _ := d.store.Checkpoint(ctx); cp != (change.Checkpoint{}) {
		t.Fatalf("checkpoint advanced on failure: %+v", cp)
	}

	remote.pushErr = nil
	d.sync(t)
	cp, _ := d.store.Checkpoint(ctx)
	if cp.LocalSeq == 0 || cp.RemoteCursor != 0 {
		t.Fatalf("unexpected checkpoint %+v", cp)
	}
	if len(remote.docs) != 1 {
		t.Fatalf("retry did not push the pending change: %d", len(remote.docs))
	}
}

func TestRemoteFailuresMapToStates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want State
	}{
		{"unreachable", fmt.Errorf("open: %w", ErrUnreachable), Offline},
		{"revoked", fmt.Errorf("auth: %w", ErrCredentialsRevoked), BackupUnavailable},
		{"other", errors.New("boom"), Error},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := newMemoryRemote()
			remote.pullErr = tt.err
			d := newDevice("a", remote, feb(4))
			st, err := d.engine.Sync(context.Background())
			if !errors.Is(err, tt.err) || st.State != tt.want {
				t.Fatalf("expected %s, got %v (%v)", tt.want, st, err)
			}
		})
	}
}

func TestLocalOnly(t *testing.T) {
	e := New(store.NewMemory("a"), newMemoryRemote(), Options{})
	if st, err := e.Sync(context.Background()); !errors.Is(err, ErrLocalOnly) || st.State != LocalOnly {
		t.Fatalf("expected local only, got %v %v", st, err)
	}
	if err := e.Run(context.Background(), nil); !errors.Is(err, ErrLocalOnly) {
		t.Fatalf("expected run to refuse, got %v", err)
	}
}

func TestSyncIsSerializedAndCancellable(t *testing.T) {
	remote := newMemoryRemote()
	remote.started = make(chan struct{})
	remote.release = make(chan struct{})
	d := newDevice("a", remote, feb(4))

	done := make(chan error, 1)
	go func() {
		_, err := d.engine.Sync(context.Background())
		done <- err
	}()
	<-remote.started

	if _, err := d.engine.Sync(context.Background()); !errors.Is(err, ErrInProgress) {
		t.Fatalf("expected in progress, got %v", err)
	}
	if st := d.engine.Status(); st.State != Syncing {
		t.Fatalf("expected syncing, got %v", st)
	}

	d.engine.Cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected cancellation, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancel did not stop the cycle")
	}
	if st := d.engine.Status(); st.State != Error {
		t.Fatalf("expected error after cancel, got %v", st)
	}
	if cp, _ := d.store.Checkpoint(context.Background()); cp != (change.Checkpoint{}) {
		t.Fatalf("checkpoint advanced after cancel: %+v", cp)
	}
}

func TestReachabilityTriggersSync(t *testing.T) {
	d := newDevice("a", newMemoryRemote(), feb(4))
	d.engine.SetReachable(false)
	if st := d.engine.Status(); st.State != Offline {
		t.Fatalf("expected offline, got %v", st)
	}

	updates, cancel := d.engine.Subscribe()
	defer cancel()
	d.engine.SetReachable(true)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case st := <-updates:
			if st.State == Synced {
				return
			}
		case <-deadline:
			t.Fatalf("no sync after reconnect, status %v", d.engine.Status())
		}
	}
}

func TestOnAppliedSeesRemoteChanges(t *testing.T) {
	ctx := context.Background()
	remote := newMemoryRemote()
	a := newDevice("a", remote, feb(4))
	if err := a.store.SaveSpread(ctx, spread.New(period.Day, feb(5), cal, feb(4))); err != nil {
		t.Fatalf("save: %v", err)
	}
	a.sync(t)

	var got []change.Document
	b := store.NewMemory("b")
	e := New(b, remote, Options{Enabled: true, OnApplied: func(_ context.Context, docs []change.Document) {
		got = append(got, docs...)
	}})
	if _, err := e.Sync(ctx); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if len(got) != 1 || got[0].Kind != change.KindSpread {
		t.Fatalf("unexpected applied documents %+v", got)
	}

	got = nil
	if _, err := e.Sync(ctx); err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("nothing new should be applied, got %d", len(got))
	}
}

func TestLogIsBounded(t *testing.T) {
	l := NewLog(3)
	logger := slog.New(l.Handler(slog.NewTextHandler(discard{}, nil))).With("component", "sync")
	for i := 0; i < 5; i++ {
		logger.Info("cycle", "n", i)
	}
	logger.Debug("hidden")

	records := l.Records()
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].Message != "cycle component=sync n=2" || records[2].Message != "cycle component=sync n=4" {
		t.Fatalf("unexpected records %+v", records)
	}
	l.Clear()
	if l.Len() != 0 || len(l.Records()) != 0 {
		t.Fatal("clear left records behind")
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
