package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"tableflip.dev/spreads/pkg/config"
	"tableflip.dev/spreads/pkg/journal"
	"tableflip.dev/spreads/pkg/logging"
	"tableflip.dev/spreads/pkg/period"
	"tableflip.dev/spreads/pkg/syncer"
)

var now = time.Date(2026, 2, 4, 10, 0, 0, 0, time.Local)

func open(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a, err := Open(context.Background(), cfg, WithLogger(logging.Discard()), WithNow(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func testConfig(dir, remote string) *config.Config {
	return &config.Config{
		Path:         dir,
		FirstWeekday: time.Sunday,
		Mode:         journal.Conventional,
		Sync: config.Sync{
			Enabled:  remote != "",
			Remote:   remote,
			Interval: time.Hour,
		},
		Log: config.Log{Level: "info"},
	}
}

func TestOpenLocalOnly(t *testing.T) {
	a := open(t, testConfig(t.TempDir(), ""))
	if st := a.Sync.Status(); st.State != syncer.LocalOnly {
		t.Fatalf("expected localOnly, got %s", st)
	}
	if a.Store.Device() == "" {
		t.Fatal("expected a device id")
	}
	if _, err := a.Sync.Sync(context.Background()); err == nil {
		t.Fatal("expected sync to be refused")
	}
}

func TestOpenRequiresConfig(t *testing.T) {
	if _, err := Open(context.Background(), nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestTwoDevicesShareARemote(t *testing.T) {
	ctx := context.Background()
	shared := filepath.Join(t.TempDir(), "remote.db")
	a := open(t, testConfig(t.TempDir(), shared))
	b := open(t, testConfig(t.TempDir(), shared))

	if a.Store.Device() == b.Store.Device() {
		t.Fatal("devices should differ")
	}

	task, err := a.Journal.AddTask(ctx, "call the plumber", period.Day, now)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if st, err := a.Sync.Sync(ctx); err != nil || st.State != syncer.Synced {
		t.Fatalf("sync a: %s %v", st, err)
	}
	if st, err := b.Sync.Sync(ctx); err != nil || st.State != syncer.Synced {
		t.Fatalf("sync b: %s %v", st, err)
	}

	got, err := b.Journal.Entry(task.ID)
	if err != nil {
		t.Fatalf("expected b to see the task after sync: %v", err)
	}
	if got.Title() != "call the plumber" {
		t.Fatalf("unexpected title %q", got.Title())
	}
}

func TestWatchStopsWithContext(t *testing.T) {
	a := open(t, testConfig(t.TempDir(), ""))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Watch(ctx, nil) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watch: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
