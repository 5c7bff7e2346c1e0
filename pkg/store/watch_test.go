package store

import (
	"context"
	"testing"
	"time"

	"tableflip.dev/spreads/pkg/change"
	"tableflip.dev/spreads/pkg/entry"
	"tableflip.dev/spreads/pkg/period"
)

type testConfig struct {
	path   string
	device string
}

func (t testConfig) BasePath() string {
	return t.path
}

func (t testConfig) Device() string {
	return t.device
}

func TestStoreWatchEmitsRecordChanges(t *testing.T) {
	base := t.TempDir()
	s, err := Load(testConfig{path: base, device: "laptop"})
	if err != nil {
		t.Fatalf("load store: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := s.Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	// Allow watcher goroutine to subscribe to directories before storing.
	time.Sleep(50 * time.Millisecond)

	now := time.Date(2026, time.February, 5, 9, 0, 0, 0, time.UTC)
	task := entry.NewTask("hello world", period.Day, now, period.Calendar{Location: time.UTC}, now)
	if err := s.SaveTask(ctx, task); err != nil {
		t.Fatalf("save task: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case evt := <-ch:
			if evt.Kind == "" {
				return
			}
			if evt.Kind != change.KindTask || evt.ID != task.ID {
				t.Fatalf("unexpected event %+v", evt)
			}
			return
		case <-deadline:
			t.Fatal("timed out waiting for record change event")
		}
	}
}

func TestWatchRequiresDisk(t *testing.T) {
	if _, err := NewMemory("a").Watch(context.Background()); err == nil {
		t.Fatal("expected memory store watch to fail")
	}
}
