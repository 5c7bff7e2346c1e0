package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"tableflip.dev/spreads/pkg/change"
	"tableflip.dev/spreads/pkg/entry"
	"tableflip.dev/spreads/pkg/period"
	"tableflip.dev/spreads/pkg/spread"
)

var cal = period.Calendar{FirstWeekday: time.Sunday, Location: time.UTC}

func date(d int) time.Time {
	return time.Date(2026, time.February, d, 0, 0, 0, 0, time.UTC)
}

func TestAssignmentHistoryRoundTripsThroughDisk(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	s, err := Load(testConfig{path: base})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	now := date(5)
	task := entry.NewTask("write", period.Day, date(5), cal, now)
	task.Assign(period.NewSlot(period.Day, date(5), cal), entry.TaskOpen, now)
	task.Assign(period.NewSlot(period.Day, date(5), cal), entry.TaskMigrated, now)
	task.Assign(period.NewSlot(period.Day, date(6), cal), entry.TaskOpen, now)
	if err := s.SaveTask(ctx, task); err != nil {
		t.Fatalf("save: %v", err)
	}

	reopened, err := Load(testConfig{path: base})
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reopened.Device() != s.Device() {
		t.Fatalf("device changed across loads: %q vs %q", s.Device(), reopened.Device())
	}
	tasks, err := reopened.Tasks(ctx)
	if err != nil {
		t.Fatalf("tasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected one task, got %d", len(tasks))
	}
	got := tasks[0]
	if len(got.Assignments) != 2 || len(got.History) != 3 {
		t.Fatalf("history lost: %+v", got)
	}
	if a, ok := got.Assignment(period.NewSlot(period.Day, date(5), cal)); !ok || a.Status != entry.TaskMigrated {
		t.Fatalf("unexpected assignment %+v", a)
	}
}

func TestSaveStampsOnlyChangedFields(t *testing.T) {
	ctx := context.Background()
	wall := date(5)
	s := NewMemory("a", WithNow(func() time.Time { return wall }))

	sp := spread.New(period.Day, date(5), cal, wall)
	if err := s.SaveSpread(ctx, sp); err != nil {
		t.Fatalf("save: %v", err)
	}
	first, _, _ := s.Document(ctx, change.KindSpread, sp.ID)

	wall = wall.Add(time.Hour)
	if err := s.SaveSpread(ctx, sp); err != nil {
		t.Fatalf("save again: %v", err)
	}
	again, _, _ := s.Document(ctx, change.KindSpread, sp.ID)
	if again.Seq != first.Seq {
		t.Fatalf("unchanged save bumped seq %d -> %d", first.Seq, again.Seq)
	}

	sp.Date = date(6)
	if err := s.SaveSpread(ctx, sp); err != nil {
		t.Fatalf("save changed: %v", err)
	}
	changed, _, _ := s.Document(ctx, change.KindSpread, sp.ID)
	if changed.Seq <= first.Seq {
		t.Fatal("changed save did not bump seq")
	}
	if changed.Stamps["period"].Compare(first.Stamps["period"]) != 0 {
		t.Fatal("period was restamped")
	}
	if !changed.Stamps["date"].After(first.Stamps["date"]) {
		t.Fatal("date kept its old stamp")
	}
}

func TestDeleteLeavesTombstone(t *testing.T) {
	ctx := context.Background()
	s := NewMemory("a")
	sp := spread.New(period.Month, date(5), cal, date(5))
	if err := s.SaveSpread(ctx, sp); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.DeleteSpread(ctx, sp); err != nil {
		t.Fatalf("delete: %v", err)
	}
	spreads, err := s.Spreads(ctx)
	if err != nil {
		t.Fatalf("spreads: %v", err)
	}
	if len(spreads) != 0 {
		t.Fatalf("expected no spreads, got %d", len(spreads))
	}
	doc, ok, err := s.Document(ctx, change.KindSpread, sp.ID)
	if err != nil || !ok || !doc.Deleted() {
		t.Fatalf("expected tombstone, got ok=%v deleted=%v err=%v", ok, doc.Deleted(), err)
	}
}

func TestChangedAndApply(t *testing.T) {
	ctx := context.Background()
	s := NewMemory("a", WithNow(func() time.Time { return date(5) }))
	note := entry.NewNote("idea", period.Day, date(5), cal, date(5))
	if err := s.SaveNote(ctx, note); err != nil {
		t.Fatalf("save: %v", err)
	}
	docs, high, err := s.Changed(ctx, 0)
	if err != nil {
		t.Fatalf("changed: %v", err)
	}
	if len(docs) != 1 || high != docs[0].Seq {
		t.Fatalf("unexpected changes %d high=%d", len(docs), high)
	}
	if docs, _, _ := s.Changed(ctx, high); len(docs) != 0 {
		t.Fatalf("expected nothing after %d, got %d", high, len(docs))
	}

	// A later remote title edit wins; the merged record equals the remote one,
	// so nothing is queued for push.
	remote := docs[0].Clone()
	remote.Fields["title"] = json.RawMessage(`"remote idea"`)
	remote.Stamps["title"] = change.Stamp{At: date(6), Device: "b"}
	merged, applied, err := s.Apply(ctx, remote)
	if err != nil || !applied {
		t.Fatalf("apply: applied=%v err=%v", applied, err)
	}
	if merged.Seq != 0 {
		t.Fatalf("expected merged record to be clean, seq=%d", merged.Seq)
	}
	notes, _ := s.Notes(ctx)
	if len(notes) != 1 || notes[0].Title != "remote idea" {
		t.Fatalf("remote edit not applied: %+v", notes)
	}

	// Re-applying the same document is a no-op.
	if _, applied, _ := s.Apply(ctx, remote); applied {
		t.Fatal("second apply should not change anything")
	}

	// Local writes after observing the remote stamp order after it.
	notes[0].Body = "details"
	if err := s.SaveNote(ctx, notes[0]); err != nil {
		t.Fatalf("save: %v", err)
	}
	doc, _, _ := s.Document(ctx, change.KindNote, note.ID)
	if !doc.Stamps["body"].After(remote.Stamps["title"]) {
		t.Fatalf("local stamp %+v not after observed %+v", doc.Stamps["body"], remote.Stamps["title"])
	}
}

func TestCheckpointPersists(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	s, err := Load(testConfig{path: base, device: "laptop"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cp := change.Checkpoint{RemoteCursor: 7, LocalSeq: 3, LastSync: date(5)}
	if err := s.SaveCheckpoint(ctx, cp); err != nil {
		t.Fatalf("save checkpoint: %v", err)
	}
	reopened, err := Load(testConfig{path: base})
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got, err := reopened.Checkpoint(ctx)
	if err != nil {
		t.Fatalf("checkpoint: %v", err)
	}
	if got.RemoteCursor != 7 || got.LocalSeq != 3 || !got.LastSync.Equal(cp.LastSync) {
		t.Fatalf("unexpected checkpoint %+v", got)
	}
	if reopened.Device() != "laptop" {
		t.Fatalf("expected recorded device, got %q", reopened.Device())
	}

	// New writes must sort after the pushed watermark.
	if err := reopened.SaveSpread(ctx, spread.New(period.Year, date(5), cal, date(5))); err != nil {
		t.Fatalf("save: %v", err)
	}
	docs, _, _ := reopened.Changed(ctx, got.LocalSeq)
	if len(docs) != 1 {
		t.Fatalf("expected the new spread to be pending, got %d", len(docs))
	}
}

func TestCancelledContextDoesNotWrite(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewMemory("a")
	if err := s.SaveTask(ctx, entry.NewTask("x", period.Day, date(5), cal, date(5))); err == nil {
		t.Fatal("expected cancelled save to fail")
	}
	tasks, _ := s.Tasks(context.Background())
	if len(tasks) != 0 {
		t.Fatalf("cancelled save persisted %d tasks", len(tasks))
	}
}

func TestConcurrentAssignmentChangesMerge(t *testing.T) {
	ctx := context.Background()
	wall := date(5)
	now := func() time.Time { return wall }
	laptop := NewMemory("laptop", WithNow(now))
	phone := NewMemory("phone", WithNow(now))
	day5 := period.NewSlot(period.Day, date(5), cal)
	day6 := period.NewSlot(period.Day, date(6), cal)

	task := entry.NewTask("write", period.Day, date(5), cal, wall)
	task.Assign(day5, entry.TaskOpen, wall)
	if err := laptop.SaveTask(ctx, task); err != nil {
		t.Fatalf("save: %v", err)
	}
	shared, _, _ := laptop.Document(ctx, change.KindTask, task.ID)
	if _, _, err := phone.Apply(ctx, shared); err != nil {
		t.Fatalf("apply to phone: %v", err)
	}

	// The laptop moves the task to the 6th.
	wall = date(5).Add(time.Hour)
	moved := task.Clone()
	moved.Assign(day5, entry.TaskMigrated, wall)
	moved.Assign(day6, entry.TaskOpen, wall)
	moved.Refresh()
	if err := laptop.SaveTask(ctx, moved); err != nil {
		t.Fatalf("save move: %v", err)
	}

	// The phone has not seen the move and completes the task on the 5th.
	wall = date(5).Add(2 * time.Hour)
	tasks, _ := phone.Tasks(ctx)
	done := tasks[0]
	done.SetStatus(entry.TaskComplete, wall)
	if err := phone.SaveTask(ctx, done); err != nil {
		t.Fatalf("save complete: %v", err)
	}

	fromLaptop, _, _ := laptop.Document(ctx, change.KindTask, task.ID)
	fromPhone, _, _ := phone.Document(ctx, change.KindTask, task.ID)
	if _, _, err := laptop.Apply(ctx, fromPhone); err != nil {
		t.Fatalf("apply to laptop: %v", err)
	}
	if _, _, err := phone.Apply(ctx, fromLaptop); err != nil {
		t.Fatalf("apply to phone: %v", err)
	}
	onLaptop, _, _ := laptop.Document(ctx, change.KindTask, task.ID)
	onPhone, _, _ := phone.Document(ctx, change.KindTask, task.ID)
	if !change.Equal(onLaptop, onPhone) {
		t.Fatal("replicas diverged")
	}

	tasks, _ = laptop.Tasks(ctx)
	got := tasks[0]
	if a, ok := got.Assignment(day5); !ok || a.Status != entry.TaskComplete {
		t.Fatalf("expected the 5th complete, got %+v", got.Assignments)
	}
	if a, ok := got.Assignment(day6); !ok || a.Status != entry.TaskOpen {
		t.Fatalf("the move to the 6th was lost: %+v", got.Assignments)
	}
	if len(got.History) != 4 {
		t.Fatalf("history truncated: %+v", got.History)
	}
	if !got.Slot().Equal(day6) || got.Status != entry.TaskComplete {
		t.Fatalf("unexpected preferred slot %v status %s", got.Slot(), got.Status)
	}
}

func TestStaleSaveKeepsSyncedEdits(t *testing.T) {
	ctx := context.Background()
	wall := date(5)
	s := NewMemory("laptop", WithNow(func() time.Time { return wall }))
	note := entry.NewNote("idea", period.Day, date(5), cal, wall)
	if err := s.SaveNote(ctx, note); err != nil {
		t.Fatalf("save: %v", err)
	}

	doc, _, _ := s.Document(ctx, change.KindNote, note.ID)
	remote := doc.Clone()
	remote.Fields["title"] = json.RawMessage(`"better idea"`)
	remote.Stamps["title"] = change.Stamp{At: date(5).Add(time.Hour), Device: "phone"}
	if _, _, err := s.Apply(ctx, remote); err != nil {
		t.Fatalf("apply: %v", err)
	}

	// The caller still holds the version it saved and edits another field.
	wall = date(5).Add(2 * time.Hour)
	note.Body = "details"
	if err := s.SaveNote(ctx, note); err != nil {
		t.Fatalf("save stale: %v", err)
	}
	notes, _ := s.Notes(ctx)
	if len(notes) != 1 || notes[0].Title != "better idea" || notes[0].Body != "details" {
		t.Fatalf("stale save clobbered the synced title: %+v", notes)
	}

	// Having read the new version, the caller can rename it again.
	notes[0].Title = "best idea"
	if err := s.SaveNote(ctx, notes[0]); err != nil {
		t.Fatalf("save: %v", err)
	}
	notes, _ = s.Notes(ctx)
	if notes[0].Title != "best idea" {
		t.Fatalf("expected rename, got %q", notes[0].Title)
	}
}
