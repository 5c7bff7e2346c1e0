package entry

import (
	"encoding/json"
	"testing"
	"time"

	"tableflip.dev/spreads/pkg/period"
)

var cal = period.Calendar{FirstWeekday: time.Sunday, Location: time.UTC}

func day(d int) period.Slot {
	return period.NewSlot(period.Day, time.Date(2026, time.February, d, 0, 0, 0, 0, time.UTC), cal)
}

func TestAssignUpdatesInPlace(t *testing.T) {
	now := time.Date(2026, time.February, 5, 9, 0, 0, 0, time.UTC)
	task := NewTask("write", period.Day, day(5).Date, cal, now)

	if !task.Assign(day(5), TaskOpen, now) {
		t.Fatal("first placement should change the task")
	}
	if task.Assign(day(5), TaskOpen, now) {
		t.Fatal("repeating the same status should be a no-op")
	}
	if !task.Assign(day(5), TaskMigrated, now) {
		t.Fatal("status change should be reported")
	}
	if len(task.Assignments) != 1 {
		t.Fatalf("expected a single assignment, got %d", len(task.Assignments))
	}
	if task.Assignments[0].Status != TaskMigrated {
		t.Fatalf("expected migrated, got %s", task.Assignments[0].Status)
	}
	if len(task.History) != 2 {
		t.Fatalf("expected two history records, got %d", len(task.History))
	}
}

func TestRefreshFollowsLatestOpenAssignment(t *testing.T) {
	now := time.Date(2026, time.February, 5, 9, 0, 0, 0, time.UTC)
	task := NewTask("write", period.Day, day(5).Date, cal, now)
	task.Assign(day(5), TaskOpen, now)
	task.Assign(day(5), TaskMigrated, now)
	task.Assign(day(6), TaskOpen, now)
	task.Assign(day(6), TaskMigrated, now)
	task.Assign(day(5), TaskOpen, now)

	task.Refresh()
	if !task.Slot().Equal(day(5)) {
		t.Fatalf("expected preferred slot %v, got %v", day(5), task.Slot())
	}
	if task.Status != TaskOpen {
		t.Fatalf("expected open, got %s", task.Status)
	}
}

func TestSetStatusMirrorsCurrentAssignment(t *testing.T) {
	now := time.Date(2026, time.February, 5, 9, 0, 0, 0, time.UTC)
	task := NewTask("write", period.Day, day(5).Date, cal, now)
	task.Assign(day(5), TaskOpen, now)

	task.SetStatus(TaskComplete, now)
	a, _ := task.Assignment(day(5))
	if a.Status != TaskComplete || task.Status != TaskComplete {
		t.Fatalf("expected complete, got task=%s assignment=%s", task.Status, a.Status)
	}
}

func TestMarkMigratedOnlyTouchesOpenAssignments(t *testing.T) {
	now := time.Date(2026, time.February, 5, 9, 0, 0, 0, time.UTC)
	note := NewNote("idea", period.Day, day(5).Date, cal, now)
	e := FromNote(note)

	if e.MarkMigrated(day(5), now) {
		t.Fatal("missing assignment must not be created")
	}
	e.PlaceOpen(day(5), now)
	if !e.MarkMigrated(day(5), now) {
		t.Fatal("open assignment should migrate")
	}
	if status, _ := e.StatusAt(day(5)); status != string(NoteMigrated) {
		t.Fatalf("expected migrated, got %s", status)
	}
}

func TestCloneIsDeep(t *testing.T) {
	now := time.Date(2026, time.February, 5, 9, 0, 0, 0, time.UTC)
	task := NewTask("write", period.Day, day(5).Date, cal, now)
	task.Assign(day(5), TaskOpen, now)

	cp := FromTask(task).Clone()
	cp.PlaceStatus(day(5), string(TaskComplete), now)
	cp.PlaceOpen(day(6), now)

	if len(task.Assignments) != 1 || task.Assignments[0].Status != TaskOpen {
		t.Fatalf("original mutated: %+v", task.Assignments)
	}
	if len(task.History) != 1 {
		t.Fatalf("original history mutated: %+v", task.History)
	}
}

func TestAssignmentsSurviveJSON(t *testing.T) {
	now := time.Date(2026, time.February, 5, 9, 0, 0, 0, time.UTC)
	task := NewTask("write", period.Day, day(5).Date, cal, now)
	task.Assign(day(5), TaskOpen, now)
	task.Assign(day(5), TaskMigrated, now)
	task.Assign(day(6), TaskOpen, now)

	b, err := json.Marshal(task)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Task
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got.Assignments) != 2 || len(got.History) != 3 {
		t.Fatalf("lost history: %+v", got)
	}
	if a, ok := got.Assignment(day(5)); !ok || a.Status != TaskMigrated {
		t.Fatalf("unexpected assignment %+v", a)
	}
}

func TestEntryCancelled(t *testing.T) {
	now := time.Date(2026, time.February, 5, 9, 0, 0, 0, time.UTC)
	task := NewTask("write", period.Day, day(5).Date, cal, now)
	task.Status = TaskCancelled
	if !FromTask(task).Cancelled() {
		t.Fatal("expected cancelled")
	}
	if FromNote(NewNote("n", period.Day, day(5).Date, cal, now)).Cancelled() {
		t.Fatal("notes are never cancelled")
	}
}

func TestSetStatusFallsBackToCurrentAssignment(t *testing.T) {
	now := time.Date(2026, time.February, 5, 9, 0, 0, 0, time.UTC)
	task := NewTask("write", period.Day, day(5).Date, cal, now)
	month := period.NewSlot(period.Month, day(5).Date, cal)
	task.Assign(month, TaskOpen, now)

	task.SetStatus(TaskComplete, now)
	a, _ := task.Assignment(month)
	if a.Status != TaskComplete {
		t.Fatalf("expected month assignment complete, got %s", a.Status)
	}
	slot, status, ok := FromTask(task).Current()
	if !ok || !slot.Equal(month) || status != string(TaskComplete) {
		t.Fatalf("unexpected current %v %s %v", slot, status, ok)
	}
}

func TestRefreshKeepsCompletedStatus(t *testing.T) {
	now := time.Date(2026, time.February, 5, 9, 0, 0, 0, time.UTC)
	task := NewTask("write", period.Day, day(5).Date, cal, now)
	task.Assign(day(5), TaskOpen, now)
	task.SetStatus(TaskComplete, now)
	task.Assign(day(5), TaskMigrated, now)
	task.Assign(day(6), TaskComplete, now)

	task.Refresh()
	if task.Status != TaskComplete {
		t.Fatalf("refresh reopened a completed task: %s", task.Status)
	}
	if !task.Slot().Equal(day(6)) {
		t.Fatalf("expected preferred slot %v, got %v", day(6), task.Slot())
	}
}
