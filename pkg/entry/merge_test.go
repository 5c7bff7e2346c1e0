package entry

import (
	"testing"
	"time"

	"tableflip.dev/spreads/pkg/change"
	"tableflip.dev/spreads/pkg/period"
)

func taskDocument(t *testing.T, task *Task, clock *change.Clock) change.Document {
	t.Helper()
	fields, err := change.Encode(task)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	doc := change.Document{Kind: change.KindTask, ID: task.ID}
	doc.Update(fields, clock)
	return doc
}

func TestMergeUnionsConcurrentAssignmentLogs(t *testing.T) {
	t0 := time.Date(2026, time.February, 5, 9, 0, 0, 0, time.UTC)
	t1, t2 := t0.Add(time.Hour), t0.Add(2*time.Hour)

	base := NewTask("write", period.Day, day(5).Date, cal, t0)
	base.Assign(day(5), TaskOpen, t0)

	// Laptop moves the task to the 6th.
	laptop := base.Clone()
	laptop.Assign(day(5), TaskMigrated, t1)
	laptop.Assign(day(6), TaskOpen, t1)
	laptop.Refresh()
	docA := taskDocument(t, laptop, change.NewClock("laptop", func() time.Time { return t1 }))

	// Phone, not having seen that, completes it on the 5th.
	phone := base.Clone()
	phone.SetStatus(TaskComplete, t2)
	docB := taskDocument(t, phone, change.NewClock("phone", func() time.Time { return t2 }))

	ab, ba := Merge(docA, docB), Merge(docB, docA)
	if !change.Equal(ab, ba) {
		t.Fatal("merge depends on argument order")
	}

	var got Task
	if err := ab.Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if a, ok := got.Assignment(day(5)); !ok || a.Status != TaskComplete {
		t.Fatalf("expected the 5th complete, got %+v", got.Assignments)
	}
	if a, ok := got.Assignment(day(6)); !ok || a.Status != TaskOpen {
		t.Fatalf("laptop's assignment for the 6th was lost: %+v", got.Assignments)
	}
	if len(got.History) != 4 {
		t.Fatalf("expected every history record from both sides, got %+v", got.History)
	}
	for i := 1; i < len(got.History); i++ {
		if got.History[i].Timestamp.Before(got.History[i-1].Timestamp) {
			t.Fatalf("history out of order: %+v", got.History)
		}
	}
	if _, ok := got.Assignment(got.Slot()); !ok {
		t.Fatalf("preferred slot %v has no assignment", got.Slot())
	}
	if got.Status != TaskComplete {
		t.Fatalf("expected the later status edit to win, got %s", got.Status)
	}
}

func TestMergeHistoryKeepsSharedRecordsOnce(t *testing.T) {
	t0 := time.Date(2026, time.February, 5, 9, 0, 0, 0, time.UTC)
	shared := []HistoryRecord{
		{Timestamp: t0, Period: period.Day, Date: day(5).Date, Status: string(TaskOpen)},
		{Timestamp: t0.Add(time.Minute), Period: period.Day, Date: day(5).Date, Status: string(TaskMigrated)},
	}
	longer := append(append([]HistoryRecord(nil), shared...),
		HistoryRecord{Timestamp: t0.Add(time.Hour), Period: period.Day, Date: day(6).Date, Status: string(TaskOpen)})

	got := MergeHistory(shared, longer)
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	for i := range longer {
		if got[i].key() != longer[i].key() {
			t.Fatalf("record %d = %+v, want %+v", i, got[i], longer[i])
		}
	}
	if MergeHistory(nil, nil) != nil {
		t.Fatal("empty logs should stay empty")
	}
}
