package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"tableflip.dev/spreads/pkg/journal"
	"tableflip.dev/spreads/pkg/period"
	"tableflip.dev/spreads/pkg/store"
	"tableflip.dev/spreads/pkg/syncer"
)

func newService(t *testing.T) *Service {
	t.Helper()
	now := time.Date(2026, 2, 4, 9, 0, 0, 0, time.UTC)
	j, err := journal.New(context.Background(), store.NewMemory("test"), journal.Options{
		Calendar: period.Calendar{FirstWeekday: time.Sunday, Location: time.UTC},
		Now:      func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("journal: %v", err)
	}
	return NewService(j, nil)
}

func TestServiceCreateTaskDefaultsToToday(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	dto, err := svc.CreateTask(ctx, CreateEntryOptions{Title: "Test item"})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if dto.Period != "day" || dto.Date != "2026-02-04" {
		t.Fatalf("expected today, got %s %s", dto.Period, dto.Date)
	}
	if dto.Status != "open" || dto.Bullet != "●" {
		t.Fatalf("unexpected status %s %s", dto.Status, dto.Bullet)
	}
	if len(dto.Assignments) != 0 {
		t.Fatalf("expected inbox task, got %+v", dto.Assignments)
	}

	inbox, err := svc.Inbox(ctx)
	if err != nil || len(inbox) != 1 || inbox[0].ID != dto.ID {
		t.Fatalf("expected task in inbox, got %+v %v", inbox, err)
	}
}

func TestServiceSpreadCapturesInbox(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	task, err := svc.CreateTask(ctx, CreateEntryOptions{Title: "Finish report", Date: "2026-02-10"})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	sp, err := svc.CreateSpread(ctx, CreateSpreadOptions{Period: "month", Date: "2026-02"})
	if err != nil {
		t.Fatalf("CreateSpread failed: %v", err)
	}

	view, err := svc.GetSpread(ctx, sp.ID, "")
	if err != nil {
		t.Fatalf("GetSpread failed: %v", err)
	}
	if len(view.Items) != 1 || view.Items[0].Entry.ID != task.ID || view.Items[0].Status != "open" {
		t.Fatalf("unexpected view %+v", view)
	}

	done, err := svc.SetTaskStatus(ctx, task.ID, "complete")
	if err != nil {
		t.Fatalf("SetTaskStatus failed: %v", err)
	}
	if done.Status != "complete" || done.Bullet != "✘" {
		t.Fatalf("expected completed task, got %s %s", done.Status, done.Bullet)
	}
}

func TestServiceMigrateEntry(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	if _, err := svc.CreateSpread(ctx, CreateSpreadOptions{Period: "month", Date: "2026-02"}); err != nil {
		t.Fatalf("month: %v", err)
	}
	if _, err := svc.CreateSpread(ctx, CreateSpreadOptions{Period: "day", Date: "2026-02-10"}); err != nil {
		t.Fatalf("day: %v", err)
	}
	task, err := svc.CreateTask(ctx, CreateEntryOptions{Title: "plan", Period: "month", Date: "2026-02"})
	if err != nil {
		t.Fatalf("task: %v", err)
	}

	moved, err := svc.MigrateEntry(ctx, task.ID, "", "day:2026-02-10")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if len(moved.Assignments) != 2 {
		t.Fatalf("expected two assignments, got %+v", moved.Assignments)
	}

	if _, err := svc.MigrateEntry(ctx, task.ID, "", "year:2026"); !errors.Is(err, journal.ErrNotDescendant) && !errors.Is(err, journal.ErrNotFound) {
		t.Fatalf("expected migration up the hierarchy to fail, got %v", err)
	}
}

func TestServiceRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	if _, err := svc.CreateTask(ctx, CreateEntryOptions{Title: "  "}); err == nil {
		t.Fatal("expected empty title to fail")
	}
	if _, err := svc.CreateSpread(ctx, CreateSpreadOptions{Period: "week"}); err == nil {
		t.Fatal("expected unknown period to fail")
	}
	if _, err := svc.CreateTask(ctx, CreateEntryOptions{Title: "late", Date: "2026-02-01"}); !errors.Is(err, journal.ErrPastDate) {
		t.Fatalf("expected past date, got %v", err)
	}
	if _, err := svc.SetTaskStatus(ctx, "nope", "archived"); err == nil {
		t.Fatal("expected unknown status to fail")
	}
}

func TestServiceSyncWithoutEngine(t *testing.T) {
	svc := newService(t)
	if st := svc.SyncStatus(context.Background()); st.State != string(syncer.LocalOnly) {
		t.Fatalf("expected localOnly, got %+v", st)
	}
	if _, err := svc.SyncNow(context.Background()); !errors.Is(err, syncer.ErrLocalOnly) {
		t.Fatalf("expected ErrLocalOnly, got %v", err)
	}
}

func TestServiceEvents(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	ev, err := svc.CreateEvent(ctx, "offsite", "2026-02-09", "2026-02-11")
	if err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}
	sp, err := svc.CreateSpread(ctx, CreateSpreadOptions{Period: "day", Date: "2026-02-10"})
	if err != nil {
		t.Fatalf("CreateSpread failed: %v", err)
	}
	view, err := svc.GetSpread(ctx, sp.ID, "")
	if err != nil {
		t.Fatalf("GetSpread failed: %v", err)
	}
	if len(view.Events) != 1 || view.Events[0].ID != ev.ID {
		t.Fatalf("expected the event on the day spread, got %+v", view.Events)
	}

	if err := svc.DeleteEvent(ctx, ev.ID); err != nil {
		t.Fatalf("DeleteEvent failed: %v", err)
	}
	if err := svc.DeleteEvent(ctx, ev.ID); !errors.Is(err, journal.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
