package entry

import (
	"time"

	"tableflip.dev/spreads/pkg/period"
)

// Status is the status domain of an assignment: TaskStatus or NoteStatus.
type Status interface {
	TaskStatus | NoteStatus
}

// Assignment is one placement of an entry on a (period, date) slot.
type Assignment[S Status] struct {
	Period period.Period `json:"period"`
	Date   time.Time     `json:"date"`
	Status S             `json:"status"`
}

// TaskAssignment places a task.
type TaskAssignment = Assignment[TaskStatus]

// NoteAssignment places a note.
type NoteAssignment = Assignment[NoteStatus]

// Slot returns the assignment's (period, date).
func (a Assignment[S]) Slot() period.Slot {
	return period.Slot{Period: a.Period, Date: a.Date}
}

// Matches reports whether the assignment points at slot.
func (a Assignment[S]) Matches(slot period.Slot) bool {
	return a.Slot().Equal(slot)
}

// HistoryRecord is one status change in an entry's assignment log.
type HistoryRecord struct {
	Timestamp time.Time     `json:"timestamp"`
	Period    period.Period `json:"period"`
	Date      time.Time     `json:"date"`
	Status    string        `json:"status"`
}

// place is the only code path that changes an assignment list. An existing
// assignment for slot has its status updated in place; otherwise one is
// appended. Assignments are never removed. Every change is logged to history.
func place[S Status](list []Assignment[S], history []HistoryRecord, slot period.Slot, status S, at time.Time) ([]Assignment[S], []HistoryRecord, bool) {
	for i := range list {
		if !list[i].Matches(slot) {
			continue
		}
		if list[i].Status == status {
			return list, history, false
		}
		list[i].Status = status
		return list, appendHistory(history, slot, string(status), at), true
	}
	list = append(list, Assignment[S]{Period: slot.Period, Date: slot.Date, Status: status})
	return list, appendHistory(history, slot, string(status), at), true
}

// lookup finds the assignment for slot.
func lookup[S Status](list []Assignment[S], slot period.Slot) (Assignment[S], bool) {
	for _, a := range list {
		if a.Matches(slot) {
			return a, true
		}
	}
	return Assignment[S]{}, false
}

// current returns the most recently placed assignment whose status is not
// migrated.
func current[S Status](list []Assignment[S], history []HistoryRecord, migrated S) (Assignment[S], bool) {
	for i := len(history) - 1; i >= 0; i-- {
		h := history[i]
		if a, ok := lookup(list, period.Slot{Period: h.Period, Date: h.Date}); ok && a.Status != migrated {
			return a, true
		}
	}
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].Status != migrated {
			return list[i], true
		}
	}
	return Assignment[S]{}, false
}

func appendHistory(history []HistoryRecord, slot period.Slot, status string, at time.Time) []HistoryRecord {
	return append(history, HistoryRecord{
		Timestamp: at,
		Period:    slot.Period,
		Date:      slot.Date,
		Status:    status,
	})
}

func cloneList[S Status](list []Assignment[S]) []Assignment[S] {
	if list == nil {
		return nil
	}
	return append([]Assignment[S](nil), list...)
}

func cloneHistory(history []HistoryRecord) []HistoryRecord {
	if history == nil {
		return nil
	}
	return append([]HistoryRecord(nil), history...)
}
