package entry

import (
	"encoding/json"
	"fmt"
	"sort"

	"tableflip.dev/spreads/pkg/change"
	"tableflip.dev/spreads/pkg/period"
)

const (
	assignmentsField = "assignments"
	historyField     = "history"
)

// Merge resolves two versions of a synchronized record. Plain fields are
// last-writer-wins. The assignment logs of tasks and notes are unioned:
// history keeps every record from both sides, and each slot's assignment
// takes the status of that slot's latest history record.
func Merge(a, b change.Document) change.Document {
	out := change.Merge(a, b)
	switch out.Kind {
	case change.KindTask:
		mergeLogs[TaskStatus](a, b, &out)
	case change.KindNote:
		mergeLogs[NoteStatus](a, b, &out)
	}
	return out
}

type assignmentLog[S Status] struct {
	Assignments []Assignment[S]
	History     []HistoryRecord
}

func mergeLogs[S Status](a, b change.Document, out *change.Document) {
	la, ok := decodeLog[S](a)
	if !ok {
		return
	}
	lb, ok := decodeLog[S](b)
	if !ok {
		return
	}
	history := MergeHistory(la.History, lb.History)
	assignments := MergeAssignments(la.Assignments, lb.Assignments, history)
	setLogField(out, a, b, assignmentsField, assignments)
	setLogField(out, a, b, historyField, history)
}

func decodeLog[S Status](d change.Document) (assignmentLog[S], bool) {
	var l assignmentLog[S]
	if raw, ok := d.Fields[assignmentsField]; ok {
		if err := json.Unmarshal(raw, &l.Assignments); err != nil {
			return l, false
		}
	}
	if raw, ok := d.Fields[historyField]; ok {
		if err := json.Unmarshal(raw, &l.History); err != nil {
			return l, false
		}
	}
	return l, true
}

// setLogField writes a unioned log with the later of the two stamps.
func setLogField(out *change.Document, a, b change.Document, field string, v any) {
	_, aok := a.Fields[field]
	_, bok := b.Fields[field]
	if !aok && !bok {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	stamp := a.Stamps[field]
	if b.Stamps[field].After(stamp) {
		stamp = b.Stamps[field]
	}
	out.Fields[field] = raw
	out.Stamps[field] = stamp
}

// MergeHistory unions two assignment logs. Each side keeps its own order;
// records from both sides interleave by timestamp, and a record present on
// both sides appears once. The result does not depend on argument order.
func MergeHistory(a, b []HistoryRecord) []HistoryRecord {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make([]HistoryRecord, 0, len(a)+len(b))
	seen := make(map[string]bool, len(a)+len(b))
	add := func(h HistoryRecord) {
		if k := h.key(); !seen[k] {
			seen[k] = true
			out = append(out, h)
		}
	}
	i, k := 0, 0
	for i < len(a) || k < len(b) {
		switch {
		case k == len(b):
			add(a[i])
			i++
		case i == len(a):
			add(b[k])
			k++
		case a[i].key() == b[k].key():
			add(a[i])
			i++
			k++
		case a[i].before(b[k]):
			add(a[i])
			i++
		default:
			add(b[k])
			k++
		}
	}
	return out
}

// MergeAssignments unions two assignment lists, one assignment per slot.
// A slot's status comes from its latest record in history. Slots are
// ordered by their first appearance in history.
func MergeAssignments[S Status](a, b []Assignment[S], history []HistoryRecord) []Assignment[S] {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	bySlot := make(map[string]Assignment[S], len(a)+len(b))
	for _, list := range [][]Assignment[S]{a, b} {
		for _, as := range list {
			k := as.Slot().Key()
			if cur, ok := bySlot[k]; ok && string(cur.Status) >= string(as.Status) {
				continue
			}
			bySlot[k] = as
		}
	}

	out := make([]Assignment[S], 0, len(bySlot))
	for _, h := range history {
		k := h.slot().Key()
		as, ok := bySlot[k]
		if !ok {
			continue
		}
		if as.Status != S(h.Status) {
			as.Status = S(h.Status)
			bySlot[k] = as
		}
	}
	placed := make(map[string]bool, len(bySlot))
	for _, h := range history {
		k := h.slot().Key()
		if as, ok := bySlot[k]; ok && !placed[k] {
			placed[k] = true
			out = append(out, as)
		}
	}
	var rest []string
	for k := range bySlot {
		if !placed[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		out = append(out, bySlot[k])
	}
	return out
}

func (h HistoryRecord) slot() period.Slot {
	return period.Slot{Period: h.Period, Date: h.Date}
}

func (h HistoryRecord) key() string {
	return fmt.Sprintf("%d/%s/%s", h.Timestamp.UnixNano(), h.slot().Key(), h.Status)
}

func (h HistoryRecord) before(o HistoryRecord) bool {
	if !h.Timestamp.Equal(o.Timestamp) {
		return h.Timestamp.Before(o.Timestamp)
	}
	return h.key() < o.key()
}
