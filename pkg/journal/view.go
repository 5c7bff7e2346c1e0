package journal

import (
	"tableflip.dev/spreads/pkg/entry"
	"tableflip.dev/spreads/pkg/period"
	"tableflip.dev/spreads/pkg/spread"
)

// Item is an entry as shown on one spread. Status is the assignment's status
// on that spread in conventional mode and the entry's own status otherwise.
type Item struct {
	Entry  entry.Entry
	Status string
}

// View is what a spread shows.
type View struct {
	Spread spread.Spread
	Items  []Item
	Events []*entry.Event
}

// Entries builds the view of a spread in the journal's configured mode.
func (j *Journal) Entries(spreadID string) (View, error) {
	return j.EntriesIn(spreadID, j.mode)
}

// EntriesIn builds the view of a spread in mode. Multiday spreads list the
// entries whose preferred date falls in their range in either mode.
func (j *Journal) EntriesIn(spreadID string, mode Mode) (View, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	sp, err := j.findSpread(spreadID)
	if err != nil {
		return View{}, err
	}
	v := View{Spread: sp}

	switch {
	case sp.Period == period.Multiday:
		for _, e := range j.entries() {
			if !e.Cancelled() && sp.Contains(e.Slot().Date, j.cal) && e.Slot().Period == period.Day {
				v.Items = append(v.Items, Item{Entry: e.Clone(), Status: e.Status()})
			}
		}
	case mode == Traditional:
		for _, e := range j.entries() {
			if best, ok := j.bestSpread(e.Slot(), j.indexed); ok && best.ID == sp.ID {
				v.Items = append(v.Items, Item{Entry: e.Clone(), Status: e.Status()})
			}
		}
	default:
		if p, ok := j.index[sp.Key()]; ok && p.spread.ID == sp.ID {
			for _, t := range p.tasks {
				a, _ := t.Assignment(sp.Slot())
				v.Items = append(v.Items, Item{Entry: entry.FromTask(t.Clone()), Status: string(a.Status)})
			}
			for _, n := range p.notes {
				a, _ := n.Assignment(sp.Slot())
				v.Items = append(v.Items, Item{Entry: entry.FromNote(n.Clone()), Status: string(a.Status)})
			}
		}
	}

	for _, ev := range j.events {
		if sp.Overlaps(ev.Start, ev.End, j.cal) {
			v.Events = append(v.Events, ev.Clone())
		}
	}
	return v, nil
}
