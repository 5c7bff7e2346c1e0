// Package mcp provides the Model Context Protocol server integration for spreads.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tableflip.dev/spreads/pkg/entry"
	"tableflip.dev/spreads/pkg/glyph"
	"tableflip.dev/spreads/pkg/journal"
	"tableflip.dev/spreads/pkg/period"
	"tableflip.dev/spreads/pkg/spread"
	"tableflip.dev/spreads/pkg/syncer"
)

const isoDate = "2006-01-02"

// Service adapts the journal coordinator and the sync engine to transport
// friendly shapes shared by tools and resources.
type Service struct {
	Journal *journal.Journal
	// Sync is nil when sync is not configured.
	Sync *syncer.Engine
}

// NewService builds a service over j and, optionally, a sync engine.
func NewService(j *journal.Journal, sync *syncer.Engine) *Service {
	return &Service{Journal: j, Sync: sync}
}

// SpreadDTO is a transport-friendly projection of a spread.
type SpreadDTO struct {
	ID     string `json:"id"`
	Period string `json:"period"`
	Date   string `json:"date"`
	Start  string `json:"start,omitempty"`
	End    string `json:"end,omitempty"`
	Title  string `json:"title"`
}

// AssignmentDTO is one placement of an entry.
type AssignmentDTO struct {
	Period string `json:"period"`
	Date   string `json:"date"`
	Status string `json:"status"`
}

// EntryDTO is a transport-friendly projection of a task or note.
type EntryDTO struct {
	ID            string          `json:"id"`
	Kind          string          `json:"kind"`
	Title         string          `json:"title"`
	Body          string          `json:"body,omitempty"`
	Status        string          `json:"status"`
	Period        string          `json:"period"`
	Date          string          `json:"date"`
	Bullet        string          `json:"bullet"`
	BulletMeaning string          `json:"bulletMeaning"`
	Created       string          `json:"created"`
	Assignments   []AssignmentDTO `json:"assignments"`
}

// EventDTO is a transport-friendly projection of an event.
type EventDTO struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// ItemDTO is an entry as shown on a spread.
type ItemDTO struct {
	Entry  EntryDTO `json:"entry"`
	Status string   `json:"status"`
	Bullet string   `json:"bullet"`
}

// ViewDTO is a spread with its contents.
type ViewDTO struct {
	Spread SpreadDTO  `json:"spread"`
	Mode   string     `json:"mode"`
	Items  []ItemDTO  `json:"items"`
	Events []EventDTO `json:"events"`
}

// CandidateDTO is a task left open on a past spread.
type CandidateDTO struct {
	Task EntryDTO   `json:"task"`
	From SpreadDTO  `json:"from"`
	To   *SpreadDTO `json:"to,omitempty"`
}

// SyncDTO reports the sync engine.
type SyncDTO struct {
	State    string `json:"state"`
	LastSync string `json:"lastSync,omitempty"`
	Message  string `json:"message,omitempty"`
}

func toSpreadDTO(sp spread.Spread) SpreadDTO {
	dto := SpreadDTO{
		ID:     sp.ID,
		Period: string(sp.Period),
		Date:   sp.Date.Format(isoDate),
		Title:  sp.Title(),
	}
	if sp.Period == period.Multiday {
		dto.Start = sp.Start.Format(isoDate)
		dto.End = sp.End.Format(isoDate)
	}
	return dto
}

func toEntryDTO(e entry.Entry) EntryDTO {
	b := glyph.For(e, e.Status())
	slot := e.Slot()
	dto := EntryDTO{
		ID:            e.ID(),
		Kind:          string(e.Kind),
		Title:         e.Title(),
		Status:        e.Status(),
		Period:        string(slot.Period),
		Date:          slot.Date.Format(isoDate),
		Bullet:        b.String(),
		BulletMeaning: b.Glyph().Meaning,
		Created:       e.Created().Format(time.RFC3339),
		Assignments:   []AssignmentDTO{},
	}
	if e.Kind == entry.KindNote {
		dto.Body = e.Note.Body
	}
	for _, s := range e.Slots() {
		status, _ := e.StatusAt(s)
		dto.Assignments = append(dto.Assignments, AssignmentDTO{
			Period: string(s.Period),
			Date:   s.Date.Format(isoDate),
			Status: status,
		})
	}
	return dto
}

func toEventDTO(ev *entry.Event) EventDTO {
	return EventDTO{
		ID:    ev.ID,
		Title: ev.Title,
		Start: ev.Start.Format(isoDate),
		End:   ev.End.Format(isoDate),
	}
}

func (s *Service) journal() (*journal.Journal, error) {
	if s.Journal == nil {
		return nil, errors.New("journal is not configured")
	}
	return s.Journal, nil
}

// ListSpreads returns every spread in display order.
func (s *Service) ListSpreads(_ context.Context) ([]SpreadDTO, error) {
	j, err := s.journal()
	if err != nil {
		return nil, err
	}
	out := []SpreadDTO{}
	for _, sp := range j.Spreads() {
		out = append(out, toSpreadDTO(sp))
	}
	return out, nil
}

// GetSpread returns a spread with its entries. An empty mode uses the
// journal's configured mode.
func (s *Service) GetSpread(_ context.Context, id, mode string) (ViewDTO, error) {
	j, err := s.journal()
	if err != nil {
		return ViewDTO{}, err
	}
	m := j.Mode()
	if strings.TrimSpace(mode) != "" {
		if m, err = journal.ParseMode(mode); err != nil {
			return ViewDTO{}, err
		}
	}
	v, err := j.EntriesIn(id, m)
	if err != nil {
		return ViewDTO{}, err
	}
	dto := ViewDTO{
		Spread: toSpreadDTO(v.Spread),
		Mode:   string(m),
		Items:  []ItemDTO{},
		Events: []EventDTO{},
	}
	for _, it := range v.Items {
		dto.Items = append(dto.Items, ItemDTO{
			Entry:  toEntryDTO(it.Entry),
			Status: it.Status,
			Bullet: glyph.For(it.Entry, it.Status).String(),
		})
	}
	for _, ev := range v.Events {
		dto.Events = append(dto.Events, toEventDTO(ev))
	}
	return dto, nil
}

// Inbox lists entries that sit on no spread.
func (s *Service) Inbox(_ context.Context) ([]EntryDTO, error) {
	j, err := s.journal()
	if err != nil {
		return nil, err
	}
	out := []EntryDTO{}
	for _, e := range j.Inbox() {
		out = append(out, toEntryDTO(e))
	}
	return out, nil
}

// EntryByID returns a task or note.
func (s *Service) EntryByID(_ context.Context, id string) (EntryDTO, error) {
	j, err := s.journal()
	if err != nil {
		return EntryDTO{}, err
	}
	e, err := j.Entry(id)
	if err != nil {
		return EntryDTO{}, err
	}
	return toEntryDTO(e), nil
}

// CreateSpreadOptions describes a new spread. Start and End are used for
// multiday spreads, Date otherwise.
type CreateSpreadOptions struct {
	Period string
	Date   string
	Start  string
	End    string
}

// CreateSpread adds a spread, pulling matching inbox entries onto it.
func (s *Service) CreateSpread(ctx context.Context, opts CreateSpreadOptions) (SpreadDTO, error) {
	j, err := s.journal()
	if err != nil {
		return SpreadDTO{}, err
	}
	p, err := period.Parse(opts.Period)
	if err != nil {
		return SpreadDTO{}, err
	}
	cal := j.Calendar()
	var sp spread.Spread
	if p == period.Multiday {
		start, err := period.ParseDate(opts.Start, cal)
		if err != nil {
			return SpreadDTO{}, fmt.Errorf("invalid start: %w", err)
		}
		end, err := period.ParseDate(opts.End, cal)
		if err != nil {
			return SpreadDTO{}, fmt.Errorf("invalid end: %w", err)
		}
		sp, err = j.AddMultidaySpread(ctx, start, end)
		if err != nil {
			return SpreadDTO{}, err
		}
	} else {
		date, err := s.date(opts.Date)
		if err != nil {
			return SpreadDTO{}, err
		}
		if sp, err = j.AddSpread(ctx, p, date); err != nil {
			return SpreadDTO{}, err
		}
	}
	return toSpreadDTO(sp), nil
}

// DeleteSpread removes a spread, moving its entries to the parent spread or
// the inbox.
func (s *Service) DeleteSpread(ctx context.Context, id string) error {
	j, err := s.journal()
	if err != nil {
		return err
	}
	return j.DeleteSpread(ctx, id)
}

// CreateEntryOptions describes a new task or note.
type CreateEntryOptions struct {
	Title  string
	Body   string
	Period string
	Date   string
}

func (s *Service) date(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return s.Journal.Today(), nil
	}
	d, err := period.ParseDate(raw, s.Journal.Calendar())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date: %w", err)
	}
	return d, nil
}

func (s *Service) slot(opts CreateEntryOptions) (period.Period, time.Time, error) {
	if strings.TrimSpace(opts.Title) == "" {
		return "", time.Time{}, errors.New("title is required")
	}
	p, err := period.Parse(opts.Period)
	if err != nil {
		return "", time.Time{}, err
	}
	date, err := s.date(opts.Date)
	return p, date, err
}

// CreateTask adds a task.
func (s *Service) CreateTask(ctx context.Context, opts CreateEntryOptions) (EntryDTO, error) {
	j, err := s.journal()
	if err != nil {
		return EntryDTO{}, err
	}
	p, date, err := s.slot(opts)
	if err != nil {
		return EntryDTO{}, err
	}
	t, err := j.AddTask(ctx, opts.Title, p, date)
	if err != nil {
		return EntryDTO{}, err
	}
	return toEntryDTO(entry.FromTask(t)), nil
}

// CreateNote adds a note.
func (s *Service) CreateNote(ctx context.Context, opts CreateEntryOptions) (EntryDTO, error) {
	j, err := s.journal()
	if err != nil {
		return EntryDTO{}, err
	}
	p, date, err := s.slot(opts)
	if err != nil {
		return EntryDTO{}, err
	}
	n, err := j.AddNote(ctx, opts.Title, opts.Body, p, date)
	if err != nil {
		return EntryDTO{}, err
	}
	return toEntryDTO(entry.FromNote(n)), nil
}

// CreateEvent adds an event. An empty end makes a single-day event.
func (s *Service) CreateEvent(ctx context.Context, title, start, end string) (EventDTO, error) {
	j, err := s.journal()
	if err != nil {
		return EventDTO{}, err
	}
	if strings.TrimSpace(title) == "" {
		return EventDTO{}, errors.New("title is required")
	}
	from, err := s.date(start)
	if err != nil {
		return EventDTO{}, err
	}
	to := from
	if strings.TrimSpace(end) != "" {
		if to, err = s.date(end); err != nil {
			return EventDTO{}, err
		}
	}
	ev, err := j.AddEvent(ctx, title, from, to)
	if err != nil {
		return EventDTO{}, err
	}
	return toEventDTO(ev), nil
}

// DeleteEvent removes an event.
func (s *Service) DeleteEvent(ctx context.Context, id string) error {
	j, err := s.journal()
	if err != nil {
		return err
	}
	return j.DeleteEvent(ctx, id)
}

// SetTaskStatus completes, cancels or reopens a task.
func (s *Service) SetTaskStatus(ctx context.Context, id, status string) (EntryDTO, error) {
	j, err := s.journal()
	if err != nil {
		return EntryDTO{}, err
	}
	var t *entry.Task
	switch entry.TaskStatus(strings.ToLower(strings.TrimSpace(status))) {
	case entry.TaskComplete:
		t, err = j.Complete(ctx, id)
	case entry.TaskCancelled:
		t, err = j.Cancel(ctx, id)
	case entry.TaskOpen:
		t, err = j.Reopen(ctx, id)
	default:
		return EntryDTO{}, fmt.Errorf("unsupported status %q (expected complete, cancelled or open)", status)
	}
	if err != nil {
		return EntryDTO{}, err
	}
	return toEntryDTO(entry.FromTask(t)), nil
}

// EditEntryOptions carries the fields to change; empty strings are left alone.
type EditEntryOptions struct {
	ID     string
	Title  string
	Period string
	Date   string
}

// EditEntry changes an entry's title or preferred slot.
func (s *Service) EditEntry(ctx context.Context, opts EditEntryOptions) (EntryDTO, error) {
	j, err := s.journal()
	if err != nil {
		return EntryDTO{}, err
	}
	var edit journal.Edit
	if t := strings.TrimSpace(opts.Title); t != "" {
		edit.Title = &t
	}
	if strings.TrimSpace(opts.Period) != "" {
		p, err := period.Parse(opts.Period)
		if err != nil {
			return EntryDTO{}, err
		}
		edit.Period = &p
	}
	if strings.TrimSpace(opts.Date) != "" {
		d, err := s.date(opts.Date)
		if err != nil {
			return EntryDTO{}, err
		}
		edit.Date = &d
	}
	e, err := j.EditEntry(ctx, opts.ID, edit)
	if err != nil {
		return EntryDTO{}, err
	}
	return toEntryDTO(e), nil
}

// MigrateEntry moves an entry between slots written as "period:date". An
// empty from uses the entry's current slot.
func (s *Service) MigrateEntry(ctx context.Context, id, from, to string) (EntryDTO, error) {
	j, err := s.journal()
	if err != nil {
		return EntryDTO{}, err
	}
	cal := j.Calendar()
	var src period.Slot
	if strings.TrimSpace(from) == "" {
		if src, err = j.CurrentSlot(id); err != nil {
			return EntryDTO{}, err
		}
	} else if src, err = period.ParseSlot(from, cal); err != nil {
		return EntryDTO{}, err
	}
	dst, err := period.ParseSlot(to, cal)
	if err != nil {
		return EntryDTO{}, err
	}
	e, err := j.Migrate(ctx, id, src, dst)
	if err != nil {
		return EntryDTO{}, err
	}
	return toEntryDTO(e), nil
}

// Candidates lists tasks left open on past spreads.
func (s *Service) Candidates(_ context.Context) ([]CandidateDTO, error) {
	j, err := s.journal()
	if err != nil {
		return nil, err
	}
	out := []CandidateDTO{}
	for _, c := range j.MigrationCandidates() {
		dto := CandidateDTO{Task: toEntryDTO(entry.FromTask(c.Task)), From: toSpreadDTO(c.From)}
		if c.To != nil {
			to := toSpreadDTO(*c.To)
			dto.To = &to
		}
		out = append(out, dto)
	}
	return out, nil
}

func toSyncDTO(st syncer.Status) SyncDTO {
	dto := SyncDTO{State: string(st.State), Message: st.Message}
	if !st.LastSync.IsZero() {
		dto.LastSync = st.LastSync.Format(time.RFC3339)
	}
	return dto
}

// SyncStatus reports the sync engine's state.
func (s *Service) SyncStatus(_ context.Context) SyncDTO {
	if s.Sync == nil {
		return SyncDTO{State: string(syncer.LocalOnly)}
	}
	return toSyncDTO(s.Sync.Status())
}

// SyncNow runs a sync cycle and reports the resulting state.
func (s *Service) SyncNow(ctx context.Context) (SyncDTO, error) {
	if s.Sync == nil {
		return SyncDTO{State: string(syncer.LocalOnly)}, syncer.ErrLocalOnly
	}
	st, err := s.Sync.Sync(ctx)
	return toSyncDTO(st), err
}
