// Package store persists journal records as change-tracked documents. Each
// save diffs the record against what is stored and stamps the changed fields,
// which is what the sync engine merges on.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"tableflip.dev/spreads/pkg/change"
	"tableflip.dev/spreads/pkg/entry"
)

const (
	stateDir      = "_state"
	deviceKey     = stateDir + "/device"
	checkpointKey = stateDir + "/checkpoint"
)

var errNoKey = errors.New("no such key")

// backend is the key/value surface shared by *diskv.Diskv and the memory
// backend.
type backend interface {
	Read(key string) ([]byte, error)
	Write(key string, val []byte) error
	Erase(key string) error
	Has(key string) bool
	Keys(cancel <-chan struct{}) <-chan string
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for skipped or unreadable records.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithNow sets the wall clock feeding the change stamps.
func WithNow(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store is the local replica. It implements the journal repositories and the
// replica surface the sync engine drives. All writes are serialized.
type Store struct {
	mu       sync.Mutex
	d        backend
	basePath string
	clock    *change.Clock
	seq      int64
	logger   *slog.Logger
	now      func() time.Time

	// base holds each record's fields as the caller last read or wrote
	// them. A save diffs against base, so fields merged in by sync since
	// then are not overwritten with stale values.
	base map[string]map[string]json.RawMessage
}

func open(d backend, basePath, device string, opts ...Option) (*Store, error) {
	s := &Store{
		d:        d,
		basePath: basePath,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		base:     make(map[string]map[string]json.RawMessage),
	}
	for _, opt := range opts {
		opt(s)
	}

	if device == "" {
		if raw, err := d.Read(deviceKey); err == nil {
			device = strings.TrimSpace(string(raw))
		}
	}
	if device == "" {
		device = uuid.NewString()
	}
	if raw, err := d.Read(deviceKey); err != nil || string(raw) != device {
		if err := d.Write(deviceKey, []byte(device)); err != nil {
			return nil, fmt.Errorf("store: record device: %w", err)
		}
	}
	s.clock = change.NewClock(device, s.now)

	cp, err := s.readCheckpoint()
	if err != nil {
		return nil, err
	}
	s.seq = cp.LocalSeq
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	for key := range d.Keys(ctx.Done()) {
		if isState(key) {
			continue
		}
		doc, err := s.read(key)
		if err != nil {
			s.logger.Warn("skipping unreadable record", "key", key, "err", err)
			continue
		}
		if doc.Seq > s.seq {
			s.seq = doc.Seq
		}
	}
	return s, nil
}

// Device is the identifier stamped on this replica's writes.
func (s *Store) Device() string {
	return s.clock.Device()
}

// BasePath is the directory backing the store, or "" for a memory store.
func (s *Store) BasePath() string {
	return s.basePath
}

func docKey(kind change.Kind, id string) string {
	return string(kind) + "/" + id
}

func splitKey(key string) (change.Kind, string, bool) {
	kind, id, ok := strings.Cut(key, "/")
	if !ok || kind == stateDir {
		return "", "", false
	}
	return change.Kind(kind), id, true
}

func isState(key string) bool {
	return strings.HasPrefix(key, stateDir+"/")
}

func (s *Store) read(key string) (change.Document, error) {
	raw, err := s.d.Read(key)
	if err != nil {
		return change.Document{}, err
	}
	var doc change.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return change.Document{}, err
	}
	if kind, id, ok := splitKey(key); ok {
		doc.Kind, doc.ID = kind, id
	}
	return doc, nil
}

func (s *Store) write(doc change.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return s.d.Write(doc.Key(), raw)
}

// lookup reads a document, reporting false when it was never written.
func (s *Store) lookup(kind change.Kind, id string) (change.Document, bool, error) {
	key := docKey(kind, id)
	if !s.d.Has(key) {
		return change.Document{}, false, nil
	}
	doc, err := s.read(key)
	if err != nil {
		return change.Document{}, false, fmt.Errorf("store: read %s: %w", key, err)
	}
	return doc, true, nil
}

// save records v as the new value of (kind, id), stamping changed fields.
// When the stored record moved on since the caller read it, only the fields
// the caller edited are written and assignment logs are unioned.
func (s *Store) save(ctx context.Context, kind change.Kind, id string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("store: %s without id", kind)
	}
	fields, err := change.Encode(v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	doc, _, err := s.lookup(kind, id)
	if err != nil {
		return err
	}
	doc.Kind, doc.ID = kind, id
	key := doc.Key()
	if base, ok := s.base[key]; ok && !change.SameFields(base, doc.Fields) {
		stored := doc.Clone()
		if !doc.Rebase(base, fields, s.clock) {
			return nil
		}
		doc = entry.Merge(stored, doc)
	} else if !doc.Update(fields, s.clock) {
		s.base[key] = fields
		return nil
	}
	s.seq++
	doc.Seq = s.seq
	if err := s.write(doc); err != nil {
		return fmt.Errorf("store: save %s: %w", key, err)
	}
	s.base[key] = fields
	return nil
}

// remove tombstones (kind, id). Removing a missing record is not an error.
func (s *Store) remove(ctx context.Context, kind change.Kind, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok, err := s.lookup(kind, id)
	if err != nil || !ok || doc.Deleted() {
		return err
	}
	doc.MarkDeleted(s.clock)
	s.seq++
	doc.Seq = s.seq
	if err := s.write(doc); err != nil {
		return fmt.Errorf("store: delete %s: %w", doc.Key(), err)
	}
	return nil
}

// each calls fn with every live document of kind.
func (s *Store) each(ctx context.Context, kind change.Kind, fn func(change.Document) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	prefix := string(kind) + "/"
	for key := range s.d.Keys(ctx.Done()) {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		doc, err := s.read(key)
		if err != nil {
			s.logger.Warn("skipping unreadable record", "key", key, "err", err)
			continue
		}
		if doc.Deleted() {
			continue
		}
		s.mu.Lock()
		s.base[key] = doc.Fields
		s.mu.Unlock()
		if err := fn(doc); err != nil {
			return err
		}
	}
	return ctx.Err()
}
