package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"tableflip.dev/spreads/pkg/change"
	"tableflip.dev/spreads/pkg/entry"
)

// Document returns the stored document for (kind, id), tombstones included.
func (s *Store) Document(ctx context.Context, kind change.Kind, id string) (change.Document, bool, error) {
	if err := ctx.Err(); err != nil {
		return change.Document{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(kind, id)
}

// Changed returns every document written locally after sequence number since,
// oldest first, and the highest sequence number at the time of the call.
func (s *Store) Changed(ctx context.Context, since int64) ([]change.Document, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	high := s.seq

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var docs []change.Document
	for key := range s.d.Keys(ctx.Done()) {
		if isState(key) {
			continue
		}
		doc, err := s.read(key)
		if err != nil {
			s.logger.Warn("skipping unreadable record", "key", key, "err", err)
			continue
		}
		if doc.Seq > since {
			docs = append(docs, doc)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].Seq < docs[j].Seq
	})
	return docs, high, nil
}

// Apply merges a remote document into the local one, field by field with
// assignment logs unioned, and stores the result. When the merge keeps local fields the remote does not
// have, the document is queued for the next push. Applied reports whether
// the local document changed.
func (s *Store) Apply(ctx context.Context, remote change.Document) (merged change.Document, applied bool, err error) {
	if err := ctx.Err(); err != nil {
		return change.Document{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range remote.Stamps {
		s.clock.Observe(st)
	}
	local, ok, err := s.lookup(remote.Kind, remote.ID)
	if err != nil {
		return change.Document{}, false, err
	}
	if !ok {
		merged = remote.Clone()
	} else {
		merged = entry.Merge(local, remote)
	}
	if ok && change.Equal(merged, local) {
		return local, false, nil
	}
	merged.Seq = 0
	if !change.Equal(merged, remote) {
		s.seq++
		merged.Seq = s.seq
	}
	if err := s.write(merged); err != nil {
		return change.Document{}, false, fmt.Errorf("store: apply %s: %w", merged.Key(), err)
	}
	return merged, true, nil
}

// Checkpoint returns the last completed sync checkpoint.
func (s *Store) Checkpoint(ctx context.Context) (change.Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return change.Checkpoint{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readCheckpoint()
}

// SaveCheckpoint records a completed sync cycle.
func (s *Store) SaveCheckpoint(ctx context.Context, cp change.Checkpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.Marshal(cp)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.d.Write(checkpointKey, raw); err != nil {
		return fmt.Errorf("store: save checkpoint: %w", err)
	}
	return nil
}

func (s *Store) readCheckpoint() (change.Checkpoint, error) {
	var cp change.Checkpoint
	if !s.d.Has(checkpointKey) {
		return cp, nil
	}
	raw, err := s.d.Read(checkpointKey)
	if err != nil {
		return cp, fmt.Errorf("store: read checkpoint: %w", err)
	}
	if err := json.Unmarshal(raw, &cp); err != nil {
		return cp, fmt.Errorf("store: decode checkpoint: %w", err)
	}
	return cp, nil
}
