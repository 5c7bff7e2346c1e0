// Package syncer reconciles the local store with a remote backend. A cycle
// pulls remote changes since the last checkpoint, merges them field by field
// with last-writer-wins, pushes local changes and only then advances the
// checkpoint. Cycles never overlap.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"tableflip.dev/spreads/pkg/change"
)

var (
	ErrInProgress = errors.New("syncer: a sync is already running")
	ErrLocalOnly  = errors.New("syncer: sync is disabled")
	// ErrUnreachable is returned by remotes that cannot be reached. The
	// engine reports it as offline rather than as an error.
	ErrUnreachable = errors.New("syncer: remote unreachable")
	// ErrCredentialsRevoked is returned by remotes that no longer accept
	// this device.
	ErrCredentialsRevoked = errors.New("syncer: remote credentials revoked")
)

// Replica is the local side of a sync.
type Replica interface {
	// Changed returns local documents written after since and the current
	// high-water mark.
	Changed(ctx context.Context, since int64) ([]change.Document, int64, error)
	// Apply merges a remote document into the local one.
	Apply(ctx context.Context, doc change.Document) (change.Document, bool, error)
	Checkpoint(ctx context.Context) (change.Checkpoint, error)
	SaveCheckpoint(ctx context.Context, cp change.Checkpoint) error
}

// Batch is a page of the remote change feed.
type Batch struct {
	Documents []change.Document
	// Cursor is the feed position after the last document.
	Cursor int64
}

// Remote is the backend side of a sync.
type Remote interface {
	Pull(ctx context.Context, cursor int64) (Batch, error)
	Push(ctx context.Context, docs []change.Document) error
}

// Options configures an Engine.
type Options struct {
	// Enabled false leaves the engine in LocalOnly.
	Enabled  bool
	Interval time.Duration
	Logger   *slog.Logger
	LogSize  int
	Now      func() time.Time
	// OnApplied runs after a pull changed local documents, before the push.
	OnApplied func(ctx context.Context, docs []change.Document)
}

// Engine runs sync cycles.
type Engine struct {
	replica Replica
	remote  Remote
	opts    Options
	log     *Log
	logger  *slog.Logger

	mu        sync.Mutex
	status    Status
	running   bool
	cancel    context.CancelFunc
	reachable bool
	subs      map[chan Status]struct{}
}

// New returns an engine over replica and remote.
func New(replica Replica, remote Remote, opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Interval <= 0 {
		opts.Interval = 15 * time.Minute
	}
	base := opts.Logger
	if base == nil {
		base = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	log := NewLog(opts.LogSize)
	e := &Engine{
		replica:   replica,
		remote:    remote,
		opts:      opts,
		log:       log,
		logger:    slog.New(log.Handler(base.Handler())).With("component", "sync"),
		reachable: true,
		subs:      make(map[chan Status]struct{}),
	}
	e.status = Status{State: Idle}
	if !opts.Enabled || remote == nil {
		e.status = Status{State: LocalOnly}
	}
	return e
}

// Status returns the current status.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Log returns the diagnostic log.
func (e *Engine) Log() *Log {
	return e.log
}

// Subscribe streams status changes until cancel is called. Slow readers miss
// intermediate states.
func (e *Engine) Subscribe() (<-chan Status, func()) {
	ch := make(chan Status, 8)
	e.mu.Lock()
	e.subs[ch] = struct{}{}
	e.mu.Unlock()
	return ch, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if _, ok := e.subs[ch]; ok {
			delete(e.subs, ch)
			close(ch)
		}
	}
}

// setLocked records and broadcasts s. Callers hold e.mu.
func (e *Engine) setLocked(s Status) {
	e.status = s
	for ch := range e.subs {
		select {
		case ch <- s:
		default:
		}
	}
}

// Sync runs one cycle. Failures are reported through the returned status as
// well as the error; the checkpoint is left untouched so the next cycle
// retries the same window.
func (e *Engine) Sync(ctx context.Context) (Status, error) {
	e.mu.Lock()
	if e.status.State == LocalOnly {
		e.mu.Unlock()
		return Status{State: LocalOnly}, ErrLocalOnly
	}
	if e.running {
		st := e.status
		e.mu.Unlock()
		return st, ErrInProgress
	}
	ctx, cancel := context.WithCancel(ctx)
	e.running = true
	e.cancel = cancel
	last := e.status.LastSync
	e.setLocked(Status{State: Syncing, LastSync: last})
	e.mu.Unlock()

	cp, err := e.cycle(ctx)
	cancel()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = false
	e.cancel = nil
	var st Status
	switch {
	case err == nil:
		st = Status{State: Synced, LastSync: cp.LastSync}
	case errors.Is(err, ErrUnreachable):
		st = Status{State: Offline, LastSync: last, Message: err.Error()}
	case errors.Is(err, ErrCredentialsRevoked):
		st = Status{State: BackupUnavailable, LastSync: last, Message: err.Error()}
	default:
		st = Status{State: Error, LastSync: last, Message: err.Error()}
	}
	if err != nil {
		e.logger.Warn("sync failed", "state", st.State, "err", err)
	}
	e.setLocked(st)
	return st, err
}

func (e *Engine) cycle(ctx context.Context) (change.Checkpoint, error) {
	cp, err := e.replica.Checkpoint(ctx)
	if err != nil {
		return cp, fmt.Errorf("read checkpoint: %w", err)
	}

	batch, err := e.remote.Pull(ctx, cp.RemoteCursor)
	if err != nil {
		return cp, fmt.Errorf("pull: %w", err)
	}
	var applied []change.Document
	for _, doc := range batch.Documents {
		if err := ctx.Err(); err != nil {
			return cp, err
		}
		merged, changed, err := e.replica.Apply(ctx, doc)
		if err != nil {
			return cp, fmt.Errorf("apply %s: %w", doc.Key(), err)
		}
		if changed {
			applied = append(applied, merged)
			e.logger.Debug("applied remote change", "key", doc.Key(), "device", doc.Modified().Device)
		}
	}
	e.logger.Info("pulled", "documents", len(batch.Documents), "applied", len(applied), "cursor", batch.Cursor)
	if len(applied) > 0 && e.opts.OnApplied != nil {
		e.opts.OnApplied(ctx, applied)
	}

	local, high, err := e.replica.Changed(ctx, cp.LocalSeq)
	if err != nil {
		return cp, fmt.Errorf("collect local changes: %w", err)
	}
	if len(local) > 0 {
		if err := e.remote.Push(ctx, local); err != nil {
			return cp, fmt.Errorf("push: %w", err)
		}
	}
	e.logger.Info("pushed", "documents", len(local))

	if err := ctx.Err(); err != nil {
		return cp, err
	}
	next := change.Checkpoint{
		RemoteCursor: cp.RemoteCursor,
		LocalSeq:     high,
		LastSync:     e.opts.Now(),
	}
	if batch.Cursor > next.RemoteCursor {
		next.RemoteCursor = batch.Cursor
	}
	if err := e.replica.SaveCheckpoint(ctx, next); err != nil {
		return cp, fmt.Errorf("save checkpoint: %w", err)
	}
	return next, nil
}

// Cancel stops the running cycle, if any. The cancelled cycle ends in Error
// and does not advance the checkpoint.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
}

// SetReachable reports network reachability. Losing the network marks an
// idle engine offline; regaining it while idle or offline starts a cycle in
// the background.
func (e *Engine) SetReachable(reachable bool) {
	e.mu.Lock()
	was := e.reachable
	e.reachable = reachable
	state := e.status.State
	if !reachable && !e.running && (state == Idle || state == Synced) {
		e.setLocked(Status{State: Offline, LastSync: e.status.LastSync, Message: "network unreachable"})
	}
	trigger := reachable && !was && !e.running && state.canTrigger()
	e.mu.Unlock()

	if trigger {
		e.logger.Info("network reachable, syncing")
		go func() {
			_, _ = e.Sync(context.Background())
		}()
	}
}

// Run syncs once, then on every interval tick and every nudge until ctx is
// done. Nudges arriving while a cycle runs are dropped.
func (e *Engine) Run(ctx context.Context, nudges <-chan struct{}) error {
	if e.Status().State == LocalOnly {
		return ErrLocalOnly
	}
	ticker := time.NewTicker(e.opts.Interval)
	defer ticker.Stop()

	e.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.runOnce(ctx)
		case _, ok := <-nudges:
			if !ok {
				nudges = nil
				continue
			}
			e.runOnce(ctx)
		}
	}
}

func (e *Engine) runOnce(ctx context.Context) {
	e.mu.Lock()
	reachable := e.reachable
	e.mu.Unlock()
	if !reachable {
		return
	}
	if _, err := e.Sync(ctx); err != nil && !errors.Is(err, ErrInProgress) {
		e.logger.Debug("scheduled sync did not complete", "err", err)
	}
}
