// Package app opens a journal from configuration. The CLI commands, the MCP
// server and the watch loop share the same wiring: logger, store, journal
// and sync engine.
package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"tableflip.dev/spreads/pkg/change"
	"tableflip.dev/spreads/pkg/config"
	"tableflip.dev/spreads/pkg/journal"
	"tableflip.dev/spreads/pkg/logging"
	"tableflip.dev/spreads/pkg/remote"
	"tableflip.dev/spreads/pkg/store"
	"tableflip.dev/spreads/pkg/syncer"
)

// App is an opened journal with its sync engine.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Store   *store.Store
	Journal *journal.Journal
	// Sync is never nil. It reports LocalOnly when sync is disabled or no
	// remote is configured.
	Sync    *syncer.Engine

	remote  *remote.SQLite
	closers []io.Closer
}

// Option configures Open.
type Option func(*openOptions)

type openOptions struct {
	logger *slog.Logger
	now    func() time.Time
}

// WithLogger skips building a logger from the config.
func WithLogger(l *slog.Logger) Option {
	return func(o *openOptions) { o.logger = l }
}

// WithNow sets the clock used by the store, journal and sync engine.
func WithNow(now func() time.Time) Option {
	return func(o *openOptions) { o.now = now }
}

// Open wires everything cfg describes. Close releases it.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: config required")
	}
	o := openOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg, Logger: o.logger}
	if a.Logger == nil {
		logger, closer, err := logging.New(logging.Options{
			File:       cfg.Log.File,
			Level:      cfg.Log.Level,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
		})
		if err != nil {
			return nil, err
		}
		a.Logger = logger
		a.closers = append(a.closers, closer)
	}

	s, err := store.Load(cfg, store.WithLogger(a.Logger.With("component", "store")), store.WithNow(o.now))
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Store = s

	jopts := cfg.Journal()
	jopts.Now = o.now
	jopts.Logger = a.Logger.With("component", "journal")
	j, err := journal.New(ctx, s, jopts)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Journal = j

	// A nil *SQLite must not reach the engine as a non-nil Remote.
	var rem syncer.Remote
	if cfg.Sync.Enabled && cfg.Sync.Remote != "" {
		a.remote = remote.NewSQLite(cfg.Sync.Remote, s.Device(), a.Logger.With("component", "remote"))
		a.closers = append(a.closers, a.remote)
		rem = a.remote
	}
	a.Sync = syncer.New(s, rem, syncer.Options{
		Enabled:   cfg.Sync.Enabled,
		Interval:  cfg.Sync.Interval,
		Logger:    a.Logger,
		LogSize:   cfg.Sync.LogSize,
		Now:       o.now,
		OnApplied: a.reload,
	})
	return a, nil
}

func (a *App) reload(ctx context.Context, docs []change.Document) {
	if err := a.Journal.Reload(ctx); err != nil {
		a.Logger.Warn("reload after sync failed", "err", err, "documents", len(docs))
	}
}

// Watch reloads the journal whenever the store changes on disk and nudges
// the sync engine, which also runs on its interval. onChange, if set, runs
// after each reload. Watch blocks until ctx is done.
func (a *App) Watch(ctx context.Context, onChange func()) error {
	events, err := a.Store.Watch(ctx)
	if err != nil {
		return err
	}

	nudges := make(chan struct{}, 1)
	done := make(chan error, 1)
	if a.Sync.Status().State != syncer.LocalOnly {
		go func() { done <- a.Sync.Run(ctx, nudges) }()
	} else {
		close(done)
	}

	for {
		select {
		case <-ctx.Done():
			<-done
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			a.Logger.Debug("store changed", "kind", ev.Kind, "id", ev.ID)
			if err := a.Journal.Reload(ctx); err != nil {
				a.Logger.Warn("reload failed", "err", err)
				continue
			}
			if onChange != nil {
				onChange()
			}
			select {
			case nudges <- struct{}{}:
			default:
			}
		}
	}
}

// Close releases the remote connection and the log file.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
