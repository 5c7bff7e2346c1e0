// Package remote implements sync backends. SQLite keeps the shared copy of
// every record in a single database file, typically on a mounted or
// replicated drive, and exposes it as a change feed.
package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"tableflip.dev/spreads/pkg/change"
	"tableflip.dev/spreads/pkg/entry"
	"tableflip.dev/spreads/pkg/syncer"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	kind TEXT    NOT NULL,
	id   TEXT    NOT NULL,
	body TEXT    NOT NULL,
	seq  INTEGER NOT NULL,
	PRIMARY KEY (kind, id)
);
CREATE INDEX IF NOT EXISTS documents_seq ON documents (seq);
CREATE TABLE IF NOT EXISTS revoked (
	device TEXT PRIMARY KEY
);`

// pageSize bounds a single pull.
const pageSize = 500

// SQLite is a syncer.Remote over a SQLite database. The database is opened
// on first use so an unmounted drive reports offline rather than failing
// startup.
type SQLite struct {
	path   string
	device string
	logger *slog.Logger

	mu sync.Mutex
	db *sql.DB
}

var _ syncer.Remote = (*SQLite)(nil)

// NewSQLite returns a remote for the database at path, acting for device.
func NewSQLite(path, device string, logger *slog.Logger) *SQLite {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &SQLite{path: path, device: device, logger: logger.With("component", "remote")}
}

// conn opens the database, creating the schema. A missing parent directory
// means the remote is not mounted.
func (r *SQLite) conn(ctx context.Context) (*sql.DB, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dir := filepath.Dir(r.path)
	if _, err := os.Stat(dir); err != nil {
		if r.db != nil {
			_ = r.db.Close()
			r.db = nil
		}
		return nil, fmt.Errorf("%w: %s", syncer.ErrUnreachable, dir)
	}
	if r.db != nil {
		return r.db, nil
	}

	db, err := sql.Open("sqlite", r.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", r.path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	r.logger.Debug("opened remote", "path", r.path)
	r.db = db
	return db, nil
}

// Close releases the database handle.
func (r *SQLite) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func (r *SQLite) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := r.authorize(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *SQLite) authorize(ctx context.Context, tx *sql.Tx) error {
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM revoked WHERE device = ?`, r.device).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: device %s", syncer.ErrCredentialsRevoked, r.device)
	}
	return nil
}

type body struct {
	Fields map[string]json.RawMessage `json:"fields"`
	Stamps map[string]change.Stamp    `json:"stamps"`
}

// Pull returns documents written after cursor, oldest first.
func (r *SQLite) Pull(ctx context.Context, cursor int64) (syncer.Batch, error) {
	batch := syncer.Batch{Cursor: cursor}
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT kind, id, body, seq FROM documents
			WHERE seq > ? ORDER BY seq LIMIT ?`, cursor, pageSize)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				doc change.Document
				raw string
				b   body
			)
			if err := rows.Scan(&doc.Kind, &doc.ID, &raw, &batch.Cursor); err != nil {
				return err
			}
			if err := json.Unmarshal([]byte(raw), &b); err != nil {
				return fmt.Errorf("decode %s/%s: %w", doc.Kind, doc.ID, err)
			}
			doc.Fields, doc.Stamps = b.Fields, b.Stamps
			batch.Documents = append(batch.Documents, doc)
		}
		return rows.Err()
	})
	if err != nil {
		return syncer.Batch{}, err
	}
	r.logger.Debug("pull", "cursor", cursor, "documents", len(batch.Documents), "next", batch.Cursor)
	return batch, nil
}

// Push merges docs into the shared copy. Documents that change the shared
// copy get the next feed position; documents it already contains are
// skipped.
func (r *SQLite) Push(ctx context.Context, docs []change.Document) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var seq int64
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM documents`).Scan(&seq); err != nil {
			return err
		}
		for _, doc := range docs {
			merged, changed, err := r.merge(ctx, tx, doc)
			if err != nil {
				return err
			}
			if !changed {
				continue
			}
			raw, err := json.Marshal(body{Fields: merged.Fields, Stamps: merged.Stamps})
			if err != nil {
				return err
			}
			seq++
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO documents (kind, id, body, seq) VALUES (?, ?, ?, ?)
				ON CONFLICT(kind, id) DO UPDATE SET body = excluded.body, seq = excluded.seq`,
				string(merged.Kind), merged.ID, string(raw), seq); err != nil {
				return fmt.Errorf("write %s: %w", merged.Key(), err)
			}
		}
		return nil
	})
}

func (r *SQLite) merge(ctx context.Context, tx *sql.Tx, doc change.Document) (change.Document, bool, error) {
	doc = doc.Clone()
	doc.Seq = 0
	var raw string
	err := tx.QueryRowContext(ctx, `SELECT body FROM documents WHERE kind = ? AND id = ?`, string(doc.Kind), doc.ID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return doc, true, nil
	}
	if err != nil {
		return change.Document{}, false, err
	}
	var b body
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		return change.Document{}, false, fmt.Errorf("decode %s: %w", doc.Key(), err)
	}
	cur := change.Document{Kind: doc.Kind, ID: doc.ID, Fields: b.Fields, Stamps: b.Stamps}
	merged := entry.Merge(cur, doc)
	return merged, !change.Equal(cur, merged), nil
}

// Revoke stops device from reading or writing the shared copy.
func (r *SQLite) Revoke(ctx context.Context, device string) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `INSERT OR IGNORE INTO revoked (device) VALUES (?)`, device)
	return err
}

// Restore undoes Revoke.
func (r *SQLite) Restore(ctx context.Context, device string) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `DELETE FROM revoked WHERE device = ?`, device)
	return err
}
