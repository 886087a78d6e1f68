// Package store persists solve outcomes to a local sqlite database so
// the shell can show what was solved before, and how expensive it was.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cespare/xxhash"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS solves (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	fingerprint TEXT NOT NULL,
	structure TEXT NOT NULL,
	lexicon TEXT NOT NULL,
	solved INTEGER NOT NULL,
	nodes INTEGER NOT NULL,
	backtracks INTEGER NOT NULL,
	elapsed_ms INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS solves_fingerprint ON solves (fingerprint);
`

// Record is one solve outcome.
type Record struct {
	ID          int64
	Fingerprint string
	Structure   string
	Lexicon     string
	Solved      bool
	Nodes       uint64
	Backtracks  uint64
	Elapsed     time.Duration
	CreatedAt   time.Time
}

// History is the solve log. Safe for concurrent use; database/sql
// serializes access to the single sqlite file.
type History struct {
	db *sql.DB
}

func Open(path string) (*History, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &History{db: db}, nil
}

func (h *History) Close() error {
	return h.db.Close()
}

// Fingerprint identifies a (structure, lexicon) pair across runs.
func Fingerprint(structure, lexiconName string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(lexiconName+"\n"+structure))
}

// Add appends a record and fills in its ID and CreatedAt.
func (h *History) Add(ctx context.Context, rec *Record) error {
	rec.CreatedAt = time.Now().UTC().Truncate(time.Second)
	res, err := h.db.ExecContext(ctx, `INSERT INTO solves
		(fingerprint, structure, lexicon, solved, nodes, backtracks, elapsed_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Fingerprint, rec.Structure, rec.Lexicon, rec.Solved,
		int64(rec.Nodes), int64(rec.Backtracks), rec.Elapsed.Milliseconds(),
		rec.CreatedAt.Unix())
	if err != nil {
		return err
	}
	rec.ID, err = res.LastInsertId()
	return err
}

// Recent returns the latest n records, newest first.
func (h *History) Recent(ctx context.Context, n int) ([]*Record, error) {
	rows, err := h.db.QueryContext(ctx, `SELECT
		id, fingerprint, structure, lexicon, solved, nodes, backtracks, elapsed_ms, created_at
		FROM solves ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*Record
	for rows.Next() {
		rec := &Record{}
		var nodes, backtracks, elapsedMs, createdAt int64
		err = rows.Scan(&rec.ID, &rec.Fingerprint, &rec.Structure, &rec.Lexicon,
			&rec.Solved, &nodes, &backtracks, &elapsedMs, &createdAt)
		if err != nil {
			return nil, err
		}
		rec.Nodes = uint64(nodes)
		rec.Backtracks = uint64(backtracks)
		rec.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		rec.CreatedAt = time.Unix(createdAt, 0).UTC()
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
