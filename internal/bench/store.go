// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bench

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	recorded_at INTEGER NOT NULL,
	name        TEXT    NOT NULL,
	workload    TEXT    NOT NULL,
	threads     INTEGER NOT NULL,
	iterations  INTEGER NOT NULL,
	items       INTEGER NOT NULL,
	elapsed_ns  INTEGER NOT NULL,
	ops         INTEGER NOT NULL,
	exhausted   INTEGER NOT NULL
)`

// Store keeps a history of results in a SQLite database.
type Store struct {
	db *sql.DB
}

// OpenStore opens or creates the database at path.
func OpenStore(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("bench: open %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("bench: create schema in %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Record appends r, stamped with at.
func (s *Store) Record(ctx context.Context, at time.Time, r Result) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (recorded_at, name, workload, threads, iterations, items, elapsed_ns, ops, exhausted)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		at.UnixNano(), r.Name, r.Workload, r.Threads, r.Iterations, r.Items,
		int64(r.Elapsed), int64(r.Ops), int64(r.Exhausted))
	if err != nil {
		return fmt.Errorf("bench: record %s/%s: %w", r.Name, r.Workload, err)
	}
	return nil
}

// Recent returns up to limit results for name and workload, newest first.
func (s *Store) Recent(ctx context.Context, name, workload string, limit int) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, workload, threads, iterations, items, elapsed_ns, ops, exhausted
		 FROM runs WHERE name = ? AND workload = ? ORDER BY id DESC LIMIT ?`,
		name, workload, limit)
	if err != nil {
		return nil, fmt.Errorf("bench: query %s/%s: %w", name, workload, err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var elapsed, ops, exhausted int64
		if err := rows.Scan(&r.Name, &r.Workload, &r.Threads, &r.Iterations, &r.Items, &elapsed, &ops, &exhausted); err != nil {
			return nil, fmt.Errorf("bench: scan %s/%s: %w", name, workload, err)
		}
		r.Elapsed = time.Duration(elapsed)
		r.Ops = uint64(ops)
		r.Exhausted = uint64(exhausted)
		results = append(results, r)
	}
	return results, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
