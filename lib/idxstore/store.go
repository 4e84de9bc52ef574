// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

package idxstore

import (
	"context"
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/aerologic/flightrecorder/lib/frontend"
	"github.com/aerologic/flightrecorder/lib/sqlitepool"
)

var _ frontend.LogIdxManager = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS idx_counter (
	id    INTEGER PRIMARY KEY CHECK (id = 0),
	value INTEGER NOT NULL
);
INSERT OR IGNORE INTO idx_counter (id, value) VALUES (0, 0);
`

// Store persists the lifetime-monotone file-index counter in a
// single-row SQLite table. A pool of size 1 is sufficient — the
// counter is read and incremented at most once per file open or
// rotation, never concurrently.
type Store struct {
	pool *sqlitepool.Pool
}

// Open opens (creating if necessary) the SQLite database at path and
// ensures the counter table exists. The caller must call Close when
// the store is no longer needed.
func Open(path string, logger *slog.Logger) (*Store, error) {
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     path,
		PoolSize: 1,
		Logger:   logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("idxstore: opening %s: %w", path, err)
	}
	return &Store{pool: pool}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

// GetIndex implements frontend.LogIdxManager.
func (s *Store) GetIndex() (int, error) {
	conn, err := s.pool.Take(context.Background())
	if err != nil {
		return 0, fmt.Errorf("idxstore: taking connection: %w", err)
	}
	defer s.pool.Put(conn)

	var value int64
	err = sqlitex.Execute(conn, "SELECT value FROM idx_counter WHERE id = 0", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			value = stmt.ColumnInt64(0)
			return nil
		},
	})
	if err != nil {
		return 0, fmt.Errorf("idxstore: reading index: %w", err)
	}
	return int(value), nil
}

// SetIndex implements frontend.LogIdxManager.
func (s *Store) SetIndex(index int) error {
	conn, err := s.pool.Take(context.Background())
	if err != nil {
		return fmt.Errorf("idxstore: taking connection: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn, "UPDATE idx_counter SET value = ? WHERE id = 0", &sqlitex.ExecOptions{
		Args: []any{index},
	})
	if err != nil {
		return fmt.Errorf("idxstore: writing index: %w", err)
	}
	return nil
}

// GetIndexStr implements frontend.LogIdxManager, returning the current
// index formatted as a decimal string for the header's lifetime.index
// field (spec §4.4).
func (s *Store) GetIndexStr() (string, error) {
	index, err := s.GetIndex()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", index), nil
}
