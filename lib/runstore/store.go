// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

package runstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/chronon-foundation/chronon/lib/clock"
	"github.com/chronon-foundation/chronon/lib/sqlitepool"
	"github.com/chronon-foundation/chronon/lib/trace"
)

// ErrRunNotFound is returned by Get and Delete for an unknown run id.
var ErrRunNotFound = errors.New("runstore: run not found")

// Run is one persisted scenario run.
type Run struct {
	// ID is the run's uuid, assigned by Put when empty.
	ID string

	// Scenario is the scenario name the run executed.
	Scenario string

	// StartedAt is the wall-clock time the run began.
	StartedAt time.Time

	// Entries is the trace entry count.
	Entries int

	// Wakes is the number of wake notifications delivered.
	Wakes int

	// Elapsed is the run's final virtual elapsed time.
	Elapsed time.Duration

	// Digest is the trace digest.
	Digest trace.Digest

	// Archive is the archived trace (a lib/tracestore container).
	// May be nil in listings, which omit the blob.
	Archive []byte
}

// Config configures a Store.
type Config struct {
	// Path is the SQLite database file.
	Path string

	// PoolSize is the connection pool size. Defaults to 4.
	PoolSize int

	// Clock stamps StartedAt for runs that arrive without one.
	// Required.
	Clock clock.Clock

	// Logger receives operational messages. Required.
	Logger *slog.Logger
}

// Store is the SQLite-backed run history.
type Store struct {
	pool   *sqlitepool.Pool
	clock  clock.Clock
	logger *slog.Logger
}

const schema = `
	CREATE TABLE IF NOT EXISTS runs (
		id          TEXT PRIMARY KEY,
		scenario    TEXT NOT NULL,
		started_at  TEXT NOT NULL,
		entries     INTEGER NOT NULL,
		wakes       INTEGER NOT NULL,
		elapsed_ns  INTEGER NOT NULL,
		digest      TEXT NOT NULL,
		archive     BLOB
	);
	CREATE INDEX IF NOT EXISTS runs_started_at ON runs (started_at DESC);
	CREATE INDEX IF NOT EXISTS runs_scenario ON runs (scenario);
`

// Open opens (creating if necessary) the run store at cfg.Path.
func Open(cfg Config) (*Store, error) {
	if cfg.Clock == nil {
		return nil, fmt.Errorf("runstore: Clock is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("runstore: Logger is required")
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 4
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: poolSize,
		Logger:   cfg.Logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("runstore: %w", err)
	}

	return &Store{pool: pool, clock: cfg.Clock, logger: cfg.Logger}, nil
}

// Close closes the underlying connection pool. Blocks until all
// borrowed connections are returned.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Put inserts a run. When run.ID is empty a new uuid is assigned;
// when run.StartedAt is zero the store's clock stamps it. Returns the
// run id.
func (s *Store) Put(ctx context.Context, run *Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = s.clock.Now().UTC()
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return "", fmt.Errorf("runstore: put: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`INSERT INTO runs (id, scenario, started_at, entries, wakes, elapsed_ns, digest, archive)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{
				run.ID,
				run.Scenario,
				run.StartedAt.UTC().Format(time.RFC3339Nano),
				run.Entries,
				run.Wakes,
				int64(run.Elapsed),
				trace.FormatDigest(run.Digest),
				run.Archive,
			},
		})
	if err != nil {
		return "", fmt.Errorf("runstore: insert run %s: %w", run.ID, err)
	}

	s.logger.Info("run stored",
		"run", run.ID,
		"scenario", run.Scenario,
		"entries", run.Entries,
		"digest", trace.FormatRef(run.Digest))
	return run.ID, nil
}

// Get returns one run including its archive blob. Returns
// ErrRunNotFound for an unknown id.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("runstore: get: %w", err)
	}
	defer s.pool.Put(conn)

	var run *Run
	err = sqlitex.Execute(conn,
		`SELECT id, scenario, started_at, entries, wakes, elapsed_ns, digest, archive
		 FROM runs WHERE id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{id},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				scanned, err := scanRun(stmt, true)
				if err != nil {
					return err
				}
				run = scanned
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("runstore: get run %s: %w", id, err)
	}
	if run == nil {
		return nil, fmt.Errorf("run %s: %w", id, ErrRunNotFound)
	}
	return run, nil
}

// List returns the most recent runs, newest first, without archive
// blobs. limit <= 0 means 50.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("runstore: list: %w", err)
	}
	defer s.pool.Put(conn)

	var runs []Run
	err = sqlitex.Execute(conn,
		`SELECT id, scenario, started_at, entries, wakes, elapsed_ns, digest, NULL
		 FROM runs ORDER BY started_at DESC LIMIT ?`,
		&sqlitex.ExecOptions{
			Args: []any{limit},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				run, err := scanRun(stmt, false)
				if err != nil {
					return err
				}
				runs = append(runs, *run)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("runstore: list runs: %w", err)
	}
	return runs, nil
}

// Delete removes a run. Returns ErrRunNotFound for an unknown id.
func (s *Store) Delete(ctx context.Context, id string) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("runstore: delete: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn, `DELETE FROM runs WHERE id = ?`,
		&sqlitex.ExecOptions{Args: []any{id}})
	if err != nil {
		return fmt.Errorf("runstore: delete run %s: %w", id, err)
	}
	if conn.Changes() == 0 {
		return fmt.Errorf("run %s: %w", id, ErrRunNotFound)
	}

	s.logger.Info("run deleted", "run", id)
	return nil
}

// scanRun reads one row. withArchive controls whether the archive
// column is materialized (listings skip the blob).
func scanRun(stmt *sqlite.Stmt, withArchive bool) (*Run, error) {
	startedAt, err := time.Parse(time.RFC3339Nano, stmt.ColumnText(2))
	if err != nil {
		return nil, fmt.Errorf("parsing started_at: %w", err)
	}
	digest, err := trace.ParseDigest(stmt.ColumnText(6))
	if err != nil {
		return nil, fmt.Errorf("parsing digest: %w", err)
	}

	run := &Run{
		ID:        stmt.ColumnText(0),
		Scenario:  stmt.ColumnText(1),
		StartedAt: startedAt,
		Entries:   int(stmt.ColumnInt64(3)),
		Wakes:     int(stmt.ColumnInt64(4)),
		Elapsed:   time.Duration(stmt.ColumnInt64(5)),
		Digest:    digest,
	}
	if withArchive && stmt.ColumnLen(7) > 0 {
		run.Archive = make([]byte, stmt.ColumnLen(7))
		stmt.ColumnBytes(7, run.Archive)
	}
	return run, nil
}
