package database

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

//go:embed schemas/001_initial.sql
var schemaSQL string

// Outcome is how a recorded run ended.
type Outcome string

const (
	OutcomeFinished    Outcome = "finished"
	OutcomeToolMissing Outcome = "tool-missing"
	OutcomeAborted     Outcome = "aborted"
	OutcomeFailed      Outcome = "failed"
)

var ErrRunNotFound = errors.New("run not found")

// Run is one recorded tsd invocation.
type Run struct {
	ID         ulid.ULID
	Operation  string
	Dir        string
	Query      string
	Items      []string
	Outcome    Outcome
	ExitCode   int
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Database stores the run history in SQLite.
type Database struct {
	db *sql.DB
}

// NewDatabase opens the database at path and runs schema setup.
func NewDatabase(ctx context.Context, path string) (*Database, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// PRAGMA foreign_keys is per connection
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	database := &Database{db: db}

	if err := database.setupSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to setup schema: %w", err)
	}

	return database, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// RecordRun stores run and its items. A zero ID is replaced by a new ULID,
// which is returned.
func (d *Database) RecordRun(ctx context.Context, run Run) (ulid.ULID, error) {
	if run.ID == (ulid.ULID{}) {
		run.ID = ulid.Make()
	}

	err := d.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO runs (id, operation, dir, query, outcome, exit_code, error, started_at, finished_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID.String(),
			run.Operation,
			run.Dir,
			run.Query,
			string(run.Outcome),
			run.ExitCode,
			run.Error,
			run.StartedAt.UnixNano(),
			run.FinishedAt.UnixNano(),
		)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		for i, path := range run.Items {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO run_items (run_id, position, path) VALUES (?, ?, ?)`,
				run.ID.String(), i, path,
			); err != nil {
				return fmt.Errorf("insert run item: %w", err)
			}
		}

		return nil
	})

	return run.ID, err
}

// GetRun retrieves a run with its items.
func (d *Database) GetRun(ctx context.Context, id ulid.ULID) (Run, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT id, operation, dir, query, outcome, exit_code, error, started_at, finished_at
		 FROM runs WHERE id = ?`, id.String())

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, err
	}

	run.Items, err = d.items(ctx, run.ID)

	return run, err
}

// ListRuns returns the most recent runs first, restricted to operation
// unless it is empty. A limit of 0 returns all.
func (d *Database) ListRuns(ctx context.Context, operation string, limit int) ([]Run, error) {
	query := `SELECT id, operation, dir, query, outcome, exit_code, error, started_at, finished_at
		FROM runs`

	args := []any{}
	if operation != "" {
		query += ` WHERE operation = ?`
		args = append(args, operation)
	}

	query += ` ORDER BY started_at DESC, id DESC`

	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	for i := range runs {
		if runs[i].Items, err = d.items(ctx, runs[i].ID); err != nil {
			return nil, err
		}
	}

	return runs, nil
}

func (d *Database) items(ctx context.Context, id ulid.ULID) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT path FROM run_items WHERE run_id = ? ORDER BY position`, id.String())
	if err != nil {
		return nil, fmt.Errorf("list run items: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var items []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("scan run item: %w", err)
		}

		items = append(items, path)
	}

	return items, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		run               Run
		id, outcome       string
		started, finished int64
	)

	if err := s.Scan(&id, &run.Operation, &run.Dir, &run.Query, &outcome,
		&run.ExitCode, &run.Error, &started, &finished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	parsed, err := ulid.Parse(id)
	if err != nil {
		return Run{}, fmt.Errorf("parse run id %q: %w", id, err)
	}

	run.ID = parsed
	run.Outcome = Outcome(outcome)
	run.StartedAt = time.Unix(0, started)
	run.FinishedAt = time.Unix(0, finished)

	return run, nil
}

// withTx executes fn within a database transaction
func (d *Database) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false

	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	committed = true

	return nil
}

// setupSchema executes the embedded schema SQL to create tables and indexes
func (d *Database) setupSchema(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := d.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}
