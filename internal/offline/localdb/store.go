// Package localdb persists the device queue in a SQLite file so queued
// operations survive restarts.
package localdb

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/ammerola/countsync/internal/core/domain"
	"github.com/ammerola/countsync/internal/offline"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	// MemoryPath opens a private in-memory database
	MemoryPath = ":memory:"

	lastSyncKey = "last_successful_sync"
	timeLayout  = time.RFC3339Nano
)

const operationColumns = "id, kind, payload, enqueued_at, retry_count, max_retries, last_error"

// Store is an offline.Store backed by SQLite
type Store struct {
	db       *sql.DB
	lockPath string
	logger   *slog.Logger
}

var (
	_ offline.Store      = (*Store)(nil)
	_ offline.PassLocker = (*Store)(nil)
)

// Open opens (creating if needed) the database at path and applies migrations
func Open(path string, logger *slog.Logger) (*Store, error) {
	dsn := "file::memory:?_pragma=foreign_keys(ON)"
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create queue directory: %w", err)
		}
		dsn = fmt.Sprintf(
			"file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)"+
				"&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)",
			path,
		)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open queue database %s: %w", path, err)
	}
	// One writer; also keeps a :memory: database on a single connection
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping queue database: %w", err)
	}

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("queue database opened", slog.String("path", path))
	store := New(db, logger)
	if path != MemoryPath {
		store.lockPath = LockPath(path)
	}
	return store, nil
}

// New wraps an already migrated database
func New(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.With(slog.String("component", "localdb")),
	}
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{MigrationsTable: "schema_migrations"})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	// m.Close would close db as well

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Store) Append(ctx context.Context, op offline.Operation) error {
	return insertOperation(ctx, s.db, op)
}

func (s *Store) Remove(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM operations WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete operation %s: %w", id, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]offline.Operation, error) {
	query, args, err := squirrel.Select(operationColumns).
		From("operations").
		OrderBy("seq").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query operations: %w", err)
	}
	defer rows.Close()

	ops := []offline.Operation{}
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate operations: %w", err)
	}
	return ops, nil
}

func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM operations`); err != nil {
		return fmt.Errorf("failed to clear operations: %w", err)
	}
	return nil
}

// Settle applies a sync pass in one transaction. Retried operations are
// updated in place so they keep their position.
func (s *Store) Settle(ctx context.Context, st offline.Settlement) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.ErrorContext(ctx, "failed to rollback settlement", slog.String("error", rbErr.Error()))
			}
		}
	}()

	retry := make(map[string]bool, len(st.Retry))
	for _, op := range st.Retry {
		retry[op.ID] = true
		if _, err = tx.ExecContext(ctx,
			`UPDATE operations SET retry_count = ?, last_error = ? WHERE id = ?`,
			op.RetryCount, op.LastError, op.ID); err != nil {
			return fmt.Errorf("failed to update operation %s: %w", op.ID, err)
		}
	}

	var settled []string
	for _, id := range st.Snapshot {
		if !retry[id] {
			settled = append(settled, id)
		}
	}
	if len(settled) > 0 {
		query, args, buildErr := squirrel.Delete("operations").
			Where(squirrel.Eq{"id": settled}).
			ToSql()
		if buildErr != nil {
			return fmt.Errorf("failed to build delete: %w", buildErr)
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to delete settled operations: %w", err)
		}
	}

	for _, dl := range st.DeadLetters {
		if err = insertDeadLetter(ctx, tx, dl); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit settlement: %w", err)
	}
	return nil
}

func (s *Store) DeadLetters(ctx context.Context) ([]offline.DeadLetter, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+operationColumns+`, reason, error, conflict, dead_at FROM dead_letters ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query dead letters: %w", err)
	}
	defer rows.Close()

	dead := []offline.DeadLetter{}
	for rows.Next() {
		dl, err := scanDeadLetter(rows)
		if err != nil {
			return nil, err
		}
		dead = append(dead, dl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dead letters: %w", err)
	}
	return dead, nil
}

func (s *Store) Requeue(ctx context.Context, id string) (op offline.Operation, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return offline.Operation{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	row := tx.QueryRowContext(ctx,
		`SELECT `+operationColumns+`, reason, error, conflict, dead_at FROM dead_letters WHERE id = ?`, id)
	dl, err := scanDeadLetter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return offline.Operation{}, offline.ErrDeadLetterNotFound
	}
	if err != nil {
		return offline.Operation{}, err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM dead_letters WHERE id = ?`, id); err != nil {
		return offline.Operation{}, fmt.Errorf("failed to delete dead letter: %w", err)
	}

	op = dl.Operation
	op.RetryCount = 0
	op.LastError = ""
	if err = insertOperation(ctx, tx, op); err != nil {
		return offline.Operation{}, err
	}

	if err = tx.Commit(); err != nil {
		return offline.Operation{}, fmt.Errorf("failed to commit requeue: %w", err)
	}
	return op, nil
}

func (s *Store) PurgeDeadLetters(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM dead_letters`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge dead letters: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read purged count: %w", err)
	}
	return int(n), nil
}

func (s *Store) LastSync(ctx context.Context) (time.Time, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM sync_state WHERE key = ?`, lastSyncKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read last sync: %w", err)
	}
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid last sync %q: %w", value, err)
	}
	return t, nil
}

func (s *Store) SetLastSync(ctx context.Context, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_state (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		lastSyncKey, at.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to write last sync: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type scanner interface {
	Scan(dest ...any) error
}

func insertOperation(ctx context.Context, db execer, op offline.Operation) error {
	query, args, err := squirrel.Insert("operations").
		Columns("id", "kind", "payload", "enqueued_at", "retry_count", "max_retries", "last_error").
		Values(op.ID, string(op.Kind), []byte(op.Payload), op.EnqueuedAt.UTC().Format(timeLayout),
			op.RetryCount, op.MaxRetries, op.LastError).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert operation %s: %w", op.ID, err)
	}
	return nil
}

func insertDeadLetter(ctx context.Context, db execer, dl offline.DeadLetter) error {
	var conflict sql.NullString
	if dl.Conflict != nil {
		raw, err := json.Marshal(dl.Conflict)
		if err != nil {
			return fmt.Errorf("failed to encode conflict: %w", err)
		}
		conflict = sql.NullString{String: string(raw), Valid: true}
	}

	op := dl.Operation
	query, args, err := squirrel.Insert("dead_letters").
		Columns("id", "kind", "payload", "enqueued_at", "retry_count", "max_retries", "last_error",
			"reason", "error", "conflict", "dead_at").
		Values(op.ID, string(op.Kind), []byte(op.Payload), op.EnqueuedAt.UTC().Format(timeLayout),
			op.RetryCount, op.MaxRetries, op.LastError, string(dl.Reason), dl.Error, conflict,
			dl.DeadAt.UTC().Format(timeLayout)).
		Suffix("ON CONFLICT(id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert dead letter %s: %w", op.ID, err)
	}
	return nil
}

func scanOperation(row scanner) (offline.Operation, error) {
	var (
		op         offline.Operation
		kind       string
		payload    []byte
		enqueuedAt string
	)
	if err := row.Scan(&op.ID, &kind, &payload, &enqueuedAt, &op.RetryCount, &op.MaxRetries, &op.LastError); err != nil {
		return offline.Operation{}, fmt.Errorf("failed to scan operation: %w", err)
	}
	return finishOperation(op, kind, payload, enqueuedAt)
}

func scanDeadLetter(row scanner) (offline.DeadLetter, error) {
	var (
		dl         offline.DeadLetter
		kind       string
		payload    []byte
		enqueuedAt string
		reason     string
		conflict   sql.NullString
		deadAt     string
	)
	op := &dl.Operation
	err := row.Scan(&op.ID, &kind, &payload, &enqueuedAt, &op.RetryCount, &op.MaxRetries, &op.LastError,
		&reason, &dl.Error, &conflict, &deadAt)
	if errors.Is(err, sql.ErrNoRows) {
		return offline.DeadLetter{}, err
	}
	if err != nil {
		return offline.DeadLetter{}, fmt.Errorf("failed to scan dead letter: %w", err)
	}

	dl.Operation, err = finishOperation(*op, kind, payload, enqueuedAt)
	if err != nil {
		return offline.DeadLetter{}, err
	}
	dl.Reason = offline.DeadLetterReason(reason)
	if dl.DeadAt, err = time.Parse(timeLayout, deadAt); err != nil {
		return offline.DeadLetter{}, fmt.Errorf("invalid dead_at %q: %w", deadAt, err)
	}
	if conflict.Valid {
		var data domain.ConflictData
		if err := json.Unmarshal([]byte(conflict.String), &data); err != nil {
			return offline.DeadLetter{}, fmt.Errorf("invalid conflict data: %w", err)
		}
		dl.Conflict = &data
	}
	return dl, nil
}

func finishOperation(op offline.Operation, kind string, payload []byte, enqueuedAt string) (offline.Operation, error) {
	op.Kind = offline.Kind(kind)
	op.Payload = json.RawMessage(payload)
	t, err := time.Parse(timeLayout, enqueuedAt)
	if err != nil {
		return offline.Operation{}, fmt.Errorf("invalid enqueued_at %q: %w", enqueuedAt, err)
	}
	op.EnqueuedAt = t
	return op, nil
}
