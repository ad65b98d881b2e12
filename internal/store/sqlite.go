package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"kanban/internal/models"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given database path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writes.
	db.SetMaxOpenConns(1)

	if err := migrate(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateTask inserts a new task record.
func (s *SQLiteStore) CreateTask(ctx context.Context, rec *models.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if rec.Index == 0 {
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(idx), 0) + 1 FROM tasks`).Scan(&rec.Index); err != nil {
			return fmt.Errorf("failed to allocate task index: %w", err)
		}
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO tasks (idx, user_token, title, description, priority, state_id, deleted, tsz_implement, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, FALSE, ?, ?, ?)
	`, rec.Index, rec.UserToken.Token, rec.Title, rec.Desc, rec.Priority, rec.State.ID, nullString(rec.TszImplement), now, now)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return fmt.Errorf("%w: %d", ErrConflict, rec.Index)
		}
		return fmt.Errorf("failed to create task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit task: %w", err)
	}

	rec.Deleted = false
	return nil
}

// GetTask retrieves a live task by index.
func (s *SQLiteStore) GetTask(ctx context.Context, index int64) (*models.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT idx, user_token, title, description, priority, state_id, deleted, tsz_implement
		FROM tasks WHERE idx = ? AND deleted = FALSE
	`, index)

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, index)
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return rec, nil
}

// ListTasksByUser retrieves the live tasks of a user ordered by index.
func (s *SQLiteStore) ListTasksByUser(ctx context.Context, userToken int64) ([]models.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT idx, user_token, title, description, priority, state_id, deleted, tsz_implement
		FROM tasks WHERE user_token = ? AND deleted = FALSE ORDER BY idx ASC
	`, userToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	records := []models.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		records = append(records, *rec)
	}

	return records, rows.Err()
}

// UpdateTask replaces every field of the live task with the same index.
func (s *SQLiteStore) UpdateTask(ctx context.Context, rec *models.Record) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET user_token = ?, title = ?, description = ?, priority = ?, state_id = ?, tsz_implement = COALESCE(?, tsz_implement), updated_at = ?
		WHERE idx = ? AND deleted = FALSE
	`, rec.UserToken.Token, rec.Title, rec.Desc, rec.Priority, rec.State.ID, nullString(rec.TszImplement), time.Now(), rec.Index)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	return expectOneRow(result, rec.Index)
}

// DeleteTask soft-deletes a task by index.
func (s *SQLiteStore) DeleteTask(ctx context.Context, index int64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET deleted = TRUE, updated_at = ? WHERE idx = ? AND deleted = FALSE
	`, time.Now(), index)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return expectOneRow(result, index)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*models.Record, error) {
	var (
		rec models.Record
		tsz sql.NullString
	)

	err := row.Scan(
		&rec.Index,
		&rec.UserToken.Token,
		&rec.Title,
		&rec.Desc,
		&rec.Priority,
		&rec.State.ID,
		&rec.Deleted,
		&tsz,
	)
	if err != nil {
		return nil, err
	}

	if tsz.Valid {
		rec.TszImplement = &tsz.String
	}

	return &rec, nil
}

func expectOneRow(result sql.Result, index int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, index)
	}
	return nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
