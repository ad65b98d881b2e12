package store

import (
	"context"
	"errors"

	"kanban/internal/models"
)

var (
	// ErrNotFound is returned when no live task has the requested index.
	ErrNotFound = errors.New("task not found")

	// ErrConflict is returned when a create reuses an existing index.
	ErrConflict = errors.New("task index already exists")
)

// Store defines the interface for task record persistence.
type Store interface {
	// CreateTask stores rec. A zero index is replaced by the next free one.
	CreateTask(ctx context.Context, rec *models.Record) error
	GetTask(ctx context.Context, index int64) (*models.Record, error)
	ListTasksByUser(ctx context.Context, userToken int64) ([]models.Record, error)
	UpdateTask(ctx context.Context, rec *models.Record) error
	// DeleteTask marks the task deleted; it no longer appears in lists.
	DeleteTask(ctx context.Context, index int64) error

	// Lifecycle
	Close() error
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*Cache)(nil)
)
