package models

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// ColumnID identifies one of the three board lanes.
type ColumnID string

const (
	ColumnTodo       ColumnID = "todo"
	ColumnInProgress ColumnID = "inprogress"
	ColumnDone       ColumnID = "done"
)

// Columns lists the board lanes in display order.
var Columns = []ColumnID{ColumnTodo, ColumnInProgress, ColumnDone}

// Valid reports whether c is one of the known lanes.
func (c ColumnID) Valid() bool {
	switch c {
	case ColumnTodo, ColumnInProgress, ColumnDone:
		return true
	}
	return false
}

// Priority is the urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Rank returns a numeric value for sorting by priority.
// Lower numbers indicate higher priority.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 99
	}
}

// ParseColumnID normalizes user-supplied lane names. It accepts any casing
// and the in_progress / in-progress spellings.
func ParseColumnID(s string) (ColumnID, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "todo":
		return ColumnTodo, true
	case "inprogress", "in_progress", "in-progress":
		return ColumnInProgress, true
	case "done":
		return ColumnDone, true
	}
	return "", false
}

// ParsePriority normalizes user-supplied priorities. The numeric strings
// 1, 2 and 3 are synonyms for low, medium and high.
func ParsePriority(s string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "1":
		return PriorityLow, true
	case "medium", "2":
		return PriorityMedium, true
	case "high", "3":
		return PriorityHigh, true
	}
	return "", false
}

// Task is a single card on the board.
type Task struct {
	ID          string   `json:"id"`
	Index       *int64   `json:"index,omitempty"` // nil until the remote service has stored the task
	ColumnID    ColumnID `json:"columnId"`
	Priority    Priority `json:"priority"`
	Title       string   `json:"title"`
	Description string   `json:"description"`

	// TszImplement is an opaque remote field carried through updates untouched.
	TszImplement *string   `json:"tszImplement,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// HasIndex reports whether the task has been persisted remotely.
func (t *Task) HasIndex() bool {
	return t.Index != nil
}

// IndexString formats the remote index, or returns "-" when there is none.
func (t *Task) IndexString() string {
	if t.Index == nil {
		return "-"
	}
	return strconv.FormatInt(*t.Index, 10)
}

// Clone returns a copy that shares no pointers with t.
func (t Task) Clone() Task {
	if t.Index != nil {
		idx := *t.Index
		t.Index = &idx
	}
	if t.TszImplement != nil {
		v := *t.TszImplement
		t.TszImplement = &v
	}
	return t
}

// IndexPtr is a convenience for building tasks with a known index.
func IndexPtr(i int64) *int64 {
	return &i
}

// CreateInput carries the fields needed to create a task.
type CreateInput struct {
	ColumnID    ColumnID `json:"columnId"`
	Priority    Priority `json:"priority"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
}

// Validate checks that the input has valid field values.
func (in *CreateInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return errors.New("title is required")
	}

	if strings.TrimSpace(in.Description) == "" {
		return errors.New("description is required")
	}

	if !in.ColumnID.Valid() {
		return errors.New("columnId must be 'todo', 'inprogress', or 'done'")
	}

	if !in.Priority.Valid() {
		return errors.New("priority must be 'high', 'medium', or 'low'")
	}

	return nil
}

// Task builds an unsaved task from the input.
func (in CreateInput) Task() Task {
	return Task{
		ColumnID:    in.ColumnID,
		Priority:    in.Priority,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
	}
}
