package board

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingRemoteID means the task has never been stored remotely.
	ErrMissingRemoteID = errors.New("missing task index (remote id)")

	// ErrMissingTarget means a move was requested without a destination lane.
	ErrMissingTarget = errors.New("missing target columnId")
)

// PreconditionError is returned before any remote call is made.
type PreconditionError struct {
	Op     string
	Reason error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("cannot %s: %v", e.Op, e.Reason)
}

func (e *PreconditionError) Unwrap() error {
	return e.Reason
}

// BulkError reports the first failure of a sequential bulk operation.
// Position is 1-based within the items the operation walked; Done counts the
// items that succeeded before it.
type BulkError struct {
	Op       string
	Position int
	Done     int
	Err      error
}

func (e *BulkError) Error() string {
	return fmt.Sprintf("%s stopped at item %d after %d succeeded: %v", e.Op, e.Position, e.Done, e.Err)
}

func (e *BulkError) Unwrap() error {
	return e.Err
}
