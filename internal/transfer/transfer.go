// Package transfer moves board contents in and out of CSV files.
package transfer

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"kanban/internal/csvcodec"
	"kanban/internal/models"
)

// Board is the subset of board.Board used by import and export.
type Board interface {
	Tasks() []models.Task
	LoadAll(ctx context.Context) error
	DeleteAll(ctx context.Context) error
	CreateTask(ctx context.Context, in models.CreateInput) (models.Task, error)
}

// Mode decides what happens to existing tasks during an import.
type Mode int

const (
	// ModeAsk defers the decision to a Confirmer.
	ModeAsk Mode = iota
	ModeAppend
	ModeReplace
)

func (m Mode) String() string {
	switch m {
	case ModeAppend:
		return "append"
	case ModeReplace:
		return "replace"
	default:
		return "ask"
	}
}

// Confirmer asks the user whether an import of count tasks should replace
// the existing ones. Returning false means append.
type Confirmer interface {
	ConfirmReplace(count int) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(count int) (bool, error)

func (f ConfirmFunc) ConfirmReplace(count int) (bool, error) {
	return f(count)
}

// ImportError reports the row whose creation aborted an import. Rows before
// it stay stored remotely.
type ImportError struct {
	Row     int
	Created int
	Err     error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import stopped at row %d after %d created: %v", e.Row, e.Created, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// ImportResult summarizes a finished import.
type ImportResult struct {
	Mode    Mode
	Created int
}

// Service runs imports and exports against a board.
type Service struct {
	board   Board
	confirm Confirmer
	log     log.FieldLogger
}

// New creates a Service. confirm may be nil when imports never use ModeAsk.
func New(b Board, confirm Confirmer, l log.FieldLogger) *Service {
	if l == nil {
		l = log.StandardLogger()
	}
	return &Service{board: b, confirm: confirm, log: l}
}

// ExportFilename returns the default export file name for the given time.
func ExportFilename(now time.Time) string {
	stamp := strings.ReplaceAll(now.UTC().Format("2006-01-02T15:04:05"), ":", "-")
	return "kanban-tasks-" + stamp + ".csv"
}

// Export writes the board's current in-memory tasks as CSV. The remote
// service is not consulted.
func (s *Service) Export(w io.Writer) (int, error) {
	tasks := s.board.Tasks()
	if err := csvcodec.Encode(w, tasks); err != nil {
		return 0, err
	}
	s.log.WithField("count", len(tasks)).Debug("tasks exported")
	return len(tasks), nil
}

// Import decodes r and creates one task per row, in file order. With
// ModeReplace every existing task is deleted first. The board is reloaded
// from the service once all rows are created.
func (s *Service) Import(ctx context.Context, r io.Reader, mode Mode) (ImportResult, error) {
	records, err := csvcodec.DecodeRecords(r)
	if err != nil {
		return ImportResult{}, err
	}

	if mode == ModeAsk {
		if s.confirm == nil {
			return ImportResult{}, fmt.Errorf("import mode not chosen and no confirmer configured")
		}
		replace, err := s.confirm.ConfirmReplace(len(records))
		if err != nil {
			return ImportResult{}, err
		}
		mode = ModeAppend
		if replace {
			mode = ModeReplace
		}
	}

	result := ImportResult{Mode: mode}

	if mode == ModeReplace {
		if err := s.board.DeleteAll(ctx); err != nil {
			return result, err
		}
	}

	for _, rec := range records {
		if _, err := s.board.CreateTask(ctx, rec.Input); err != nil {
			return result, &ImportError{Row: rec.Row, Created: result.Created, Err: err}
		}
		result.Created++
	}

	if err := s.board.LoadAll(ctx); err != nil {
		return result, err
	}

	s.log.WithFields(log.Fields{"count": result.Created, "mode": mode.String()}).Info("import complete")
	return result, nil
}
