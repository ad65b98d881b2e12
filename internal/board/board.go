// Package board holds the client-side task collection. Every mutation goes
// through the remote task service; moves and edits are applied optimistically
// and compensated when the service rejects them.
package board

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"kanban/internal/models"
)

// Gateway is the remote task service as seen by the board.
type Gateway interface {
	List(ctx context.Context) ([]models.Task, error)
	Create(ctx context.Context, t models.Task) (models.Task, error)
	Update(ctx context.Context, t models.Task) (models.Task, error)
	Delete(ctx context.Context, index int64) (string, error)
}

// State is a point-in-time copy of the board.
type State struct {
	Tasks     []models.Task
	SortMode  SortMode
	IsLoading bool
	Err       string
}

// Board owns the task collection for one client session. It is safe for
// concurrent use; the lock is never held across a remote call.
type Board struct {
	gw  Gateway
	log log.FieldLogger
	now func() time.Time

	mu        sync.Mutex
	tasks     []models.Task
	sortMode  SortMode
	loading   int
	errMsg    string
	observers map[int]func(State)
	nextObs   int
}

// Option configures a Board.
type Option func(*Board)

// WithLogger sets the board logger.
func WithLogger(l log.FieldLogger) Option {
	return func(b *Board) { b.log = l }
}

// WithClock overrides the time source for locally created tasks.
func WithClock(now func() time.Time) Option {
	return func(b *Board) { b.now = now }
}

// New creates an empty board backed by gw.
func New(gw Gateway, opts ...Option) *Board {
	b := &Board{
		gw:        gw,
		log:       log.StandardLogger(),
		now:       time.Now,
		sortMode:  SortNone,
		observers: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers fn to be called with the new state after every change.
// The returned function removes the subscription; changes that land after
// that are still applied, just not reported.
func (b *Board) Subscribe(fn func(State)) func() {
	b.mu.Lock()
	id := b.nextObs
	b.nextObs++
	b.observers[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.observers, id)
		b.mu.Unlock()
	}
}

// State returns a copy of the current state.
func (b *Board) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stateLocked()
}

// Tasks returns a copy of the current collection.
func (b *Board) Tasks() []models.Task {
	return b.State().Tasks
}

// Derived returns the lane view of the current state.
func (b *Board) Derived() View {
	s := b.State()
	return ComputeDerived(s.Tasks, s.SortMode)
}

func (b *Board) stateLocked() State {
	tasks := make([]models.Task, len(b.tasks))
	for i, t := range b.tasks {
		tasks[i] = t.Clone()
	}
	return State{
		Tasks:     tasks,
		SortMode:  b.sortMode,
		IsLoading: b.loading > 0,
		Err:       b.errMsg,
	}
}

// update applies fn under the lock and then notifies observers.
func (b *Board) update(fn func()) {
	b.mu.Lock()
	fn()
	state := b.stateLocked()
	observers := make([]func(State), 0, len(b.observers))
	for _, o := range b.observers {
		observers = append(observers, o)
	}
	b.mu.Unlock()

	for _, o := range observers {
		o(state)
	}
}

func (b *Board) fail(err error) error {
	b.update(func() { b.errMsg = err.Error() })
	return err
}

// findLocked returns the position of the task with the given index, or -1.
func (b *Board) findLocked(index int64) int {
	for i := range b.tasks {
		if b.tasks[i].Index != nil && *b.tasks[i].Index == index {
			return i
		}
	}
	return -1
}

// LoadAll replaces the collection with the remote one. On failure the
// previous collection stays in place.
func (b *Board) LoadAll(ctx context.Context) error {
	b.update(func() { b.loading++ })

	tasks, err := b.gw.List(ctx)
	if err != nil {
		b.update(func() {
			b.loading--
			b.errMsg = err.Error()
		})
		return err
	}

	b.update(func() {
		b.loading--
		b.errMsg = ""
		b.tasks = tasks
	})
	b.log.WithField("count", len(tasks)).Debug("tasks loaded")
	return nil
}

// CreateTask stores a new task remotely and appends the stored version.
func (b *Board) CreateTask(ctx context.Context, in models.CreateInput) (models.Task, error) {
	if err := in.Validate(); err != nil {
		return models.Task{}, b.fail(fmt.Errorf("invalid task: %w", err))
	}

	b.update(func() { b.errMsg = "" })

	draft := in.Task()
	draft.ID = uuid.NewString()
	draft.CreatedAt = b.now()

	created, err := b.gw.Create(ctx, draft)
	if err != nil {
		return models.Task{}, b.fail(err)
	}

	b.update(func() { b.tasks = append(b.tasks, created.Clone()) })
	return created, nil
}

// DeleteTask removes a task remotely, then locally. Nothing changes locally
// when the remote call fails.
func (b *Board) DeleteTask(ctx context.Context, t models.Task) error {
	if t.Index == nil {
		return b.fail(&PreconditionError{Op: "delete", Reason: ErrMissingRemoteID})
	}
	index := *t.Index

	b.update(func() { b.errMsg = "" })

	if _, err := b.gw.Delete(ctx, index); err != nil {
		return b.fail(err)
	}

	b.update(func() { b.removeLocked(index) })
	return nil
}

func (b *Board) removeLocked(index int64) {
	if i := b.findLocked(index); i >= 0 {
		b.tasks = append(b.tasks[:i], b.tasks[i+1:]...)
	}
}

// DeleteAll deletes every task of the current collection one at a time and
// stops at the first failure. Tasks deleted before the failure are removed
// locally; the collection is emptied only when every deletion succeeded.
func (b *Board) DeleteAll(ctx context.Context) error {
	snapshot := b.Tasks()

	b.update(func() { b.errMsg = "" })

	position, done := 0, 0
	for _, t := range snapshot {
		if t.Index == nil {
			continue
		}
		position++
		index := *t.Index

		if _, err := b.gw.Delete(ctx, index); err != nil {
			return b.fail(&BulkError{Op: "delete all", Position: position, Done: done, Err: err})
		}

		done++
		b.update(func() { b.removeLocked(index) })
	}

	b.update(func() { b.tasks = nil })
	b.log.WithField("count", done).Debug("all tasks deleted")
	return nil
}

// MoveTask moves a task to another lane. The lane changes locally before the
// remote update; if the update fails only the lane is put back.
func (b *Board) MoveTask(ctx context.Context, t models.Task, to models.ColumnID) (models.Task, error) {
	if t.Index == nil {
		return models.Task{}, b.fail(&PreconditionError{Op: "move", Reason: ErrMissingRemoteID})
	}
	if to == "" {
		return models.Task{}, b.fail(&PreconditionError{Op: "move", Reason: ErrMissingTarget})
	}
	if t.ColumnID == to {
		return t, nil
	}

	index := *t.Index
	prev := t.ColumnID

	b.update(func() {
		b.errMsg = ""
		if i := b.findLocked(index); i >= 0 {
			b.tasks[i].ColumnID = to
		}
	})

	next := t.Clone()
	next.ColumnID = to

	updated, err := b.gw.Update(ctx, next)
	if err != nil {
		b.update(func() {
			if i := b.findLocked(index); i >= 0 && b.tasks[i].ColumnID == to {
				b.tasks[i].ColumnID = prev
			}
		})
		b.log.WithError(err).WithField("index", index).Info("move rolled back")
		return models.Task{}, b.fail(err)
	}

	b.update(func() { b.mergeLocked(index, updated) })
	return updated, nil
}

// mergeLocked overwrites the stored task with the service's version. The
// local creation time is kept because the service does not track it.
func (b *Board) mergeLocked(index int64, updated models.Task) {
	i := b.findLocked(index)
	if i < 0 {
		return
	}
	createdAt := b.tasks[i].CreatedAt
	b.tasks[i] = updated.Clone()
	b.tasks[i].CreatedAt = createdAt
}

// Patch lists the fields an edit changes. Nil fields are left alone.
type Patch struct {
	Title       *string
	Description *string
	Priority    *models.Priority
}

// EditTask updates text fields and priority with the same optimistic
// approach as MoveTask. On failure each field is restored only if it still
// holds the value this edit wrote.
func (b *Board) EditTask(ctx context.Context, t models.Task, p Patch) (models.Task, error) {
	if t.Index == nil {
		return models.Task{}, b.fail(&PreconditionError{Op: "edit", Reason: ErrMissingRemoteID})
	}
	if err := p.validate(); err != nil {
		return models.Task{}, b.fail(fmt.Errorf("invalid edit: %w", err))
	}

	index := *t.Index
	next := t.Clone()
	if p.Title != nil {
		next.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		next.Description = strings.TrimSpace(*p.Description)
	}
	if p.Priority != nil {
		next.Priority = *p.Priority
	}
	if next.Title == t.Title && next.Description == t.Description && next.Priority == t.Priority {
		return t, nil
	}

	b.update(func() {
		b.errMsg = ""
		if i := b.findLocked(index); i >= 0 {
			b.tasks[i].Title = next.Title
			b.tasks[i].Description = next.Description
			b.tasks[i].Priority = next.Priority
		}
	})

	updated, err := b.gw.Update(ctx, next)
	if err != nil {
		b.update(func() {
			i := b.findLocked(index)
			if i < 0 {
				return
			}
			cur := &b.tasks[i]
			if cur.Title == next.Title {
				cur.Title = t.Title
			}
			if cur.Description == next.Description {
				cur.Description = t.Description
			}
			if cur.Priority == next.Priority {
				cur.Priority = t.Priority
			}
		})
		return models.Task{}, b.fail(err)
	}

	b.update(func() { b.mergeLocked(index, updated) })
	return updated, nil
}

func (p Patch) validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if p.Description != nil && strings.TrimSpace(*p.Description) == "" {
		return fmt.Errorf("description is required")
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return fmt.Errorf("priority must be 'high', 'medium', or 'low'")
	}
	return nil
}

// ToggleSortMode switches between chronological and priority ordering.
func (b *Board) ToggleSortMode() SortMode {
	var mode SortMode
	b.update(func() {
		if b.sortMode == SortNone {
			b.sortMode = SortPriority
		} else {
			b.sortMode = SortNone
		}
		mode = b.sortMode
	})
	return mode
}

// Reset clears the local collection without touching the remote service.
func (b *Board) Reset() {
	b.update(func() { b.tasks = nil })
}

// LoadDemo replaces the local collection with unsaved sample tasks.
func (b *Board) LoadDemo() {
	now := b.now()
	seed := []struct {
		column      models.ColumnID
		priority    models.Priority
		title, desc string
		age         time.Duration
	}{
		{models.ColumnTodo, models.PriorityHigh, "Design login page", "Create UI and validation", 500 * time.Second},
		{models.ColumnTodo, models.PriorityLow, "Update footer links", "Fix outdated links and improve layout spacing.", 400 * time.Second},
		{models.ColumnTodo, models.PriorityMedium, "Improve search functionality", "Add filters and optimize search results for faster performance.", 300 * time.Second},
		{models.ColumnInProgress, models.PriorityMedium, "Improve mobile responsiveness", "Adjust layout for smaller screens and fix spacing issues.", 200 * time.Second},
		{models.ColumnInProgress, models.PriorityHigh, "Fix login authentication bug", "Users cannot log in after password reset. Needs urgent fix.", 150 * time.Second},
		{models.ColumnDone, models.PriorityLow, "Fix API bug", "Handle error states", 100 * time.Second},
		{models.ColumnDone, models.PriorityMedium, "Add notifications panel", "Create UI for user notifications with unread indicator.", 50 * time.Second},
	}

	tasks := make([]models.Task, 0, len(seed))
	for _, s := range seed {
		tasks = append(tasks, models.Task{
			ID:          uuid.NewString(),
			ColumnID:    s.column,
			Priority:    s.priority,
			Title:       s.title,
			Description: s.desc,
			CreatedAt:   now.Add(-s.age),
		})
	}

	b.update(func() { b.tasks = tasks })
}
