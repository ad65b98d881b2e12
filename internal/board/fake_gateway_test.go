package board

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"kanban/internal/models"
)

// fakeGateway records calls and lets each test script failures.
type fakeGateway struct {
	mu        sync.Mutex
	remote    []models.Task
	nextIndex int64
	now       time.Time

	calls []string

	listErr   error
	createErr error
	updateFn  func(t models.Task) (models.Task, error)
	deleteErr map[int64]error
}

func newFakeGateway(remote ...models.Task) *fakeGateway {
	return &fakeGateway{
		remote:    remote,
		nextIndex: 100,
		now:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		deleteErr: make(map[int64]error),
	}
}

func (f *fakeGateway) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeGateway) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeGateway) List(ctx context.Context) ([]models.Task, error) {
	f.record("list")
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Task, len(f.remote))
	for i, t := range f.remote {
		out[i] = t.Clone()
		out[i].CreatedAt = f.now
	}
	return out, nil
}

func (f *fakeGateway) Create(ctx context.Context, t models.Task) (models.Task, error) {
	f.record("create")
	if f.createErr != nil {
		return models.Task{}, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextIndex++
	t.Index = models.IndexPtr(f.nextIndex)
	t.ID = strconv.FormatInt(f.nextIndex, 10)
	f.remote = append(f.remote, t.Clone())
	return t, nil
}

func (f *fakeGateway) Update(ctx context.Context, t models.Task) (models.Task, error) {
	f.record("update")
	if f.updateFn != nil {
		return f.updateFn(t)
	}
	return t, nil
}

func (f *fakeGateway) Delete(ctx context.Context, index int64) (string, error) {
	f.record("delete:" + strconv.FormatInt(index, 10))
	if err := f.deleteErr[index]; err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.remote {
		if t.Index != nil && *t.Index == index {
			f.remote = append(f.remote[:i], f.remote[i+1:]...)
			break
		}
	}
	return "Task deleted", nil
}

var errRemote = errors.New("failed to update task: 500")

func persisted(index int64, column models.ColumnID, priority models.Priority, title string) models.Task {
	return models.Task{
		ID:          strconv.FormatInt(index, 10),
		Index:       models.IndexPtr(index),
		ColumnID:    column,
		Priority:    priority,
		Title:       title,
		Description: title + " description",
	}
}
