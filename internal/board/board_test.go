package board

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"kanban/internal/models"
)

func setupBoard(t *testing.T, remote ...models.Task) (*Board, *fakeGateway) {
	t.Helper()
	gw := newFakeGateway(remote...)
	b := New(gw, WithClock(func() time.Time { return gw.now }))
	if len(remote) > 0 {
		if err := b.LoadAll(context.Background()); err != nil {
			t.Fatalf("LoadAll failed: %v", err)
		}
	}
	return b, gw
}

func taskByIndex(t *testing.T, b *Board, index int64) models.Task {
	t.Helper()
	for _, task := range b.Tasks() {
		if task.Index != nil && *task.Index == index {
			return task
		}
	}
	t.Fatalf("task %d not found", index)
	return models.Task{}
}

func TestLoadAll_ReplacesTasks(t *testing.T) {
	b, _ := setupBoard(t,
		persisted(1, models.ColumnTodo, models.PriorityLow, "A"),
		persisted(2, models.ColumnDone, models.PriorityHigh, "B"),
	)

	s := b.State()
	if len(s.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(s.Tasks))
	}
	if s.IsLoading {
		t.Error("expected loading to be finished")
	}
	if s.Err != "" {
		t.Errorf("expected no error, got %q", s.Err)
	}
}

func TestLoadAll_FailureKeepsPreviousTasks(t *testing.T) {
	b, gw := setupBoard(t, persisted(1, models.ColumnTodo, models.PriorityLow, "A"))
	gw.listErr = errors.New("failed to load tasks: 503")

	err := b.LoadAll(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}

	s := b.State()
	if len(s.Tasks) != 1 {
		t.Errorf("expected previous task to remain, got %d tasks", len(s.Tasks))
	}
	if s.Err != "failed to load tasks: 503" {
		t.Errorf("unexpected error message %q", s.Err)
	}
	if s.IsLoading {
		t.Error("expected loading to be finished")
	}
}

func TestLoadAll_TwiceYieldsIdenticalViews(t *testing.T) {
	b, _ := setupBoard(t,
		persisted(1, models.ColumnTodo, models.PriorityLow, "A"),
		persisted(2, models.ColumnTodo, models.PriorityHigh, "B"),
		persisted(3, models.ColumnInProgress, models.PriorityMedium, "C"),
	)
	first := b.Derived()

	if err := b.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	second := b.Derived()

	if !reflect.DeepEqual(first, second) {
		t.Errorf("views differ:\n%#v\n%#v", first, second)
	}
}

func TestLoadAll_ReportsLoadingToObservers(t *testing.T) {
	b, _ := setupBoard(t)

	var seen []bool
	cancel := b.Subscribe(func(s State) { seen = append(seen, s.IsLoading) })
	defer cancel()

	if err := b.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if !reflect.DeepEqual(seen, []bool{true, false}) {
		t.Errorf("unexpected loading transitions: %v", seen)
	}
}

func TestCreateTask_AppendsStoredTask(t *testing.T) {
	b, _ := setupBoard(t)

	created, err := b.CreateTask(context.Background(), models.CreateInput{
		Title: "  A ", Description: "d", ColumnID: models.ColumnTodo, Priority: models.PriorityHigh,
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if created.Index == nil {
		t.Fatal("expected created task to carry an index")
	}
	if created.Title != "A" {
		t.Errorf("expected trimmed title, got %q", created.Title)
	}

	tasks := b.Tasks()
	if len(tasks) != 1 || *tasks[0].Index != *created.Index {
		t.Errorf("expected created task in collection, got %+v", tasks)
	}
}

func TestCreateTask_FailureLeavesStateUntouched(t *testing.T) {
	b, gw := setupBoard(t, persisted(1, models.ColumnTodo, models.PriorityLow, "A"))
	gw.createErr = errors.New("failed to create task: 500")

	_, err := b.CreateTask(context.Background(), models.CreateInput{
		Title: "B", Description: "d", ColumnID: models.ColumnTodo, Priority: models.PriorityHigh,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if n := len(b.Tasks()); n != 1 {
		t.Errorf("expected 1 task, got %d", n)
	}
	if b.State().Err != "failed to create task: 500" {
		t.Errorf("unexpected error message %q", b.State().Err)
	}
}

func TestCreateTask_InvalidInputSkipsGateway(t *testing.T) {
	b, gw := setupBoard(t)

	_, err := b.CreateTask(context.Background(), models.CreateInput{Title: "A", ColumnID: models.ColumnTodo, Priority: models.PriorityLow})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if gw.callCount() != 0 {
		t.Errorf("expected no gateway calls, got %v", gw.calls)
	}
}

func TestDeleteTask_WithoutIndexIsPreconditionError(t *testing.T) {
	b, gw := setupBoard(t)

	err := b.DeleteTask(context.Background(), models.Task{ID: "local", Title: "A"})

	var perr *PreconditionError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PreconditionError, got %v", err)
	}
	if !errors.Is(err, ErrMissingRemoteID) {
		t.Errorf("expected ErrMissingRemoteID, got %v", err)
	}
	if gw.callCount() != 0 {
		t.Errorf("expected no gateway calls, got %v", gw.calls)
	}
	if b.State().Err == "" {
		t.Error("expected error to be recorded")
	}
}

func TestDeleteTask_RemovesAfterSuccess(t *testing.T) {
	b, _ := setupBoard(t,
		persisted(1, models.ColumnTodo, models.PriorityLow, "A"),
		persisted(2, models.ColumnTodo, models.PriorityLow, "B"),
	)

	if err := b.DeleteTask(context.Background(), taskByIndex(t, b, 1)); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}

	tasks := b.Tasks()
	if len(tasks) != 1 || *tasks[0].Index != 2 {
		t.Errorf("expected only task 2 to remain, got %+v", tasks)
	}
}

func TestDeleteTask_FailureKeepsTask(t *testing.T) {
	b, gw := setupBoard(t, persisted(1, models.ColumnTodo, models.PriorityLow, "A"))
	gw.deleteErr[1] = errors.New("failed to delete task: 500")

	if err := b.DeleteTask(context.Background(), taskByIndex(t, b, 1)); err == nil {
		t.Fatal("expected error")
	}
	if n := len(b.Tasks()); n != 1 {
		t.Errorf("expected task to remain, got %d tasks", n)
	}
}

func TestDeleteAll_ClearsAfterEverySuccess(t *testing.T) {
	b, gw := setupBoard(t,
		persisted(1, models.ColumnTodo, models.PriorityLow, "A"),
		persisted(2, models.ColumnDone, models.PriorityLow, "B"),
	)

	if err := b.DeleteAll(context.Background()); err != nil {
		t.Fatalf("DeleteAll failed: %v", err)
	}
	if n := len(b.Tasks()); n != 0 {
		t.Errorf("expected empty collection, got %d", n)
	}
	want := []string{"list", "delete:1", "delete:2"}
	if !reflect.DeepEqual(gw.calls, want) {
		t.Errorf("unexpected calls %v", gw.calls)
	}
}

func TestDeleteAll_StopsAtFirstFailure(t *testing.T) {
	b, gw := setupBoard(t,
		persisted(1, models.ColumnTodo, models.PriorityLow, "A"),
		persisted(2, models.ColumnTodo, models.PriorityLow, "B"),
		persisted(3, models.ColumnTodo, models.PriorityLow, "C"),
	)
	gw.deleteErr[2] = errRemote

	err := b.DeleteAll(context.Background())

	var berr *BulkError
	if !errors.As(err, &berr) {
		t.Fatalf("expected BulkError, got %v", err)
	}
	if berr.Position != 2 || berr.Done != 1 {
		t.Errorf("unexpected position/done: %d/%d", berr.Position, berr.Done)
	}
	if !errors.Is(err, errRemote) {
		t.Errorf("expected wrapped remote error, got %v", err)
	}

	tasks := b.Tasks()
	if len(tasks) != 2 || *tasks[0].Index != 2 || *tasks[1].Index != 3 {
		t.Errorf("expected tasks 2 and 3 to remain, got %+v", tasks)
	}
	for _, c := range gw.calls {
		if c == "delete:3" {
			t.Error("expected deletion to stop before task 3")
		}
	}
}

func TestMoveTask_SameColumnIsNoop(t *testing.T) {
	b, gw := setupBoard(t, persisted(1, models.ColumnTodo, models.PriorityLow, "A"))
	task := taskByIndex(t, b, 1)
	before := gw.callCount()

	got, err := b.MoveTask(context.Background(), task, models.ColumnTodo)
	if err != nil {
		t.Fatalf("MoveTask failed: %v", err)
	}
	if !reflect.DeepEqual(got, task) {
		t.Errorf("expected task unchanged, got %+v", got)
	}
	if gw.callCount() != before {
		t.Errorf("expected no gateway call, got %v", gw.calls)
	}
}

func TestMoveTask_Preconditions(t *testing.T) {
	b, gw := setupBoard(t)

	tests := []struct {
		name string
		task models.Task
		to   models.ColumnID
		want error
	}{
		{"missing index", models.Task{ColumnID: models.ColumnTodo}, models.ColumnDone, ErrMissingRemoteID},
		{"missing target", models.Task{Index: models.IndexPtr(1), ColumnID: models.ColumnTodo}, "", ErrMissingTarget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.MoveTask(context.Background(), tt.task, tt.to)
			var perr *PreconditionError
			if !errors.As(err, &perr) || !errors.Is(err, tt.want) {
				t.Errorf("expected precondition %v, got %v", tt.want, err)
			}
		})
	}
	if gw.callCount() != 0 {
		t.Errorf("expected no gateway calls, got %v", gw.calls)
	}
}

func TestMoveTask_OptimisticThenReconciled(t *testing.T) {
	b, gw := setupBoard(t, persisted(1, models.ColumnTodo, models.PriorityLow, "A"))
	task := taskByIndex(t, b, 1)
	createdAt := task.CreatedAt

	gw.updateFn = func(next models.Task) (models.Task, error) {
		if got := taskByIndex(t, b, 1).ColumnID; got != models.ColumnDone {
			t.Errorf("expected optimistic column done during update, got %q", got)
		}
		next.Title = "A (server)"
		next.CreatedAt = createdAt.Add(time.Hour)
		return next, nil
	}

	updated, err := b.MoveTask(context.Background(), task, models.ColumnDone)
	if err != nil {
		t.Fatalf("MoveTask failed: %v", err)
	}
	if updated.ColumnID != models.ColumnDone {
		t.Errorf("unexpected returned column %q", updated.ColumnID)
	}

	stored := taskByIndex(t, b, 1)
	if stored.ColumnID != models.ColumnDone || stored.Title != "A (server)" {
		t.Errorf("expected server version to be merged, got %+v", stored)
	}
	if !stored.CreatedAt.Equal(createdAt) {
		t.Errorf("expected local createdAt to be kept, got %v", stored.CreatedAt)
	}
}

func TestMoveTask_RollbackOnFailure(t *testing.T) {
	b, gw := setupBoard(t, persisted(1, models.ColumnInProgress, models.PriorityLow, "A"))
	gw.updateFn = func(models.Task) (models.Task, error) { return models.Task{}, errRemote }
	task := taskByIndex(t, b, 1)

	_, err := b.MoveTask(context.Background(), task, models.ColumnDone)
	if !errors.Is(err, errRemote) {
		t.Fatalf("expected remote error, got %v", err)
	}

	if got := taskByIndex(t, b, 1).ColumnID; got != task.ColumnID {
		t.Errorf("expected column %q after rollback, got %q", task.ColumnID, got)
	}
	if b.State().Err != errRemote.Error() {
		t.Errorf("unexpected error message %q", b.State().Err)
	}
}

func TestMoveTask_RollbackLeavesOtherEditsAlone(t *testing.T) {
	b, gw := setupBoard(t,
		persisted(1, models.ColumnTodo, models.PriorityLow, "A"),
		persisted(2, models.ColumnTodo, models.PriorityLow, "B"),
	)
	taskA := taskByIndex(t, b, 1)
	taskB := taskByIndex(t, b, 2)

	gw.updateFn = func(next models.Task) (models.Task, error) {
		if *next.Index == 1 {
			// A second move lands while the first is in flight.
			gw.updateFn = func(n models.Task) (models.Task, error) { return n, nil }
			if _, err := b.MoveTask(context.Background(), taskB, models.ColumnDone); err != nil {
				t.Errorf("inner move failed: %v", err)
			}
			return models.Task{}, errRemote
		}
		return next, nil
	}

	if _, err := b.MoveTask(context.Background(), taskA, models.ColumnInProgress); err == nil {
		t.Fatal("expected error")
	}

	if got := taskByIndex(t, b, 1).ColumnID; got != models.ColumnTodo {
		t.Errorf("expected task 1 rolled back to todo, got %q", got)
	}
	if got := taskByIndex(t, b, 2).ColumnID; got != models.ColumnDone {
		t.Errorf("expected task 2 to stay done, got %q", got)
	}
}

func TestEditTask_RollbackRestoresFields(t *testing.T) {
	b, gw := setupBoard(t, persisted(1, models.ColumnTodo, models.PriorityLow, "A"))
	gw.updateFn = func(models.Task) (models.Task, error) { return models.Task{}, errRemote }
	task := taskByIndex(t, b, 1)

	title := "Renamed"
	high := models.PriorityHigh
	if _, err := b.EditTask(context.Background(), task, Patch{Title: &title, Priority: &high}); err == nil {
		t.Fatal("expected error")
	}

	got := taskByIndex(t, b, 1)
	if got.Title != "A" || got.Priority != models.PriorityLow {
		t.Errorf("expected original fields after rollback, got %+v", got)
	}
}

func TestEditTask_AppliesServerVersion(t *testing.T) {
	b, _ := setupBoard(t, persisted(1, models.ColumnTodo, models.PriorityLow, "A"))
	task := taskByIndex(t, b, 1)

	desc := "new description"
	updated, err := b.EditTask(context.Background(), task, Patch{Description: &desc})
	if err != nil {
		t.Fatalf("EditTask failed: %v", err)
	}
	if updated.Description != desc || taskByIndex(t, b, 1).Description != desc {
		t.Errorf("expected description to be updated, got %+v", updated)
	}
}

func TestEditTask_BlankTitleRejected(t *testing.T) {
	b, gw := setupBoard(t, persisted(1, models.ColumnTodo, models.PriorityLow, "A"))
	before := gw.callCount()

	blank := "  "
	if _, err := b.EditTask(context.Background(), taskByIndex(t, b, 1), Patch{Title: &blank}); err == nil {
		t.Fatal("expected validation error")
	}
	if gw.callCount() != before {
		t.Errorf("expected no gateway call")
	}
}

func TestToggleSortMode_TwiceRestores(t *testing.T) {
	b, _ := setupBoard(t)
	start := b.State().SortMode

	if got := b.ToggleSortMode(); got != SortPriority {
		t.Errorf("expected priority after first toggle, got %q", got)
	}
	b.ToggleSortMode()

	if got := b.State().SortMode; got != start {
		t.Errorf("expected %q after two toggles, got %q", start, got)
	}
}

func TestSubscribe_CancelStopsNotificationsButNotWrites(t *testing.T) {
	b, _ := setupBoard(t)

	calls := 0
	cancel := b.Subscribe(func(State) { calls++ })
	b.ToggleSortMode()
	cancel()

	_, err := b.CreateTask(context.Background(), models.CreateInput{
		Title: "A", Description: "d", ColumnID: models.ColumnTodo, Priority: models.PriorityLow,
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	if calls != 1 {
		t.Errorf("expected 1 notification, got %d", calls)
	}
	if n := len(b.Tasks()); n != 1 {
		t.Errorf("expected write to land after cancel, got %d tasks", n)
	}
}

func TestLoadDemoAndReset(t *testing.T) {
	b, gw := setupBoard(t)

	b.LoadDemo()
	v := b.Derived()
	if v.Counts[models.ColumnTodo] != 3 || v.Counts[models.ColumnInProgress] != 2 || v.Counts[models.ColumnDone] != 2 {
		t.Errorf("unexpected demo counts %v", v.Counts)
	}

	b.Reset()
	if n := len(b.Tasks()); n != 0 {
		t.Errorf("expected empty board, got %d", n)
	}
	if gw.callCount() != 0 {
		t.Errorf("expected no gateway calls, got %v", gw.calls)
	}
}
