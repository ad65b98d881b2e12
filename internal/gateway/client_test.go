package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kanban/internal/models"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, 123,
		WithClock(func() time.Time { return fixedNow }),
		WithRand(func(int) int { return 42 }),
	)
}

func TestOrdinalsAreInverses(t *testing.T) {
	for _, p := range []models.Priority{models.PriorityLow, models.PriorityMedium, models.PriorityHigh} {
		if got := PriorityFromOrdinal(PriorityOrdinal(p)); got != p {
			t.Errorf("priority %q round-tripped to %q", p, got)
		}
	}
	for _, c := range models.Columns {
		if got := ColumnFromState(StateOrdinal(c)); got != c {
			t.Errorf("column %q round-tripped to %q", c, got)
		}
	}
}

func TestOrdinalDefaults(t *testing.T) {
	if got := PriorityFromOrdinal(9); got != models.PriorityMedium {
		t.Errorf("expected medium for unknown ordinal, got %q", got)
	}
	if got := ColumnFromState(0); got != models.ColumnTodo {
		t.Errorf("expected todo for unknown state, got %q", got)
	}
	if got := PriorityOrdinal("urgent"); got != 2 {
		t.Errorf("expected 2 for unknown priority, got %d", got)
	}
	if got := StateOrdinal("backlog"); got != 1 {
		t.Errorf("expected 1 for unknown column, got %d", got)
	}
}

func TestGenerateIndex(t *testing.T) {
	now := time.UnixMilli(1_716_000_123_456)
	got := generateIndex(now, func(n int) int {
		if n != 100 {
			t.Fatalf("expected random bound 100, got %d", n)
		}
		return 7
	})
	// last nine digits of 1716000123456 are 000123456
	if got != 123_456*100+7 {
		t.Errorf("expected %d, got %d", 123_456*100+7, got)
	}
}

func TestList_MapsRecords(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/v1/tasks/user/123" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		io.WriteString(w, `[
			{"index": 5, "title": "A", "desc": "d", "priority": 3, "state": {"id": 2}, "deleted": false, "userToken": 123, "tszImplement": "2024-01-01"},
			{"index": 6, "title": "B", "desc": "e", "priority": 7, "state": {"id": 9}, "deleted": false, "userToken": {"token": 123}}
		]`)
	})

	tasks, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}

	a := tasks[0]
	if a.ID != "5" || a.Index == nil || *a.Index != 5 {
		t.Errorf("unexpected identity: id=%q index=%v", a.ID, a.Index)
	}
	if a.ColumnID != models.ColumnInProgress || a.Priority != models.PriorityHigh {
		t.Errorf("unexpected lane/priority: %q %q", a.ColumnID, a.Priority)
	}
	if a.Description != "d" || a.TszImplement == nil || *a.TszImplement != "2024-01-01" {
		t.Errorf("unexpected fields: %+v", a)
	}
	if !a.CreatedAt.Equal(fixedNow) {
		t.Errorf("expected createdAt from clock, got %v", a.CreatedAt)
	}

	b := tasks[1]
	if b.ColumnID != models.ColumnTodo || b.Priority != models.PriorityMedium {
		t.Errorf("expected defaults for unknown ordinals, got %q %q", b.ColumnID, b.Priority)
	}
}

func TestCreate_GeneratesIndexAndUsesEcho(t *testing.T) {
	var sent models.Record
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/tasks" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&sent); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		echo := sent
		echo.Index = 999
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(echo)
	})

	created, err := c.Create(context.Background(), models.Task{
		Title: "A", Description: "d", ColumnID: models.ColumnDone, Priority: models.PriorityLow,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	wantIndex := (fixedNow.UnixMilli()%1_000_000_000)*100 + 42
	if sent.Index != wantIndex {
		t.Errorf("expected generated index %d, got %d", wantIndex, sent.Index)
	}
	if sent.Priority != 1 || sent.State.ID != 3 || sent.Desc != "d" || sent.UserToken.Token != 123 || sent.Deleted {
		t.Errorf("unexpected payload: %+v", sent)
	}
	if sent.TszImplement != nil {
		t.Errorf("expected tszImplement to be omitted, got %q", *sent.TszImplement)
	}
	if created.Index == nil || *created.Index != 999 || created.ID != "999" {
		t.Errorf("expected echoed index 999, got %+v", created)
	}
}

func TestCreate_PlainMessageFallsBackToSentRecord(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "Task created")
	})

	created, err := c.Create(context.Background(), models.Task{
		Index: models.IndexPtr(77), Title: "A", Description: "d", ColumnID: models.ColumnTodo, Priority: models.PriorityHigh,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if *created.Index != 77 || created.Priority != models.PriorityHigh {
		t.Errorf("unexpected task: %+v", created)
	}
}

func TestUpdate_KeepsIndexAndTszImplement(t *testing.T) {
	var sent models.Record
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		json.NewDecoder(r.Body).Decode(&sent)
		json.NewEncoder(w).Encode(sent)
	})

	tsz := "2024-02-02"
	updated, err := c.Update(context.Background(), models.Task{
		Index: models.IndexPtr(12), Title: "A", Description: "d", ColumnID: models.ColumnInProgress,
		Priority: models.PriorityMedium, TszImplement: &tsz,
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if sent.Index != 12 || sent.State.ID != 2 {
		t.Errorf("unexpected payload: %+v", sent)
	}
	if sent.TszImplement == nil || *sent.TszImplement != tsz {
		t.Errorf("expected tszImplement to be sent")
	}
	if updated.ColumnID != models.ColumnInProgress {
		t.Errorf("unexpected column: %q", updated.ColumnID)
	}
}

func TestUpdate_RequiresIndex(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	_, err := c.Update(context.Background(), models.Task{Title: "A"})
	if !errors.Is(err, ErrMissingIndex) {
		t.Fatalf("expected ErrMissingIndex, got %v", err)
	}
	if called {
		t.Error("expected no request to be sent")
	}
}

func TestDelete_ReturnsText(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/api/v1/tasks/31" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		io.WriteString(w, "Task deleted")
	})

	msg, err := c.Delete(context.Background(), 31)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if msg != "Task deleted" {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestNonSuccessStatusReturnsRemoteError(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := c.List(context.Background())
	var rerr *RemoteError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if rerr.StatusCode != http.StatusBadGateway || rerr.Body != "boom" {
		t.Errorf("unexpected error: %+v", rerr)
	}
	if err.Error() != "failed to load tasks: 502" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if calls != 1 {
		t.Errorf("expected a single attempt, got %d", calls)
	}
}
