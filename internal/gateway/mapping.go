package gateway

import (
	"strconv"
	"strings"
	"time"

	"kanban/internal/models"
)

var priorityToOrdinal = map[models.Priority]int{
	models.PriorityLow:    1,
	models.PriorityMedium: 2,
	models.PriorityHigh:   3,
}

var ordinalToPriority = map[int]models.Priority{
	1: models.PriorityLow,
	2: models.PriorityMedium,
	3: models.PriorityHigh,
}

var columnToState = map[models.ColumnID]int{
	models.ColumnTodo:       1,
	models.ColumnInProgress: 2,
	models.ColumnDone:       3,
}

var stateToColumn = map[int]models.ColumnID{
	1: models.ColumnTodo,
	2: models.ColumnInProgress,
	3: models.ColumnDone,
}

// PriorityOrdinal encodes a priority for the wire. Unknown values encode as medium.
func PriorityOrdinal(p models.Priority) int {
	if n, ok := priorityToOrdinal[p]; ok {
		return n
	}
	return 2
}

// PriorityFromOrdinal decodes a wire priority. Unknown ordinals decode as medium.
func PriorityFromOrdinal(n int) models.Priority {
	if p, ok := ordinalToPriority[n]; ok {
		return p
	}
	return models.PriorityMedium
}

// StateOrdinal encodes a lane for the wire. Unknown lanes encode as todo.
func StateOrdinal(c models.ColumnID) int {
	if n, ok := columnToState[c]; ok {
		return n
	}
	return 1
}

// ColumnFromState decodes a wire lane. Unknown ordinals decode as todo.
func ColumnFromState(n int) models.ColumnID {
	if c, ok := stateToColumn[n]; ok {
		return c
	}
	return models.ColumnTodo
}

// generateIndex derives a provisional remote index from the last nine digits
// of the millisecond clock and a two-digit random suffix.
func generateIndex(now time.Time, randN func(int) int) int64 {
	timePart := now.UnixMilli() % 1_000_000_000
	return timePart*100 + int64(randN(100))
}

type mode int

const (
	modeCreate mode = iota
	modeUpdate
)

func (c *Client) toRecord(t models.Task, m mode) models.Record {
	var index int64
	switch {
	case t.Index != nil:
		index = *t.Index
	case m == modeCreate:
		index = generateIndex(c.now(), c.randN)
	}

	rec := models.Record{
		Index:     index,
		Title:     t.Title,
		Desc:      t.Description,
		Priority:  PriorityOrdinal(t.Priority),
		State:     models.State{ID: StateOrdinal(t.ColumnID)},
		Deleted:   false,
		UserToken: models.UserToken{Token: c.userToken},
	}

	if t.TszImplement != nil && strings.TrimSpace(*t.TszImplement) != "" {
		v := *t.TszImplement
		rec.TszImplement = &v
	}

	return rec
}

func (c *Client) fromRecord(r models.Record) models.Task {
	index := r.Index
	return models.Task{
		ID:           strconv.FormatInt(r.Index, 10),
		Index:        &index,
		ColumnID:     ColumnFromState(r.State.ID),
		Priority:     PriorityFromOrdinal(r.Priority),
		Title:        r.Title,
		Description:  r.Desc,
		TszImplement: r.TszImplement,
		CreatedAt:    c.now(),
	}
}
