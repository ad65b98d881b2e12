package board

import (
	"slices"

	"kanban/internal/models"
)

// SortMode selects how tasks are ordered within a lane.
type SortMode string

const (
	SortNone     SortMode = "none"
	SortPriority SortMode = "priority"
)

// View is the per-lane presentation of a task collection.
type View struct {
	ByColumn map[models.ColumnID][]models.Task
	Counts   map[models.ColumnID]int
}

// ComputeDerived partitions tasks into the three lanes and sorts each lane.
// Tasks in an unknown lane are left out of the view. With SortNone lanes are
// ordered by creation time; with SortPriority by priority rank, then by
// creation time.
func ComputeDerived(tasks []models.Task, mode SortMode) View {
	v := View{
		ByColumn: make(map[models.ColumnID][]models.Task, len(models.Columns)),
		Counts:   make(map[models.ColumnID]int, len(models.Columns)),
	}
	for _, c := range models.Columns {
		v.ByColumn[c] = []models.Task{}
	}

	for _, t := range tasks {
		if !t.ColumnID.Valid() {
			continue
		}
		v.ByColumn[t.ColumnID] = append(v.ByColumn[t.ColumnID], t.Clone())
	}

	for _, c := range models.Columns {
		lane := v.ByColumn[c]
		sortLane(lane, mode)
		v.Counts[c] = len(lane)
	}

	return v
}

func sortLane(lane []models.Task, mode SortMode) {
	if mode == SortPriority {
		slices.SortStableFunc(lane, func(a, b models.Task) int {
			if d := a.Priority.Rank() - b.Priority.Rank(); d != 0 {
				return d
			}
			return a.CreatedAt.Compare(b.CreatedAt)
		})
		return
	}

	slices.SortStableFunc(lane, func(a, b models.Task) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}
