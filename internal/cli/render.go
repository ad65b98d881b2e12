package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"kanban/internal/board"
	"kanban/internal/models"
)

const laneWidth = 32

var laneTitles = map[models.ColumnID]string{
	models.ColumnTodo:       "To Do",
	models.ColumnInProgress: "In Progress",
	models.ColumnDone:       "Done",
}

var priorityColors = map[models.Priority]lipgloss.Color{
	models.PriorityHigh:   lipgloss.Color("9"),
	models.PriorityMedium: lipgloss.Color("11"),
	models.PriorityLow:    lipgloss.Color("10"),
}

// renderBoard lays the three lanes out side by side. Colors are only
// emitted when w is a terminal.
func renderBoard(w io.Writer, v board.View, mode board.SortMode) string {
	r := lipgloss.NewRenderer(w)

	laneStyle := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1).
		Width(laneWidth)
	headerStyle := r.NewStyle().Bold(true)
	indexStyle := r.NewStyle().Faint(true)
	descStyle := r.NewStyle().Faint(true)

	lanes := make([]string, 0, len(models.Columns))
	for _, c := range models.Columns {
		var b strings.Builder
		b.WriteString(headerStyle.Render(fmt.Sprintf("%s (%d)", laneTitles[c], v.Counts[c])))

		for _, t := range v.ByColumn[c] {
			badge := r.NewStyle().Foreground(priorityColors[t.Priority]).Render("[" + string(t.Priority) + "]")
			b.WriteString("\n\n")
			b.WriteString(indexStyle.Render("#"+t.IndexString()) + " " + badge)
			b.WriteString("\n" + t.Title)
			if t.Description != "" {
				b.WriteString("\n" + descStyle.Render(t.Description))
			}
		}

		lanes = append(lanes, laneStyle.Render(b.String()))
	}

	out := lipgloss.JoinHorizontal(lipgloss.Top, lanes...)
	if mode == board.SortPriority {
		out += "\n" + indexStyle.Render("sorted by priority")
	}
	return out
}
