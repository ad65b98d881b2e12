package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"kanban/internal/board"
	"kanban/internal/models"
)

func newBoardCmd(a *app) *cobra.Command {
	var sortBy string

	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show the board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch board.SortMode(sortBy) {
			case board.SortNone:
			case board.SortPriority:
				a.board.ToggleSortMode()
			default:
				return fmt.Errorf("unknown sort %q (none/priority)", sortBy)
			}

			if err := a.loadBoard(cmd.Context()); err != nil {
				return err
			}
			a.printBoard()
			return nil
		},
	}
	cmd.Flags().StringVar(&sortBy, "sort", string(board.SortNone), "Lane order: none or priority")
	return cmd
}

func newDemoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Show a sample board without contacting the service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.board.LoadDemo()
			a.printBoard()
			return nil
		},
	}
}

func newAddCmd(a *app) *cobra.Command {
	var title, description, column, priority string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			col, ok := models.ParseColumnID(column)
			if !ok {
				return fmt.Errorf("invalid column %q (todo/inprogress/done)", column)
			}
			prio, ok := models.ParsePriority(priority)
			if !ok {
				return fmt.Errorf("invalid priority %q (low/medium/high)", priority)
			}

			if err := a.loadBoard(cmd.Context()); err != nil {
				return err
			}

			created, err := a.board.CreateTask(cmd.Context(), models.CreateInput{
				ColumnID:    col,
				Priority:    prio,
				Title:       title,
				Description: description,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Created task #%s in %s\n", created.IndexString(), laneTitles[created.ColumnID])
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "Task title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Task description")
	cmd.Flags().StringVarP(&column, "column", "c", string(models.ColumnTodo), "Lane: todo, inprogress or done")
	cmd.Flags().StringVarP(&priority, "priority", "p", string(models.PriorityMedium), "Priority: low, medium or high")
	return cmd
}

func newMoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move <index> <column>",
		Short: "Move a task to another lane",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, ok := models.ParseColumnID(args[1])
			if !ok {
				return fmt.Errorf("invalid column %q (todo/inprogress/done)", args[1])
			}

			if err := a.loadBoard(cmd.Context()); err != nil {
				return err
			}
			t, err := a.findTask(args[0])
			if err != nil {
				return err
			}

			if _, err := a.board.MoveTask(cmd.Context(), t, to); err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Moved task #%s to %s\n", args[0], laneTitles[to])
			return nil
		},
	}
}

func newEditCmd(a *app) *cobra.Command {
	var title, description, priority string

	cmd := &cobra.Command{
		Use:   "edit <index>",
		Short: "Change a task's title, description or priority",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p board.Patch
			if cmd.Flags().Changed("title") {
				p.Title = &title
			}
			if cmd.Flags().Changed("description") {
				p.Description = &description
			}
			if cmd.Flags().Changed("priority") {
				prio, ok := models.ParsePriority(priority)
				if !ok {
					return fmt.Errorf("invalid priority %q (low/medium/high)", priority)
				}
				p.Priority = &prio
			}
			if p.Title == nil && p.Description == nil && p.Priority == nil {
				return fmt.Errorf("nothing to change: pass --title, --description or --priority")
			}

			if err := a.loadBoard(cmd.Context()); err != nil {
				return err
			}
			t, err := a.findTask(args[0])
			if err != nil {
				return err
			}

			if _, err := a.board.EditTask(cmd.Context(), t, p); err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Updated task #%s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "New priority")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <index>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadBoard(cmd.Context()); err != nil {
				return err
			}
			t, err := a.findTask(args[0])
			if err != nil {
				return err
			}

			ok, err := a.confirm(fmt.Sprintf("Delete task #%s %q?", args[0], t.Title))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(a.out, "Cancelled")
				return nil
			}

			if err := a.board.DeleteTask(cmd.Context(), t); err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Deleted task #%s\n", args[0])
			return nil
		},
	}
}

func newDeleteAllCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-all",
		Short: "Delete every task on the board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadBoard(cmd.Context()); err != nil {
				return err
			}

			count := len(a.board.Tasks())
			if count == 0 {
				fmt.Fprintln(a.out, "The board is already empty")
				return nil
			}

			ok, err := a.confirm(fmt.Sprintf("Delete all %d tasks?", count))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(a.out, "Cancelled")
				return nil
			}

			if err := a.board.DeleteAll(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Deleted %d tasks\n", count)
			return nil
		},
	}
}
