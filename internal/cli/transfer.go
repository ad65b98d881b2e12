package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"kanban/internal/transfer"
)

func newExportCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the board to a CSV file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadBoard(cmd.Context()); err != nil {
				return err
			}

			svc := transfer.New(a.board, nil, a.log)

			if out == "-" {
				_, err := svc.Export(a.out)
				return err
			}
			if out == "" {
				out = transfer.ExportFilename(time.Now())
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			n, err := svc.Export(f)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Exported %d tasks to %s\n", n, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file, or - for stdout (default kanban-tasks-<timestamp>.csv)")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var replace, appendMode bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Create tasks from a CSV file",
		Long: `Create one task per CSV row. The file needs a header with the columns
title, description, columnId and priority in any order.

Without --replace or --append you are asked whether the existing tasks
should be replaced. --yes alone appends.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if replace && appendMode {
				return fmt.Errorf("--replace and --append are mutually exclusive")
			}

			mode := transfer.ModeAsk
			switch {
			case replace:
				mode = transfer.ModeReplace
			case appendMode, a.yes:
				mode = transfer.ModeAppend
			}

			var r io.Reader = a.in
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", args[0], err)
				}
				defer f.Close()
				r = f
			}

			if err := a.loadBoard(cmd.Context()); err != nil {
				return err
			}

			existing := len(a.board.Tasks())
			confirm := transfer.ConfirmFunc(func(count int) (bool, error) {
				if existing == 0 {
					return false, nil
				}
				return a.confirm(fmt.Sprintf("Import %d tasks. Replace the %d existing tasks? (no appends)", count, existing))
			})

			res, err := transfer.New(a.board, confirm, a.log).Import(cmd.Context(), r, mode)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Imported %d tasks (%s)\n", res.Created, res.Mode)
			return nil
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "Delete existing tasks before importing")
	cmd.Flags().BoolVar(&appendMode, "append", false, "Keep existing tasks")
	return cmd
}
