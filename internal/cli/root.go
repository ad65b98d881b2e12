// Package cli implements the kanban command line client.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"kanban/internal/board"
	"kanban/internal/config"
	"kanban/internal/gateway"
	"kanban/internal/models"
)

// app carries what every command needs once flags are parsed.
type app struct {
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer

	configPath string
	server     string
	token      int64
	verbose    bool
	yes        bool

	cfg   *config.Config
	log   *log.Logger
	board *board.Board
}

// NewRootCmd builds the command tree reading prompts from in and writing to
// out and errOut.
func NewRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{
		in:     bufio.NewReader(in),
		out:    out,
		errOut: errOut,
	}

	rootCmd := &cobra.Command{
		Use:   "kanban",
		Short: "kanban - a three-lane task board",
		Long: `kanban manages a To Do / In Progress / Done board stored on a remote task service.

Tasks can be created, moved, edited and deleted, and the whole board can be
exported to or imported from CSV.`,
		PersistentPreRunE: a.setup,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Config file (default ~/.kanban/config.yaml and ./.kanban/config.yaml)")
	flags.StringVar(&a.server, "server", "", "Task service base URL")
	flags.Int64Var(&a.token, "token", 0, "User token scoping the task collection")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose output")
	flags.BoolVarP(&a.yes, "yes", "y", false, "Answer yes to confirmation prompts")

	rootCmd.AddCommand(newBoardCmd(a))
	rootCmd.AddCommand(newDemoCmd(a))
	rootCmd.AddCommand(newAddCmd(a))
	rootCmd.AddCommand(newMoveCmd(a))
	rootCmd.AddCommand(newEditCmd(a))
	rootCmd.AddCommand(newDeleteCmd(a))
	rootCmd.AddCommand(newDeleteAllCmd(a))
	rootCmd.AddCommand(newExportCmd(a))
	rootCmd.AddCommand(newImportCmd(a))
	rootCmd.AddCommand(newConfigCmd(a))

	return rootCmd
}

// Execute runs the root command against the process streams.
func Execute(version string) error {
	rootCmd := NewRootCmd(os.Stdin, os.Stdout, os.Stderr)
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// setup merges config and flags and builds the board. Nothing is fetched
// until a command calls loadBoard.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("server") {
		cfg.Server = a.server
	}
	if cmd.Flags().Changed("token") {
		cfg.UserToken = a.token
	}
	a.cfg = cfg

	a.log = log.New()
	a.log.SetOutput(a.errOut)
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.WarnLevel
	}
	if a.verbose {
		level = log.DebugLevel
	}
	a.log.SetLevel(level)

	if isConfigCmd(cmd) {
		return nil
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	gw := gateway.New(cfg.Server, cfg.UserToken,
		gateway.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		gateway.WithLogger(a.log),
	)
	a.board = board.New(gw, board.WithLogger(a.log))
	return nil
}

func isConfigCmd(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "config" {
			return true
		}
	}
	return false
}

// loadBoard refreshes the board from the service.
func (a *app) loadBoard(ctx context.Context) error {
	if err := a.board.LoadAll(ctx); err != nil {
		return fmt.Errorf("failed to load tasks from %s: %w\nthe board was not refreshed; check --server and retry", a.cfg.Server, err)
	}
	a.log.WithField("count", len(a.board.Tasks())).Debug("board loaded")
	return nil
}

// findTask returns the loaded task with the given remote index.
func (a *app) findTask(arg string) (models.Task, error) {
	index, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return models.Task{}, fmt.Errorf("invalid task index %q", arg)
	}
	for _, t := range a.board.Tasks() {
		if t.Index != nil && *t.Index == index {
			return t, nil
		}
	}
	return models.Task{}, fmt.Errorf("task %d not found", index)
}

// confirm asks a yes/no question. --yes answers it without reading input.
func (a *app) confirm(question string) (bool, error) {
	if a.yes {
		return true, nil
	}
	fmt.Fprintf(a.out, "%s [y/N] ", question)
	answer, err := a.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// printBoard renders the current board state.
func (a *app) printBoard() {
	state := a.board.State()
	fmt.Fprintln(a.out, renderBoard(a.out, a.board.Derived(), state.SortMode))
}
