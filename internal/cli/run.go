package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"github.com/lguimbarda/min-rx/internal/scenario"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Replay a scenario",
		Long: `Replay a scenario file through the cart graph.

Each step is pushed into the command sink. Applied commands are journaled
in batches; with --db they are also written to a SQLite database and with
--journal to a JSON Lines file.

Example:
  minrx run ./scenarios/shopping.yaml
  minrx run --window 50ms --db ./journal.db ./scenarios/shopping.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(cmd, rootOpts, args[0])
		},
	}

	cmd.Flags().Duration(KeyWindow, 100*time.Millisecond, "journal batching window")
	cmd.Flags().Int(KeyRate, 0, "max applied commands per second (0 is unlimited)")
	cmd.Flags().String(KeyDB, "", "path to a SQLite database for the journal")
	cmd.Flags().String(KeyJournal, "", "path to a JSON Lines file for the journal")
	_ = rootOpts.Config.BindPFlag(KeyWindow, cmd.Flags().Lookup(KeyWindow))
	_ = rootOpts.Config.BindPFlag(KeyRate, cmd.Flags().Lookup(KeyRate))
	_ = rootOpts.Config.BindPFlag(KeyDB, cmd.Flags().Lookup(KeyDB))
	_ = rootOpts.Config.BindPFlag(KeyJournal, cmd.Flags().Lookup(KeyJournal))

	return cmd
}

func runScenario(cmd *cobra.Command, rootOpts *RootOptions, path string) error {
	v := rootOpts.Config
	logger := rootOpts.Logger

	sc, err := scenario.Load(path)
	if err != nil {
		return err
	}
	logger.WithField("path", path).Debug("scenario loaded")

	opts := scenario.Options{
		Window: v.GetDuration(KeyWindow),
		Rate:   v.GetInt(KeyRate),
		Logger: logger,
	}
	if dsn := v.GetString(KeyDB); dsn != "" {
		db, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer func() {
			if err := db.Close(); err != nil {
				logger.WithError(err).Error("error closing database")
			}
		}()
		db.SetMaxOpenConns(1)
		opts.DB = db
	}

	if path := v.GetString(KeyJournal); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create journal file: %w", err)
		}
		defer f.Close()
		opts.Journal = f
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := scenario.Run(ctx, sc, opts)
	if err != nil {
		return err
	}
	return writeReport(cmd.OutOrStdout(), v.GetString(KeyFormat), report)
}
