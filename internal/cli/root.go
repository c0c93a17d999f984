// Package cli holds the househunt command line: the HTTP server plus a few
// maintenance commands that work directly on the database.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"househunt/config"
	"househunt/internal/database"
)

var version = "dev"

// app is the state shared by every subcommand once PersistentPreRunE has run
type app struct {
	cfg       *config.Config
	logger    *logrus.Logger
	dbPath    string
	noColor   bool
	logOutput io.Writer
}

// NewRootCommand builds the command tree. Commands write their results to
// cmd.OutOrStdout so tests can capture them.
func NewRootCommand() *cobra.Command {
	a := &app{logOutput: os.Stderr}

	rootCmd := &cobra.Command{
		Use:           "househunt",
		Short:         "Score and compare houses against your own criteria.",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.dbPath, "db", "", "path to the SQLite database (overrides DATABASE_PATH)")
	rootCmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable coloured output")

	rootCmd.AddCommand(
		newServeCommand(a),
		newScoreCommand(a),
		newCompareCommand(a),
		newRescoreCommand(a),
		newSeedCommand(a),
	)
	return rootCmd
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}

func (a *app) setup() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.dbPath != "" {
		cfg.Database.Path = a.dbPath
	}
	a.cfg = cfg

	logger, err := newLogger(cfg.Log.Level, a.logOutput)
	if err != nil {
		return err
	}
	a.logger = logger

	if a.noColor {
		color.NoColor = true
	}
	return nil
}

func newLogger(level string, out io.Writer) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(out)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger.SetLevel(lvl)
	return logger, nil
}

func (a *app) openDatabase() (*database.Database, error) {
	a.logger.Infof("Using database at: %s", a.cfg.Database.Path)
	db, err := database.NewDatabase(a.cfg.Database.Path, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}
