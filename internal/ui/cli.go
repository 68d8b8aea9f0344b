package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/barre/internal/config"
	"github.com/javiermolinar/barre/internal/db"
	"github.com/javiermolinar/barre/internal/dateutil"
	"github.com/javiermolinar/barre/internal/logging"
	"github.com/javiermolinar/barre/internal/metrics"
	"github.com/javiermolinar/barre/internal/planner"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

// App holds the CLI application state.
type App struct {
	config *config.Config
	root   *cobra.Command

	store      *db.SQLite
	ownsStore  bool
	logger     *slog.Logger
	logCloser  io.Closer
	metrics    *metrics.Collector
	in         io.Reader
	now        func() time.Time
	configPath string

	// Global flags
	dbPath   string
	noColor  bool
	logLevel string
}

// NewApp creates a new CLI application. A nil store is opened lazily from
// the configured database path.
func NewApp(store *db.SQLite, cfg *config.Config) *App {
	if cfg == nil {
		cfg = config.Default()
	}
	a := &App{
		config: cfg,
		store:  store,
		logger: logging.Discard(),
		in:     os.Stdin,
		now:    time.Now,
	}

	a.root = &cobra.Command{
		Use:   "barre",
		Short: "Rehearsal scheduling for dance studios",
		Long: `Barre places routines into studio rooms and keeps the calendar honest.

Rooms can never be double-booked. Dancers who would be in two rehearsals
at once are flagged, and you decide whether to schedule anyway.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runView(cmd, "", "", 0)
		},
	}

	// Add global flags
	flags := a.root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Config file (default "+config.DefaultConfigPath()+")")
	flags.StringVar(&a.dbPath, "db", "", "Database path (overrides config)")
	flags.BoolVar(&a.noColor, "no-color", false, "Disable colored output")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	a.root.AddCommand(a.versionCmd())
	a.root.AddCommand(a.configCmd())
	a.root.AddCommand(a.viewCmd())
	a.root.AddCommand(a.placeCmd())
	a.root.AddCommand(a.moveCmd())
	a.root.AddCommand(a.resizeCmd())
	a.root.AddCommand(a.removeCmd())
	a.root.AddCommand(a.checkCmd())
	a.root.AddCommand(a.listCmd())
	a.root.AddCommand(a.roomCmd())
	a.root.AddCommand(a.dancerCmd())
	a.root.AddCommand(a.routineCmd())
	a.root.AddCommand(a.teacherCmd())
	a.root.AddCommand(a.genreCmd())
	a.root.AddCommand(a.levelCmd())
	a.root.AddCommand(a.importCmd())

	return a
}

func (a *App) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "version",
		Short:             "Print the version number",
		PersistentPreRunE: skipSetup,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "barre %s (commit: %s)\n", Version, Commit)
		},
	}
}

func skipSetup(*cobra.Command, []string) error { return nil }

// setup applies global flags, then builds the logger and metrics.
func (a *App) setup(cmd *cobra.Command, _ []string) error {
	if a.configPath != "" {
		cfg, err := config.LoadFrom(a.configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		a.config = cfg
	}
	if a.dbPath != "" {
		a.config.Storage.DBPath = a.dbPath
	}
	if a.logLevel != "" {
		a.config.Log.Level = a.logLevel
	}
	if err := a.config.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	applyColorMode(a.config.UI.Color, a.noColor, cmd.OutOrStdout())

	opts := a.config.LoggingOptions()
	opts.Writer = cmd.ErrOrStderr()
	logger, closer, err := logging.New(opts)
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	a.logger, a.logCloser = logger.With("cmd", cmd.Name()), closer

	if a.config.Metrics.Textfile != "" {
		a.metrics = metrics.New()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logging.ContextWithLogger(ctx, a.logger))
	return nil
}

// openStore returns the store, opening the configured database on first use.
func (a *App) openStore() (*db.SQLite, error) {
	if a.store != nil {
		return a.store, nil
	}
	path := a.config.Storage.DBPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	store, err := db.New(path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	a.logger.Debug("database opened", "path", path)
	a.store, a.ownsStore = store, true
	return store, nil
}

// loadSession reads the catalog and the placements in r (nil for all).
func (a *App) loadSession(ctx context.Context, r *dateutil.DateRange) (*planner.Session, *db.SQLite, error) {
	store, err := a.openStore()
	if err != nil {
		return nil, nil, err
	}
	catalog, err := store.Catalog(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("loading catalog: %w", err)
	}
	session, err := planner.Load(ctx, store, catalog, r,
		planner.WithLogger(logging.FromContext(ctx, a.logger)),
		planner.WithMetrics(a.metrics),
	)
	if err != nil {
		return nil, nil, err
	}
	return session, store, nil
}

// Execute runs the CLI application.
func (a *App) Execute() error {
	return a.root.Execute()
}

// ExecuteContext runs the CLI with ctx, which is cancelled on interrupt by
// the caller.
func (a *App) ExecuteContext(ctx context.Context) error {
	return a.root.ExecuteContext(ctx)
}

// Close writes the metrics textfile, if configured, and releases the
// database and log file.
func (a *App) Close() error {
	var errs []error
	if a.metrics != nil {
		if err := a.metrics.WriteTextfile(a.config.Metrics.Textfile); err != nil {
			errs = append(errs, fmt.Errorf("writing metrics: %w", err))
		}
	}
	if a.ownsStore && a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing database: %w", err))
		}
		a.store = nil
	}
	if a.logCloser != nil {
		if err := a.logCloser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing log: %w", err))
		}
		a.logCloser = nil
	}
	return errors.Join(errs...)
}
