package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/mchmarny/alphavote/pkg/config"
	"github.com/mchmarny/alphavote/pkg/data"
	"github.com/mchmarny/alphavote/pkg/logging"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	appName      = "alphavote"
	appConfigKey = "app-config"
	dbEnvVar     = "ALPHAVOTE_DB"

	flagDebug  = "debug"
	flagDB     = "db"
	flagFormat = "format"
	flagConfig = "config"

	formatJSON = config.FormatJSON
	formatYAML = config.FormatYAML
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""
)

// Execute creates and runs the CLI application.
func Execute() {
	initLogging(false)

	app := newApp()
	if err := app.Run(context.Background(), os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

type appConfig struct {
	Dir    string
	DBPath string
	Debug  bool
	Format string
	Config *config.Config

	mu sync.Mutex
	db *sql.DB
}

// DB initializes and opens the database on first use.
func (a *appConfig) DB() (*sql.DB, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.db != nil {
		return a.db, nil
	}
	if err := data.Init(a.DBPath); err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}
	db, err := data.GetDB(a.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	a.db = db
	return db, nil
}

func (a *appConfig) close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.db != nil {
		a.db.Close()
		a.db = nil
	}
}

func getConfig(cmd *cli.Command) *appConfig {
	return cmd.Root().Metadata[appConfigKey].(*appConfig)
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:                  appName,
		Version:               fmt.Sprintf("%s (%s - %s)", version, commit, date),
		EnableShellCompletion: true,
		HideHelpCommand:       true,
		Usage:                 "Multi-winner ranked-choice elections resolved by pairwise alpha escalation",
		Metadata:              map[string]any{},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "Prints verbose logs (optional, default: false)",
			},
			&cli.StringFlag{
				Name:    flagDB,
				Usage:   "Path to the SQLite database file or a postgres:// URL",
				Sources: cli.EnvVars(dbEnvVar),
			},
			&cli.StringFlag{
				Name:  flagFormat,
				Usage: "Output format [json, yaml]",
			},
			&cli.StringFlag{
				Name:  flagConfig,
				Usage: "Config directory (default: ~/.alphavote)",
			},
		},
		Commands: []*cli.Command{
			newRunCmd(),
			newImportCmd(),
			newConvertCmd(),
			newGenerateCmd(),
			newSweepCmd(),
			newListCmd(),
			newResultsCmd(),
			newDeleteCmd(),
			newAuthCmd(),
			newServerCmd(),
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			debug := cmd.Bool(flagDebug)
			if debug {
				initLogging(true)
			}

			dir := cmd.String(flagConfig)
			if dir == "" {
				dir = getHomeDir()
			}

			conf, err := config.ReadOrCreate(dir)
			if err != nil {
				return ctx, fmt.Errorf("reading config: %w", err)
			}

			format := conf.Format
			if f := cmd.String(flagFormat); f != "" {
				format = f
			}
			if format == "yml" {
				format = formatYAML
			}
			if !data.Contains([]string{formatJSON, formatYAML}, format) {
				return ctx, fmt.Errorf("unsupported output format: %s", format)
			}

			dbPath := cmd.String(flagDB)
			if dbPath == "" {
				dbPath = conf.DB
			}
			if dbPath == "" {
				dbPath = filepath.Join(dir, data.DataFileName)
			}

			cmd.Root().Metadata[appConfigKey] = &appConfig{
				Dir:    dir,
				DBPath: dbPath,
				Debug:  debug,
				Format: format,
				Config: conf,
			}
			return ctx, nil
		},
		After: func(_ context.Context, cmd *cli.Command) error {
			if cfg, ok := cmd.Root().Metadata[appConfigKey].(*appConfig); ok {
				cfg.close()
			}
			return nil
		},
	}
}

func initLogging(debug bool) {
	level := "info"
	if debug {
		level = "debug"
	}
	logging.SetDefaultCLILogger(level)
}

func getHomeDir() string {
	dir, created, err := config.GetOrCreateHomeDir(appName)
	if err != nil {
		slog.Debug("error getting home dir, using current dir instead", "error", err)
		return "."
	}
	if created {
		slog.Debug("created home dir", "path", dir)
	}
	return dir
}

func encode(cmd *cli.Command, v any) error {
	return encodeTo(cmd.Root().Writer, getConfig(cmd).Format, v)
}

func encodeTo(w io.Writer, format string, v any) error {
	if w == nil {
		w = os.Stdout
	}
	if format == formatYAML {
		e := yaml.NewEncoder(w)
		defer e.Close()
		return e.Encode(v)
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}

func writeFile(path string, fn func(w io.Writer) error) (retErr error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && retErr == nil {
			retErr = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()
	return fn(f)
}
