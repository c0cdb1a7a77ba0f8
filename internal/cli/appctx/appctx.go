// Package appctx provides a shared bootstrap helper for CLI commands.
// It centralizes config loading, logging setup, database opening, and actor
// resolution to reduce boilerplate across commands.
package appctx

import (
	"context"
	"fmt"

	"github.com/lherron/caseq/internal/config"
	"github.com/lherron/caseq/internal/db"
	"github.com/lherron/caseq/internal/logging"
	"github.com/lherron/caseq/internal/store"
	"github.com/spf13/cobra"
)

// App holds the shared application context for commands.
type App struct {
	// Config is the loaded configuration
	Config *config.Config

	// DB is the opened database connection (nil if NeedsDB is false)
	DB *db.DB

	// Store wraps DB (nil if NeedsDB is false)
	Store *store.Store

	// ActorUUID is the resolved actor UUID (empty if NeedsActor is false)
	ActorUUID string

	// ActorID is the resolved actor friendly ID (e.g., "A-00001")
	ActorID string
}

// Close releases resources held by the App.
// Safe to call multiple times.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
		a.DB = nil
		a.Store = nil
	}
}

// Options configures the bootstrap behavior.
type Options struct {
	// NeedsDB indicates whether to open the database.
	NeedsDB bool

	// NeedsActor indicates whether to resolve the current actor.
	// Requires NeedsDB to also be true.
	NeedsActor bool

	// AllowPendingMigrations skips the schema check, for commands that
	// create or migrate the database themselves.
	AllowPendingMigrations bool
}

// DefaultOptions returns default options (DB required, no actor).
func DefaultOptions() Options {
	return Options{NeedsDB: true}
}

// WithActor returns options that require both DB and actor.
func WithActor() Options {
	return Options{NeedsDB: true, NeedsActor: true}
}

// AdminOptions returns options for commands that manage the schema.
func AdminOptions() Options {
	return Options{NeedsDB: true, AllowPendingMigrations: true}
}

// RunFunc is the signature for command run functions.
type RunFunc func(app *App, cmd *cobra.Command, args []string) error

// WithApp wraps a command's run function with shared bootstrap logic.
// The database is closed automatically when the wrapped function returns.
func WithApp(opts Options, fn RunFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := Bootstrap(cmd, opts)
		if err != nil {
			return err
		}
		defer app.Close()

		return fn(app, cmd, args)
	}
}

// Bootstrap initializes the App according to the given options.
// Callers are responsible for calling App.Close() when done.
func Bootstrap(cmd *cobra.Command, opts Options) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app := &App{Config: cfg}

	if dbPath := flagValue(cmd, "db"); dbPath != "" {
		app.Config.DBPath = dbPath
	}
	if level := flagValue(cmd, "log-level"); level != "" {
		app.Config.LogLevel = level
	}

	level, err := logging.ParseLevel(app.Config.LogLevel)
	if err != nil {
		return nil, err
	}
	logging.Init(level, app.Config.LogFormat, cmd.ErrOrStderr())

	if opts.NeedsDB {
		database, err := db.Open(app.Config.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if !opts.AllowPendingMigrations {
			if err := database.RequiresMigrationError(); err != nil {
				database.Close()
				return nil, err
			}
		}
		app.DB = database
		app.Store = store.New(database)
	}

	if opts.NeedsActor {
		if app.Store == nil {
			app.Close()
			return nil, fmt.Errorf("actor resolution requires database (set NeedsDB: true)")
		}
		if err := app.resolveActor(cmd); err != nil {
			app.Close()
			return nil, err
		}
	}

	return app, nil
}

// resolveActor resolves the current actor from the --as flag, env, or config.
func (a *App) resolveActor(cmd *cobra.Command) error {
	ref := flagValue(cmd, "as")
	if ref == "" {
		ref = a.Config.GetActorID()
	}
	if ref == "" {
		return fmt.Errorf("no actor configured (set CASEQ_ACTOR, CASEQ_ACTOR_ID, or use --as flag)")
	}

	actor, err := a.Store.Actors.Resolve(Context(cmd), ref)
	if err != nil {
		return fmt.Errorf("failed to resolve actor: %w", err)
	}
	a.ActorUUID = actor.UUID
	a.ActorID = actor.ID
	return nil
}

func flagValue(cmd *cobra.Command, name string) string {
	if f := cmd.Flag(name); f != nil {
		return f.Value.String()
	}
	return ""
}

// Context returns the command's context, or a background context when the
// command runs outside Execute.
func Context(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
