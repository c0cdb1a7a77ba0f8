package cli

import (
	"fmt"

	"github.com/lherron/caseq/internal/cli/appctx"
	"github.com/spf13/cobra"
)

var initAdmCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the caseq database",
	Long: `Initialize creates the SQLite database, runs migrations, and seeds a
default human actor when the database has none. Running it again only applies
pending migrations.

This is an administrative command and should not be exposed to agents.`,
	Args: cobra.NoArgs,
	RunE: appctx.WithApp(appctx.AdminOptions(), runInitAdm),
}

var (
	initAdmActorSlug string
	initAdmActorName string
)

func init() {
	rootAdmCmd.AddCommand(initAdmCmd)

	initAdmCmd.Flags().StringVar(&initAdmActorSlug, "actor-slug", "local-human", "Slug for the default human actor")
	initAdmCmd.Flags().StringVar(&initAdmActorName, "actor-name", "Local Human", "Display name for the default human actor")
}

func runInitAdm(app *appctx.App, cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	applied, err := app.DB.MigrateWithInfo()
	if err != nil {
		return exitError(ExitFailure, fmt.Errorf("failed to run migrations: %w", err))
	}

	actors, err := app.Store.Actors.List(appctx.Context(cmd))
	if err != nil {
		return err
	}
	if len(actors) > 0 {
		fmt.Fprintf(out, "✓ Database already initialized at %s\n", app.Config.DBPath)
		fmt.Fprintf(out, "✓ Applied %d pending migration(s)\n", len(applied))
		return nil
	}

	actor, err := app.Store.Actors.Create(appctx.Context(cmd), initAdmActorSlug, initAdmActorName, "human")
	if err != nil {
		return exitError(ExitFailure, fmt.Errorf("failed to seed default actor: %w", err))
	}

	fmt.Fprintf(out, "✓ Initialized new database at %s\n", app.Config.DBPath)
	fmt.Fprintf(out, "✓ Seeded default actor: %s (%s)\n", actor.Slug, actor.ID)
	return nil
}
