package cli

import (
	"fmt"

	"github.com/lherron/caseq/internal/cli/appctx"
	"github.com/lherron/caseq/internal/render"
	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Print the current actor",
	Long:  `Displays the actor that imports are attributed to, resolved from --as, CASEQ_ACTOR_ID, CASEQ_ACTOR or the config file.`,
	Args:  cobra.NoArgs,
	RunE:  appctx.WithApp(appctx.WithActor(), runWhoami),
}

var whoamiJSON bool

func init() {
	rootCmd.AddCommand(whoamiCmd)
	whoamiCmd.Flags().BoolVar(&whoamiJSON, "json", false, "Output as JSON")
}

func runWhoami(app *appctx.App, cmd *cobra.Command, args []string) error {
	actor, err := app.Store.Actors.Resolve(appctx.Context(cmd), app.ActorUUID)
	if err != nil {
		return err
	}

	r, err := newRenderer(app, cmd)
	if err != nil {
		return err
	}
	if r.Structured() {
		return r.Render(map[string]any{"actor": actor, "db_path": app.Config.DBPath}, render.Table{})
	}

	displayName := actor.Slug
	if actor.DisplayName != nil && *actor.DisplayName != "" {
		displayName = *actor.DisplayName
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Actor:   %s (%s)\n", displayName, actor.ID)
	fmt.Fprintf(out, "Slug:    %s\n", actor.Slug)
	fmt.Fprintf(out, "Role:    %s\n", actor.Role)
	fmt.Fprintf(out, "DB:      %s\n", app.Config.DBPath)
	return nil
}
