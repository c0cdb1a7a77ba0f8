package cli

import (
	"fmt"

	"github.com/lherron/caseq/internal/cli/appctx"
	"github.com/lherron/caseq/internal/render"
	"github.com/spf13/cobra"
)

var actorsAdmCmd = &cobra.Command{
	Use:   "actors",
	Short: "Manage actors (users and agents)",
	Long:  `Administrative commands for listing and managing actors in the system. These operations should not be exposed to agents.`,
}

var actorsAdmLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all actors",
	Long:  `Lists all actors (users and agents) in the system.`,
	Args:  cobra.NoArgs,
	RunE:  appctx.WithApp(appctx.DefaultOptions(), runActorsAdmList),
}

var actorAdmAddCmd = &cobra.Command{
	Use:   "add <slug>",
	Short: "Create a new actor",
	Long:  `Creates a new actor with the given slug. The slug will be normalized to lowercase [a-z0-9-].`,
	Args:  cobra.ExactArgs(1),
	RunE:  appctx.WithApp(appctx.DefaultOptions(), runActorAdmAdd),
}

var (
	actorsAdmLsJSON bool
	actorAdmAddName string
	actorAdmAddRole string
)

func init() {
	rootAdmCmd.AddCommand(actorsAdmCmd)
	actorsAdmCmd.AddCommand(actorsAdmLsCmd)
	actorsAdmCmd.AddCommand(actorAdmAddCmd)

	actorsAdmLsCmd.Flags().BoolVar(&actorsAdmLsJSON, "json", false, "Output as JSON")

	actorAdmAddCmd.Flags().StringVar(&actorAdmAddName, "name", "", "Display name for the actor")
	actorAdmAddCmd.Flags().StringVar(&actorAdmAddRole, "role", "human", "Actor role (human, agent, system)")
}

func runActorsAdmList(app *appctx.App, cmd *cobra.Command, args []string) error {
	actorList, err := app.Store.Actors.List(appctx.Context(cmd))
	if err != nil {
		return fmt.Errorf("failed to list actors: %w", err)
	}

	r, err := newRenderer(app, cmd)
	if err != nil {
		return err
	}

	t := render.Table{Headers: []string{"ID", "Slug", "Display Name", "Role"}}
	for _, actor := range actorList {
		t.Rows = append(t.Rows, []string{actor.ID, actor.Slug, stringOrEmpty(actor.DisplayName), actor.Role})
	}
	return r.Render(actorList, t)
}

func runActorAdmAdd(app *appctx.App, cmd *cobra.Command, args []string) error {
	actor, err := app.Store.Actors.Create(appctx.Context(cmd), args[0], actorAdmAddName, actorAdmAddRole)
	if err != nil {
		return fmt.Errorf("failed to create actor: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Created actor %s (%s)\n", actor.Slug, actor.ID)
	return nil
}
