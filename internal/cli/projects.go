package cli

import (
	"fmt"

	"github.com/lherron/caseq/internal/cli/appctx"
	"github.com/lherron/caseq/internal/render"
	"github.com/spf13/cobra"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectAddCmd = &cobra.Command{
	Use:   "add <slug>",
	Short: "Create a project",
	Long: `Creates a project that suites and test cases can be imported into.

Examples:
  caseq project add checkout
  caseq project add checkout --name "Checkout flow"`,
	Args: cobra.ExactArgs(1),
	RunE: appctx.WithApp(appctx.WithActor(), runProjectAdd),
}

var projectLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List projects",
	Long: `Lists projects ordered by friendly ID.

Examples:
  caseq project ls
  caseq project ls -a          # Include archived projects
  caseq project ls -o json`,
	Args: cobra.NoArgs,
	RunE: appctx.WithApp(appctx.DefaultOptions(), runProjectLs),
}

var (
	projectAddName string
	projectLsAll   bool
	projectLsJSON  bool
)

var projectArchiveCmd = &cobra.Command{
	Use:   "archive <project>",
	Short: "Archive a project",
	Long:  `Archives a project. Archived projects are hidden from listings and reject imports.`,
	Args:  cobra.ExactArgs(1),
	RunE:  appctx.WithApp(appctx.DefaultOptions(), runProjectArchive),
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectAddCmd, projectLsCmd, projectArchiveCmd)

	projectAddCmd.Flags().StringVar(&projectAddName, "name", "", "Display name (defaults to the slug)")
	projectLsCmd.Flags().BoolVarP(&projectLsAll, "all", "a", false, "Include archived projects")
	projectLsCmd.Flags().BoolVar(&projectLsJSON, "json", false, "Output as JSON")
}

func runProjectAdd(app *appctx.App, cmd *cobra.Command, args []string) error {
	p, err := app.Store.Projects.Create(appctx.Context(cmd), app.ActorUUID, args[0], projectAddName)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Created project %s (%s)\n", p.Slug, p.ID)
	return nil
}

func runProjectLs(app *appctx.App, cmd *cobra.Command, args []string) error {
	projects, err := app.Store.Projects.List(appctx.Context(cmd), projectLsAll)
	if err != nil {
		return err
	}

	r, err := newRenderer(app, cmd)
	if err != nil {
		return err
	}

	t := render.Table{Headers: []string{"ID", "Slug", "Name", "Created", "Archived"}}
	for _, p := range projects {
		archived := ""
		if p.ArchivedAt != nil {
			archived = p.ArchivedAt.Format("2006-01-02")
		}
		t.Rows = append(t.Rows, []string{p.ID, p.Slug, p.Name, p.CreatedAt.Format("2006-01-02"), archived})
	}
	return r.Render(projects, t)
}

func runProjectArchive(app *appctx.App, cmd *cobra.Command, args []string) error {
	ctx := appctx.Context(cmd)
	p, err := app.Store.Projects.Resolve(ctx, args[0])
	if err != nil {
		return err
	}
	if err := app.Store.Projects.Archive(ctx, p.UUID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Archived project %s (%s)\n", p.Slug, p.ID)
	return nil
}
