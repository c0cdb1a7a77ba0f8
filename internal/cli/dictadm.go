package cli

import (
	"fmt"
	"strconv"

	"github.com/lherron/caseq/internal/cli/appctx"
	"github.com/lherron/caseq/internal/domain"
	"github.com/lherron/caseq/internal/render"
	"github.com/spf13/cobra"
)

var dictAdmCmd = &cobra.Command{
	Use:   "dict",
	Short: "Manage the priority and case type dictionaries",
	Long: `Priorities and case types are global. Imports resolve them by name,
ignoring case, and leave a case's field empty when the name is unknown.`,
}

var dictAdmLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List priorities and case types",
	Args:  cobra.NoArgs,
	RunE:  appctx.WithApp(appctx.DefaultOptions(), runDictAdmLs),
}

var dictAdmAddPriorityCmd = &cobra.Command{
	Use:   "add-priority <name>",
	Short: "Add a priority",
	Long: `Adds a priority. Weight orders priorities; higher is more urgent.

Examples:
  caseqadm dict add-priority Blocker --weight 5`,
	Args: cobra.ExactArgs(1),
	RunE: appctx.WithApp(appctx.DefaultOptions(), runDictAdmAddPriority),
}

var dictAdmAddTypeCmd = &cobra.Command{
	Use:   "add-type <name>",
	Short: "Add a case type",
	Args:  cobra.ExactArgs(1),
	RunE:  appctx.WithApp(appctx.DefaultOptions(), runDictAdmAddType),
}

var (
	dictAdmWeight int
	dictAdmJSON   bool
)

func init() {
	rootAdmCmd.AddCommand(dictAdmCmd)
	dictAdmCmd.AddCommand(dictAdmLsCmd, dictAdmAddPriorityCmd, dictAdmAddTypeCmd)

	dictAdmLsCmd.Flags().BoolVar(&dictAdmJSON, "json", false, "Output as JSON")
	dictAdmAddPriorityCmd.Flags().IntVar(&dictAdmWeight, "weight", 0, "Priority weight")
}

type dictionaries struct {
	Priorities []domain.Priority `json:"priorities" yaml:"priorities"`
	Types      []domain.CaseType `json:"types" yaml:"types"`
}

func runDictAdmLs(app *appctx.App, cmd *cobra.Command, args []string) error {
	ctx := appctx.Context(cmd)
	cat := app.Store.Catalog()

	priorities, err := cat.ListPriorities(ctx)
	if err != nil {
		return err
	}
	types, err := cat.ListCaseTypes(ctx)
	if err != nil {
		return err
	}

	r, err := newRenderer(app, cmd)
	if err != nil {
		return err
	}

	t := render.Table{Headers: []string{"Kind", "ID", "Name", "Weight"}, RightAlign: []int{2, 4}}
	for _, p := range priorities {
		t.Rows = append(t.Rows, []string{"priority", strconv.FormatInt(p.ID, 10), p.Name, strconv.Itoa(p.Weight)})
	}
	for _, ct := range types {
		t.Rows = append(t.Rows, []string{"type", strconv.FormatInt(ct.ID, 10), ct.Name, ""})
	}
	return r.Render(dictionaries{Priorities: priorities, Types: types}, t)
}

func runDictAdmAddPriority(app *appctx.App, cmd *cobra.Command, args []string) error {
	p, err := app.Store.Dictionaries.AddPriority(appctx.Context(cmd), args[0], dictAdmWeight)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Added priority %s (id %d, weight %d)\n", p.Name, p.ID, p.Weight)
	return nil
}

func runDictAdmAddType(app *appctx.App, cmd *cobra.Command, args []string) error {
	ct, err := app.Store.Dictionaries.AddCaseType(appctx.Context(cmd), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Added case type %s (id %d)\n", ct.Name, ct.ID)
	return nil
}
