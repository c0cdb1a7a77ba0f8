package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/lherron/caseq/internal/cli/appctx"
	"github.com/lherron/caseq/internal/convert"
	"github.com/lherron/caseq/internal/importer"
	"github.com/lherron/caseq/internal/render"
	"github.com/lherron/caseq/internal/webhooks"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import suites and test cases into a project",
	Long: `Imports suites and test cases into an existing project in one transaction.

Matching is by owning suite and title, ignoring case and extra whitespace.
Existing cases are skipped unless --overwrite is given. Inputs may be gzip or
zstd compressed and are capped at CASEQ_MAX_UPLOAD_MB.`,
}

var importTestRailCmd = &cobra.Command{
	Use:   "testrail <file|->",
	Short: "Import a TestRail XML export",
	Long: `Imports a TestRail XML suite export. Sections become nested suites; the
top-level sections named by CASEQ_VIRTUAL_ROOTS (default "Test Cases") are
treated as transparent.

Examples:
  caseq import testrail export.xml --project checkout
  caseq import testrail export.xml.gz --project P-00001 --overwrite --diff
  cat export.xml | caseq import testrail - --project checkout --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: appctx.WithApp(appctx.WithActor(), runImportTestRail),
}

var importPayloadCmd = &cobra.Command{
	Use:   "payload <file|->",
	Short: "Import a JSON or YAML suite/case payload",
	Long: `Imports a generic payload: {suites: [...], cases: [...]} or a bare list of
cases, in JSON or YAML. Files written by 'caseq export' are accepted as is.

Examples:
  caseq import payload cases.yaml --project checkout
  caseq import payload caseq-P-00001-20250101-120000.json --project copy`,
	Args: cobra.ExactArgs(1),
	RunE: appctx.WithApp(appctx.WithActor(), runImportPayload),
}

var (
	importProject   string
	importOverwrite bool
	importDryRun    bool
	importDiff      bool
	importJSON      bool
)

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.AddCommand(importTestRailCmd, importPayloadCmd)

	importCmd.PersistentFlags().StringVarP(&importProject, "project", "p", "", "Target project (slug, friendly ID or UUID)")
	importCmd.PersistentFlags().BoolVar(&importOverwrite, "overwrite", false, "Overwrite the content of existing cases")
	importCmd.PersistentFlags().BoolVar(&importDryRun, "dry-run", false, "Report what would change without saving")
	importCmd.PersistentFlags().BoolVar(&importDiff, "diff", false, "Show a diff for every overwritten case")
	importCmd.PersistentFlags().BoolVar(&importJSON, "json", false, "Output as JSON")
}

type importFunc func(e *importer.Engine, ctx context.Context, r io.Reader, opts importer.Options) (*importer.Result, error)

func runImportTestRail(app *appctx.App, cmd *cobra.Command, args []string) error {
	return runImport(app, cmd, args[0], "testrail", (*importer.Engine).ImportTestRail)
}

func runImportPayload(app *appctx.App, cmd *cobra.Command, args []string) error {
	return runImport(app, cmd, args[0], "payload", (*importer.Engine).ImportPayload)
}

func runImport(app *appctx.App, cmd *cobra.Command, path, format string, fn importFunc) error {
	if importProject == "" {
		return exitError(ExitUsage, fmt.Errorf("--project is required"))
	}

	in, closeFn, err := openInput(cmd, path)
	if err != nil {
		return err
	}
	defer closeFn()

	engine := importer.New(app.Store, convert.New(app.Config.VirtualRoots), app.Config.MaxUploadBytes())
	result, err := fn(engine, appctx.Context(cmd), in, importer.Options{
		Project:           importProject,
		ActorUUID:         app.ActorUUID,
		OverwriteExisting: importOverwrite,
		DryRun:            importDryRun,
		Diff:              importDiff,
	})
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	if !result.DryRun {
		notifyImport(appctx.Context(cmd), app.Config.WebhookURLs, format, result)
	}

	r, err := newRenderer(app, cmd)
	if err != nil {
		return err
	}
	if r.Structured() {
		return r.Render(result, render.Table{})
	}
	return printImportResult(cmd.OutOrStdout(), r, result)
}

func notifyImport(ctx context.Context, urls []string, format string, res *importer.Result) {
	p := webhooks.Payload{
		Event:         webhooks.EventImportCompleted,
		ProjectID:     res.ProjectID,
		ProjectUUID:   res.ProjectUUID,
		Source:        format,
		Created:       res.Created,
		Updated:       res.Updated,
		Skipped:       res.Skipped,
		Ignored:       res.Ignored,
		SuitesCreated: res.SuitesCreated,
		SuitesSkipped: res.SuitesSkipped,
		CompletedAt:   time.Now().UTC(),
	}
	targets := webhooks.ResolveTargets(urls, p)
	if len(targets) == 0 {
		return
	}
	webhooks.New(0).Dispatch(ctx, targets, p)
}

func openInput(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input: %w", err)
	}
	return f, func() { f.Close() }, nil
}

func printImportResult(w io.Writer, r *render.Renderer, res *importer.Result) error {
	verb := "Imported into"
	if res.DryRun {
		verb = "Dry run against"
	}
	fmt.Fprintf(w, "%s project %s\n", verb, res.ProjectID)

	rows := [][]string{
		{"cases created", strconv.Itoa(res.Created)},
		{"cases updated", strconv.Itoa(res.Updated)},
		{"cases skipped", strconv.Itoa(res.Skipped)},
		{"cases ignored", strconv.Itoa(res.Ignored)},
		{"suites created", strconv.Itoa(res.SuitesCreated)},
		{"suites skipped", strconv.Itoa(res.SuitesSkipped)},
	}
	if err := r.Render(res, render.Table{Headers: []string{"Result", "Count"}, Rows: rows, RightAlign: []int{2}}); err != nil {
		return err
	}

	for _, c := range res.Changes {
		fmt.Fprintf(w, "\n%s %s\n", c.CaseID, c.Title)
		fmt.Fprint(w, c.Diff)
	}
	return nil
}
