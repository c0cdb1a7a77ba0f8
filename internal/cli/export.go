package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lherron/caseq/internal/cli/appctx"
	"github.com/lherron/caseq/internal/export"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a project's suites and cases as JSON",
	Long: `Writes the project's suites and test cases as a payload document that
'caseq import payload' reads back. Suites are listed parent first so the
file re-imports into an empty project unchanged.

Examples:
  caseq export --project checkout                # caseq-P-00001-<time>.json in cwd
  caseq export --project checkout --out backups/
  caseq export --project checkout --out - | jq .total`,
	Args: cobra.NoArgs,
	RunE: appctx.WithApp(appctx.DefaultOptions(), runExport),
}

var (
	exportProject string
	exportOut     string
)

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportProject, "project", "p", "", "Project to export (slug, friendly ID or UUID)")
	exportCmd.Flags().StringVar(&exportOut, "out", ".", "Output directory, or - for stdout")
}

func runExport(app *appctx.App, cmd *cobra.Command, args []string) error {
	if exportProject == "" {
		return exitError(ExitUsage, fmt.Errorf("--project is required"))
	}

	exp, err := export.Build(appctx.Context(cmd), app.Store.Catalog(), exportProject, time.Now())
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	if exportOut == "-" {
		_, err := cmd.OutOrStdout().Write(append(exp.Data, '\n'))
		return err
	}

	if err := os.MkdirAll(exportOut, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(exportOut, exp.FileName)
	if err := os.WriteFile(path, exp.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d cases to %s\n", exp.Document.Total, path)
	fmt.Fprintf(cmd.OutOrStdout(), "  sha256 %s\n", exp.Checksum)
	return nil
}
