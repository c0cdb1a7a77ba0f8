package cli

import (
	"fmt"

	"github.com/lherron/caseq/internal/cli/appctx"
	"github.com/lherron/caseq/internal/domain"
	"github.com/lherron/caseq/internal/render"
	"github.com/spf13/cobra"
)

// newRenderer picks the output format: --json, then --output, then config.
func newRenderer(app *appctx.App, cmd *cobra.Command) (*render.Renderer, error) {
	name := app.Config.Output
	if f := cmd.Flag("output"); f != nil && f.Changed {
		name = f.Value.String()
	}
	if f := cmd.Flag("json"); f != nil && f.Value.String() == "true" {
		name = string(render.FormatJSON)
	}
	format, err := render.ParseFormat(name)
	if err != nil {
		return nil, err
	}

	porcelain := false
	if f := cmd.Flag("porcelain"); f != nil {
		porcelain = f.Value.String() == "true"
	}
	return render.NewRenderer(cmd.OutOrStdout(), render.Options{Format: format, Porcelain: porcelain}), nil
}

// resolveProject resolves the --project flag, which is required
func resolveProject(app *appctx.App, cmd *cobra.Command, ref string) (*domain.Project, error) {
	if ref == "" {
		return nil, exitError(ExitUsage, fmt.Errorf("--project is required"))
	}
	return app.Store.Projects.Resolve(appctx.Context(cmd), ref)
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
