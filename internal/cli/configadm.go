package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/lherron/caseq/internal/cli/appctx"
	"github.com/lherron/caseq/internal/config"
	"github.com/lherron/caseq/internal/db"
	"github.com/lherron/caseq/internal/render"
	"github.com/lherron/caseq/internal/store"
	"github.com/lherron/caseq/internal/webhooks"
	"github.com/spf13/cobra"
)

var configAdmCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management and introspection",
	Long:  `Commands for inspecting and validating configuration. These are administrative operations.`,
}

var configDoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Show effective configuration and validate settings",
	Long: `Displays the effective configuration values and their sources, and validates
that the database and actor settings resolve.`,
	Args: cobra.NoArgs,
	RunE: runConfigDoctor,
}

type configValue struct {
	Key    string `json:"key" yaml:"key"`
	Value  string `json:"value" yaml:"value"`
	Source string `json:"source" yaml:"source"`
	Valid  bool   `json:"valid" yaml:"valid"`
	Note   string `json:"note,omitempty" yaml:"note,omitempty"`
}

type configDoctorReport struct {
	Config   []configValue `json:"config" yaml:"config"`
	Warnings []string      `json:"warnings" yaml:"warnings"`
}

func init() {
	rootAdmCmd.AddCommand(configAdmCmd)
	configAdmCmd.AddCommand(configDoctorCmd)
}

func runConfigDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if f := cmd.Flag("db"); f != nil && f.Changed {
		cfg.DBPath = f.Value.String()
	}

	report := &configDoctorReport{Warnings: []string{}}
	add := func(v configValue) { report.Config = append(report.Config, v) }

	dbValue := configValue{Key: "db_path", Value: cfg.DBPath, Source: source(cmd, "db", "CASEQ_DB_PATH", "CASEQ_DB_PATH_FILE")}
	var database *db.DB
	if _, err := os.Stat(cfg.DBPath); err != nil {
		dbValue.Note = "File does not exist"
		report.Warnings = append(report.Warnings, "Database file does not exist - run 'caseqadm init' to create it")
	} else if database, err = db.Open(cfg.DBPath); err != nil {
		dbValue.Note = fmt.Sprintf("File exists but failed to open: %v", err)
	} else {
		defer database.Close()
		dbValue.Valid = true
		if err := database.RequiresMigrationError(); err != nil {
			dbValue.Note = err.Error()
			report.Warnings = append(report.Warnings, "Database has pending migrations - run 'caseqadm migrate'")
		}
	}
	add(dbValue)

	actorValue := configValue{Key: "actor", Value: cfg.GetActorID(), Source: source(cmd, "as", "CASEQ_ACTOR_ID", "CASEQ_ACTOR")}
	if f := cmd.Flag("as"); f != nil && f.Changed {
		actorValue.Value = f.Value.String()
	}
	switch {
	case actorValue.Value == "":
		actorValue.Value = "(not set)"
		report.Warnings = append(report.Warnings, "No actor configured - set CASEQ_ACTOR or use --as flag")
	case database != nil:
		actor, err := store.New(database).Actors.Resolve(appctx.Context(cmd), actorValue.Value)
		if err != nil {
			actorValue.Note = fmt.Sprintf("Failed to resolve: %v", err)
			report.Warnings = append(report.Warnings, fmt.Sprintf("Actor '%s' not found in database", actorValue.Value))
		} else {
			actorValue.Valid = true
			actorValue.Note = fmt.Sprintf("Resolved to %s", actor.ID)
		}
	}
	add(actorValue)

	add(configValue{Key: "log_level", Value: cfg.LogLevel, Source: source(cmd, "log-level", "CASEQ_LOG_LEVEL"), Valid: true})
	add(configValue{Key: "log_format", Value: cfg.LogFormat, Source: source(cmd, "", "CASEQ_LOG_FORMAT"), Valid: true})
	add(configValue{Key: "output", Value: cfg.Output, Source: source(cmd, "output", "CASEQ_OUTPUT"), Valid: true})
	add(configValue{Key: "max_upload_mb", Value: strconv.Itoa(cfg.MaxUploadMB), Source: source(cmd, "", "CASEQ_MAX_UPLOAD_MB"), Valid: true})
	roots := configValue{Key: "virtual_roots", Value: strings.Join(cfg.VirtualRoots, ","), Source: source(cmd, "", "CASEQ_VIRTUAL_ROOTS"), Valid: true}
	if len(cfg.VirtualRoots) == 0 {
		roots.Note = "TestRail top-level sections are all kept as suites"
	}
	add(roots)

	hooks := configValue{Key: "webhook_urls", Value: strings.Join(cfg.WebhookURLs, ","), Source: source(cmd, "", "CASEQ_WEBHOOK_URLS"), Valid: true}
	if usable := webhooks.ResolveTargets(cfg.WebhookURLs, webhooks.Payload{}); len(usable) < len(cfg.WebhookURLs) {
		hooks.Valid = false
		hooks.Note = fmt.Sprintf("%d of %d URLs are not valid http(s) endpoints or are duplicates", len(cfg.WebhookURLs)-len(usable), len(cfg.WebhookURLs))
	}
	add(hooks)

	r, err := newConfigRenderer(cmd, cfg)
	if err != nil {
		return err
	}
	if r.Structured() {
		return r.Render(report, render.Table{})
	}

	t := render.Table{Headers: []string{"Setting", "Value", "Source", "Status"}}
	for _, v := range report.Config {
		status := "✓"
		if !v.Valid {
			status = "✗"
		}
		if v.Note != "" {
			status += " " + v.Note
		}
		t.Rows = append(t.Rows, []string{v.Key, v.Value, v.Source, status})
	}
	if err := r.RenderTable(t); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	if len(report.Warnings) == 0 {
		fmt.Fprintln(out, "✓ No warnings")
		return nil
	}
	fmt.Fprintln(out, "Warnings:")
	for _, warning := range report.Warnings {
		fmt.Fprintf(out, "  ⚠  %s\n", warning)
	}
	return nil
}

// source names where a setting came from: the flag, then the first set
// environment variable, otherwise the config file or built-in default.
func source(cmd *cobra.Command, flag string, envVars ...string) string {
	if flag != "" {
		if f := cmd.Flag(flag); f != nil && f.Changed {
			return "flag --" + flag
		}
	}
	for _, env := range envVars {
		if os.Getenv(env) != "" {
			return "env " + env
		}
	}
	return "config file or default"
}

func newConfigRenderer(cmd *cobra.Command, cfg *config.Config) (*render.Renderer, error) {
	name := cfg.Output
	if f := cmd.Flag("output"); f != nil && f.Changed {
		name = f.Value.String()
	}
	format, err := render.ParseFormat(name)
	if err != nil {
		return nil, err
	}
	return render.NewRenderer(cmd.OutOrStdout(), render.Options{Format: format}), nil
}
