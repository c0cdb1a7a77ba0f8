package cli

import (
	"github.com/spf13/cobra"
)

var rootAdmCmd = &cobra.Command{
	Use:   "caseqadm",
	Short: "Administrative CLI for the caseq database",
	Long: `caseqadm is the administrative companion to caseq. It handles database
lifecycle (init, migrate), actors, the priority and type dictionaries, and
health checks.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// ExecuteAdmin runs the admin root command
func ExecuteAdmin() error {
	return rootAdmCmd.Execute()
}

func init() {
	rootAdmCmd.PersistentFlags().String("db", "", "Path to database file (overrides CASEQ_DB_PATH)")
	rootAdmCmd.PersistentFlags().String("as", "", "Actor to perform action as (slug or friendly ID)")
	rootAdmCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides CASEQ_LOG_LEVEL)")
	rootAdmCmd.PersistentFlags().StringP("output", "o", "", "Output format: table, markdown, json, ndjson, yaml, tsv (overrides CASEQ_OUTPUT)")
	rootAdmCmd.PersistentFlags().Bool("porcelain", false, "Machine-readable output")
}
