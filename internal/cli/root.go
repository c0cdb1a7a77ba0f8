package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "caseq",
	Short: "Test-case catalog with TestRail and payload imports",
	Long: `caseq keeps projects, suites and test cases in a SQLite catalog.
It imports TestRail XML exports and generic JSON/YAML payloads idempotently:
re-running an import creates nothing new, and a failed import changes nothing.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to database file (overrides CASEQ_DB_PATH)")
	rootCmd.PersistentFlags().String("as", "", "Actor to perform action as (slug or friendly ID)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides CASEQ_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format: table, markdown, json, ndjson, yaml, tsv (overrides CASEQ_OUTPUT)")
	rootCmd.PersistentFlags().Bool("porcelain", false, "Machine-readable output")
}
