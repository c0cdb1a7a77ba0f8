package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/lherron/caseq/internal/config"
	"github.com/lherron/caseq/internal/db"
	"github.com/lherron/caseq/internal/render"
	"github.com/spf13/cobra"
)

var doctorAdmCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check database health and configuration",
	Long: `Performs health checks on the database file, pragmas, schema, suite tree and
friendly-ID sequences. This is an administrative operation.

--fix advances friendly-ID sequences that trail the IDs already in use.`,
	Args: cobra.NoArgs,
	RunE: runDoctorAdm,
}

var (
	doctorAdmJSON    bool
	doctorAdmFix     bool
	doctorAdmVerbose bool
)

type checkResult struct {
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Status   string   `json:"status"` // "ok", "warning", "error"
	Message  string   `json:"message,omitempty"`
	Details  []string `json:"details,omitempty"`
}

type doctorReport struct {
	Version       string        `json:"version"`
	DBPath        string        `json:"db_path"`
	Checks        []checkResult `json:"checks"`
	Fixes         []string      `json:"fixes,omitempty"`
	Warnings      int           `json:"warnings"`
	Errors        int           `json:"errors"`
	OverallStatus string        `json:"overall_status"`
}

var doctorCategories = []string{"Database File", "Database Health", "Schema", "Catalog Integrity", "Sequences", "Statistics"}

var requiredTables = []string{"actors", "projects", "suites", "test_cases", "priorities", "case_types", "event_log", "schema_migrations"}

func init() {
	rootAdmCmd.AddCommand(doctorAdmCmd)
	doctorAdmCmd.Flags().BoolVar(&doctorAdmJSON, "json", false, "Output JSON")
	doctorAdmCmd.Flags().BoolVar(&doctorAdmFix, "fix", false, "Auto-repair issues")
	doctorAdmCmd.Flags().BoolVar(&doctorAdmVerbose, "verbose", false, "Verbose output")
}

func runDoctorAdm(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if f := cmd.Flag("db"); f != nil && f.Value.String() != "" {
		cfg.DBPath = f.Value.String()
	}

	report := &doctorReport{
		Version:       Version,
		DBPath:        cfg.DBPath,
		Checks:        []checkResult{},
		OverallStatus: "ok",
	}

	report.Checks = append(report.Checks, checkDatabaseFile(cfg.DBPath)...)
	if report.Checks[0].Status == "ok" {
		database, err := db.Open(cfg.DBPath)
		if err != nil {
			report.Checks = append(report.Checks, checkResult{
				Name:     "database_open",
				Category: "Database File",
				Status:   "error",
				Message:  fmt.Sprintf("Failed to open database: %v", err),
			})
		} else {
			defer database.Close()
			report.Checks = append(report.Checks, checkDatabasePragmas(database)...)
			schema := checkSchema(database)
			report.Checks = append(report.Checks, schema...)
			if schema[0].Status == "ok" {
				report.Checks = append(report.Checks, checkCatalogIntegrity(database)...)
				if doctorAdmFix {
					report.Fixes = applyFixes(database)
				}
				report.Checks = append(report.Checks, checkSequenceDrift(database))
				report.Checks = append(report.Checks, checkStatistics(database)...)
			}
		}
	}

	for _, check := range report.Checks {
		switch check.Status {
		case "warning":
			report.Warnings++
		case "error":
			report.Errors++
			report.OverallStatus = "error"
		}
	}
	if report.Warnings > 0 && report.OverallStatus == "ok" {
		report.OverallStatus = "warning"
	}

	if doctorAdmJSON {
		r := render.NewRenderer(cmd.OutOrStdout(), render.Options{Format: render.FormatJSON})
		if err := r.RenderJSON(report); err != nil {
			return err
		}
	} else {
		printDoctorReport(cmd.OutOrStdout(), cmd.Root().Name(), report)
	}

	if report.Errors > 0 {
		return exitError(ExitFailure, fmt.Errorf("doctor found %d error(s)", report.Errors))
	}
	return nil
}

func checkDatabaseFile(dbPath string) []checkResult {
	info, err := os.Stat(dbPath)
	if err != nil {
		return []checkResult{{
			Name:     "db_file_exists",
			Category: "Database File",
			Status:   "error",
			Message:  fmt.Sprintf("Database file not found: %s", dbPath),
			Details:  []string{"Run 'caseqadm init' to create it"},
		}}
	}

	results := []checkResult{{
		Name:     "db_file_exists",
		Category: "Database File",
		Status:   "ok",
		Message:  fmt.Sprintf("Database file: %s (%.1f MB)", dbPath, float64(info.Size())/(1024*1024)),
	}}

	f, err := os.OpenFile(dbPath, os.O_RDWR, 0)
	if err != nil {
		return append(results, checkResult{
			Name:     "db_file_permissions",
			Category: "Database File",
			Status:   "error",
			Message:  fmt.Sprintf("Database file not writable: %v", err),
		})
	}
	f.Close()
	return append(results, checkResult{
		Name:     "db_file_permissions",
		Category: "Database File",
		Status:   "ok",
		Message:  "Database file is readable and writable",
	})
}

func checkDatabasePragmas(database *db.DB) []checkResult {
	var results []checkResult

	var journalMode string
	database.QueryRow("PRAGMA journal_mode").Scan(&journalMode)
	if journalMode == "wal" {
		results = append(results, checkResult{Name: "wal_mode", Category: "Database Health", Status: "ok", Message: "WAL mode enabled"})
	} else {
		results = append(results, checkResult{
			Name:     "wal_mode",
			Category: "Database Health",
			Status:   "warning",
			Message:  fmt.Sprintf("WAL mode not enabled (current: %s)", journalMode),
			Details:  []string{"Concurrent imports may fail with 'database is locked'"},
		})
	}

	var foreignKeys int
	database.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys)
	if foreignKeys == 1 {
		results = append(results, checkResult{Name: "foreign_keys", Category: "Database Health", Status: "ok", Message: "Foreign keys enabled"})
	} else {
		results = append(results, checkResult{
			Name:     "foreign_keys",
			Category: "Database Health",
			Status:   "error",
			Message:  "Foreign keys not enabled",
			Details:  []string{"Critical: suite and case ownership is not enforced"},
		})
	}

	var integrity string
	database.QueryRow("PRAGMA integrity_check").Scan(&integrity)
	if integrity == "ok" {
		results = append(results, checkResult{Name: "integrity_check", Category: "Database Health", Status: "ok", Message: "Database integrity check passed"})
	} else {
		results = append(results, checkResult{
			Name:     "integrity_check",
			Category: "Database Health",
			Status:   "error",
			Message:  fmt.Sprintf("Database integrity check failed: %s", integrity),
			Details:  []string{"Database may be corrupted", "Restore from backup recommended"},
		})
	}

	return results
}

func checkSchema(database *db.DB) []checkResult {
	var missing []string
	for _, table := range requiredTables {
		var count int
		err := database.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		if err != nil || count == 0 {
			missing = append(missing, table)
		}
	}
	if len(missing) > 0 {
		return []checkResult{{
			Name:     "schema_tables",
			Category: "Schema",
			Status:   "error",
			Message:  fmt.Sprintf("Missing tables: %v", missing),
			Details:  []string{"Run 'caseqadm migrate' to create missing tables"},
		}}
	}

	results := []checkResult{{
		Name:     "schema_tables",
		Category: "Schema",
		Status:   "ok",
		Message:  fmt.Sprintf("All required tables present (%d/%d)", len(requiredTables), len(requiredTables)),
	}}

	_, pending, err := database.MigrationStatus()
	switch {
	case err != nil:
		results = append(results, checkResult{Name: "migrations", Category: "Schema", Status: "error", Message: fmt.Sprintf("Failed to read migration status: %v", err)})
	case len(pending) > 0:
		results = append(results, checkResult{
			Name:     "migrations",
			Category: "Schema",
			Status:   "warning",
			Message:  fmt.Sprintf("%d pending migration(s)", len(pending)),
			Details:  pending,
		})
	default:
		results = append(results, checkResult{Name: "migrations", Category: "Schema", Status: "ok", Message: "All migrations applied"})
	}
	return results
}

// integrityQueries each count offending rows; zero means healthy.
var integrityQueries = []struct {
	name    string
	query   string
	status  string
	message string
	ok      string
}{
	{
		name:    "suite_depth",
		ok:      "Suite depths consistent",
		status:  "error",
		message: "%d suite(s) deeper than allowed or out of step with their parent",
		query: `SELECT COUNT(*) FROM suites s
			LEFT JOIN suites p ON p.uuid = s.parent_uuid
			WHERE s.depth > 4 OR (s.parent_uuid IS NOT NULL AND (p.uuid IS NULL OR s.depth <> p.depth + 1))`,
	},
	{
		name:    "suite_project",
		ok:      "Suites nested within their project",
		status:  "error",
		message: "%d suite(s) nested under a suite of another project",
		query: `SELECT COUNT(*) FROM suites s JOIN suites p ON p.uuid = s.parent_uuid
			WHERE s.project_uuid <> p.project_uuid`,
	},
	{
		name:    "case_suite_project",
		ok:      "Cases filed within their project",
		status:  "error",
		message: "%d case(s) filed under a suite of another project",
		query: `SELECT COUNT(*) FROM test_cases c JOIN suites s ON s.uuid = c.suite_uuid
			WHERE c.project_uuid <> s.project_uuid`,
	},
	{
		name:    "duplicate_cases",
		ok:      "No duplicate case titles",
		status:  "warning",
		message: "%d group(s) of cases share a suite and title",
		query: `SELECT COUNT(*) FROM (
			SELECT 1 FROM test_cases WHERE archived_at IS NULL
			GROUP BY project_uuid, COALESCE(suite_uuid, ''), lower(trim(title))
			HAVING COUNT(*) > 1)`,
	},
}

func checkCatalogIntegrity(database *db.DB) []checkResult {
	var results []checkResult
	for _, q := range integrityQueries {
		var n int
		if err := database.QueryRow(q.query).Scan(&n); err != nil {
			results = append(results, checkResult{Name: q.name, Category: "Catalog Integrity", Status: "error", Message: fmt.Sprintf("Check failed: %v", err)})
			continue
		}
		if n == 0 {
			results = append(results, checkResult{Name: q.name, Category: "Catalog Integrity", Status: "ok", Message: q.ok})
			continue
		}
		results = append(results, checkResult{Name: q.name, Category: "Catalog Integrity", Status: q.status, Message: fmt.Sprintf(q.message, n)})
	}
	return results
}

func checkSequenceDrift(database *db.DB) checkResult {
	drifts, err := database.CheckDrift()
	if err != nil {
		return checkResult{
			Name:     "sequence_drift",
			Category: "Sequences",
			Status:   "error",
			Message:  fmt.Sprintf("Failed to check friendly-ID sequences: %v", err),
		}
	}
	if len(drifts) == 0 {
		return checkResult{Name: "sequence_drift", Category: "Sequences", Status: "ok", Message: "Friendly-ID sequences are ahead of every entity"}
	}

	details := make([]string, 0, len(drifts)+1)
	for _, d := range drifts {
		details = append(details, fmt.Sprintf("%s: next ID %s collides, highest in use is %s%05d", d.Entity, d.NextID(), d.Prefix, d.HighWater))
	}
	return checkResult{
		Name:     "sequence_drift",
		Category: "Sequences",
		Status:   "error",
		Message:  fmt.Sprintf("Friendly-ID sequence behind for %d entity table(s)", len(drifts)),
		Details:  append(details, "Use --fix to repair"),
	}
}

func checkStatistics(database *db.DB) []checkResult {
	var projects, suites, cases, archived int
	database.QueryRow("SELECT COUNT(*) FROM projects WHERE archived_at IS NULL").Scan(&projects)
	database.QueryRow("SELECT COUNT(*) FROM suites WHERE archived_at IS NULL").Scan(&suites)
	database.QueryRow("SELECT COUNT(*) FROM test_cases WHERE archived_at IS NULL").Scan(&cases)
	database.QueryRow("SELECT COUNT(*) FROM test_cases WHERE archived_at IS NOT NULL").Scan(&archived)

	var pageCount, pageSize int64
	database.QueryRow("PRAGMA page_count").Scan(&pageCount)
	database.QueryRow("PRAGMA page_size").Scan(&pageSize)

	return []checkResult{
		{
			Name:     "catalog_counts",
			Category: "Statistics",
			Status:   "ok",
			Message:  fmt.Sprintf("%d projects, %d suites, %d cases (%d archived)", projects, suites, cases, archived),
		},
		{
			Name:     "database_size",
			Category: "Statistics",
			Status:   "ok",
			Message:  fmt.Sprintf("Database size: %.1f MB (%d pages)", float64(pageCount*pageSize)/(1024*1024), pageCount),
		},
	}
}

func applyFixes(database *db.DB) []string {
	repaired, err := database.RepairDrift()
	if err != nil {
		return []string{fmt.Sprintf("Sequence repair failed: %v", err)}
	}
	if len(repaired) == 0 {
		return []string{"No friendly-ID sequence drift detected"}
	}
	fixes := make([]string, 0, len(repaired))
	for _, d := range repaired {
		fixes = append(fixes, fmt.Sprintf("Advanced %s to %s%05d (%s)", d.SeqTable, d.Prefix, d.HighWater, d.Entity))
	}
	return fixes
}

func printDoctorReport(w io.Writer, binary string, report *doctorReport) {
	fmt.Fprintf(w, "%s doctor %s\n\n", binary, report.Version)
	fmt.Fprintf(w, "Database: %s\n\n", report.DBPath)

	for _, category := range doctorCategories {
		printed := false
		for _, check := range report.Checks {
			if check.Category != category {
				continue
			}
			if !printed {
				fmt.Fprintf(w, "%s\n", category)
				printed = true
			}

			icon := "✓"
			switch check.Status {
			case "warning":
				icon = "⚠"
			case "error":
				icon = "✗"
			}
			fmt.Fprintf(w, "  %s %s\n", icon, check.Message)

			if doctorAdmVerbose {
				for _, detail := range check.Details {
					fmt.Fprintf(w, "      %s\n", detail)
				}
			}
		}
		if printed {
			fmt.Fprintln(w)
		}
	}

	if len(report.Fixes) > 0 {
		fmt.Fprintln(w, "--fix results")
		for _, f := range report.Fixes {
			fmt.Fprintf(w, "  %s\n", f)
		}
		fmt.Fprintln(w)
	}

	switch {
	case report.Errors > 0:
		fmt.Fprintf(w, "Summary: %d error(s), %d warning(s)\n", report.Errors, report.Warnings)
	case report.Warnings > 0:
		fmt.Fprintf(w, "Summary: %d warning(s)\n", report.Warnings)
	default:
		fmt.Fprintln(w, "Summary: All checks passed ✓")
	}

	if !doctorAdmVerbose && (report.Warnings > 0 || report.Errors > 0) {
		fmt.Fprintln(w, "\nRun with --verbose for detailed information")
	}
}
