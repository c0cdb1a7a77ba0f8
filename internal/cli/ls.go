package cli

import (
	"sort"
	"strings"

	"github.com/lherron/caseq/internal/cli/appctx"
	"github.com/lherron/caseq/internal/domain"
	"github.com/lherron/caseq/internal/names"
	"github.com/lherron/caseq/internal/render"
	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List test cases of a project",
	Long: `Lists the test cases of a project ordered by suite path, then title.

--suite filters by suite path and accepts globs: * and ? match within one
level, ** matches any number of levels. Matching ignores case.

Examples:
  caseq ls --project checkout
  caseq ls --project checkout --suite 'UI/**'
  caseq ls --project checkout --suite '*/Sync' -o tsv`,
	Args: cobra.NoArgs,
	RunE: appctx.WithApp(appctx.DefaultOptions(), runLs),
}

var (
	lsProject string
	lsSuite   string
	lsJSON    bool
)

func init() {
	rootCmd.AddCommand(lsCmd)

	lsCmd.Flags().StringVarP(&lsProject, "project", "p", "", "Project (slug, friendly ID or UUID)")
	lsCmd.Flags().StringVar(&lsSuite, "suite", "", "Only cases whose suite path matches this glob")
	lsCmd.Flags().BoolVar(&lsJSON, "json", false, "Output as JSON")
}

type caseRow struct {
	ID         string `json:"id" yaml:"id"`
	Suite      string `json:"suite" yaml:"suite"`
	Title      string `json:"title" yaml:"title"`
	Priority   string `json:"priority,omitempty" yaml:"priority,omitempty"`
	Type       string `json:"type,omitempty" yaml:"type,omitempty"`
	Automation string `json:"automation" yaml:"automation"`
	ETag       int64  `json:"etag" yaml:"etag"`
}

func runLs(app *appctx.App, cmd *cobra.Command, args []string) error {
	ctx := appctx.Context(cmd)
	p, err := resolveProject(app, cmd, lsProject)
	if err != nil {
		return err
	}

	cat := app.Store.Catalog()
	suites, err := cat.ListSuites(ctx, p.UUID)
	if err != nil {
		return err
	}
	cases, err := cat.ListCases(ctx, p.UUID)
	if err != nil {
		return err
	}
	priorities, err := cat.ListPriorities(ctx)
	if err != nil {
		return err
	}
	types, err := cat.ListCaseTypes(ctx)
	if err != nil {
		return err
	}

	priorityNames := make(map[int64]string, len(priorities))
	for _, pr := range priorities {
		priorityNames[pr.ID] = pr.Name
	}
	typeNames := make(map[int64]string, len(types))
	for _, t := range types {
		typeNames[t.ID] = t.Name
	}

	paths := suitePaths(suites)
	rows := []caseRow{}
	for _, tc := range cases {
		suite := ""
		if tc.SuiteUUID != nil {
			suite = paths[*tc.SuiteUUID]
		}
		if lsSuite != "" && !names.MatchGlob(lsSuite, suite) {
			continue
		}
		rows = append(rows, caseRow{
			ID:         tc.ID,
			Suite:      suite,
			Title:      tc.Title,
			Priority:   lookupName(priorityNames, tc.PriorityID),
			Type:       lookupName(typeNames, tc.TypeID),
			Automation: string(tc.AutomationStatus),
			ETag:       tc.ETag,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		si, sj := names.NormalizePath(rows[i].Suite), names.NormalizePath(rows[j].Suite)
		if si != sj {
			return si < sj
		}
		return names.Normalize(rows[i].Title) < names.Normalize(rows[j].Title)
	})

	r, err := newRenderer(app, cmd)
	if err != nil {
		return err
	}
	t := render.Table{Headers: []string{"ID", "Suite", "Title", "Priority", "Type", "Automation"}}
	for _, row := range rows {
		t.Rows = append(t.Rows, []string{row.ID, row.Suite, row.Title, row.Priority, row.Type, row.Automation})
	}
	return r.Render(rows, t)
}

// suitePaths maps suite UUIDs to display paths. A suite whose parent is
// missing from the list gets its bare name.
func suitePaths(suites []*domain.Suite) map[string]string {
	byUUID := make(map[string]*domain.Suite, len(suites))
	for _, s := range suites {
		byUUID[s.UUID] = s
	}

	paths := make(map[string]string, len(suites))
	var pathOf func(s *domain.Suite, seen int) string
	pathOf = func(s *domain.Suite, seen int) string {
		if p, ok := paths[s.UUID]; ok {
			return p
		}
		p := s.Name
		if s.ParentUUID != nil && seen <= domain.MaxSuiteDepth {
			if parent := byUUID[*s.ParentUUID]; parent != nil {
				p = pathOf(parent, seen+1) + names.Separator + s.Name
			}
		}
		paths[s.UUID] = p
		return p
	}
	for _, s := range suites {
		pathOf(s, 0)
	}
	return paths
}

func lookupName(m map[int64]string, id *int64) string {
	if id == nil {
		return ""
	}
	return strings.TrimSpace(m[*id])
}
