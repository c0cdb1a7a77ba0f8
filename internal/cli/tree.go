package cli

import (
	"fmt"
	"sort"

	"github.com/lherron/caseq/internal/cli/appctx"
	"github.com/lherron/caseq/internal/domain"
	"github.com/lherron/caseq/internal/names"
	"github.com/lherron/caseq/internal/render"
	"github.com/spf13/cobra"
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Display a project's suites as a tree",
	Long: `Displays the suite tree of a project with the number of test cases held
directly by each suite. Cases without a suite are counted under the project.

Examples:
  caseq tree --project checkout
  caseq tree --project checkout -L 2       # Limit depth to 2 levels
  caseq tree --project checkout --cases    # List case titles as leaves
  caseq tree --project checkout --json`,
	Args: cobra.NoArgs,
	RunE: appctx.WithApp(appctx.DefaultOptions(), runTree),
}

var (
	treeProject string
	treeDepth   int
	treeCases   bool
	treeJSON    bool
)

func init() {
	rootCmd.AddCommand(treeCmd)

	treeCmd.Flags().StringVarP(&treeProject, "project", "p", "", "Project (slug, friendly ID or UUID)")
	treeCmd.Flags().IntVarP(&treeDepth, "level", "L", 0, "Maximum depth to display (0 = unlimited)")
	treeCmd.Flags().BoolVar(&treeCases, "cases", false, "Show test case titles")
	treeCmd.Flags().BoolVar(&treeJSON, "json", false, "Output as JSON")
}

type suiteNode struct {
	ID       string       `json:"id" yaml:"id"`
	Name     string       `json:"name" yaml:"name"`
	Path     string       `json:"path" yaml:"path"`
	Cases    int          `json:"cases" yaml:"cases"`
	Titles   []string     `json:"titles,omitempty" yaml:"titles,omitempty"`
	Children []*suiteNode `json:"children,omitempty" yaml:"children,omitempty"`
}

type projectTree struct {
	Project    string       `json:"project" yaml:"project"`
	Suites     []*suiteNode `json:"suites" yaml:"suites"`
	LooseCases int          `json:"loose_cases" yaml:"loose_cases"`
}

func runTree(app *appctx.App, cmd *cobra.Command, args []string) error {
	ctx := appctx.Context(cmd)
	p, err := resolveProject(app, cmd, treeProject)
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

	tree := buildProjectTree(p, suites, cases, treeDepth, treeCases)

	r, err := newRenderer(app, cmd)
	if err != nil {
		return err
	}
	if r.Structured() {
		return r.Render(tree, render.Table{})
	}

	root := &render.TreeNode{Label: fmt.Sprintf("%s (%s)", p.Name, p.ID)}
	if tree.LooseCases > 0 {
		root.Label += fmt.Sprintf(" [%d without suite]", tree.LooseCases)
	}
	for _, s := range tree.Suites {
		root.Children = append(root.Children, toRenderNode(s))
	}
	return r.RenderTree([]*render.TreeNode{root})
}

// buildProjectTree nests suites under their parents. Siblings are sorted by
// name; suites whose parent is missing are shown at the top level.
func buildProjectTree(p *domain.Project, suites []*domain.Suite, cases []*domain.TestCase, maxDepth int, withTitles bool) *projectTree {
	nodes := make(map[string]*suiteNode, len(suites))
	for _, s := range suites {
		nodes[s.UUID] = &suiteNode{ID: s.ID, Name: s.Name}
	}

	tree := &projectTree{Project: p.ID, Suites: []*suiteNode{}}
	for _, tc := range cases {
		if tc.SuiteUUID == nil || nodes[*tc.SuiteUUID] == nil {
			tree.LooseCases++
			continue
		}
		n := nodes[*tc.SuiteUUID]
		n.Cases++
		if withTitles {
			n.Titles = append(n.Titles, tc.Title)
		}
	}

	for _, s := range suites {
		n := nodes[s.UUID]
		if s.ParentUUID != nil && nodes[*s.ParentUUID] != nil {
			parent := nodes[*s.ParentUUID]
			parent.Children = append(parent.Children, n)
		} else {
			tree.Suites = append(tree.Suites, n)
		}
	}

	sortNodes(tree.Suites, "", 1, maxDepth)
	return tree
}

func sortNodes(nodes []*suiteNode, parentPath string, level, maxDepth int) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return names.Normalize(nodes[i].Name) < names.Normalize(nodes[j].Name)
	})
	for _, n := range nodes {
		n.Path = names.JoinPath(append(names.SplitPath(parentPath), n.Name)...)
		sort.Strings(n.Titles)
		if maxDepth > 0 && level >= maxDepth {
			n.Children = nil
			continue
		}
		sortNodes(n.Children, n.Path, level+1, maxDepth)
	}
}

func toRenderNode(n *suiteNode) *render.TreeNode {
	label := fmt.Sprintf("%s (%s)", n.Name, n.ID)
	if n.Cases > 0 {
		label += fmt.Sprintf(" [%d]", n.Cases)
	}
	out := &render.TreeNode{Label: label}
	for _, c := range n.Children {
		out.Children = append(out.Children, toRenderNode(c))
	}
	for _, t := range n.Titles {
		out.Children = append(out.Children, &render.TreeNode{Label: t})
	}
	return out
}
