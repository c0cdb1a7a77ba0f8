// Package convert flattens a parsed TestRail tree into suite and case
// descriptors, applying the import's naming, step, tag and classification rules.
package convert

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/lherron/caseq/internal/domain"
	"github.com/lherron/caseq/internal/logging"
	"github.com/lherron/caseq/internal/names"
	"github.com/lherron/caseq/internal/testrail"
)

// Converter turns testrail trees into import batches
type Converter struct {
	virtualRoots map[string]bool
	logger       *slog.Logger
}

// New returns a converter that treats the given top-level section names as
// transparent wrappers. The export's <suite> root is always transparent.
func New(virtualRoots []string) *Converter {
	roots := make(map[string]bool, len(virtualRoots))
	for _, name := range virtualRoots {
		if k := names.Normalize(name); k != "" {
			roots[k] = true
		}
	}
	return &Converter{virtualRoots: roots, logger: logging.New("convert")}
}

type frame struct {
	section *testrail.Section
	// path holds the display names of the section's ancestors
	path []string
}

// Convert walks the tree in document pre-order with an explicit stack.
func (c *Converter) Convert(tree *testrail.Tree) (*domain.Batch, error) {
	if tree == nil {
		return nil, fmt.Errorf("convert: nil tree")
	}
	batch := &domain.Batch{Hierarchical: true}

	for _, tc := range tree.Cases {
		c.addCase(batch, tc, nil)
	}

	stack := pushSections(nil, tree.Sections, nil)
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		name := names.Clean(f.section.Name)
		if name == "" {
			c.logger.Debug("skipping section with blank name", "parent", names.JoinPath(f.path...))
			continue
		}

		if len(f.path) == 0 && c.virtualRoots[names.Normalize(name)] {
			for _, tc := range f.section.Cases {
				c.addCase(batch, tc, nil)
			}
			stack = pushSections(stack, f.section.Sections, nil)
			continue
		}

		batch.Suites = append(batch.Suites, domain.SuiteDescriptor{
			Name:        name,
			Description: strings.TrimSpace(f.section.Description),
			ParentPath:  names.JoinPath(f.path...),
		})

		path := append(append([]string(nil), f.path...), name)
		for _, tc := range f.section.Cases {
			c.addCase(batch, tc, path)
		}
		stack = pushSections(stack, f.section.Sections, path)
	}

	return batch, nil
}

// pushSections pushes children in reverse so they pop in document order.
func pushSections(stack []frame, sections []*testrail.Section, path []string) []frame {
	for i := len(sections) - 1; i >= 0; i-- {
		stack = append(stack, frame{section: sections[i], path: path})
	}
	return stack
}

func (c *Converter) addCase(batch *domain.Batch, tc *testrail.Case, path []string) {
	d := domain.CaseDescriptor{
		Title:            names.Clean(tc.Title),
		TypeName:         NormalizeType(tc.Type),
		PriorityName:     NormalizePriority(tc.Priority),
		Steps:            ExtractSteps(tc.Custom["steps"], tc.Custom["expected"]),
		Tags:             c.tags(tc),
		AutotestMapping:  autotestMapping(tc.Custom),
		Preconditions:    strings.TrimSpace(tc.Custom["preconds"]),
		Estimate:         strings.TrimSpace(tc.Estimate),
		AutomationStatus: InferAutomation(tc.Custom),
	}
	if len(d.Steps) == 0 {
		d.Steps = separatedSteps(tc.StepsSeparated)
	}
	if len(path) > 0 {
		d.SuiteName = path[len(path)-1]
		d.SuitePath = names.JoinPath(path...)
	}
	batch.Cases = append(batch.Cases, d)
}

func (c *Converter) tags(tc *testrail.Case) []string {
	tags, dropped := SplitTags(tc.References)
	if dropped > 0 {
		c.logger.Warn("dropped tags over limit", "case", tc.Title, "dropped", dropped)
	}
	return tags
}

func separatedSteps(src []testrail.SeparatedStep) []domain.Step {
	var steps []domain.Step
	for _, s := range src {
		step := domain.Step{
			Action:   strings.TrimSpace(s.Content),
			Expected: strings.TrimSpace(s.Expected),
			Notes:    strings.TrimSpace(s.AdditionalInfo),
		}
		if step != (domain.Step{}) {
			steps = append(steps, step)
		}
	}
	return steps
}

func autotestMapping(custom map[string]string) map[string]string {
	mapping := map[string]string{}
	if class := strings.TrimSpace(custom["test_class"]); class != "" {
		mapping["testClass"] = class
	}
	if method := strings.TrimSpace(custom["test_method"]); method != "" {
		mapping["testMethod"] = method
	}
	return mapping
}
