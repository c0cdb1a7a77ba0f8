package importer

import (
	"context"
	"reflect"

	"github.com/lherron/caseq/internal/domain"
	"github.com/lherron/caseq/internal/names"
	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"
)

// DefaultSuiteDescription is set on suites created because a case named a
// suite the catalog did not have.
const DefaultSuiteDescription = "Created during import"

// mergeCases matches each descriptor against the catalog by owning suite and
// normalized title. New cases are inserted together once every descriptor
// has been seen.
func (m *merger) mergeCases(ctx context.Context, descs []domain.CaseDescriptor) error {
	var pending []*domain.TestCase
	inBatch := map[*domain.TestCase]bool{}

	for i := range descs {
		d := &descs[i]
		title := names.Clean(d.Title)
		if title == "" {
			m.result.Ignored++
			m.logger.Debug("ignoring case with blank title", "index", i)
			continue
		}

		suiteUUID, err := m.resolveCaseSuite(ctx, d)
		if err != nil {
			return err
		}
		incoming := m.newCase(d, title, suiteUUID)

		existing, found := m.snap.FindCase(suiteUUID, title)
		switch {
		case found && m.opts.OverwriteExisting:
			changes := changedFields(existing, incoming)
			if m.opts.Diff && len(changes) > 0 {
				m.result.Changes = append(m.result.Changes, previewChange(existing, incoming, changes))
			}
			applyContent(existing, incoming)
			if !inBatch[existing] {
				if err := m.w.UpdateCase(ctx, existing, changes); err != nil {
					return &domain.PersistenceError{Op: "update test case", Err: err}
				}
			}
			m.result.Updated++
		case found:
			m.result.Skipped++
		default:
			m.snap.RegisterCase(incoming)
			inBatch[incoming] = true
			pending = append(pending, incoming)
			m.result.Created++
		}
	}

	if err := m.w.InsertCases(ctx, pending); err != nil {
		return &domain.PersistenceError{Op: "create test cases", Err: err}
	}
	return nil
}

// resolveCaseSuite finds the owning suite: the path first, then the name.
// A case naming no suite lives at the root; a suite nobody knows is created
// as a root suite.
func (m *merger) resolveCaseSuite(ctx context.Context, d *domain.CaseDescriptor) (*string, error) {
	for _, ref := range []string{d.SuitePath, d.SuiteName} {
		if names.NormalizePath(ref) == "" {
			continue
		}
		if s, ok := m.snap.ResolveSuite(ref); ok {
			return &s.UUID, nil
		}
	}

	create := d.SuiteName
	if names.NormalizePath(create) == "" {
		create = d.SuitePath
	}
	if names.NormalizePath(create) == "" {
		return nil, nil
	}

	m.logger.Debug("creating suite named by case", "suite", create)
	s, err := m.createSuite(ctx, nil, create, DefaultSuiteDescription)
	if err != nil {
		return nil, err
	}
	return &s.UUID, nil
}

func (m *merger) newCase(d *domain.CaseDescriptor, title string, suiteUUID *string) *domain.TestCase {
	automation := d.AutomationStatus
	if automation == "" {
		automation = domain.AutomationNotAutomated
	}
	return &domain.TestCase{
		ProjectUUID:        m.snap.ProjectUUID,
		SuiteUUID:          suiteUUID,
		Title:              title,
		TypeID:             m.snap.TypeID(d.TypeID, d.TypeName),
		PriorityID:         m.snap.PriorityID(d.PriorityID, d.PriorityName),
		Preconditions:      d.Preconditions,
		Estimate:           d.Estimate,
		Status:             d.Status,
		Severity:           d.Severity,
		AutomationStatus:   automation,
		Steps:              orEmpty(d.Steps),
		Tags:               orEmpty(d.Tags),
		AutotestMapping:    orEmptyMap(d.AutotestMapping),
		Attachments:        orEmpty(d.Attachments),
		ETag:               1,
		CreatedAt:          m.now,
		UpdatedAt:          m.now,
		CreatedByActorUUID: m.opts.ActorUUID,
		UpdatedByActorUUID: m.opts.ActorUUID,
	}
}

// applyContent copies the content of src onto dst. Identity, suite
// placement, creation audit and etag are left alone.
func applyContent(dst, src *domain.TestCase) {
	dst.Title = src.Title
	dst.TypeID = src.TypeID
	dst.PriorityID = src.PriorityID
	dst.Preconditions = src.Preconditions
	dst.Estimate = src.Estimate
	dst.Status = src.Status
	dst.Severity = src.Severity
	dst.AutomationStatus = src.AutomationStatus
	dst.Steps = src.Steps
	dst.Tags = src.Tags
	dst.AutotestMapping = src.AutotestMapping
	dst.Attachments = src.Attachments
	dst.UpdatedAt = src.UpdatedAt
	dst.UpdatedByActorUUID = src.UpdatedByActorUUID
}

// caseContent is the overwritable part of a test case, in diff order
type caseContent struct {
	Title            string            `yaml:"title"`
	TypeID           *int64            `yaml:"type_id"`
	PriorityID       *int64            `yaml:"priority_id"`
	Preconditions    string            `yaml:"preconditions"`
	Estimate         string            `yaml:"estimate"`
	Status           string            `yaml:"status"`
	Severity         string            `yaml:"severity"`
	AutomationStatus string            `yaml:"automation_status"`
	Steps            []domain.Step     `yaml:"steps"`
	Tags             []string          `yaml:"tags"`
	AutotestMapping  map[string]string `yaml:"autotest_mapping"`
	Attachments      []string          `yaml:"attachments"`
}

func contentOf(tc *domain.TestCase) caseContent {
	return caseContent{
		Title:            tc.Title,
		TypeID:           tc.TypeID,
		PriorityID:       tc.PriorityID,
		Preconditions:    tc.Preconditions,
		Estimate:         tc.Estimate,
		Status:           tc.Status,
		Severity:         tc.Severity,
		AutomationStatus: string(tc.AutomationStatus),
		Steps:            orEmpty(tc.Steps),
		Tags:             orEmpty(tc.Tags),
		AutotestMapping:  orEmptyMap(tc.AutotestMapping),
		Attachments:      orEmpty(tc.Attachments),
	}
}

// changedFields lists the content fields that differ, by column name
func changedFields(current, incoming *domain.TestCase) []string {
	a, b := contentOf(current), contentOf(incoming)
	var changes []string
	check := func(field string, x, y any) {
		if !reflect.DeepEqual(x, y) {
			changes = append(changes, field)
		}
	}
	check("title", a.Title, b.Title)
	check("type_id", a.TypeID, b.TypeID)
	check("priority_id", a.PriorityID, b.PriorityID)
	check("preconditions", a.Preconditions, b.Preconditions)
	check("estimate", a.Estimate, b.Estimate)
	check("status", a.Status, b.Status)
	check("severity", a.Severity, b.Severity)
	check("automation_status", a.AutomationStatus, b.AutomationStatus)
	check("steps", a.Steps, b.Steps)
	check("tags", a.Tags, b.Tags)
	check("autotest_mapping", a.AutotestMapping, b.AutotestMapping)
	check("attachments", a.Attachments, b.Attachments)
	return changes
}

// previewChange renders current and incoming content as YAML and diffs them
func previewChange(current, incoming *domain.TestCase, changes []string) CaseChange {
	change := CaseChange{CaseID: current.ID, Title: current.Title, Fields: changes}

	from, errA := yaml.Marshal(contentOf(current))
	to, errB := yaml.Marshal(contentOf(incoming))
	if errA != nil || errB != nil {
		return change
	}
	label := current.ID
	if label == "" {
		label = current.Title
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(from)),
		B:        difflib.SplitLines(string(to)),
		FromFile: label + " (current)",
		ToFile:   label + " (incoming)",
		Context:  3,
	}
	if text, err := difflib.GetUnifiedDiffString(diff); err == nil {
		change.Diff = text
	}
	return change
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func orEmptyMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
