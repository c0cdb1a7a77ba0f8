// Package payload defines the generic suite and case document used for
// JSON/YAML imports and for exports, and converts it into import batches.
package payload

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/lherron/caseq/internal/domain"
	"github.com/lherron/caseq/internal/names"
	"github.com/lherron/caseq/internal/source"
	"gopkg.in/yaml.v3"
)

// Version is the document version written by exports
const Version = 1

// Document is the payload shape shared by import and export
type Document struct {
	Version      int          `json:"version" yaml:"version"`
	ProjectID    string       `json:"projectId,omitempty" yaml:"projectId,omitempty"`
	ExportedAt   *time.Time   `json:"exportedAt,omitempty" yaml:"exportedAt,omitempty"`
	Total        int          `json:"total" yaml:"total"`
	Hierarchical *bool        `json:"hierarchical,omitempty" yaml:"hierarchical,omitempty"`
	Suites       []SuiteEntry `json:"suites" yaml:"suites"`
	Cases        []CaseEntry  `json:"cases" yaml:"cases"`
}

// SuiteEntry is one suite. ParentName is the parent's full path.
type SuiteEntry struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	ParentName  string `json:"parentName,omitempty" yaml:"parentName,omitempty"`
}

// CaseEntry is one test case. SuiteName is a simple name or a full path.
type CaseEntry struct {
	Title            string            `json:"title" yaml:"title"`
	SuiteName        string            `json:"suiteName,omitempty" yaml:"suiteName,omitempty"`
	TypeName         string            `json:"typeName,omitempty" yaml:"typeName,omitempty"`
	TypeID           *int64            `json:"typeId,omitempty" yaml:"typeId,omitempty"`
	PriorityName     string            `json:"priorityName,omitempty" yaml:"priorityName,omitempty"`
	PriorityID       *int64            `json:"priorityId,omitempty" yaml:"priorityId,omitempty"`
	Steps            []domain.Step     `json:"steps,omitempty" yaml:"steps,omitempty"`
	Tags             []string          `json:"tags,omitempty" yaml:"tags,omitempty"`
	AutotestMapping  map[string]string `json:"autotestMapping,omitempty" yaml:"autotestMapping,omitempty"`
	Preconditions    string            `json:"preconditions,omitempty" yaml:"preconditions,omitempty"`
	Estimate         string            `json:"estimate,omitempty" yaml:"estimate,omitempty"`
	Status           string            `json:"status,omitempty" yaml:"status,omitempty"`
	Severity         string            `json:"severity,omitempty" yaml:"severity,omitempty"`
	AutomationStatus string            `json:"automationStatus,omitempty" yaml:"automationStatus,omitempty"`
	Attachments      []string          `json:"attachments,omitempty" yaml:"attachments,omitempty"`
}

// Decode parses a JSON or YAML document. A top-level sequence is read as a
// bare list of cases.
func Decode(data []byte, format source.Format) (*Document, error) {
	var (
		doc   Document
		cases []CaseEntry
		err   error
	)

	switch format {
	case source.FormatJSON:
		if isSequence(data) {
			err = json.Unmarshal(data, &cases)
		} else {
			err = json.Unmarshal(data, &doc)
		}
	case source.FormatYAML:
		var probe yaml.Node
		if err = yaml.Unmarshal(data, &probe); err == nil && len(probe.Content) > 0 && probe.Content[0].Kind == yaml.SequenceNode {
			err = probe.Decode(&cases)
		} else if err == nil {
			err = yaml.Unmarshal(data, &doc)
		}
	default:
		return nil, &domain.ParseError{Format: "payload", Err: fmt.Errorf("unsupported payload format %q", format)}
	}
	if err != nil {
		return nil, &domain.ParseError{Format: string(format), Err: err}
	}

	if cases != nil {
		doc = Document{Cases: cases}
	}
	if doc.Version > Version {
		return nil, &domain.ParseError{Format: string(format), Err: fmt.Errorf("unsupported payload version %d", doc.Version)}
	}
	return &doc, nil
}

func isSequence(data []byte) bool {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}

// IsHierarchical reports whether suites should be reconciled as a tree:
// the explicit flag when present, otherwise whether any suite names a parent.
func (d *Document) IsHierarchical() bool {
	if d.Hierarchical != nil {
		return *d.Hierarchical
	}
	for _, s := range d.Suites {
		if names.Clean(s.ParentName) != "" {
			return true
		}
	}
	return false
}

// Batch converts the document into import descriptors
func (d *Document) Batch() *domain.Batch {
	batch := &domain.Batch{
		Hierarchical: d.IsHierarchical(),
		Suites:       make([]domain.SuiteDescriptor, 0, len(d.Suites)),
		Cases:        make([]domain.CaseDescriptor, 0, len(d.Cases)),
	}

	for _, s := range d.Suites {
		batch.Suites = append(batch.Suites, domain.SuiteDescriptor{
			Name:        names.Clean(s.Name),
			Description: s.Description,
			ParentPath:  names.JoinPath(names.SplitPath(s.ParentName)...),
		})
	}

	for _, c := range d.Cases {
		automation := domain.AutomationStatus(c.AutomationStatus)
		if domain.ValidateAutomationStatus(c.AutomationStatus) != nil {
			automation = domain.AutomationNotAutomated
		}
		batch.Cases = append(batch.Cases, domain.CaseDescriptor{
			Title:            names.Clean(c.Title),
			SuiteName:        c.SuiteName,
			TypeName:         c.TypeName,
			TypeID:           c.TypeID,
			PriorityName:     c.PriorityName,
			PriorityID:       c.PriorityID,
			Steps:            c.Steps,
			Tags:             capTags(c.Tags),
			AutotestMapping:  c.AutotestMapping,
			Attachments:      c.Attachments,
			Preconditions:    c.Preconditions,
			Estimate:         c.Estimate,
			Status:           c.Status,
			Severity:         c.Severity,
			AutomationStatus: automation,
		})
	}
	return batch
}

// Parse decodes data and converts it into a batch
func Parse(data []byte, format source.Format) (*domain.Batch, error) {
	doc, err := Decode(data, format)
	if err != nil {
		return nil, err
	}
	return doc.Batch(), nil
}

func capTags(tags []string) []string {
	var out []string
	for _, tag := range tags {
		tag = names.Clean(tag)
		if tag == "" || len([]rune(tag)) > domain.MaxTagLength {
			continue
		}
		if len(out) == domain.MaxTags {
			break
		}
		out = append(out, tag)
	}
	return out
}
