// Package export serializes a project's catalog into the payload document
// that the payload importer reads back.
package export

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/lherron/caseq/internal/catalog"
	"github.com/lherron/caseq/internal/domain"
	"github.com/lherron/caseq/internal/names"
	"github.com/lherron/caseq/internal/payload"
)

// ContentType is the media type of an export
const ContentType = "application/json"

// Source reads what an export needs. store.Catalog satisfies it.
type Source interface {
	catalog.Source
	ResolveProject(ctx context.Context, ref string) (*domain.Project, error)
}

// Export is an encoded project export
type Export struct {
	Document    *payload.Document
	Data        []byte
	Checksum    string
	FileName    string
	ContentType string
}

// Build exports the project's non-archived suites and cases. Suites come
// parent first, then by path; cases by suite path, then title.
func Build(ctx context.Context, src Source, project string, now time.Time) (*Export, error) {
	p, err := src.ResolveProject(ctx, project)
	if err != nil {
		return nil, err
	}

	suites, err := src.ListSuites(ctx, p.UUID)
	if err != nil {
		return nil, err
	}
	cases, err := src.ListCases(ctx, p.UUID)
	if err != nil {
		return nil, err
	}
	priorities, err := src.ListPriorities(ctx)
	if err != nil {
		return nil, err
	}
	types, err := src.ListCaseTypes(ctx)
	if err != nil {
		return nil, err
	}

	paths := suitePaths(suites)
	now = now.UTC().Truncate(time.Second)
	hierarchical := true
	doc := &payload.Document{
		Version:      payload.Version,
		ProjectID:    p.ID,
		ExportedAt:   &now,
		Total:        len(cases),
		Hierarchical: &hierarchical,
		Suites:       suiteEntries(suites, paths),
		Cases:        caseEntries(cases, paths, priorityNames(priorities), typeNames(types)),
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}
	sum := sha256.Sum256(data)

	return &Export{
		Document:    doc,
		Data:        data,
		Checksum:    hex.EncodeToString(sum[:]),
		FileName:    FileName(p.ID, now),
		ContentType: ContentType,
	}, nil
}

// FileName suggests a file name for an export of the project taken at t
func FileName(projectID string, t time.Time) string {
	return fmt.Sprintf("caseq-%s-%s.json", projectID, t.UTC().Format("20060102-150405"))
}

// suitePaths maps each suite UUID to its display path. Suites arrive
// ordered by depth, so parents resolve first. A suite whose parent is not
// exported is treated as a root.
func suitePaths(suites []*domain.Suite) map[string][]string {
	paths := make(map[string][]string, len(suites))
	for _, s := range suites {
		var parent []string
		if s.ParentUUID != nil {
			parent = paths[*s.ParentUUID]
		}
		paths[s.UUID] = append(append([]string(nil), parent...), s.Name)
	}
	return paths
}

func suiteEntries(suites []*domain.Suite, paths map[string][]string) []payload.SuiteEntry {
	sorted := append([]*domain.Suite(nil), suites...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := paths[sorted[i].UUID], paths[sorted[j].UUID]
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return lessPath(a, b)
	})

	entries := make([]payload.SuiteEntry, 0, len(sorted))
	for _, s := range sorted {
		path := paths[s.UUID]
		entries = append(entries, payload.SuiteEntry{
			Name:        s.Name,
			Description: s.Description,
			ParentName:  names.JoinPath(path[:len(path)-1]...),
		})
	}
	return entries
}

func caseEntries(cases []*domain.TestCase, paths map[string][]string, priorities, types map[int64]string) []payload.CaseEntry {
	suitePath := func(tc *domain.TestCase) []string {
		if tc.SuiteUUID == nil {
			return nil
		}
		return paths[*tc.SuiteUUID]
	}

	sorted := append([]*domain.TestCase(nil), cases...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := suitePath(sorted[i]), suitePath(sorted[j])
		if !equalPath(a, b) {
			return lessPath(a, b)
		}
		ta, tb := names.Normalize(sorted[i].Title), names.Normalize(sorted[j].Title)
		if ta != tb {
			return ta < tb
		}
		return sorted[i].ID < sorted[j].ID
	})

	entries := make([]payload.CaseEntry, 0, len(sorted))
	for _, tc := range sorted {
		entry := payload.CaseEntry{
			Title:            tc.Title,
			SuiteName:        names.JoinPath(suitePath(tc)...),
			TypeID:           tc.TypeID,
			PriorityID:       tc.PriorityID,
			Steps:            tc.Steps,
			Tags:             tc.Tags,
			AutotestMapping:  tc.AutotestMapping,
			Preconditions:    tc.Preconditions,
			Estimate:         tc.Estimate,
			Status:           tc.Status,
			Severity:         tc.Severity,
			AutomationStatus: string(tc.AutomationStatus),
			Attachments:      tc.Attachments,
		}
		if tc.TypeID != nil {
			entry.TypeName = types[*tc.TypeID]
		}
		if tc.PriorityID != nil {
			entry.PriorityName = priorities[*tc.PriorityID]
		}
		entries = append(entries, entry)
	}
	return entries
}

func lessPath(a, b []string) bool {
	return strings.Join(normalized(a), "\x00") < strings.Join(normalized(b), "\x00")
}

func equalPath(a, b []string) bool {
	return strings.Join(normalized(a), "\x00") == strings.Join(normalized(b), "\x00")
}

func normalized(path []string) []string {
	out := make([]string, len(path))
	for i, seg := range path {
		out[i] = names.Normalize(seg)
	}
	return out
}

func priorityNames(priorities []domain.Priority) map[int64]string {
	m := make(map[int64]string, len(priorities))
	for _, p := range priorities {
		m[p.ID] = p.Name
	}
	return m
}

func typeNames(types []domain.CaseType) map[int64]string {
	m := make(map[int64]string, len(types))
	for _, t := range types {
		m[t.ID] = t.Name
	}
	return m
}
