// Package catalog builds the in-memory view of a project that an import
// reconciles against.
package catalog

import (
	"context"
	"fmt"

	"github.com/lherron/caseq/internal/domain"
	"github.com/lherron/caseq/internal/names"
)

// Source reads the persisted catalog. It is satisfied by store.Catalog and store.Tx.
type Source interface {
	ListSuites(ctx context.Context, projectUUID string) ([]*domain.Suite, error)
	ListCases(ctx context.Context, projectUUID string) ([]*domain.TestCase, error)
	ListPriorities(ctx context.Context) ([]domain.Priority, error)
	ListCaseTypes(ctx context.Context) ([]domain.CaseType, error)
}

// SuiteRef locates a known suite. Path is its normalized full path key.
type SuiteRef struct {
	UUID  string
	Depth int
	Path  string
}

// CaseKey identifies a case for duplicate detection: owning suite UUID
// (names.RootParent for root cases) plus normalized title.
type CaseKey struct {
	Suite string
	Title string
}

// NewCaseKey builds the duplicate-detection key for a case
func NewCaseKey(suiteUUID *string, title string) CaseKey {
	suite := names.RootParent
	if suiteUUID != nil {
		suite = *suiteUUID
	}
	return CaseKey{Suite: suite, Title: names.Normalize(title)}
}

// Snapshot is one project's catalog as seen by a single import. Suites are
// indexed three ways: by parent-qualified key (parent UUID + name), by full
// path key, and by bare name where the first registrant wins. Every map is
// non-nil.
type Snapshot struct {
	ProjectUUID string

	Cases map[CaseKey]*domain.TestCase

	suitesByParent map[string]SuiteRef
	suitesByPath   map[string]SuiteRef
	suitesByName   map[string]SuiteRef

	Priorities    map[string]int64
	Types         map[string]int64
	PriorityNames map[int64]string
	TypeNames     map[int64]string
}

// New returns an empty snapshot
func New(projectUUID string) *Snapshot {
	return &Snapshot{
		ProjectUUID:    projectUUID,
		Cases:          map[CaseKey]*domain.TestCase{},
		suitesByParent: map[string]SuiteRef{},
		suitesByPath:   map[string]SuiteRef{},
		suitesByName:   map[string]SuiteRef{},
		Priorities:     map[string]int64{},
		Types:          map[string]int64{},
		PriorityNames:  map[int64]string{},
		TypeNames:      map[int64]string{},
	}
}

// Load reads the project's non-archived suites and cases plus both
// dictionaries in one pass.
func Load(ctx context.Context, src Source, projectUUID string) (*Snapshot, error) {
	snap := New(projectUUID)

	suites, err := src.ListSuites(ctx, projectUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to load suites: %w", err)
	}
	// Suites arrive ordered by depth, so a parent's path is known before its children.
	paths := make(map[string]string, len(suites))
	for _, s := range suites {
		path := ""
		if s.ParentUUID == nil {
			path = names.Normalize(s.Name)
		} else if parentPath, ok := paths[*s.ParentUUID]; ok {
			path = names.ChildPath(parentPath, s.Name)
		}
		paths[s.UUID] = path
		snap.RegisterSuite(s, path)
	}

	cases, err := src.ListCases(ctx, projectUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to load test cases: %w", err)
	}
	for _, tc := range cases {
		key := NewCaseKey(tc.SuiteUUID, tc.Title)
		if _, exists := snap.Cases[key]; !exists {
			snap.Cases[key] = tc
		}
	}

	priorities, err := src.ListPriorities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load priorities: %w", err)
	}
	for _, p := range priorities {
		snap.Priorities[names.Normalize(p.Name)] = p.ID
		snap.PriorityNames[p.ID] = p.Name
	}

	types, err := src.ListCaseTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load case types: %w", err)
	}
	for _, t := range types {
		snap.Types[names.Normalize(t.Name)] = t.ID
		snap.TypeNames[t.ID] = t.Name
	}

	return snap, nil
}

// RegisterSuite indexes a suite under its parent-qualified key, its path key
// (when path is non-empty) and its bare name if no earlier suite holds it.
func (s *Snapshot) RegisterSuite(suite *domain.Suite, path string) SuiteRef {
	ref := SuiteRef{UUID: suite.UUID, Depth: suite.Depth, Path: path}

	s.suitesByParent[names.ParentKey(suite.ParentUUID, suite.Name)] = ref
	if path != "" {
		if _, exists := s.suitesByPath[path]; !exists {
			s.suitesByPath[path] = ref
		}
	}
	name := names.Normalize(suite.Name)
	if _, exists := s.suitesByName[name]; !exists {
		s.suitesByName[name] = ref
	}
	return ref
}

// SuiteByParent finds a suite by its parent and name
func (s *Snapshot) SuiteByParent(parentUUID *string, name string) (SuiteRef, bool) {
	ref, ok := s.suitesByParent[names.ParentKey(parentUUID, name)]
	return ref, ok
}

// SuiteByPath finds a suite by its normalized full path key
func (s *Snapshot) SuiteByPath(pathKey string) (SuiteRef, bool) {
	ref, ok := s.suitesByPath[pathKey]
	return ref, ok
}

// HasSuiteName reports whether any suite holds the bare name key
func (s *Snapshot) HasSuiteName(name string) bool {
	_, ok := s.suitesByName[names.Normalize(name)]
	return ok
}

// ResolveSuite resolves a case's suite reference, which may be a path or a
// simple name: full path first, then bare name.
func (s *Snapshot) ResolveSuite(ref string) (SuiteRef, bool) {
	key := names.NormalizePath(ref)
	if key == "" {
		return SuiteRef{}, false
	}
	if r, ok := s.suitesByPath[key]; ok {
		return r, true
	}
	r, ok := s.suitesByName[key]
	return r, ok
}

// SuiteCount returns the number of distinct suites known to the snapshot
func (s *Snapshot) SuiteCount() int {
	return len(s.suitesByParent)
}

// FindCase looks up a case by owning suite and title
func (s *Snapshot) FindCase(suiteUUID *string, title string) (*domain.TestCase, bool) {
	tc, ok := s.Cases[NewCaseKey(suiteUUID, title)]
	return tc, ok
}

// RegisterCase makes a case visible to later lookups in the same import
func (s *Snapshot) RegisterCase(tc *domain.TestCase) {
	s.Cases[NewCaseKey(tc.SuiteUUID, tc.Title)] = tc
}

// PriorityID resolves a priority: a known id wins, then the name, else nil
func (s *Snapshot) PriorityID(id *int64, name string) *int64 {
	return resolveDictionary(id, name, s.PriorityNames, s.Priorities)
}

// TypeID resolves a case type: a known id wins, then the name, else nil
func (s *Snapshot) TypeID(id *int64, name string) *int64 {
	return resolveDictionary(id, name, s.TypeNames, s.Types)
}

func resolveDictionary(id *int64, name string, byID map[int64]string, byName map[string]int64) *int64 {
	if id != nil {
		if _, ok := byID[*id]; ok {
			v := *id
			return &v
		}
	}
	if v, ok := byName[names.Normalize(name)]; ok {
		return &v
	}
	return nil
}
