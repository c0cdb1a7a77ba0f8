package store

import (
	"context"
	"fmt"

	"github.com/lherron/caseq/internal/domain"
	"github.com/lherron/caseq/internal/names"
)

// DictionaryStore manages the global priority and case type vocabularies.
type DictionaryStore struct {
	store *Store
}

// AddPriority adds a priority. Names are unique ignoring case.
func (ds *DictionaryStore) AddPriority(ctx context.Context, name string, weight int) (*domain.Priority, error) {
	name = names.Clean(name)
	if name == "" {
		return nil, fmt.Errorf("priority name cannot be empty")
	}
	res, err := ds.store.db.ExecContext(ctx, `INSERT INTO priorities (name, weight) VALUES (?, ?)`, name, weight)
	if err != nil {
		return nil, fmt.Errorf("failed to add priority %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get priority ID: %w", err)
	}
	return &domain.Priority{ID: id, Name: name, Weight: weight}, nil
}

// AddCaseType adds a test case type. Names are unique ignoring case.
func (ds *DictionaryStore) AddCaseType(ctx context.Context, name string) (*domain.CaseType, error) {
	name = names.Clean(name)
	if name == "" {
		return nil, fmt.Errorf("case type name cannot be empty")
	}
	res, err := ds.store.db.ExecContext(ctx, `INSERT INTO case_types (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to add case type %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get case type ID: %w", err)
	}
	return &domain.CaseType{ID: id, Name: name}, nil
}
