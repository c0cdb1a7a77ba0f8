// Package testutil holds helpers shared by package tests that need a real,
// migrated catalog database.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/lherron/caseq/internal/db"
	"github.com/lherron/caseq/internal/domain"
	"github.com/lherron/caseq/internal/store"
)

// TempDB creates a migrated SQLite database in a temporary directory
func TempDB(t *testing.T) *db.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")

	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	if err := database.Migrate(); err != nil {
		database.Close()
		t.Fatalf("Failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		database.Close()
	})

	return database
}

// Fixture is a store with one actor and one project ready for imports
type Fixture struct {
	Store   *store.Store
	Actor   *domain.Actor
	Project *domain.Project
}

// NewFixture creates a temporary store seeded with actor "tester" and
// project "demo".
func NewFixture(t *testing.T) *Fixture {
	t.Helper()

	s := store.New(TempDB(t))
	ctx := context.Background()

	actor, err := s.Actors.Create(ctx, "tester", "Tester", "human")
	if err != nil {
		t.Fatalf("Failed to create actor: %v", err)
	}
	project, err := s.Projects.Create(ctx, actor.UUID, "demo", "Demo")
	if err != nil {
		t.Fatalf("Failed to create project: %v", err)
	}

	return &Fixture{Store: s, Actor: actor, Project: project}
}

// WriteFile writes content to a file in dir and returns its path
func WriteFile(t *testing.T, dir, filename, content string) string {
	t.Helper()
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
	return path
}

// ReadFile reads content from a file
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(data)
}
