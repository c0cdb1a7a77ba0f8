package db

import (
	"path/filepath"
	"testing"
)

func openMigrated(t *testing.T) *DB {
	t.Helper()
	database, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := database.Migrate(); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	mustExec(t, database, `INSERT INTO actors (uuid, slug, role) VALUES ('a1', 'importer', 'system')`)
	mustExec(t, database, `INSERT INTO projects (uuid, slug, name, created_by_actor_uuid) VALUES ('p1', 'demo', 'Demo', 'a1')`)
	return database
}

func mustExec(t *testing.T, database *DB, query string, args ...any) {
	t.Helper()
	if _, err := database.Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

const insertSuite = `INSERT INTO suites (uuid, project_uuid, parent_uuid, depth, name, created_by_actor_uuid)
	VALUES (?, 'p1', ?, ?, ?, 'a1')`

func TestFriendlyIDsAssigned(t *testing.T) {
	database := openMigrated(t)
	mustExec(t, database, insertSuite, "s1", nil, 0, "Login")
	mustExec(t, database, insertSuite, "s2", nil, 0, "Checkout")
	mustExec(t, database, `INSERT INTO test_cases (uuid, project_uuid, suite_uuid, title, created_by_actor_uuid, updated_by_actor_uuid)
		VALUES ('c1', 'p1', 's1', 'Valid password', 'a1', 'a1')`)

	// Every assign-id trigger fires on a plain insert.
	tests := []struct {
		query string
		want  string
	}{
		{`SELECT id FROM actors WHERE uuid = 'a1'`, "A-00001"},
		{`SELECT id FROM projects WHERE uuid = 'p1'`, "P-00001"},
		{`SELECT id FROM suites WHERE uuid = 's2'`, "S-00002"},
		{`SELECT id FROM test_cases WHERE uuid = 'c1'`, "C-00001"},
	}
	for _, tt := range tests {
		var got string
		if err := database.QueryRow(tt.query).Scan(&got); err != nil {
			t.Fatalf("%s: %v", tt.query, err)
		}
		if got != tt.want {
			t.Errorf("%s = %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestSuiteDepthConstraints(t *testing.T) {
	database := openMigrated(t)
	mustExec(t, database, insertSuite, "root", nil, 0, "Root")

	tests := []struct {
		name   string
		uuid   string
		parent any
		depth  int
	}{
		{name: "root with depth", uuid: "x1", parent: nil, depth: 1},
		{name: "child at depth zero", uuid: "x2", parent: "root", depth: 0},
		{name: "child skipping a level", uuid: "x3", parent: "root", depth: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := database.Exec(insertSuite, tt.uuid, tt.parent, tt.depth, tt.name); err == nil {
				t.Errorf("expected insert to fail")
			}
		})
	}

	parent := "root"
	for depth := 1; depth <= 4; depth++ {
		child := "level" + string(rune('0'+depth))
		mustExec(t, database, insertSuite, child, parent, depth, child)
		parent = child
	}
	if _, err := database.Exec(insertSuite, "too-deep", parent, 5, "Too deep"); err == nil {
		t.Errorf("expected depth 5 to be rejected")
	}
}

func TestSiblingNamesUniqueIgnoringCase(t *testing.T) {
	database := openMigrated(t)
	mustExec(t, database, insertSuite, "ui", nil, 0, "UI")
	mustExec(t, database, insertSuite, "sync", nil, 0, "Sync")
	mustExec(t, database, insertSuite, "ui-chrome", "ui", 1, "Chrome")

	if _, err := database.Exec(insertSuite, "ui-chrome-2", "ui", 1, "CHROME"); err == nil {
		t.Errorf("expected duplicate sibling name to be rejected")
	}
	if _, err := database.Exec(insertSuite, "root-ui", nil, 0, "ui"); err == nil {
		t.Errorf("expected duplicate root name to be rejected")
	}

	// Same name under a different parent is allowed.
	mustExec(t, database, insertSuite, "sync-chrome", "sync", 1, "Chrome")

	// Archived suites free their name.
	mustExec(t, database, `UPDATE suites SET archived_at = '2024-01-01T00:00:00Z' WHERE uuid = 'ui-chrome'`)
	mustExec(t, database, insertSuite, "ui-chrome-3", "ui", 1, "chrome")
}

func TestDictionariesSeeded(t *testing.T) {
	database := openMigrated(t)

	var priorities, types int
	if err := database.QueryRow(`SELECT COUNT(*) FROM priorities`).Scan(&priorities); err != nil {
		t.Fatalf("count priorities: %v", err)
	}
	if err := database.QueryRow(`SELECT COUNT(*) FROM case_types`).Scan(&types); err != nil {
		t.Fatalf("count case types: %v", err)
	}
	if priorities != 4 || types != 6 {
		t.Errorf("got %d priorities and %d types, want 4 and 6", priorities, types)
	}
}
