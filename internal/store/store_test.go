package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/lherron/caseq/internal/db"
	"github.com/lherron/caseq/internal/domain"
)

// setupTestDB creates a temporary test database with migrations applied.
func setupTestDB(t *testing.T) *db.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := database.Migrate(); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

// setupTestActor creates a test actor and returns its UUID.
func setupTestActor(t *testing.T, s *Store) string {
	t.Helper()
	actor, err := s.Actors.Create(context.Background(), "test-actor", "Test Actor", "human")
	if err != nil {
		t.Fatalf("failed to create test actor: %v", err)
	}
	return actor.UUID
}

// setupTestProject creates a project and returns it.
func setupTestProject(t *testing.T, s *Store, actorUUID string) *domain.Project {
	t.Helper()
	p, err := s.Projects.Create(context.Background(), actorUUID, "test-project", "Test Project")
	if err != nil {
		t.Fatalf("failed to create test project: %v", err)
	}
	return p
}

func countEvents(t *testing.T, database *db.DB, eventType string) int {
	t.Helper()
	var n int
	if err := database.QueryRow("SELECT COUNT(*) FROM event_log WHERE event_type = ?", eventType).Scan(&n); err != nil {
		t.Fatalf("failed to count events: %v", err)
	}
	return n
}

func TestActorStore_CreateResolve(t *testing.T) {
	database := setupTestDB(t)
	s := New(database)
	ctx := context.Background()

	actor, err := s.Actors.Create(ctx, "Import Bot", "", "agent")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if actor.Slug != "import-bot" {
		t.Errorf("expected slug 'import-bot', got %q", actor.Slug)
	}
	if actor.ID != "A-00001" {
		t.Errorf("expected ID A-00001, got %q", actor.ID)
	}

	for _, ref := range []string{actor.UUID, actor.ID, actor.Slug} {
		got, err := s.Actors.Resolve(ctx, ref)
		if err != nil {
			t.Fatalf("Resolve(%q) failed: %v", ref, err)
		}
		if got.UUID != actor.UUID {
			t.Errorf("Resolve(%q) = %s, want %s", ref, got.UUID, actor.UUID)
		}
	}

	if _, err := s.Actors.Resolve(ctx, "nobody"); !errors.Is(err, domain.ErrActorNotFound) {
		t.Errorf("expected ErrActorNotFound, got %v", err)
	}
	if _, err := s.Actors.Create(ctx, "other", "", "robot"); err == nil {
		t.Error("expected invalid role to fail")
	}
	if n := countEvents(t, database, "actor.created"); n != 1 {
		t.Errorf("expected 1 actor.created event, got %d", n)
	}
}

func TestProjectStore_CreateResolveArchive(t *testing.T) {
	database := setupTestDB(t)
	s := New(database)
	ctx := context.Background()
	actorUUID := setupTestActor(t, s)

	p := setupTestProject(t, s, actorUUID)
	if p.ID != "P-00001" {
		t.Errorf("expected ID P-00001, got %q", p.ID)
	}

	for _, ref := range []string{p.UUID, p.ID, "test-project"} {
		got, err := s.Projects.Resolve(ctx, ref)
		if err != nil {
			t.Fatalf("Resolve(%q) failed: %v", ref, err)
		}
		if got.Name != "Test Project" {
			t.Errorf("expected name 'Test Project', got %q", got.Name)
		}
	}

	if _, err := s.Projects.Create(ctx, actorUUID, "test-project", ""); err == nil {
		t.Error("expected duplicate slug to fail")
	}

	if err := s.Projects.Archive(ctx, p.UUID); err != nil {
		t.Fatalf("Archive failed: %v", err)
	}
	if _, err := s.Projects.Resolve(ctx, p.ID); !errors.Is(err, domain.ErrProjectNotFound) {
		t.Errorf("expected ErrProjectNotFound for archived project, got %v", err)
	}

	active, err := s.Projects.List(ctx, false)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	all, err := s.Projects.List(ctx, true)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(active) != 0 || len(all) != 1 {
		t.Errorf("expected 0 active and 1 total project, got %d and %d", len(active), len(all))
	}
}

func TestDictionaryStore_Add(t *testing.T) {
	database := setupTestDB(t)
	s := New(database)
	ctx := context.Background()

	prio, err := s.Dictionaries.AddPriority(ctx, "  Blocker ", 50)
	if err != nil {
		t.Fatalf("AddPriority failed: %v", err)
	}
	if prio.Name != "Blocker" || prio.ID == 0 {
		t.Errorf("unexpected priority %+v", prio)
	}
	if _, err := s.Dictionaries.AddPriority(ctx, "blocker", 60); err == nil {
		t.Error("expected case-insensitive duplicate priority to fail")
	}

	if _, err := s.Dictionaries.AddCaseType(ctx, "Accessibility"); err != nil {
		t.Fatalf("AddCaseType failed: %v", err)
	}

	prios, err := s.Catalog().ListPriorities(ctx)
	if err != nil {
		t.Fatalf("ListPriorities failed: %v", err)
	}
	if len(prios) != 5 || prios[4].Name != "Blocker" {
		t.Errorf("expected Blocker last by weight, got %+v", prios)
	}

	types, err := s.Catalog().ListCaseTypes(ctx)
	if err != nil {
		t.Fatalf("ListCaseTypes failed: %v", err)
	}
	if len(types) != 7 {
		t.Errorf("expected 7 case types, got %d", len(types))
	}
}

func TestTx_InsertSuitesAndCases(t *testing.T) {
	database := setupTestDB(t)
	s := New(database)
	ctx := context.Background()
	actorUUID := setupTestActor(t, s)
	p := setupTestProject(t, s, actorUUID)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	var root, child domain.Suite
	err := s.RunInTx(ctx, func(tx *Tx) error {
		root = domain.Suite{ProjectUUID: p.UUID, Name: "UI", CreatedAt: now, CreatedByActorUUID: actorUUID}
		if err := tx.InsertSuite(ctx, &root); err != nil {
			return err
		}
		child = domain.Suite{ProjectUUID: p.UUID, ParentUUID: &root.UUID, Depth: 1, Name: "Chrome", CreatedAt: now, CreatedByActorUUID: actorUUID}
		if err := tx.InsertSuite(ctx, &child); err != nil {
			return err
		}

		typeID, prioID := int64(2), int64(3)
		return tx.InsertCases(ctx, []*domain.TestCase{{
			ProjectUUID:        p.UUID,
			SuiteUUID:          &child.UUID,
			Title:              "Open tab",
			TypeID:             &typeID,
			PriorityID:         &prioID,
			AutomationStatus:   domain.AutomationNotAutomated,
			Steps:              []domain.Step{{Action: "click", Expected: "opens"}},
			Tags:               []string{"ui"},
			CreatedAt:          now,
			CreatedByActorUUID: actorUUID,
		}})
	})
	if err != nil {
		t.Fatalf("RunInTx failed: %v", err)
	}
	if root.ID != "S-00001" || child.ID != "S-00002" {
		t.Errorf("unexpected suite IDs %q %q", root.ID, child.ID)
	}

	suites, err := s.Catalog().ListSuites(ctx, p.UUID)
	if err != nil {
		t.Fatalf("ListSuites failed: %v", err)
	}
	if len(suites) != 2 || suites[0].Name != "UI" || suites[1].ParentUUID == nil {
		t.Fatalf("unexpected suites %+v", suites)
	}

	cases, err := s.Catalog().ListCases(ctx, p.UUID)
	if err != nil {
		t.Fatalf("ListCases failed: %v", err)
	}
	if len(cases) != 1 {
		t.Fatalf("expected 1 case, got %d", len(cases))
	}
	tc := cases[0]
	if tc.ID != "C-00001" || tc.ETag != 1 {
		t.Errorf("unexpected case identity %q etag %d", tc.ID, tc.ETag)
	}
	if len(tc.Steps) != 1 || tc.Steps[0].Expected != "opens" {
		t.Errorf("unexpected steps %+v", tc.Steps)
	}
	if !tc.CreatedAt.Equal(now) || tc.UpdatedByActorUUID != actorUUID {
		t.Errorf("unexpected audit fields %v %q", tc.CreatedAt, tc.UpdatedByActorUUID)
	}
	if tc.AutotestMapping == nil || tc.Attachments == nil {
		t.Error("expected JSON columns to decode as empty, not nil")
	}

	if n := countEvents(t, database, "suite.created"); n != 2 {
		t.Errorf("expected 2 suite.created events, got %d", n)
	}
	if n := countEvents(t, database, "case.created"); n != 1 {
		t.Errorf("expected 1 case.created event, got %d", n)
	}
}

func TestTx_RollbackOnError(t *testing.T) {
	database := setupTestDB(t)
	s := New(database)
	ctx := context.Background()
	actorUUID := setupTestActor(t, s)
	p := setupTestProject(t, s, actorUUID)

	boom := errors.New("boom")
	err := s.RunInTx(ctx, func(tx *Tx) error {
		suite := domain.Suite{ProjectUUID: p.UUID, Name: "Rolled back", CreatedAt: time.Now(), CreatedByActorUUID: actorUUID}
		if err := tx.InsertSuite(ctx, &suite); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	suites, err := s.Catalog().ListSuites(ctx, p.UUID)
	if err != nil {
		t.Fatalf("ListSuites failed: %v", err)
	}
	if len(suites) != 0 {
		t.Errorf("expected rollback to discard suites, got %d", len(suites))
	}
	if n := countEvents(t, database, "suite.created"); n != 0 {
		t.Errorf("expected rollback to discard events, got %d", n)
	}
}

func TestTx_UpdateCase(t *testing.T) {
	database := setupTestDB(t)
	s := New(database)
	ctx := context.Background()
	actorUUID := setupTestActor(t, s)
	p := setupTestProject(t, s, actorUUID)
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tc := &domain.TestCase{
		ProjectUUID:        p.UUID,
		Title:              "login works",
		AutomationStatus:   domain.AutomationNotAutomated,
		CreatedAt:          created,
		CreatedByActorUUID: actorUUID,
	}
	if err := s.RunInTx(ctx, func(tx *Tx) error { return tx.InsertCases(ctx, []*domain.TestCase{tc}) }); err != nil {
		t.Fatalf("InsertCases failed: %v", err)
	}

	tc.Title = "Login works"
	tc.Tags = []string{"smoke"}
	tc.AutomationStatus = domain.AutomationAutomated
	tc.UpdatedAt = created.Add(time.Hour)
	if err := s.RunInTx(ctx, func(tx *Tx) error { return tx.UpdateCase(ctx, tc, []string{"title", "tags"}) }); err != nil {
		t.Fatalf("UpdateCase failed: %v", err)
	}
	if tc.ETag != 2 {
		t.Errorf("expected etag 2, got %d", tc.ETag)
	}

	got, err := s.Catalog().GetCase(ctx, tc.ID)
	if err != nil {
		t.Fatalf("GetCase failed: %v", err)
	}
	if got.Title != "Login works" || got.AutomationStatus != domain.AutomationAutomated {
		t.Errorf("update not persisted: %+v", got)
	}
	if !got.CreatedAt.Equal(created) || got.UUID != tc.UUID || got.ID != tc.ID {
		t.Error("identity or creation audit changed by update")
	}

	stale := *got
	stale.ETag = 1
	err = s.RunInTx(ctx, func(tx *Tx) error { return tx.UpdateCase(ctx, &stale, nil) })
	var mismatch *domain.ETagMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected ETagMismatchError, got %v", err)
	}
	if mismatch.Actual != 2 {
		t.Errorf("expected actual etag 2, got %d", mismatch.Actual)
	}
	if n := countEvents(t, database, "case.updated"); n != 1 {
		t.Errorf("expected 1 case.updated event, got %d", n)
	}
}
