package cli

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/lherron/caseq/internal/cli/appctx"
	"github.com/lherron/caseq/internal/domain"
)

func TestProjectAdd(t *testing.T) {
	app, _ := setupTestEnv(t)

	projectAddName = "Checkout flow"
	defer func() { projectAddName = "" }()

	cmd, buf := newTestCmd()
	if err := runProjectAdd(app, cmd, []string{"Checkout"}); err != nil {
		t.Fatalf("runProjectAdd failed: %v", err)
	}
	if got := buf.String(); got != "✓ Created project checkout (P-00002)\n" {
		t.Errorf("Unexpected output: %q", got)
	}

	p, err := app.Store.Projects.Resolve(appctx.Context(cmd), "checkout")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if p.Name != "Checkout flow" || p.CreatedByActorUUID != app.ActorUUID {
		t.Errorf("Unexpected project %+v", p)
	}
}

func TestProjectAdd_InvalidSlug(t *testing.T) {
	app, _ := setupTestEnv(t)

	cmd, _ := newTestCmd()
	if err := runProjectAdd(app, cmd, []string{"!!!"}); err == nil {
		t.Fatal("Expected error for invalid slug")
	}
}

func TestProjectsCommand_ExcludesArchivedByDefault(t *testing.T) {
	app, _ := setupTestEnv(t)
	app.Config.Output = "json"

	cmd, _ := newTestCmd()
	for _, slug := range []string{"alpha", "beta"} {
		if err := runProjectAdd(app, cmd, []string{slug}); err != nil {
			t.Fatalf("runProjectAdd(%s) failed: %v", slug, err)
		}
	}

	cmd, buf := newTestCmd()
	if err := runProjectArchive(app, cmd, []string{"alpha"}); err != nil {
		t.Fatalf("runProjectArchive failed: %v", err)
	}
	if !strings.Contains(buf.String(), "✓ Archived project alpha (P-00002)") {
		t.Errorf("Unexpected output: %q", buf.String())
	}

	list := func(all bool) []string {
		projectLsAll = all
		defer func() { projectLsAll = false }()

		cmd, buf := newTestCmd()
		if err := runProjectLs(app, cmd, nil); err != nil {
			t.Fatalf("runProjectLs failed: %v", err)
		}
		var projects []domain.Project
		if err := json.Unmarshal(buf.Bytes(), &projects); err != nil {
			t.Fatalf("Failed to parse JSON: %v\nOutput: %s", err, buf.String())
		}
		var slugs []string
		for _, p := range projects {
			slugs = append(slugs, p.Slug)
		}
		return slugs
	}

	if got := strings.Join(list(false), ","); got != "demo,beta" {
		t.Errorf("Expected demo,beta; got %s", got)
	}
	if got := strings.Join(list(true), ","); got != "demo,alpha,beta" {
		t.Errorf("Expected demo,alpha,beta with --all; got %s", got)
	}
}

func TestProjectArchive_Twice(t *testing.T) {
	app, _ := setupTestEnv(t)

	cmd, _ := newTestCmd()
	if err := runProjectArchive(app, cmd, []string{"demo"}); err != nil {
		t.Fatalf("runProjectArchive failed: %v", err)
	}
	err := runProjectArchive(app, cmd, []string{"demo"})
	if !errors.Is(err, domain.ErrProjectNotFound) {
		t.Errorf("Expected ErrProjectNotFound, got %v", err)
	}
}

func TestProjectsCommand_TableOutput(t *testing.T) {
	app, _ := setupTestEnv(t)

	cmd, buf := newTestCmd()
	if err := runProjectLs(app, cmd, nil); err != nil {
		t.Fatalf("runProjectLs failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"P-00001", "demo", "Demo"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in table output:\n%s", want, out)
		}
	}
}
