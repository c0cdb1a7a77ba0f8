package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lherron/caseq/internal/domain"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Catalog reads suites, cases and dictionaries. It runs against either the
// database handle or an open transaction.
type Catalog struct {
	q querier
}

const suiteColumns = `uuid, id, project_uuid, parent_uuid, depth, name, description,
	created_at, updated_at, archived_at, created_by_actor_uuid`

const caseColumns = `uuid, id, project_uuid, suite_uuid, title, type_id, priority_id,
	preconditions, estimate, status, severity, automation_status,
	steps, tags, autotest_mapping, attachments, etag,
	created_at, updated_at, archived_at, created_by_actor_uuid, updated_by_actor_uuid`

// ResolveProject looks a project up by UUID, friendly ID or slug. Archived
// or unknown projects yield domain.ErrProjectNotFound.
func (c *Catalog) ResolveProject(ctx context.Context, ref string) (*domain.Project, error) {
	row := c.q.QueryRowContext(ctx, `SELECT `+projectColumns+`
		FROM projects
		WHERE (uuid = ? OR id = ? OR slug = ?) AND archived_at IS NULL`, ref, ref, ref)
	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", domain.ErrProjectNotFound, ref)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListSuites returns the project's non-archived suites ordered by depth, then creation.
func (c *Catalog) ListSuites(ctx context.Context, projectUUID string) ([]*domain.Suite, error) {
	rows, err := c.q.QueryContext(ctx, `SELECT `+suiteColumns+`
		FROM suites
		WHERE project_uuid = ? AND archived_at IS NULL
		ORDER BY depth, created_at, rowid`, projectUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to query suites: %w", err)
	}
	defer rows.Close()

	var suites []*domain.Suite
	for rows.Next() {
		s, err := scanSuite(rows)
		if err != nil {
			return nil, err
		}
		suites = append(suites, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating suites: %w", err)
	}
	return suites, nil
}

// ListCases returns the project's non-archived test cases in creation order.
func (c *Catalog) ListCases(ctx context.Context, projectUUID string) ([]*domain.TestCase, error) {
	rows, err := c.q.QueryContext(ctx, `SELECT `+caseColumns+`
		FROM test_cases
		WHERE project_uuid = ? AND archived_at IS NULL
		ORDER BY created_at, rowid`, projectUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to query test cases: %w", err)
	}
	defer rows.Close()

	var out []*domain.TestCase
	for rows.Next() {
		tc, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating test cases: %w", err)
	}
	return out, nil
}

// GetCase loads a test case by UUID or friendly ID.
func (c *Catalog) GetCase(ctx context.Context, ref string) (*domain.TestCase, error) {
	row := c.q.QueryRowContext(ctx, `SELECT `+caseColumns+`
		FROM test_cases WHERE uuid = ? OR id = ?`, ref, ref)
	tc, err := scanCase(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("test case not found: %s", ref)
	}
	return tc, err
}

// ListPriorities returns the priority dictionary ordered by weight.
func (c *Catalog) ListPriorities(ctx context.Context) ([]domain.Priority, error) {
	rows, err := c.q.QueryContext(ctx, `SELECT id, name, weight FROM priorities ORDER BY weight, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query priorities: %w", err)
	}
	defer rows.Close()

	var out []domain.Priority
	for rows.Next() {
		var p domain.Priority
		if err := rows.Scan(&p.ID, &p.Name, &p.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan priority: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListCaseTypes returns the case type dictionary ordered by id.
func (c *Catalog) ListCaseTypes(ctx context.Context) ([]domain.CaseType, error) {
	rows, err := c.q.QueryContext(ctx, `SELECT id, name FROM case_types ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query case types: %w", err)
	}
	defer rows.Close()

	var out []domain.CaseType
	for rows.Next() {
		var ct domain.CaseType
		if err := rows.Scan(&ct.ID, &ct.Name); err != nil {
			return nil, fmt.Errorf("failed to scan case type: %w", err)
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSuite(row scanner) (*domain.Suite, error) {
	var (
		s                domain.Suite
		parent           sql.NullString
		created, updated string
		archived         sql.NullString
	)
	err := row.Scan(&s.UUID, &s.ID, &s.ProjectUUID, &parent, &s.Depth, &s.Name, &s.Description,
		&created, &updated, &archived, &s.CreatedByActorUUID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan suite: %w", err)
	}
	s.ParentUUID = nullString(parent)
	if s.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if s.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	if s.ArchivedAt, err = parseNullTime(archived); err != nil {
		return nil, err
	}
	return &s, nil
}

func scanCase(row scanner) (*domain.TestCase, error) {
	var (
		tc                                domain.TestCase
		suite                             sql.NullString
		typeID, priorityID                sql.NullInt64
		automation                        string
		steps, tags, mapping, attachments string
		created, updated                  string
		archived                          sql.NullString
	)
	err := row.Scan(&tc.UUID, &tc.ID, &tc.ProjectUUID, &suite, &tc.Title, &typeID, &priorityID,
		&tc.Preconditions, &tc.Estimate, &tc.Status, &tc.Severity, &automation,
		&steps, &tags, &mapping, &attachments, &tc.ETag,
		&created, &updated, &archived, &tc.CreatedByActorUUID, &tc.UpdatedByActorUUID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan test case: %w", err)
	}

	tc.SuiteUUID = nullString(suite)
	tc.TypeID = nullInt64(typeID)
	tc.PriorityID = nullInt64(priorityID)
	tc.AutomationStatus = domain.AutomationStatus(automation)
	if err := tc.DecodeJSONColumns(steps, tags, mapping, attachments); err != nil {
		return nil, fmt.Errorf("failed to decode test case %s: %w", tc.UUID, err)
	}
	if tc.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if tc.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	if tc.ArchivedAt, err = parseNullTime(archived); err != nil {
		return nil, err
	}
	return &tc, nil
}
