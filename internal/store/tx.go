package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lherron/caseq/internal/domain"
	"github.com/lherron/caseq/internal/events"
)

// Tx is an open catalog transaction. Reads see the transaction's own writes.
type Tx struct {
	Catalog
	tx *sql.Tx
	ew *events.Writer
}

// InsertSuite persists a new suite and logs a suite.created event.
// UUID is generated when empty; ID is filled from the friendly-ID trigger.
func (t *Tx) InsertSuite(ctx context.Context, s *domain.Suite) error {
	if err := domain.ValidateSuite(s); err != nil {
		return err
	}
	if s.UUID == "" {
		s.UUID = uuid.NewString()
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = s.CreatedAt
	}

	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO suites (uuid, id, project_uuid, parent_uuid, depth, name, description,
			created_at, updated_at, created_by_actor_uuid)
		VALUES (?, '', ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.UUID, s.ProjectUUID, s.ParentUUID, s.Depth, s.Name, s.Description,
		formatTime(s.CreatedAt), formatTime(s.UpdatedAt), s.CreatedByActorUUID)
	if err != nil {
		return fmt.Errorf("failed to create suite %q: %w", s.Name, err)
	}

	if err := t.tx.QueryRowContext(ctx, "SELECT id FROM suites WHERE uuid = ?", s.UUID).Scan(&s.ID); err != nil {
		return fmt.Errorf("failed to get suite ID: %w", err)
	}

	if err := t.ew.LogSuiteCreated(ctx, t.tx, s); err != nil {
		return fmt.Errorf("failed to log event: %w", err)
	}
	return nil
}

// InsertCases persists new test cases through one prepared statement and
// logs a case.created event for each.
func (t *Tx) InsertCases(ctx context.Context, cases []*domain.TestCase) error {
	if len(cases) == 0 {
		return nil
	}

	stmt, err := t.tx.PrepareContext(ctx, `
		INSERT INTO test_cases (uuid, id, project_uuid, suite_uuid, title, type_id, priority_id,
			preconditions, estimate, status, severity, automation_status,
			steps, tags, autotest_mapping, attachments, etag,
			created_at, updated_at, created_by_actor_uuid, updated_by_actor_uuid)
		VALUES (?, '', ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare test case insert: %w", err)
	}
	defer stmt.Close()

	idStmt, err := t.tx.PrepareContext(ctx, "SELECT id FROM test_cases WHERE uuid = ?")
	if err != nil {
		return fmt.Errorf("failed to prepare test case lookup: %w", err)
	}
	defer idStmt.Close()

	for _, tc := range cases {
		if tc.UUID == "" {
			tc.UUID = uuid.NewString()
		}
		if tc.ETag == 0 {
			tc.ETag = 1
		}
		if tc.UpdatedAt.IsZero() {
			tc.UpdatedAt = tc.CreatedAt
		}
		if tc.UpdatedByActorUUID == "" {
			tc.UpdatedByActorUUID = tc.CreatedByActorUUID
		}

		cols, err := encodeCaseColumns(tc)
		if err != nil {
			return err
		}

		_, err = stmt.ExecContext(ctx, tc.UUID, tc.ProjectUUID, tc.SuiteUUID, tc.Title, tc.TypeID, tc.PriorityID,
			tc.Preconditions, tc.Estimate, tc.Status, tc.Severity, string(tc.AutomationStatus),
			cols.steps, cols.tags, cols.mapping, cols.attachments, tc.ETag,
			formatTime(tc.CreatedAt), formatTime(tc.UpdatedAt), tc.CreatedByActorUUID, tc.UpdatedByActorUUID)
		if err != nil {
			return fmt.Errorf("failed to create test case %q: %w", tc.Title, err)
		}

		if err := idStmt.QueryRowContext(ctx, tc.UUID).Scan(&tc.ID); err != nil {
			return fmt.Errorf("failed to get test case ID: %w", err)
		}

		if err := t.ew.LogCaseCreated(ctx, t.tx, tc); err != nil {
			return fmt.Errorf("failed to log event: %w", err)
		}
	}
	return nil
}

// UpdateCase writes the content fields of an existing test case and bumps
// its etag. tc.ETag must hold the etag the caller read; on success it holds
// the new value. Identity, creation audit and suite placement are not touched.
func (t *Tx) UpdateCase(ctx context.Context, tc *domain.TestCase, changes []string) error {
	cols, err := encodeCaseColumns(tc)
	if err != nil {
		return err
	}

	res, err := t.tx.ExecContext(ctx, `
		UPDATE test_cases SET
			title = ?, type_id = ?, priority_id = ?,
			preconditions = ?, estimate = ?, status = ?, severity = ?, automation_status = ?,
			steps = ?, tags = ?, autotest_mapping = ?, attachments = ?,
			updated_at = ?, updated_by_actor_uuid = ?, etag = etag + 1
		WHERE uuid = ? AND etag = ?
	`, tc.Title, tc.TypeID, tc.PriorityID,
		tc.Preconditions, tc.Estimate, tc.Status, tc.Severity, string(tc.AutomationStatus),
		cols.steps, cols.tags, cols.mapping, cols.attachments,
		formatTime(tc.UpdatedAt), tc.UpdatedByActorUUID,
		tc.UUID, tc.ETag)
	if err != nil {
		return fmt.Errorf("failed to update test case %s: %w", tc.UUID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update test case %s: %w", tc.UUID, err)
	}
	if n == 0 {
		var current int64
		err := t.tx.QueryRowContext(ctx, "SELECT etag FROM test_cases WHERE uuid = ?", tc.UUID).Scan(&current)
		if err == sql.ErrNoRows {
			return fmt.Errorf("test case not found: %s", tc.UUID)
		}
		if err != nil {
			return fmt.Errorf("failed to get current etag: %w", err)
		}
		return checkETag(current, tc.ETag)
	}

	tc.ETag++
	if err := t.ew.LogCaseUpdated(ctx, t.tx, tc, changes); err != nil {
		return fmt.Errorf("failed to log event: %w", err)
	}
	return nil
}

// LogImportCompleted records an import.completed event for the project.
func (t *Tx) LogImportCompleted(ctx context.Context, actorUUID, projectUUID string, stats map[string]any) error {
	return t.ew.LogImportCompleted(ctx, t.tx, actorUUID, projectUUID, stats)
}

type caseJSON struct {
	steps, tags, mapping, attachments string
}

func encodeCaseColumns(tc *domain.TestCase) (caseJSON, error) {
	var cols caseJSON
	var err error
	if err = domain.ValidateTags(tc.Tags); err != nil {
		return cols, err
	}
	if err = domain.ValidateAutomationStatus(string(tc.AutomationStatus)); err != nil {
		return cols, err
	}
	if cols.steps, err = tc.StepsJSON(); err != nil {
		return cols, fmt.Errorf("failed to encode steps: %w", err)
	}
	if cols.tags, err = tc.TagsJSON(); err != nil {
		return cols, fmt.Errorf("failed to encode tags: %w", err)
	}
	if cols.mapping, err = tc.AutotestMappingJSON(); err != nil {
		return cols, fmt.Errorf("failed to encode autotest mapping: %w", err)
	}
	if cols.attachments, err = tc.AttachmentsJSON(); err != nil {
		return cols, fmt.Errorf("failed to encode attachments: %w", err)
	}
	return cols, nil
}
