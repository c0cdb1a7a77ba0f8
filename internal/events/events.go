package events

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/lherron/caseq/internal/domain"
)

// Event types written by the catalog stores and the import engine.
const (
	ActorCreated    = "actor.created"
	ProjectCreated  = "project.created"
	SuiteCreated    = "suite.created"
	CaseCreated     = "case.created"
	CaseUpdated     = "case.updated"
	ImportCompleted = "import.completed"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Writer handles writing events to the event log
type Writer struct {
	db *sql.DB
}

// NewWriter creates a new event writer
func NewWriter(db *sql.DB) *Writer {
	return &Writer{db: db}
}

// LogEvent writes an event to the event log. A nil tx writes outside any transaction.
func (w *Writer) LogEvent(ctx context.Context, tx *sql.Tx, event *domain.Event) error {
	query := `
		INSERT INTO event_log (actor_uuid, resource_type, resource_uuid, event_type, etag, payload)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := w.executor(tx).ExecContext(ctx, query, event.ActorUUID, event.ResourceType, event.ResourceUUID, event.EventType, event.ETag, event.Payload)
	if err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	return nil
}

// LogActorCreated logs an actor creation event
func (w *Writer) LogActorCreated(ctx context.Context, tx *sql.Tx, actor *domain.Actor) error {
	return w.logResource(ctx, tx, actor.UUID, "actor", actor.UUID, ActorCreated, nil, map[string]any{
		"slug": actor.Slug,
		"role": actor.Role,
	})
}

// LogProjectCreated logs a project creation event
func (w *Writer) LogProjectCreated(ctx context.Context, tx *sql.Tx, project *domain.Project) error {
	return w.logResource(ctx, tx, project.CreatedByActorUUID, "project", project.UUID, ProjectCreated, nil, map[string]any{
		"slug": project.Slug,
		"name": project.Name,
	})
}

// LogSuiteCreated logs a suite creation event
func (w *Writer) LogSuiteCreated(ctx context.Context, tx *sql.Tx, suite *domain.Suite) error {
	payload := map[string]any{
		"project_uuid": suite.ProjectUUID,
		"name":         suite.Name,
		"depth":        suite.Depth,
	}
	if suite.ParentUUID != nil {
		payload["parent_uuid"] = *suite.ParentUUID
	}
	return w.logResource(ctx, tx, suite.CreatedByActorUUID, "suite", suite.UUID, SuiteCreated, nil, payload)
}

// LogCaseCreated logs a test case creation event
func (w *Writer) LogCaseCreated(ctx context.Context, tx *sql.Tx, tc *domain.TestCase) error {
	payload := map[string]any{
		"project_uuid": tc.ProjectUUID,
		"title":        tc.Title,
	}
	if tc.SuiteUUID != nil {
		payload["suite_uuid"] = *tc.SuiteUUID
	}
	etag := tc.ETag
	return w.logResource(ctx, tx, tc.CreatedByActorUUID, "case", tc.UUID, CaseCreated, &etag, payload)
}

// LogCaseUpdated logs a test case update event with the changed field names
func (w *Writer) LogCaseUpdated(ctx context.Context, tx *sql.Tx, tc *domain.TestCase, changes []string) error {
	etag := tc.ETag
	return w.logResource(ctx, tx, tc.UpdatedByActorUUID, "case", tc.UUID, CaseUpdated, &etag, map[string]any{
		"title":   tc.Title,
		"changes": changes,
	})
}

// LogImportCompleted records the outcome of an import against a project
func (w *Writer) LogImportCompleted(ctx context.Context, tx *sql.Tx, actorUUID, projectUUID string, stats map[string]any) error {
	return w.logResource(ctx, tx, actorUUID, "project", projectUUID, ImportCompleted, nil, stats)
}

func (w *Writer) logResource(ctx context.Context, tx *sql.Tx, actorUUID, resourceType, resourceUUID, eventType string, etag *int64, payload map[string]any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}
	payloadStr := string(data)

	event := &domain.Event{
		ResourceType: resourceType,
		ResourceUUID: &resourceUUID,
		EventType:    eventType,
		ETag:         etag,
		Payload:      &payloadStr,
	}
	if actorUUID != "" {
		event.ActorUUID = &actorUUID
	}
	return w.LogEvent(ctx, tx, event)
}

// executor returns the appropriate executor (tx or db)
func (w *Writer) executor(tx *sql.Tx) execer {
	if tx != nil {
		return tx
	}
	return w.db
}
