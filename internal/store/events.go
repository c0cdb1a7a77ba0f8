package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lherron/caseq/internal/domain"
)

// EventFilter selects event log rows. Zero values match everything.
type EventFilter struct {
	ResourceUUID string
	EventType    string
	// BeforeID resumes a newest-first listing below this event ID
	BeforeID int64
	// Limit caps the result; 0 means no limit
	Limit int
}

// ListEvents returns events newest first.
func (c *Catalog) ListEvents(ctx context.Context, f EventFilter) ([]*domain.Event, error) {
	query := `SELECT id, timestamp, actor_uuid, resource_type, resource_uuid, event_type, etag, payload
		FROM event_log WHERE 1=1`
	var args []any
	if f.ResourceUUID != "" {
		query += ` AND resource_uuid = ?`
		args = append(args, f.ResourceUUID)
	}
	if f.EventType != "" {
		query += ` AND event_type = ?`
		args = append(args, f.EventType)
	}
	if f.BeforeID > 0 {
		query += ` AND id < ?`
		args = append(args, f.BeforeID)
	}
	query += ` ORDER BY id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var out []*domain.Event
	for rows.Next() {
		var (
			e        domain.Event
			ts       string
			actor    sql.NullString
			resource sql.NullString
			etag     sql.NullInt64
			payload  sql.NullString
		)
		if err := rows.Scan(&e.ID, &ts, &actor, &e.ResourceType, &resource, &e.EventType, &etag, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if e.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		e.ActorUUID = nullString(actor)
		e.ResourceUUID = nullString(resource)
		e.ETag = nullInt64(etag)
		e.Payload = nullString(payload)
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return out, nil
}
