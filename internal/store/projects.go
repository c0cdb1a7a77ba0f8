package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lherron/caseq/internal/domain"
	"github.com/lherron/caseq/internal/events"
	"github.com/lherron/caseq/internal/names"
)

// ProjectStore handles project persistence operations.
type ProjectStore struct {
	store *Store
}

const projectColumns = `uuid, id, slug, name, created_at, updated_at, archived_at, created_by_actor_uuid`

// Create creates a project and logs a project.created event.
// The slug is normalized; name defaults to the slug.
func (ps *ProjectStore) Create(ctx context.Context, actorUUID, slug, name string) (*domain.Project, error) {
	normalized, err := names.NormalizeSlug(slug)
	if err != nil {
		return nil, err
	}
	name = names.Clean(name)
	if name == "" {
		name = normalized
	}

	now := time.Now().UTC()
	p := &domain.Project{
		UUID:               uuid.NewString(),
		Slug:               normalized,
		Name:               name,
		CreatedAt:          now,
		UpdatedAt:          now,
		CreatedByActorUUID: actorUUID,
	}

	err = ps.store.withTx(ctx, func(tx *sql.Tx, ew *events.Writer) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO projects (uuid, id, slug, name, created_at, updated_at, created_by_actor_uuid)
			VALUES (?, '', ?, ?, ?, ?, ?)
		`, p.UUID, p.Slug, p.Name, formatTime(now), formatTime(now), actorUUID)
		if err != nil {
			return fmt.Errorf("failed to create project: %w", err)
		}

		if err := tx.QueryRowContext(ctx, "SELECT id FROM projects WHERE uuid = ?", p.UUID).Scan(&p.ID); err != nil {
			return fmt.Errorf("failed to get project ID: %w", err)
		}

		if err := ew.LogProjectCreated(ctx, tx, p); err != nil {
			return fmt.Errorf("failed to log event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// List returns projects ordered by friendly ID.
func (ps *ProjectStore) List(ctx context.Context, includeArchived bool) ([]*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects`
	if !includeArchived {
		query += ` WHERE archived_at IS NULL`
	}
	query += ` ORDER BY id`

	rows, err := ps.store.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var out []*domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}
	return out, nil
}

// Resolve looks a project up by UUID, friendly ID or slug. Archived or
// unknown projects yield domain.ErrProjectNotFound.
func (ps *ProjectStore) Resolve(ctx context.Context, ref string) (*domain.Project, error) {
	return ps.store.Catalog().ResolveProject(ctx, ref)
}

// Archive marks a project archived; it then no longer resolves.
func (ps *ProjectStore) Archive(ctx context.Context, projectUUID string) error {
	now := formatTime(time.Now())
	res, err := ps.store.db.ExecContext(ctx,
		`UPDATE projects SET archived_at = ?, updated_at = ? WHERE uuid = ? AND archived_at IS NULL`,
		now, now, projectUUID)
	if err != nil {
		return fmt.Errorf("failed to archive project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrProjectNotFound, projectUUID)
	}
	return nil
}

func scanProject(row scanner) (*domain.Project, error) {
	var (
		p                domain.Project
		created, updated string
		archived         sql.NullString
	)
	err := row.Scan(&p.UUID, &p.ID, &p.Slug, &p.Name, &created, &updated, &archived, &p.CreatedByActorUUID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}
	if p.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	if p.ArchivedAt, err = parseNullTime(archived); err != nil {
		return nil, err
	}
	return &p, nil
}
