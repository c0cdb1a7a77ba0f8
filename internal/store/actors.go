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

// ActorStore handles actor persistence and resolution.
type ActorStore struct {
	store *Store
}

const actorColumns = `uuid, id, slug, display_name, role, created_at, updated_at`

// Create creates an actor and logs an actor.created event.
func (as *ActorStore) Create(ctx context.Context, slug, displayName, role string) (*domain.Actor, error) {
	normalized, err := names.NormalizeSlug(slug)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateActorRole(role); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	a := &domain.Actor{
		UUID:      uuid.NewString(),
		Slug:      normalized,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if displayName != "" {
		a.DisplayName = &displayName
	}

	err = as.store.withTx(ctx, func(tx *sql.Tx, ew *events.Writer) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO actors (uuid, id, slug, display_name, role, created_at, updated_at)
			VALUES (?, '', ?, ?, ?, ?, ?)
		`, a.UUID, a.Slug, a.DisplayName, a.Role, formatTime(now), formatTime(now))
		if err != nil {
			return fmt.Errorf("failed to create actor: %w", err)
		}

		if err := tx.QueryRowContext(ctx, "SELECT id FROM actors WHERE uuid = ?", a.UUID).Scan(&a.ID); err != nil {
			return fmt.Errorf("failed to get actor ID: %w", err)
		}

		return ew.LogActorCreated(ctx, tx, a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// List returns all actors ordered by friendly ID.
func (as *ActorStore) List(ctx context.Context) ([]*domain.Actor, error) {
	rows, err := as.store.db.QueryContext(ctx, `SELECT `+actorColumns+` FROM actors ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query actors: %w", err)
	}
	defer rows.Close()

	var out []*domain.Actor
	for rows.Next() {
		a, err := scanActor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating actors: %w", err)
	}
	return out, nil
}

// Resolve looks an actor up by UUID, friendly ID or slug.
func (as *ActorStore) Resolve(ctx context.Context, ref string) (*domain.Actor, error) {
	row := as.store.db.QueryRowContext(ctx, `SELECT `+actorColumns+`
		FROM actors WHERE uuid = ? OR id = ? OR slug = ?`, ref, ref, ref)
	a, err := scanActor(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", domain.ErrActorNotFound, ref)
	}
	return a, err
}

func scanActor(row scanner) (*domain.Actor, error) {
	var (
		a                domain.Actor
		display          sql.NullString
		created, updated string
	)
	err := row.Scan(&a.UUID, &a.ID, &a.Slug, &display, &a.Role, &created, &updated)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan actor: %w", err)
	}
	a.DisplayName = nullString(display)
	if a.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &a, nil
}
