// Package store provides a persistence layer that abstracts database operations,
// automatically handling etag management, timestamps, and event logging.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lherron/caseq/internal/db"
	"github.com/lherron/caseq/internal/domain"
	"github.com/lherron/caseq/internal/events"
)

// Store is the root store that provides access to domain-specific stores.
type Store struct {
	db *db.DB

	Actors       *ActorStore
	Projects     *ProjectStore
	Dictionaries *DictionaryStore
}

// New creates a new Store wrapping the given database connection.
func New(database *db.DB) *Store {
	s := &Store{db: database}
	s.Actors = &ActorStore{store: s}
	s.Projects = &ProjectStore{store: s}
	s.Dictionaries = &DictionaryStore{store: s}
	return s
}

// DB returns the underlying database connection (for read-only queries).
func (s *Store) DB() *db.DB {
	return s.db
}

// Catalog returns a read-only view of the catalog outside any transaction.
func (s *Store) Catalog() *Catalog {
	return &Catalog{q: s.db.DB}
}

// RunInTx runs fn inside one transaction. The transaction commits when fn
// returns nil and rolls back otherwise, including on ctx cancellation.
func (s *Store) RunInTx(ctx context.Context, fn func(tx *Tx) error) error {
	return s.withTx(ctx, func(tx *sql.Tx, ew *events.Writer) error {
		return fn(&Tx{Catalog: Catalog{q: tx}, tx: tx, ew: ew})
	})
}

// withTx executes fn within a transaction. If fn returns nil, the transaction
// is committed; otherwise it is rolled back.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx, ew *events.Writer) error) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ew := events.NewWriter(s.db.DB)
	if err := fn(tx, ew); err != nil {
		return err
	}

	return tx.Commit()
}

// checkETag verifies etag matches if ifMatch > 0, returns ETagMismatchError on mismatch.
func checkETag(currentETag, ifMatch int64) error {
	if ifMatch > 0 {
		return domain.CheckETag(ifMatch, currentETag)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored timestamp %q: %w", s, err)
	}
	return t, nil
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nullInt64(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
