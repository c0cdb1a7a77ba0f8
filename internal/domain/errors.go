package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrProjectNotFound is returned when a project reference does not resolve
	// to an existing, non-archived project.
	ErrProjectNotFound = errors.New("project not found")
	// ErrActorNotFound is returned when an actor reference does not resolve.
	ErrActorNotFound = errors.New("actor not found")
)

// ParseError reports undecodable source input. The import aborts before any
// write happens.
type ParseError struct {
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s input: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// SizeLimitError is returned when input exceeds the accepted upload size.
type SizeLimitError struct {
	Limit int64
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("input exceeds maximum size of %d bytes", e.Limit)
}

// PersistenceError wraps a storage failure during an import. The enclosing
// transaction is rolled back.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ETagMismatchError is returned when an etag doesn't match
type ETagMismatchError struct {
	Expected int64
	Actual   int64
}

func (e *ETagMismatchError) Error() string {
	return fmt.Sprintf("etag mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// IsParseError reports whether err is or wraps a ParseError
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsSizeLimitError reports whether err is or wraps a SizeLimitError
func IsSizeLimitError(err error) bool {
	var se *SizeLimitError
	return errors.As(err, &se)
}
