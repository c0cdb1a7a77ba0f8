// Package cursor encodes opaque keyset pagination tokens.
package cursor

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// ErrScopeMismatch is returned when a token was issued for a different query
var ErrScopeMismatch = errors.New("cursor belongs to a different query")

// Cursor marks the last row returned on a page. Scope identifies the query
// the cursor was issued for so it cannot be replayed against another one.
type Cursor struct {
	Scope  string `json:"scope"`
	LastID int64  `json:"last_id"`
}

// New returns a cursor positioned after lastID
func New(scope string, lastID int64) (*Cursor, error) {
	if lastID <= 0 {
		return nil, fmt.Errorf("last ID must be positive, got %d", lastID)
	}
	return &Cursor{Scope: scope, LastID: lastID}, nil
}

// Encode serializes the cursor to a URL-safe string
func (c *Cursor) Encode() (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// Decode parses a token and checks it was issued for scope
func Decode(encoded, scope string) (*Cursor, error) {
	if encoded == "" {
		return nil, errors.New("empty cursor string")
	}
	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor encoding: %w", err)
	}

	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("invalid cursor format: %w", err)
	}
	if c.LastID <= 0 {
		return nil, errors.New("cursor missing last ID")
	}
	if c.Scope != scope {
		return nil, ErrScopeMismatch
	}
	return &c, nil
}

// Next returns the token for the page after rows, or "" when the page was
// short and nothing follows.
func Next(scope string, pageSize int, ids []int64) (string, error) {
	if pageSize <= 0 || len(ids) < pageSize {
		return "", nil
	}
	c, err := New(scope, ids[len(ids)-1])
	if err != nil {
		return "", err
	}
	return c.Encode()
}
