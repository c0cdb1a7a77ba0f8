// Package names builds the lookup keys used to match imported suites and
// cases against the catalog. Keys are whitespace-collapsed, NFC-normalized
// and case-folded; display names are only whitespace-collapsed.
package names

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const (
	// Separator joins suite names into a path key
	Separator = "/"
	// RootParent stands in for the parent of a root suite in parent keys
	RootParent = "null"
)

var (
	slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)
	maxSlugLen  = 255
)

// Clean trims s and collapses internal whitespace runs to a single space
func Clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Normalize returns the comparison key for a single name
func Normalize(s string) string {
	s = Clean(s)
	if s == "" {
		return ""
	}
	return cases.Fold().String(norm.NFC.String(s))
}

// PathKey normalizes each segment and joins them. Blank segments are dropped.
func PathKey(segments ...string) string {
	keys := make([]string, 0, len(segments))
	for _, seg := range segments {
		if k := Normalize(seg); k != "" {
			keys = append(keys, k)
		}
	}
	return strings.Join(keys, Separator)
}

// NormalizePath turns a user-supplied path ("UI / Chrome") into a path key
func NormalizePath(path string) string {
	return PathKey(SplitPath(path)...)
}

// ChildPath extends a parent path key with one more name
func ChildPath(parentPath, name string) string {
	k := Normalize(name)
	if parentPath == "" {
		return k
	}
	return parentPath + Separator + k
}

// ParentKey is the sibling-scoped key of a suite: parent UUID (or RootParent)
// followed by the normalized name.
func ParentKey(parentUUID *string, name string) string {
	parent := RootParent
	if parentUUID != nil {
		parent = *parentUUID
	}
	return parent + Separator + Normalize(name)
}

// SplitPath splits a path into trimmed, non-blank segments
func SplitPath(path string) []string {
	var segments []string
	for _, seg := range strings.Split(path, Separator) {
		if seg = Clean(seg); seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}

// JoinPath joins path segments
func JoinPath(segments ...string) string {
	return strings.Join(segments, Separator)
}

// ParentPath returns the path without its last segment
func ParentPath(path string) string {
	segments := SplitPath(path)
	if len(segments) <= 1 {
		return ""
	}
	return JoinPath(segments[:len(segments)-1]...)
}

// NormalizeSlug normalizes a string to a valid slug
// Rules:
// - Always lower-case
// - Allowed characters: a-z, 0-9, -
// - Must start with [a-z0-9]
// - Max length: 255 bytes
func NormalizeSlug(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("slug cannot be empty")
	}

	s = strings.ToLower(s)
	s = strings.NewReplacer(" ", "-", "_", "-").Replace(s)

	var result strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			result.WriteRune(r)
		}
	}
	s = strings.Trim(result.String(), "-")

	if s == "" {
		return "", fmt.Errorf("slug must start with alphanumeric character")
	}
	if len(s) > maxSlugLen {
		return "", fmt.Errorf("slug exceeds maximum length of %d bytes", maxSlugLen)
	}
	if !slugPattern.MatchString(s) {
		return "", fmt.Errorf("invalid slug format: %s", s)
	}
	return s, nil
}

// ValidateSlug checks if a string is a valid slug without normalization
func ValidateSlug(s string) error {
	if s == "" {
		return fmt.Errorf("slug cannot be empty")
	}
	if len(s) > maxSlugLen {
		return fmt.Errorf("slug exceeds maximum length of %d bytes", maxSlugLen)
	}
	if !slugPattern.MatchString(s) {
		return fmt.Errorf("invalid slug format: must be lowercase, start with alphanumeric, and contain only [a-z0-9-]")
	}
	return nil
}
