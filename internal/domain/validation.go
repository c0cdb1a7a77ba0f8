package domain

import (
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"
)

// UUIDv4Regex validates lowercase UUIDv4 format
var UUIDv4Regex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

const (
	// MaxTags is the most tags a test case keeps
	MaxTags = 50
	// MaxTagLength is the longest tag, in characters, a test case keeps
	MaxTagLength = 50
)

// ValidateUUID validates a UUID v4 format (lowercase with hyphens)
func ValidateUUID(uuid string) error {
	if !UUIDv4Regex.MatchString(uuid) {
		return fmt.Errorf("invalid UUID: must be lowercase UUIDv4 format (e.g., 550e8400-e29b-41d4-a716-446655440000)")
	}
	return nil
}

// ValidateActorRole validates an actor role
func ValidateActorRole(role string) error {
	switch role {
	case "human", "agent", "system":
		return nil
	default:
		return fmt.Errorf("invalid actor role: must be one of: human, agent, system")
	}
}

// ValidateAutomationStatus validates an automation status value
func ValidateAutomationStatus(status string) error {
	switch AutomationStatus(status) {
	case AutomationAutomated, AutomationNotAutomated:
		return nil
	default:
		return fmt.Errorf("invalid automation status: must be one of: AUTOMATED, NOT_AUTOMATED")
	}
}

// ValidateSuiteDepth checks a suite depth against the tree bounds
func ValidateSuiteDepth(depth int) error {
	if depth < 0 || depth > MaxSuiteDepth {
		return fmt.Errorf("invalid suite depth %d: must be between 0 and %d", depth, MaxSuiteDepth)
	}
	return nil
}

// ValidateSuite checks the parent/depth invariants of a suite
func ValidateSuite(s *Suite) error {
	if s.Name == "" {
		return fmt.Errorf("suite name cannot be empty")
	}
	if err := ValidateSuiteDepth(s.Depth); err != nil {
		return err
	}
	if s.ParentUUID == nil && s.Depth != 0 {
		return fmt.Errorf("root suite %q must have depth 0, got %d", s.Name, s.Depth)
	}
	if s.ParentUUID != nil && s.Depth == 0 {
		return fmt.Errorf("nested suite %q cannot have depth 0", s.Name)
	}
	return nil
}

// ValidateTags checks tag count and length limits
func ValidateTags(tags []string) error {
	if len(tags) > MaxTags {
		return fmt.Errorf("too many tags: %d (max %d)", len(tags), MaxTags)
	}
	for _, tag := range tags {
		if utf8.RuneCountInString(tag) > MaxTagLength {
			return fmt.Errorf("tag %q exceeds %d characters", tag, MaxTagLength)
		}
	}
	return nil
}

// ValidateTimestamp validates and parses an ISO8601 timestamp
func ValidateTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp format: expected ISO8601/RFC3339")
	}
	return t, nil
}

// CheckETag validates an etag against the current value
func CheckETag(expected, actual int64) error {
	if expected != actual {
		return &ETagMismatchError{Expected: expected, Actual: actual}
	}
	return nil
}
