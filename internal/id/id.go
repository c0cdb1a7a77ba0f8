package id

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	actorIDPattern   = regexp.MustCompile(`^A-\d{5,}$`)
	projectIDPattern = regexp.MustCompile(`^P-\d{5,}$`)
	suiteIDPattern   = regexp.MustCompile(`^S-\d{5,}$`)
	caseIDPattern    = regexp.MustCompile(`^C-\d{5,}$`)
	uuidPattern      = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

// Type represents the type of resource
type Type string

const (
	TypeActor   Type = "actor"
	TypeProject Type = "project"
	TypeSuite   Type = "suite"
	TypeCase    Type = "case"
)

// FormatActor formats an actor friendly ID
func FormatActor(seq int) string {
	return fmt.Sprintf("A-%05d", seq)
}

// FormatProject formats a project friendly ID
func FormatProject(seq int) string {
	return fmt.Sprintf("P-%05d", seq)
}

// FormatSuite formats a suite friendly ID
func FormatSuite(seq int) string {
	return fmt.Sprintf("S-%05d", seq)
}

// FormatCase formats a test case friendly ID
func FormatCase(seq int) string {
	return fmt.Sprintf("C-%05d", seq)
}

// Parse parses an ID string and returns the type and sequence number
func Parse(id string) (Type, int, error) {
	id = strings.TrimSpace(id)

	var typ Type
	switch {
	case actorIDPattern.MatchString(id):
		typ = TypeActor
	case projectIDPattern.MatchString(id):
		typ = TypeProject
	case suiteIDPattern.MatchString(id):
		typ = TypeSuite
	case caseIDPattern.MatchString(id):
		typ = TypeCase
	default:
		return "", 0, fmt.Errorf("invalid friendly ID format: %s", id)
	}

	seq, err := strconv.Atoi(id[2:])
	if err != nil {
		return "", 0, fmt.Errorf("invalid friendly ID sequence: %s", id)
	}
	return typ, seq, nil
}

// IsUUID checks if a string is a valid UUID
func IsUUID(s string) bool {
	return uuidPattern.MatchString(strings.ToLower(s))
}

// IsFriendlyID checks if a string is a valid friendly ID
func IsFriendlyID(s string) bool {
	_, _, err := Parse(s)
	return err == nil
}
