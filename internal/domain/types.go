package domain

import (
	"time"

	"github.com/goccy/go-json"
)

// MaxSuiteDepth is the deepest allowed suite level (root is 0, so five levels total).
const MaxSuiteDepth = 4

// AutomationStatus records whether a test case is backed by an automated test
type AutomationStatus string

const (
	AutomationAutomated    AutomationStatus = "AUTOMATED"
	AutomationNotAutomated AutomationStatus = "NOT_AUTOMATED"
)

// Actor represents an actor in the system
type Actor struct {
	UUID        string    `json:"uuid" db:"uuid"`
	ID          string    `json:"id" db:"id"`
	Slug        string    `json:"slug" db:"slug"`
	DisplayName *string   `json:"display_name,omitempty" db:"display_name"`
	Role        string    `json:"role" db:"role"` // human, agent, system
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Project is the top-level owner of a suite tree and its test cases
type Project struct {
	UUID               string     `json:"uuid" db:"uuid"`
	ID                 string     `json:"id" db:"id"`
	Slug               string     `json:"slug" db:"slug"`
	Name               string     `json:"name" db:"name"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
	ArchivedAt         *time.Time `json:"archived_at,omitempty" db:"archived_at"`
	CreatedByActorUUID string     `json:"created_by_actor_uuid" db:"created_by_actor_uuid"`
}

// Suite is a named, optionally nested container for test cases
type Suite struct {
	UUID               string     `json:"uuid" db:"uuid"`
	ID                 string     `json:"id" db:"id"`
	ProjectUUID        string     `json:"project_uuid" db:"project_uuid"`
	ParentUUID         *string    `json:"parent_uuid,omitempty" db:"parent_uuid"`
	Depth              int        `json:"depth" db:"depth"` // 0 for roots, at most MaxSuiteDepth
	Name               string     `json:"name" db:"name"`
	Description        string     `json:"description" db:"description"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
	ArchivedAt         *time.Time `json:"archived_at,omitempty" db:"archived_at"`
	CreatedByActorUUID string     `json:"created_by_actor_uuid" db:"created_by_actor_uuid"`
}

// Step is one entry of a test case's structured procedure.
// Action-only and expected-only steps are both valid.
type Step struct {
	Action   string `json:"action,omitempty" yaml:"action,omitempty"`
	Expected string `json:"expected,omitempty" yaml:"expected,omitempty"`
	Notes    string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// TestCase represents a persisted test case
type TestCase struct {
	UUID               string            `json:"uuid" db:"uuid"`
	ID                 string            `json:"id" db:"id"`
	ProjectUUID        string            `json:"project_uuid" db:"project_uuid"`
	SuiteUUID          *string           `json:"suite_uuid,omitempty" db:"suite_uuid"`
	Title              string            `json:"title" db:"title"`
	TypeID             *int64            `json:"type_id,omitempty" db:"type_id"`
	PriorityID         *int64            `json:"priority_id,omitempty" db:"priority_id"`
	Preconditions      string            `json:"preconditions,omitempty" db:"preconditions"`
	Estimate           string            `json:"estimate,omitempty" db:"estimate"`
	Status             string            `json:"status,omitempty" db:"status"`
	Severity           string            `json:"severity,omitempty" db:"severity"`
	AutomationStatus   AutomationStatus  `json:"automation_status" db:"automation_status"`
	Steps              []Step            `json:"steps" db:"steps"`                       // JSON
	Tags               []string          `json:"tags" db:"tags"`                         // JSON
	AutotestMapping    map[string]string `json:"autotest_mapping" db:"autotest_mapping"` // JSON
	Attachments        []string          `json:"attachments" db:"attachments"`           // JSON
	ETag               int64             `json:"etag" db:"etag"`
	CreatedAt          time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at" db:"updated_at"`
	ArchivedAt         *time.Time        `json:"archived_at,omitempty" db:"archived_at"`
	CreatedByActorUUID string            `json:"created_by_actor_uuid" db:"created_by_actor_uuid"`
	UpdatedByActorUUID string            `json:"updated_by_actor_uuid" db:"updated_by_actor_uuid"`
}

// Priority is a global priority dictionary entry
type Priority struct {
	ID     int64  `json:"id" db:"id"`
	Name   string `json:"name" db:"name"`
	Weight int    `json:"weight" db:"weight"`
}

// CaseType is a global test case type dictionary entry
type CaseType struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Event represents an event in the event log
type Event struct {
	ID           int64     `json:"id" db:"id"`
	Timestamp    time.Time `json:"timestamp" db:"timestamp"`
	ActorUUID    *string   `json:"actor_uuid,omitempty" db:"actor_uuid"`
	ResourceType string    `json:"resource_type" db:"resource_type"`
	ResourceUUID *string   `json:"resource_uuid,omitempty" db:"resource_uuid"`
	EventType    string    `json:"event_type" db:"event_type"`
	ETag         *int64    `json:"etag,omitempty" db:"etag"`
	Payload      *string   `json:"payload,omitempty" db:"payload"` // JSON
}

// IsRoot reports whether the suite sits at the top of the project tree
func (s *Suite) IsRoot() bool {
	return s.ParentUUID == nil
}

// StepsJSON encodes the steps column. A nil slice encodes as an empty array.
func (c *TestCase) StepsJSON() (string, error) {
	steps := c.Steps
	if steps == nil {
		steps = []Step{}
	}
	return marshalString(steps)
}

// TagsJSON encodes the tags column
func (c *TestCase) TagsJSON() (string, error) {
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	return marshalString(tags)
}

// AutotestMappingJSON encodes the autotest_mapping column
func (c *TestCase) AutotestMappingJSON() (string, error) {
	mapping := c.AutotestMapping
	if mapping == nil {
		mapping = map[string]string{}
	}
	return marshalString(mapping)
}

// AttachmentsJSON encodes the attachments column
func (c *TestCase) AttachmentsJSON() (string, error) {
	attachments := c.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	return marshalString(attachments)
}

// DecodeJSONColumns fills the JSON-backed fields from their stored text
func (c *TestCase) DecodeJSONColumns(steps, tags, mapping, attachments string) error {
	c.Steps = []Step{}
	c.Tags = []string{}
	c.AutotestMapping = map[string]string{}
	c.Attachments = []string{}

	if err := unmarshalString(steps, &c.Steps); err != nil {
		return err
	}
	if err := unmarshalString(tags, &c.Tags); err != nil {
		return err
	}
	if err := unmarshalString(mapping, &c.AutotestMapping); err != nil {
		return err
	}
	return unmarshalString(attachments, &c.Attachments)
}

func marshalString(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalString(s string, v interface{}) error {
	if s == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), v)
}
