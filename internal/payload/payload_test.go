package payload

import (
	"testing"

	"github.com/lherron/caseq/internal/domain"
	"github.com/lherron/caseq/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hierarchicalJSON = `{
  "version": 1,
  "projectId": "P-00001",
  "exportedAt": "2024-05-01T10:00:00Z",
  "total": 2,
  "suites": [
    {"name": "UI"},
    {"name": "Sync", "parentName": "UI"},
    {"name": "Chrome", "parentName": "UI/Sync", "description": "browser"}
  ],
  "cases": [
    {
      "title": "Tab restore",
      "suiteName": "UI/Sync/Chrome",
      "typeName": "Smoke",
      "priorityName": "High",
      "priorityId": 3,
      "steps": [{"action": "Open tab", "expected": "Tab visible"}],
      "tags": ["ui", "", "chrome"],
      "autotestMapping": {"testClass": "TabTest"},
      "automationStatus": "AUTOMATED",
      "attachments": ["att://1"]
    },
    {"title": "  Loose   case ", "automationStatus": "sometimes"}
  ]
}`

func TestParse_HierarchicalJSON(t *testing.T) {
	doc, err := Decode([]byte(hierarchicalJSON), source.FormatJSON)
	require.NoError(t, err)
	require.NotNil(t, doc.ExportedAt)
	assert.Equal(t, "P-00001", doc.ProjectID)
	assert.True(t, doc.IsHierarchical())

	batch := doc.Batch()
	assert.True(t, batch.Hierarchical)
	assert.Equal(t, []domain.SuiteDescriptor{
		{Name: "UI"},
		{Name: "Sync", ParentPath: "UI"},
		{Name: "Chrome", ParentPath: "UI/Sync", Description: "browser"},
	}, batch.Suites)

	require.Len(t, batch.Cases, 2)
	c := batch.Cases[0]
	assert.Equal(t, "UI/Sync/Chrome", c.SuiteName)
	require.NotNil(t, c.PriorityID)
	assert.Equal(t, int64(3), *c.PriorityID)
	assert.Equal(t, []string{"ui", "chrome"}, c.Tags)
	assert.Equal(t, domain.AutomationAutomated, c.AutomationStatus)
	assert.Equal(t, []domain.Step{{Action: "Open tab", Expected: "Tab visible"}}, c.Steps)
	assert.Equal(t, []string{"att://1"}, c.Attachments)

	assert.Equal(t, "Loose case", batch.Cases[1].Title)
	assert.Equal(t, domain.AutomationNotAutomated, batch.Cases[1].AutomationStatus)
}

func TestParse_FlatYAML(t *testing.T) {
	doc := `
suites:
  - name: Login
  - name: Checkout
cases:
  - title: Valid password
    suiteName: Login
    steps:
      - action: Type password
      - expected: Logged in
`
	batch, err := Parse([]byte(doc), source.FormatYAML)
	require.NoError(t, err)
	assert.False(t, batch.Hierarchical)
	assert.Len(t, batch.Suites, 2)
	require.Len(t, batch.Cases, 1)
	assert.Equal(t, []domain.Step{{Action: "Type password"}, {Expected: "Logged in"}}, batch.Cases[0].Steps)
}

func TestParse_ExplicitHierarchicalFlag(t *testing.T) {
	batch, err := Parse([]byte(`{"hierarchical": true, "suites": [{"name": "Root"}], "cases": []}`), source.FormatJSON)
	require.NoError(t, err)
	assert.True(t, batch.Hierarchical)
}

func TestParse_BareCaseList(t *testing.T) {
	batch, err := Parse([]byte(`[{"title": "A", "suiteName": "S"}, {"title": "B"}]`), source.FormatJSON)
	require.NoError(t, err)
	assert.Len(t, batch.Cases, 2)
	assert.Empty(t, batch.Suites)

	batch, err = Parse([]byte("- title: A\n- title: B\n"), source.FormatYAML)
	require.NoError(t, err)
	assert.Len(t, batch.Cases, 2)
}

func TestParse_TagCap(t *testing.T) {
	tags := make([]string, 0, 60)
	for i := 0; i < 60; i++ {
		tags = append(tags, string(rune('a'+i%26))+"x")
	}
	batch := (&Document{Cases: []CaseEntry{{Title: "t", Tags: tags}}}).Batch()
	assert.Len(t, batch.Cases[0].Tags, domain.MaxTags)
	assert.Equal(t, tags[:domain.MaxTags], batch.Cases[0].Tags)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format source.Format
	}{
		{name: "bad json", data: `{"cases": [`, format: source.FormatJSON},
		{name: "bad yaml", data: "cases: [\n", format: source.FormatYAML},
		{name: "wrong types", data: `{"cases": "nope"}`, format: source.FormatJSON},
		{name: "future version", data: `{"version": 9}`, format: source.FormatJSON},
		{name: "xml", data: `<suite/>`, format: source.FormatXML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), tt.format)
			require.Error(t, err)
			assert.True(t, domain.IsParseError(err))
		})
	}
}
