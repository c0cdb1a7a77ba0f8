package convert

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lherron/caseq/internal/domain"
	"github.com/lherron/caseq/internal/testrail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func section(name string, cases []*testrail.Case, children ...*testrail.Section) *testrail.Section {
	return &testrail.Section{Name: name, Cases: cases, Sections: children}
}

func tcase(title string) *testrail.Case {
	return &testrail.Case{Title: title, Custom: map[string]string{}}
}

func TestConvert_PathQualifiedSuites(t *testing.T) {
	tree := &testrail.Tree{
		Name: "Master",
		Sections: []*testrail.Section{
			section("UI", nil,
				section("Sync", nil, section("Chrome", []*testrail.Case{tcase("sync chrome")})),
				section("UMH", nil, section("Chrome", []*testrail.Case{tcase("umh chrome")})),
			),
		},
	}

	batch, err := New(nil).Convert(tree)
	require.NoError(t, err)
	assert.True(t, batch.Hierarchical)

	want := []domain.SuiteDescriptor{
		{Name: "UI"},
		{Name: "Sync", ParentPath: "UI"},
		{Name: "Chrome", ParentPath: "UI/Sync"},
		{Name: "UMH", ParentPath: "UI"},
		{Name: "Chrome", ParentPath: "UI/UMH"},
	}
	if diff := cmp.Diff(want, batch.Suites); diff != "" {
		t.Errorf("suites mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, batch.Cases, 2)
	assert.Equal(t, "Chrome", batch.Cases[0].SuiteName)
	assert.Equal(t, "UI/Sync/Chrome", batch.Cases[0].SuitePath)
	assert.Equal(t, "Chrome", batch.Cases[1].SuiteName)
	assert.Equal(t, "UI/UMH/Chrome", batch.Cases[1].SuitePath)
}

func TestConvert_VirtualRootsAndBlankSections(t *testing.T) {
	tree := &testrail.Tree{
		Cases: []*testrail.Case{tcase("root case")},
		Sections: []*testrail.Section{
			section("Test Cases", []*testrail.Case{tcase("wrapped case")},
				section("Login", []*testrail.Case{tcase("login case")}),
			),
			section("   ", []*testrail.Case{tcase("lost case")},
				section("Hidden", []*testrail.Case{tcase("hidden case")}),
			),
			section("Reports", nil, section("Test Cases", nil)),
		},
	}

	batch, err := New([]string{"test cases"}).Convert(tree)
	require.NoError(t, err)

	want := []domain.SuiteDescriptor{
		{Name: "Login"},
		{Name: "Reports"},
		// Only top-level wrappers are transparent.
		{Name: "Test Cases", ParentPath: "Reports"},
	}
	if diff := cmp.Diff(want, batch.Suites); diff != "" {
		t.Errorf("suites mismatch (-want +got):\n%s", diff)
	}

	var titles []string
	for _, c := range batch.Cases {
		titles = append(titles, c.Title+"@"+c.SuitePath)
	}
	assert.Equal(t, []string{"root case@", "wrapped case@", "login case@Login"}, titles)
}

func TestConvert_CaseFields(t *testing.T) {
	tree := &testrail.Tree{Sections: []*testrail.Section{
		section("UI", []*testrail.Case{{
			Title:      "  Open   settings ",
			Type:       "smoke",
			Priority:   "urgent",
			Estimate:   " 30s ",
			References: "REF-1, REF-2;REF-3",
			Custom: map[string]string{
				"automation_type": "Not Automated",
				"test_class":      "SettingsTest",
				"test_method":     "opensSettings",
				"preconds":        "Logged in",
				"steps":           "intro [STEP] Click gear",
				"expected":        "[EXPECTED] Menu opens",
			},
		}}),
	}}

	batch, err := New(nil).Convert(tree)
	require.NoError(t, err)
	require.Len(t, batch.Cases, 1)

	want := domain.CaseDescriptor{
		Title:            "Open settings",
		SuiteName:        "UI",
		SuitePath:        "UI",
		TypeName:         "Smoke",
		PriorityName:     "Medium",
		Steps:            []domain.Step{{Action: "Click gear"}, {Expected: "Menu opens"}},
		Tags:             []string{"REF-1", "REF-2", "REF-3"},
		AutotestMapping:  map[string]string{"testClass": "SettingsTest", "testMethod": "opensSettings"},
		Preconditions:    "Logged in",
		Estimate:         "30s",
		AutomationStatus: domain.AutomationAutomated,
	}
	if diff := cmp.Diff(want, batch.Cases[0]); diff != "" {
		t.Errorf("case mismatch (-want +got):\n%s", diff)
	}
}

func TestConvert_SeparatedStepsFallback(t *testing.T) {
	c := tcase("structured")
	c.StepsSeparated = []testrail.SeparatedStep{
		{Content: "Click gear", Expected: "Menu opens"},
		{},
		{Content: "Pick settings", AdditionalInfo: "slow on CI"},
	}

	batch, err := New(nil).Convert(&testrail.Tree{Cases: []*testrail.Case{c}})
	require.NoError(t, err)

	assert.Equal(t, []domain.Step{
		{Action: "Click gear", Expected: "Menu opens"},
		{Action: "Pick settings", Notes: "slow on CI"},
	}, batch.Cases[0].Steps)
}

func TestConvert_Fixture(t *testing.T) {
	f, err := os.Open("../testrail/testdata/export.xml")
	require.NoError(t, err)
	defer f.Close()

	tree, err := testrail.Parse(f)
	require.NoError(t, err)

	batch, err := New([]string{"Test Cases"}).Convert(tree)
	require.NoError(t, err)

	assert.Len(t, batch.Suites, 4)
	require.Len(t, batch.Cases, 3)
	assert.Equal(t, "", batch.Cases[0].SuitePath)
	assert.Equal(t, "UI", batch.Cases[1].SuitePath)
	assert.Equal(t, domain.AutomationAutomated, batch.Cases[1].AutomationStatus)
	assert.Len(t, batch.Cases[1].Steps, 2)
	assert.Equal(t, "UI/Chrome", batch.Cases[2].SuitePath)
	assert.Equal(t, []domain.Step{{Action: "Open tab"}, {Expected: "Tab visible"}}, batch.Cases[2].Steps)
}

func TestConvert_NilTree(t *testing.T) {
	_, err := New(nil).Convert(nil)
	assert.Error(t, err)
}

func TestConvert_ExpectedFreeTextDiscarded(t *testing.T) {
	login := tcase("Login")
	login.Custom["steps"] = "[STEP 1] Open login page"
	login.Custom["expected"] = "User sees the form"

	batch, err := New(nil).Convert(&testrail.Tree{Sections: []*testrail.Section{section("Auth", []*testrail.Case{login})}})
	require.NoError(t, err)
	require.Len(t, batch.Cases, 1)
	assert.Equal(t, []domain.Step{{Action: "Open login page"}}, batch.Cases[0].Steps)
}

func TestExtractSteps(t *testing.T) {
	tests := []struct {
		name  string
		texts []string
		want  []domain.Step
	}{
		{
			name:  "actions and verify",
			texts: []string{"[STEP 1] Open login page[STEP 2] Enter credentials[VERIFY] User is logged in"},
			want: []domain.Step{
				{Action: "Open login page"},
				{Action: "Enter credentials"},
				{Expected: "User is logged in"},
			},
		},
		{
			name:  "case insensitive markers",
			texts: []string{"[step] a [Expected] b [verify] c"},
			want:  []domain.Step{{Action: "a"}, {Expected: "b"}, {Expected: "c"}},
		},
		{
			name:  "expected text follows steps text",
			texts: []string{"[STEP] click", "[VERIFY] done"},
			want:  []domain.Step{{Action: "click"}, {Expected: "done"}},
		},
		{
			name:  "unmarked expected text stays out of the last action",
			texts: []string{"[STEP 1] Open login page", "User sees the form"},
			want:  []domain.Step{{Action: "Open login page"}},
		},
		{
			name:  "marker body ends with its own field",
			texts: []string{"[STEP] click\ntrailing note", "intro [EXPECTED] done"},
			want:  []domain.Step{{Action: "click\ntrailing note"}, {Expected: "done"}},
		},
		{
			name:  "free text discarded",
			texts: []string{"no markers here", ""},
			want:  nil,
		},
		{
			name:  "empty marker body skipped",
			texts: []string{"[STEP][VERIFY] seen"},
			want:  []domain.Step{{Expected: "seen"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractSteps(tt.texts...))
		})
	}
}

func TestSplitTags(t *testing.T) {
	var tokens []string
	for i := 0; i < 60; i++ {
		tokens = append(tokens, fmt.Sprintf("T%02d", i))
	}

	tags, dropped := SplitTags(strings.Join(tokens, ","))
	require.Len(t, tags, 50)
	assert.Equal(t, tokens[:50], tags)
	assert.Equal(t, 10, dropped)

	long := strings.Repeat("x", 51)
	tags, dropped = SplitTags(" a ;; b\t" + long + " , c")
	assert.Equal(t, []string{"a", "b", "c"}, tags)
	assert.Equal(t, 1, dropped)

	tags, _ = SplitTags("")
	assert.Empty(t, tags)
}

func TestNormalizeVocabulary(t *testing.T) {
	assert.Equal(t, "Regression", NormalizeType(" REGRESSION "))
	assert.Equal(t, "Functional", NormalizeType(""))
	assert.Equal(t, "Functional", NormalizeType("exploratory"))
	assert.Equal(t, "Critical", NormalizePriority("critical"))
	assert.Equal(t, "Medium", NormalizePriority("P1"))
}

func TestInferAutomation(t *testing.T) {
	assert.Equal(t, domain.AutomationAutomated, InferAutomation(map[string]string{"automation_type": "Automated (CI)"}))
	assert.Equal(t, domain.AutomationAutomated, InferAutomation(map[string]string{"test_class": "LoginTest"}))
	assert.Equal(t, domain.AutomationNotAutomated, InferAutomation(map[string]string{"automation_type": "Manual", "test_class": "  "}))
	assert.Equal(t, domain.AutomationNotAutomated, InferAutomation(nil))
}
