package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/lherron/caseq/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	suites     []*domain.Suite
	cases      []*domain.TestCase
	priorities []domain.Priority
	types      []domain.CaseType
	err        error
}

func (f *fakeSource) ListSuites(ctx context.Context, projectUUID string) ([]*domain.Suite, error) {
	return f.suites, f.err
}

func (f *fakeSource) ListCases(ctx context.Context, projectUUID string) ([]*domain.TestCase, error) {
	return f.cases, nil
}

func (f *fakeSource) ListPriorities(ctx context.Context) ([]domain.Priority, error) {
	return f.priorities, nil
}

func (f *fakeSource) ListCaseTypes(ctx context.Context) ([]domain.CaseType, error) {
	return f.types, nil
}

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

func sampleSource() *fakeSource {
	return &fakeSource{
		suites: []*domain.Suite{
			{UUID: "u-ui", Name: "UI", Depth: 0},
			{UUID: "u-login", Name: "Login", Depth: 0},
			{UUID: "u-sync", Name: "Sync", ParentUUID: strPtr("u-ui"), Depth: 1},
			{UUID: "u-ui-login", Name: "Login", ParentUUID: strPtr("u-ui"), Depth: 1},
			{UUID: "u-chrome", Name: "Chrome", ParentUUID: strPtr("u-sync"), Depth: 2},
		},
		cases: []*domain.TestCase{
			{UUID: "c1", Title: "Opens  Settings", SuiteUUID: strPtr("u-chrome")},
			{UUID: "c2", Title: "Root case"},
			{UUID: "c3", Title: "root CASE"},
		},
		priorities: []domain.Priority{{ID: 1, Name: "Low"}, {ID: 2, Name: "Medium"}},
		types:      []domain.CaseType{{ID: 1, Name: "Functional"}, {ID: 2, Name: "Smoke"}},
	}
}

func TestLoad_EmptyMapsAreNonNil(t *testing.T) {
	snap, err := Load(context.Background(), &fakeSource{}, "p1")
	require.NoError(t, err)

	assert.Equal(t, "p1", snap.ProjectUUID)
	assert.NotNil(t, snap.Cases)
	assert.NotNil(t, snap.Priorities)
	assert.NotNil(t, snap.Types)
	assert.NotNil(t, snap.PriorityNames)
	assert.NotNil(t, snap.TypeNames)
	assert.Zero(t, snap.SuiteCount())
}

func TestLoad_SuiteKeys(t *testing.T) {
	snap, err := Load(context.Background(), sampleSource(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 5, snap.SuiteCount())

	ref, ok := snap.SuiteByPath("ui/sync/chrome")
	require.True(t, ok)
	assert.Equal(t, "u-chrome", ref.UUID)
	assert.Equal(t, 2, ref.Depth)

	ref, ok = snap.SuiteByParent(strPtr("u-ui"), "login")
	require.True(t, ok)
	assert.Equal(t, "u-ui-login", ref.UUID)

	ref, ok = snap.SuiteByParent(nil, "LOGIN")
	require.True(t, ok)
	assert.Equal(t, "u-login", ref.UUID)

	assert.True(t, snap.HasSuiteName("chrome"))
	assert.False(t, snap.HasSuiteName("firefox"))
}

func TestSnapshot_ResolveSuite(t *testing.T) {
	snap, err := Load(context.Background(), sampleSource(), "p1")
	require.NoError(t, err)

	tests := []struct {
		name string
		ref  string
		want string
		ok   bool
	}{
		{"full path", "UI/Sync/Chrome", "u-chrome", true},
		{"spaced path", " ui / sync / chrome ", "u-chrome", true},
		{"bare nested name", "Chrome", "u-chrome", true},
		{"root wins over nested namesake", "Login", "u-login", true},
		{"nested namesake by path", "UI/Login", "u-ui-login", true},
		{"unknown", "Firefox", "", false},
		{"blank", "  ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, ok := snap.ResolveSuite(tt.ref)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, ref.UUID)
		})
	}
}

func TestLoad_CasesFirstWins(t *testing.T) {
	snap, err := Load(context.Background(), sampleSource(), "p1")
	require.NoError(t, err)

	tc, ok := snap.FindCase(strPtr("u-chrome"), "opens settings")
	require.True(t, ok)
	assert.Equal(t, "c1", tc.UUID)

	tc, ok = snap.FindCase(nil, "ROOT case")
	require.True(t, ok)
	assert.Equal(t, "c2", tc.UUID)

	_, ok = snap.FindCase(strPtr("u-ui"), "Root case")
	assert.False(t, ok)
}

func TestSnapshot_RegisterSuiteKeepsFirstName(t *testing.T) {
	snap := New("p1")
	first := snap.RegisterSuite(&domain.Suite{UUID: "a", Name: "Smoke"}, "smoke")
	snap.RegisterSuite(&domain.Suite{UUID: "b", Name: "Smoke", ParentUUID: strPtr("x"), Depth: 1}, "x/smoke")

	ref, ok := snap.ResolveSuite("smoke")
	require.True(t, ok)
	assert.Equal(t, first, ref)

	ref, ok = snap.SuiteByParent(strPtr("x"), "smoke")
	require.True(t, ok)
	assert.Equal(t, "b", ref.UUID)
}

func TestSnapshot_Dictionaries(t *testing.T) {
	snap, err := Load(context.Background(), sampleSource(), "p1")
	require.NoError(t, err)

	assert.Equal(t, int64Ptr(2), snap.PriorityID(int64Ptr(2), "Low"), "known id wins")
	assert.Equal(t, int64Ptr(1), snap.PriorityID(int64Ptr(99), "low"), "unknown id falls back to name")
	assert.Nil(t, snap.PriorityID(nil, "urgent"))
	assert.Equal(t, int64Ptr(2), snap.TypeID(nil, "SMOKE"))
	assert.Nil(t, snap.TypeID(int64Ptr(7), ""))
}

func TestLoad_PropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := Load(context.Background(), &fakeSource{err: boom}, "p1")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
