package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
}

var sample = Table{
	Headers: []string{"ID", "Title"},
	Rows:    [][]string{{"C-00001", "Login"}, {"C-00002", "Logout"}},
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatTable, f)

	f, err = ParseFormat(" JSON ")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestRender_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(&buf, Options{}).Render(nil, sample))
	out := buf.String()
	assert.Contains(t, out, "C-00001")
	assert.Contains(t, out, "Logout")
	assert.Contains(t, out, "│")
}

func TestRender_Markdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(&buf, Options{Format: FormatMarkdown}).Render(nil, sample))
	assert.Contains(t, buf.String(), "| C-00002 | Logout |")
}

func TestRender_Porcelain(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(&buf, Options{Porcelain: true}).Render(nil, sample))
	assert.Equal(t, "C-00001\tLogin\nC-00002\tLogout\n", buf.String())
}

func TestRender_TSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(&buf, Options{Format: FormatTSV}).Render(nil, sample))
	assert.Equal(t, "ID\tTitle\nC-00001\tLogin\nC-00002\tLogout\n", buf.String())
}

func TestRender_Structured(t *testing.T) {
	items := []item{{"C-00001", "Login"}, {"C-00002", "Logout"}}

	var buf bytes.Buffer
	r := NewRenderer(&buf, Options{Format: FormatNDJSON})
	assert.True(t, r.Structured())
	require.NoError(t, r.Render(items, sample))
	assert.Equal(t, `{"id":"C-00001","title":"Login"}`+"\n"+`{"id":"C-00002","title":"Logout"}`+"\n", buf.String())

	buf.Reset()
	require.NoError(t, NewRenderer(&buf, Options{Format: FormatYAML}).Render(items[0], sample))
	assert.Equal(t, "id: C-00001\ntitle: Login\n", buf.String())

	buf.Reset()
	require.NoError(t, NewRenderer(&buf, Options{Format: FormatJSON, Porcelain: true}).Render(items[0], sample))
	assert.Equal(t, `{"id":"C-00001","title":"Login"}`+"\n", buf.String())
}

func TestRenderTree(t *testing.T) {
	var buf bytes.Buffer
	roots := []*TreeNode{
		{Label: "UI", Children: []*TreeNode{{Label: "Sync", Children: []*TreeNode{{Label: "Chrome"}}}}},
		{Label: "API"},
	}
	require.NoError(t, NewRenderer(&buf, Options{}).RenderTree(roots))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "UI")
	assert.Contains(t, lines[2], "Chrome")
	assert.Contains(t, lines[3], "API")
	assert.Less(t, strings.Index(lines[0], "UI"), strings.Index(lines[2], "Chrome"))
}
