// Package render writes command output as tables, trees or structured
// documents.
package render

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/list"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"
)

// Format represents an output format
type Format string

const (
	FormatTable    Format = "table"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatNDJSON   Format = "ndjson"
	FormatYAML     Format = "yaml"
	FormatTSV      Format = "tsv"
)

// ParseFormat validates an output format name. Empty means table.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatMarkdown, FormatJSON, FormatNDJSON, FormatYAML, FormatTSV:
		return f, nil
	default:
		return "", fmt.Errorf("invalid output format %q: must be one of table, markdown, json, ndjson, yaml, tsv", s)
	}
}

// Options for rendering
type Options struct {
	Format Format
	// Porcelain drops headers and decoration for scripts
	Porcelain bool
}

// Table is the tabular view of a result
type Table struct {
	Headers []string
	Rows    [][]string
	// RightAlign lists 1-based columns holding numbers
	RightAlign []int
}

// TreeNode is one labelled node of a rendered tree
type TreeNode struct {
	Label    string
	Children []*TreeNode
}

// Renderer handles output rendering
type Renderer struct {
	writer io.Writer
	opts   Options
}

// NewRenderer creates a new renderer
func NewRenderer(writer io.Writer, opts Options) *Renderer {
	if opts.Format == "" {
		opts.Format = FormatTable
	}
	return &Renderer{writer: writer, opts: opts}
}

// Structured reports whether the format serializes data rather than tables
func (r *Renderer) Structured() bool {
	switch r.opts.Format {
	case FormatJSON, FormatNDJSON, FormatYAML:
		return true
	}
	return false
}

// Render writes data for structured formats and t otherwise
func (r *Renderer) Render(data any, t Table) error {
	switch r.opts.Format {
	case FormatJSON:
		return r.RenderJSON(data)
	case FormatNDJSON:
		return r.RenderNDJSON(data)
	case FormatYAML:
		return r.RenderYAML(data)
	case FormatTSV:
		return r.RenderTSV(t)
	default:
		return r.RenderTable(t)
	}
}

// RenderJSON renders data as JSON
func (r *Renderer) RenderJSON(data any) error {
	encoder := json.NewEncoder(r.writer)
	if !r.opts.Porcelain {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// RenderNDJSON renders one JSON line per element when data is a slice
func (r *Renderer) RenderNDJSON(data any) error {
	encoder := json.NewEncoder(r.writer)
	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Slice {
		return encoder.Encode(data)
	}
	for i := 0; i < v.Len(); i++ {
		if err := encoder.Encode(v.Index(i).Interface()); err != nil {
			return err
		}
	}
	return nil
}

// RenderYAML renders data as YAML
func (r *Renderer) RenderYAML(data any) error {
	encoder := yaml.NewEncoder(r.writer)
	defer encoder.Close()
	return encoder.Encode(data)
}

// RenderTSV renders a table as tab-separated values
func (r *Renderer) RenderTSV(t Table) error {
	if !r.opts.Porcelain {
		if _, err := fmt.Fprintln(r.writer, strings.Join(t.Headers, "\t")); err != nil {
			return err
		}
	}
	for _, row := range t.Rows {
		if _, err := fmt.Fprintln(r.writer, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return nil
}

// RenderTable renders a table with go-pretty. Porcelain output is TSV
// without a header.
func (r *Renderer) RenderTable(t Table) error {
	if r.opts.Porcelain {
		return r.RenderTSV(t)
	}
	if len(t.Rows) == 0 {
		return nil
	}

	w := table.NewWriter()
	w.SetStyle(table.StyleLight)

	header := make(table.Row, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	w.AppendHeader(header)

	for _, row := range t.Rows {
		cells := make(table.Row, len(row))
		for i, cell := range row {
			cells[i] = cell
		}
		w.AppendRow(cells)
	}

	cfgs := make([]table.ColumnConfig, 0, len(t.RightAlign))
	for _, n := range t.RightAlign {
		cfgs = append(cfgs, table.ColumnConfig{Number: n, Align: text.AlignRight})
	}
	w.SetColumnConfigs(cfgs)

	var out string
	if r.opts.Format == FormatMarkdown {
		out = w.RenderMarkdown()
	} else {
		out = w.Render()
	}
	_, err := fmt.Fprintln(r.writer, out)
	return err
}

// RenderTree renders nodes as a connected tree
func (r *Renderer) RenderTree(roots []*TreeNode) error {
	if len(roots) == 0 {
		return nil
	}
	w := list.NewWriter()
	w.SetStyle(list.StyleConnectedLight)
	for _, n := range roots {
		appendNode(w, n)
	}
	_, err := fmt.Fprintln(r.writer, w.Render())
	return err
}

func appendNode(w list.Writer, n *TreeNode) {
	w.AppendItem(n.Label)
	if len(n.Children) == 0 {
		return
	}
	w.Indent()
	for _, c := range n.Children {
		appendNode(w, c)
	}
	w.UnIndent()
}
