// Package testrail decodes TestRail XML suite exports into a plain tree of
// sections and cases. It applies no business rules.
package testrail

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/lherron/caseq/internal/domain"
)

// FormatName labels parse errors raised by this package
const FormatName = "TestRail XML"

// Tree is a decoded export: the <suite> root with its sections and root-level cases
type Tree struct {
	Name        string
	Description string
	Sections    []*Section
	Cases       []*Case
}

// Section is one <section> with its own cases and child sections, in document order
type Section struct {
	Name        string
	Description string
	Cases       []*Case
	Sections    []*Section
}

// Case is one <case> record
type Case struct {
	ID         string
	Title      string
	Type       string
	Priority   string
	Estimate   string
	References string
	// Custom holds the <custom> field bag keyed by element name
	Custom map[string]string
	// StepsSeparated holds <custom><steps_separated> entries in order
	StepsSeparated []SeparatedStep
}

// SeparatedStep is one structured step of the "Test Case (Steps)" template
type SeparatedStep struct {
	Index          string `xml:"index"`
	Content        string `xml:"content"`
	Expected       string `xml:"expected"`
	AdditionalInfo string `xml:"additional_info"`
}

type xmlSuite struct {
	Name        string       `xml:"name"`
	Description string       `xml:"description"`
	Sections    []xmlSection `xml:"sections>section"`
	Cases       []xmlCase    `xml:"cases>case"`
}

type xmlSections struct {
	Sections []xmlSection `xml:"section"`
}

type xmlSection struct {
	Name        string       `xml:"name"`
	Description string       `xml:"description"`
	Cases       []xmlCase    `xml:"cases>case"`
	Sections    []xmlSection `xml:"sections>section"`
}

type xmlCase struct {
	ID         string       `xml:"id"`
	Title      string       `xml:"title"`
	Type       string       `xml:"type"`
	Priority   string       `xml:"priority"`
	Estimate   string       `xml:"estimate"`
	References string       `xml:"references"`
	Custom     customFields `xml:"custom"`
}

// Parse decodes a TestRail export. The root element must be <suite> or
// <sections>; anything else, or malformed markup, yields *domain.ParseError.
func Parse(r io.Reader) (*Tree, error) {
	dec := xml.NewDecoder(r)

	start, err := rootElement(dec)
	if err != nil {
		return nil, parseError(err)
	}

	switch start.Name.Local {
	case "suite":
		var doc xmlSuite
		if err := dec.DecodeElement(&doc, &start); err != nil {
			return nil, parseError(err)
		}
		return &Tree{
			Name:        doc.Name,
			Description: doc.Description,
			Sections:    buildSections(doc.Sections),
			Cases:       buildCases(doc.Cases),
		}, nil

	case "sections":
		var doc xmlSections
		if err := dec.DecodeElement(&doc, &start); err != nil {
			return nil, parseError(err)
		}
		return &Tree{Sections: buildSections(doc.Sections)}, nil

	default:
		return nil, parseError(fmt.Errorf("unexpected root element <%s>, expected <suite> or <sections>", start.Name.Local))
	}
}

func rootElement(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return xml.StartElement{}, fmt.Errorf("document has no root element")
			}
			return xml.StartElement{}, err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start, nil
		}
	}
}

func parseError(err error) error {
	return &domain.ParseError{Format: FormatName, Err: err}
}

// buildSections converts decoded sections with an explicit stack so deep
// exports cannot exhaust the goroutine stack.
func buildSections(roots []xmlSection) []*Section {
	type frame struct {
		src *xmlSection
		dst *Section
	}

	out := make([]*Section, len(roots))
	stack := make([]frame, 0, len(roots))
	for i := range roots {
		out[i] = &Section{}
		stack = append(stack, frame{src: &roots[i], dst: out[i]})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		f.dst.Name = f.src.Name
		f.dst.Description = f.src.Description
		f.dst.Cases = buildCases(f.src.Cases)
		f.dst.Sections = make([]*Section, len(f.src.Sections))
		for i := range f.src.Sections {
			f.dst.Sections[i] = &Section{}
			stack = append(stack, frame{src: &f.src.Sections[i], dst: f.dst.Sections[i]})
		}
	}
	return out
}

func buildCases(src []xmlCase) []*Case {
	out := make([]*Case, 0, len(src))
	for _, c := range src {
		custom := c.Custom.Fields
		if custom == nil {
			custom = map[string]string{}
		}
		out = append(out, &Case{
			ID:             strings.TrimSpace(c.ID),
			Title:          c.Title,
			Type:           c.Type,
			Priority:       c.Priority,
			Estimate:       c.Estimate,
			References:     c.References,
			Custom:         custom,
			StepsSeparated: c.Custom.Steps,
		})
	}
	return out
}
