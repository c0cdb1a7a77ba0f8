package testrail

import (
	"encoding/xml"
	"strings"
)

// customFields is the <custom> bag. Plain fields keep their text; dropdown
// fields (<id>/<value> pairs) keep their value; multi-selects join item values.
type customFields struct {
	Fields map[string]string
	Steps  []SeparatedStep
}

type customValue struct {
	Text  string `xml:",chardata"`
	Value string `xml:"value"`
	Items []struct {
		Value string `xml:"value"`
	} `xml:"item"`
}

type separatedSteps struct {
	Steps []SeparatedStep `xml:"step"`
}

func (c *customFields) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	c.Fields = map[string]string{}

	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "steps_separated" {
				var steps separatedSteps
				if err := d.DecodeElement(&steps, &t); err != nil {
					return err
				}
				c.Steps = append(c.Steps, steps.Steps...)
				continue
			}

			var v customValue
			if err := d.DecodeElement(&v, &t); err != nil {
				return err
			}
			c.Fields[t.Name.Local] = v.String()

		case xml.EndElement:
			return nil
		}
	}
}

func (v customValue) String() string {
	if len(v.Items) > 0 {
		values := make([]string, 0, len(v.Items))
		for _, item := range v.Items {
			if s := strings.TrimSpace(item.Value); s != "" {
				values = append(values, s)
			}
		}
		return strings.Join(values, ", ")
	}
	if s := strings.TrimSpace(v.Value); s != "" {
		return s
	}
	return strings.TrimSpace(v.Text)
}
