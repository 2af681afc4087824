package casexml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// TestCase is the root <testCase> element.
type TestCase struct {
	XMLName         xml.Name     `xml:"testCase"`
	Testable        string       `xml:"testable,attr"`
	ID              ID           `xml:"id"`
	References      []Reference  `xml:"references>reference"`
	RequirementText MixedText    `xml:"requirementText"`
	Description     string       `xml:"description"`
	Dependencies    []Dependency `xml:"dependencies>dependency"`
	Rules           *Rules       `xml:"rules"`
}

// ID is the <id> element naming the requirement under test.
type ID struct {
	RequirementID string `xml:"requirementId,attr"`
	Specification string `xml:"specification,attr"`
	Version       string `xml:"version,attr"`
}

// Reference points at the requirement text in the published specification.
type Reference struct {
	RequirementID string `xml:"requirementId,attr"`
	URL           string `xml:"URL,attr"`
	Text          string `xml:",chardata"`
}

// Dependency names another requirement the test case relies on.
type Dependency struct {
	RequirementID string `xml:"requirementId,attr"`
	URL           string `xml:"URL,attr"`
	Text          string `xml:",chardata"`
}

// Rules is the optional <rules> element. A nil *Rules means the element
// was absent.
type Rules struct {
	Rule []Rule `xml:"rule"`
}

// Rule is one <rule>. ID is kept as text so a malformed value does not
// abort decoding of the whole document.
type Rule struct {
	ID          string    `xml:"id,attr"`
	Description string    `xml:"description"`
	Error       *Error    `xml:"error"`
	Packages    []Package `xml:"corpusPackages>package"`
}

// Error is the expected validator reaction for a rule.
type Error struct {
	Level   string `xml:"level,attr"`
	Message string `xml:"message"`
}

// Package is a sample package declared under a rule.
type Package struct {
	Name          string `xml:"name,attr"`
	IsValid       string `xml:"isValid,attr"`
	IsImplemented string `xml:"isImplemented,attr"`
	Path          string `xml:"path"`
	Description   string `xml:"description"`
}

// Valid reports whether isValid is TRUE.
func (p Package) Valid() bool {
	return strings.EqualFold(strings.TrimSpace(p.IsValid), "TRUE")
}

// Implemented reports whether isImplemented is TRUE. The attribute is
// optional and defaults to FALSE.
func (p Package) Implemented() bool {
	return strings.EqualFold(strings.TrimSpace(p.IsImplemented), "TRUE")
}

// MixedText collects the character data of an element and all of its
// descendants, with runs of whitespace collapsed to single spaces.
type MixedText string

// UnmarshalXML implements xml.Unmarshaler.
func (m *MixedText) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var parts []string
	depth := 1
	for depth > 0 {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if s := strings.TrimSpace(string(t)); s != "" {
				parts = append(parts, strings.Join(strings.Fields(s), " "))
			}
		}
	}
	*m = MixedText(strings.Join(parts, " "))
	return nil
}

// Decode parses a test case definition.
func Decode(r io.Reader) (*TestCase, error) {
	var tc TestCase
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&tc); err != nil {
		return nil, fmt.Errorf("failed to parse test case XML: %w", err)
	}
	return &tc, nil
}

// DecodeBytes is Decode over an in-memory document.
func DecodeBytes(data []byte) (*TestCase, error) {
	return Decode(bytes.NewReader(data))
}
