// Package extract turns raw provider response bodies into an ordered list of
// clean verse strings.
//
// Every provider declares the Layout of its responses up front. Extraction
// never sniffs the body to guess its shape:
//
//	ShapeJSONTree      JSON document walked as a tree of nodes
//	ShapeXMLTree       XML document (OSIS and similar) walked as a tree of nodes
//	ShapeNumberedText  plain text with inline verse numbers
package extract

import (
	"fmt"

	"github.com/FocuswithJustin/lectio/core/errors"
)

// Shape identifies the extraction strategy for a response body.
type Shape int

const (
	ShapeJSONTree Shape = iota + 1
	ShapeXMLTree
	ShapeNumberedText
)

func (s Shape) String() string {
	switch s {
	case ShapeJSONTree:
		return "json-tree"
	case ShapeXMLTree:
		return "xml-tree"
	case ShapeNumberedText:
		return "numbered-text"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

// Layout pairs a Shape with an optional root inside the document.
//
// For JSON bodies Root is a dotted path of object keys ("data.content").
// For XML bodies Root is an XPath expression ("//chapter").
// ShapeNumberedText with a Root reads the text from that path of a JSON body;
// without a Root the whole body is the text.
type Layout struct {
	Shape Shape
	Root  string
}

// Extract parses body according to layout and returns cleaned verses ordered
// by verse number. It returns an error wrapping errors.ErrNoContent when the
// body holds no plausible verses, and a *errors.ParseError when the body is
// malformed for the declared shape.
func Extract(layout Layout, body []byte) ([]string, error) {
	var (
		verses []string
		err    error
	)

	switch layout.Shape {
	case ShapeJSONTree:
		var root *Node
		root, err = FromJSON(body, layout.Root)
		if err == nil {
			verses = Walk(root, " ")
		}
	case ShapeXMLTree:
		var root *Node
		root, err = FromXML(body, layout.Root)
		if err == nil {
			verses = Walk(root, "")
		}
	case ShapeNumberedText:
		text := string(body)
		if layout.Root != "" {
			var root *Node
			root, err = FromJSON(body, layout.Root)
			if err == nil {
				text = root.InnerText()
			}
		}
		if err == nil {
			verses = ScanNumbered(text)
		}
	default:
		return nil, errors.NewValidation("shape", fmt.Sprintf("unknown shape %v", layout.Shape))
	}
	if err != nil {
		return nil, err
	}

	if len(verses) == 0 {
		return nil, errors.Wrapf(errors.ErrNoContent, "%s: no verses", layout.Shape)
	}
	if !Plausible(verses) {
		return nil, errors.Wrapf(errors.ErrNoContent, "%s: implausible verses", layout.Shape)
	}
	return verses, nil
}
