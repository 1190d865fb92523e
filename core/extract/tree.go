package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/FocuswithJustin/lectio/core/errors"
)

// Node is a generic document node shared by the JSON and XML readers.
// Element-like nodes carry Name, Attrs and Children; text nodes carry Text only.
type Node struct {
	Name     string
	Attrs    map[string]string
	Text     string
	Children []*Node
}

// Child returns the first direct child called name.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Find follows a dotted path of child names. An empty path returns n.
func (n *Node) Find(path string) *Node {
	cur := n
	if path == "" {
		return cur
	}
	for _, part := range strings.Split(path, ".") {
		if cur = cur.Child(part); cur == nil {
			return nil
		}
	}
	return cur
}

// InnerText concatenates every text fragment below n in document order.
func (n *Node) InnerText() string {
	var b strings.Builder
	var walk func(*Node)
	walk = func(x *Node) {
		b.WriteString(x.Text)
		for _, c := range x.Children {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// markerKeys are the field and attribute names that carry a verse number.
var markerKeys = []string{"number", "verse", "verseId", "verse_id", "vid", "n", "osisID", "sID", "data-number"}

// textKeys are the JSON fields whose string values are verse text.
var textKeys = map[string]bool{"text": true, "content": true, "#text": true}

// containers name structural nodes whose numbering is not a verse number.
var containers = map[string]bool{"book": true, "chapter": true, "div": true, "osisText": true}

// skipped subtrees never contribute text.
var skipped = map[string]bool{"note": true, "title": true, "heading": true}

// FromJSON reads a JSON document into a Node tree, keeping object keys in
// document order. Scalar fields become attributes, except text fields which
// become text children. Fields of a nested "attrs" object are merged into the
// parent's attributes. When root is non-empty the node at that dotted path is
// returned.
func FromJSON(body []byte, root string) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	doc, err := decodeValue(dec, "")
	if err != nil {
		return nil, errors.NewParse("json", "", err.Error())
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.NewParse("json", "", "trailing data after document")
	}

	n := doc.node.Find(root)
	if n == nil {
		return nil, errors.Wrapf(errors.ErrNoContent, "json: no node at %q", root)
	}
	return n, nil
}

// jsonValue is a decoded JSON value before it is attached to its parent.
type jsonValue struct {
	node   *Node
	scalar bool
}

func decodeValue(dec *json.Decoder, name string) (jsonValue, error) {
	tok, err := dec.Token()
	if err != nil {
		return jsonValue{}, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			n, err := decodeObject(dec, name)
			return jsonValue{node: n}, err
		case '[':
			n, err := decodeArray(dec, name)
			return jsonValue{node: n}, err
		}
		return jsonValue{}, fmt.Errorf("unexpected delimiter %v", t)
	case string:
		return jsonValue{node: &Node{Name: name, Text: t}, scalar: true}, nil
	case json.Number:
		return jsonValue{node: &Node{Name: name, Text: t.String()}, scalar: true}, nil
	case bool:
		return jsonValue{node: &Node{Name: name, Text: strconv.FormatBool(t)}, scalar: true}, nil
	default:
		return jsonValue{node: &Node{Name: name}, scalar: true}, nil
	}
}

func decodeObject(dec *json.Decoder, name string) (*Node, error) {
	n := &Node{Name: name, Attrs: map[string]string{}}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key is %T", tok)
		}
		v, err := decodeValue(dec, key)
		if err != nil {
			return nil, err
		}
		switch {
		case v.scalar && textKeys[key]:
			n.Children = append(n.Children, v.node)
		case v.scalar:
			n.Attrs[key] = v.node.Text
		case key == "attrs":
			for k, val := range v.node.Attrs {
				n.Attrs[k] = val
			}
		default:
			n.Children = append(n.Children, v.node)
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	// Tagged content trees ({"name": "verse", "type": "tag"}) name themselves.
	if n.Attrs["type"] == "tag" && n.Attrs["name"] != "" {
		n.Name = n.Attrs["name"]
	}
	return n, nil
}

func decodeArray(dec *json.Decoder, name string) (*Node, error) {
	n := &Node{Name: name}
	for dec.More() {
		v, err := decodeValue(dec, name)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, v.node)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return n, nil
}

// FromXML reads an XML document into a Node tree. When root is non-empty it
// is compiled as an XPath expression and the first matching element is returned.
func FromXML(body []byte, root string) (*Node, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewParse("xml", "", err.Error())
	}

	top := doc
	if root != "" {
		expr, err := xpath.Compile(root)
		if err != nil {
			return nil, errors.NewParse("xpath", root, err.Error())
		}
		if top = xmlquery.QuerySelector(doc, expr); top == nil {
			return nil, errors.Wrapf(errors.ErrNoContent, "xml: no node at %q", root)
		}
	}
	return convertXML(top), nil
}

func convertXML(x *xmlquery.Node) *Node {
	n := &Node{}
	switch x.Type {
	case xmlquery.TextNode, xmlquery.CharDataNode:
		n.Text = x.Data
		return n
	case xmlquery.ElementNode:
		n.Name = x.Data
		if len(x.Attr) > 0 {
			n.Attrs = make(map[string]string, len(x.Attr))
			for _, a := range x.Attr {
				n.Attrs[a.Name.Local] = a.Value
			}
		}
	}
	for c := x.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case xmlquery.ElementNode, xmlquery.TextNode, xmlquery.CharDataNode:
			n.Children = append(n.Children, convertXML(c))
		}
	}
	return n
}

// Walk traverses root in document order and returns cleaned verse texts
// sorted by verse number. A verse marker stays current until the next marker
// or an end marker (eID). Text seen before any marker is dropped, as are
// fragments that are only a number. Fragments of one verse are joined with sep.
func Walk(root *Node, sep string) []string {
	w := walker{verses: make(map[int][]string), sep: sep}
	w.walk(root)
	return w.result()
}

type walker struct {
	verses  map[int][]string
	current int
	sep     string
}

func (w *walker) walk(n *Node) {
	if skipped[n.Name] {
		return
	}
	if v, ok := verseMarker(n); ok {
		w.current = v
	}
	if n.Text != "" && w.current > 0 && !isNumeric(strings.TrimSpace(n.Text)) {
		w.verses[w.current] = append(w.verses[w.current], n.Text)
	}
	for _, c := range n.Children {
		w.walk(c)
	}
}

func (w *walker) result() []string {
	nums := make([]int, 0, len(w.verses))
	for v := range w.verses {
		nums = append(nums, v)
	}
	sort.Ints(nums)

	out := make([]string, 0, len(nums))
	for _, v := range nums {
		text := Clean(strings.Join(w.verses[v], w.sep))
		if text != "" {
			out = append(out, text)
		}
	}
	return out
}

// verseMarker reports the verse number n declares. An end marker reports 0.
func verseMarker(n *Node) (int, bool) {
	if len(n.Attrs) == 0 || containers[n.Name] {
		return 0, false
	}
	if _, ok := n.Attrs["eID"]; ok {
		return 0, true
	}
	for _, key := range markerKeys {
		if raw, ok := n.Attrs[key]; ok {
			if v, ok := parseMarker(raw); ok {
				return v, true
			}
		}
	}
	return 0, false
}

// parseMarker accepts "12", "[12]" or a dotted id like "GEN.1.12" / "Gen.1.12".
// Dotted ids need book, chapter and verse parts. Lists and ranges use their first id.
func parseMarker(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexAny(raw, " -"); i > 0 {
		raw = raw[:i]
	}
	raw = strings.Trim(raw, "[]")

	if strings.Contains(raw, ".") {
		parts := strings.Split(raw, ".")
		if len(parts) < 3 {
			return 0, false
		}
		raw = parts[len(parts)-1]
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, false
	}
	return v, true
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
