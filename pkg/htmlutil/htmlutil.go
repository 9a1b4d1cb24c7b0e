// Package htmlutil exposes a parsed html page as a read-only tree.
//
// Scrapers depend on the Document and Node interfaces instead of goquery directly
// so fixtures and alternative parsers can stand in for real pages.
package htmlutil

import (
	"bytes"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Node is a read-only view of a single html element.
type Node interface {
	// Tag returns the lowercase tag name of the element.
	Tag() string
	// Attr returns the value of the named attribute and whether it exists.
	Attr(name string) (string, bool)
	// Text returns the combined text of the element and all of its children,
	// with whitespace collapsed into single spaces and trimmed.
	Text() string
	// Children returns the element children in document order.
	Children() []Node
}

// Document is a parsed html page.
type Document interface {
	Node
	// ElementsByTag returns every element with the given tag in document order.
	ElementsByTag(tag string) []Node
	// ElementsByAttributeValue returns every element whose attribute `name` is exactly `value`.
	ElementsByAttributeValue(name, value string) []Node
}

// ParseDocument parses an html page.
func ParseDocument(r io.Reader) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	return NewDocument(doc), nil
}

// ParseString parses an html page held in memory.
func ParseString(contents string) (Document, error) {
	return ParseDocument(strings.NewReader(contents))
}

// NewDocument wraps an already parsed goquery document.
func NewDocument(doc *goquery.Document) Document {
	return document{element: element{sel: doc.Selection}}
}

type element struct {
	sel *goquery.Selection
}

func (e element) Tag() string {
	return goquery.NodeName(e.sel)
}

func (e element) Attr(name string) (string, bool) {
	return e.sel.Attr(name)
}

func (e element) Text() string {
	if len(e.sel.Nodes) == 0 {
		return ""
	}
	return NormalizedText(e.sel.Nodes[0])
}

func (e element) Children() []Node {
	return wrap(e.sel.Children())
}

func wrap(sel *goquery.Selection) []Node {
	nodes := make([]Node, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, element{sel: s})
	})
	return nodes
}

type document struct {
	element
}

func (d document) ElementsByTag(tag string) []Node {
	return wrap(d.sel.Find(strings.ToLower(tag)))
}

func (d document) ElementsByAttributeValue(name, value string) []Node {
	matches := d.sel.Find("*").FilterFunction(func(_ int, s *goquery.Selection) bool {
		attr, ok := s.Attr(name)
		return ok && attr == value
	})
	return wrap(matches)
}

// NormalizedText returns the text of a node the way a browser would render it on one line:
// block level elements are separated by a space, whitespace runs collapse into
// a single space and the result is trimmed. Script and style contents are ignored.
func NormalizedText(node *html.Node) string {
	var buffer bytes.Buffer
	writeText(node, &buffer)
	return strings.Join(strings.Fields(buffer.String()), " ")
}

func writeText(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	if node.Type == html.ElementNode {
		if node.DataAtom == atom.Script || node.DataAtom == atom.Style {
			return
		}
		if isBlock(node.DataAtom) {
			buffer.WriteByte(' ')
		}
	}
	child := node.FirstChild
	for child != nil {
		writeText(child, buffer)
		child = child.NextSibling
	}
}

var blockElements = map[atom.Atom]struct{}{
	atom.Address: {}, atom.Article: {}, atom.Aside: {}, atom.Blockquote: {},
	atom.Br: {}, atom.Caption: {}, atom.Dd: {}, atom.Div: {}, atom.Dl: {}, atom.Dt: {},
	atom.Fieldset: {}, atom.Figcaption: {}, atom.Figure: {}, atom.Footer: {}, atom.Form: {},
	atom.H1: {}, atom.H2: {}, atom.H3: {}, atom.H4: {}, atom.H5: {}, atom.H6: {},
	atom.Header: {}, atom.Hr: {}, atom.Li: {}, atom.Main: {}, atom.Nav: {}, atom.Ol: {},
	atom.P: {}, atom.Pre: {}, atom.Section: {}, atom.Table: {}, atom.Tbody: {}, atom.Td: {},
	atom.Tfoot: {}, atom.Th: {}, atom.Thead: {}, atom.Tr: {}, atom.Ul: {},
}

func isBlock(a atom.Atom) bool {
	_, ok := blockElements[a]
	return ok
}
