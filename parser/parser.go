// Package parser turns raw markup into a read-only element tree.
//
// Parsing never fails: malformed markup degrades to whatever tree the
// underlying HTML5 parser recovers, and unreadable input yields an empty
// document. Callers must not treat an empty tree as an error.
//
// Both engines follow the HTML5 tree construction rules, so html, head and
// body elements are always present even when the markup omits them. A
// fragment such as <p>hi</p> therefore yields html, head, body and p.
package parser

import (
	"fmt"
	"strings"
)

// Node is the read-only view of an element that extraction works against
type Node interface {
	// Name returns the lowercase element name
	Name() string
	// Text returns the concatenated text of the node and its descendants,
	// leaving out script, style and template content below the node
	Text() string
	// Attr looks up an attribute value
	Attr(name string) (string, bool)
	// Children returns element children in document order
	Children() []Node
}

// Parser converts markup into a tree rooted at a document node
type Parser interface {
	Parse(markup string) Node
}

// Engine names accepted by New
const (
	EngineGoquery = "goquery"
	EngineXPath   = "xpath"
)

// New returns the parser for the named engine
func New(engine string) (Parser, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineGoquery:
		return NewGoquery(), nil
	case EngineXPath:
		return NewXPath(), nil
	default:
		return nil, fmt.Errorf("unknown parser engine: %s", engine)
	}
}

// Walk visits every element below root in pre-order. The root itself is not visited.
func Walk(root Node, visit func(Node)) {
	if root == nil {
		return
	}
	for _, child := range root.Children() {
		visit(child)
		Walk(child, visit)
	}
}
