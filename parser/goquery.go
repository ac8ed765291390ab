package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// GoqueryParser parses documents with goquery
type GoqueryParser struct{}

// NewGoquery creates a new GoqueryParser instance
func NewGoquery() *GoqueryParser {
	return &GoqueryParser{}
}

// Parse implements the Parser interface
func (p *GoqueryParser) Parse(markup string) Node {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		// Only reader failures end up here; hand back an empty document
		return selectionNode{goquery.NewDocumentFromNode(&html.Node{Type: html.DocumentNode}).Selection}
	}
	return selectionNode{doc.Selection}
}

// selectionNode wraps a single-node goquery selection
type selectionNode struct {
	s *goquery.Selection
}

func (n selectionNode) Name() string {
	return goquery.NodeName(n.s)
}

func (n selectionNode) Text() string {
	if n.s.Length() == 0 {
		return ""
	}
	return innerText(n.s.Get(0))
}

func (n selectionNode) Attr(name string) (string, bool) {
	return n.s.Attr(name)
}

func (n selectionNode) Children() []Node {
	children := n.s.Children()
	nodes := make([]Node, 0, children.Length())
	children.Each(func(_ int, c *goquery.Selection) {
		nodes = append(nodes, selectionNode{c})
	})
	return nodes
}
