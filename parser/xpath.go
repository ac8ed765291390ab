package parser

import (
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// XPathParser parses documents with htmlquery
type XPathParser struct{}

// NewXPath creates a new XPathParser instance
func NewXPath() *XPathParser {
	return &XPathParser{}
}

// Parse implements the Parser interface
func (p *XPathParser) Parse(markup string) Node {
	doc, err := htmlquery.Parse(strings.NewReader(markup))
	if err != nil || doc == nil {
		return htmlNode{&html.Node{Type: html.DocumentNode}}
	}
	return htmlNode{doc}
}

type htmlNode struct {
	n *html.Node
}

func (n htmlNode) Name() string {
	if n.n.Type == html.DocumentNode {
		return "#document"
	}
	return n.n.Data
}

func (n htmlNode) Text() string {
	return innerText(n.n)
}

// Attr distinguishes a missing attribute from an empty one, which
// htmlquery.SelectAttr does not.
func (n htmlNode) Attr(name string) (string, bool) {
	for _, a := range n.n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func (n htmlNode) Children() []Node {
	var nodes []Node
	for c := n.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			nodes = append(nodes, htmlNode{c})
		}
	}
	return nodes
}
