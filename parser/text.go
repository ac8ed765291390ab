package parser

import (
	"strings"

	"golang.org/x/net/html"
)

// hiddenText lists elements whose text is not part of a parent's visible text
var hiddenText = map[string]bool{
	"script":   true,
	"style":    true,
	"template": true,
}

// innerText concatenates the text below n in document order. Text inside
// script, style and template descendants is skipped; when n is itself one
// of those elements its own text is returned.
func innerText(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		switch c.Type {
		case html.TextNode:
			b.WriteString(c.Data)
			return
		case html.CommentNode:
			return
		case html.ElementNode:
			if c != n && hiddenText[c.Data] {
				return
			}
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}
