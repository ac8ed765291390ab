package filter

import (
	"strings"

	"html-scraper/models"
	"html-scraper/parser"
)

// Filter decides which nodes are extraction candidates
type Filter struct {
	tag       string
	className string
}

// NewFilter creates a new Filter instance.
// A class name without a tag is ignored: every node is then a candidate.
func NewFilter(criteria models.SelectionCriteria) *Filter {
	f := &Filter{
		tag: strings.ToLower(strings.TrimSpace(criteria.Tag)),
	}
	if f.tag != "" {
		f.className = strings.TrimSpace(criteria.ClassName)
	}
	return f
}

// Candidates returns the matching nodes below root in document order
func (f *Filter) Candidates(root parser.Node) []parser.Node {
	var out []parser.Node
	parser.Walk(root, func(n parser.Node) {
		if f.Matches(n) {
			out = append(out, n)
		}
	})
	return out
}

// Matches checks if a node satisfies the tag and class criteria
func (f *Filter) Matches(n parser.Node) bool {
	if f.tag == "" {
		return true
	}
	if n.Name() != f.tag {
		return false
	}
	if f.className == "" {
		return true
	}
	return hasClass(n, f.className)
}

// hasClass reports class membership. The whole attribute value is also
// accepted so that "btn primary" matches class="btn primary".
func hasClass(n parser.Node, className string) bool {
	classes, ok := n.Attr("class")
	if !ok {
		return false
	}
	if strings.TrimSpace(classes) == className {
		return true
	}
	for _, c := range strings.Fields(classes) {
		if c == className {
			return true
		}
	}
	return false
}
