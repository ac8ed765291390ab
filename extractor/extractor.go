// Package extractor turns a parsed document into tabular records.
//
// Every candidate node gets at most one generic record (attribute value or
// text) followed by its tag-specific records. Specializations are additive,
// so a <pre> selected by tag produces its text twice.
package extractor

import (
	"fmt"
	"strings"

	"html-scraper/filter"
	"html-scraper/models"
	"html-scraper/parser"
)

// Extractor applies selection criteria to a document tree
type Extractor struct {
	criteria models.SelectionCriteria
	filter   *filter.Filter
}

// NewExtractor creates a new Extractor instance
func NewExtractor(criteria models.SelectionCriteria) *Extractor {
	return &Extractor{
		criteria: criteria,
		filter:   filter.NewFilter(criteria),
	}
}

// Extract is a shorthand for NewExtractor(criteria).Extract(root)
func Extract(root parser.Node, criteria models.SelectionCriteria) models.RecordSet {
	return NewExtractor(criteria).Extract(root)
}

// Extract walks the tree and returns records in document order. It never fails.
func (e *Extractor) Extract(root parser.Node) models.RecordSet {
	records := models.RecordSet{}
	for _, n := range e.filter.Candidates(root) {
		records = e.appendGeneric(records, n)
		records = e.appendSpecialized(records, n)
	}
	return records
}

func (e *Extractor) appendGeneric(records models.RecordSet, n parser.Node) models.RecordSet {
	if e.criteria.Attribute != "" {
		value, ok := n.Attr(e.criteria.Attribute)
		if !ok || value == "" {
			return records
		}
		return append(records, models.Record{TagName: n.Name(), Content: e.clean(value)})
	}

	content := e.text(n)
	if content == "" {
		return records
	}
	return append(records, models.Record{TagName: n.Name(), Content: content})
}

func (e *Extractor) appendSpecialized(records models.RecordSet, n parser.Node) models.RecordSet {
	switch n.Name() {
	case "pre", "code":
		records = append(records, models.Record{TagName: n.Name(), Content: e.text(n)})
	case "a":
		href, ok := n.Attr("href")
		if !ok || href == "" {
			break
		}
		content := fmt.Sprintf("%s (URL: %s)", e.text(n), e.clean(href))
		records = append(records, models.Record{TagName: n.Name(), Content: content})
	}
	return records
}

// text returns the trimmed, normalized inner text of a node
func (e *Extractor) text(n parser.Node) string {
	return e.clean(strings.TrimSpace(n.Text()))
}

func (e *Extractor) clean(s string) string {
	return Normalize(s, e.criteria.StripNonASCII)
}
