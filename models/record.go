package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRequest is returned when a FetchRequest breaks its invariants
var ErrInvalidRequest = errors.New("invalid fetch request")

// AuthMode selects the retrieval strategy for a page
type AuthMode int

const (
	// AuthNone fetches the page with a single stateless GET
	AuthNone AuthMode = iota
	// AuthAuthenticated logs in through a browser session before loading the page
	AuthAuthenticated
)

func (m AuthMode) String() string {
	switch m {
	case AuthNone:
		return "none"
	case AuthAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("AuthMode(%d)", int(m))
	}
}

// Credentials are the login form values used by an authenticated fetch
type Credentials struct {
	Username string
	Password string
}

// FetchRequest describes a single page retrieval
type FetchRequest struct {
	URL         string
	AuthMode    AuthMode
	Credentials *Credentials
}

// Validate checks that credentials are present iff the request is authenticated
func (r FetchRequest) Validate() error {
	if strings.TrimSpace(r.URL) == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidRequest)
	}
	switch r.AuthMode {
	case AuthNone:
		if r.Credentials != nil {
			return fmt.Errorf("%w: credentials given without authentication", ErrInvalidRequest)
		}
	case AuthAuthenticated:
		if r.Credentials == nil {
			return fmt.Errorf("%w: authenticated fetch requires credentials", ErrInvalidRequest)
		}
	default:
		return fmt.Errorf("%w: unknown auth mode %d", ErrInvalidRequest, int(r.AuthMode))
	}
	return nil
}

// SelectionCriteria controls which nodes are extracted and how their text is cleaned.
// ClassName only applies when Tag is set.
type SelectionCriteria struct {
	Tag           string
	ClassName     string
	Attribute     string
	StripNonASCII bool
}

// Record is one extracted (tag, content) pair
type Record struct {
	TagName string
	Content string
}

// RecordSet holds records in document order
type RecordSet []Record

// Header is the column header used by tabular exporters
var Header = []string{"Tag", "Content/Attribute"}

// Rows returns the records as two-column rows, without header
func (rs RecordSet) Rows() [][]string {
	rows := make([][]string, 0, len(rs))
	for _, r := range rs {
		rows = append(rows, []string{r.TagName, r.Content})
	}
	return rows
}
