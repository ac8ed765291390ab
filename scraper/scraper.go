package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"html-scraper/extractor"
	"html-scraper/fetcher"
	"html-scraper/models"
	"html-scraper/parser"

	"github.com/rs/zerolog/log"
)

// Stage names a step of a scrape run
type Stage int

const (
	StageFetch Stage = iota + 1
	StageParse
	StageExtract
	StageExport
)

func (s Stage) String() string {
	switch s {
	case StageFetch:
		return "fetch"
	case StageParse:
		return "parse"
	case StageExtract:
		return "extract"
	case StageExport:
		return "export"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Outcome is the terminal state of a run
type Outcome int

const (
	// OutcomeRecords means at least one record was extracted
	OutcomeRecords Outcome = iota + 1
	// OutcomeNoData means the page was fetched but nothing matched
	OutcomeNoData
	// OutcomeFetchFailed means no document was retrieved
	OutcomeFetchFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRecords:
		return "done"
	case OutcomeNoData:
		return "no_data"
	case OutcomeFetchFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Status describes the outcome without run details
func (o Outcome) Status() string {
	switch o {
	case OutcomeRecords:
		return "records extracted"
	case OutcomeNoData:
		return "page fetched but nothing matched the selection"
	case OutcomeFetchFailed:
		return "fetch failed"
	default:
		return "unknown"
	}
}

// Result describes a finished run
type Result struct {
	URL      string
	AuthMode models.AuthMode
	Criteria models.SelectionCriteria

	Outcome Outcome
	Records models.RecordSet
	// Err is the fetch error when Outcome is OutcomeFetchFailed
	Err error
	// ExportErrors collects exporter failures; they do not change the outcome
	ExportErrors []error

	StartedAt  time.Time
	FinishedAt time.Time
}

// Status returns a human-readable status that tells the failure modes apart
func (r *Result) Status() string {
	switch r.Outcome {
	case OutcomeRecords:
		return fmt.Sprintf("extracted %d records", len(r.Records))
	case OutcomeFetchFailed:
		var fe *fetcher.FetchError
		if errors.As(r.Err, &fe) {
			if fe.Reason == fetcher.NonOkStatus {
				return fmt.Sprintf("site returned HTTP %d", fe.StatusCode)
			}
			return fe.Reason.Status()
		}
		if errors.Is(r.Err, models.ErrInvalidRequest) {
			return "invalid request"
		}
	}
	return r.Outcome.Status()
}

// Reporter receives progress and the final result of a run
type Reporter interface {
	Stage(stage Stage, detail string)
	Finished(result *Result)
}

// Exporter consumes the records of a successful run
type Exporter interface {
	Name() string
	Export(ctx context.Context, result *Result) error
}

// Scraper runs fetch, parse, extract and export for one page
type Scraper struct {
	fetcher   fetcher.Fetcher
	parser    parser.Parser
	reporter  Reporter
	exporters []Exporter
	now       func() time.Time
}

// Option configures a Scraper
type Option func(*Scraper)

// WithReporter sets the reporter that receives progress and results
func WithReporter(r Reporter) Option {
	return func(s *Scraper) {
		s.reporter = r
	}
}

// WithExporters appends exporters that run when records were extracted
func WithExporters(exporters ...Exporter) Option {
	return func(s *Scraper) {
		s.exporters = append(s.exporters, exporters...)
	}
}

// New creates a new Scraper instance
func New(f fetcher.Fetcher, p parser.Parser, opts ...Option) *Scraper {
	s := &Scraper{
		fetcher:  f,
		parser:   p,
		reporter: NopReporter{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run scrapes one page. A fetch failure halts the run and is returned as
// error together with a result whose Outcome is OutcomeFetchFailed. An empty
// record set is not an error.
func (s *Scraper) Run(ctx context.Context, req models.FetchRequest, criteria models.SelectionCriteria) (*Result, error) {
	result := &Result{
		URL:       req.URL,
		AuthMode:  req.AuthMode,
		Criteria:  criteria,
		StartedAt: s.now(),
	}

	s.reporter.Stage(StageFetch, req.URL)
	markup, err := s.fetcher.Fetch(ctx, req)
	if err != nil {
		result.Outcome = OutcomeFetchFailed
		result.Err = err
		s.finish(result)
		return result, err
	}

	s.reporter.Stage(StageParse, fmt.Sprintf("%d bytes", len(markup)))
	root := s.parser.Parse(markup)

	s.reporter.Stage(StageExtract, "")
	result.Records = extractor.Extract(root, criteria)
	if len(result.Records) == 0 {
		result.Outcome = OutcomeNoData
		s.finish(result)
		return result, nil
	}
	result.Outcome = OutcomeRecords

	for _, e := range s.exporters {
		s.reporter.Stage(StageExport, e.Name())
		if err := e.Export(ctx, result); err != nil {
			log.Error().Err(err).Str("exporter", e.Name()).Msg("Export failed")
			result.ExportErrors = append(result.ExportErrors, fmt.Errorf("%s: %w", e.Name(), err))
		}
	}

	s.finish(result)
	return result, nil
}

func (s *Scraper) finish(result *Result) {
	result.FinishedAt = s.now()
	s.reporter.Finished(result)
}
