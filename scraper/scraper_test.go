package scraper

import (
	"context"
	"errors"
	"testing"

	"html-scraper/config"
	"html-scraper/fetcher"
	"html-scraper/models"
	"html-scraper/parser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	html string
	err  error
}

func (f fakeFetcher) Fetch(ctx context.Context, req models.FetchRequest) (string, error) {
	return f.html, f.err
}

type countingParser struct {
	parser.Parser
	calls int
}

func (c *countingParser) Parse(markup string) parser.Node {
	c.calls++
	return c.Parser.Parse(markup)
}

type fakeExporter struct {
	name  string
	err   error
	calls int
	seen  models.RecordSet
}

func (e *fakeExporter) Name() string { return e.name }

func (e *fakeExporter) Export(ctx context.Context, result *Result) error {
	e.calls++
	e.seen = result.Records
	return e.err
}

type recordingReporter struct {
	stages   []Stage
	finished []*Result
}

func (r *recordingReporter) Stage(stage Stage, detail string) {
	r.stages = append(r.stages, stage)
}

func (r *recordingReporter) Finished(result *Result) {
	r.finished = append(r.finished, result)
}

const jobsPage = `<html><body>
<h4 class="job">Go Engineer</h4>
<h4 class="job other">SRE</h4>
<h4>Unrelated</h4>
</body></html>`

func newParser(t *testing.T) *countingParser {
	t.Helper()
	p, err := parser.New(parser.EngineGoquery)
	require.NoError(t, err)
	return &countingParser{Parser: p}
}

func TestRun_Records(t *testing.T) {
	p := newParser(t)
	exp := &fakeExporter{name: "csv"}
	rep := &recordingReporter{}

	s := New(fakeFetcher{html: jobsPage}, p, WithReporter(rep), WithExporters(exp))
	result, err := s.Run(context.Background(),
		models.FetchRequest{URL: "https://jobs.test"},
		models.SelectionCriteria{Tag: "h4", ClassName: "job"})
	require.NoError(t, err)

	expected := models.RecordSet{
		{TagName: "h4", Content: "Go Engineer"},
		{TagName: "h4", Content: "SRE"},
	}
	assert.Equal(t, OutcomeRecords, result.Outcome)
	assert.Equal(t, expected, result.Records)
	assert.Equal(t, expected, exp.seen)
	assert.Equal(t, "extracted 2 records", result.Status())
	assert.Equal(t, []Stage{StageFetch, StageParse, StageExtract, StageExport}, rep.stages)
	require.Len(t, rep.finished, 1)
	assert.Same(t, result, rep.finished[0])
	assert.False(t, result.FinishedAt.Before(result.StartedAt))
}

func TestRun_NoData(t *testing.T) {
	p := newParser(t)
	exp := &fakeExporter{name: "csv"}

	s := New(fakeFetcher{html: `<html><body><p>nothing</p></body></html>`}, p, WithExporters(exp))
	result, err := s.Run(context.Background(),
		models.FetchRequest{URL: "https://jobs.test"},
		models.SelectionCriteria{Tag: "h4"})
	require.NoError(t, err)

	assert.Equal(t, OutcomeNoData, result.Outcome)
	assert.Empty(t, result.Records)
	assert.Zero(t, exp.calls)
	assert.Equal(t, "page fetched but nothing matched the selection", result.Status())
}

func TestRun_FetchFailureHalts(t *testing.T) {
	p := newParser(t)
	exp := &fakeExporter{name: "csv"}
	rep := &recordingReporter{}
	fetchErr := &fetcher.FetchError{Reason: fetcher.NetworkFailure, URL: "https://down.test", Err: errors.New("refused")}

	s := New(fakeFetcher{err: fetchErr}, p, WithReporter(rep), WithExporters(exp))
	result, err := s.Run(context.Background(),
		models.FetchRequest{URL: "https://down.test"},
		models.SelectionCriteria{Tag: "h4"})
	require.Error(t, err)

	assert.Equal(t, fetcher.NetworkFailure, fetcher.ReasonOf(err))
	assert.Equal(t, OutcomeFetchFailed, result.Outcome)
	assert.Empty(t, result.Records)
	assert.Zero(t, p.calls)
	assert.Zero(t, exp.calls)
	assert.Equal(t, []Stage{StageFetch}, rep.stages)
	assert.Equal(t, fetcher.NetworkFailure.Status(), result.Status())
}

func TestRun_UnreachableSite(t *testing.T) {
	p := newParser(t)
	exp := &fakeExporter{name: "csv"}
	f := fetcher.NewCollyFetcher(config.GetDefaultConfig().HTTP)

	s := New(f, p, WithExporters(exp))
	result, err := s.Run(context.Background(),
		models.FetchRequest{URL: "http://127.0.0.1:1/"},
		models.SelectionCriteria{Tag: "h4"})
	require.Error(t, err)

	assert.Equal(t, OutcomeFetchFailed, result.Outcome)
	assert.Empty(t, result.Records)
	assert.Zero(t, p.calls)
	assert.Zero(t, exp.calls)
}

func TestRun_ExportErrorsCollected(t *testing.T) {
	p := newParser(t)
	broken := &fakeExporter{name: "sheets", err: errors.New("quota exceeded")}
	ok := &fakeExporter{name: "csv"}

	s := New(fakeFetcher{html: jobsPage}, p, WithExporters(broken, ok))
	result, err := s.Run(context.Background(),
		models.FetchRequest{URL: "https://jobs.test"},
		models.SelectionCriteria{Tag: "h4"})
	require.NoError(t, err)

	assert.Equal(t, OutcomeRecords, result.Outcome)
	assert.Len(t, result.Records, 3)
	assert.Equal(t, 1, ok.calls)
	require.Len(t, result.ExportErrors, 1)
	assert.ErrorContains(t, result.ExportErrors[0], "sheets: quota exceeded")
}

func TestResultStatus(t *testing.T) {
	tests := []struct {
		name     string
		result   Result
		expected string
	}{
		{
			name:     "non-ok status carries code",
			result:   Result{Outcome: OutcomeFetchFailed, Err: &fetcher.FetchError{Reason: fetcher.NonOkStatus, StatusCode: 503}},
			expected: "site returned HTTP 503",
		},
		{
			name:     "auth element",
			result:   Result{Outcome: OutcomeFetchFailed, Err: &fetcher.FetchError{Reason: fetcher.AuthElementNotFound}},
			expected: fetcher.AuthElementNotFound.Status(),
		},
		{
			name:     "invalid request",
			result:   Result{Outcome: OutcomeFetchFailed, Err: models.ErrInvalidRequest},
			expected: "invalid request",
		},
		{
			name:     "plain error",
			result:   Result{Outcome: OutcomeFetchFailed, Err: errors.New("boom")},
			expected: "fetch failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.result.Status())
		})
	}
}

func TestMultiReporter(t *testing.T) {
	a, b := &recordingReporter{}, &recordingReporter{}
	m := MultiReporter{a, b, NopReporter{}, LogReporter{}}

	m.Stage(StageFetch, "https://x.test")
	m.Finished(&Result{Outcome: OutcomeNoData})

	for _, r := range []*recordingReporter{a, b} {
		assert.Equal(t, []Stage{StageFetch}, r.stages)
		assert.Len(t, r.finished, 1)
	}
}

func TestOutcomeStatusesDistinct(t *testing.T) {
	seen := map[string]bool{}
	for _, o := range []Outcome{OutcomeRecords, OutcomeNoData, OutcomeFetchFailed} {
		assert.False(t, seen[o.Status()], "duplicate status %q", o.Status())
		seen[o.Status()] = true
	}
	assert.Equal(t, "unknown", Outcome(0).Status())
}
