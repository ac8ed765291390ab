package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"html-scraper/config"
	"html-scraper/db"
	"html-scraper/export"
	"html-scraper/fetcher"
	"html-scraper/models"
	"html-scraper/scraper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitCode(t *testing.T) {
	fetchErr := &fetcher.FetchError{Reason: fetcher.NetworkFailure}

	assert.Equal(t, 0, exitCode(&scraper.Result{Outcome: scraper.OutcomeRecords}, nil))
	assert.Equal(t, 0, exitCode(&scraper.Result{Outcome: scraper.OutcomeNoData}, nil))
	assert.Equal(t, 1, exitCode(&scraper.Result{Outcome: scraper.OutcomeFetchFailed, Err: fetchErr}, fetchErr))
	assert.Equal(t, 1, exitCode(nil, errors.New("boom")))
}

func TestPrintOutcome(t *testing.T) {
	var buf bytes.Buffer
	printOutcome(&buf, &scraper.Result{Outcome: scraper.OutcomeNoData})
	assert.Equal(t, "No data was extracted.\n", buf.String())

	buf.Reset()
	printOutcome(&buf, &scraper.Result{
		Outcome: scraper.OutcomeFetchFailed,
		Err:     &fetcher.FetchError{Reason: fetcher.NonOkStatus, StatusCode: 404},
	})
	assert.Equal(t, "Unable to fetch the page content: site returned HTTP 404\n", buf.String())

	buf.Reset()
	printOutcome(&buf, &scraper.Result{Outcome: scraper.OutcomeRecords})
	assert.Empty(t, buf.String())
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.GetDefaultConfig().Login.URL, cfg.Login.URL)
}

func TestLoadConfig_InvalidEngine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("parser:\n  engine: regex\n"), 0600))

	_, err := loadConfig(path)
	assert.ErrorContains(t, err, "unknown parser engine")
}

func TestApplyFlags(t *testing.T) {
	cfg := config.GetDefaultConfig()
	applyFlags(cfg, options{engine: "xpath", output: "jobs", spreadsheet: "abc"})

	assert.Equal(t, "xpath", cfg.Parser.Engine)
	assert.Equal(t, "jobs", cfg.Export.CSV)
	assert.Equal(t, "abc", cfg.Export.SpreadsheetURL)
	assert.Empty(t, cfg.Export.Credentials)
}

func TestCollectInput_Flags(t *testing.T) {
	in, err := collectInput(options{url: "https://x.test", tag: "a", attr: "href", strip: true}, "output.csv")
	require.NoError(t, err)
	assert.Equal(t, models.FetchRequest{URL: "https://x.test"}, in.Request)
	assert.Equal(t, models.SelectionCriteria{Tag: "a", Attribute: "href", StripNonASCII: true}, in.Criteria)
	assert.Equal(t, "output.csv", in.Output)

	t.Setenv(passwordEnv, "s3cret")
	in, err = collectInput(options{url: "https://x.test", login: true, user: "me"}, "output.csv")
	require.NoError(t, err)
	assert.Equal(t, models.AuthAuthenticated, in.Request.AuthMode)
	assert.Equal(t, &models.Credentials{Username: "me", Password: "s3cret"}, in.Request.Credentials)
}

func TestBuildSinks_Defaults(t *testing.T) {
	t.Setenv("DB_HOST", "")
	var buf bytes.Buffer
	reporters, exporters, cleanup := buildSinks(context.Background(), config.GetDefaultConfig(), "output.csv", &buf)
	defer cleanup()

	assert.Len(t, reporters, 1)
	require.Len(t, exporters, 2)
	assert.IsType(t, &export.TableExporter{}, exporters[0])
	assert.Equal(t, "output.csv", exporters[1].(*export.CSVExporter).Path)
}

type fakeHistory struct {
	run     *db.Run
	records []db.StoredRecord
	err     error
}

func (f fakeHistory) GetRun(ctx context.Context, runID int) (*db.Run, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.run, nil
}

func (f fakeHistory) ListRecords(ctx context.Context, runID int) ([]db.StoredRecord, error) {
	return f.records, nil
}

func TestShowRun(t *testing.T) {
	history := fakeHistory{
		run: &db.Run{
			ID:           7,
			URL:          "https://jobs.test",
			Status:       db.StatusDone,
			RecordsCount: 2,
			CreatedAt:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		},
		records: []db.StoredRecord{
			{ID: 1, RunID: 7, Position: 1, Tag: "h4", Content: "Go Engineer"},
			{ID: 2, RunID: 7, Position: 2, Tag: "h4", Content: "SRE"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, showRun(context.Background(), &buf, history, 7))
	out := buf.String()
	assert.Contains(t, out, "Run 7: https://jobs.test done (2 records, 2024-05-01T12:00:00Z)")
	assert.Contains(t, out, "Go Engineer")
	assert.Contains(t, out, "SRE")
}

func TestShowRun_FailedRunWithoutRecords(t *testing.T) {
	history := fakeHistory{run: &db.Run{
		ID:     3,
		URL:    "https://down.test",
		Status: db.StatusFailed,
		Error:  sql.NullString{String: "site returned HTTP 404", Valid: true},
	}}

	var buf bytes.Buffer
	require.NoError(t, showRun(context.Background(), &buf, history, 3))
	assert.Contains(t, buf.String(), "Error: site returned HTTP 404\n")
	assert.NotContains(t, buf.String(), "Content/Attribute")
}

func TestShowRun_MissingRun(t *testing.T) {
	var buf bytes.Buffer
	err := showRun(context.Background(), &buf, fakeHistory{err: sql.ErrNoRows}, 99)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.Empty(t, buf.String())
}
