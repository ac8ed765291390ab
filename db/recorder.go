package db

import (
	"context"
	"time"

	"html-scraper/models"
	"html-scraper/scraper"

	"github.com/rs/zerolog/log"
)

// opTimeout bounds each history write so a slow database cannot hang a run
const opTimeout = 10 * time.Second

type runStore interface {
	CreateRun(ctx context.Context, url string, authMode models.AuthMode) (*Run, error)
	FinishRun(ctx context.Context, runID int, f RunFinish) error
	SaveRecords(ctx context.Context, runID int, records models.RecordSet) error
}

// Recorder keeps run history. It implements scraper.Reporter: the run row is
// created when the fetch starts and finished with the outcome, and records
// are saved for runs that produced any. History failures are logged and never
// fail the run.
type Recorder struct {
	store runStore
	runID int
}

// NewRecorder creates a Recorder writing to db
func NewRecorder(db *DB) *Recorder {
	return &Recorder{store: db}
}

// RunID returns the ID of the current run, or 0 before the fetch started
func (r *Recorder) RunID() int {
	return r.runID
}

func (r *Recorder) Stage(stage scraper.Stage, detail string) {
	if stage != scraper.StageFetch {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	run, err := r.store.CreateRun(ctx, detail, models.AuthNone)
	if err != nil {
		log.Error().Err(err).Str("url", detail).Msg("Failed to record run start")
		return
	}
	r.runID = run.ID
	log.Debug().Int("run_id", run.ID).Msg("Run recorded")
}

func (r *Recorder) Finished(result *scraper.Result) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if r.runID == 0 {
		run, err := r.store.CreateRun(ctx, result.URL, result.AuthMode)
		if err != nil {
			log.Error().Err(err).Str("url", result.URL).Msg("Failed to record run")
			return
		}
		r.runID = run.ID
	}

	if len(result.Records) > 0 {
		if err := r.store.SaveRecords(ctx, r.runID, result.Records); err != nil {
			log.Error().Err(err).Int("run_id", r.runID).Msg("Failed to save records")
		}
	}

	f := RunFinish{
		Status:       statusOf(result.Outcome),
		RecordsCount: len(result.Records),
		AuthMode:     result.AuthMode,
		Criteria:     result.Criteria,
	}
	if result.Err != nil {
		f.Error = result.Status() + ": " + result.Err.Error()
	}
	if err := r.store.FinishRun(ctx, r.runID, f); err != nil {
		log.Error().Err(err).Int("run_id", r.runID).Msg("Failed to record run outcome")
	}
}

func statusOf(o scraper.Outcome) string {
	switch o {
	case scraper.OutcomeRecords:
		return StatusDone
	case scraper.OutcomeNoData:
		return StatusNoData
	default:
		return StatusFailed
	}
}
