package scraper

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NopReporter discards everything
type NopReporter struct{}

func (NopReporter) Stage(Stage, string) {}
func (NopReporter) Finished(*Result)    {}

// MultiReporter fans out to several reporters in order
type MultiReporter []Reporter

func (m MultiReporter) Stage(stage Stage, detail string) {
	for _, r := range m {
		r.Stage(stage, detail)
	}
}

func (m MultiReporter) Finished(result *Result) {
	for _, r := range m {
		r.Finished(result)
	}
}

// LogReporter writes progress and results to a zerolog logger
type LogReporter struct {
	Logger *zerolog.Logger
}

func (l LogReporter) logger() *zerolog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return &log.Logger
}

func (l LogReporter) Stage(stage Stage, detail string) {
	l.logger().Debug().Stringer("stage", stage).Str("detail", detail).Msg("Stage started")
}

func (l LogReporter) Finished(result *Result) {
	var ev *zerolog.Event
	switch result.Outcome {
	case OutcomeRecords:
		ev = l.logger().Info()
	case OutcomeNoData:
		ev = l.logger().Warn()
	default:
		ev = l.logger().Error().Err(result.Err)
	}
	ev.Str("url", result.URL).
		Stringer("outcome", result.Outcome).
		Int("records", len(result.Records)).
		Dur("elapsed", result.FinishedAt.Sub(result.StartedAt)).
		Msg(result.Status())
}
