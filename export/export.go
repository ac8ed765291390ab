// Package export renders extracted records for the terminal and writes them
// to CSV files.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"html-scraper/models"
	"html-scraper/scraper"

	"github.com/rs/zerolog/log"
)

// RenderTable writes records as a numbered table with #, Tag and
// Content/Attribute columns. Numbering starts at 1.
func RenderTable(w io.Writer, records models.RecordSet) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "#\t%s\t%s\n", models.Header[0], models.Header[1])
	for i, r := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, r.TagName, singleLine(r.Content))
	}
	return tw.Flush()
}

// TableExporter prints the table as the first export step
type TableExporter struct {
	Out io.Writer
}

func (e *TableExporter) Name() string { return "table" }

// Export implements scraper.Exporter
func (e *TableExporter) Export(ctx context.Context, result *scraper.Result) error {
	fmt.Fprintln(e.Out, "Extracted Data")
	return RenderTable(e.Out, result.Records)
}

// singleLine keeps multi-line content (pre, code) from breaking table rows
func singleLine(s string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\t", " ").Replace(s)
}

// CSVExporter writes records to a CSV file
type CSVExporter struct {
	Path string
}

// NewCSVExporter creates a CSVExporter, appending .csv to path when missing
func NewCSVExporter(path string) *CSVExporter {
	return &CSVExporter{Path: WithCSVExt(path)}
}

// WithCSVExt appends .csv unless the name already ends with it
func WithCSVExt(path string) string {
	if strings.HasSuffix(strings.ToLower(path), ".csv") {
		return path
	}
	return path + ".csv"
}

func (e *CSVExporter) Name() string { return "csv" }

// Export implements scraper.Exporter
func (e *CSVExporter) Export(ctx context.Context, result *scraper.Result) error {
	path := WithCSVExt(e.Path)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteCSV(f, result.Records); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	log.Info().Str("path", path).Int("records", len(result.Records)).Msg("Data exported to CSV")
	return nil
}

// WriteCSV writes the header followed by one row per record, terminating
// rows with CRLF as RFC 4180 asks
func WriteCSV(w io.Writer, records models.RecordSet) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if err := cw.Write(models.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(records.Rows()); err != nil {
		return err
	}
	return cw.Error()
}
