package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"html-scraper/models"
	"html-scraper/scraper"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// CredentialsEnv holds service account JSON when no credentials file is configured
const CredentialsEnv = "GOOGLE_SHEETS_CREDENTIALS"

// maxSheetName is the Google Sheets limit on tab titles
const maxSheetName = 100

// Writer exports records to a new sheet of a Google spreadsheet per run
type Writer struct {
	service       *sheets.Service
	spreadsheetID string
	now           func() time.Time
}

// NewWriter creates a new Google Sheets writer. spreadsheet may be a full
// spreadsheet URL or a bare ID.
func NewWriter(ctx context.Context, spreadsheet string, credentialsPath string) (*Writer, error) {
	spreadsheetID := ExtractSpreadsheetID(spreadsheet)
	if spreadsheetID == "" {
		return nil, fmt.Errorf("invalid spreadsheet URL or ID: %q", spreadsheet)
	}

	credsJSON, err := loadCredentials(credentialsPath)
	if err != nil {
		return nil, err
	}

	service, err := sheets.NewService(ctx, option.WithCredentialsJSON(credsJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Writer{
		service:       service,
		spreadsheetID: spreadsheetID,
		now:           time.Now,
	}, nil
}

// loadCredentials reads service account JSON from path, or from the
// environment when path is empty
func loadCredentials(path string) ([]byte, error) {
	var credsJSON []byte
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		credsJSON = data
	} else {
		credsEnv := strings.TrimSpace(os.Getenv(CredentialsEnv))
		if credsEnv == "" {
			return nil, fmt.Errorf("credentials not found: %s is empty or not set", CredentialsEnv)
		}
		log.Debug().Int("bytes", len(credsEnv)).Msgf("Reading credentials from %s", CredentialsEnv)
		credsJSON = []byte(credsEnv)
	}

	var creds map[string]interface{}
	if err := json.Unmarshal(credsJSON, &creds); err != nil {
		return nil, fmt.Errorf("invalid credentials JSON: %w", err)
	}
	if creds["type"] != "service_account" {
		return nil, fmt.Errorf("credentials must be a service account JSON file (type: service_account), got type: %v", creds["type"])
	}
	return credsJSON, nil
}

func (w *Writer) Name() string { return "sheets" }

// Export implements scraper.Exporter. Each run gets its own sheet inserted
// at the front of the spreadsheet.
func (w *Writer) Export(ctx context.Context, result *scraper.Result) error {
	name, sheetID, err := w.CreateSheetAndWriteRecords(ctx, SheetName(result.URL, w.now()), result.Records, result.URL)
	if err != nil {
		return err
	}
	log.Info().
		Str("sheet", name).
		Int64("gid", sheetID).
		Str("url", fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/edit#gid=%d", w.spreadsheetID, sheetID)).
		Msg("Data exported to Google Sheets")
	return nil
}

// CreateSheetAndWriteRecords creates a new sheet at index 0 and writes a
// URL metadata row, the header and one row per record. It returns the sheet
// name and ID (gid).
func (w *Writer) CreateSheetAndWriteRecords(ctx context.Context, sheetName string, records models.RecordSet, pageURL string) (string, int64, error) {
	sheetName = sanitizeSheetName(sheetName)

	batchUpdateRequest := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{
						Title: sheetName,
						Index: 0,
					},
				},
			},
		},
	}

	resp, err := w.service.Spreadsheets.BatchUpdate(w.spreadsheetID, batchUpdateRequest).Context(ctx).Do()
	if err != nil {
		return "", 0, fmt.Errorf("failed to create sheet: %w", err)
	}

	var sheetID int64
	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil {
		sheetID = resp.Replies[0].AddSheet.Properties.SheetId
	}
	log.Debug().Str("sheet", sheetName).Int64("gid", sheetID).Msg("Created sheet")

	valueRange := &sheets.ValueRange{
		Values: buildValues(records, pageURL),
	}
	_, err = w.service.Spreadsheets.Values.Update(w.spreadsheetID, quoteSheet(sheetName)+"!A1", valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return "", 0, fmt.Errorf("failed to write to sheet: %w", err)
	}

	return sheetName, sheetID, nil
}

// buildValues lays out the sheet body
func buildValues(records models.RecordSet, pageURL string) [][]interface{} {
	values := make([][]interface{}, 0, len(records)+2)
	if pageURL != "" {
		values = append(values, []interface{}{"URL", pageURL})
	}
	values = append(values, []interface{}{models.Header[0], models.Header[1]})
	for _, r := range records {
		values = append(values, []interface{}{r.TagName, r.Content})
	}
	return values
}

// SheetName names a run's sheet after the page host and the time of export
func SheetName(pageURL string, t time.Time) string {
	host := pageURL
	if u, err := url.Parse(pageURL); err == nil && u.Host != "" {
		host = u.Host
	}
	return sanitizeSheetName(fmt.Sprintf("%s %s", host, t.Format("2006-01-02 15.04.05")))
}

// quoteSheet quotes a sheet name for use in A1 notation
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// sanitizeSheetName removes invalid characters from sheet name
func sanitizeSheetName(name string) string {
	// Google Sheets sheet names cannot contain: / \ ? * [ ] :
	result := strings.NewReplacer(
		"/", "_", "\\", "_", "?", "_", "*", "_", "[", "_", "]", "_", ":", "_",
	).Replace(name)
	result = strings.TrimSpace(result)
	if result == "" {
		return "Sheet1"
	}
	if r := []rune(result); len(r) > maxSheetName {
		result = string(r[:maxSheetName])
	}
	return result
}

// ExtractSpreadsheetID extracts the spreadsheet ID from a Google Sheets URL.
// A value without a /d/ segment is taken as the ID itself.
func ExtractSpreadsheetID(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	// https://docs.google.com/spreadsheets/d/SPREADSHEET_ID/edit?usp=sharing
	parts := strings.SplitN(raw, "/d/", 2)
	if len(parts) < 2 {
		if strings.ContainsAny(raw, "/?#:") {
			return ""
		}
		return raw
	}

	idPart := parts[1]
	if idx := strings.IndexAny(idPart, "/?#"); idx != -1 {
		idPart = idPart[:idx]
	}
	return strings.TrimSpace(idPart)
}
