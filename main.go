package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"html-scraper/config"
	"html-scraper/db"
	"html-scraper/export"
	"html-scraper/fetcher"
	"html-scraper/models"
	"html-scraper/notify"
	"html-scraper/parser"
	"html-scraper/prompt"
	"html-scraper/scraper"
	"html-scraper/sheets"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// passwordEnv supplies the login password for non-interactive runs
const passwordEnv = "SCRAPER_PASSWORD"

type options struct {
	url         string
	configPath  string
	tag         string
	class       string
	attr        string
	strip       bool
	output      string
	login       bool
	user        string
	engine      string
	spreadsheet string
	credentials string
	showRun     int
	verbose     bool
}

// runHistory reads back runs saved by db.Recorder
type runHistory interface {
	GetRun(ctx context.Context, runID int) (*db.Run, error)
	ListRecords(ctx context.Context, runID int) ([]db.StoredRecord, error)
}

func main() {
	os.Exit(run())
}

func run() int {
	var opts options
	flag.StringVar(&opts.url, "url", "", "URL of the page to scrape (optional, if not provided, asks interactively)")
	flag.StringVar(&opts.configPath, "config", "config.yaml", "Path to configuration file")
	flag.StringVar(&opts.tag, "tag", "", "HTML tag to extract (e.g. p, div, h1); empty extracts all elements")
	flag.StringVar(&opts.class, "class", "", "CSS class to match (only used together with -tag)")
	flag.StringVar(&opts.attr, "attr", "", "Attribute to extract instead of text (e.g. href, src)")
	flag.BoolVar(&opts.strip, "strip", false, "Remove invisible and non-ASCII characters")
	flag.StringVar(&opts.output, "output", "", "CSV output file (default from config, output.csv)")
	flag.BoolVar(&opts.login, "login", false, "Log in through a browser before fetching the page")
	flag.StringVar(&opts.user, "user", "", "Login username or email (password from "+passwordEnv+" or prompt)")
	flag.StringVar(&opts.engine, "engine", "", "Parser engine: goquery or xpath")
	flag.StringVar(&opts.spreadsheet, "spreadsheet", "", "Google Sheets URL to export to")
	flag.StringVar(&opts.credentials, "credentials", "", "Path to Google service account credentials JSON file (or use GOOGLE_SHEETS_CREDENTIALS env var)")
	flag.IntVar(&opts.showRun, "show-run", 0, "Print a stored run and its records from the run history, then exit")
	flag.BoolVar(&opts.verbose, "v", false, "Verbose logging")
	flag.Parse()

	setupLogging(opts.verbose)

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return 1
	}
	applyFlags(cfg, opts)

	if opts.showRun > 0 {
		database, err := db.NewDB(context.Background(), cfg.Export.DatabaseURL)
		if err != nil {
			log.Error().Err(err).Msg("Failed to open run history")
			return 1
		}
		defer database.Close()
		if err := showRun(context.Background(), os.Stdout, database, opts.showRun); err != nil {
			log.Error().Err(err).Int("run_id", opts.showRun).Msg("Failed to show run")
			return 1
		}
		return 0
	}

	input, err := collectInput(opts, cfg.Export.CSV)
	if err != nil {
		if errors.Is(err, prompt.ErrAborted) {
			fmt.Fprintln(os.Stderr, "Aborted.")
		} else {
			log.Error().Err(err).Msg("Invalid input")
		}
		return 1
	}
	if err := input.Request.Validate(); err != nil {
		log.Error().Err(err).Msg("Invalid input")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := parser.New(cfg.Parser.Engine)
	if err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return 1
	}
	dispatcher := fetcher.NewDispatcher(
		fetcher.NewCollyFetcher(cfg.HTTP),
		fetcher.NewRodFetcher(cfg.Browser, cfg.Login),
	)

	reporters, exporters, cleanup := buildSinks(ctx, cfg, input.Output, os.Stdout)
	defer cleanup()

	s := scraper.New(dispatcher, p,
		scraper.WithReporter(reporters),
		scraper.WithExporters(exporters...),
	)

	result, err := s.Run(ctx, input.Request, input.Criteria)
	printOutcome(os.Stdout, result)
	return exitCode(result, err)
}

func setupLogging(verbose bool) {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// loadConfig reads the config file when present, then the environment
func loadConfig(configPath string) (*config.Config, error) {
	var cfg *config.Config
	if _, err := os.Stat(configPath); err == nil {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to load config file, using defaults")
			cfg = config.GetDefaultConfig()
		}
	} else {
		log.Debug().Str("path", configPath).Msg("Config file not found, using default configuration")
		cfg = config.GetDefaultConfig()
	}

	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags lets explicit flags win over file and environment
func applyFlags(cfg *config.Config, opts options) {
	if opts.engine != "" {
		cfg.Parser.Engine = opts.engine
	}
	if opts.spreadsheet != "" {
		cfg.Export.SpreadsheetURL = opts.spreadsheet
	}
	if opts.credentials != "" {
		cfg.Export.Credentials = opts.credentials
	}
	if opts.output != "" {
		cfg.Export.CSV = opts.output
	}
}

// collectInput builds the request from flags, or asks for it when no URL was given
func collectInput(opts options, defaultOutput string) (*prompt.Input, error) {
	if opts.url == "" {
		p, closeFn, err := prompt.New()
		if err != nil {
			return nil, err
		}
		defer closeFn()
		return p.Collect(defaultOutput)
	}

	in := &prompt.Input{
		Request: models.FetchRequest{URL: opts.url},
		Criteria: models.SelectionCriteria{
			Tag:           opts.tag,
			ClassName:     opts.class,
			Attribute:     opts.attr,
			StripNonASCII: opts.strip,
		},
		Output: defaultOutput,
	}
	if !opts.login {
		return in, nil
	}

	password := os.Getenv(passwordEnv)
	if password == "" {
		p, closeFn, err := prompt.New()
		if err != nil {
			return nil, err
		}
		defer closeFn()
		if password, err = p.Password("Enter your password"); err != nil {
			return nil, err
		}
	}
	in.Request.AuthMode = models.AuthAuthenticated
	in.Request.Credentials = &models.Credentials{Username: opts.user, Password: password}
	return in, nil
}

// buildSinks wires the optional reporters and exporters. Targets that fail
// to initialize are skipped with a warning.
func buildSinks(ctx context.Context, cfg *config.Config, output string, out io.Writer) (scraper.MultiReporter, []scraper.Exporter, func()) {
	reporters := scraper.MultiReporter{scraper.LogReporter{}}
	exporters := []scraper.Exporter{&export.TableExporter{Out: out}}
	var closers []func() error

	if output != "" {
		exporters = append(exporters, export.NewCSVExporter(output))
	}

	if cfg.Export.SpreadsheetURL != "" {
		writer, err := sheets.NewWriter(ctx, cfg.Export.SpreadsheetURL, cfg.Export.Credentials)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Google Sheets writer")
		} else {
			exporters = append(exporters, writer)
		}
	}

	if cfg.Export.DatabaseURL != "" || os.Getenv("DB_HOST") != "" {
		database, err := db.NewDB(ctx, cfg.Export.DatabaseURL)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize run history")
		} else {
			reporters = append(reporters, db.NewRecorder(database))
			closers = append(closers, database.Close)
		}
	}

	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != 0 {
		tg, err := notify.NewTelegramReporter(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Telegram notifications")
		} else {
			reporters = append(reporters, tg)
		}
	}

	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Warn().Err(err).Msg("Failed to close resource")
			}
		}
	}
	return reporters, exporters, cleanup
}

// showRun prints the summary line of a stored run followed by its records
func showRun(ctx context.Context, w io.Writer, history runHistory, runID int) error {
	run, err := history.GetRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}
	fmt.Fprintf(w, "Run %d: %s %s (%d records, %s)\n",
		run.ID, run.URL, run.Status, run.RecordsCount, run.CreatedAt.Format(time.RFC3339))
	if run.Error.Valid {
		fmt.Fprintf(w, "Error: %s\n", run.Error.String)
	}

	stored, err := history.ListRecords(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}
	if len(stored) == 0 {
		return nil
	}
	return export.RenderTable(w, db.ToRecordSet(stored))
}

func printOutcome(w io.Writer, result *scraper.Result) {
	if result == nil {
		return
	}
	switch result.Outcome {
	case scraper.OutcomeRecords:
		for _, err := range result.ExportErrors {
			fmt.Fprintf(w, "Export failed: %v\n", err)
		}
	case scraper.OutcomeNoData:
		fmt.Fprintln(w, "No data was extracted.")
	case scraper.OutcomeFetchFailed:
		fmt.Fprintf(w, "Unable to fetch the page content: %s\n", result.Status())
	}
}

// exitCode is 0 when the page was fetched, with or without records
func exitCode(result *scraper.Result, err error) int {
	if err != nil || result == nil || result.Outcome == scraper.OutcomeFetchFailed {
		return 1
	}
	return 0
}
