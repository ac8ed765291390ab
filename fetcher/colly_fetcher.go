package fetcher

import (
	"context"
	"errors"
	"net/http"
	"time"

	"html-scraper/config"
	"html-scraper/models"

	"github.com/gocolly/colly/v2"
	"github.com/rs/zerolog/log"
)

// CollyFetcher implements the Fetcher interface with a single stateless GET
type CollyFetcher struct {
	userAgent   string
	timeout     time.Duration
	maxBodySize int
}

// NewCollyFetcher creates a new CollyFetcher instance
func NewCollyFetcher(cfg config.HTTPConfig) *CollyFetcher {
	return &CollyFetcher{
		userAgent:   cfg.UserAgent,
		timeout:     cfg.Timeout,
		maxBodySize: cfg.MaxBodySize,
	}
}

// Fetch implements the Fetcher interface. Only a 200 response counts as success.
func (cf *CollyFetcher) Fetch(ctx context.Context, req models.FetchRequest) (string, error) {
	// A fresh collector per call keeps the fetch stateless: no cookies or visited set survive
	c := colly.NewCollector(
		colly.UserAgent(cf.userAgent),
		colly.StdlibContext(ctx),
		colly.AllowURLRevisit(),
		// colly truncates silently at 10 MiB unless told otherwise
		colly.MaxBodySize(cf.maxBodySize),
	)
	if cf.timeout > 0 {
		c.SetRequestTimeout(cf.timeout)
	}

	var (
		body      string
		responded bool
		fetchErr  *FetchError
	)

	c.OnResponse(func(r *colly.Response) {
		responded = true
		if r.StatusCode != http.StatusOK {
			fetchErr = &FetchError{Reason: NonOkStatus, URL: req.URL, StatusCode: r.StatusCode}
			return
		}
		body = string(r.Body)
	})

	c.OnError(func(r *colly.Response, err error) {
		// colly reports transport failures with an empty response
		if r != nil && r.StatusCode != 0 {
			fetchErr = &FetchError{Reason: NonOkStatus, URL: req.URL, StatusCode: r.StatusCode, Err: err}
			return
		}
		fetchErr = newError(NetworkFailure, req.URL, err)
	})

	err := c.Visit(req.URL)
	if fetchErr == nil && err != nil {
		fetchErr = newError(NetworkFailure, req.URL, err)
	}
	if fetchErr == nil && !responded {
		fetchErr = newError(NetworkFailure, req.URL, errors.New("no response received"))
	}
	if fetchErr != nil {
		log.Error().
			Str("url", req.URL).
			Stringer("reason", fetchErr.Reason).
			Int("status", fetchErr.StatusCode).
			Err(fetchErr.Err).
			Msg("Error fetching the page")
		return "", fetchErr
	}

	log.Info().Str("url", req.URL).Int("bytes", len(body)).Msg("Page successfully fetched")
	return body, nil
}
