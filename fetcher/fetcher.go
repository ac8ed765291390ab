package fetcher

import (
	"context"

	"html-scraper/models"
)

// Fetcher interface defines the contract for fetching implementations
type Fetcher interface {
	// Fetch retrieves the raw markup of req.URL. Failures are *FetchError values.
	Fetch(ctx context.Context, req models.FetchRequest) (string, error)
}

// Dispatcher routes a request to the stateless or the authenticated fetcher
type Dispatcher struct {
	Stateless     Fetcher
	Authenticated Fetcher
}

// NewDispatcher creates a new Dispatcher instance
func NewDispatcher(stateless, authenticated Fetcher) *Dispatcher {
	return &Dispatcher{
		Stateless:     stateless,
		Authenticated: authenticated,
	}
}

// Fetch implements the Fetcher interface
func (d *Dispatcher) Fetch(ctx context.Context, req models.FetchRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	if req.AuthMode == models.AuthAuthenticated {
		return d.Authenticated.Fetch(ctx, req)
	}
	return d.Stateless.Fetch(ctx, req)
}
