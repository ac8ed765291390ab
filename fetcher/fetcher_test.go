package fetcher

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"html-scraper/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	name  string
	calls int
}

func (s *stubFetcher) Fetch(ctx context.Context, req models.FetchRequest) (string, error) {
	s.calls++
	return s.name, nil
}

func TestDispatcherRoutes(t *testing.T) {
	stateless := &stubFetcher{name: "stateless"}
	authenticated := &stubFetcher{name: "authenticated"}
	d := NewDispatcher(stateless, authenticated)

	got, err := d.Fetch(context.Background(), models.FetchRequest{URL: "https://x.test"})
	require.NoError(t, err)
	assert.Equal(t, "stateless", got)

	got, err = d.Fetch(context.Background(), models.FetchRequest{
		URL:         "https://x.test",
		AuthMode:    models.AuthAuthenticated,
		Credentials: &models.Credentials{Username: "u", Password: "p"},
	})
	require.NoError(t, err)
	assert.Equal(t, "authenticated", got)
	assert.Equal(t, 1, stateless.calls)
	assert.Equal(t, 1, authenticated.calls)
}

func TestDispatcherRejectsInvalidRequest(t *testing.T) {
	stateless := &stubFetcher{}
	authenticated := &stubFetcher{}
	d := NewDispatcher(stateless, authenticated)

	_, err := d.Fetch(context.Background(), models.FetchRequest{URL: "https://x.test", AuthMode: models.AuthAuthenticated})
	assert.True(t, errors.Is(err, models.ErrInvalidRequest))
	assert.Zero(t, stateless.calls+authenticated.calls)
}

func TestFetchError(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := fmt.Errorf("wrapped: %w", newError(NetworkFailure, "https://x.test", cause))

	assert.Equal(t, NetworkFailure, ReasonOf(err))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "site unreachable")

	status := &FetchError{Reason: NonOkStatus, URL: "https://x.test", StatusCode: 404}
	assert.Contains(t, status.Error(), "HTTP 404")

	assert.Equal(t, Reason(0), ReasonOf(errors.New("plain")))
}

func TestReasonStatusesDistinct(t *testing.T) {
	seen := map[string]Reason{}
	for r := NetworkFailure; r <= NavigationTimeout; r++ {
		status := r.Status()
		_, dup := seen[status]
		assert.False(t, dup, "duplicate status %q", status)
		seen[status] = r
		assert.NotContains(t, r.String(), "reason(")
	}
}
