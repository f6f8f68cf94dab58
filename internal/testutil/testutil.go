// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/oliverandrich/electobot/internal/database"
	"codeberg.org/oliverandrich/electobot/internal/models"
	"codeberg.org/oliverandrich/electobot/internal/repository"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"
)

// NewTestDB creates an in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	return open(t, ":memory:")
}

// NewTestFileDB creates a file-backed SQLite database in a temp directory.
// Use it when a test needs several concurrent connections.
func NewTestFileDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	return open(t, filepath.Join(t.TempDir(), "test.db"))
}

func open(t *testing.T, dsn string) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db, repository.New(db)
}

// NewTestEvent creates a test event accepting any email address.
func NewTestEvent(t *testing.T, repo *repository.Repository, name string) *models.Event {
	t.Helper()
	event, err := repo.CreateEvent(context.Background(), name, "")
	require.NoError(t, err)
	return event
}

// NewTestVoter registers a test voter for an event.
func NewTestVoter(t *testing.T, repo *repository.Repository, eventID int64, email string) *models.Voter {
	t.Helper()
	voter, err := repo.CreateVoter(context.Background(), eventID, email)
	require.NoError(t, err)
	return voter
}

// NewTestProxies gives a voter one proxy per delegate email.
func NewTestProxies(t *testing.T, repo *repository.Repository, voterID int64, emails ...string) {
	t.Helper()
	for _, email := range emails {
		_, err := repo.CreateProxy(context.Background(), voterID, email)
		require.NoError(t, err)
	}
}

// NewTestPoll creates a poll that started an hour ago and is open for votes.
func NewTestPoll(t *testing.T, repo *repository.Repository, eventID int64, name string) *models.Poll {
	t.Helper()
	ctx := context.Background()
	poll, err := repo.CreatePoll(ctx, eventID, name, time.Now().Add(-time.Hour), nil)
	require.NoError(t, err)
	require.NoError(t, repo.SetPollOpen(ctx, poll.ID))
	poll.IsOpen = true
	return poll
}

// NewTestOptions adds named options to a poll and returns them in order.
func NewTestOptions(t *testing.T, repo *repository.Repository, pollID int64, names ...string) []*models.PollOption {
	t.Helper()
	options := make([]*models.PollOption, 0, len(names))
	for _, name := range names {
		option, err := repo.CreatePollOption(context.Background(), pollID, name)
		require.NoError(t, err)
		options = append(options, option)
	}
	return options
}

// Tallies returns a poll's tallies keyed by option name.
func Tallies(t *testing.T, repo *repository.Repository, pollID int64) map[string]int64 {
	t.Helper()
	tallies, err := repo.GetTallies(context.Background(), pollID)
	require.NoError(t, err)
	out := make(map[string]int64, len(tallies))
	for _, tally := range tallies {
		out[tally.Name] = tally.TotalVotes
	}
	return out
}

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}
