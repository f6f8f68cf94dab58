// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"codeberg.org/oliverandrich/electobot/internal/handlers"
	"codeberg.org/oliverandrich/electobot/internal/i18n"
	"codeberg.org/oliverandrich/electobot/internal/repository"
	"codeberg.org/oliverandrich/electobot/internal/services/registration"
	"codeberg.org/oliverandrich/electobot/internal/services/voting"
	"codeberg.org/oliverandrich/electobot/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func init() {
	// Initialize i18n for template rendering
	_ = i18n.Init()
}

type recordingMailer struct {
	urls []string
}

func (m *recordingMailer) SendVotingLink(_ context.Context, _, _, votingURL string) error {
	m.urls = append(m.urls, votingURL)
	return nil
}

func newTestHandlers(t *testing.T, pattern string) (*handlers.Handlers, *repository.Repository, *recordingMailer) {
	t.Helper()
	_, repo := testutil.NewTestDB(t)
	mailer := &recordingMailer{}
	reg, err := registration.NewService(repo, mailer, "https://vote.example.com", pattern)
	require.NoError(t, err)
	return handlers.New(repo, voting.NewService(repo), reg), repo, mailer
}

// newContext builds an echo context with an English locale. A non-nil form
// is sent as the request body.
func newContext(method, target string, form url.Values) (echo.Context, *httptest.ResponseRecorder) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	c, rec := testutil.NewEchoContext(echo.New(), method, target, body)
	req := c.Request()
	c.SetRequest(req.WithContext(i18n.WithLocale(req.Context(), language.English)))
	return c, rec
}

func TestNew(t *testing.T) {
	h, _, _ := newTestHandlers(t, "")

	assert.NotNil(t, h)
}

func TestHealth(t *testing.T) {
	h := handlers.New(nil, nil, nil)
	c, rec := testutil.NewEchoContext(echo.New(), http.MethodGet, "/health", nil)

	err := h.Health(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHealth_DatabaseDown(t *testing.T) {
	db, repo := testutil.NewTestDB(t)
	h := handlers.New(repo, nil, nil)

	c, rec := testutil.NewEchoContext(echo.New(), http.MethodGet, "/health", nil)
	require.NoError(t, h.Health(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, db.Close())
	c, rec = testutil.NewEchoContext(echo.New(), http.MethodGet, "/health", nil)
	require.NoError(t, h.Health(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestWelcome(t *testing.T) {
	h, _, _ := newTestHandlers(t, "")
	c, rec := newContext(http.MethodGet, "/", nil)

	err := h.Welcome(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<!doctype html>")
	assert.Contains(t, rec.Body.String(), "Welcome to electobot")
}
