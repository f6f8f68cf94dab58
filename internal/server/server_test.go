// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"codeberg.org/oliverandrich/electobot/internal/config"
	"codeberg.org/oliverandrich/electobot/internal/server"
	"codeberg.org/oliverandrich/electobot/internal/services/voting"
	"codeberg.org/oliverandrich/electobot/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopMailer struct{}

func (nopMailer) SendVotingLink(context.Context, string, string, string) error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "localhost", Port: 8080, BaseURL: "http://localhost:8080", MaxBodySize: 1},
		TLS:    config.TLSConfig{Mode: "off"},
	}
}

func TestNew_InvalidPattern(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	cfg := testConfig()
	cfg.Registration.DefaultEmailPattern = "("

	_, err := server.New(cfg, repo, nopMailer{})

	assert.Error(t, err)
}

func TestRoutes(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	e, err := server.New(testConfig(), repo, nopMailer{})
	require.NoError(t, err)

	tests := []struct {
		target string
		status int
	}{
		{"/", http.StatusOK},
		{"/health", http.StatusOK},
		{"/register", http.StatusNotFound},
		{"/vote", http.StatusNotFound},
		{"/missing", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestVotingFlow(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	e, err := server.New(testConfig(), repo, nopMailer{})
	require.NoError(t, err)

	event := testutil.NewTestEvent(t, repo, "General Assembly")
	voter := testutil.NewTestVoter(t, repo, event.ID, "v@example.com")
	poll := testutil.NewTestPoll(t, repo, event.ID, "Budget")
	options := testutil.NewTestOptions(t, repo, poll.ID, "Yes", "No")
	target := fmt.Sprintf("/vote?token=%s&poll_id=%d", voter.Token, poll.ID)

	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("Accept-Language", "de")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Du hast 1 Stimme zu vergeben.")
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	csrf := cookies[0]
	assert.Contains(t, rec.Body.String(), `value="`+csrf.Value+`"`)

	form := url.Values{
		"csrf_token": {csrf.Value},
		voting.OptionSelector(options[0].ID).FieldName(): {"1"},
		voting.OptionSelector(options[1].ID).FieldName(): {"0"},
	}
	req = httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.Header.Set("Accept-Language", "en")
	req.AddCookie(csrf)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Your votes have been counted.")
	assert.Equal(t, map[string]int64{"Yes": 1, "No": 0}, testutil.Tallies(t, repo, poll.ID))
}

func TestRun_StopsWithContext(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	cfg := testConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Run(ctx, cfg, repo) }()
	cancel()

	assert.NoError(t, <-done)
}
