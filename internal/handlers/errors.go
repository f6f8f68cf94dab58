// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"codeberg.org/oliverandrich/electobot/internal/i18n"
	"codeberg.org/oliverandrich/electobot/internal/repository"
	"codeberg.org/oliverandrich/electobot/internal/services/registration"
	"codeberg.org/oliverandrich/electobot/internal/services/voting"
	"codeberg.org/oliverandrich/electobot/internal/views"
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"
)

// errUnknownToken marks requests whose voter or event token does not resolve.
var errUnknownToken = errors.New("unknown token")

type errorKind struct {
	err       error
	status    int
	messageID string
}

// errorKinds maps every expected failure to its status and message.
var errorKinds = []errorKind{
	{voting.ErrTooFewVotes, http.StatusUnprocessableEntity, "error_too_few_votes"},
	{voting.ErrTooManyVotes, http.StatusUnprocessableEntity, "error_too_many_votes"},
	{voting.ErrNegativeVote, http.StatusUnprocessableEntity, "error_negative_vote"},
	{voting.ErrWrongOptionID, http.StatusUnprocessableEntity, "error_wrong_option_id"},
	{voting.ErrWrongEvent, http.StatusUnprocessableEntity, "error_wrong_event"},
	{voting.ErrAlreadyVoted, http.StatusConflict, "error_already_voted"},
	{voting.ErrWrongTime, http.StatusUnprocessableEntity, "error_wrong_time"},
	{voting.ErrMalformedBallot, http.StatusBadRequest, "error_malformed_ballot"},
	{registration.ErrEmailNotPermitted, http.StatusUnprocessableEntity, "error_email_not_permitted"},
	{registration.ErrDuplicateEmail, http.StatusConflict, "error_duplicate_email"},
	{registration.ErrMailFailed, http.StatusBadGateway, "register_mail_failed"},
	{errUnknownToken, http.StatusNotFound, "error_unknown_token"},
	{repository.ErrNotFound, http.StatusNotFound, "error_not_found"},
}

// classify returns the status code and message ID for err. Unexpected errors
// are internal server errors.
func classify(err error) (int, string) {
	kind, ok := lo.Find(errorKinds, func(k errorKind) bool {
		return errors.Is(err, k.err)
	})
	if !ok {
		return http.StatusInternalServerError, "error_internal"
	}
	return kind.status, kind.messageID
}

// renderError renders the message page for err. Unexpected errors are logged.
func renderError(c echo.Context, err error, backURL string) error {
	status, messageID := classify(err)
	ctx := c.Request().Context()
	if status == http.StatusInternalServerError {
		slog.ErrorContext(ctx, "request failed", "path", c.Path(), "error", err)
	}
	return Render(c, status, views.Message(views.MessageData{
		Message: i18n.T(ctx, messageID),
		BackURL: backURL,
		IsError: true,
	}))
}
