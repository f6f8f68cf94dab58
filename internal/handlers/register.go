// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"net/http"

	"codeberg.org/oliverandrich/electobot/internal/i18n"
	"codeberg.org/oliverandrich/electobot/internal/models"
	"codeberg.org/oliverandrich/electobot/internal/repository"
	"codeberg.org/oliverandrich/electobot/internal/services/registration"
	"codeberg.org/oliverandrich/electobot/internal/views"
	"github.com/labstack/echo/v4"
)

// RegisterForm renders the registration form of the event named by the
// event_token query parameter.
func (h *Handlers) RegisterForm(c echo.Context) error {
	event, err := h.event(c)
	if err != nil {
		return renderError(c, err, "")
	}
	return Render(c, http.StatusOK, views.Register(views.RegisterData{
		EventName:  event.Name,
		EventToken: event.Token,
		CSRF:       csrfToken(c),
	}))
}

// Register signs up the submitted email address and mails the voting link.
func (h *Handlers) Register(c echo.Context) error {
	event, err := h.event(c)
	if err != nil {
		return renderError(c, err, "")
	}

	ctx := c.Request().Context()
	email := c.FormValue("email")

	voter, err := h.registration.Register(ctx, event.Token, email)
	switch {
	case errors.Is(err, registration.ErrEmailNotPermitted), errors.Is(err, registration.ErrDuplicateEmail):
		status, messageID := classify(err)
		return Render(c, status, views.Register(views.RegisterData{
			EventName:  event.Name,
			EventToken: event.Token,
			Email:      email,
			CSRF:       csrfToken(c),
			Error:      i18n.T(ctx, messageID),
		}))
	case err != nil:
		return renderError(c, err, "")
	}

	return Render(c, http.StatusOK, views.Message(views.MessageData{
		Message: i18n.TData(ctx, "register_success", map[string]any{"Email": voter.Email}),
	}))
}

func (h *Handlers) event(c echo.Context) (*models.Event, error) {
	token := c.QueryParam("event_token")
	if token == "" {
		return nil, errUnknownToken
	}
	event, err := h.registration.Event(c.Request().Context(), token)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errUnknownToken
	}
	return event, err
}
