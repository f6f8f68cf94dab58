// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"
	"time"

	"codeberg.org/oliverandrich/electobot/internal/repository"
	"codeberg.org/oliverandrich/electobot/internal/services/registration"
	"codeberg.org/oliverandrich/electobot/internal/services/voting"
	"codeberg.org/oliverandrich/electobot/internal/views"
	"github.com/labstack/echo/v4"
)

// Handlers contains all HTTP handlers.
type Handlers struct {
	repo         *repository.Repository
	voting       *voting.Service
	registration *registration.Service
	now          func() time.Time
}

// New creates a new Handlers instance.
func New(repo *repository.Repository, votingSvc *voting.Service, registrationSvc *registration.Service) *Handlers {
	return &Handlers{
		repo:         repo,
		voting:       votingSvc,
		registration: registrationSvc,
		now:          time.Now,
	}
}

// Health returns the health status.
func (h *Handlers) Health(c echo.Context) error {
	if h.repo != nil {
		if err := h.repo.DB().PingContext(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
			})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Welcome renders the landing page.
func (h *Handlers) Welcome(c echo.Context) error {
	return Render(c, http.StatusOK, views.Welcome())
}
