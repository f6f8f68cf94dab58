// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"codeberg.org/oliverandrich/electobot/internal/database"
	"codeberg.org/oliverandrich/electobot/internal/models"
	"github.com/google/uuid"
)

// CreateEvent creates a new event with a fresh access token and derived slug.
func (r *Repository) CreateEvent(ctx context.Context, name, emailPattern string) (*models.Event, error) {
	now := time.Now().UTC()
	event := &models.Event{
		Name:         name,
		Slug:         models.EventSlug(name, now),
		Token:        uuid.NewString(),
		EmailPattern: emailPattern,
		CreatedAt:    now,
	}

	id, err := lastInsertID(r.q.ExecContext(ctx,
		`INSERT INTO events (name, slug, token, email_pattern, created_at) VALUES (?, ?, ?, ?, ?)`,
		event.Name, event.Slug, event.Token, event.EmailPattern, event.CreatedAt))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		return nil, err
	}
	event.ID = id
	return event, nil
}

// GetEventByID retrieves an event by ID.
func (r *Repository) GetEventByID(ctx context.Context, id int64) (*models.Event, error) {
	return r.getEvent(ctx, `SELECT * FROM events WHERE id = ?`, id)
}

// GetEventByToken retrieves an event by its access token.
func (r *Repository) GetEventByToken(ctx context.Context, token string) (*models.Event, error) {
	return r.getEvent(ctx, `SELECT * FROM events WHERE token = ?`, token)
}

// GetEventBySlug retrieves an event by its simplified name.
func (r *Repository) GetEventBySlug(ctx context.Context, slug string) (*models.Event, error) {
	return r.getEvent(ctx, `SELECT * FROM events WHERE slug = ?`, slug)
}

// GetEventByName retrieves an event by its full name.
func (r *Repository) GetEventByName(ctx context.Context, name string) (*models.Event, error) {
	return r.getEvent(ctx, `SELECT * FROM events WHERE name = ?`, name)
}

// MostRecentEvent returns the newest event.
func (r *Repository) MostRecentEvent(ctx context.Context) (*models.Event, error) {
	return r.getEvent(ctx, `SELECT * FROM events ORDER BY id DESC LIMIT 1`)
}

// ResolveEvent finds an event from an identifier typed by an organizer.
// An empty identifier means the most recent event. Numeric identifiers are
// tried as id, then as name; all others as slug, then as name.
func (r *Repository) ResolveEvent(ctx context.Context, identifier string) (*models.Event, error) {
	if identifier == "" {
		return r.MostRecentEvent(ctx)
	}

	if id, err := strconv.ParseInt(identifier, 10, 64); err == nil {
		event, err := r.GetEventByID(ctx, id)
		if !errors.Is(err, ErrNotFound) {
			return event, err
		}
		return r.GetEventByName(ctx, identifier)
	}

	event, err := r.GetEventBySlug(ctx, identifier)
	if !errors.Is(err, ErrNotFound) {
		return event, err
	}
	return r.GetEventByName(ctx, identifier)
}

// ListEvents returns all events, newest first.
func (r *Repository) ListEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	if err := r.q.SelectContext(ctx, &events, `SELECT * FROM events ORDER BY id DESC`); err != nil {
		return nil, err
	}
	return events, nil
}

// DeleteEvent deletes an event together with its voters, proxies, polls,
// options and vote casts.
func (r *Repository) DeleteEvent(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) getEvent(ctx context.Context, query string, args ...any) (*models.Event, error) {
	var event models.Event
	if err := r.q.GetContext(ctx, &event, query, args...); err != nil {
		return nil, wrapError(err)
	}
	return &event, nil
}
