// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/oliverandrich/electobot/internal/models"
)

// CreatePoll creates a poll for an event. New polls start closed; they accept
// votes once opened and inside their time window.
func (r *Repository) CreatePoll(ctx context.Context, eventID int64, name string, start time.Time, end *time.Time) (*models.Poll, error) {
	poll := &models.Poll{
		EventID:   eventID,
		Name:      name,
		StartTime: start.UTC(),
		CreatedAt: time.Now().UTC(),
	}
	if end != nil {
		e := end.UTC()
		poll.EndTime = &e
	}

	id, err := lastInsertID(r.q.ExecContext(ctx,
		`INSERT INTO polls (event_id, name, start_time, end_time, is_open, created_at) VALUES (?, ?, ?, ?, 0, ?)`,
		poll.EventID, poll.Name, poll.StartTime, poll.EndTime, poll.CreatedAt))
	if err != nil {
		return nil, err
	}
	poll.ID = id
	return poll, nil
}

// GetPollByID retrieves a poll by ID.
func (r *Repository) GetPollByID(ctx context.Context, id int64) (*models.Poll, error) {
	var poll models.Poll
	if err := r.q.GetContext(ctx, &poll, `SELECT * FROM polls WHERE id = ?`, id); err != nil {
		return nil, wrapError(err)
	}
	return &poll, nil
}

// MostRecentPoll returns the newest poll across all events.
func (r *Repository) MostRecentPoll(ctx context.Context) (*models.Poll, error) {
	var poll models.Poll
	if err := r.q.GetContext(ctx, &poll, `SELECT * FROM polls ORDER BY id DESC LIMIT 1`); err != nil {
		return nil, wrapError(err)
	}
	return &poll, nil
}

// ListPolls returns the polls of an event in creation order.
func (r *Repository) ListPolls(ctx context.Context, eventID int64) ([]models.Poll, error) {
	var polls []models.Poll
	if err := r.q.SelectContext(ctx, &polls, `SELECT * FROM polls WHERE event_id = ? ORDER BY id`, eventID); err != nil {
		return nil, err
	}
	return polls, nil
}

// SetPollOpen marks a poll open and clears any previous end time.
func (r *Repository) SetPollOpen(ctx context.Context, id int64) error {
	return r.updatePoll(ctx, `UPDATE polls SET is_open = 1, end_time = NULL WHERE id = ?`, id)
}

// SetPollClosed marks a poll closed as of the given time.
func (r *Repository) SetPollClosed(ctx context.Context, id int64, at time.Time) error {
	return r.updatePoll(ctx, `UPDATE polls SET is_open = 0, end_time = ? WHERE id = ?`, at.UTC(), id)
}

func (r *Repository) updatePoll(ctx context.Context, query string, args ...any) error {
	res, err := r.q.ExecContext(ctx, query, args...)
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
