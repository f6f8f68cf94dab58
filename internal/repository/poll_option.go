// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"

	"codeberg.org/oliverandrich/electobot/internal/database"
	"codeberg.org/oliverandrich/electobot/internal/models"
	"github.com/vinovest/sqlx"
)

// CreatePollOption adds an option with an empty tally to a poll.
func (r *Repository) CreatePollOption(ctx context.Context, pollID int64, name string) (*models.PollOption, error) {
	id, err := lastInsertID(r.q.ExecContext(ctx,
		`INSERT INTO poll_options (poll_id, name, total_votes) VALUES (?, ?, 0)`,
		pollID, name))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		return nil, err
	}
	return &models.PollOption{ID: id, PollID: pollID, Name: name}, nil
}

// GetPollOptions returns the options of a poll in creation order.
func (r *Repository) GetPollOptions(ctx context.Context, pollID int64) ([]models.PollOption, error) {
	var options []models.PollOption
	if err := r.q.SelectContext(ctx, &options, `SELECT * FROM poll_options WHERE poll_id = ? ORDER BY id`, pollID); err != nil {
		return nil, err
	}
	return options, nil
}

// GetPollOptionsByIDs returns the options with the given ids. Unknown ids are
// silently skipped.
func (r *Repository) GetPollOptionsByIDs(ctx context.Context, ids []int64) ([]models.PollOption, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM poll_options WHERE id IN (?) ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}
	var options []models.PollOption
	if err := r.q.SelectContext(ctx, &options, r.q.Rebind(query), args...); err != nil {
		return nil, err
	}
	return options, nil
}

// GetTallies returns the committed (name, total_votes) pairs of a poll.
func (r *Repository) GetTallies(ctx context.Context, pollID int64) ([]models.Tally, error) {
	var tallies []models.Tally
	err := r.q.SelectContext(ctx, &tallies, `SELECT name, total_votes FROM poll_options WHERE poll_id = ? ORDER BY id`, pollID)
	if err != nil {
		return nil, err
	}
	return tallies, nil
}
