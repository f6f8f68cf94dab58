// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/oliverandrich/electobot/internal/database"
	"codeberg.org/oliverandrich/electobot/internal/models"
)

// HasVoted checks whether a vote cast exists for the voter and poll.
func (r *Repository) HasVoted(ctx context.Context, voterID, pollID int64) (bool, error) {
	var exists bool
	err := r.q.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM vote_casts WHERE voter_id = ? AND poll_id = ?)`,
		voterID, pollID)
	return exists, err
}

// CountVoteCasts returns how many voters have voted in a poll.
func (r *Repository) CountVoteCasts(ctx context.Context, pollID int64) (int64, error) {
	var count int64
	err := r.q.GetContext(ctx, &count, `SELECT COUNT(*) FROM vote_casts WHERE poll_id = ?`, pollID)
	return count, err
}

// ListVoteCasts returns all vote casts within an event.
func (r *Repository) ListVoteCasts(ctx context.Context, eventID int64) ([]models.VoteCast, error) {
	var casts []models.VoteCast
	err := r.q.SelectContext(ctx, &casts, `
		SELECT vc.* FROM vote_casts vc
		JOIN polls p ON p.id = vc.poll_id
		WHERE p.event_id = ?
		ORDER BY vc.created_at, vc.voter_id`, eventID)
	if err != nil {
		return nil, err
	}
	return casts, nil
}

// ApplyBallot increments the given option tallies and records the vote cast.
// It must run inside WithTx so that a failure leaves no partial update.
func (r *Repository) ApplyBallot(ctx context.Context, voterID, pollID int64, increments map[int64]int, at time.Time) error {
	if !r.tx {
		return fmt.Errorf("apply ballot: not in a transaction")
	}

	_, err := r.q.ExecContext(ctx,
		`INSERT INTO vote_casts (voter_id, poll_id, created_at) VALUES (?, ?, ?)`,
		voterID, pollID, at.UTC())
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrAlreadyVoted
		}
		return err
	}

	for optionID, count := range increments {
		res, err := r.q.ExecContext(ctx,
			`UPDATE poll_options SET total_votes = total_votes + ? WHERE id = ? AND poll_id = ?`,
			count, optionID, pollID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n != 1 {
			return fmt.Errorf("apply ballot: option %d: %w", optionID, ErrNotFound)
		}
	}

	return nil
}
