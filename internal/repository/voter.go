// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/oliverandrich/electobot/internal/database"
	"codeberg.org/oliverandrich/electobot/internal/models"
	"github.com/google/uuid"
)

// CreateVoter registers an email for an event and issues its voting token.
func (r *Repository) CreateVoter(ctx context.Context, eventID int64, email string) (*models.Voter, error) {
	voter := &models.Voter{
		EventID:   eventID,
		Email:     email,
		Token:     uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}

	id, err := lastInsertID(r.q.ExecContext(ctx,
		`INSERT INTO voters (event_id, email, token, created_at) VALUES (?, ?, ?, ?)`,
		voter.EventID, voter.Email, voter.Token, voter.CreatedAt))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	voter.ID = id
	return voter, nil
}

// GetVoterByID retrieves a voter by ID.
func (r *Repository) GetVoterByID(ctx context.Context, id int64) (*models.Voter, error) {
	return r.getVoter(ctx, `SELECT * FROM voters WHERE id = ?`, id)
}

// GetVoterByToken retrieves a voter by their voting token.
func (r *Repository) GetVoterByToken(ctx context.Context, token string) (*models.Voter, error) {
	return r.getVoter(ctx, `SELECT * FROM voters WHERE token = ?`, token)
}

// GetVoterByEmail retrieves the voter registered with email for an event.
func (r *Repository) GetVoterByEmail(ctx context.Context, eventID int64, email string) (*models.Voter, error) {
	return r.getVoter(ctx, `SELECT * FROM voters WHERE event_id = ? AND email = ?`, eventID, email)
}

// ListVoters returns all voters of an event in registration order.
func (r *Repository) ListVoters(ctx context.Context, eventID int64) ([]models.Voter, error) {
	var voters []models.Voter
	if err := r.q.SelectContext(ctx, &voters, `SELECT * FROM voters WHERE event_id = ? ORDER BY id`, eventID); err != nil {
		return nil, err
	}
	return voters, nil
}

func (r *Repository) getVoter(ctx context.Context, query string, args ...any) (*models.Voter, error) {
	var voter models.Voter
	if err := r.q.GetContext(ctx, &voter, query, args...); err != nil {
		return nil, wrapError(err)
	}
	return &voter, nil
}
