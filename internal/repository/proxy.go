// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/oliverandrich/electobot/internal/database"
	"codeberg.org/oliverandrich/electobot/internal/models"
)

// CreateProxy records that the voter also votes for the delegate email.
func (r *Repository) CreateProxy(ctx context.Context, voterID int64, email string) (*models.Proxy, error) {
	proxy := &models.Proxy{
		VoterID:   voterID,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}

	_, err := r.q.ExecContext(ctx,
		`INSERT INTO proxies (voter_id, email, created_at) VALUES (?, ?, ?)`,
		proxy.VoterID, proxy.Email, proxy.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicateProxy
		}
		return nil, err
	}
	return proxy, nil
}

// GetProxiesByVoterID returns the proxies held by a voter.
func (r *Repository) GetProxiesByVoterID(ctx context.Context, voterID int64) ([]models.Proxy, error) {
	var proxies []models.Proxy
	err := r.q.SelectContext(ctx, &proxies, `SELECT * FROM proxies WHERE voter_id = ? ORDER BY created_at, email`, voterID)
	if err != nil {
		return nil, err
	}
	return proxies, nil
}

// CountProxies returns the number of proxies held by a voter.
func (r *Repository) CountProxies(ctx context.Context, voterID int64) (int, error) {
	var count int
	err := r.q.GetContext(ctx, &count, `SELECT COUNT(*) FROM proxies WHERE voter_id = ?`, voterID)
	return count, err
}

// ListProxies returns all proxies within an event.
func (r *Repository) ListProxies(ctx context.Context, eventID int64) ([]models.Proxy, error) {
	var proxies []models.Proxy
	err := r.q.SelectContext(ctx, &proxies, `
		SELECT p.* FROM proxies p
		JOIN voters v ON v.id = p.voter_id
		WHERE v.event_id = ?
		ORDER BY p.voter_id, p.email`, eventID)
	if err != nil {
		return nil, err
	}
	return proxies, nil
}

// ProxyDelegateExists checks whether email is already represented by a proxy
// in the event.
func (r *Repository) ProxyDelegateExists(ctx context.Context, eventID int64, email string) (bool, error) {
	var exists bool
	err := r.q.GetContext(ctx, &exists, `
		SELECT EXISTS(
			SELECT 1 FROM proxies p
			JOIN voters v ON v.id = p.voter_id
			WHERE v.event_id = ? AND p.email = ?
		)`, eventID, email)
	return exists, err
}
