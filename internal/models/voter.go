// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// Voter is a registered participant of exactly one event.
type Voter struct { //nolint:govet // fieldalignment: readability over optimization
	ID        int64     `db:"id" json:"id"`
	EventID   int64     `db:"event_id" json:"event_id"`
	Email     string    `db:"email" json:"email"`
	Token     string    `db:"token" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Proxy records that a voter also votes on behalf of an absent delegate.
type Proxy struct {
	VoterID   int64     `db:"voter_id" json:"voter_id"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// VoteCast marks that a voter has used their votes in a poll.
type VoteCast struct {
	VoterID   int64     `db:"voter_id" json:"voter_id"`
	PollID    int64     `db:"poll_id" json:"poll_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
