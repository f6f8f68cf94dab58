// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// PollState is the lifecycle state of a poll at a point in time.
type PollState string

const (
	PollScheduled PollState = "scheduled"
	PollOpen      PollState = "open"
	PollClosed    PollState = "closed"
)

// Poll is a single question within an event.
type Poll struct { //nolint:govet // fieldalignment: readability over optimization
	ID        int64      `db:"id" json:"id"`
	EventID   int64      `db:"event_id" json:"event_id"`
	Name      string     `db:"name" json:"name"`
	StartTime time.Time  `db:"start_time" json:"start_time"`
	EndTime   *time.Time `db:"end_time" json:"end_time,omitempty"`
	IsOpen    bool       `db:"is_open" json:"is_open"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// AcceptsVotes reports whether the poll takes ballots at the given time.
// Both the open flag and the [start, end) window must hold.
func (p *Poll) AcceptsVotes(at time.Time) bool {
	if !p.IsOpen {
		return false
	}
	if at.Before(p.StartTime) {
		return false
	}
	return p.EndTime == nil || at.Before(*p.EndTime)
}

// State returns the lifecycle state at the given time.
func (p *Poll) State(at time.Time) PollState {
	switch {
	case p.AcceptsVotes(at):
		return PollOpen
	case p.EndTime != nil && !at.Before(*p.EndTime):
		return PollClosed
	case !p.IsOpen && p.EndTime != nil:
		return PollClosed
	default:
		return PollScheduled
	}
}

// PollOption is a choice within a poll together with its running tally.
type PollOption struct {
	ID         int64  `db:"id" json:"id"`
	PollID     int64  `db:"poll_id" json:"poll_id"`
	Name       string `db:"name" json:"name"`
	TotalVotes int64  `db:"total_votes" json:"total_votes"`
}

// Tally is one line of a poll's results.
type Tally struct {
	Name       string `db:"name" json:"name"`
	TotalVotes int64  `db:"total_votes" json:"total_votes"`
}

// PollResults is the read-only projection of a poll's committed tallies.
type PollResults struct { //nolint:govet // fieldalignment: readability over optimization
	Poll      Poll    `json:"poll"`
	Tallies   []Tally `json:"tallies"`
	VoteCasts int64   `json:"vote_casts"`
}

// Total returns the sum of all tallies.
func (r *PollResults) Total() int64 {
	var total int64
	for _, t := range r.Tallies {
		total += t.TotalVotes
	}
	return total
}
