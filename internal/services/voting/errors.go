// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package voting

import (
	"errors"

	"codeberg.org/oliverandrich/electobot/internal/repository"
	"github.com/samber/lo"
)

// Ballot rejections. Each one is a distinct, recoverable outcome that the
// voter can act on.
var (
	ErrTooFewVotes   = errors.New("not all available votes were assigned")
	ErrTooManyVotes  = errors.New("more votes assigned than available")
	ErrNegativeVote  = errors.New("negative vote count")
	ErrWrongOptionID = errors.New("unknown option or options from more than one poll")
	ErrWrongEvent    = errors.New("poll belongs to another event")
	ErrAlreadyVoted  = repository.ErrAlreadyVoted
	ErrWrongTime     = errors.New("poll is not accepting votes")
)

var (
	// ErrMalformedBallot is returned when a submitted form cannot be read as a ballot.
	ErrMalformedBallot = errors.New("malformed ballot")
	// ErrCloseBeforeStart is returned when a poll would be closed before it starts.
	ErrCloseBeforeStart = errors.New("close time precedes poll start")
	// ErrNoVoter is returned when a vote is cast without a voter.
	ErrNoVoter = errors.New("no voter")
)

var rejections = []error{
	ErrTooFewVotes,
	ErrTooManyVotes,
	ErrNegativeVote,
	ErrWrongOptionID,
	ErrWrongEvent,
	ErrAlreadyVoted,
	ErrWrongTime,
}

// IsRejection reports whether err is one of the ballot rejections.
func IsRejection(err error) bool {
	return lo.SomeBy(rejections, func(r error) bool { return errors.Is(err, r) })
}
