// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package voting

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"codeberg.org/oliverandrich/electobot/internal/models"
	"codeberg.org/oliverandrich/electobot/internal/repository"
	"github.com/samber/lo"
)

// snapshot holds every row a ballot is validated against. It is loaded once,
// inside the casting transaction, and never modified.
type snapshot struct {
	voter       models.Voter
	entitlement int
	options     map[int64]models.PollOption
	poll        *models.Poll // nil when the ballot identifies no existing poll
	hasVoted    bool
}

// check is a single validation rule over a snapshot.
type check func(s *snapshot, b Ballot, at time.Time) error

// checks run in this order; the first failure decides the rejection.
var checks = []check{
	checkQuantity,
	checkNonNegative,
	checkOptions,
	checkEvent,
	checkNotVoted,
	checkTiming,
}

func validate(s *snapshot, b Ballot, at time.Time) error {
	for _, c := range checks {
		if err := c(s, b, at); err != nil {
			return err
		}
	}
	return nil
}

func checkQuantity(s *snapshot, b Ballot, _ time.Time) error {
	total, err := b.Total()
	if err != nil {
		return err
	}
	switch {
	case total < s.entitlement:
		return ErrTooFewVotes
	case total > s.entitlement:
		return ErrTooManyVotes
	}
	return nil
}

func checkNonNegative(_ *snapshot, b Ballot, _ time.Time) error {
	if lo.SomeBy(lo.Values(b.Votes), func(n int) bool { return n < 0 }) {
		return ErrNegativeVote
	}
	return nil
}

func checkOptions(s *snapshot, b Ballot, _ time.Time) error {
	if s.poll == nil {
		return ErrWrongOptionID
	}
	for sel := range b.Votes {
		if sel == Abstain {
			continue
		}
		id, ok := sel.OptionID()
		if !ok {
			return ErrWrongOptionID
		}
		option, found := s.options[id]
		if !found || option.PollID != s.poll.ID {
			return ErrWrongOptionID
		}
	}
	return nil
}

func checkEvent(s *snapshot, _ Ballot, _ time.Time) error {
	if s.poll.EventID != s.voter.EventID {
		return ErrWrongEvent
	}
	return nil
}

func checkNotVoted(s *snapshot, _ Ballot, _ time.Time) error {
	if s.hasVoted {
		return ErrAlreadyVoted
	}
	return nil
}

func checkTiming(s *snapshot, _ Ballot, at time.Time) error {
	if !s.poll.AcceptsVotes(at) {
		return ErrWrongTime
	}
	return nil
}

// optionIDs returns the sorted option ids referenced by the ballot.
func optionIDs(b Ballot) []int64 {
	ids := lo.FilterMap(lo.Keys(b.Votes), func(sel Selector, _ int) (int64, bool) {
		return sel.OptionID()
	})
	slices.Sort(ids)
	return ids
}

// loadSnapshot reads the rows needed to validate b. The entitlement is counted
// fresh on every call.
func loadSnapshot(ctx context.Context, repo *repository.Repository, voter *models.Voter, b Ballot) (*snapshot, error) {
	proxies, err := repo.CountProxies(ctx, voter.ID)
	if err != nil {
		return nil, fmt.Errorf("count proxies: %w", err)
	}

	options, err := repo.GetPollOptionsByIDs(ctx, optionIDs(b))
	if err != nil {
		return nil, fmt.Errorf("load options: %w", err)
	}

	s := &snapshot{
		voter:       *voter,
		entitlement: Entitlement(voter, proxies),
		options:     lo.KeyBy(options, func(o models.PollOption) int64 { return o.ID }),
	}

	pollID := b.PollID
	if pollID == 0 && len(options) > 0 {
		pollID = options[0].PollID
	}
	if pollID == 0 {
		return s, nil
	}

	poll, err := repo.GetPollByID(ctx, pollID)
	if errors.Is(err, repository.ErrNotFound) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load poll: %w", err)
	}
	s.poll = poll

	s.hasVoted, err = repo.HasVoted(ctx, voter.ID, poll.ID)
	if err != nil {
		return nil, fmt.Errorf("check vote cast: %w", err)
	}
	return s, nil
}

// increments returns the tally increase per option for an accepted ballot.
func increments(b Ballot) map[int64]int {
	out := make(map[int64]int, len(b.Votes))
	for sel, n := range b.Votes {
		if id, ok := sel.OptionID(); ok && n > 0 {
			out[id] += n
		}
	}
	return out
}
