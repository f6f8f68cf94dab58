// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package voting implements entitlement, the poll lifecycle and ballot casting.
package voting

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"codeberg.org/oliverandrich/electobot/internal/models"
	"codeberg.org/oliverandrich/electobot/internal/repository"
	"github.com/samber/lo"
)

// Service casts ballots and manages polls on top of the repository.
type Service struct {
	repo *repository.Repository
}

// NewService creates a new voting service.
func NewService(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

// PollView is what a voter sees before casting a ballot in a poll.
type PollView struct { //nolint:govet // fieldalignment: readability over optimization
	Poll        models.Poll
	Options     []models.PollOption
	Proxies     []models.Proxy
	Entitlement int
	HasVoted    bool
}

// Entitlement returns how many votes the voter controls right now.
func (s *Service) Entitlement(ctx context.Context, voter *models.Voter) (int, error) {
	if voter == nil {
		return 0, nil
	}
	proxies, err := s.repo.CountProxies(ctx, voter.ID)
	if err != nil {
		return 0, err
	}
	return Entitlement(voter, proxies), nil
}

// CastVote validates the ballot and, when every check passes, adds its votes
// to the option tallies and records that the voter has voted. Validation and
// the update share one transaction; a rejected ballot changes nothing.
func (s *Service) CastVote(ctx context.Context, voter *models.Voter, ballot Ballot, at time.Time) error {
	if voter == nil {
		return ErrNoVoter
	}

	var pollID int64
	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		snap, err := loadSnapshot(ctx, tx, voter, ballot)
		if err != nil {
			return err
		}
		if err := validate(snap, ballot, at); err != nil {
			return err
		}
		pollID = snap.poll.ID
		return tx.ApplyBallot(ctx, voter.ID, pollID, increments(ballot), at)
	})
	if err != nil {
		if IsRejection(err) {
			slog.DebugContext(ctx, "ballot rejected", "voter_id", voter.ID, "poll_id", ballot.PollID, "reason", err)
		}
		return err
	}

	total, _ := ballot.Total()
	slog.InfoContext(ctx, "vote cast", "voter_id", voter.ID, "poll_id", pollID, "votes", total)
	return nil
}

// OpenPolls lists the polls of the voter's event that accept votes at the given time.
func (s *Service) OpenPolls(ctx context.Context, voter *models.Voter, at time.Time) ([]models.Poll, error) {
	polls, err := s.repo.ListPolls(ctx, voter.EventID)
	if err != nil {
		return nil, err
	}
	return lo.Filter(polls, func(p models.Poll, _ int) bool {
		return p.AcceptsVotes(at)
	}), nil
}

// PollForVoter loads a poll of the voter's event together with the options,
// proxies and entitlement needed to fill in a ballot. Polls of other events
// are reported as not found.
func (s *Service) PollForVoter(ctx context.Context, voter *models.Voter, pollID int64) (*PollView, error) {
	poll, err := s.repo.GetPollByID(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if poll.EventID != voter.EventID {
		return nil, repository.ErrNotFound
	}

	options, err := s.repo.GetPollOptions(ctx, poll.ID)
	if err != nil {
		return nil, fmt.Errorf("load options: %w", err)
	}
	proxies, err := s.repo.GetProxiesByVoterID(ctx, voter.ID)
	if err != nil {
		return nil, fmt.Errorf("load proxies: %w", err)
	}
	voted, err := s.repo.HasVoted(ctx, voter.ID, poll.ID)
	if err != nil {
		return nil, fmt.Errorf("check vote cast: %w", err)
	}

	return &PollView{
		Poll:        *poll,
		Options:     options,
		Proxies:     proxies,
		Entitlement: Entitlement(voter, len(proxies)),
		HasVoted:    voted,
	}, nil
}

// OpenPoll opens a poll for votes and clears any previous close time.
func (s *Service) OpenPoll(ctx context.Context, pollID int64) (*models.Poll, error) {
	var poll *models.Poll
	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		if err := tx.SetPollOpen(ctx, pollID); err != nil {
			return err
		}
		var err error
		poll, err = tx.GetPollByID(ctx, pollID)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "poll opened", "poll_id", poll.ID, "name", poll.Name)
	return poll, nil
}

// ClosePoll closes a poll as of the given time, which must not precede the
// poll's start.
func (s *Service) ClosePoll(ctx context.Context, pollID int64, at time.Time) (*models.Poll, error) {
	var poll *models.Poll
	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		var err error
		poll, err = tx.GetPollByID(ctx, pollID)
		if err != nil {
			return err
		}
		if at.Before(poll.StartTime) {
			return fmt.Errorf("%w: poll %d starts %s, close requested at %s",
				ErrCloseBeforeStart, poll.ID, poll.StartTime.Format(time.RFC3339), at.Format(time.RFC3339))
		}
		if err := tx.SetPollClosed(ctx, pollID, at); err != nil {
			return err
		}
		poll, err = tx.GetPollByID(ctx, pollID)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "poll closed", "poll_id", poll.ID, "name", poll.Name, "at", at)
	return poll, nil
}

// Results returns the committed tallies of a poll and the number of voters
// who took part.
func (s *Service) Results(ctx context.Context, pollID int64) (*models.PollResults, error) {
	poll, err := s.repo.GetPollByID(ctx, pollID)
	if err != nil {
		return nil, err
	}
	tallies, err := s.repo.GetTallies(ctx, poll.ID)
	if err != nil {
		return nil, fmt.Errorf("load tallies: %w", err)
	}
	casts, err := s.repo.CountVoteCasts(ctx, poll.ID)
	if err != nil {
		return nil, fmt.Errorf("count vote casts: %w", err)
	}
	return &models.PollResults{Poll: *poll, Tallies: tallies, VoteCasts: casts}, nil
}

