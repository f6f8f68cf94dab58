// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package registration signs voters up for events and hands out voting links.
package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"codeberg.org/oliverandrich/electobot/internal/models"
	"codeberg.org/oliverandrich/electobot/internal/repository"
)

var (
	// ErrEmailNotPermitted is returned when an email does not match the event's pattern.
	ErrEmailNotPermitted = errors.New("email address not permitted for this event")
	// ErrDuplicateEmail is returned when the email is already registered for the event.
	ErrDuplicateEmail = repository.ErrDuplicateEmail
	// ErrMailFailed is returned when the voter was registered but the voting link could not be sent.
	ErrMailFailed = errors.New("voting link could not be sent")
)

// Mailer delivers voting links.
type Mailer interface {
	SendVotingLink(ctx context.Context, to, eventName, votingURL string) error
}

// Service registers voters.
type Service struct {
	repo           *repository.Repository
	mailer         Mailer
	baseURL        string
	defaultPattern *regexp.Regexp
}

// NewService creates a registration service. defaultPattern applies to events
// without their own email pattern; an empty pattern permits every address.
func NewService(repo *repository.Repository, mailer Mailer, baseURL, defaultPattern string) (*Service, error) {
	re, err := regexp.Compile(defaultPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid default email pattern: %w", err)
	}
	return &Service{
		repo:           repo,
		mailer:         mailer,
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		defaultPattern: re,
	}, nil
}

// Event resolves an event registration token.
func (s *Service) Event(ctx context.Context, eventToken string) (*models.Event, error) {
	return s.repo.GetEventByToken(ctx, eventToken)
}

// Permitted reports whether email may register for the event.
func (s *Service) Permitted(event *models.Event, email string) (bool, error) {
	re := s.defaultPattern
	if event.EmailPattern != "" {
		var err error
		re, err = regexp.Compile(event.EmailPattern)
		if err != nil {
			return false, fmt.Errorf("event %d has an invalid email pattern: %w", event.ID, err)
		}
	}
	return re.MatchString(email), nil
}

// Register signs email up for the event identified by eventToken and mails
// the voting link. When only the mail fails, the voter stays registered and
// the error wraps ErrMailFailed.
func (s *Service) Register(ctx context.Context, eventToken, email string) (*models.Voter, error) {
	email = NormalizeEmail(email)

	event, err := s.Event(ctx, eventToken)
	if err != nil {
		return nil, err
	}

	ok, err := s.Permitted(event, email)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrEmailNotPermitted
	}

	voter, err := s.repo.CreateVoter(ctx, event.ID, email)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "voter registered", "event_id", event.ID, "voter_id", voter.ID)

	if err := s.mailer.SendVotingLink(ctx, voter.Email, event.Name, VotingURL(s.baseURL, voter.Token)); err != nil {
		slog.ErrorContext(ctx, "failed to send voting link", "voter_id", voter.ID, "error", err)
		return voter, fmt.Errorf("%w: %w", ErrMailFailed, err)
	}
	return voter, nil
}

// SendVotingLink mails an existing voter their voting link.
func (s *Service) SendVotingLink(ctx context.Context, event *models.Event, voter *models.Voter) error {
	return s.mailer.SendVotingLink(ctx, voter.Email, event.Name, VotingURL(s.baseURL, voter.Token))
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// VotingURL returns the personal voting page of a voter.
func VotingURL(baseURL, token string) string {
	return link(baseURL, "vote", url.Values{"token": {token}})
}

// RegisterURL returns the registration page of an event.
func RegisterURL(baseURL, eventToken string) string {
	return link(baseURL, "register", url.Values{"event_token": {eventToken}})
}

// PollURL returns the ballot page of a poll for a voter.
func PollURL(baseURL, token string, pollID int64) string {
	return link(baseURL, "vote", url.Values{
		"token":   {token},
		"poll_id": {strconv.FormatInt(pollID, 10)},
	})
}

func link(baseURL, path string, query url.Values) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + path + "?" + query.Encode()
}
