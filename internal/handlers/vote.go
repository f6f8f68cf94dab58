// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"codeberg.org/oliverandrich/electobot/internal/i18n"
	"codeberg.org/oliverandrich/electobot/internal/models"
	"codeberg.org/oliverandrich/electobot/internal/repository"
	"codeberg.org/oliverandrich/electobot/internal/services/registration"
	"codeberg.org/oliverandrich/electobot/internal/services/voting"
	"codeberg.org/oliverandrich/electobot/internal/views"
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"
)

// Vote shows the open polls of the voter's event or, with a poll_id, the
// ballot form of one poll.
func (h *Handlers) Vote(c echo.Context) error {
	voter, err := h.voter(c)
	if err != nil {
		return renderError(c, err, "")
	}
	if c.QueryParam("poll_id") == "" {
		return h.polls(c, voter)
	}

	back := registration.VotingURL("", voter.Token)
	pollID, err := parsePollID(c)
	if err != nil {
		return renderError(c, err, back)
	}

	ctx := c.Request().Context()
	view, err := h.voting.PollForVoter(ctx, voter, pollID)
	if err != nil {
		return renderError(c, err, back)
	}
	if view.HasVoted {
		return Render(c, http.StatusOK, views.Message(views.MessageData{
			Title:   view.Poll.Name,
			Message: i18n.T(ctx, "vote_already_voted_notice"),
			BackURL: back,
		}))
	}

	return Render(c, http.StatusOK, views.Ballot(ballotData(c, voter, view, nil, "")))
}

// CastVote submits the ballot form of a poll.
func (h *Handlers) CastVote(c echo.Context) error {
	voter, err := h.voter(c)
	if err != nil {
		return renderError(c, err, "")
	}

	back := registration.VotingURL("", voter.Token)
	pollID, err := parsePollID(c)
	if err != nil {
		return renderError(c, err, back)
	}

	ctx := c.Request().Context()
	view, err := h.voting.PollForVoter(ctx, voter, pollID)
	if err != nil {
		return renderError(c, err, back)
	}

	form, err := c.FormParams()
	if err != nil {
		return renderError(c, errors.Join(voting.ErrMalformedBallot, err), back)
	}

	votes, err := voting.ParseForm(form)
	if err == nil {
		err = h.voting.CastVote(ctx, voter, voting.Ballot{PollID: pollID, Votes: votes}, h.now())
	}

	switch {
	case err == nil:
		return Render(c, http.StatusOK, views.Message(views.MessageData{
			Title:   view.Poll.Name,
			Message: i18n.T(ctx, "vote_success"),
			BackURL: back,
		}))
	case correctable(err):
		status, messageID := classify(err)
		return Render(c, status, views.Ballot(ballotData(c, voter, view, votes, i18n.T(ctx, messageID))))
	default:
		return renderError(c, err, back)
	}
}

// correctable reports whether the voter can fix the ballot and submit again.
func correctable(err error) bool {
	return lo.SomeBy([]error{
		voting.ErrTooFewVotes,
		voting.ErrTooManyVotes,
		voting.ErrNegativeVote,
		voting.ErrMalformedBallot,
	}, func(target error) bool { return errors.Is(err, target) })
}

func (h *Handlers) polls(c echo.Context, voter *models.Voter) error {
	ctx := c.Request().Context()
	event, err := h.repo.GetEventByID(ctx, voter.EventID)
	if err != nil {
		return renderError(c, err, "")
	}
	polls, err := h.voting.OpenPolls(ctx, voter, h.now())
	if err != nil {
		return renderError(c, err, "")
	}

	return Render(c, http.StatusOK, views.Polls(views.PollsData{
		EventName: event.Name,
		Polls: lo.Map(polls, func(p models.Poll, _ int) views.PollLink {
			return views.PollLink{Name: p.Name, URL: registration.PollURL("", voter.Token, p.ID)}
		}),
	}))
}

func (h *Handlers) voter(c echo.Context) (*models.Voter, error) {
	token := c.QueryParam("token")
	if token == "" {
		return nil, errUnknownToken
	}
	voter, err := h.repo.GetVoterByToken(c.Request().Context(), token)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errUnknownToken
	}
	return voter, err
}

func parsePollID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.QueryParam("poll_id"), 10, 64)
	if err != nil {
		return 0, repository.ErrNotFound
	}
	return id, nil
}

// ballotData fills the ballot form, keeping the voter's previous entries.
func ballotData(c echo.Context, voter *models.Voter, view *voting.PollView, votes map[voting.Selector]int, message string) views.BallotData {
	return views.BallotData{
		PollName:    view.Poll.Name,
		ActionURL:   registration.PollURL("", voter.Token, view.Poll.ID),
		BackURL:     registration.VotingURL("", voter.Token),
		CSRF:        csrfToken(c),
		Error:       message,
		Entitlement: view.Entitlement,
		Proxies:     lo.Map(view.Proxies, func(p models.Proxy, _ int) string { return p.Email }),
		Options: lo.Map(view.Options, func(o models.PollOption, _ int) views.BallotField {
			sel := voting.OptionSelector(o.ID)
			return views.BallotField{Name: sel.FieldName(), Label: o.Name, Value: votes[sel]}
		}),
		Abstain: views.BallotField{
			Name:  voting.Abstain.FieldName(),
			Label: i18n.T(c.Request().Context(), "vote_abstain"),
			Value: votes[voting.Abstain],
		},
	}
}
