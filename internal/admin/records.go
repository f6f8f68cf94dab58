// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package admin

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"codeberg.org/oliverandrich/electobot/internal/models"
	"codeberg.org/oliverandrich/electobot/internal/repository"
	"codeberg.org/oliverandrich/electobot/internal/services/email"
	"codeberg.org/oliverandrich/electobot/internal/services/registration"
	"github.com/samber/lo"
	"github.com/urfave/cli/v3"
)

// ErrDelegateTaken is returned when a proxy is given for an email address that
// already votes in the event, either as a voter or through another proxy.
var ErrDelegateTaken = errors.New("delegate already votes in this event")

// timeLayouts are the accepted formats for --start, --end and --at.
// Times without a zone are local.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	time.DateOnly,
}

func parseTime(value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q, use YYYY-MM-DD HH:MM or RFC 3339", value)
}

func arg(cmd *cli.Command, i int, name string) (string, error) {
	value := strings.TrimSpace(cmd.Args().Get(i))
	if value == "" {
		return "", fmt.Errorf("missing %s argument", name)
	}
	return value, nil
}

func idArg(cmd *cli.Command, i int, name string) (int64, error) {
	value, err := arg(cmd, i, name)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, value)
	}
	return id, nil
}

func eventFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "event",
		Aliases: []string{"e"},
		Usage:   "Event id, slug or name (default: most recent event)",
	}
}

func pollFlag() cli.Flag {
	return &cli.Int64Flag{
		Name:  "poll",
		Usage: "Poll id (default: most recent poll)",
	}
}

// event resolves an organizer supplied identifier.
func (a *app) event(ctx context.Context, identifier string) (*models.Event, error) {
	event, err := a.repo.ResolveEvent(ctx, identifier)
	if errors.Is(err, repository.ErrNotFound) {
		if identifier == "" {
			return nil, errors.New("no events yet, create one with 'event create'")
		}
		return nil, fmt.Errorf("event %q not found", identifier)
	}
	return event, err
}

// poll returns the poll with the given id, or the most recent poll for id 0.
func (a *app) poll(ctx context.Context, id int64) (*models.Poll, error) {
	if id == 0 {
		poll, err := a.repo.MostRecentPoll(ctx)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errors.New("no polls yet, create one with 'poll create'")
		}
		return poll, err
	}
	poll, err := a.repo.GetPollByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("poll %d not found", id)
	}
	return poll, err
}

func (a *app) eventCommand() *cli.Command {
	return &cli.Command{
		Name:  "event",
		Usage: "Manage events",
		Commands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create an event",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "email-pattern",
						Usage: "Regular expression registering emails must match",
					},
				},
				Action: a.withStore(a.createEvent),
			},
			{
				Name:      "delete",
				Usage:     "Delete an event with all its voters, polls and votes",
				ArgsUsage: "<event>",
				Action:    a.withStore(a.deleteEvent),
			},
			{
				Name:      "url",
				Usage:     "Print the registration URL of an event",
				ArgsUsage: "[event]",
				Action:    a.withStore(a.eventURL),
			},
		},
	}
}

func (a *app) createEvent(ctx context.Context, cmd *cli.Command) error {
	name, err := arg(cmd, 0, "name")
	if err != nil {
		return err
	}
	pattern := cmd.String("email-pattern")
	if _, err := regexp.Compile(pattern); err != nil {
		return fmt.Errorf("invalid email pattern: %w", err)
	}

	event, err := a.repo.CreateEvent(ctx, name, pattern)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	a.printf("Event %q created (id %d, slug %s)\n", event.Name, event.ID, event.Slug)
	a.printf("Registration URL: %s\n", registration.RegisterURL(a.cfg.Server.BaseURL, event.Token))
	return nil
}

func (a *app) deleteEvent(ctx context.Context, cmd *cli.Command) error {
	identifier, err := arg(cmd, 0, "event")
	if err != nil {
		return err
	}
	event, err := a.event(ctx, identifier)
	if err != nil {
		return err
	}
	if err := a.repo.DeleteEvent(ctx, event.ID); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	a.printf("Event %q deleted\n", event.Name)
	return nil
}

func (a *app) eventURL(ctx context.Context, cmd *cli.Command) error {
	event, err := a.event(ctx, cmd.Args().First())
	if err != nil {
		return err
	}
	a.printf("%s\n", registration.RegisterURL(a.cfg.Server.BaseURL, event.Token))
	return nil
}

func (a *app) pollCommand() *cli.Command {
	return &cli.Command{
		Name:  "poll",
		Usage: "Manage polls",
		Commands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create a poll",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					eventFlag(),
					&cli.StringFlag{Name: "start", Usage: "Start of voting (default: now)"},
					&cli.StringFlag{Name: "end", Usage: "End of voting (default: open until closed)"},
					&cli.BoolFlag{Name: "open", Usage: "Open the poll right away"},
				},
				Action: a.withStore(a.createPoll),
			},
			{
				Name:      "open",
				Usage:     "Open a poll for votes",
				ArgsUsage: "<poll-id>",
				Action:    a.withStore(a.openPoll),
			},
			{
				Name:      "close",
				Usage:     "Close a poll",
				ArgsUsage: "<poll-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "at", Usage: "Closing time (default: now)"},
				},
				Action: a.withStore(a.closePoll),
			},
		},
	}
}

func (a *app) createPoll(ctx context.Context, cmd *cli.Command) error {
	name, err := arg(cmd, 0, "name")
	if err != nil {
		return err
	}
	if cmd.Bool("open") && cmd.String("end") != "" {
		return errors.New("--open clears the end time, set it later with 'poll close --at'")
	}

	start := a.now()
	if value := cmd.String("start"); value != "" {
		if start, err = parseTime(value); err != nil {
			return err
		}
	}
	var end *time.Time
	if value := cmd.String("end"); value != "" {
		t, err := parseTime(value)
		if err != nil {
			return err
		}
		if t.Before(start) {
			return errors.New("end must not precede start")
		}
		end = &t
	}

	event, err := a.event(ctx, cmd.String("event"))
	if err != nil {
		return err
	}
	poll, err := a.repo.CreatePoll(ctx, event.ID, name, start, end)
	if err != nil {
		return fmt.Errorf("failed to create poll: %w", err)
	}
	a.printf("Poll %q created for event %q (id %d)\n", poll.Name, event.Name, poll.ID)

	if cmd.Bool("open") {
		if _, err := a.voting.OpenPoll(ctx, poll.ID); err != nil {
			return fmt.Errorf("failed to open poll: %w", err)
		}
		a.printf("Poll %d is open\n", poll.ID)
	}
	return nil
}

func (a *app) openPoll(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, 0, "poll id")
	if err != nil {
		return err
	}
	if _, err := a.poll(ctx, id); err != nil {
		return err
	}
	poll, err := a.voting.OpenPoll(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to open poll: %w", err)
	}
	a.printf("Poll %q is open\n", poll.Name)
	return nil
}

func (a *app) closePoll(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, 0, "poll id")
	if err != nil {
		return err
	}
	at := a.now()
	if value := cmd.String("at"); value != "" {
		if at, err = parseTime(value); err != nil {
			return err
		}
	}
	if _, err := a.poll(ctx, id); err != nil {
		return err
	}
	poll, err := a.voting.ClosePoll(ctx, id, at)
	if err != nil {
		return fmt.Errorf("failed to close poll: %w", err)
	}
	a.printf("Poll %q closed at %s\n", poll.Name, poll.EndTime.Local().Format(time.DateTime))
	return nil
}

func (a *app) optionCommand() *cli.Command {
	return &cli.Command{
		Name:  "option",
		Usage: "Manage poll options",
		Commands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Add an option to a poll",
				ArgsUsage: "<name>",
				Flags:     []cli.Flag{pollFlag()},
				Action:    a.withStore(a.createOption),
			},
		},
	}
}

func (a *app) createOption(ctx context.Context, cmd *cli.Command) error {
	name, err := arg(cmd, 0, "name")
	if err != nil {
		return err
	}
	poll, err := a.poll(ctx, cmd.Int64("poll"))
	if err != nil {
		return err
	}
	option, err := a.repo.CreatePollOption(ctx, poll.ID, name)
	if err != nil {
		return fmt.Errorf("failed to create poll option: %w", err)
	}
	a.printf("Poll option %q created for poll %q (id %d)\n", option.Name, poll.Name, option.ID)
	return nil
}

func (a *app) voterCommand() *cli.Command {
	return &cli.Command{
		Name:  "voter",
		Usage: "Manage voters",
		Commands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Register a voter without the email pattern check",
				ArgsUsage: "<email>",
				Flags: []cli.Flag{
					eventFlag(),
					&cli.BoolFlag{Name: "send", Usage: "Mail the voting link to the voter"},
				},
				Action: a.withStore(a.createVoter),
			},
			{
				Name:      "send",
				Usage:     "Mail the voting link to a registered voter again",
				ArgsUsage: "<email>",
				Flags:     []cli.Flag{eventFlag()},
				Action:    a.withStore(a.sendVotingLink),
			},
		},
	}
}

func (a *app) createVoter(ctx context.Context, cmd *cli.Command) error {
	address, err := arg(cmd, 0, "email")
	if err != nil {
		return err
	}
	event, err := a.event(ctx, cmd.String("event"))
	if err != nil {
		return err
	}
	voter, err := a.repo.CreateVoter(ctx, event.ID, registration.NormalizeEmail(address))
	if err != nil {
		return fmt.Errorf("failed to create voter: %w", err)
	}

	a.printf("Voter %s created for event %q\n", voter.Email, event.Name)
	a.printf("Token: %s\n", voter.Token)
	a.printf("Voting URL: %s\n", registration.VotingURL(a.cfg.Server.BaseURL, voter.Token))

	if !cmd.Bool("send") {
		return nil
	}
	return a.send(ctx, event, voter)
}

func (a *app) sendVotingLink(ctx context.Context, cmd *cli.Command) error {
	address, err := arg(cmd, 0, "email")
	if err != nil {
		return err
	}
	event, err := a.event(ctx, cmd.String("event"))
	if err != nil {
		return err
	}
	voter, err := a.repo.GetVoterByEmail(ctx, event.ID, registration.NormalizeEmail(address))
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("voter %s is not registered for event %q", address, event.Name)
	}
	if err != nil {
		return err
	}
	return a.send(ctx, event, voter)
}

func (a *app) send(ctx context.Context, event *models.Event, voter *models.Voter) error {
	mailer, err := newMailer(a)
	if err != nil {
		return err
	}
	reg, err := registration.NewService(a.repo, mailer, a.cfg.Server.BaseURL, a.cfg.Registration.DefaultEmailPattern)
	if err != nil {
		return err
	}
	if err := reg.SendVotingLink(ctx, event, voter); err != nil {
		return fmt.Errorf("%w: %w", registration.ErrMailFailed, err)
	}
	a.printf("Voting link sent to %s\n", voter.Email)
	return nil
}

// newMailer builds the mailer used by --send; replaced in tests.
var newMailer = func(a *app) (registration.Mailer, error) {
	return email.NewMailer(&a.cfg.SMTP)
}

func (a *app) proxyCommand() *cli.Command {
	return &cli.Command{
		Name:  "proxy",
		Usage: "Manage proxies",
		Commands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Let a voter also vote on behalf of a delegate",
				ArgsUsage: "<voter-email> <delegate-email>",
				Flags:     []cli.Flag{eventFlag()},
				Action:    a.withStore(a.createProxy),
			},
		},
	}
}

func (a *app) createProxy(ctx context.Context, cmd *cli.Command) error {
	voterEmail, err := arg(cmd, 0, "voter email")
	if err != nil {
		return err
	}
	delegate, err := arg(cmd, 1, "delegate email")
	if err != nil {
		return err
	}
	voterEmail = registration.NormalizeEmail(voterEmail)
	delegate = registration.NormalizeEmail(delegate)

	event, err := a.event(ctx, cmd.String("event"))
	if err != nil {
		return err
	}

	var voter *models.Voter
	err = a.repo.WithTx(ctx, func(tx *repository.Repository) error {
		var err error
		voter, err = tx.GetVoterByEmail(ctx, event.ID, voterEmail)
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("voter %s is not registered for event %q", voterEmail, event.Name)
		}
		if err != nil {
			return err
		}

		held, err := tx.GetProxiesByVoterID(ctx, voter.ID)
		if err != nil {
			return err
		}
		if lo.ContainsBy(held, func(p models.Proxy) bool { return p.Email == delegate }) {
			return repository.ErrDuplicateProxy
		}

		if _, err := tx.GetVoterByEmail(ctx, event.ID, delegate); err == nil {
			return ErrDelegateTaken
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		taken, err := tx.ProxyDelegateExists(ctx, event.ID, delegate)
		if err != nil {
			return err
		}
		if taken {
			return ErrDelegateTaken
		}

		_, err = tx.CreateProxy(ctx, voter.ID, delegate)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to create proxy: %w", err)
	}

	a.printf("Proxy created: %s will vote for %s\n", voter.Email, delegate)
	return nil
}
