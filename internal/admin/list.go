// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package admin

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"codeberg.org/oliverandrich/electobot/internal/models"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"github.com/urfave/cli/v3"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// render prints rows as a bordered table, or a notice when there are none.
func (a *app) render(what string, headers []string, rows [][]string) {
	if len(rows) == 0 {
		a.printf("No %s yet\n", what)
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	a.printf("%s\n", t.Render())
}

func formatID(v int64) string {
	return strconv.FormatInt(v, 10)
}

func when(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

func (a *app) listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "Print stored records as a table",
		Commands: []*cli.Command{
			{Name: "events", Usage: "List all events", Action: a.withStore(a.listEvents)},
			{Name: "voters", Usage: "List the voters of an event", Flags: []cli.Flag{eventFlag()}, Action: a.withStore(a.listVoters)},
			{Name: "polls", Usage: "List the polls of an event", Flags: []cli.Flag{eventFlag()}, Action: a.withStore(a.listPolls)},
			{Name: "options", Usage: "List the options of a poll", Flags: []cli.Flag{pollFlag()}, Action: a.withStore(a.listOptions)},
			{Name: "votes", Usage: "List who voted in the polls of an event", Flags: []cli.Flag{eventFlag()}, Action: a.withStore(a.listVotes)},
			{Name: "proxies", Usage: "List the proxies of an event", Flags: []cli.Flag{eventFlag()}, Action: a.withStore(a.listProxies)},
		},
	}
}

func (a *app) listEvents(ctx context.Context, _ *cli.Command) error {
	events, err := a.repo.ListEvents(ctx)
	if err != nil {
		return fmt.Errorf("failed to list events: %w", err)
	}
	rows := lo.Map(events, func(e models.Event, _ int) []string {
		return []string{formatID(e.ID), e.Name, e.Slug, e.EmailPattern, humanize.Time(e.CreatedAt)}
	})
	a.render("events", []string{"ID", "Name", "Slug", "Email pattern", "Created"}, rows)
	return nil
}

func (a *app) listVoters(ctx context.Context, cmd *cli.Command) error {
	event, err := a.event(ctx, cmd.String("event"))
	if err != nil {
		return err
	}
	voters, err := a.repo.ListVoters(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("failed to list voters: %w", err)
	}
	proxies, err := a.repo.ListProxies(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("failed to list proxies: %w", err)
	}
	held := lo.CountValuesBy(proxies, func(p models.Proxy) int64 { return p.VoterID })

	rows := lo.Map(voters, func(v models.Voter, _ int) []string {
		return []string{formatID(v.ID), v.Email, strconv.Itoa(1 + held[v.ID]), humanize.Time(v.CreatedAt)}
	})
	a.render("voters", []string{"ID", "Email", "Votes", "Registered"}, rows)
	return nil
}

func (a *app) listPolls(ctx context.Context, cmd *cli.Command) error {
	event, err := a.event(ctx, cmd.String("event"))
	if err != nil {
		return err
	}
	polls, err := a.repo.ListPolls(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("failed to list polls: %w", err)
	}
	now := a.now()
	rows := lo.Map(polls, func(p models.Poll, _ int) []string {
		end := "-"
		if p.EndTime != nil {
			end = when(*p.EndTime)
		}
		return []string{formatID(p.ID), p.Name, string(p.State(now)), when(p.StartTime), end}
	})
	a.render("polls", []string{"ID", "Name", "State", "Start", "End"}, rows)
	return nil
}

func (a *app) listOptions(ctx context.Context, cmd *cli.Command) error {
	poll, err := a.poll(ctx, cmd.Int64("poll"))
	if err != nil {
		return err
	}
	options, err := a.repo.GetPollOptions(ctx, poll.ID)
	if err != nil {
		return fmt.Errorf("failed to list poll options: %w", err)
	}
	rows := lo.Map(options, func(o models.PollOption, _ int) []string {
		return []string{formatID(o.ID), o.Name}
	})
	a.printf("Poll %q\n", poll.Name)
	a.render("poll options", []string{"ID", "Name"}, rows)
	return nil
}

func (a *app) listVotes(ctx context.Context, cmd *cli.Command) error {
	event, err := a.event(ctx, cmd.String("event"))
	if err != nil {
		return err
	}
	casts, err := a.repo.ListVoteCasts(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("failed to list votes: %w", err)
	}
	voters, err := a.repo.ListVoters(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("failed to list voters: %w", err)
	}
	polls, err := a.repo.ListPolls(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("failed to list polls: %w", err)
	}
	emails := lo.SliceToMap(voters, func(v models.Voter) (int64, string) { return v.ID, v.Email })
	names := lo.SliceToMap(polls, func(p models.Poll) (int64, string) { return p.ID, p.Name })

	rows := lo.Map(casts, func(c models.VoteCast, _ int) []string {
		return []string{names[c.PollID], emails[c.VoterID], humanize.Time(c.CreatedAt)}
	})
	a.render("votes", []string{"Poll", "Voter", "Cast"}, rows)
	return nil
}

func (a *app) listProxies(ctx context.Context, cmd *cli.Command) error {
	event, err := a.event(ctx, cmd.String("event"))
	if err != nil {
		return err
	}
	proxies, err := a.repo.ListProxies(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("failed to list proxies: %w", err)
	}
	voters, err := a.repo.ListVoters(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("failed to list voters: %w", err)
	}
	emails := lo.SliceToMap(voters, func(v models.Voter) (int64, string) { return v.ID, v.Email })

	rows := lo.Map(proxies, func(p models.Proxy, _ int) []string {
		return []string{emails[p.VoterID], p.Email, humanize.Time(p.CreatedAt)}
	})
	a.render("proxies", []string{"Voter", "Votes for", "Created"}, rows)
	return nil
}

func (a *app) tallyCommand() *cli.Command {
	return &cli.Command{
		Name:   "tally",
		Usage:  "Count the votes of a poll",
		Flags:  []cli.Flag{pollFlag()},
		Action: a.withStore(a.tally),
	}
}

func (a *app) tally(ctx context.Context, cmd *cli.Command) error {
	poll, err := a.poll(ctx, cmd.Int64("poll"))
	if err != nil {
		return err
	}
	results, err := a.voting.Results(ctx, poll.ID)
	if err != nil {
		return fmt.Errorf("failed to tally poll: %w", err)
	}

	total := results.Total()
	rows := lo.Map(results.Tallies, func(t models.Tally, _ int) []string {
		share := 0.0
		if total > 0 {
			share = float64(t.TotalVotes) / float64(total) * 100
		}
		return []string{t.Name, humanize.Comma(t.TotalVotes), fmt.Sprintf("%.1f%%", share)}
	})

	a.printf("Poll %q (%s)\n", poll.Name, poll.State(a.now()))
	a.render("poll options", []string{"Option", "Votes", "Share"}, rows)
	a.printf("Votes: %s, ballots: %s\n", humanize.Comma(total), humanize.Comma(results.VoteCasts))
	return nil
}
