// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package admin_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/oliverandrich/electobot/internal/admin"
	"codeberg.org/oliverandrich/electobot/internal/database"
	"codeberg.org/oliverandrich/electobot/internal/repository"
	"codeberg.org/oliverandrich/electobot/internal/services/voting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseURL = "https://vote.example.com"

// cli runs electobot commands against one database file.
type cli struct {
	t   *testing.T
	dsn string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	return &cli{t: t, dsn: filepath.Join(t.TempDir(), "electobot.db")}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	var out bytes.Buffer
	argv := append([]string{"electobot", "--database-dsn", c.dsn, "--base-url", baseURL, "--log-level", "error"}, args...)
	err := admin.NewCommand(&out).Run(context.Background(), argv)
	return out.String(), err
}

func (c *cli) must(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err, "electobot %v", args)
	return out
}

func (c *cli) repo() *repository.Repository {
	c.t.Helper()
	db, err := database.Open(c.dsn)
	require.NoError(c.t, err)
	c.t.Cleanup(func() { _ = db.Close() })
	return repository.New(db)
}

func TestEventCreate(t *testing.T) {
	c := newCLI(t)

	out := c.must("event", "create", "--email-pattern", `@example\.com$`, "General Assembly")

	assert.Contains(t, out, `Event "General Assembly" created (id 1`)
	assert.Contains(t, out, "Registration URL: "+baseURL+"/register?event_token=")

	event, err := c.repo().GetEventByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, `@example\.com$`, event.EmailPattern)

	out = c.must("event", "url")
	assert.Equal(t, baseURL+"/register?event_token="+event.Token+"\n", out)

	out = c.must("list", "events")
	assert.Contains(t, out, "General Assembly")
	assert.Contains(t, out, event.Slug)
}

func TestEventCreate_Errors(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("event", "create")
	assert.ErrorContains(t, err, "missing name argument")

	_, err = c.run("event", "create", "--email-pattern", "(", "Broken")
	assert.ErrorContains(t, err, "invalid email pattern")

	c.must("event", "create", "Assembly")
	_, err = c.run("event", "create", "Assembly")
	assert.ErrorIs(t, err, repository.ErrDuplicateName)
}

func TestEventDelete(t *testing.T) {
	c := newCLI(t)
	c.must("event", "create", "Assembly")
	c.must("voter", "create", "a@example.com")

	out := c.must("event", "delete", "Assembly")
	assert.Equal(t, "Event \"Assembly\" deleted\n", out)

	out = c.must("list", "events")
	assert.Equal(t, "No events yet\n", out)

	_, err := c.run("event", "delete", "Assembly")
	assert.ErrorContains(t, err, `event "Assembly" not found`)
}

func TestEventResolution(t *testing.T) {
	c := newCLI(t)
	c.must("event", "create", "First")
	c.must("event", "create", "Second")
	first, err := c.repo().GetEventByName(context.Background(), "First")
	require.NoError(t, err)

	tests := []struct {
		name       string
		identifier string
		expected   string
	}{
		{"id", "1", "First"},
		{"slug", first.Slug, "First"},
		{"name", "Second", "Second"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := c.must("poll", "create", "-e", tt.identifier, "Poll "+tt.name)
			assert.Contains(t, out, `for event "`+tt.expected+`"`)
		})
	}

	out := c.must("poll", "create", "Default")
	assert.Contains(t, out, `for event "Second"`)
}

func TestNoEvents(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("poll", "create", "Budget")
	assert.ErrorContains(t, err, "no events yet")

	_, err = c.run("tally")
	assert.ErrorContains(t, err, "no polls yet")
}

func TestVotingWorkflow(t *testing.T) {
	c := newCLI(t)
	ctx := context.Background()

	c.must("event", "create", "Assembly")
	out := c.must("poll", "create", "--open", "Budget")
	assert.Contains(t, out, "Poll 1 is open")
	c.must("option", "create", "Yes")
	c.must("option", "create", "No")

	out = c.must("voter", "create", " A@Example.com ")
	assert.Contains(t, out, "Voter a@example.com created for event \"Assembly\"")
	assert.Contains(t, out, "Voting URL: "+baseURL+"/vote?token=")

	out = c.must("proxy", "create", "a@example.com", "b@example.com")
	assert.Equal(t, "Proxy created: a@example.com will vote for b@example.com\n", out)

	out = c.must("list", "voters")
	assert.Contains(t, out, "a@example.com")
	assert.Contains(t, out, "2")

	repo := c.repo()
	voter, err := repo.GetVoterByEmail(ctx, 1, "a@example.com")
	require.NoError(t, err)
	options, err := repo.GetPollOptions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, options, 2)

	ballot := voting.Ballot{PollID: 1, Votes: map[voting.Selector]int{voting.OptionSelector(options[0].ID): 2}}
	require.NoError(t, voting.NewService(repo).CastVote(ctx, voter, ballot, time.Now()))

	out = c.must("tally")
	assert.Contains(t, out, `Poll "Budget" (open)`)
	assert.Contains(t, out, "100.0%")
	assert.Contains(t, out, "Votes: 2, ballots: 1")

	out = c.must("list", "votes")
	assert.Contains(t, out, "Budget")
	assert.Contains(t, out, "a@example.com")

	out = c.must("list", "options", "--poll", "1")
	assert.Contains(t, out, "Yes")
	assert.Contains(t, out, "No")
}

func TestProxyCreate_Rejections(t *testing.T) {
	c := newCLI(t)
	c.must("event", "create", "Assembly")
	c.must("voter", "create", "a@example.com")
	c.must("voter", "create", "b@example.com")
	c.must("proxy", "create", "a@example.com", "c@example.com")

	tests := []struct {
		name     string
		args     []string
		expected error
	}{
		{"delegate is voter", []string{"b@example.com", "a@example.com"}, admin.ErrDelegateTaken},
		{"delegate held by other voter", []string{"b@example.com", "C@example.com"}, admin.ErrDelegateTaken},
		{"duplicate", []string{"a@example.com", "c@example.com"}, repository.ErrDuplicateProxy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.run(append([]string{"proxy", "create"}, tt.args...)...)
			assert.ErrorIs(t, err, tt.expected)
		})
	}

	_, err := c.run("proxy", "create", "x@example.com", "d@example.com")
	assert.ErrorContains(t, err, "x@example.com is not registered")

	_, err = c.run("proxy", "create", "a@example.com")
	assert.ErrorContains(t, err, "missing delegate email argument")

	out := c.must("list", "proxies")
	assert.Contains(t, out, "c@example.com")
	assert.NotContains(t, out, "d@example.com")
}

func TestVoterCreate_Duplicate(t *testing.T) {
	c := newCLI(t)
	c.must("event", "create", "Assembly")
	c.must("voter", "create", "a@example.com")

	_, err := c.run("voter", "create", "a@example.com")

	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
}

func TestPollLifecycle(t *testing.T) {
	c := newCLI(t)
	c.must("event", "create", "Assembly")
	c.must("poll", "create", "--start", "2020-01-01 10:00", "Budget")

	out := c.must("list", "polls")
	assert.Contains(t, out, "scheduled")
	assert.Contains(t, out, "2020-01-01 10:00")

	_, err := c.run("poll", "close", "--at", "2019-12-31", "1")
	assert.ErrorIs(t, err, voting.ErrCloseBeforeStart)

	out = c.must("poll", "open", "1")
	assert.Equal(t, "Poll \"Budget\" is open\n", out)

	out = c.must("poll", "close", "--at", "2020-01-02 12:00", "1")
	assert.Contains(t, out, "closed at 2020-01-02 12:00")

	out = c.must("list", "polls")
	assert.Contains(t, out, "closed")

	_, err = c.run("poll", "open", "7")
	assert.ErrorContains(t, err, "poll 7 not found")

	_, err = c.run("poll", "open", "abc")
	assert.ErrorContains(t, err, "invalid poll id")
}

func TestPollCreate_InvalidTimes(t *testing.T) {
	c := newCLI(t)
	c.must("event", "create", "Assembly")

	_, err := c.run("poll", "create", "--start", "tomorrow", "Budget")
	assert.ErrorContains(t, err, "invalid time")

	_, err = c.run("poll", "create", "--start", "2020-01-02", "--end", "2020-01-01", "Budget")
	assert.ErrorContains(t, err, "end must not precede start")

	_, err = c.run("poll", "create", "--open", "--end", "2030-01-01", "Budget")
	assert.Error(t, err)
}

func TestMigrate(t *testing.T) {
	c := newCLI(t)

	out := c.must("migrate", "status")
	assert.Equal(t, "Schema version: 1\n", out)

	c.must("event", "create", "Assembly")
	out = c.must("migrate", "reset")
	assert.Equal(t, "Schema version: 1\n", out)

	out = c.must("list", "events")
	assert.Equal(t, "No events yet\n", out)
}
