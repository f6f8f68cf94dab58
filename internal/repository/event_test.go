// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"testing"
	"time"

	"codeberg.org/oliverandrich/electobot/internal/repository"
	"codeberg.org/oliverandrich/electobot/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEvent(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	event, err := repo.CreateEvent(ctx, "General Assembly 2020/2021", `@example\.org$`)

	require.NoError(t, err)
	assert.NotZero(t, event.ID)
	assert.NotEmpty(t, event.Token)
	assert.Equal(t, `@example\.org$`, event.EmailPattern)
	assert.Equal(t, time.Now().UTC().Format(time.DateOnly)+"-general-assembly-2020-2021", event.Slug)
}

func TestCreateEvent_DuplicateName(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	_, err := repo.CreateEvent(ctx, "Assembly", "")
	require.NoError(t, err)

	_, err = repo.CreateEvent(ctx, "Assembly", "")

	assert.ErrorIs(t, err, repository.ErrDuplicateName)
}

func TestGetEventByToken(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	created := testutil.NewTestEvent(t, repo, "Assembly")

	event, err := repo.GetEventByToken(ctx, created.Token)

	require.NoError(t, err)
	assert.Equal(t, created.ID, event.ID)
	assert.Equal(t, created.Name, event.Name)
	assert.WithinDuration(t, created.CreatedAt, event.CreatedAt, time.Second)
}

func TestGetEventByToken_NotFound(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	_, err := repo.GetEventByToken(context.Background(), "nonexistent")

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMostRecentEvent(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	_, err := repo.MostRecentEvent(ctx)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	testutil.NewTestEvent(t, repo, "General Assembly 2020/2021")
	second := testutil.NewTestEvent(t, repo, "General Reassembly 2020/2021")

	event, err := repo.MostRecentEvent(ctx)

	require.NoError(t, err)
	assert.Equal(t, second.ID, event.ID)
}

func TestResolveEvent(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	first := testutil.NewTestEvent(t, repo, "General Assembly 2020/2021")
	second := testutil.NewTestEvent(t, repo, "General Reassembly 2020/2021")
	numeric := testutil.NewTestEvent(t, repo, "2024")

	tests := []struct {
		name       string
		identifier string
		expected   int64
	}{
		{"empty means most recent", "", numeric.ID},
		{"by id", "1", first.ID},
		{"by full name", "General Reassembly 2020/2021", second.ID},
		{"by slug", first.Slug, first.ID},
		{"numeric name", "2024", numeric.ID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := repo.ResolveEvent(ctx, tt.identifier)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, event.ID)
		})
	}

	_, err := repo.ResolveEvent(ctx, "unknown")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestListEvents(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	testutil.NewTestEvent(t, repo, "One")
	testutil.NewTestEvent(t, repo, "Two")

	events, err := repo.ListEvents(context.Background())

	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Two", events[0].Name)
}

func TestDeleteEvent_Cascades(t *testing.T) {
	db, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	event := testutil.NewTestEvent(t, repo, "Assembly")
	voter := testutil.NewTestVoter(t, repo, event.ID, "alice@example.org")
	testutil.NewTestProxies(t, repo, voter.ID, "bob@example.org")
	poll := testutil.NewTestPoll(t, repo, event.ID, "Budget")
	options := testutil.NewTestOptions(t, repo, poll.ID, "Yes", "No")
	err := repo.WithTx(ctx, func(tx *repository.Repository) error {
		return tx.ApplyBallot(ctx, voter.ID, poll.ID, map[int64]int{options[0].ID: 2}, time.Now())
	})
	require.NoError(t, err)

	err = repo.DeleteEvent(ctx, event.ID)
	require.NoError(t, err)

	for _, table := range []string{"voters", "proxies", "polls", "poll_options", "vote_casts"} {
		var count int
		require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM "+table))
		assert.Zero(t, count, table)
	}
}

func TestDeleteEvent_NotFound(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	err := repo.DeleteEvent(context.Background(), 999)

	assert.ErrorIs(t, err, repository.ErrNotFound)
}
