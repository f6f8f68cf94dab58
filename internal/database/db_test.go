// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package database_test

import (
	"os"
	"testing"
	"time"

	"codeberg.org/oliverandrich/electobot/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_InMemory(t *testing.T) {
	db, err := database.Open(":memory:")

	require.NoError(t, err)
	require.NotNil(t, db)

	err = db.Close()
	require.NoError(t, err)
}

func TestOpen_DefaultDSN(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	_ = os.Chdir(tmpDir)
	defer func() {
		_ = os.Chdir(oldWd)
	}()

	db, err := database.Open("")

	require.NoError(t, err)
	require.NotNil(t, db)
	defer func() {
		_ = db.Close()
	}()

	_, err = os.Stat("data/electobot.db")
	assert.NoError(t, err)
}

func TestOpen_MigrationsApplied(t *testing.T) {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	for _, table := range []string{"events", "voters", "proxies", "polls", "poll_options", "vote_casts"} {
		var count int64
		err = db.Get(&count, "SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?", table)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count, table)
	}

	version, err := database.Version(db.DB)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
}

func TestOpen_ForeignKeysEnabled(t *testing.T) {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	var enabled int
	err = db.Get(&enabled, "PRAGMA foreign_keys")
	require.NoError(t, err)
	assert.Equal(t, 1, enabled)

	_, err = db.Exec(`INSERT INTO voters (event_id, email, token, created_at) VALUES (42, 'a@example.com', 't', ?)`, time.Now())
	assert.Error(t, err)
}

func TestOpen_WithExistingParams(t *testing.T) {
	db, err := database.Open(":memory:?_txlock=deferred")

	require.NoError(t, err)
	require.NotNil(t, db)

	defer func() {
		_ = db.Close()
	}()
}

func TestOpen_FileDatabase(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := tmpDir + "/subdir/test.db"

	db, err := database.Open(dbPath)
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	var count int64
	err = db.Get(&count, "SELECT count(*) FROM sqlite_master WHERE type='table' AND name='vote_casts'")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	var journalMode string
	err = db.Get(&journalMode, "PRAGMA journal_mode")
	require.NoError(t, err)
	assert.Equal(t, "wal", journalMode)
}

func TestIsUniqueViolation(t *testing.T) {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	insert := `INSERT INTO events (name, slug, token, created_at) VALUES (?, ?, ?, ?)`
	_, err = db.Exec(insert, "Assembly", "assembly", "token-1", time.Now())
	require.NoError(t, err)

	_, err = db.Exec(insert, "Assembly", "assembly-2", "token-2", time.Now())

	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))
	assert.False(t, database.IsUniqueViolation(os.ErrNotExist))
	assert.False(t, database.IsUniqueViolation(nil))
}

func TestMigrateReset(t *testing.T) {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	require.NoError(t, database.MigrateReset(db.DB))

	var count int64
	err = db.Get(&count, "SELECT count(*) FROM sqlite_master WHERE type='table' AND name='events'")
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, database.RunMigrations(db.DB))
}
