// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"time"

	"github.com/gosimple/slug"
)

// Event is a single election or assembly grouping voters and polls.
type Event struct { //nolint:govet // fieldalignment: readability over optimization
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Slug         string    `db:"slug" json:"slug"`
	Token        string    `db:"token" json:"-"`
	EmailPattern string    `db:"email_pattern" json:"email_pattern"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// EventSlug derives the simplified event name: the creation date followed by
// the lowercased, ASCII-only name.
func EventSlug(name string, createdAt time.Time) string {
	return createdAt.UTC().Format(time.DateOnly) + "-" + slug.Make(name)
}
