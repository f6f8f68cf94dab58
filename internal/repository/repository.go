// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vinovest/sqlx"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when an email is already registered for the event.
	ErrDuplicateEmail = errors.New("email already registered for this event")
	// ErrAlreadyVoted is returned when a vote cast already exists for the voter and poll.
	ErrAlreadyVoted = errors.New("voter already voted in this poll")
	// ErrDuplicateProxy is returned when the voter already holds a proxy for the delegate.
	ErrDuplicateProxy = errors.New("proxy already exists")
	// ErrDuplicateName is returned when an event or poll option name is taken.
	ErrDuplicateName = errors.New("name already in use")
)

// dbtx is the query surface shared by *sqlx.DB and *sqlx.Tx.
type dbtx interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// Repository provides access to the election store. A Repository returned by
// WithTx runs every query inside that transaction.
type Repository struct {
	db *sqlx.DB
	q  dbtx
	tx bool
}

// New creates a new Repository instance.
func New(db *sqlx.DB) *Repository {
	return &Repository{db: db, q: db}
}

// DB returns the underlying database handle.
func (r *Repository) DB() *sqlx.DB {
	return r.db
}

// WithTx runs fn inside a single transaction. The transaction commits when fn
// returns nil and rolls back otherwise. Nested calls reuse the outer transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(tx *Repository) error) error {
	if r.tx {
		return fn(r)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&Repository{db: r.db, q: tx, tx: true}); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// wrapError converts driver errors to repository errors.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// lastInsertID returns the id of the row inserted by res.
func lastInsertID(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
