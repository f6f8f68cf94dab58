// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package admin implements the electobot command line used by organizers to
// run the server and to manage events, polls, voters and proxies.
package admin

import (
	"context"
	"fmt"
	"io"
	"time"

	"codeberg.org/oliverandrich/electobot/internal/config"
	"codeberg.org/oliverandrich/electobot/internal/database"
	"codeberg.org/oliverandrich/electobot/internal/i18n"
	"codeberg.org/oliverandrich/electobot/internal/logging"
	"codeberg.org/oliverandrich/electobot/internal/repository"
	"codeberg.org/oliverandrich/electobot/internal/server"
	"codeberg.org/oliverandrich/electobot/internal/services/voting"
	"github.com/urfave/cli/v3"
	"github.com/vinovest/sqlx"
)

// Version information (set via ldflags during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// serve runs the web server; replaced in tests.
var serve = server.Run

// app carries the state shared by all subcommands of one invocation.
type app struct {
	out    io.Writer
	now    func() time.Time
	cfg    *config.Config
	db     *sqlx.DB
	repo   *repository.Repository
	voting *voting.Service
}

// NewCommand builds the root command. Command output is written to out.
func NewCommand(out io.Writer) *cli.Command {
	a := &app{out: out, now: time.Now}

	return &cli.Command{
		Name:    "electobot",
		Usage:   "Run and administer online votes for assemblies",
		Version: fmt.Sprintf("%s (built %s)", Version, BuildTime),
		Writer:  out,
		Flags:   config.Flags(),
		Before:  a.before,
		After:   a.after,
		Commands: []*cli.Command{
			a.serveCommand(),
			a.migrateCommand(),
			a.eventCommand(),
			a.pollCommand(),
			a.optionCommand(),
			a.voterCommand(),
			a.proxyCommand(),
			a.listCommand(),
			a.tallyCommand(),
		},
	}
}

func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	a.cfg = config.NewFromCLI(cmd)
	logging.Setup(a.cfg.Log.Level, a.cfg.Log.Format)
	if err := i18n.Init(); err != nil {
		return ctx, fmt.Errorf("failed to init i18n: %w", err)
	}
	return ctx, nil
}

func (a *app) after(context.Context, *cli.Command) error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// open connects to the database on first use and applies pending migrations.
func (a *app) open() error {
	if a.db != nil {
		return nil
	}
	db, err := database.Open(a.cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	a.db = db
	a.repo = repository.New(db)
	a.voting = voting.NewService(a.repo)
	return nil
}

// withStore wraps an action that needs the database.
func (a *app) withStore(action cli.ActionFunc) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		if err := a.open(); err != nil {
			return err
		}
		return action(ctx, cmd)
	}
}

func (a *app) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

func (a *app) serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the web server",
		Action: a.withStore(func(ctx context.Context, _ *cli.Command) error {
			return serve(ctx, a.cfg, a.repo)
		}),
	}
}
