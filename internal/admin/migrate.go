// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package admin

import (
	"context"
	"fmt"

	"codeberg.org/oliverandrich/electobot/internal/database"
	"github.com/urfave/cli/v3"
)

func (a *app) migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the database schema",
		Commands: []*cli.Command{
			{
				Name:   "up",
				Usage:  "Apply all pending migrations",
				Action: a.withStore(a.migrateStatus),
			},
			{
				Name:  "down",
				Usage: "Roll back the last migration",
				Action: a.withStore(func(ctx context.Context, cmd *cli.Command) error {
					if err := database.MigrateDown(a.db.DB); err != nil {
						return fmt.Errorf("failed to roll back: %w", err)
					}
					return a.migrateStatus(ctx, cmd)
				}),
			},
			{
				Name:  "reset",
				Usage: "Drop all data and recreate the schema",
				Action: a.withStore(func(ctx context.Context, cmd *cli.Command) error {
					if err := database.MigrateReset(a.db.DB); err != nil {
						return fmt.Errorf("failed to reset: %w", err)
					}
					if err := database.RunMigrations(a.db.DB); err != nil {
						return fmt.Errorf("failed to migrate: %w", err)
					}
					return a.migrateStatus(ctx, cmd)
				}),
			},
			{
				Name:   "status",
				Usage:  "Print the current schema version",
				Action: a.withStore(a.migrateStatus),
			},
		},
	}
}

func (a *app) migrateStatus(context.Context, *cli.Command) error {
	version, err := database.Version(a.db.DB)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	a.printf("Schema version: %d\n", version)
	return nil
}
