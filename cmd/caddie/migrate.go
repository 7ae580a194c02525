package main

import (
	"fmt"

	roundqueue "github.com/Black-And-White-Club/caddie/app/modules/round/infrastructure/queue"
	roundmigrations "github.com/Black-And-White-Club/caddie/app/modules/round/infrastructure/repositories/migrations"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v2"
)

func migrateCommand() *cli.Command {
	withMigrator := func(fn func(c *cli.Context, rt *runtime, m *migrate.Migrator) error) cli.ActionFunc {
		return func(c *cli.Context) error {
			rt, err := loadRuntime(c)
			if err != nil {
				return err
			}
			defer rt.Close()
			return fn(c, rt, migrate.NewMigrator(rt.db, roundmigrations.Migrations))
		}
	}

	return &cli.Command{
		Name:  "migrate",
		Usage: "database migrations",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "create migration tables",
				Action: withMigrator(func(c *cli.Context, _ *runtime, m *migrate.Migrator) error {
					return m.Init(c.Context)
				}),
			},
			{
				Name:  "up",
				Usage: "apply round schema and job queue migrations",
				Action: withMigrator(func(c *cli.Context, rt *runtime, m *migrate.Migrator) error {
					if err := m.Init(c.Context); err != nil {
						return err
					}
					if err := m.Lock(c.Context); err != nil {
						return err
					}
					defer m.Unlock(c.Context) //nolint:errcheck

					group, err := m.Migrate(c.Context)
					if err != nil {
						return err
					}
					if group.IsZero() {
						fmt.Println("No new round migrations to run")
					} else {
						fmt.Printf("Migrated round schema to %s\n", group)
					}
					return migrateQueue(c, rt, rivermigrate.DirectionUp)
				}),
			},
			{
				Name:  "rollback",
				Usage: "roll back the last round migration group",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "queue", Usage: "also roll back one job queue migration"},
				},
				Action: withMigrator(func(c *cli.Context, rt *runtime, m *migrate.Migrator) error {
					group, err := m.Rollback(c.Context)
					if err != nil {
						return err
					}
					if group.IsZero() {
						fmt.Println("No round migration groups to roll back")
					} else {
						fmt.Printf("Rolled back round schema %s\n", group)
					}
					if c.Bool("queue") {
						return migrateQueue(c, rt, rivermigrate.DirectionDown)
					}
					return nil
				}),
			},
			{
				Name:  "status",
				Usage: "print migrations status",
				Action: withMigrator(func(c *cli.Context, _ *runtime, m *migrate.Migrator) error {
					ms, err := m.MigrationsWithStatus(c.Context)
					if err != nil {
						return err
					}
					fmt.Printf("Round migrations: %s\n", ms)
					fmt.Printf("  Applied: %s\n", ms.Applied())
					fmt.Printf("  Unapplied: %s\n", ms.Unapplied())
					return nil
				}),
			},
		},
	}
}

func migrateQueue(c *cli.Context, rt *runtime, direction rivermigrate.Direction) error {
	pool, err := roundqueue.NewPool(c.Context, rt.cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := roundqueue.Migrate(c.Context, pool, direction); err != nil {
		return err
	}
	fmt.Printf("Job queue migrated %s\n", direction)
	return nil
}
