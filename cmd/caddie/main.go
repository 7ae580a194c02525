package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/Black-And-White-Club/caddie/app/observability"
	"github.com/Black-And-White-Club/caddie/config"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "caddie",
		Usage: "golf round engine and scorecard service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "config.yaml",
				Usage:   "path to the configuration file",
				EnvVars: []string{"CADDIE_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			playCommand(),
			roundsCommand(),
			coursesCommand(),
			tokenCommand(),
		},
	}
}

// runtime holds what every command needs.
type runtime struct {
	cfg *config.Config
	obs observability.Observability
	db  *bun.DB
}

func (r *runtime) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func loadRuntime(c *cli.Context) (*runtime, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	obs := observability.New(observability.Config{
		Environment: cfg.Observability.Environment,
		LogLevel:    cfg.Observability.LogLevel,
	})
	db, err := openDB(c.Context, cfg.Postgres.DSN)
	if err != nil {
		return nil, err
	}
	return &runtime{cfg: cfg, obs: obs, db: db}, nil
}

func openDB(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	if err := sqldb.PingContext(ctx); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return bun.NewDB(sqldb, pgdialect.New()), nil
}
