package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	authjwt "github.com/Black-And-White-Club/caddie/app/modules/auth/infrastructure/jwt"
	roundservice "github.com/Black-And-White-Club/caddie/app/modules/round/application"
	rounddomain "github.com/Black-And-White-Club/caddie/app/modules/round/domain"
	roundexport "github.com/Black-And-White-Club/caddie/app/modules/round/infrastructure/export"
	rounddb "github.com/Black-And-White-Club/caddie/app/modules/round/infrastructure/repositories"
	roundtime "github.com/Black-And-White-Club/caddie/app/modules/round/time_utils"
	"github.com/Black-And-White-Club/caddie/config"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

// newService builds a round service for one-shot commands: no event bus, no
// queue, no position source.
func newService(rt *runtime) *roundservice.Service {
	return roundservice.NewService(roundservice.Dependencies{
		Repo:    rounddb.NewRepository(rt.db),
		DB:      rt.db,
		Logger:  rt.obs.Logger,
		Metrics: rt.obs.Metrics,
		Tracer:  rt.obs.Tracer,
	})
}

func roundsCommand() *cli.Command {
	return &cli.Command{
		Name:  "rounds",
		Usage: "round history",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list a player's rounds",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Required: true, Usage: "player UUID"},
					&cli.StringFlag{Name: "status", Usage: "active or completed"},
					&cli.StringFlag{Name: "since", Usage: `date or phrase such as "last week" or "3 days ago"`},
					&cli.StringFlag{Name: "tz", Usage: "timezone for --since, e.g. CEST or Europe/Paris"},
					&cli.IntFlag{Name: "limit", Value: 20},
				},
				Action: func(c *cli.Context) error {
					userID, err := uuid.Parse(c.String("user"))
					if err != nil {
						return fmt.Errorf("invalid --user: %w", err)
					}
					filter := rounddomain.RoundFilter{
						UserID: userID,
						Status: rounddomain.RoundStatus(c.String("status")),
						Limit:  c.Int("limit"),
					}
					if since := c.String("since"); since != "" {
						t, err := roundtime.NewTimeParser().ParseSince(since, c.String("tz"), time.Now())
						if err != nil {
							return fmt.Errorf("invalid --since: %w", err)
						}
						filter.Since = &t
					}

					rt, err := loadRuntime(c)
					if err != nil {
						return err
					}
					defer rt.Close()

					rounds, err := newService(rt).ListRounds(c.Context, filter)
					if err != nil {
						return err
					}

					w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
					fmt.Fprintln(w, "ROUND\tSTARTED\tSELECTION\tSTATUS\tHOLE\tSTROKES")
					for _, r := range rounds {
						fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\n",
							r.ID, r.StartedAt.Local().Format(time.DateTime), r.Selection, r.Status, r.CurrentHole, r.TotalStrokes)
					}
					return w.Flush()
				},
			},
		},
	}
}

func coursesCommand() *cli.Command {
	return &cli.Command{
		Name:  "courses",
		Usage: "course reference data",
		Subcommands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "import a course from an xlsx scorecard with Hole/Par/Index columns",
				ArgsUsage: "<file.xlsx>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "tee", Usage: "default tee color"},
					&cli.StringFlag{Name: "id", Usage: "course UUID to overwrite"},
				},
				Action: func(c *cli.Context) error {
					path := c.Args().First()
					if path == "" {
						return fmt.Errorf("missing workbook path")
					}
					data, err := os.ReadFile(path)
					if err != nil {
						return fmt.Errorf("failed to read workbook: %w", err)
					}
					course, err := roundexport.ParseCourseXLSX(data, c.String("name"))
					if err != nil {
						return err
					}
					course.DefaultTee = c.String("tee")
					if id := c.String("id"); id != "" {
						if course.ID, err = uuid.Parse(id); err != nil {
							return fmt.Errorf("invalid --id: %w", err)
						}
					}

					rt, err := loadRuntime(c)
					if err != nil {
						return err
					}
					defer rt.Close()

					saved, err := newService(rt).SaveCourse(c.Context, course)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Imported %s (%d holes) as %s\n", saved.Name, saved.HoleCount, saved.ID)
					return nil
				},
			},
		},
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "issue a bearer token for a player, for local development",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Usage: "player UUID, random when empty"},
			&cli.DurationFlag{Name: "ttl", Value: 24 * time.Hour},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.JWT.Secret == "" {
				return fmt.Errorf("jwt secret is not configured")
			}

			userID := uuid.New()
			if v := c.String("user"); v != "" {
				if userID, err = uuid.Parse(v); err != nil {
					return fmt.Errorf("invalid --user: %w", err)
				}
			}

			provider := authjwt.NewProvider(authjwt.Config{
				Secret:   cfg.JWT.Secret,
				Issuer:   cfg.JWT.Issuer,
				Audience: cfg.JWT.Audience,
			})
			token, err := provider.GenerateToken(userID, c.Duration("ttl"))
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "user: %s\ntoken: %s\n", userID, token)
			return nil
		},
	}
}
