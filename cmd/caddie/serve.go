package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Black-And-White-Club/caddie/app/modules/round"
	roundposition "github.com/Black-And-White-Club/caddie/app/modules/round/infrastructure/position"
	"github.com/urfave/cli/v2"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API, event router and job queue",
		Action: func(c *cli.Context) error {
			rt, err := loadRuntime(c)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			module, err := round.NewRoundModule(ctx, rt.cfg, rt.obs, rt.db, roundposition.Reported{})
			if err != nil {
				return fmt.Errorf("failed to create round module: %w", err)
			}

			var wg sync.WaitGroup
			if err := module.Run(ctx, &wg); err != nil {
				_ = module.Close()
				return fmt.Errorf("failed to start round module: %w", err)
			}

			<-ctx.Done()
			rt.obs.Logger.Info("Shutdown signal received", slog.Any("cause", ctx.Err()))

			err = module.Close()
			wg.Wait()
			return err
		},
	}
}
