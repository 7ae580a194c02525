package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Black-And-White-Club/caddie/app/modules/round"
	roundservice "github.com/Black-And-White-Club/caddie/app/modules/round/application"
	rounddomain "github.com/Black-And-White-Club/caddie/app/modules/round/domain"
	roundposition "github.com/Black-And-White-Club/caddie/app/modules/round/infrastructure/position"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

func playCommand() *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "play a round from the terminal, reading fixes from gpsd",
		Description: "Each line is handled like a voice command: \"coup\"/\"play\" records a stroke,\n" +
			"\"fini\"/\"finish\" closes the hole, \"annuler\"/\"undo\" removes the last stroke.\n" +
			"Anything else goes to the coach. Lines starting with \"?\" go to the rules referee.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Required: true, Usage: "player UUID"},
			&cli.StringFlag{Name: "course", Usage: "course UUID"},
			&cli.StringFlag{Name: "round", Usage: "resume an existing round instead of starting one"},
			&cli.StringFlag{Name: "selection", Value: string(rounddomain.SelectionFull), Usage: "front9, back9 or full"},
			&cli.StringFlag{Name: "tee", Usage: "tee color"},
			&cli.StringFlag{Name: "gpsd", Usage: "gpsd address, overrides the configuration"},
			&cli.StringFlag{Name: "language", Usage: "language of coach answers"},
		},
		Action: func(c *cli.Context) error {
			rt, err := loadRuntime(c)
			if err != nil {
				return err
			}
			defer rt.Close()

			userID, err := uuid.Parse(c.String("user"))
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			addr := rt.cfg.GPSD.Addr
			if v := c.String("gpsd"); v != "" {
				addr = v
			}

			ctx, cancel := context.WithCancel(c.Context)
			defer cancel()

			module, err := round.NewRoundModule(ctx, rt.cfg, rt.obs, rt.db, roundposition.NewGPSD(addr))
			if err != nil {
				return err
			}
			defer module.Close()
			go func() { _ = module.RoundRouter.Run(ctx) }()

			engine, err := openPlayRound(ctx, module.Service, userID, c)
			if err != nil {
				return err
			}

			session := &playSession{
				service:  module.Service,
				engine:   engine,
				language: c.String("language"),
				out:      c.App.Writer,
			}
			return session.run(ctx, os.Stdin)
		},
	}
}

func openPlayRound(ctx context.Context, svc *roundservice.Service, userID uuid.UUID, c *cli.Context) (*roundservice.Engine, error) {
	if id := c.String("round"); id != "" {
		roundID, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid --round: %w", err)
		}
		return svc.OwnedSession(ctx, userID, roundID)
	}
	courseID, err := uuid.Parse(c.String("course"))
	if err != nil {
		return nil, fmt.Errorf("--course must be a UUID when starting a round: %w", err)
	}
	return svc.StartRound(ctx, roundservice.StartRoundRequest{
		UserID:    userID,
		CourseID:  courseID,
		Selection: rounddomain.HoleSelection(c.String("selection")),
		TeeColor:  c.String("tee"),
	})
}

type playSession struct {
	service  *roundservice.Service
	engine   *roundservice.Engine
	language string
	out      io.Writer
}

func (p *playSession) run(ctx context.Context, in io.Reader) error {
	p.printStatus()
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(p.out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := p.handle(ctx, line); err != nil {
			fmt.Fprintf(p.out, "error: %v\n", err)
		}
		if !p.engine.Snapshot().Round.IsActive() {
			fmt.Fprintln(p.out, "Round complete.")
			return nil
		}
	}
	return scanner.Err()
}

func (p *playSession) handle(ctx context.Context, line string) error {
	roundID := p.engine.ID()
	if question, ok := strings.CutPrefix(line, "?"); ok {
		reply, err := p.service.Ask(ctx, roundID, question, rounddomain.CoachModeRules, p.language)
		if err != nil {
			return err
		}
		fmt.Fprintln(p.out, reply)
		return nil
	}

	res, err := p.service.HandleTranscript(ctx, roundID, rounddomain.Transcript{Text: line}, p.language)
	if err != nil {
		if errors.Is(err, roundservice.ErrEmptyHoleFinish) {
			return errors.New("no stroke recorded on this hole yet")
		}
		return err
	}
	if res.Reply != "" {
		fmt.Fprintln(p.out, res.Reply)
		return nil
	}
	if res.Dispatch != nil {
		p.printDispatch(*res.Dispatch)
	}
	return nil
}

func (p *playSession) printDispatch(d roundservice.DispatchResult) {
	switch {
	case d.Stroke != nil:
		s := d.Stroke.Stroke
		switch {
		case s.Distance != nil:
			fmt.Fprintf(p.out, "Stroke recorded, %s from the previous one.\n", rounddomain.FormatDistance(*s.Distance, rounddomain.UnitMeters, 0))
		case d.Stroke.Notice != nil && d.Stroke.Notice.Kind == roundservice.NoticeLowAccuracy:
			fmt.Fprintf(p.out, "Stroke recorded; fix accuracy %.0f m is too coarse to measure.\n", d.Stroke.Notice.Accuracy)
		case d.Stroke.Notice != nil:
			fmt.Fprintf(p.out, "Stroke recorded without position (%s).\n", d.Stroke.Notice.Reason)
		default:
			fmt.Fprintln(p.out, "Stroke recorded.")
		}
	case d.Undo != nil:
		if d.Undo.Removed == nil {
			fmt.Fprintln(p.out, "Nothing to undo.")
		} else {
			fmt.Fprintf(p.out, "Removed last stroke on hole %d.\n", d.Undo.Removed.HoleIndex)
		}
	case d.Finish != nil:
		fmt.Fprintf(p.out, "Hole %d finished in %d.\n", d.Finish.FinishedHole, d.Finish.HoleStrokes)
		if d.Finish.Summary != nil {
			sum := d.Finish.Summary
			fmt.Fprintf(p.out, "Total %d for par %d (%+d) over %d holes.\n", sum.TotalStrokes, sum.ParForPlayed, sum.VsPar, sum.HolesPlayed)
		}
	}
	p.printStatus()
}

func (p *playSession) printStatus() {
	snap := p.engine.Snapshot()
	if !snap.Round.IsActive() {
		return
	}
	course := p.engine.Course()
	fmt.Fprintf(p.out, "%s, hole %d of %d (course hole %d), %d strokes on this hole, %d total.\n",
		course.Name,
		snap.CurrentHole,
		snap.Round.Selection.HoleCount(),
		snap.Round.Selection.CourseHole(snap.CurrentHole),
		holeStrokes(snap),
		snap.Round.TotalStrokes,
	)
}

func holeStrokes(snap roundservice.Snapshot) int {
	if i := snap.CurrentHole - 1; i >= 0 && i < len(snap.HoleStrokes) {
		return snap.HoleStrokes[i]
	}
	return 0
}
