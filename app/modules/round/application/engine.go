package roundservice

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	rounddomain "github.com/Black-And-White-Club/caddie/app/modules/round/domain"
	rounddb "github.com/Black-And-White-Club/caddie/app/modules/round/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Snapshot is an immutable view of a round at one generation.
type Snapshot struct {
	Round        rounddomain.Round     `json:"round"`
	Strokes      []rounddomain.Stroke  `json:"strokes"`
	CurrentHole  int                   `json:"current_hole"`
	HoleStrokes  []int                 `json:"hole_strokes"`
	Summary      rounddomain.Summary   `json:"summary"`
	LastPosition *rounddomain.Position `json:"last_position,omitempty"`
	Generation   uint64                `json:"generation"`
}

// Engine is the state machine of one round. Mutations are serialized through a
// single-slot semaphore and written through to the store before they are
// applied in memory.
type Engine struct {
	id        uuid.UUID
	tel       *telemetry
	repo      rounddb.Repository
	positions PositionReader
	publisher EventPublisher
	scheduler ExpiryScheduler
	threshold float64
	now       func() time.Time
	newID     func() uuid.UUID
	course    rounddomain.Course

	// onCompleted runs once the round completes, under the slot.
	onCompleted func(*Engine)

	sem        chan struct{}
	done       chan struct{}
	closeOnce  sync.Once
	generation atomic.Uint64
	snapshot   atomic.Pointer[Snapshot]

	// Guarded by sem.
	round        rounddomain.Round
	strokes      []rounddomain.Stroke
	lastPosition *rounddomain.Position
}

// NewEngine builds an engine over a persisted round. strokes must be in
// recording order; lastPosition may be nil.
func NewEngine(
	deps Dependencies,
	round rounddomain.Round,
	course rounddomain.Course,
	strokes []rounddomain.Stroke,
	lastPosition *rounddomain.Position,
) *Engine {
	deps = deps.withDefaults()
	e := &Engine{
		id:           round.ID,
		tel:          deps.telemetry("RoundEngine"),
		repo:         deps.Repo,
		positions:    deps.Positions,
		publisher:    deps.Publisher,
		scheduler:    deps.Scheduler,
		threshold:    deps.AccuracyThresholdM,
		now:          deps.Now,
		newID:        deps.NewID,
		course:       course,
		sem:          make(chan struct{}, 1),
		done:         make(chan struct{}),
		round:        round,
		strokes:      slices.Clone(strokes),
		lastPosition: clonePosition(lastPosition),
	}
	e.publishSnapshot()
	return e
}

// ID returns the round identifier.
func (e *Engine) ID() uuid.UUID { return e.id }

// Course returns the course being played.
func (e *Engine) Course() rounddomain.Course { return e.course }

// Snapshot returns the state as of the last committed mutation. It never
// blocks on an in-flight operation.
func (e *Engine) Snapshot() Snapshot {
	return *e.snapshot.Load()
}

// CoachContext renders the state handed to the coaching responder.
func (e *Engine) CoachContext(profile rounddomain.PlayerProfile) rounddomain.CoachContext {
	snap := e.Snapshot()
	cc := rounddomain.CoachContext{
		RoundID:        snap.Round.ID,
		PlayerName:     profile.FullName(),
		HandicapIndex:  profile.HandicapIndex,
		PreferredUnits: profile.PreferredUnits,
		CourseName:     e.course.Name,
		Selection:      snap.Round.Selection,
		CurrentHole:    snap.CurrentHole,
		CourseHole:     snap.Round.Selection.CourseHole(snap.CurrentHole),
		TotalStrokes:   snap.Round.TotalStrokes,
	}
	if pars := e.course.ParsFor(snap.Round.Selection); snap.CurrentHole >= 1 && snap.CurrentHole <= len(pars) {
		cc.Par = pars[snap.CurrentHole-1]
	}
	for i := len(snap.Strokes) - 1; i >= 0 && len(cc.RecentStrokes) < 3; i-- {
		cc.RecentStrokes = append(cc.RecentStrokes, snap.Strokes[i])
	}
	return cc
}

// Close stops the engine. Operations waiting for the slot and position reads
// still in flight are abandoned. Close is idempotent.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		close(e.done)
		e.generation.Add(1)
	})
}

func (e *Engine) acquire(ctx context.Context) error {
	select {
	case <-e.done:
		return ErrOperationAbandoned
	default:
	}

	select {
	case e.sem <- struct{}{}:
		select {
		case <-e.done:
			<-e.sem
			return ErrOperationAbandoned
		default:
			return nil
		}
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrOperationAbandoned, ctx.Err())
	case <-e.done:
		return ErrOperationAbandoned
	}
}

func (e *Engine) release() {
	<-e.sem
}

// abandoned reports whether an operation that began at generation gen must be
// dropped before it persists anything.
func (e *Engine) abandoned(ctx context.Context, gen uint64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrOperationAbandoned, err)
	}
	if e.generation.Load() != gen {
		return ErrOperationAbandoned
	}
	return nil
}

// persist writes the optional row change and the round progress in one transaction.
func (e *Engine) persist(ctx context.Context, next *rounddomain.Round, write func(ctx context.Context, db bun.IDB) error) error {
	err := e.tel.inTx(ctx, func(ctx context.Context, db bun.IDB) error {
		if write != nil {
			if err := write(ctx, db); err != nil {
				return err
			}
		}
		if next != nil {
			return e.repo.UpdateRoundProgress(ctx, db, rounddb.RoundFromDomain(*next))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

// commit bumps the generation and publishes a fresh snapshot. Callers hold sem.
func (e *Engine) commit() Snapshot {
	e.generation.Add(1)
	return e.publishSnapshot()
}

func (e *Engine) publishSnapshot() Snapshot {
	strokes := make([]rounddomain.Stroke, len(e.strokes))
	for i, s := range e.strokes {
		strokes[i] = cloneStroke(s)
	}

	perHole := rounddomain.StrokesPerHole(strokes)
	holeStrokes := make([]int, e.round.Selection.HoleCount())
	for i := range holeStrokes {
		holeStrokes[i] = perHole[i+1]
	}

	snap := &Snapshot{
		Round:        e.round,
		Strokes:      strokes,
		CurrentHole:  e.round.CurrentHole,
		HoleStrokes:  holeStrokes,
		Summary:      rounddomain.Summarize(strokes, e.course.ParsFor(e.round.Selection)),
		LastPosition: clonePosition(e.lastPosition),
		Generation:   e.generation.Load(),
	}
	e.snapshot.Store(snap)
	return *snap
}

// emit publishes a committed event. The store is the system of record, so a
// failed publish is logged and otherwise ignored.
func (e *Engine) emit(ctx context.Context, topic string, payload any) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, topic, payload); err != nil {
		e.tel.logger.ErrorContext(ctx, "Failed to publish round event",
			slog.String("topic", topic),
			slog.String("round_id", e.id.String()),
			slog.Any("error", err),
		)
	}
}

func (e *Engine) holeStrokeCount(hole int) int {
	n := 0
	for _, s := range e.strokes {
		if s.HoleIndex == hole {
			n++
		}
	}
	return n
}

func (e *Engine) lastStrokeIndex(hole int) int {
	for i := len(e.strokes) - 1; i >= 0; i-- {
		if e.strokes[i].HoleIndex == hole {
			return i
		}
	}
	return -1
}

func (e *Engine) strokeIndex(id uuid.UUID) int {
	return slices.IndexFunc(e.strokes, func(s rounddomain.Stroke) bool { return s.ID == id })
}

func clonePosition(p *rounddomain.Position) *rounddomain.Position {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func cloneStroke(s rounddomain.Stroke) rounddomain.Stroke {
	s.Position = clonePosition(s.Position)
	if s.Distance != nil {
		d := *s.Distance
		s.Distance = &d
	}
	if s.Club != nil {
		c := *s.Club
		s.Club = &c
	}
	return s
}
