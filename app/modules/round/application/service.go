package roundservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	rounddomain "github.com/Black-And-White-Club/caddie/app/modules/round/domain"
	rounddb "github.com/Black-And-White-Club/caddie/app/modules/round/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// StartRoundRequest describes a new round.
type StartRoundRequest struct {
	UserID    uuid.UUID                 `json:"-"`
	CourseID  uuid.UUID                 `json:"course_id"`
	Selection rounddomain.HoleSelection `json:"selection"`
	TeeColor  string                    `json:"tee_color"`
}

// Service owns the live round engines of this process and the operations that
// span rounds: starting, loading, history, coaching and statistics.
type Service struct {
	deps Dependencies
	tel  *telemetry
	repo rounddb.Repository

	mu       sync.Mutex
	sessions map[uuid.UUID]*Engine
}

// NewService creates a new Service.
func NewService(deps Dependencies) *Service {
	deps = deps.withDefaults()
	return &Service{
		deps:     deps,
		tel:      deps.telemetry("RoundService"),
		repo:     deps.Repo,
		sessions: make(map[uuid.UUID]*Engine),
	}
}

// StartRound validates the course and selection, persists a new active round
// on hole 1 and returns its engine.
func (s *Service) StartRound(ctx context.Context, req StartRoundRequest) (*Engine, error) {
	result, err := withTelemetry(s.tel, ctx, "StartRound", req.UserID.String(), func(ctx context.Context) (OperationResult[*Engine, error], error) {
		return s.startRoundLogic(ctx, req)
	})
	return unwrapResult(result, err)
}

func (s *Service) startRoundLogic(ctx context.Context, req StartRoundRequest) (OperationResult[*Engine, error], error) {
	sel, err := rounddomain.ParseHoleSelection(string(req.Selection))
	if err != nil {
		return FailureResult[*Engine, error](err), nil
	}

	course, err := s.loadCourse(ctx, nil, req.CourseID)
	if err != nil {
		if errors.Is(err, ErrCourseNotFound) {
			return FailureResult[*Engine, error](err), nil
		}
		return OperationResult[*Engine, error]{}, err
	}
	if !course.Supports(sel) {
		return FailureResult[*Engine, error](fmt.Errorf("%w: course %q has %d holes", ErrInvalidSelection, course.Name, course.HoleCount)), nil
	}

	tee := strings.TrimSpace(req.TeeColor)
	if tee == "" {
		tee = course.DefaultTee
	}

	round := rounddomain.Round{
		ID:          s.deps.NewID(),
		UserID:      req.UserID,
		CourseID:    course.ID,
		Selection:   sel,
		TeeColor:    tee,
		Status:      rounddomain.RoundStatusActive,
		StartedAt:   s.deps.Now(),
		CurrentHole: 1,
	}

	err = s.tel.inTx(ctx, func(ctx context.Context, db bun.IDB) error {
		return s.repo.CreateRound(ctx, db, rounddb.RoundFromDomain(round))
	})
	if err != nil {
		return OperationResult[*Engine, error]{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	engine := NewEngine(s.deps, round, course, nil, nil)
	s.mu.Lock()
	s.track(engine)
	s.mu.Unlock()

	s.scheduleExpiry(ctx, round)
	return SuccessResult[*Engine, error](engine), nil
}

func (s *Service) scheduleExpiry(ctx context.Context, round rounddomain.Round) {
	if s.deps.Scheduler == nil || s.deps.StaleRoundAfter <= 0 {
		return
	}
	at := round.StartedAt.Add(s.deps.StaleRoundAfter)
	if err := s.deps.Scheduler.ScheduleExpiry(ctx, round.ID, at); err != nil {
		s.tel.logger.WarnContext(ctx, "Failed to schedule round expiry",
			slog.String("round_id", round.ID.String()),
			slog.Any("error", err),
		)
	}
}

// track registers a live engine. It drops out of the map when its round
// completes. Callers hold mu.
func (s *Service) track(engine *Engine) {
	engine.onCompleted = s.evict
	s.sessions[engine.ID()] = engine
}

func (s *Service) evict(engine *Engine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[engine.ID()] == engine {
		delete(s.sessions, engine.ID())
	}
}

// Session returns the live engine of a round, loading it from the store on
// first use. The most recent positioned stroke seeds the last known position.
// Completed rounds are loaded on every call and never kept.
func (s *Service) Session(ctx context.Context, roundID uuid.UUID) (*Engine, error) {
	s.mu.Lock()
	engine, ok := s.sessions[roundID]
	s.mu.Unlock()
	if ok {
		return engine, nil
	}

	result, err := withTelemetry(s.tel, ctx, "LoadSession", roundID.String(), func(ctx context.Context) (OperationResult[*Engine, error], error) {
		return runInTx(s.tel, ctx, func(ctx context.Context, db bun.IDB) (OperationResult[*Engine, error], error) {
			return s.loadSessionLogic(ctx, db, roundID)
		})
	})
	loaded, err := unwrapResult(result, err)
	if err != nil {
		return nil, err
	}

	if !loaded.Snapshot().Round.IsActive() {
		return loaded, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[roundID]; ok {
		loaded.Close()
		return existing, nil
	}
	s.track(loaded)
	return loaded, nil
}

func (s *Service) loadSessionLogic(ctx context.Context, db bun.IDB, roundID uuid.UUID) (OperationResult[*Engine, error], error) {
	row, err := s.repo.GetRound(ctx, db, roundID)
	if err != nil {
		if errors.Is(err, rounddb.ErrNotFound) {
			return FailureResult[*Engine, error](ErrRoundNotFound), nil
		}
		return OperationResult[*Engine, error]{}, fmt.Errorf("failed to get round: %w", err)
	}
	round := row.ToDomain()

	course, err := s.loadCourse(ctx, db, round.CourseID)
	if err != nil {
		if errors.Is(err, ErrCourseNotFound) {
			return FailureResult[*Engine, error](err), nil
		}
		return OperationResult[*Engine, error]{}, err
	}

	rows, err := s.repo.GetStrokes(ctx, db, roundID)
	if err != nil {
		return OperationResult[*Engine, error]{}, fmt.Errorf("failed to get strokes: %w", err)
	}
	strokes := make([]rounddomain.Stroke, 0, len(rows))
	var last *rounddomain.Position
	for _, r := range rows {
		st := r.ToDomain()
		if st.Position != nil {
			last = st.Position
		}
		strokes = append(strokes, st)
	}

	return SuccessResult[*Engine, error](NewEngine(s.deps, round, course, strokes, last)), nil
}

// OwnedSession is Session restricted to the round's player.
func (s *Service) OwnedSession(ctx context.Context, userID, roundID uuid.UUID) (*Engine, error) {
	engine, err := s.Session(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if engine.Snapshot().Round.UserID != userID {
		return nil, ErrForbidden
	}
	return engine, nil
}

func (s *Service) loadCourse(ctx context.Context, db bun.IDB, courseID uuid.UUID) (rounddomain.Course, error) {
	row, err := s.repo.GetCourse(ctx, db, courseID)
	if err != nil {
		if errors.Is(err, rounddb.ErrNotFound) {
			return rounddomain.Course{}, ErrCourseNotFound
		}
		return rounddomain.Course{}, fmt.Errorf("failed to get course: %w", err)
	}
	return row.ToDomain(), nil
}

// Close stops every live engine. In-flight operations are abandoned.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, engine := range s.sessions {
		engine.Close()
		delete(s.sessions, id)
	}
}
