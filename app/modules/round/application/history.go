package roundservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	rounddomain "github.com/Black-And-White-Club/caddie/app/modules/round/domain"
	rounddb "github.com/Black-And-White-Club/caddie/app/modules/round/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Scorecard builds the per-hole card of a round.
func (s *Service) Scorecard(ctx context.Context, roundID uuid.UUID) (rounddomain.Scorecard, error) {
	engine, err := s.Session(ctx, roundID)
	if err != nil {
		return rounddomain.Scorecard{}, err
	}
	snap := engine.Snapshot()
	return rounddomain.BuildScorecard(snap.Round, engine.Course(), snap.Strokes), nil
}

// ListRounds returns round history, most recent first.
func (s *Service) ListRounds(ctx context.Context, filter rounddomain.RoundFilter) ([]rounddomain.Round, error) {
	result, err := withTelemetry(s.tel, ctx, "ListRounds", filter.UserID.String(), func(ctx context.Context) (OperationResult[[]rounddomain.Round, error], error) {
		rows, err := s.repo.ListRounds(ctx, nil, filter)
		if err != nil {
			return OperationResult[[]rounddomain.Round, error]{}, err
		}
		rounds := make([]rounddomain.Round, 0, len(rows))
		for _, r := range rows {
			rounds = append(rounds, r.ToDomain())
		}
		return SuccessResult[[]rounddomain.Round, error](rounds), nil
	})
	return unwrapResult(result, err)
}

// ExpireRound abandons a round that is still active. It reports whether the
// round was abandoned; unknown and completed rounds are left alone.
func (s *Service) ExpireRound(ctx context.Context, roundID uuid.UUID) (bool, error) {
	s.mu.Lock()
	_, live := s.sessions[roundID]
	s.mu.Unlock()
	if !live {
		row, err := s.repo.GetRound(ctx, nil, roundID)
		if err != nil {
			if errors.Is(err, rounddb.ErrNotFound) {
				return false, nil
			}
			return false, fmt.Errorf("failed to get round: %w", err)
		}
		if row.Status != string(rounddomain.RoundStatusActive) {
			return false, nil
		}
	}

	engine, err := s.Session(ctx, roundID)
	if err != nil {
		if errors.Is(err, ErrRoundNotFound) {
			return false, nil
		}
		return false, err
	}
	if !engine.Snapshot().Round.IsActive() {
		return false, nil
	}
	if _, err := engine.Abandon(ctx); err != nil {
		if errors.Is(err, ErrRoundCompleted) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ClubStats returns per-club averages across all of a player's rounds.
func (s *Service) ClubStats(ctx context.Context, userID uuid.UUID) ([]rounddomain.ClubAverage, error) {
	result, err := withTelemetry(s.tel, ctx, "ClubStats", userID.String(), func(ctx context.Context) (OperationResult[[]rounddomain.ClubAverage, error], error) {
		rows, err := s.repo.GetStrokesForUser(ctx, nil, userID)
		if err != nil {
			return OperationResult[[]rounddomain.ClubAverage, error]{}, err
		}
		strokes := make([]rounddomain.Stroke, 0, len(rows))
		for _, r := range rows {
			strokes = append(strokes, r.ToDomain())
		}
		return SuccessResult[[]rounddomain.ClubAverage, error](rounddomain.ClubAverages(strokes)), nil
	})
	return unwrapResult(result, err)
}

// SaveProfile validates and stores a player's preferences.
func (s *Service) SaveProfile(ctx context.Context, profile rounddomain.PlayerProfile) (rounddomain.PlayerProfile, error) {
	result, err := withTelemetry(s.tel, ctx, "SaveProfile", profile.UserID.String(), func(ctx context.Context) (OperationResult[rounddomain.PlayerProfile, error], error) {
		if profile.HandicapIndex < 0 || profile.HandicapIndex > 54 {
			return FailureResult[rounddomain.PlayerProfile, error](fmt.Errorf("%w: handicap index must be between 0 and 54", ErrInvalidProfile)), nil
		}
		if strings.TrimSpace(string(profile.PreferredUnits)) == "" {
			profile.PreferredUnits = rounddomain.UnitMeters
		} else {
			units, ok := rounddomain.ParseUnits(string(profile.PreferredUnits))
			if !ok {
				return FailureResult[rounddomain.PlayerProfile, error](fmt.Errorf("%w: unknown units %q", ErrInvalidProfile, profile.PreferredUnits)), nil
			}
			profile.PreferredUnits = units
		}
		profile.Language = strings.ToLower(strings.TrimSpace(profile.Language))
		if profile.Language == "" {
			profile.Language = DefaultLanguage
		}
		if err := s.repo.UpsertProfile(ctx, nil, rounddb.ProfileFromDomain(profile)); err != nil {
			return OperationResult[rounddomain.PlayerProfile, error]{}, err
		}
		return SuccessResult[rounddomain.PlayerProfile, error](profile), nil
	})
	return unwrapResult(result, err)
}

// SaveCourse validates and stores course reference data, replacing any
// course with the same id. Rounds already in play keep the course they
// started with.
func (s *Service) SaveCourse(ctx context.Context, course rounddomain.Course) (rounddomain.Course, error) {
	return s.storeCourse(ctx, "SaveCourse", course, true)
}

// CreateCourse is SaveCourse without replacement: an id that is already
// stored is ErrCourseExists.
func (s *Service) CreateCourse(ctx context.Context, course rounddomain.Course) (rounddomain.Course, error) {
	return s.storeCourse(ctx, "CreateCourse", course, false)
}

func (s *Service) storeCourse(ctx context.Context, op string, course rounddomain.Course, replace bool) (rounddomain.Course, error) {
	result, err := withTelemetry(s.tel, ctx, op, course.Name, func(ctx context.Context) (OperationResult[rounddomain.Course, error], error) {
		if err := validateCourse(course); err != nil {
			return FailureResult[rounddomain.Course, error](err), nil
		}
		if course.ID == uuid.Nil {
			course.ID = s.deps.NewID()
		}
		return runInTx(s.tel, ctx, func(ctx context.Context, db bun.IDB) (OperationResult[rounddomain.Course, error], error) {
			row := rounddb.CourseFromDomain(course)
			if replace {
				if err := s.repo.UpsertCourse(ctx, db, row); err != nil {
					return OperationResult[rounddomain.Course, error]{}, err
				}
				return SuccessResult[rounddomain.Course, error](course), nil
			}
			if err := s.repo.CreateCourse(ctx, db, row); err != nil {
				if errors.Is(err, rounddb.ErrConflict) {
					return FailureResult[rounddomain.Course, error](fmt.Errorf("%w: %s", ErrCourseExists, course.ID)), nil
				}
				return OperationResult[rounddomain.Course, error]{}, err
			}
			return SuccessResult[rounddomain.Course, error](course), nil
		})
	})
	return unwrapResult(result, err)
}

func validateCourse(c rounddomain.Course) error {
	switch {
	case strings.TrimSpace(c.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidCourse)
	case c.HoleCount != 9 && c.HoleCount != 18:
		return fmt.Errorf("%w: hole count must be 9 or 18", ErrInvalidCourse)
	case len(c.Pars) != c.HoleCount:
		return fmt.Errorf("%w: %d pars for %d holes", ErrInvalidCourse, len(c.Pars), c.HoleCount)
	case len(c.StrokeIndexes) != 0 && len(c.StrokeIndexes) != c.HoleCount:
		return fmt.Errorf("%w: %d stroke indexes for %d holes", ErrInvalidCourse, len(c.StrokeIndexes), c.HoleCount)
	}
	for i, par := range c.Pars {
		if par < 3 || par > 6 {
			return fmt.Errorf("%w: hole %d has par %d", ErrInvalidCourse, i+1, par)
		}
	}
	return nil
}
