package roundservice

import (
	"context"
	"math"
	"slices"
	"strings"

	rounddomain "github.com/Black-And-White-Club/caddie/app/modules/round/domain"
	roundposition "github.com/Black-And-White-Club/caddie/app/modules/round/infrastructure/position"
	rounddb "github.com/Black-And-White-Club/caddie/app/modules/round/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// NoticeKind tells the UI why a stroke has no measured distance.
type NoticeKind string

const (
	NoticePositionUnavailable NoticeKind = "position_unavailable"
	NoticeLowAccuracy         NoticeKind = "low_accuracy"
)

// Notice accompanies a stroke recorded without a usable fix.
type Notice struct {
	Kind     NoticeKind           `json:"kind"`
	Reason   roundposition.Reason `json:"reason,omitempty"`
	Accuracy float64              `json:"accuracy,omitempty"`
}

// StrokeResult is the outcome of AddStroke.
type StrokeResult struct {
	Stroke   rounddomain.Stroke `json:"stroke"`
	Notice   *Notice            `json:"notice,omitempty"`
	Snapshot Snapshot           `json:"snapshot"`
}

// UndoResult is the outcome of UndoStroke. Removed is nil when there was
// nothing to undo.
type UndoResult struct {
	Removed  *rounddomain.Stroke `json:"removed,omitempty"`
	Snapshot Snapshot            `json:"snapshot"`
}

// AddStroke records a stroke on the current hole, measuring its distance from
// the previous fix when the new fix is accurate enough.
func (e *Engine) AddStroke(ctx context.Context) (StrokeResult, error) {
	result, err := withTelemetry(e.tel, ctx, "AddStroke", e.id.String(), func(ctx context.Context) (OperationResult[StrokeResult, error], error) {
		return e.addStrokeLogic(ctx)
	})
	return unwrapResult(result, err)
}

func (e *Engine) addStrokeLogic(ctx context.Context) (OperationResult[StrokeResult, error], error) {
	if err := e.acquire(ctx); err != nil {
		return FailureResult[StrokeResult, error](err), nil
	}
	defer e.release()

	if !e.round.IsActive() {
		return FailureResult[StrokeResult, error](ErrRoundCompleted), nil
	}

	gen := e.generation.Load()
	fix, posErr := e.readPosition(ctx)
	if err := e.abandoned(ctx, gen); err != nil {
		return FailureResult[StrokeResult, error](err), nil
	}

	stroke := rounddomain.Stroke{
		ID:         e.newID(),
		HoleIndex:  e.round.CurrentHole,
		RecordedAt: e.now(),
	}

	var notice *Notice
	switch {
	case posErr != nil:
		notice = &Notice{Kind: NoticePositionUnavailable, Reason: roundposition.ReasonOf(posErr)}
		e.tel.metrics.RecordPositionRead(ctx, string(notice.Reason))
	case fix.Accuracy > e.threshold:
		stroke.Position = &fix
		notice = &Notice{Kind: NoticeLowAccuracy, Accuracy: fix.Accuracy}
		e.tel.metrics.RecordPositionRead(ctx, string(NoticeLowAccuracy))
	default:
		stroke.Position = &fix
		if e.lastPosition != nil {
			d := math.Round(rounddomain.DistanceMeters(*e.lastPosition, fix))
			stroke.Distance = &d
		}
		e.tel.metrics.RecordPositionRead(ctx, "fix")
	}

	next := e.round
	next.TotalStrokes++

	err := e.persist(ctx, &next, func(ctx context.Context, db bun.IDB) error {
		return e.repo.InsertStroke(ctx, db, rounddb.StrokeFromDomain(next.ID, stroke))
	})
	if err != nil {
		return OperationResult[StrokeResult, error]{}, err
	}

	e.strokes = append(e.strokes, stroke)
	e.round = next
	if stroke.Position != nil {
		e.lastPosition = clonePosition(stroke.Position)
	}
	snap := e.commit()

	e.emit(ctx, rounddomain.StrokeRecordedV1, rounddomain.StrokeRecordedPayloadV1{
		RoundID:      next.ID,
		UserID:       next.UserID,
		Stroke:       cloneStroke(stroke),
		TotalStrokes: next.TotalStrokes,
	})

	return SuccessResult[StrokeResult, error](StrokeResult{
		Stroke:   cloneStroke(stroke),
		Notice:   notice,
		Snapshot: snap,
	}), nil
}

func (e *Engine) readPosition(ctx context.Context) (rounddomain.Position, error) {
	if e.positions == nil {
		return rounddomain.Position{}, roundposition.Unavailable(roundposition.ReasonNoSensor, nil)
	}
	return e.positions.CurrentPosition(ctx)
}

// UndoStroke removes the most recent stroke of the current hole. On an empty
// hole past the first, it removes the previous hole's last stroke and moves
// play back to that hole. It never removes more than one stroke.
func (e *Engine) UndoStroke(ctx context.Context) (UndoResult, error) {
	result, err := withTelemetry(e.tel, ctx, "UndoStroke", e.id.String(), func(ctx context.Context) (OperationResult[UndoResult, error], error) {
		return e.undoStrokeLogic(ctx)
	})
	return unwrapResult(result, err)
}

func (e *Engine) undoStrokeLogic(ctx context.Context) (OperationResult[UndoResult, error], error) {
	if err := e.acquire(ctx); err != nil {
		return FailureResult[UndoResult, error](err), nil
	}
	defer e.release()

	if !e.round.IsActive() {
		return FailureResult[UndoResult, error](ErrRoundCompleted), nil
	}

	next := e.round
	idx := e.lastStrokeIndex(next.CurrentHole)
	if idx < 0 {
		if next.CurrentHole <= 1 {
			return SuccessResult[UndoResult, error](UndoResult{Snapshot: e.Snapshot()}), nil
		}
		idx = e.lastStrokeIndex(next.CurrentHole - 1)
		if idx < 0 {
			return SuccessResult[UndoResult, error](UndoResult{Snapshot: e.Snapshot()}), nil
		}
		next.CurrentHole--
	}

	removed := e.strokes[idx]
	next.TotalStrokes--

	err := e.persist(ctx, &next, func(ctx context.Context, db bun.IDB) error {
		return e.repo.DeleteStroke(ctx, db, next.ID, removed.ID)
	})
	if err != nil {
		return OperationResult[UndoResult, error]{}, err
	}

	e.strokes = slices.Delete(e.strokes, idx, idx+1)
	e.round = next
	snap := e.commit()

	e.emit(ctx, rounddomain.StrokeUndoneV1, rounddomain.StrokeUndonePayloadV1{
		RoundID:      next.ID,
		UserID:       next.UserID,
		StrokeID:     removed.ID,
		HoleIndex:    removed.HoleIndex,
		CurrentHole:  next.CurrentHole,
		TotalStrokes: next.TotalStrokes,
	})

	out := cloneStroke(removed)
	return SuccessResult[UndoResult, error](UndoResult{Removed: &out, Snapshot: snap}), nil
}

// SetStrokeClub records the club used for a stroke. An empty club clears it.
func (e *Engine) SetStrokeClub(ctx context.Context, strokeID uuid.UUID, club string) (rounddomain.Stroke, error) {
	club = strings.TrimSpace(club)
	result, err := withTelemetry(e.tel, ctx, "SetStrokeClub", strokeID.String(), func(ctx context.Context) (OperationResult[rounddomain.Stroke, error], error) {
		return e.updateStrokeLogic(ctx, strokeID, func(s *rounddomain.Stroke) {
			if club == "" {
				s.Club = nil
				return
			}
			s.Club = &club
		})
	})
	return unwrapResult(result, err)
}

// SetStrokeDistance overrides the measured distance of a stroke, in meters.
func (e *Engine) SetStrokeDistance(ctx context.Context, strokeID uuid.UUID, meters float64) (rounddomain.Stroke, error) {
	result, err := withTelemetry(e.tel, ctx, "SetStrokeDistance", strokeID.String(), func(ctx context.Context) (OperationResult[rounddomain.Stroke, error], error) {
		if meters < 0 || math.IsNaN(meters) || math.IsInf(meters, 0) {
			return FailureResult[rounddomain.Stroke, error](ErrInvalidDistance), nil
		}
		return e.updateStrokeLogic(ctx, strokeID, func(s *rounddomain.Stroke) {
			s.Distance = &meters
		})
	})
	return unwrapResult(result, err)
}

func (e *Engine) updateStrokeLogic(ctx context.Context, strokeID uuid.UUID, apply func(*rounddomain.Stroke)) (OperationResult[rounddomain.Stroke, error], error) {
	if err := e.acquire(ctx); err != nil {
		return FailureResult[rounddomain.Stroke, error](err), nil
	}
	defer e.release()

	if !e.round.IsActive() {
		return FailureResult[rounddomain.Stroke, error](ErrRoundCompleted), nil
	}

	idx := e.strokeIndex(strokeID)
	if idx < 0 {
		return FailureResult[rounddomain.Stroke, error](ErrStrokeNotFound), nil
	}

	updated := cloneStroke(e.strokes[idx])
	apply(&updated)

	err := e.persist(ctx, nil, func(ctx context.Context, db bun.IDB) error {
		return e.repo.UpdateStrokeDetails(ctx, db, rounddb.StrokeFromDomain(e.round.ID, updated))
	})
	if err != nil {
		return OperationResult[rounddomain.Stroke, error]{}, err
	}

	e.strokes[idx] = updated
	e.commit()

	return SuccessResult[rounddomain.Stroke, error](cloneStroke(updated)), nil
}
