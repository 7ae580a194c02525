package roundservice

import (
	"context"
	"fmt"
	"log/slog"

	rounddomain "github.com/Black-And-White-Club/caddie/app/modules/round/domain"
)

// FinishResult is the outcome of FinishHole and Abandon. Summary is set only
// when the round completed.
type FinishResult struct {
	FinishedHole int                  `json:"finished_hole"`
	HoleStrokes  int                  `json:"hole_strokes"`
	Completed    bool                 `json:"completed"`
	Summary      *rounddomain.Summary `json:"summary,omitempty"`
	Snapshot     Snapshot             `json:"snapshot"`
}

// DispatchResult carries the outcome of whichever operation the action selected.
type DispatchResult struct {
	Action rounddomain.Action `json:"action"`
	Stroke *StrokeResult      `json:"stroke,omitempty"`
	Undo   *UndoResult        `json:"undo,omitempty"`
	Finish *FinishResult      `json:"finish,omitempty"`
}

// FinishHole closes the current hole. On the last hole of the selection the
// round completes and its final summary is returned.
func (e *Engine) FinishHole(ctx context.Context) (FinishResult, error) {
	result, err := withTelemetry(e.tel, ctx, "FinishHole", e.id.String(), func(ctx context.Context) (OperationResult[FinishResult, error], error) {
		return e.finishHoleLogic(ctx)
	})
	return unwrapResult(result, err)
}

func (e *Engine) finishHoleLogic(ctx context.Context) (OperationResult[FinishResult, error], error) {
	if err := e.acquire(ctx); err != nil {
		return FailureResult[FinishResult, error](err), nil
	}
	defer e.release()

	if !e.round.IsActive() {
		return FailureResult[FinishResult, error](ErrRoundCompleted), nil
	}

	finished := e.round.CurrentHole
	count := e.holeStrokeCount(finished)
	if count == 0 {
		return FailureResult[FinishResult, error](ErrEmptyHoleFinish), nil
	}

	next := e.round
	completing := next.IsLastHole()
	if completing {
		endedAt := e.now()
		next.Status = rounddomain.RoundStatusCompleted
		next.EndedAt = &endedAt
	} else {
		next.CurrentHole++
	}

	if err := e.persist(ctx, &next, nil); err != nil {
		return OperationResult[FinishResult, error]{}, err
	}

	e.round = next
	snap := e.commit()

	e.emit(ctx, rounddomain.HoleFinishedV1, rounddomain.HoleFinishedPayloadV1{
		RoundID:     next.ID,
		UserID:      next.UserID,
		HoleIndex:   finished,
		Strokes:     count,
		CurrentHole: next.CurrentHole,
	})

	out := FinishResult{
		FinishedHole: finished,
		HoleStrokes:  count,
		Completed:    completing,
		Snapshot:     snap,
	}
	if completing {
		summary := snap.Summary
		out.Summary = &summary
		e.emitCompleted(ctx, snap, false)
	}
	return SuccessResult[FinishResult, error](out), nil
}

// Abandon completes an active round early and returns the summary of the holes
// played so far.
func (e *Engine) Abandon(ctx context.Context) (FinishResult, error) {
	result, err := withTelemetry(e.tel, ctx, "Abandon", e.id.String(), func(ctx context.Context) (OperationResult[FinishResult, error], error) {
		return e.abandonLogic(ctx)
	})
	return unwrapResult(result, err)
}

func (e *Engine) abandonLogic(ctx context.Context) (OperationResult[FinishResult, error], error) {
	if err := e.acquire(ctx); err != nil {
		return FailureResult[FinishResult, error](err), nil
	}
	defer e.release()

	if !e.round.IsActive() {
		return FailureResult[FinishResult, error](ErrRoundCompleted), nil
	}

	next := e.round
	endedAt := e.now()
	next.Status = rounddomain.RoundStatusCompleted
	next.EndedAt = &endedAt

	if err := e.persist(ctx, &next, nil); err != nil {
		return OperationResult[FinishResult, error]{}, err
	}

	e.round = next
	snap := e.commit()
	e.emitCompleted(ctx, snap, true)

	summary := snap.Summary
	return SuccessResult[FinishResult, error](FinishResult{
		FinishedHole: next.CurrentHole,
		HoleStrokes:  e.holeStrokeCount(next.CurrentHole),
		Completed:    true,
		Summary:      &summary,
		Snapshot:     snap,
	}), nil
}

func (e *Engine) emitCompleted(ctx context.Context, snap Snapshot, abandoned bool) {
	completedAt := e.now()
	if snap.Round.EndedAt != nil {
		completedAt = *snap.Round.EndedAt
	}
	e.emit(ctx, rounddomain.RoundCompletedV1, rounddomain.RoundCompletedPayloadV1{
		RoundID:     snap.Round.ID,
		UserID:      snap.Round.UserID,
		CourseID:    snap.Round.CourseID,
		Summary:     snap.Summary,
		CompletedAt: completedAt,
		Abandoned:   abandoned,
	})
	if e.onCompleted != nil {
		e.onCompleted(e)
	}
	if e.scheduler == nil || abandoned {
		return
	}
	if err := e.scheduler.CancelRoundJobs(ctx, snap.Round.ID); err != nil {
		e.tel.logger.WarnContext(ctx, "Failed to cancel round expiry",
			slog.String("round_id", snap.Round.ID.String()),
			slog.Any("error", err),
		)
	}
}

// Dispatch runs the engine operation an action names. Freeform messages are
// not engine actions and return ErrNotEngineAction.
func (e *Engine) Dispatch(ctx context.Context, action rounddomain.Action) (DispatchResult, error) {
	out := DispatchResult{Action: action}
	switch action.Kind {
	case rounddomain.ActionAddStroke:
		res, err := e.AddStroke(ctx)
		if err != nil {
			return out, err
		}
		out.Stroke = &res
	case rounddomain.ActionUndo:
		res, err := e.UndoStroke(ctx)
		if err != nil {
			return out, err
		}
		out.Undo = &res
	case rounddomain.ActionFinishHole:
		res, err := e.FinishHole(ctx)
		if err != nil {
			return out, err
		}
		out.Finish = &res
	case rounddomain.ActionFreeformMessage:
		return out, ErrNotEngineAction
	default:
		return out, fmt.Errorf("%w: %q", ErrNotEngineAction, action.Kind)
	}
	return out, nil
}
