package roundrouter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	rounddomain "github.com/Black-And-White-Club/caddie/app/modules/round/domain"
	rounddb "github.com/Black-And-White-Club/caddie/app/modules/round/infrastructure/repositories"
)

const defaultRetryInterval = 100 * time.Millisecond

// HandleRoundCompleted writes the summary projection of a finished round.
func (r *RoundRouter) HandleRoundCompleted(ctx context.Context, payload *rounddomain.RoundCompletedPayloadV1) error {
	if err := r.store.UpsertSummary(ctx, nil, rounddb.SummaryFromDomain(*payload)); err != nil {
		return fmt.Errorf("failed to project round summary: %w", err)
	}
	r.logger.InfoContext(ctx, "Projected round summary",
		slog.String("round_id", payload.RoundID.String()),
		slog.Int("total_strokes", payload.Summary.TotalStrokes),
		slog.Bool("abandoned", payload.Abandoned),
	)
	return nil
}

// HandleHoleFinished logs hole progress for the activity trail.
func (r *RoundRouter) HandleHoleFinished(ctx context.Context, payload *rounddomain.HoleFinishedPayloadV1) error {
	r.logger.InfoContext(ctx, "Hole finished",
		slog.String("round_id", payload.RoundID.String()),
		slog.Int("hole_index", payload.HoleIndex),
		slog.Int("strokes", payload.Strokes),
		slog.Int("current_hole", payload.CurrentHole),
	)
	return nil
}
