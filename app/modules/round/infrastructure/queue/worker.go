package roundqueue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
)

// Expirer abandons stale rounds.
type Expirer interface {
	ExpireRound(ctx context.Context, roundID uuid.UUID) (bool, error)
}

// ExpirerFunc adapts a function to Expirer.
type ExpirerFunc func(ctx context.Context, roundID uuid.UUID) (bool, error)

func (f ExpirerFunc) ExpireRound(ctx context.Context, roundID uuid.UUID) (bool, error) {
	return f(ctx, roundID)
}

// ExpireRoundWorker runs ExpireRoundJob.
type ExpireRoundWorker struct {
	river.WorkerDefaults[ExpireRoundJob]
	expirer Expirer
	logger  *slog.Logger
}

// NewExpireRoundWorker returns a worker delegating to expirer.
func NewExpireRoundWorker(logger *slog.Logger, expirer Expirer) *ExpireRoundWorker {
	return &ExpireRoundWorker{expirer: expirer, logger: logger}
}

// Work abandons the job's round. Malformed round ids are cancelled rather
// than retried.
func (w *ExpireRoundWorker) Work(ctx context.Context, job *river.Job[ExpireRoundJob]) error {
	roundID, err := uuid.Parse(job.Args.RoundID)
	if err != nil {
		w.logger.ErrorContext(ctx, "Expire job has an invalid round id",
			slog.Int64("job_id", job.ID),
			slog.String("round_id", job.Args.RoundID),
		)
		return river.JobCancel(fmt.Errorf("invalid round id %q: %w", job.Args.RoundID, err))
	}

	expired, err := w.expirer.ExpireRound(ctx, roundID)
	if err != nil {
		w.logger.WarnContext(ctx, "Failed to expire round",
			slog.Int64("job_id", job.ID),
			slog.String("round_id", roundID.String()),
			slog.Int("attempt", job.Attempt),
			slog.Any("error", err),
		)
		return fmt.Errorf("failed to expire round %s: %w", roundID, err)
	}

	w.logger.InfoContext(ctx, "Expire job completed",
		slog.Int64("job_id", job.ID),
		slog.String("round_id", roundID.String()),
		slog.Bool("abandoned", expired),
	)
	return nil
}
