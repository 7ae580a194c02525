package roundservice

import (
	"context"
	"log/slog"
	"time"

	rounddomain "github.com/Black-And-White-Club/caddie/app/modules/round/domain"
	rounddb "github.com/Black-And-White-Club/caddie/app/modules/round/infrastructure/repositories"
	"github.com/Black-And-White-Club/caddie/app/observability"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace"
)

// PositionReader yields the device's current fix. Failures are
// *roundposition.UnavailableError values.
type PositionReader interface {
	CurrentPosition(ctx context.Context) (rounddomain.Position, error)
}

// EventPublisher delivers round events after a mutation commits.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// Coach answers free-form and rules questions.
type Coach interface {
	Respond(ctx context.Context, req rounddomain.CoachRequest) (string, error)
}

// Transcriber converts recorded speech to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename, language string) (rounddomain.Transcript, error)
}

// ExpiryScheduler arranges for a stale round to be abandoned at a later time.
type ExpiryScheduler interface {
	ScheduleExpiry(ctx context.Context, roundID uuid.UUID, at time.Time) error
	// CancelRoundJobs drops pending expiry jobs of a round that finished.
	CancelRoundJobs(ctx context.Context, roundID uuid.UUID) error
}

// DefaultAccuracyThresholdM is the largest fix error, in meters, that still
// yields a measured distance.
const DefaultAccuracyThresholdM = 15.0

// Dependencies configures a Service and the engines it creates. Only Repo is
// required.
type Dependencies struct {
	Repo        rounddb.Repository
	DB          *bun.DB
	Positions   PositionReader
	Publisher   EventPublisher
	Coach       Coach
	Transcriber Transcriber
	Scheduler   ExpiryScheduler

	AccuracyThresholdM float64
	StaleRoundAfter    time.Duration

	Logger  *slog.Logger
	Metrics observability.Metrics
	Tracer  trace.Tracer

	Now   func() time.Time
	NewID func() uuid.UUID
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Metrics == nil {
		d.Metrics = observability.NewNoop()
	}
	if d.AccuracyThresholdM <= 0 {
		d.AccuracyThresholdM = DefaultAccuracyThresholdM
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.NewID == nil {
		d.NewID = uuid.New
	}
	return d
}

func (d Dependencies) telemetry(component string) *telemetry {
	return &telemetry{
		component: component,
		logger:    d.Logger,
		metrics:   d.Metrics,
		tracer:    d.Tracer,
		db:        d.DB,
	}
}
