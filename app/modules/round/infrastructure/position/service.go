package roundposition

import (
	"context"
	"errors"
	"log/slog"
	"time"

	rounddomain "github.com/Black-And-White-Club/caddie/app/modules/round/domain"
)

// DefaultTimeout bounds a single fix request.
const DefaultTimeout = 10 * time.Second

// Source produces a raw fix. Implementations must return when ctx is done.
type Source interface {
	Read(ctx context.Context) (rounddomain.Position, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (rounddomain.Position, error)

func (f SourceFunc) Read(ctx context.Context) (rounddomain.Position, error) { return f(ctx) }

// Service requests a fix from a Source with a bounded wait. It never retries.
type Service struct {
	source  Source
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// NewService wraps source. A non-positive timeout uses DefaultTimeout.
func NewService(source Source, timeout time.Duration, logger *slog.Logger) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{source: source, timeout: timeout, logger: logger, now: time.Now}
}

// CurrentPosition returns a fix or an *UnavailableError.
func (s *Service) CurrentPosition(ctx context.Context) (rounddomain.Position, error) {
	if s.source == nil {
		return rounddomain.Position{}, Unavailable(ReasonNoSensor, nil)
	}

	readCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	pos, err := s.source.Read(readCtx)
	if err != nil {
		err = classify(readCtx, err)
		s.logger.DebugContext(ctx, "Position unavailable",
			slog.String("reason", string(ReasonOf(err))),
			slog.Any("error", err),
		)
		return rounddomain.Position{}, err
	}

	if pos.CapturedAt.IsZero() {
		pos.CapturedAt = s.now()
	}
	return pos, nil
}

func classify(ctx context.Context, err error) error {
	var ue *UnavailableError
	if errors.As(err, &ue) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Unavailable(ReasonTimeout, err)
	}
	return Unavailable(ReasonUnknown, err)
}
