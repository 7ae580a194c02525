package roundposition

import (
	"context"

	rounddomain "github.com/Black-And-White-Club/caddie/app/modules/round/domain"
)

type reportKey struct{}

type report struct {
	fix    *rounddomain.Position
	reason Reason
}

// WithFix attaches a device-reported fix to ctx.
func WithFix(ctx context.Context, pos rounddomain.Position) context.Context {
	return context.WithValue(ctx, reportKey{}, report{fix: &pos})
}

// WithFailure attaches a device-reported acquisition failure to ctx.
func WithFailure(ctx context.Context, reason Reason) context.Context {
	return context.WithValue(ctx, reportKey{}, report{reason: reason})
}

// Reported yields whatever the client attached to the request context. A
// request with nothing attached means the device has no usable sensor.
type Reported struct{}

func (Reported) Read(ctx context.Context) (rounddomain.Position, error) {
	if err := ctx.Err(); err != nil {
		return rounddomain.Position{}, err
	}
	r, ok := ctx.Value(reportKey{}).(report)
	if !ok {
		return rounddomain.Position{}, Unavailable(ReasonNoSensor, nil)
	}
	if r.fix == nil {
		return rounddomain.Position{}, Unavailable(r.reason, nil)
	}
	return *r.fix, nil
}
