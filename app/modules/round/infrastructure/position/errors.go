package roundposition

import (
	"errors"
	"fmt"
)

// ErrUnavailable matches every failure to obtain a fix.
var ErrUnavailable = errors.New("position unavailable")

// Reason tags why no fix was obtained.
type Reason string

const (
	ReasonPermissionDenied Reason = "permission_denied"
	ReasonTimeout          Reason = "timeout"
	ReasonNoSensor         Reason = "no_sensor"
	ReasonUnknown          Reason = "unknown"
)

// UnavailableError carries the failure reason and the underlying cause, if any.
type UnavailableError struct {
	Reason Reason
	Err    error
}

func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("position unavailable (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("position unavailable (%s)", e.Reason)
}

// Is makes errors.Is(err, ErrUnavailable) hold for every reason.
func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// Unavailable builds an *UnavailableError.
func Unavailable(reason Reason, cause error) error {
	return &UnavailableError{Reason: reason, Err: cause}
}

// ReasonOf extracts the reason from err, or ReasonUnknown.
func ReasonOf(err error) Reason {
	var ue *UnavailableError
	if errors.As(err, &ue) {
		return ue.Reason
	}
	return ReasonUnknown
}

// ParseReason maps client-reported failure codes onto a Reason. It accepts the
// reason names and the browser geolocation error codes (1, 2, 3).
func ParseReason(s string) Reason {
	switch s {
	case string(ReasonPermissionDenied), "1", "PERMISSION_DENIED":
		return ReasonPermissionDenied
	case string(ReasonTimeout), "3", "TIMEOUT":
		return ReasonTimeout
	case string(ReasonNoSensor), "2", "POSITION_UNAVAILABLE", "unsupported":
		return ReasonNoSensor
	default:
		return ReasonUnknown
	}
}
