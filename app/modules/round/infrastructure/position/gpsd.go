package roundposition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"time"

	rounddomain "github.com/Black-And-White-Club/caddie/app/modules/round/domain"
)

const watchCommand = `?WATCH={"enable":true,"json":true};` + "\n"

// GPSD reads fixes from a gpsd daemon over its JSON protocol.
type GPSD struct {
	addr string
}

// NewGPSD returns a source for the daemon at addr (host:port).
func NewGPSD(addr string) *GPSD {
	return &GPSD{addr: addr}
}

// tpv is the subset of a gpsd TPV report used here.
type tpv struct {
	Class string   `json:"class"`
	Mode  int      `json:"mode"`
	Time  string   `json:"time"`
	Lat   *float64 `json:"lat"`
	Lon   *float64 `json:"lon"`
	Epx   *float64 `json:"epx"`
	Epy   *float64 `json:"epy"`
	Eph   *float64 `json:"eph"`
}

// Read opens a watch session and returns the first 2D or 3D fix.
func (g *GPSD) Read(ctx context.Context) (rounddomain.Position, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", g.addr)
	if err != nil {
		if ctx.Err() != nil {
			return rounddomain.Position{}, Unavailable(ReasonTimeout, err)
		}
		return rounddomain.Position{}, Unavailable(ReasonNoSensor, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	if _, err := conn.Write([]byte(watchCommand)); err != nil {
		return rounddomain.Position{}, Unavailable(ReasonUnknown, fmt.Errorf("failed to send watch: %w", err))
	}

	dec := json.NewDecoder(conn)
	for {
		var report tpv
		if err := dec.Decode(&report); err != nil {
			var netErr net.Error
			if ctx.Err() != nil || (errors.As(err, &netErr) && netErr.Timeout()) {
				return rounddomain.Position{}, Unavailable(ReasonTimeout, err)
			}
			return rounddomain.Position{}, Unavailable(ReasonUnknown, fmt.Errorf("failed to read gpsd report: %w", err))
		}
		if report.Class != "TPV" || report.Mode < 2 || report.Lat == nil || report.Lon == nil {
			continue
		}
		return report.position(), nil
	}
}

func (r tpv) position() rounddomain.Position {
	pos := rounddomain.Position{
		Latitude:  *r.Lat,
		Longitude: *r.Lon,
		Accuracy:  r.accuracy(),
	}
	if t, err := time.Parse(time.RFC3339Nano, r.Time); err == nil {
		pos.CapturedAt = t
	}
	return pos
}

// accuracy is the larger of the longitude and latitude error estimates,
// falling back to eph.
func (r tpv) accuracy() float64 {
	switch {
	case r.Epx != nil && r.Epy != nil:
		return math.Max(*r.Epx, *r.Epy)
	case r.Epx != nil:
		return *r.Epx
	case r.Epy != nil:
		return *r.Epy
	case r.Eph != nil:
		return *r.Eph
	}
	return rounddomain.UnknownAccuracy
}
