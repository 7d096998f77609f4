// Package propagator computes satellite sub-satellite points (§4.1 Space
// Propagator). TLE-carrying assets are delegated to an SGP4 routine behind
// the SGP4 interface; assets with only mean orbital elements fall back to
// an analytic Keplerian approximation.
package propagator

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/neg-0/overwatch/pkg/models"
)

// muEarth is Earth's standard gravitational parameter in km^3/s^2.
const muEarth = 398600.4418

// earthRadiusKm is the mean Earth radius used for altitude conversions.
const earthRadiusKm = 6371.0

// geoAltitudeKm is the altitude pinned for orbits whose period places them in
// the geostationary band (1400 < periodMin < 1500).
const geoAltitudeKm = 35786.0

// Position is a propagated sub-satellite point.
type Position struct {
	Lat      float64
	Lon      float64
	AltKm    float64
	VelKmS   float64 // zero when the propagation source doesn't yield velocity
	HasVel   bool
}

// ErrNoEphemeris is returned when an asset carries neither a TLE nor mean
// elements sufficient to compute a position.
var ErrNoEphemeris = errors.New("propagator: asset has no TLE or orbital elements")

// SGP4 is the external collaborator contract for TLE propagation (§1: "an
// SGP4 library" is an out-of-scope external service). Implementations
// convert ECI state to GMST to geodetic internally and must filter NaN/Inf.
type SGP4 interface {
	// Propagate returns the geodetic sub-satellite point and velocity for
	// the given TLE pair at instant t.
	Propagate(ctx context.Context, line1, line2 string, t time.Time) (Position, error)
}

// Propagator computes asset positions, delegating TLE-bearing assets to an
// SGP4 implementation and falling back to the analytic approximation
// otherwise.
type Propagator struct {
	sgp4 SGP4
}

// New creates a Propagator. sgp4 may be nil; TLE-bearing assets then also
// fall back to the analytic approximation (degraded but never a panic).
func New(sgp4 SGP4) *Propagator {
	return &Propagator{sgp4: sgp4}
}

// PositionAt implements `positionAt(asset, instant) -> position | none`.
func (p *Propagator) PositionAt(ctx context.Context, asset *models.SpaceAsset, instant time.Time) (Position, bool) {
	if asset.HasTLE() && p.sgp4 != nil {
		pos, err := p.sgp4.Propagate(ctx, asset.TLELine1, asset.TLELine2, instant)
		if err == nil && isFinitePosition(pos) {
			return pos, true
		}
	}
	if asset.InclinationDeg != 0 || asset.PeriodMin != 0 {
		return analyticApprox(asset, instant), true
	}
	return Position{}, false
}

func isFinitePosition(p Position) bool {
	return !math.IsNaN(p.Lat) && !math.IsInf(p.Lat, 0) &&
		!math.IsNaN(p.Lon) && !math.IsInf(p.Lon, 0) &&
		!math.IsNaN(p.AltKm) && !math.IsInf(p.AltKm, 0)
}

// analyticApprox computes an approximate sub-satellite point from mean
// inclination/period/eccentricity when no TLE is available. The Kepler-derived
// altitude form is used per the design note resolving the two-variant Open
// Question in its favor; the GEO special case (1400 < periodMin < 1500) pins
// altitude at geoAltitudeKm rather than deriving it.
func analyticApprox(asset *models.SpaceAsset, instant time.Time) Position {
	periodMin := asset.PeriodMin
	periodMs := periodMin * 60 * 1000

	var altKm float64
	if periodMin > 1400 && periodMin < 1500 {
		altKm = geoAltitudeKm
	} else if periodMin > 0 {
		// Kepler's third law: a = (mu * T^2 / (4*pi^2)) ^ (1/3), T in seconds.
		periodSec := periodMin * 60
		a := math.Cbrt(muEarth * periodSec * periodSec / (4 * math.Pi * math.Pi))
		altKm = a - earthRadiusKm
	}

	elapsed := float64(instant.UnixMilli())
	var phase float64
	if periodMs > 0 {
		phase = 2 * math.Pi * math.Mod(elapsed, periodMs) / periodMs
	}

	lat := asset.InclinationDeg * math.Sin(phase)
	lon := asset.BaseLon + asset.Eccentricity*360*math.Cos(phase)

	lat, lon = normalizeWithPolarReflection(lat, lon)

	return Position{Lat: lat, Lon: lon, AltKm: altKm}
}

// normalizeWithPolarReflection normalizes longitude into [-180, 180]. If the
// unwrapped latitude exceeds +/-90 degrees, it reflects latitude across the
// pole (lat -> +/-180 - lat) and rotates longitude 180 degrees before
// clamping latitude to [-90, 90]. This mirrors a satellite's ground track
// correctly crossing a pole instead of clamping it flat against it.
func normalizeWithPolarReflection(lat, lon float64) (float64, float64) {
	if lat > 90 {
		lat = 180 - lat
		lon += 180
	} else if lat < -90 {
		lat = -180 - lat
		lon += 180
	}

	lon = math.Mod(lon, 360)
	if lon > 180 {
		lon -= 360
	} else if lon <= -180 {
		lon += 360
	}

	if lat > 90 {
		lat = 90
	} else if lat < -90 {
		lat = -90
	}

	return lat, lon
}
