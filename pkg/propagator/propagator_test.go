package propagator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/neg-0/overwatch/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionAt_NoEphemeris(t *testing.T) {
	p := New(nil)
	asset := &models.SpaceAsset{Name: "ghost"}
	_, ok := p.PositionAt(context.Background(), asset, time.Now())
	assert.False(t, ok)
}

func TestPositionAt_AnalyticGEO(t *testing.T) {
	p := New(nil)
	asset := &models.SpaceAsset{
		Name:           "geo-comm-1",
		InclinationDeg: 0.5,
		PeriodMin:      1436, // ~1 sidereal day, lands in the GEO band
		Eccentricity:   0.001,
		BaseLon:        120,
	}
	pos, ok := p.PositionAt(context.Background(), asset, time.Now())
	require.True(t, ok)
	assert.InDelta(t, geoAltitudeKm, pos.AltKm, 1e-6)
	assert.GreaterOrEqual(t, pos.Lon, -180.0)
	assert.LessOrEqual(t, pos.Lon, 180.0)
}

func TestPositionAt_AnalyticLEOKepler(t *testing.T) {
	p := New(nil)
	// 90 minute period is a typical LEO value; verify the Kepler-derived
	// altitude lands in the expected few-hundred-km band rather than the
	// GEO pin.
	asset := &models.SpaceAsset{
		InclinationDeg: 53,
		PeriodMin:      90,
		Eccentricity:   0.0005,
	}
	pos, ok := p.PositionAt(context.Background(), asset, time.Unix(0, 0))
	require.True(t, ok)
	assert.Greater(t, pos.AltKm, 100.0)
	assert.Less(t, pos.AltKm, 1000.0)
}

func TestPositionAt_PreferSGP4OverAnalytic(t *testing.T) {
	called := false
	fake := sgp4Func(func(ctx context.Context, l1, l2 string, t time.Time) (Position, error) {
		called = true
		return Position{Lat: 10, Lon: 20, AltKm: 500}, nil
	})
	p := New(fake)
	asset := &models.SpaceAsset{
		TLELine1:       "1 TLE",
		TLELine2:       "2 TLE",
		InclinationDeg: 53,
		PeriodMin:      90,
	}
	pos, ok := p.PositionAt(context.Background(), asset, time.Now())
	require.True(t, ok)
	assert.True(t, called)
	assert.Equal(t, 500.0, pos.AltKm)
}

func TestPositionAt_SGP4FailureFallsBackToAnalytic(t *testing.T) {
	fake := sgp4Func(func(ctx context.Context, l1, l2 string, t time.Time) (Position, error) {
		return Position{}, assertErr
	})
	p := New(fake)
	asset := &models.SpaceAsset{
		TLELine1:       "1 TLE",
		TLELine2:       "2 TLE",
		InclinationDeg: 53,
		PeriodMin:      90,
	}
	pos, ok := p.PositionAt(context.Background(), asset, time.Now())
	require.True(t, ok)
	assert.Greater(t, pos.AltKm, 0.0)
}

func TestNormalizeWithPolarReflection_PoleCrossing(t *testing.T) {
	lat, lon := normalizeWithPolarReflection(95, 10)
	assert.Equal(t, 85.0, lat)
	assert.InDelta(t, -170.0, lon, 1e-9)

	lat, lon = normalizeWithPolarReflection(-95, 10)
	assert.Equal(t, -85.0, lat)
	assert.InDelta(t, -170.0, lon, 1e-9)
}

func TestNormalizeWithPolarReflection_WrapsLongitude(t *testing.T) {
	_, lon := normalizeWithPolarReflection(0, 540)
	assert.InDelta(t, 180.0, lon, 1e-9)
}

type sgp4Func func(ctx context.Context, l1, l2 string, t time.Time) (Position, error)

func (f sgp4Func) Propagate(ctx context.Context, l1, l2 string, t time.Time) (Position, error) {
	return f(ctx, l1, l2, t)
}

var assertErr = errors.New("propagation failed")
