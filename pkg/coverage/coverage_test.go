package coverage

import (
	"math"
	"testing"
	"time"

	"github.com/neg-0/overwatch/pkg/models"
	"github.com/neg-0/overwatch/pkg/propagator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGreatCircleAngleRad_Sanity(t *testing.T) {
	assert.InDelta(t, 0.0, GreatCircleAngleRad(10, 20, 10, 20), 1e-9)
	assert.InDelta(t, math.Pi, GreatCircleAngleRad(0, 0, 0, 180), 1e-5)
	assert.InDelta(t, math.Pi, GreatCircleAngleRad(90, 0, -90, 0), 1e-5)
	assert.InDelta(t, math.Pi/2, GreatCircleAngleRad(0, 0, 0, 90), 1e-9)
}

func TestCheckCoverage_LEO(t *testing.T) {
	sat := propagator.Position{Lat: 35.0, Lon: -100.0, AltKm: 408}
	res := CheckCoverage(sat, 34.0, -101.0, models.CapGPS)
	assert.True(t, res.InCoverage)
	assert.Greater(t, res.ElevationDeg, 5.0)
	assert.Greater(t, res.SlantRangeKm, 0.0)
}

func TestCheckCoverage_GEO(t *testing.T) {
	sat := propagator.Position{Lat: 0.5, Lon: 120.0, AltKm: 35786}
	res := CheckCoverage(sat, 15.0, 130.0, models.CapSATCOM)
	assert.True(t, res.InCoverage)
	assert.InDelta(t, 35786.0, res.AltKm, 1e-9)
}

func TestCheckCoverage_ElevationGateMatchesThreshold(t *testing.T) {
	sat := propagator.Position{Lat: 0, Lon: 0, AltKm: 500}
	res := CheckCoverage(sat, 0, 40, models.CapISRSpace) // far enough to be below the 20deg ISR minimum
	assert.Equal(t, res.ElevationDeg >= 20, res.InCoverage)
}

func TestComputeCoverageWindows_SortedNonOverlapping(t *testing.T) {
	asset := &models.SpaceAsset{ID: "sat-1", Name: "Sat-1", Capabilities: []models.CapabilityType{models.CapGPS}}
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	// Synthetic positioner: in-coverage during two disjoint minute ranges.
	positionAt := func(t time.Time) (propagator.Position, bool) {
		min := t.Sub(start).Minutes()
		inWindow := (min >= 10 && min <= 20) || (min >= 40 && min <= 50)
		if inWindow {
			return propagator.Position{Lat: 0, Lon: 0, AltKm: 500}, true
		}
		return propagator.Position{Lat: 80, Lon: 0, AltKm: 500}, true // far away -> not in coverage
	}

	windows := ComputeCoverageWindows(asset, 0, 0, start, end, 1, positionAt)
	require.Len(t, windows, 2)
	for i, w := range windows {
		assert.True(t, w.Start.Before(w.End) || w.Start.Equal(w.End))
		if i > 0 {
			assert.True(t, !windows[i].Start.Before(windows[i-1].End))
		}
	}
}

func TestDetectGaps_EmptyCoverageIsCriticalGap(t *testing.T) {
	lat, lon := 34.0, -101.0
	need := models.SpaceNeed{
		ID:             "need-1",
		PriorityRank:   1,
		CapabilityType: models.CapGPS,
		CoverageLat:    &lat,
		CoverageLon:    &lon,
		StartTime:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndTime:        time.Date(2026, 1, 1, 6, 0, 0, 0, time.UTC),
	}
	gaps := DetectGaps([]models.SpaceNeed{need}, nil)
	require.Len(t, gaps, 1)
	assert.Equal(t, models.GapCritical, gaps[0].Severity)
	assert.Equal(t, need.StartTime, gaps[0].Start)
	assert.Equal(t, need.EndTime, gaps[0].End)
}

func TestDetectGaps_FullCoverageIsEmpty(t *testing.T) {
	lat, lon := 34.0, -101.0
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(6 * time.Hour)
	need := models.SpaceNeed{ID: "need-1", PriorityRank: 1, CapabilityType: models.CapGPS, CoverageLat: &lat, CoverageLon: &lon, StartTime: start, EndTime: end}
	windows := []models.SpaceCoverageWindow{
		{Capability: models.CapGPS, Start: start.Add(-time.Hour), End: end.Add(time.Hour)},
	}
	gaps := DetectGaps([]models.SpaceNeed{need}, windows)
	assert.Empty(t, gaps)
}

func TestDetectGaps_HeadAndTailSegments(t *testing.T) {
	lat, lon := 34.0, -101.0
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(6 * time.Hour)
	need := models.SpaceNeed{ID: "need-1", PriorityRank: 2, CapabilityType: models.CapGPS, CoverageLat: &lat, CoverageLon: &lon, StartTime: start, EndTime: end}
	// Coverage only in the middle two hours.
	windows := []models.SpaceCoverageWindow{
		{Capability: models.CapGPS, Start: start.Add(2 * time.Hour), End: start.Add(4 * time.Hour)},
	}
	gaps := DetectGaps([]models.SpaceNeed{need}, windows)
	require.Len(t, gaps, 2)
	assert.Equal(t, start, gaps[0].Start)
	assert.Equal(t, start.Add(2*time.Hour), gaps[0].End)
	assert.Equal(t, start.Add(4*time.Hour), gaps[1].Start)
	assert.Equal(t, end, gaps[1].End)
}

func TestDetectGaps_SortedBySeverityThenPriority(t *testing.T) {
	lat, lon := 0.0, 0.0
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	low := models.SpaceNeed{ID: "low", PriorityRank: 9, CapabilityType: models.CapGPS, CoverageLat: &lat, CoverageLon: &lon, StartTime: start, EndTime: end}
	critical := models.SpaceNeed{ID: "crit", PriorityRank: 1, CapabilityType: models.CapGPS, CoverageLat: &lat, CoverageLon: &lon, StartTime: start, EndTime: end}

	gaps := DetectGaps([]models.SpaceNeed{low, critical}, nil)
	require.Len(t, gaps, 2)
	assert.Equal(t, "crit", gaps[0].NeedID)
	assert.Equal(t, "low", gaps[1].NeedID)
}

func TestCheckFulfillment_BelowThresholdNotFulfilled(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(6 * time.Hour)
	need := models.SpaceNeed{ID: "need-1", CapabilityType: models.CapGPS, StartTime: start, EndTime: end}
	windows := []models.SpaceCoverageWindow{
		{Capability: models.CapGPS, Start: start, End: start.Add(time.Hour)},
	}
	newly := CheckFulfillment([]models.SpaceNeed{need}, windows, 0.8)
	assert.Empty(t, newly)
}

func TestCheckFulfillment_Monotone(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(10 * time.Hour)
	need := models.SpaceNeed{ID: "need-1", CapabilityType: models.CapGPS, StartTime: start, EndTime: end}

	small := []models.SpaceCoverageWindow{{Capability: models.CapGPS, Start: start, End: start.Add(time.Hour)}}
	big := []models.SpaceCoverageWindow{{Capability: models.CapGPS, Start: start, End: start.Add(9 * time.Hour)}}

	assert.Empty(t, CheckFulfillment([]models.SpaceNeed{need}, small, 0.8))
	assert.NotEmpty(t, CheckFulfillment([]models.SpaceNeed{need}, big, 0.8))
}

func TestCheckFulfillment_SkipsAlreadyFulfilled(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	need := models.SpaceNeed{ID: "need-1", CapabilityType: models.CapGPS, StartTime: start, EndTime: start.Add(time.Hour), Fulfilled: true}
	newly := CheckFulfillment([]models.SpaceNeed{need}, nil, 0.8)
	assert.Empty(t, newly)
}
