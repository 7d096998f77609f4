package allocator

import (
	"testing"
	"time"

	"github.com/neg-0/overwatch/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gpsAsset(id string, caps ...models.CapabilityType) *models.SpaceAsset {
	return &models.SpaceAsset{ID: id, Name: id, Capabilities: caps}
}

func coverageWindow(assetID string, cap models.CapabilityType, start, end time.Time) models.SpaceCoverageWindow {
	return models.SpaceCoverageWindow{AssetID: assetID, Capability: cap, Start: start, End: end}
}

func TestAllocate_ContentionResolution(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	fallback := models.CapGPSMilitary

	needA := models.SpaceNeed{ID: "A", CapabilityType: models.CapGPS, StrategyRank: 1, StartTime: start, EndTime: end}
	needB := models.SpaceNeed{ID: "B", CapabilityType: models.CapGPS, StrategyRank: 3, StartTime: start, EndTime: end, FallbackCapability: &fallback}

	assets := []*models.SpaceAsset{
		gpsAsset("sat-gps", models.CapGPS),
		gpsAsset("sat-mil", models.CapGPSMilitary),
	}
	windows := []models.SpaceCoverageWindow{
		coverageWindow("sat-gps", models.CapGPS, start, end),
		coverageWindow("sat-mil", models.CapGPSMilitary, start, end),
	}

	result := Allocate([]NeedInput{{Need: needA}, {Need: needB}}, assets, windows)

	byID := map[string]Allocation{}
	for _, a := range result.Allocations {
		byID[a.NeedID] = a
	}

	require.Contains(t, byID, "A")
	require.Contains(t, byID, "B")
	assert.Equal(t, models.AllocationFulfilled, byID["A"].Status)
	assert.Equal(t, models.AllocationDegraded, byID["B"].Status)
	assert.Equal(t, models.CapGPSMilitary, byID["B"].AllocatedCapability)
	require.Len(t, result.Contentions, 1)
	assert.Equal(t, 1, result.Summary.Contention)
}

func TestAllocate_CriticalityTiebreaker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	critical := models.SpaceNeed{ID: "crit", CapabilityType: models.CapGPS, StrategyRank: 2, MissionCriticality: models.CriticalityCritical, StartTime: start, EndTime: end}
	essential := models.SpaceNeed{ID: "ess", CapabilityType: models.CapGPS, StrategyRank: 2, MissionCriticality: models.CriticalityEssential, StartTime: start, EndTime: end}

	assets := []*models.SpaceAsset{gpsAsset("sat-1", models.CapGPS)}
	windows := []models.SpaceCoverageWindow{coverageWindow("sat-1", models.CapGPS, start, end)}

	result := Allocate([]NeedInput{{Need: essential}, {Need: critical}}, assets, windows)

	byID := map[string]Allocation{}
	for _, a := range result.Allocations {
		byID[a.NeedID] = a
	}
	assert.Equal(t, models.AllocationFulfilled, byID["crit"].Status)
	assert.Equal(t, models.AllocationDenied, byID["ess"].Status)
}

func TestAllocate_NonContendedWithSupplyIsFulfilled(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	need := models.SpaceNeed{ID: "solo", CapabilityType: models.CapGPS, StartTime: start, EndTime: end}
	assets := []*models.SpaceAsset{gpsAsset("sat-1", models.CapGPS)}
	windows := []models.SpaceCoverageWindow{coverageWindow("sat-1", models.CapGPS, start, end)}

	result := Allocate([]NeedInput{{Need: need}}, assets, windows)
	require.Len(t, result.Allocations, 1)
	assert.Equal(t, models.AllocationFulfilled, result.Allocations[0].Status)
	assert.Empty(t, result.Contentions)
}

func TestAllocate_NonContendedWithoutSupplyIsDenied(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	need := models.SpaceNeed{ID: "solo", CapabilityType: models.CapGPS, StartTime: start, EndTime: end}

	result := Allocate([]NeedInput{{Need: need}}, nil, nil)
	require.Len(t, result.Allocations, 1)
	assert.Equal(t, models.AllocationDenied, result.Allocations[0].Status)
}

func TestAllocate_RiskLevelEscalatesOnCriticalDenial(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	need := models.SpaceNeed{ID: "solo", CapabilityType: models.CapGPS, MissionCriticality: models.CriticalityCritical, StartTime: start, EndTime: end}

	result := Allocate([]NeedInput{{Need: need}}, nil, nil)
	assert.Equal(t, models.RiskCritical, result.Summary.RiskLevel)
}

func TestAllocate_RiskLevelHighOnNonCriticalDenial(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	need := models.SpaceNeed{ID: "solo", CapabilityType: models.CapGPS, MissionCriticality: models.CriticalityRoutine, StartTime: start, EndTime: end}

	result := Allocate([]NeedInput{{Need: need}}, nil, nil)
	assert.Equal(t, models.RiskHigh, result.Summary.RiskLevel)
}

func TestAllocate_PackagePriorityTiebreakWhenRankAndCriticalityTie(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	lowPkg := models.SpaceNeed{ID: "low-pkg", CapabilityType: models.CapGPS, StartTime: start, EndTime: end}
	highPkg := models.SpaceNeed{ID: "high-pkg", CapabilityType: models.CapGPS, StartTime: start, EndTime: end}

	assets := []*models.SpaceAsset{gpsAsset("sat-1", models.CapGPS)}
	windows := []models.SpaceCoverageWindow{coverageWindow("sat-1", models.CapGPS, start, end)}

	result := Allocate([]NeedInput{
		{Need: lowPkg, PackagePriorityRank: 5},
		{Need: highPkg, PackagePriorityRank: 1},
	}, assets, windows)

	byID := map[string]Allocation{}
	for _, a := range result.Allocations {
		byID[a.NeedID] = a
	}
	assert.Equal(t, models.AllocationFulfilled, byID["high-pkg"].Status)
	assert.Equal(t, models.AllocationDenied, byID["low-pkg"].Status)
}

func TestGroupByContention_NonOverlappingNeedsAreNotGrouped(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	first := models.SpaceNeed{ID: "first", CapabilityType: models.CapGPS, StartTime: start, EndTime: start.Add(time.Hour)}
	second := models.SpaceNeed{ID: "second", CapabilityType: models.CapGPS, StartTime: start.Add(2 * time.Hour), EndTime: start.Add(3 * time.Hour)}

	result := Allocate([]NeedInput{{Need: first}, {Need: second}}, nil, nil)
	assert.Empty(t, result.Contentions)
}
