package simulation

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/neg-0/overwatch/pkg/coverage"
	"github.com/neg-0/overwatch/pkg/metrics"
	"github.com/neg-0/overwatch/pkg/models"
)

// speedKnotsByDomain is the presumed cruise speed used for mission position
// interpolation when a waypoint carries no explicit speed.
var speedKnotsByDomain = map[models.Domain]float64{
	models.DomainAir:      450,
	models.DomainMaritime: 20,
	models.DomainLand:     120,
}

// defaultLeadFraction is the fraction of total flight time a mission is
// presumed to launch ahead of its TOT window's start, used only when no
// earlier waypoint timing is recorded (§9 Open Question).
const defaultLeadFraction = 0.3

// coverageCyclePeriod is how often (in position-loop iterations) the
// coverage/gap pass runs, per §4.5.
const coverageCyclePeriod = 5

// positionIteration runs one position-loop iteration: (i) propagate
// missions, (ii) propagate satellites, (iii) every 5th iteration compute
// coverage & gaps.
func (c *Controller) positionIteration(ctx context.Context, r *run) {
	if c.activeRun(r.scenarioID) == nil {
		return
	}
	state, found, err := c.store.GetSimulationState(ctx, r.scenarioID)
	if err != nil || !found || state.Status != models.SimRunning || state.IsGenerating {
		return
	}

	c.propagateMissions(ctx, r, state)
	if c.activeRun(r.scenarioID) == nil {
		return
	}
	c.propagateSatellites(ctx, r, state)

	r.positionTick++
	if r.positionTick%coverageCyclePeriod == 0 {
		if c.activeRun(r.scenarioID) == nil {
			return
		}
		c.coverageCycle(ctx, r, state)
	}
}

// propagateMissions interpolates each active mission's position along its
// waypoint route and broadcasts position:update.
func (c *Controller) propagateMissions(ctx context.Context, r *run, state *models.SimulationState) {
	missions, err := c.store.ListActiveMissions(ctx, r.scenarioID)
	if err != nil {
		if !isNotFound(err) {
			c.log.Warn("simulation: propagate missions: list", "error", err)
		}
		return
	}
	for i := range missions {
		m := &missions[i]
		pos, heading, speedKts, ok := interpolateMission(m, state.SimTime)
		if !ok {
			continue
		}
		payload := map[string]any{
			"missionId": m.ID, "callsign": m.Callsign, "domain": string(m.Domain),
			"timestamp": state.SimTime.Format(time.RFC3339), "lat": pos.lat, "lon": pos.lon,
			"heading": heading, "speed_kts": speedKts, "status": string(m.Status),
		}
		c.emit(ctx, r.scenarioID, "position:update", payload)
	}
}

type latLon struct{ lat, lon float64 }

// interpolateMission places a mission along its waypoint sequence at
// instant, piecewise-linear by great-circle segment fraction, pacing by
// domain cruise speed. Mission start is inferred as
// firstTOT.Start - leadFraction*totalFlightTime. Past route end the
// mission pins at the last waypoint with zero speed.
func interpolateMission(m *models.Mission, instant time.Time) (pos latLon, headingDeg, speedKts float64, ok bool) {
	if len(m.Waypoints) == 0 {
		return latLon{}, 0, 0, false
	}
	wps := orderedWaypoints(m.Waypoints)
	speed := speedKnotsByDomain[m.Domain]
	if speed <= 0 {
		speed = 300
	}

	totalNm := 0.0
	segNm := make([]float64, len(wps)-1)
	for i := 0; i+1 < len(wps); i++ {
		d := greatCircleNm(wps[i].Lat, wps[i].Lon, wps[i+1].Lat, wps[i+1].Lon)
		segNm[i] = d
		totalNm += d
	}
	if totalNm == 0 {
		last := wps[len(wps)-1]
		return latLon{last.Lat, last.Lon}, 0, 0, true
	}
	totalFlightHours := totalNm / speed

	tot := m.TOTWindow()
	var missionStart time.Time
	if tot != nil {
		missionStart = tot.Start.Add(-time.Duration(defaultLeadFraction * totalFlightHours * float64(time.Hour)))
	} else if len(m.TimeWindows) > 0 {
		missionStart = m.TimeWindows[0].Start
	} else {
		missionStart = instant
	}

	elapsedHours := instant.Sub(missionStart).Hours()
	if elapsedHours <= 0 {
		first := wps[0]
		return latLon{first.Lat, first.Lon}, 0, speed, true
	}
	flownNm := elapsedHours * speed
	if flownNm >= totalNm {
		last := wps[len(wps)-1]
		return latLon{last.Lat, last.Lon}, 0, 0, true
	}

	cursor := 0.0
	for i, d := range segNm {
		if cursor+d >= flownNm || i == len(segNm)-1 {
			frac := 0.0
			if d > 0 {
				frac = (flownNm - cursor) / d
			}
			a, b := wps[i], wps[i+1]
			lat := a.Lat + frac*(b.Lat-a.Lat)
			lon := a.Lon + frac*(b.Lon-a.Lon)
			heading := bearingDeg(a.Lat, a.Lon, b.Lat, b.Lon)
			return latLon{lat, lon}, heading, speed, true
		}
		cursor += d
	}
	last := wps[len(wps)-1]
	return latLon{last.Lat, last.Lon}, 0, speed, true
}

func orderedWaypoints(wps []models.Waypoint) []models.Waypoint {
	out := make([]models.Waypoint, len(wps))
	copy(out, wps)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Sequence < out[j-1].Sequence; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// greatCircleNm returns great-circle distance in nautical miles.
func greatCircleNm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusNm = 3440.065
	return coverage.GreatCircleAngleRad(lat1, lon1, lat2, lon2) * earthRadiusNm
}

// bearingDeg returns the initial great-circle bearing from point 1 to 2.
func bearingDeg(lat1, lon1, lat2, lon2 float64) float64 {
	φ1, φ2 := lat1*math.Pi/180, lat2*math.Pi/180
	Δλ := (lon2 - lon1) * math.Pi / 180
	y := math.Sin(Δλ) * math.Cos(φ2)
	x := math.Cos(φ1)*math.Sin(φ2) - math.Sin(φ1)*math.Cos(φ2)*math.Cos(Δλ)
	θ := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(θ+360, 360)
}

// propagateSatellites re-propagates every non-LOST asset at the current
// simTime and discards the results; it broadcasts nothing. Satellite state
// reaches clients only through the coverage cycle's space:coverage event,
// not as individual satellite telemetry.
func (c *Controller) propagateSatellites(ctx context.Context, r *run, state *models.SimulationState) {
	assets, err := c.store.ListSpaceAssetsByScenario(ctx, r.scenarioID)
	if err != nil {
		c.log.Warn("simulation: propagate satellites: list", "error", err)
		return
	}
	for i := range assets {
		if assets[i].Status == models.AssetLost {
			continue
		}
		c.prop.PositionAt(ctx, &assets[i], state.SimTime)
	}
}

// coverageCycle materializes instantaneous coverage windows for every
// OPERATIONAL asset against every active space need, persists them
// deduplicated, marks newly-fulfilled needs, and diffs the gap set to emit
// gap:detected / gap:resolved and DECISION_REQUIRED events for severe gaps.
func (c *Controller) coverageCycle(ctx context.Context, r *run, state *models.SimulationState) {
	metrics.CoverageCycle(r.scenarioID)

	assets, err := c.store.ListSpaceAssetsByScenario(ctx, r.scenarioID)
	if err != nil {
		c.log.Warn("simulation: coverage cycle: list assets", "error", err)
		return
	}
	needs, err := c.store.ListSpaceNeedsActiveAt(ctx, r.scenarioID, state.SimTime)
	if err != nil {
		if !isNotFound(err) {
			c.log.Warn("simulation: coverage cycle: list needs", "error", err)
		}
		return
	}

	windowDur := c.cfg.positionInterval() * coverageCyclePeriod
	windowDur = time.Duration(float64(windowDur) * state.CompressionRatio)
	windowEnd := state.SimTime.Add(windowDur)

	var fresh []models.SpaceCoverageWindow
	var coveragePayload []map[string]any
	for i := range assets {
		asset := &assets[i]
		if asset.Status != models.AssetOperational {
			continue
		}
		pos, ok := c.prop.PositionAt(ctx, asset, state.SimTime)
		if !ok {
			continue
		}
		for _, need := range needs {
			if !need.HasCoveragePoint() {
				continue
			}
			res := coverage.CheckCoverage(pos, *need.CoverageLat, *need.CoverageLon, need.CapabilityType)
			if !res.InCoverage {
				continue
			}
			w := models.SpaceCoverageWindow{
				ScenarioID: r.scenarioID, AssetID: asset.ID, AssetName: asset.Name,
				Capability: need.CapabilityType, Start: state.SimTime, End: windowEnd,
				MaxElevation: res.ElevationDeg, CenterLat: res.SubSatLat, CenterLon: res.SubSatLon,
			}
			fresh = append(fresh, w)
			if err := c.store.CreateCoverageWindowDedup(ctx, &w); err != nil {
				c.log.Warn("simulation: coverage cycle: persist window", "error", err)
				continue
			}
			coveragePayload = append(coveragePayload, map[string]any{
				"assetId": asset.ID, "assetName": asset.Name, "capability": string(need.CapabilityType),
				"start": w.Start.Format(time.RFC3339), "end": w.End.Format(time.RFC3339),
				"elevation": res.ElevationDeg, "lat": res.SubSatLat, "lon": res.SubSatLon,
			})
		}
	}
	if len(coveragePayload) > 0 {
		c.emit(ctx, r.scenarioID, "space:coverage", map[string]any{
			"timestamp": state.SimTime.Format(time.RFC3339), "windows": coveragePayload,
		})
	}

	allWindows, err := c.store.ListCoverageWindowsByScenario(ctx, r.scenarioID)
	if err != nil {
		allWindows = fresh
	}

	fulfilledIDs := coverage.CheckFulfillment(needs, allWindows, 0.8)
	if len(fulfilledIDs) > 0 {
		if err := c.store.MarkSpaceNeedsFulfilled(ctx, fulfilledIDs); err != nil {
			c.log.Warn("simulation: coverage cycle: mark fulfilled", "error", err)
		}
	}

	c.diffGaps(ctx, r, state, needs, allWindows)
}

// diffGaps compares this cycle's detected gaps against the run's previous
// set, emitting gap:detected / gap:resolved and persisting a
// DECISION_REQUIRED SimEvent with four fixed options for CRITICAL/DEGRADED
// gaps newly seen.
func (c *Controller) diffGaps(ctx context.Context, r *run, state *models.SimulationState, needs []models.SpaceNeed, windows []models.SpaceCoverageWindow) {
	gaps := coverage.DetectGaps(needs, windows)
	current := make(map[string]coverage.Gap, len(gaps))
	for _, g := range gaps {
		key := gapKey(g)
		current[key] = g
		if _, existed := r.prevGaps[key]; existed {
			continue
		}
		metrics.GapDetected(r.scenarioID)
		c.emit(ctx, r.scenarioID, "gap:detected", map[string]any{
			"timestamp": state.SimTime.Format(time.RFC3339),
			"gap": map[string]any{
				"missionId": g.MissionID, "capability": string(g.Capability),
				"start": g.Start.Format(time.RFC3339), "end": g.End.Format(time.RFC3339),
				"severity": string(g.Severity), "priority": g.Priority,
			},
		})
		if g.Severity == models.GapCritical || g.Severity == models.GapDegraded {
			c.raiseDecision(ctx, r, state, g)
		}
	}
	for key, g := range r.prevGaps {
		if _, stillOpen := current[key]; !stillOpen {
			metrics.GapResolved(r.scenarioID)
			c.emit(ctx, r.scenarioID, "gap:resolved", map[string]any{
				"timestamp": state.SimTime.Format(time.RFC3339),
				"gap": map[string]any{
					"missionId": g.MissionID, "capability": string(g.Capability),
					"start": g.Start.Format(time.RFC3339), "end": g.End.Format(time.RFC3339),
					"severity": string(g.Severity), "priority": g.Priority,
				},
			})
		}
	}
	r.prevGaps = current
}

func gapKey(g coverage.Gap) string {
	return fmt.Sprintf("%s|%s|%d", g.MissionID, g.Capability, g.Start.Unix())
}

// decisionOptions are the four fixed response choices offered on every
// DECISION_REQUIRED event, per §4.5.
var decisionOptions = []models.DecisionOption{
	{Label: "REALLOCATE", Description: "Reassign a lower-priority asset's window to cover this gap"},
	{Label: "ACCEPT_RISK", Description: "Accept the coverage gap and continue without reallocation"},
	{Label: "REQUEST_ASSET", Description: "Request an additional or alternate space asset"},
	{Label: "DEGRADE_MISSION", Description: "Relax the mission's requirement to a fallback capability"},
}

func (c *Controller) raiseDecision(ctx context.Context, r *run, state *models.SimulationState, g coverage.Gap) {
	event := &models.SimEvent{
		ScenarioID: r.scenarioID,
		Time:       state.SimTime,
		EventType:  models.EventDecisionRequired,
		MissionID:  &g.MissionID,
		Detail: map[string]any{
			"severity": string(g.Severity), "capability": string(g.Capability),
			"gapStart": g.Start.Format(time.RFC3339), "gapEnd": g.End.Format(time.RFC3339),
			"options": decisionOptions,
		},
	}
	if err := c.store.CreateSimEvent(ctx, event); err != nil {
		c.log.Warn("simulation: raise decision: persist event", "error", err)
		return
	}
	metrics.DecisionRaised(r.scenarioID)
	c.emit(ctx, r.scenarioID, "decision:required", map[string]any{
		"decisionId": event.ID, "severity": string(g.Severity), "capability": string(g.Capability),
		"missionId": g.MissionID, "gapStart": g.Start.Format(time.RFC3339), "gapEnd": g.End.Format(time.RFC3339),
		"options": decisionOptions,
	})
}
