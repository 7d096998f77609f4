package simulation

import (
	"context"
	"fmt"
	"time"

	"github.com/neg-0/overwatch/pkg/models"
)

// Seek clamps targetTime to the scenario's bounds, recomputes atoDay,
// replays the event log to derive asset/mission state, persists it, and,
// when seeking backwards, resets any injects scheduled at or after the new
// day so they refire deterministically going forward.
func (c *Controller) Seek(ctx context.Context, scenarioID string, targetTime time.Time) error {
	scenario, found, err := c.store.GetScenario(ctx, scenarioID)
	if err != nil {
		return fmt.Errorf("simulation: seek: %w", err)
	}
	if !found {
		return fmt.Errorf("simulation: seek: scenario %s not found", scenarioID)
	}

	if targetTime.Before(scenario.StartDate) {
		targetTime = scenario.StartDate
	}
	if targetTime.After(scenario.EndDate) {
		targetTime = scenario.EndDate
	}

	state, found, err := c.store.GetSimulationState(ctx, scenarioID)
	if err != nil {
		return fmt.Errorf("simulation: seek: load state: %w", err)
	}
	if !found {
		state = &models.SimulationState{ScenarioID: scenarioID, Status: models.SimPaused, CompressionRatio: 720}
	}

	rewinding := targetTime.Before(state.SimTime)
	state.SimTime = targetTime
	newDay := atoDayFor(scenario, targetTime)
	state.CurrentAtoDay = newDay
	if rewinding && state.LastAtoDayGen > newDay {
		state.LastAtoDayGen = newDay
	}

	events, err := c.store.EventsUpTo(ctx, scenarioID, targetTime)
	if err != nil {
		return fmt.Errorf("simulation: seek: load events: %w", err)
	}

	if err := c.replayAssetStatuses(ctx, scenarioID, events); err != nil {
		return err
	}
	if err := c.replayMissionStatuses(ctx, scenarioID, targetTime, events); err != nil {
		return err
	}

	if rewinding {
		if err := c.store.ResetInjectsFromDay(ctx, scenarioID, newDay); err != nil {
			return fmt.Errorf("simulation: seek: reset injects: %w", err)
		}
	}

	if err := c.store.UpsertSimulationState(ctx, state); err != nil {
		return fmt.Errorf("simulation: seek: persist state: %w", err)
	}

	c.emit(ctx, scenarioID, "simulation:tick", map[string]any{
		"simTime": state.SimTime.Format(time.RFC3339), "realTime": time.Now().UTC().Format(time.RFC3339),
		"ratio": state.CompressionRatio, "atoDay": state.CurrentAtoDay,
	})
	return nil
}

// replayAssetStatuses derives each asset's status purely from the event
// log up to the seek point: the latest of destroyed/jammed/degraded wins,
// absent events leave it OPERATIONAL.
func (c *Controller) replayAssetStatuses(ctx context.Context, scenarioID string, events []models.SimEvent) error {
	assets, err := c.store.ListSpaceAssetsByScenario(ctx, scenarioID)
	if err != nil {
		return fmt.Errorf("simulation: seek: list assets: %w", err)
	}
	derived := make(map[string]models.AssetStatus, len(assets))
	for _, a := range assets {
		derived[a.ID] = models.AssetOperational
	}
	for _, e := range events {
		if e.AssetID == nil {
			continue
		}
		switch e.EventType {
		case models.EventAssetDestroyed:
			derived[*e.AssetID] = models.AssetLost
		case models.EventAssetJammed, models.EventAssetDegraded:
			if derived[*e.AssetID] != models.AssetLost {
				derived[*e.AssetID] = models.AssetDegraded
			}
		}
	}
	for _, a := range assets {
		want := derived[a.ID]
		if want == a.Status {
			continue
		}
		if err := c.store.UpdateAssetStatus(ctx, a.ID, want); err != nil {
			return fmt.Errorf("simulation: seek: update asset status: %w", err)
		}
	}
	return nil
}

// replayMissionStatuses derives each mission's status from its Δh state
// machine at targetTime, then overrides with DELAYED if a MISSION_DELAYED
// event for that mission exists in the replayed log.
func (c *Controller) replayMissionStatuses(ctx context.Context, scenarioID string, targetTime time.Time, events []models.SimEvent) error {
	missions, err := c.store.ListAllMissionsByScenario(ctx, scenarioID)
	if err != nil {
		return fmt.Errorf("simulation: seek: list missions: %w", err)
	}
	fullMissions, err := c.store.ListActiveMissions(ctx, scenarioID)
	if err != nil {
		return fmt.Errorf("simulation: seek: list hydrated missions: %w", err)
	}
	totByMission := make(map[string]*models.TimeWindow, len(fullMissions))
	for i := range fullMissions {
		totByMission[fullMissions[i].ID] = fullMissions[i].TOTWindow()
	}

	delayed := map[string]bool{}
	for _, e := range events {
		if e.EventType == models.EventMissionDelayed && e.MissionID != nil {
			delayed[*e.MissionID] = true
		}
	}

	for _, m := range missions {
		var want models.MissionStatus
		if delayed[m.ID] {
			want = models.MissionDelayed
		} else if tot, ok := totByMission[m.ID]; ok && tot != nil {
			want = deriveStatusFromDeltaH(targetTime.Sub(tot.Start).Hours())
		} else {
			continue
		}
		if want == "" || want == m.Status {
			continue
		}
		if err := c.store.UpdateMissionStatus(ctx, m.ID, want); err != nil {
			return fmt.Errorf("simulation: seek: update mission status: %w", err)
		}
	}
	return nil
}

// deriveStatusFromDeltaH walks the §4.5 state table forward from PLANNED,
// returning the last state whose threshold is met.
func deriveStatusFromDeltaH(deltaH float64) models.MissionStatus {
	status := models.MissionPlanned
	for {
		next, ok := nextMissionStatus(status, deltaH)
		if !ok {
			return status
		}
		status = next
		if status == models.MissionRecovered {
			return status
		}
	}
}
