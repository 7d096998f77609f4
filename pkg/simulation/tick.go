package simulation

import (
	"context"
	"fmt"
	"time"

	"github.com/neg-0/overwatch/pkg/allocator"
	"github.com/neg-0/overwatch/pkg/metrics"
	"github.com/neg-0/overwatch/pkg/models"
)

// loop owns one run's two periodic timers until the run's context is
// cancelled by Stop.
func (c *Controller) loop(ctx context.Context, r *run) {
	defer close(r.done)

	tickTimer := time.NewTicker(c.cfg.tickInterval())
	posTimer := time.NewTicker(c.cfg.positionInterval())
	defer tickTimer.Stop()
	defer posTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tickTimer.C:
			c.tick(ctx, r)
		case <-posTimer.C:
			c.positionIteration(ctx, r)
		}
	}
}

// tick advances the simulation clock one step and runs the ordered §5
// tick body. Every suspension point re-checks activeRun before mutating
// further, so a concurrent Stop or scenario deletion aborts cleanly.
func (c *Controller) tick(ctx context.Context, r *run) {
	if c.activeRun(r.scenarioID) == nil {
		return
	}

	scenario, found, err := c.store.GetScenario(ctx, r.scenarioID)
	if err != nil || !found {
		if err != nil && !isNotFound(err) {
			c.log.Warn("simulation: tick: load scenario", "error", err)
		}
		return
	}

	state, found, err := c.store.GetSimulationState(ctx, r.scenarioID)
	if err != nil || !found || state.Status != models.SimRunning {
		return
	}

	metrics.Tick(r.scenarioID)

	// (i) advance simTime, unless a day-boundary generation is already
	// in flight, in which case the clock is logically paused.
	if !state.IsGenerating {
		elapsed := c.cfg.tickInterval().Seconds() * state.CompressionRatio
		state.SimTime = state.SimTime.Add(time.Duration(elapsed * float64(time.Second)))
	}

	// (ii) recompute atoDay
	state.CurrentAtoDay = atoDayFor(scenario, state.SimTime)

	if err := c.store.UpsertSimulationState(ctx, state); err != nil {
		c.log.Warn("simulation: tick: persist state", "error", err)
		return
	}

	if c.activeRun(r.scenarioID) == nil {
		return
	}

	// (iii) day-boundary check & generation
	bdaRan := false
	if state.CurrentAtoDay > state.LastAtoDayGen && !state.IsGenerating {
		bdaRan = c.runDayBoundary(ctx, r.scenarioID, state)
		// runDayBoundary persists its own state updates; reload.
		refreshed, found, err := c.store.GetSimulationState(ctx, r.scenarioID)
		if err == nil && found {
			state = refreshed
		}
	}

	if c.activeRun(r.scenarioID) == nil {
		return
	}

	// (iv) broadcast tick
	c.emit(ctx, r.scenarioID, "simulation:tick", map[string]any{
		"simTime":  state.SimTime.Format(time.RFC3339),
		"realTime": time.Now().UTC().Format(time.RFC3339),
		"ratio":    state.CompressionRatio,
		"atoDay":   state.CurrentAtoDay,
	})

	if state.IsGenerating {
		return
	}

	// (v) mission-status advance
	c.advanceMissions(ctx, r, state)

	if c.activeRun(r.scenarioID) == nil {
		return
	}

	// (vi) MSEL firing
	c.fireInjects(ctx, r, state)

	if c.activeRun(r.scenarioID) == nil {
		return
	}

	// (vii) BDA recording — only meaningful the tick a day-boundary cycle
	// just authored one.
	if bdaRan {
		c.store.CreateSimEvent(ctx, &models.SimEvent{
			ScenarioID: r.scenarioID,
			Time:       state.SimTime,
			EventType:  models.EventBDARecorded,
			Detail:     map[string]any{"atoDay": state.CurrentAtoDay - 1},
		})
	}
}

// advanceMissions runs the Δh state-machine transition table for every
// active mission. One mission's failure never halts the pass.
func (c *Controller) advanceMissions(ctx context.Context, r *run, state *models.SimulationState) {
	missions, err := c.store.ListActiveMissions(ctx, r.scenarioID)
	if err != nil {
		if !isNotFound(err) {
			c.log.Warn("simulation: advance missions: list", "error", err)
		}
		return
	}

	for i := range missions {
		if c.activeRun(r.scenarioID) == nil {
			return
		}
		m := &missions[i]
		tot := m.TOTWindow()
		if tot == nil {
			continue
		}
		deltaH := state.SimTime.Sub(tot.Start).Hours()
		next, ok := nextMissionStatus(m.Status, deltaH)
		if !ok {
			continue
		}
		if err := c.store.UpdateMissionStatus(ctx, m.ID, next); err != nil {
			c.log.Warn("simulation: advance mission", "mission", m.ID, "error", err)
			continue
		}
		metrics.MissionTransition(r.scenarioID, string(next))
		c.emit(ctx, r.scenarioID, "mission:status", map[string]any{
			"missionId": m.ID, "status": string(next), "timestamp": state.SimTime.Format(time.RFC3339),
		})
	}
}

// nextMissionStatus applies the §4.5 state-machine table for one step;
// it never skips states even if Δh has advanced past several thresholds
// in one tick, so downstream consumers see every transition.
func nextMissionStatus(status models.MissionStatus, deltaH float64) (models.MissionStatus, bool) {
	switch status {
	case models.MissionPlanned:
		if deltaH >= -4 {
			return models.MissionBriefed, true
		}
	case models.MissionBriefed:
		if deltaH >= -2 {
			return models.MissionLaunched, true
		}
	case models.MissionLaunched:
		if deltaH >= -1.5 {
			return models.MissionAirborne, true
		}
	case models.MissionAirborne:
		if deltaH >= -0.5 {
			return models.MissionOnStation, true
		}
	case models.MissionOnStation:
		if deltaH >= 0 {
			return models.MissionEngaged, true
		}
	case models.MissionEngaged:
		if deltaH >= 0.25 {
			return models.MissionEgressing, true
		}
	case models.MissionEgressing:
		if deltaH >= 1 {
			return models.MissionRTB, true
		}
	case models.MissionRTB:
		if deltaH >= 3 {
			return models.MissionRecovered, true
		}
	}
	return "", false
}

// fireInjects selects and applies every due MSEL inject per §4.5.
func (c *Controller) fireInjects(ctx context.Context, r *run, state *models.SimulationState) {
	due, err := c.store.InjectsToFire(ctx, r.scenarioID, state.CurrentAtoDay, state.SimTime.UTC().Hour())
	if err != nil {
		if !isNotFound(err) {
			c.log.Warn("simulation: fire injects: list", "error", err)
		}
		return
	}
	for _, in := range due {
		if c.activeRun(r.scenarioID) == nil {
			return
		}
		c.applyInject(ctx, r, state, in)
	}
}

func (c *Controller) applyInject(ctx context.Context, r *run, state *models.SimulationState, in models.ScenarioInject) {
	switch in.InjectType {
	case models.InjectSpace:
		if asset, found, err := c.store.RandomOperationalAsset(ctx, r.scenarioID); err == nil && found {
			if err := c.store.UpdateAssetStatus(ctx, asset.ID, models.AssetDegraded); err == nil {
				c.store.CreateSimEvent(ctx, &models.SimEvent{
					ScenarioID: r.scenarioID, Time: state.SimTime, EventType: models.EventAssetJammed,
					AssetID: &asset.ID, Detail: map[string]any{"injectId": in.ID},
				})
			}
		}
	case models.InjectFriction:
		if mission, found, err := c.store.RandomActiveMission(ctx, r.scenarioID); err == nil && found {
			if err := c.store.UpdateMissionStatus(ctx, mission.ID, models.MissionDelayed); err == nil {
				c.store.CreateSimEvent(ctx, &models.SimEvent{
					ScenarioID: r.scenarioID, Time: state.SimTime, EventType: models.EventMissionDelayed,
					MissionID: &mission.ID, Detail: map[string]any{"injectId": in.ID},
				})
			}
		}
	default:
		c.store.CreateSimEvent(ctx, &models.SimEvent{
			ScenarioID: r.scenarioID, Time: state.SimTime, EventType: models.EventInformational,
			Detail: map[string]any{"injectId": in.ID, "injectType": string(in.InjectType)},
		})
	}

	if err := c.store.MarkInjectFired(ctx, in.ID, state.SimTime); err != nil {
		c.log.Warn("simulation: mark inject fired", "inject", in.ID, "error", err)
		return
	}
	metrics.InjectFired(r.scenarioID, string(in.InjectType))
	c.emit(ctx, r.scenarioID, "inject:fired", map[string]any{
		"injectId": in.ID, "injectType": string(in.InjectType), "title": in.Title, "description": in.Description,
		"impact": in.Impact, "triggerDay": in.TriggerDay, "triggerHour": in.TriggerHour,
		"firedAt": state.SimTime.Format(time.RFC3339),
	})
}

// runDayBoundary runs the §4.5 Game Master closed loop: BDA for the prior
// day (non-fatal on failure), ATO for the new day, then space allocation.
// It returns whether a BDA narrative was authored this cycle. The sim
// clock is logically paused for its duration via isGenerating.
func (c *Controller) runDayBoundary(ctx context.Context, scenarioID string, state *models.SimulationState) bool {
	state.IsGenerating = true
	if err := c.store.UpsertSimulationState(ctx, state); err != nil {
		c.log.Warn("simulation: day boundary: set generating", "error", err)
		return false
	}

	bdaRan := false
	defer func() {
		state.IsGenerating = false
		if err := c.store.UpsertSimulationState(ctx, state); err != nil {
			c.log.Warn("simulation: day boundary: clear generating", "error", err)
		}
		c.emit(ctx, scenarioID, "gamemaster:day-boundary-complete", map[string]any{
			"scenarioId": scenarioID, "atoDay": state.CurrentAtoDay,
		})
	}()

	priorDay := state.CurrentAtoDay - 1
	if c.gm != nil && priorDay >= 1 && state.LastAtoDayGen < priorDay {
		if err := c.gm.AssessBDA(ctx, scenarioID, priorDay); err != nil {
			c.log.Warn("simulation: day boundary: BDA failed, continuing", "day", priorDay, "error", err)
		} else {
			bdaRan = true
		}
	}

	orderSource := "game-master"
	if c.gm == nil {
		orderSource = "fallback"
	} else if err := c.gm.GenerateATO(ctx, scenarioID, state.CurrentAtoDay); err != nil {
		c.log.Warn("simulation: day boundary: ATO failed, seeding fallback order", "day", state.CurrentAtoDay, "error", err)
		orderSource = "fallback"
		if err := c.seedFallbackOrder(ctx, scenarioID, state.CurrentAtoDay); err != nil {
			c.log.Warn("simulation: day boundary: fallback order seed failed", "error", err)
		}
	}

	c.runAllocation(ctx, scenarioID, state.CurrentAtoDay)

	state.LastAtoDayGen = state.CurrentAtoDay
	c.emit(ctx, scenarioID, "order:published", map[string]any{
		"orderType": string(models.OrderATO), "day": state.CurrentAtoDay, "source": orderSource,
	})
	return bdaRan
}

// seedFallbackOrder creates an empty ATO shell for the day when the Game
// Master's LLM-authored order failed, so the day-boundary counters still
// advance deterministically.
func (c *Controller) seedFallbackOrder(ctx context.Context, scenarioID string, atoDay int) error {
	order := &models.TaskingOrder{
		ScenarioID:   scenarioID,
		OrderType:    models.OrderATO,
		AtoDayNumber: atoDay,
	}
	if err := c.store.CreateTaskingOrder(ctx, order); err != nil {
		return fmt.Errorf("simulation: seed fallback order: %w", err)
	}
	return nil
}

// runAllocation runs the space allocator over the day's missions and
// already-materialized coverage windows. Allocation results are
// informational at this stage (persisted coverage windows and fulfilled
// flags are the durable record); failures are logged and non-fatal.
func (c *Controller) runAllocation(ctx context.Context, scenarioID string, atoDay int) {
	records, err := c.store.ListMissionsByAtoDay(ctx, scenarioID, atoDay)
	if err != nil {
		if !isNotFound(err) {
			c.log.Warn("simulation: run allocation: list missions", "error", err)
		}
		return
	}
	assets, err := c.store.ListSpaceAssetsByScenario(ctx, scenarioID)
	if err != nil {
		c.log.Warn("simulation: run allocation: list assets", "error", err)
		return
	}
	windows, err := c.store.ListCoverageWindowsByScenario(ctx, scenarioID)
	if err != nil {
		c.log.Warn("simulation: run allocation: list coverage windows", "error", err)
		return
	}

	assetPtrs := make([]*models.SpaceAsset, len(assets))
	for i := range assets {
		assetPtrs[i] = &assets[i]
	}

	var needs []allocator.NeedInput
	for _, r := range records {
		for _, need := range r.Mission.SpaceNeeds {
			needs = append(needs, allocator.NeedInput{Need: need, PackagePriorityRank: r.PackagePriorityRank})
		}
	}
	if len(needs) == 0 {
		return
	}

	result := allocator.Allocate(needs, assetPtrs, windows)
	c.emit(ctx, scenarioID, "allocation:summary", map[string]any{
		"scenarioId": scenarioID, "day": atoDay, "totalNeeds": result.Summary.TotalNeeds,
		"fulfilled": result.Summary.Fulfilled, "degraded": result.Summary.Degraded,
		"denied": result.Summary.Denied, "contention": result.Summary.Contention,
		"riskLevel": string(result.Summary.RiskLevel),
	})
}
