package gamemaster

import (
	"context"
	"fmt"
	"strings"

	"github.com/neg-0/overwatch/pkg/config"
	"github.com/neg-0/overwatch/pkg/models"
)

// contextPacket is the scenario context packet §4.8 requires every
// generation operation to assemble before authoring: OPLAN phase,
// priorities summary, friendly/hostile ORBAT, space assets, MAAP excerpt,
// and the previous day's mission-status summary.
type contextPacket struct {
	Scenario          *models.Scenario
	Phase             string
	PrioritiesSummary string
	ORBATSummary      string
	SpaceAssetSummary string
	MAAPExcerpt       string
	PrevDaySummary    string
}

// buildContext assembles the context packet for generation operations
// targeting atoDay. Every read is best-effort: a missing upstream document
// (e.g. no JIPTL yet authored) degrades the summary rather than failing
// the operation outright.
func (gm *GameMaster) buildContext(ctx context.Context, scenarioID string, atoDay int) (*contextPacket, error) {
	sc, found, err := gm.store.GetScenario(ctx, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("gamemaster: get scenario: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("gamemaster: scenario %s not found", scenarioID)
	}

	pc := &contextPacket{
		Scenario: sc,
		Phase:    atoDayPhase(atoDay),
	}

	if jiptl, found, err := gm.store.LatestPlanningDocumentByType(ctx, scenarioID, models.PlanJIPTL); err == nil && found {
		entries, err := gm.store.PlanningDocumentPriorities(ctx, jiptl.ID)
		if err == nil {
			pc.PrioritiesSummary = summarizePriorities(entries)
		}
	}

	if gm.catalog != nil {
		pc.ORBATSummary = summarizeORBAT(gm.catalog.AllOrbatUnits())
	}

	if assets, err := gm.store.ListSpaceAssetsByScenario(ctx, scenarioID); err == nil {
		pc.SpaceAssetSummary = summarizeSpaceAssets(assets)
	}

	if maap, found, err := gm.store.LatestPlanningDocumentByType(ctx, scenarioID, models.PlanMAAP); err == nil && found {
		pc.MAAPExcerpt = truncate(maap.Content, 1200)
	}

	if atoDay > 1 {
		if counts, err := gm.store.MissionStatusCounts(ctx, scenarioID, atoDay-1); err == nil {
			pc.PrevDaySummary = summarizeMissionCounts(counts)
		}
	}

	return pc, nil
}

func summarizePriorities(entries []models.PriorityEntry) string {
	if len(entries) == 0 {
		return "no standing priorities on file"
	}
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%d. %s - %s\n", e.Rank, e.Effect, e.Description)
	}
	return b.String()
}

func summarizeORBAT(units []config.OrbatUnitTemplate) string {
	if len(units) == 0 {
		return "no ORBAT reference data loaded"
	}
	var b strings.Builder
	for _, u := range units {
		fmt.Fprintf(&b, "%s (%s, %s) - %s at %s\n", u.Name, u.Affiliation, u.Domain, u.PlatformType, u.HomeBase)
	}
	return b.String()
}

func summarizeSpaceAssets(assets []models.SpaceAsset) string {
	if len(assets) == 0 {
		return "no space assets on orbit"
	}
	var b strings.Builder
	for _, a := range assets {
		caps := make([]string, len(a.Capabilities))
		for i, c := range a.Capabilities {
			caps[i] = string(c)
		}
		fmt.Fprintf(&b, "%s (%s, %s) capabilities: %s\n", a.Name, a.Affiliation, a.Status, strings.Join(caps, ", "))
	}
	return b.String()
}

func summarizeMissionCounts(counts map[models.MissionStatus]int) string {
	if len(counts) == 0 {
		return "no missions tasked the previous day"
	}
	var b strings.Builder
	for status, n := range counts {
		fmt.Fprintf(&b, "%s: %d\n", status, n)
	}
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
