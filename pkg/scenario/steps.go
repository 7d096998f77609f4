package scenario

import (
	"context"
	"fmt"

	"github.com/neg-0/overwatch/pkg/models"
)

// runStrategicContext authors tiers 1-2 of the strategy cascade: NDS then
// NMS. Both are deleted and rewritten together since Campaign Plan's own
// step owns the tiers above them and must not disturb these.
func (g *Generator) runStrategicContext(ctx context.Context, sc *models.Scenario) error {
	if err := g.store.DeleteStrategyDocumentsByTiers(ctx, sc.ID, []models.StrategyTier{models.TierNDS, models.TierNMS}); err != nil {
		return err
	}
	if err := g.authorAndIngest(ctx, sc, "Strategic Context", "nds", ndsSystemPrompt, ndsUserPrompt(sc), "NDS"); err != nil {
		return err
	}
	return g.authorAndIngest(ctx, sc, "Strategic Context", "nms", nmsSystemPrompt, nmsUserPrompt(sc), "NMS")
}

// runCampaignPlan authors tiers 3-5: JSCP, CONPLAN, OPLAN, each ingested in
// order so the link & persist stage can chain each to the previous tier's
// document via HighestTierStrategyDocBelow.
func (g *Generator) runCampaignPlan(ctx context.Context, sc *models.Scenario) error {
	if err := g.store.DeleteStrategyDocumentsByTiers(ctx, sc.ID, []models.StrategyTier{models.TierJSCP, models.TierCONPLAN, models.TierOPLAN}); err != nil {
		return err
	}
	if err := g.authorAndIngest(ctx, sc, "Campaign Plan", "jscp", jscpSystemPrompt, jscpUserPrompt(sc), "JSCP"); err != nil {
		return err
	}
	if err := g.authorAndIngest(ctx, sc, "Campaign Plan", "conplan", conplanSystemPrompt, conplanUserPrompt(sc), "CONPLAN"); err != nil {
		return err
	}
	return g.authorAndIngest(ctx, sc, "Campaign Plan", "oplan", oplanSystemPrompt, oplanUserPrompt(sc), "OPLAN")
}

// runTheaterBases validates the theater-base reference catalog is
// available. Bases are not a persisted entity (§3 names no such type); this
// step's role is to surface a missing or empty catalog early, before the
// ORBAT and space-constellation steps that depend on the same reference
// data for prompt context.
func (g *Generator) runTheaterBases(ctx context.Context, sc *models.Scenario) error {
	if g.catalog == nil {
		return nil
	}
	if len(g.catalog.AllBases()) == 0 {
		return fmt.Errorf("theater bases: no base templates loaded in catalog")
	}
	return nil
}

// runJointForceORBAT validates the order-of-battle reference catalog the
// same way runTheaterBases validates bases. ORBAT units are reference
// context, not a persisted entity.
func (g *Generator) runJointForceORBAT(ctx context.Context, sc *models.Scenario) error {
	if g.catalog == nil {
		return nil
	}
	if len(g.catalog.AllOrbatUnits()) == 0 {
		return fmt.Errorf("joint force orbat: no orbat unit templates loaded in catalog")
	}
	return nil
}

// runSpaceConstellation seeds SpaceAssets from the constellation catalog.
// Each template expands to Count individual satellites sharing its orbital
// parameters, numbered sequentially. A template carrying a SatNo is a
// friendly asset UDL actually tracks: the first unit of that template tries
// a live element-set lookup and, if UDL answers, seeds its TLE and orbital
// fields from that instead of the template's static values. Every other
// unit of the template, and every unit when UDL is unset or the lookup
// comes back empty, falls back to the template as written.
func (g *Generator) runSpaceConstellation(ctx context.Context, sc *models.Scenario) error {
	if err := g.store.DeleteSpaceAssetsByScenario(ctx, sc.ID); err != nil {
		return err
	}
	if g.catalog == nil {
		return nil
	}

	for _, tmpl := range g.catalog.All() {
		count := tmpl.Count
		if count < 1 {
			count = 1
		}
		capabilities := make([]models.CapabilityType, len(tmpl.Capabilities))
		for i, c := range tmpl.Capabilities {
			capabilities[i] = models.CapabilityType(c)
		}
		for i := 0; i < count; i++ {
			asset := &models.SpaceAsset{
				ScenarioID:     sc.ID,
				Name:           fmt.Sprintf("%s-%02d", tmpl.Name, i+1),
				Constellation:  tmpl.Constellation,
				Affiliation:    models.AssetAffiliation(tmpl.Affiliation),
				Capabilities:   capabilities,
				SatNo:          tmpl.SatNo,
				InclinationDeg: tmpl.InclinationDeg,
				PeriodMin:      tmpl.PeriodMin,
				Eccentricity:   tmpl.Eccentricity,
				Status:         models.AssetOperational,
			}
			if i == 0 && tmpl.SatNo > 0 {
				g.fillFromUDL(ctx, asset)
			}
			if err := g.store.CreateSpaceAsset(ctx, asset); err != nil {
				return err
			}
		}
	}
	return nil
}

// fillFromUDL overwrites asset's TLE and orbital fields from a live element
// set when the lookup succeeds. A failed or empty lookup leaves asset
// exactly as the caller built it from the template.
func (g *Generator) fillFromUDL(ctx context.Context, asset *models.SpaceAsset) {
	if g.udl == nil {
		return
	}
	elset, err := g.udl.Current(ctx, asset.SatNo)
	if err != nil || elset == nil {
		return
	}
	asset.TLELine1 = elset.Line1
	asset.TLELine2 = elset.Line2
	asset.InclinationDeg = elset.InclinationDeg
	asset.PeriodMin = elset.PeriodMin
	asset.Eccentricity = elset.Eccentricity
}

// runPlanningDocuments authors the JIPTL, the one planning document type
// the ingest pipeline gives special traceability treatment (MostRecentJIPTL
// is the planning document every later tasking order links to).
func (g *Generator) runPlanningDocuments(ctx context.Context, sc *models.Scenario) error {
	if err := g.store.DeletePlanningDocumentsByType(ctx, sc.ID, models.PlanJIPTL); err != nil {
		return err
	}
	return g.authorAndIngest(ctx, sc, "Planning Documents", "jiptl", jiptlSystemPrompt, jiptlUserPrompt(sc), "JIPTL")
}

// runMAAP authors the Master Air Attack Plan, tracing to the JIPTL's
// priorities the same way JIPTL traces to the strategy cascade.
func (g *Generator) runMAAP(ctx context.Context, sc *models.Scenario) error {
	if err := g.store.DeletePlanningDocumentsByType(ctx, sc.ID, models.PlanMAAP); err != nil {
		return err
	}
	return g.authorAndIngest(ctx, sc, "MAAP", "maap", maapSystemPrompt, maapUserPrompt(sc), "MAAP")
}

// runMSELInjects authors the Master Scenario Events List, which ingest()
// explodes into one ScenarioInject per parsed entry.
func (g *Generator) runMSELInjects(ctx context.Context, sc *models.Scenario) error {
	if err := g.store.DeletePlanningDocumentsByType(ctx, sc.ID, models.PlanMSEL); err != nil {
		return err
	}
	return g.authorAndIngest(ctx, sc, "MSEL Injects", "msel", mselInjectsSystemPrompt, mselInjectsUserPrompt(sc), "MSEL")
}
