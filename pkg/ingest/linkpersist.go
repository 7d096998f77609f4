package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/neg-0/overwatch/pkg/models"
)

// linkAndPersist implements step 3 of the pipeline: branch on hierarchy
// level, materialize the entities the normalize stage extracted, and link
// each new document into the cascade it belongs under.
func (p *Pipeline) linkAndPersist(ctx context.Context, scenarioID string, classification Classification, normalizedJSON string) (parentLinkID string, entitiesCreated int, reviewFlags int, err error) {
	switch classification.HierarchyLevel {
	case models.HierarchyStrategy:
		return p.persistStrategy(ctx, scenarioID, classification, normalizedJSON)
	case models.HierarchyPlanning:
		return p.persistPlanning(ctx, scenarioID, classification, normalizedJSON)
	case models.HierarchyOrder:
		return p.persistOrder(ctx, scenarioID, classification, normalizedJSON)
	case models.HierarchyEventList:
		return p.persistEventList(ctx, scenarioID, classification, normalizedJSON)
	default:
		return "", 0, 0, fmt.Errorf("ingest: unrecognized hierarchy level %q", classification.HierarchyLevel)
	}
}

type strategyNormalized struct {
	AuthorityLevel string  `json:"authorityLevel"`
	EffectiveDate  *string `json:"effectiveDate"`
	Priorities     []struct {
		Rank        int    `json:"rank"`
		Objective   string `json:"objective"`
		Description string `json:"description"`
	} `json:"priorities"`
}

// persistStrategy links a strategy document into the cascade by tier: its
// parent is the highest-tier existing document with a tier strictly below
// its own (a JSCP's parent is the most recent NMS, never another JSCP).
func (p *Pipeline) persistStrategy(ctx context.Context, scenarioID string, classification Classification, normalizedJSON string) (string, int, int, error) {
	var n strategyNormalized
	if err := json.Unmarshal([]byte(normalizedJSON), &n); err != nil {
		return "", 0, 0, fmt.Errorf("ingest: strategy normalize not valid JSON: %w", err)
	}

	docType := models.StrategyDocType(classification.DocumentType)
	tier, ok := models.TierForStrategyDocType(docType)
	if !ok {
		return "", 0, 0, fmt.Errorf("ingest: unrecognized strategy document type %q", classification.DocumentType)
	}

	effectiveDate := time.Now().UTC()
	if n.EffectiveDate != nil {
		if parsed, err := time.Parse("2006-01-02", *n.EffectiveDate); err == nil {
			effectiveDate = parsed
		}
	}

	doc := &models.StrategyDocument{
		ID:             fmt.Sprintf("strat-%d", time.Now().UnixNano()),
		ScenarioID:     scenarioID,
		Tier:           tier,
		DocType:        docType,
		AuthorityLevel: n.AuthorityLevel,
		Title:          classification.Title,
		Content:        classification.IssuingAuthority,
		EffectiveDate:  effectiveDate,
	}

	if parent, found, err := p.store.HighestTierStrategyDocBelow(ctx, scenarioID, tier); err == nil && found {
		doc.ParentDocID = &parent.ID
	}

	priorities := make([]models.StrategyPriority, 0, len(n.Priorities))
	for _, pr := range n.Priorities {
		priorities = append(priorities, models.StrategyPriority{
			Rank:        pr.Rank,
			Objective:   pr.Objective,
			Description: pr.Description,
		})
	}
	doc.Priorities = priorities

	if err := p.store.CreateStrategyDocument(ctx, doc); err != nil {
		return "", 0, 0, err
	}

	created := 1 + len(priorities)

	parentLink := ""
	if doc.ParentDocID != nil {
		parentLink = *doc.ParentDocID
	}
	return parentLink, created, 0, nil
}

type planningNormalized struct {
	Priorities []struct {
		Rank        int    `json:"rank"`
		Effect      string `json:"effect"`
		Description string `json:"description"`
	} `json:"priorities"`
}

// persistPlanning links a planning document to the highest-tier strategy
// document, then traces each priority entry back to a strategy priority by
// keyword overlap (§4.6's 0.15 threshold).
func (p *Pipeline) persistPlanning(ctx context.Context, scenarioID string, classification Classification, normalizedJSON string) (string, int, int, error) {
	var n planningNormalized
	if err := json.Unmarshal([]byte(normalizedJSON), &n); err != nil {
		return "", 0, 0, fmt.Errorf("ingest: planning normalize not valid JSON: %w", err)
	}

	doc := &models.PlanningDocument{
		ID:         fmt.Sprintf("plan-%d", time.Now().UnixNano()),
		ScenarioID: scenarioID,
		DocType:    models.PlanningDocType(classification.DocumentType),
		Title:      classification.Title,
		Content:    classification.IssuingAuthority,
		CreatedAt:  time.Now().UTC(),
	}

	var candidates []models.StrategyPriority
	if strategyDoc, found, err := p.store.HighestTierStrategyDoc(ctx, scenarioID); err == nil && found {
		doc.StrategyDocID = &strategyDoc.ID
		if prios, err := p.store.StrategyPriorities(ctx, strategyDoc.ID); err == nil {
			candidates = prios
		}
	}

	reviewFlags := 0
	entries := make([]models.PriorityEntry, 0, len(n.Priorities))
	for _, pr := range n.Priorities {
		entry := models.PriorityEntry{
			PlanningDocID: doc.ID,
			Rank:          pr.Rank,
			Effect:        pr.Effect,
			Description:   pr.Description,
		}
		if match, ok := BestMatchingPriority(pr.Effect+" "+pr.Description, candidates); ok {
			id := match.ID
			entry.StrategyPriorityID = &id
		} else {
			reviewFlags++
		}
		entries = append(entries, entry)
	}
	doc.Priorities = entries

	if err := p.store.CreatePlanningDocument(ctx, doc); err != nil {
		return "", 0, 0, err
	}

	parentLink := ""
	if doc.StrategyDocID != nil {
		parentLink = *doc.StrategyDocID
	}
	return parentLink, 1 + len(entries), reviewFlags, nil
}

type orderNormalized struct {
	OrderType      string                  `json:"orderType"`
	AtoDayNumber   int                     `json:"atoDayNumber"`
	EffectiveStart *string                 `json:"effectiveStart"`
	EffectiveEnd   *string                 `json:"effectiveEnd"`
	Packages       []orderPackageNormalized `json:"packages"`
}

type orderPackageNormalized struct {
	PackageID     string                 `json:"packageId"`
	PriorityRank  int                    `json:"priorityRank"`
	MissionType   string                 `json:"missionType"`
	EffectDesired string                 `json:"effectDesired"`
	Missions      []orderMissionNormalized `json:"missions"`
}

type orderMissionNormalized struct {
	MissionID           string                     `json:"missionId"`
	Callsign            string                     `json:"callsign"`
	Domain              string                     `json:"domain"`
	PlatformType        string                     `json:"platformType"`
	PlatformCount       int                        `json:"platformCount"`
	MissionType         string                     `json:"missionType"`
	Affiliation         string                     `json:"affiliation"`
	Waypoints           []orderWaypointNormalized  `json:"waypoints"`
	TimeWindows         []orderWindowNormalized    `json:"timeWindows"`
	Targets             []orderTargetNormalized    `json:"targets"`
	SupportRequirements []orderSupportNormalized   `json:"supportRequirements"`
	SpaceNeeds          []orderSpaceNeedNormalized `json:"spaceNeeds"`
}

type orderWaypointNormalized struct {
	Sequence     int      `json:"sequence"`
	WaypointType string   `json:"waypointType"`
	Lat          float64  `json:"lat"`
	Lon          float64  `json:"lon"`
	AltitudeFt   *float64 `json:"altitudeFt"`
	SpeedKts     *float64 `json:"speedKts"`
}

type orderWindowNormalized struct {
	WindowType string `json:"windowType"`
	Start      string `json:"start"`
	End        string `json:"end"`
}

type orderTargetNormalized struct {
	Name       string  `json:"name"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	TargetType string  `json:"targetType"`
}

type orderSupportNormalized struct {
	SupportType string `json:"supportType"`
	Description string `json:"description"`
}

type orderSpaceNeedNormalized struct {
	CapabilityType     string   `json:"capabilityType"`
	PriorityRank       int      `json:"priorityRank"`
	StartTime          string   `json:"startTime"`
	EndTime            string   `json:"endTime"`
	CoverageLat        *float64 `json:"coverageLat"`
	CoverageLon        *float64 `json:"coverageLon"`
	FallbackCapability *string  `json:"fallbackCapability"`
	MissionCriticality string   `json:"missionCriticality"`
}

// persistOrder links a tasking order to the most recent JIPTL (the only
// planning document type an order traces back to), then materializes its
// full package/mission/waypoint/window/target/support/space-need tree,
// coercing every free-text enum field through enumnorm along the way.
func (p *Pipeline) persistOrder(ctx context.Context, scenarioID string, classification Classification, normalizedJSON string) (string, int, int, error) {
	var n orderNormalized
	if err := json.Unmarshal([]byte(normalizedJSON), &n); err != nil {
		return "", 0, 0, fmt.Errorf("ingest: order normalize not valid JSON: %w", err)
	}

	order := &models.TaskingOrder{
		ID:             fmt.Sprintf("order-%d", time.Now().UnixNano()),
		ScenarioID:     scenarioID,
		OrderType:      models.OrderType(n.OrderType),
		AtoDayNumber:   n.AtoDayNumber,
		EffectiveStart: parseTimeOrZero(n.EffectiveStart),
		EffectiveEnd:   parseTimeOrZero(n.EffectiveEnd),
	}

	var parentLink string
	if jiptl, found, err := p.store.MostRecentJIPTL(ctx, scenarioID); err == nil && found {
		order.PlanningDocID = &jiptl.ID
		parentLink = jiptl.ID
	}

	entities := 1
	reviewFlags := 0

	for _, pkgN := range n.Packages {
		pkg := models.MissionPackage{
			TaskingOrderID: order.ID,
			PackageID:      pkgN.PackageID,
			PriorityRank:   pkgN.PriorityRank,
			MissionType:    pkgN.MissionType,
			EffectDesired:  pkgN.EffectDesired,
		}
		entities++

		for _, mN := range pkgN.Missions {
			mission := models.Mission{
				MissionID:     mN.MissionID,
				Callsign:      mN.Callsign,
				Domain:        models.Domain(mN.Domain),
				PlatformType:  mN.PlatformType,
				PlatformCount: mN.PlatformCount,
				MissionType:   mN.MissionType,
				Status:        models.MissionPlanned,
				Affiliation:   mN.Affiliation,
			}
			entities++

			for _, wN := range mN.Waypoints {
				norm := NormalizeWaypointType(wN.WaypointType)
				if norm.ReviewFlag {
					reviewFlags++
				}
				mission.Waypoints = append(mission.Waypoints, models.Waypoint{
					Sequence:     wN.Sequence,
					WaypointType: models.WaypointType(norm.Value),
					Lat:          wN.Lat,
					Lon:          wN.Lon,
					AltitudeFt:   wN.AltitudeFt,
					SpeedKts:     wN.SpeedKts,
				})
				entities++
			}

			for _, twN := range mN.TimeWindows {
				norm := NormalizeWindowType(twN.WindowType)
				if norm.ReviewFlag {
					reviewFlags++
				}
				mission.TimeWindows = append(mission.TimeWindows, models.TimeWindow{
					WindowType: models.WindowType(norm.Value),
					Start:      parseTimeOrZero(&twN.Start),
					End:        parseTimeOrZero(&twN.End),
				})
				entities++
			}

			for _, tN := range mN.Targets {
				mission.Targets = append(mission.Targets, models.MissionTarget{
					Name:       tN.Name,
					Lat:        tN.Lat,
					Lon:        tN.Lon,
					TargetType: tN.TargetType,
				})
				entities++
			}

			for _, sN := range mN.SupportRequirements {
				norm := NormalizeSupportType(sN.SupportType)
				if norm.ReviewFlag {
					reviewFlags++
				}
				mission.SupportRequirements = append(mission.SupportRequirements, models.SupportRequirement{
					SupportType: models.SupportType(norm.Value),
					Description: sN.Description,
				})
				entities++
			}

			for _, spN := range mN.SpaceNeeds {
				capNorm := NormalizeCapabilityType(spN.CapabilityType)
				if capNorm.ReviewFlag {
					reviewFlags++
				}
				need := models.SpaceNeed{
					CapabilityType:     models.CapabilityType(capNorm.Value),
					PriorityRank:       spN.PriorityRank,
					StartTime:          parseTimeOrZero(&spN.StartTime),
					EndTime:            parseTimeOrZero(&spN.EndTime),
					CoverageLat:        spN.CoverageLat,
					CoverageLon:        spN.CoverageLon,
					MissionCriticality: models.Criticality(spN.MissionCriticality),
				}
				if spN.FallbackCapability != nil {
					fbNorm := NormalizeCapabilityType(*spN.FallbackCapability)
					fb := models.CapabilityType(fbNorm.Value)
					need.FallbackCapability = &fb
				}
				mission.SpaceNeeds = append(mission.SpaceNeeds, need)
				entities++
			}

			pkg.Missions = append(pkg.Missions, mission)
		}

		order.Packages = append(order.Packages, pkg)
	}

	if err := p.store.CreateTaskingOrder(ctx, order); err != nil {
		return "", 0, 0, err
	}
	return parentLink, entities, reviewFlags, nil
}

type eventListNormalized struct {
	Injects []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Impact      string `json:"impact"`
		DTG         string `json:"dtg"`
		InjectType  string `json:"injectType"`
	} `json:"injects"`
}

// persistEventList materializes an MSEL as a PlanningDocument (doc type
// MSEL) owning one ScenarioInject per parsed inject; each inject's DTG is
// resolved to (triggerDay, triggerHour) relative to the scenario's start.
func (p *Pipeline) persistEventList(ctx context.Context, scenarioID string, classification Classification, normalizedJSON string) (string, int, int, error) {
	var n eventListNormalized
	if err := json.Unmarshal([]byte(normalizedJSON), &n); err != nil {
		return "", 0, 0, fmt.Errorf("ingest: event list normalize not valid JSON: %w", err)
	}

	doc := &models.PlanningDocument{
		ID:         fmt.Sprintf("msel-%d", time.Now().UnixNano()),
		ScenarioID: scenarioID,
		DocType:    models.PlanMSEL,
		Title:      classification.Title,
		CreatedAt:  time.Now().UTC(),
	}
	if err := p.store.CreatePlanningDocument(ctx, doc); err != nil {
		return "", 0, 0, err
	}

	scenarioStart, err := p.store.ScenarioStart(ctx, scenarioID)
	if err != nil {
		return "", 0, 0, fmt.Errorf("ingest: cannot resolve scenario start: %w", err)
	}

	entities := 1
	reviewFlags := 0
	for _, inj := range n.Injects {
		day, hour, err := ParseDTG(inj.DTG, scenarioStart)
		if err != nil {
			reviewFlags++
			continue
		}
		injectType := models.InjectType(inj.InjectType)
		scenarioInject := &models.ScenarioInject{
			ID:            fmt.Sprintf("inj-%d", time.Now().UnixNano()),
			ScenarioID:    scenarioID,
			PlanningDocID: doc.ID,
			Title:         inj.Title,
			Description:   inj.Description,
			Impact:        inj.Impact,
			TriggerDay:    day,
			TriggerHour:   hour,
			InjectType:    injectType,
		}
		if err := p.store.CreateScenarioInject(ctx, scenarioInject); err != nil {
			return "", 0, 0, err
		}
		entities++
	}

	return doc.ID, entities, reviewFlags, nil
}

func parseTimeOrZero(s *string) time.Time {
	if s == nil || *s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, *s); err == nil {
		return t
	}
	return time.Time{}
}
