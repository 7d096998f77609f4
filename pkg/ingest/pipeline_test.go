package ingest

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/neg-0/overwatch/pkg/models"
	"github.com/neg-0/overwatch/pkg/retrylog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedGenerator struct {
	responses []string
	calls     int
}

func (g *scriptedGenerator) Generate(ctx context.Context, req retrylog.GenerateRequest) (retrylog.GenerateResponse, error) {
	resp := g.responses[g.calls]
	g.calls++
	return retrylog.GenerateResponse{Content: resp, PromptTokens: 10, OutputTokens: len(resp)}, nil
}

type fakeStore struct {
	highestTier   *models.StrategyDocument
	priorities    []models.StrategyPriority
	jiptl         *models.PlanningDocument
	scenarioStart time.Time

	strategyDocs []*models.StrategyDocument
	planningDocs []*models.PlanningDocument
	orders       []*models.TaskingOrder
	injects      []*models.ScenarioInject
	logs         []*models.IngestLog
}

func (s *fakeStore) HighestTierStrategyDocBelow(ctx context.Context, scenarioID string, tier models.StrategyTier) (*models.StrategyDocument, bool, error) {
	if s.highestTier == nil || s.highestTier.Tier >= tier {
		return nil, false, nil
	}
	return s.highestTier, true, nil
}

func (s *fakeStore) HighestTierStrategyDoc(ctx context.Context, scenarioID string) (*models.StrategyDocument, bool, error) {
	if s.highestTier == nil {
		return nil, false, nil
	}
	return s.highestTier, true, nil
}

func (s *fakeStore) CreateStrategyDocument(ctx context.Context, doc *models.StrategyDocument) error {
	s.strategyDocs = append(s.strategyDocs, doc)
	return nil
}

func (s *fakeStore) StrategyPriorities(ctx context.Context, strategyDocID string) ([]models.StrategyPriority, error) {
	return s.priorities, nil
}

func (s *fakeStore) MostRecentJIPTL(ctx context.Context, scenarioID string) (*models.PlanningDocument, bool, error) {
	if s.jiptl == nil {
		return nil, false, nil
	}
	return s.jiptl, true, nil
}

func (s *fakeStore) CreatePlanningDocument(ctx context.Context, doc *models.PlanningDocument) error {
	s.planningDocs = append(s.planningDocs, doc)
	return nil
}

func (s *fakeStore) CreateTaskingOrder(ctx context.Context, order *models.TaskingOrder) error {
	s.orders = append(s.orders, order)
	return nil
}

func (s *fakeStore) CreateScenarioInject(ctx context.Context, inject *models.ScenarioInject) error {
	s.injects = append(s.injects, inject)
	return nil
}

func (s *fakeStore) CreateIngestLog(ctx context.Context, log *models.IngestLog) error {
	s.logs = append(s.logs, log)
	return nil
}

func (s *fakeStore) ScenarioStart(ctx context.Context, scenarioID string) (time.Time, error) {
	return s.scenarioStart, nil
}

type fakeBroadcaster struct {
	events []string
}

func (b *fakeBroadcaster) EmitIngestEvent(ctx context.Context, scenarioID, event string, payload map[string]any) error {
	b.events = append(b.events, event)
	return nil
}

func classificationJSON(level models.IngestHierarchyLevel, docType, title string) string {
	c := Classification{
		HierarchyLevel:   level,
		DocumentType:     docType,
		SourceFormat:     "TEXT",
		Confidence:       0.95,
		Title:            title,
		IssuingAuthority: "OSD",
		EffectiveDateStr: "2026-01-01",
	}
	b, _ := json.Marshal(c)
	return string(b)
}

func TestIngest_StrategyMemoClassifiesAsNDSWithNoParent(t *testing.T) {
	classify := classificationJSON(models.HierarchyStrategy, "NDS", "National Defense Strategy 2026")
	normalize := `{"authorityLevel":"SECDEF","effectiveDate":"2026-01-01","priorities":[
		{"rank":1,"objective":"Deter strategic aggression","description":"Maintain credible deterrence"}
	]}`

	gen := &scriptedGenerator{responses: []string{classify, normalize}}
	store := &fakeStore{scenarioStart: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	bcast := &fakeBroadcaster{}
	p := New(gen, store, bcast, Config{FastModel: "fast", MidModel: "mid"})

	res, err := p.Ingest(context.Background(), "scn-1", "MEMORANDUM FOR THE RECORD: this establishes the NDS.", "NDS")
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, models.HierarchyStrategy, res.Classification.HierarchyLevel)
	assert.Equal(t, "NDS", res.Classification.DocumentType)
	assert.Empty(t, res.ParentLinkID)
	require.Len(t, store.strategyDocs, 1)
	assert.Equal(t, models.TierNDS, store.strategyDocs[0].Tier)
	assert.Equal(t, []string{"ingest:started", "ingest:classified", "ingest:normalized", "ingest:complete"}, bcast.events)
}

func TestIngest_StrategyDocLinksToHighestLowerTierParent(t *testing.T) {
	classify := classificationJSON(models.HierarchyStrategy, "JSCP", "Joint Strategic Capabilities Plan")
	normalize := `{"authorityLevel":"Chairman of the Joint Chiefs of Staff","effectiveDate":"2026-01-01","priorities":[]}`

	gen := &scriptedGenerator{responses: []string{classify, normalize}}
	store := &fakeStore{
		highestTier:   &models.StrategyDocument{ID: "nms-1", Tier: models.TierNMS, DocType: models.DocNMS},
		scenarioStart: time.Now(),
	}
	p := New(gen, store, &fakeBroadcaster{}, Config{FastModel: "fast", MidModel: "mid"})

	res, err := p.Ingest(context.Background(), "scn-1", "raw jscp text", "")
	require.NoError(t, err)
	assert.Equal(t, "nms-1", res.ParentLinkID)
}

func TestIngest_OrderCoercesFreeTextEnumsAndCountsReviewFlags(t *testing.T) {
	classify := classificationJSON(models.HierarchyOrder, "ATO", "Air Tasking Order Day 3")
	normalize := `{
		"orderType":"ATO","atoDayNumber":3,
		"effectiveStart":"2026-01-03T00:00:00Z","effectiveEnd":"2026-01-04T00:00:00Z",
		"packages":[{
			"packageId":"PKG-1","priorityRank":1,"missionType":"STRIKE","effectDesired":"Destroy target",
			"missions":[{
				"missionId":"M-1","callsign":"VIPER11","domain":"AIR","platformType":"F-16","platformCount":2,
				"missionType":"STRIKE","affiliation":"FRIENDLY",
				"waypoints":[{"sequence":1,"waypointType":"banana","lat":1,"lon":2}],
				"timeWindows":[{"windowType":"orbit time","start":"2026-01-03T10:00:00Z","end":"2026-01-03T11:00:00Z"}],
				"supportRequirements":[{"supportType":"airborne refuelling","description":"AAR support"}],
				"spaceNeeds":[{"capabilityType":"FOO","priorityRank":1,"startTime":"2026-01-03T09:00:00Z","endTime":"2026-01-03T12:00:00Z","missionCriticality":"ESSENTIAL"}]
			}]
		}]
	}`

	gen := &scriptedGenerator{responses: []string{classify, normalize}}
	store := &fakeStore{jiptl: &models.PlanningDocument{ID: "jiptl-1", DocType: models.PlanJIPTL}, scenarioStart: time.Now()}
	p := New(gen, store, &fakeBroadcaster{}, Config{FastModel: "fast", MidModel: "mid"})

	res, err := p.Ingest(context.Background(), "scn-1", "raw ato text", "")
	require.NoError(t, err)
	require.Len(t, store.orders, 1)

	order := store.orders[0]
	require.Len(t, order.Packages, 1)
	require.Len(t, order.Packages[0].Missions, 1)
	mission := order.Packages[0].Missions[0]

	assert.Equal(t, models.WaypointCP, mission.Waypoints[0].WaypointType)
	assert.Equal(t, models.WindowONSTA, mission.TimeWindows[0].WindowType)
	assert.Equal(t, models.SupportTanker, mission.SupportRequirements[0].SupportType)
	assert.Equal(t, models.CapGPS, mission.SpaceNeeds[0].CapabilityType)

	// waypoint(banana->CP), window(orbit time->ONSTA), support(refuelling->TANKER), capability(FOO->GPS): 4 flags.
	assert.Equal(t, 4, res.ReviewFlagCount)
	assert.Equal(t, "jiptl-1", res.ParentLinkID)
}

func TestIngest_EventListParsesInjectsRelativeToScenarioStart(t *testing.T) {
	classify := classificationJSON(models.HierarchyEventList, "MSEL", "Master Scenario Events List")
	normalize := `{"injects":[
		{"title":"Comms jamming","description":"Adversary jams tactical comms","impact":"Degrades C2","dtg":"160600Z JAN 26","injectType":"FRICTION"}
	]}`

	gen := &scriptedGenerator{responses: []string{classify, normalize}}
	store := &fakeStore{scenarioStart: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)}
	p := New(gen, store, &fakeBroadcaster{}, Config{FastModel: "fast", MidModel: "mid"})

	_, err := p.Ingest(context.Background(), "scn-1", "raw msel text", "")
	require.NoError(t, err)

	require.Len(t, store.injects, 1)
	assert.Equal(t, 2, store.injects[0].TriggerDay)
	assert.Equal(t, 6, store.injects[0].TriggerHour)
	assert.Equal(t, models.InjectFriction, store.injects[0].InjectType)
}

func TestIngest_IdenticalInputProducesIdenticalHash(t *testing.T) {
	raw := "the same document text twice"
	assert.Equal(t, hashInput(raw), hashInput(raw))
	assert.NotEqual(t, hashInput(raw), hashInput(raw+" "))
}

func TestIngest_PlanningDocTracesToOverlappingStrategyPriority(t *testing.T) {
	classify := classificationJSON(models.HierarchyPlanning, "JIPTL", "Joint Integrated Prioritized Target List")
	normalize := `{"priorities":[
		{"rank":1,"effect":"Suppress enemy air defense","description":"Neutralize SAM sites in the northern sector"}
	]}`

	gen := &scriptedGenerator{responses: []string{classify, normalize}}
	store := &fakeStore{
		highestTier: &models.StrategyDocument{ID: "nds-1", Tier: models.TierNDS},
		priorities: []models.StrategyPriority{
			{ID: "sp-1", Objective: "Suppress enemy air defense networks", Description: "Neutralize integrated SAM sites"},
		},
		scenarioStart: time.Now(),
	}
	p := New(gen, store, &fakeBroadcaster{}, Config{FastModel: "fast", MidModel: "mid"})

	res, err := p.Ingest(context.Background(), "scn-1", "raw jiptl text", "")
	require.NoError(t, err)
	require.Len(t, store.planningDocs, 1)
	require.Len(t, store.planningDocs[0].Priorities, 1)
	require.NotNil(t, store.planningDocs[0].Priorities[0].StrategyPriorityID)
	assert.Equal(t, "sp-1", *store.planningDocs[0].Priorities[0].StrategyPriorityID)
	assert.Equal(t, "nds-1", res.ParentLinkID)
}
