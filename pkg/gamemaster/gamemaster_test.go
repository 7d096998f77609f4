package gamemaster

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/neg-0/overwatch/pkg/ingest"
	"github.com/neg-0/overwatch/pkg/models"
	"github.com/neg-0/overwatch/pkg/retrylog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type queuedGenerator struct {
	responses []string
	calls     int
}

func (g *queuedGenerator) Generate(ctx context.Context, req retrylog.GenerateRequest) (retrylog.GenerateResponse, error) {
	resp := g.responses[g.calls]
	g.calls++
	return retrylog.GenerateResponse{Content: resp, PromptTokens: 10, OutputTokens: len(resp)}, nil
}

// fakeStore satisfies both gamemaster.Store and ingest.Store, letting one
// in-memory fixture back both the Game Master and the document ingest
// pipeline it routes ATO/MAAP/BDA narrative through.
type fakeStore struct {
	scenario   *models.Scenario
	jiptl      *models.PlanningDocument
	priorities []models.PriorityEntry
	msel       *models.PlanningDocument
	assets     []models.SpaceAsset

	planningDocs  []*models.PlanningDocument
	addedEntries  []models.PriorityEntry
	orders        []*models.TaskingOrder
	injects       []*models.ScenarioInject
	strategyDocs  []*models.StrategyDocument
}

func (s *fakeStore) GetScenario(ctx context.Context, id string) (*models.Scenario, bool, error) {
	if s.scenario == nil {
		return nil, false, nil
	}
	return s.scenario, true, nil
}

func (s *fakeStore) HighestTierStrategyDoc(ctx context.Context, scenarioID string) (*models.StrategyDocument, bool, error) {
	return nil, false, nil
}

func (s *fakeStore) HighestTierStrategyDocBelow(ctx context.Context, scenarioID string, tier models.StrategyTier) (*models.StrategyDocument, bool, error) {
	return nil, false, nil
}

func (s *fakeStore) StrategyPriorities(ctx context.Context, strategyDocID string) ([]models.StrategyPriority, error) {
	return nil, nil
}

func (s *fakeStore) CreateStrategyDocument(ctx context.Context, doc *models.StrategyDocument) error {
	s.strategyDocs = append(s.strategyDocs, doc)
	return nil
}

func (s *fakeStore) MostRecentJIPTL(ctx context.Context, scenarioID string) (*models.PlanningDocument, bool, error) {
	if s.jiptl == nil {
		return nil, false, nil
	}
	return s.jiptl, true, nil
}

func (s *fakeStore) LatestPlanningDocumentByType(ctx context.Context, scenarioID string, docType models.PlanningDocType) (*models.PlanningDocument, bool, error) {
	switch docType {
	case models.PlanJIPTL:
		if s.jiptl == nil {
			return nil, false, nil
		}
		return s.jiptl, true, nil
	case models.PlanMSEL:
		if s.msel == nil {
			return nil, false, nil
		}
		return s.msel, true, nil
	default:
		return nil, false, nil
	}
}

func (s *fakeStore) PlanningDocumentPriorities(ctx context.Context, planningDocID string) ([]models.PriorityEntry, error) {
	return s.priorities, nil
}

func (s *fakeStore) AddPriorityEntry(ctx context.Context, planningDocID string, entry *models.PriorityEntry) error {
	s.addedEntries = append(s.addedEntries, *entry)
	return nil
}

func (s *fakeStore) CreatePlanningDocument(ctx context.Context, doc *models.PlanningDocument) error {
	s.planningDocs = append(s.planningDocs, doc)
	if doc.DocType == models.PlanMSEL && s.msel == nil {
		s.msel = doc
	}
	return nil
}

func (s *fakeStore) ListMissionsForAtoDay(ctx context.Context, scenarioID string, atoDay int) ([]models.Mission, error) {
	return nil, nil
}

func (s *fakeStore) MissionStatusCounts(ctx context.Context, scenarioID string, atoDay int) (map[models.MissionStatus]int, error) {
	return nil, nil
}

func (s *fakeStore) ListSpaceAssetsByScenario(ctx context.Context, scenarioID string) ([]models.SpaceAsset, error) {
	return s.assets, nil
}

func (s *fakeStore) TaskingOrderCount(ctx context.Context, scenarioID string, atoDay int) (int, error) {
	return 0, nil
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
	return nil
}

func (s *fakeStore) ScenarioStart(ctx context.Context, scenarioID string) (time.Time, error) {
	return s.scenario.StartDate, nil
}

type fakeBroadcaster struct {
	events []string
}

func (b *fakeBroadcaster) Emit(ctx context.Context, scenarioID, event string, payload map[string]any) error {
	b.events = append(b.events, event)
	return nil
}

func (b *fakeBroadcaster) EmitIngestEvent(ctx context.Context, scenarioID, event string, payload map[string]any) error {
	return nil
}

func newFixture() *fakeStore {
	return &fakeStore{
		scenario: &models.Scenario{ID: "scn-1", Name: "Pacific Storm", Theater: "INDOPACOM", Adversary: "RED",
			StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)},
		jiptl: &models.PlanningDocument{ID: "jiptl-1", DocType: models.PlanJIPTL},
	}
}

func classificationJSON(level models.IngestHierarchyLevel, docType, title string) string {
	c := ingest.Classification{HierarchyLevel: level, DocumentType: docType, SourceFormat: "TEXT", Confidence: 0.9, Title: title}
	b, _ := json.Marshal(c)
	return string(b)
}

func TestGameMaster_GenerateInjectPersistsDirectlyWithoutIngest(t *testing.T) {
	store := newFixture()
	ingestGen := &queuedGenerator{}
	pipeline := ingest.New(ingestGen, store, &fakeBroadcaster{}, ingest.Config{FastModel: "fast", MidModel: "mid"})

	injectJSON := `{"title":"Comms jamming","description":"Adversary jams tactical comms","impact":"Degrades C2","triggerHour":6,"injectType":"FRICTION"}`
	gmGen := &queuedGenerator{responses: []string{injectJSON}}
	bcast := &fakeBroadcaster{}
	gm := New(store, pipeline, gmGen, nil, bcast, nil, Config{FlagshipModel: "flagship", MidModel: "mid"})

	err := gm.GenerateInject(context.Background(), "scn-1", 1)
	require.NoError(t, err)

	require.Len(t, store.injects, 1)
	assert.Equal(t, "Comms jamming", store.injects[0].Title)
	assert.Equal(t, models.InjectFriction, store.injects[0].InjectType)
	assert.Equal(t, 1, store.injects[0].TriggerDay)
	assert.Equal(t, 6, store.injects[0].TriggerHour)
	assert.Contains(t, bcast.events, "gamemaster:inject")
	assert.Empty(t, ingestGen.calls, "inject output must never route through the ingest pipeline")
	assert.NotNil(t, store.msel, "a MSEL planning document is created on demand when none exists")
}

func TestGameMaster_GenerateInjectReusesExistingMSEL(t *testing.T) {
	store := newFixture()
	store.msel = &models.PlanningDocument{ID: "msel-1", DocType: models.PlanMSEL}
	ingestGen := &queuedGenerator{}
	pipeline := ingest.New(ingestGen, store, &fakeBroadcaster{}, ingest.Config{FastModel: "fast", MidModel: "mid"})

	injectJSON := `{"title":"Satellite jamming","description":"Adversary jams SATCOM","impact":"Degrades reachback","triggerHour":14,"injectType":"SPACE"}`
	gmGen := &queuedGenerator{responses: []string{injectJSON}}
	gm := New(store, pipeline, gmGen, nil, &fakeBroadcaster{}, nil, Config{FlagshipModel: "flagship", MidModel: "mid"})

	err := gm.GenerateInject(context.Background(), "scn-1", 2)
	require.NoError(t, err)

	require.Len(t, store.injects, 1)
	assert.Equal(t, "msel-1", store.injects[0].PlanningDocID)
	assert.Empty(t, store.planningDocs, "an existing MSEL must not be recreated")
}

func TestGameMaster_AssessBDAAppliesDegradedAndRestrikeEntries(t *testing.T) {
	store := newFixture()

	classify := classificationJSON(models.HierarchyOrder, "FRAGORD", "Day 1 BDA Report")
	normalize := `{"orderType":"FRAGORD","atoDayNumber":1,"effectiveStart":"2026-01-01T00:00:00Z","packages":[]}`
	ingestGen := &queuedGenerator{responses: []string{classify, normalize}}
	pipeline := ingest.New(ingestGen, store, &fakeBroadcaster{}, ingest.Config{FastModel: "fast", MidModel: "mid"})

	bdaNarrative := strings.Repeat("Target SAM-7 assessed heavily damaged following the strike package. ", 10)
	assessments := `{"assessments":[
		{"targetName":"SAM-7","damagePercent":85,"functionalKill":true,"restrikeNeeded":false},
		{"targetName":"Bridge-3","damagePercent":40,"functionalKill":false,"restrikeNeeded":true},
		{"targetName":"Depot-1","damagePercent":20,"functionalKill":false,"restrikeNeeded":false}
	]}`
	gmGen := &queuedGenerator{responses: []string{bdaNarrative, assessments}}
	bcast := &fakeBroadcaster{}
	gm := New(store, pipeline, gmGen, nil, bcast, nil, Config{FlagshipModel: "flagship", MidModel: "mid"})

	err := gm.AssessBDA(context.Background(), "scn-1", 2)
	require.NoError(t, err)

	require.Len(t, store.addedEntries, 2)
	assert.Equal(t, "DEGRADED", store.addedEntries[0].Effect)
	assert.Contains(t, store.addedEntries[0].Description, "SAM-7")
	assert.Equal(t, "RE-STRIKE", store.addedEntries[1].Effect)
	assert.Contains(t, store.addedEntries[1].Description, "Bridge-3")
	assert.Contains(t, bcast.events, "gamemaster:bda-complete")
}

func TestGameMaster_GenerateATORoutesThroughIngestPipeline(t *testing.T) {
	store := newFixture()

	classify := classificationJSON(models.HierarchyOrder, "ATO", "Day 1 ATO")
	normalize := `{"orderType":"ATO","atoDayNumber":1,"effectiveStart":"2026-01-01T00:00:00Z","packages":[]}`
	ingestGen := &queuedGenerator{responses: []string{classify, normalize}}
	pipeline := ingest.New(ingestGen, store, &fakeBroadcaster{}, ingest.Config{FastModel: "fast", MidModel: "mid"})

	atoNarrative := strings.Repeat("Mission package ALPHA tasked against JIPTL priority one targets. ", 10)
	gmGen := &queuedGenerator{responses: []string{atoNarrative}}
	bcast := &fakeBroadcaster{}
	gm := New(store, pipeline, gmGen, nil, bcast, nil, Config{FlagshipModel: "flagship", MidModel: "mid"})

	err := gm.GenerateATO(context.Background(), "scn-1", 1)
	require.NoError(t, err)

	require.Len(t, store.orders, 1)
	assert.Equal(t, models.OrderATO, store.orders[0].OrderType)
	assert.Contains(t, bcast.events, "gamemaster:ato-complete")
}

func TestGameMaster_BuildContextDegradesGracefullyWithNoPriorDocuments(t *testing.T) {
	store := &fakeStore{scenario: &models.Scenario{ID: "scn-2", Name: "Empty", StartDate: time.Now(), EndDate: time.Now()}}
	ingestGen := &queuedGenerator{}
	pipeline := ingest.New(ingestGen, store, &fakeBroadcaster{}, ingest.Config{FastModel: "fast", MidModel: "mid"})
	gm := New(store, pipeline, &queuedGenerator{}, nil, &fakeBroadcaster{}, nil, Config{FlagshipModel: "flagship", MidModel: "mid"})

	pc, err := gm.buildContext(context.Background(), "scn-2", 1)
	require.NoError(t, err)
	assert.Equal(t, "no standing priorities on file", pc.PrioritiesSummary)
	assert.Equal(t, "no ORBAT reference data loaded", pc.ORBATSummary)
	assert.Equal(t, "no space assets on orbit", pc.SpaceAssetSummary)
}
