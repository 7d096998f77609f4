// Package gamemaster implements the Game Master (§4.8): four on-demand
// generation operations — ATO, inject, BDA, MAAP — each building a scenario
// context packet from the persistence layer, authoring LLM output, and
// either routing narrative text through the document ingest pipeline or
// parsing and persisting structured JSON directly.
package gamemaster

import (
	"context"
	"fmt"

	"github.com/neg-0/overwatch/pkg/config"
	"github.com/neg-0/overwatch/pkg/ingest"
	"github.com/neg-0/overwatch/pkg/models"
	"github.com/neg-0/overwatch/pkg/retrylog"
)

// Store is the persistence surface the Game Master needs to assemble
// context packets and record BDA follow-on tasking. Every method signature
// references only models.* and stdlib types so this interface stays
// independent of pkg/store's internal result shapes.
type Store interface {
	GetScenario(ctx context.Context, id string) (*models.Scenario, bool, error)
	HighestTierStrategyDoc(ctx context.Context, scenarioID string) (*models.StrategyDocument, bool, error)
	StrategyPriorities(ctx context.Context, strategyDocID string) ([]models.StrategyPriority, error)
	LatestPlanningDocumentByType(ctx context.Context, scenarioID string, docType models.PlanningDocType) (*models.PlanningDocument, bool, error)
	PlanningDocumentPriorities(ctx context.Context, planningDocID string) ([]models.PriorityEntry, error)
	AddPriorityEntry(ctx context.Context, planningDocID string, entry *models.PriorityEntry) error
	CreatePlanningDocument(ctx context.Context, doc *models.PlanningDocument) error
	ListMissionsForAtoDay(ctx context.Context, scenarioID string, atoDay int) ([]models.Mission, error)
	MissionStatusCounts(ctx context.Context, scenarioID string, atoDay int) (map[models.MissionStatus]int, error)
	ListSpaceAssetsByScenario(ctx context.Context, scenarioID string) ([]models.SpaceAsset, error)
	TaskingOrderCount(ctx context.Context, scenarioID string, atoDay int) (int, error)
	CreateScenarioInject(ctx context.Context, inject *models.ScenarioInject) error
}

// Broadcaster emits the §6 gamemaster:* events to the scenario room.
type Broadcaster interface {
	Emit(ctx context.Context, scenarioID, event string, payload map[string]any) error
}

// Config selects the model tiers the Game Master's two call shapes use:
// long-form narrative authoring, and the BDA per-target structured
// extraction.
type Config struct {
	FlagshipModel string // ATO/MAAP/BDA narrative, inject JSON
	MidModel      string // BDA per-target structured extraction
}

// GameMaster runs the four on-demand generation operations.
type GameMaster struct {
	store    Store
	pipeline *ingest.Pipeline
	retrier  *retrylog.Retrier
	extract  *retrylog.Retrier
	bcast    Broadcaster
	catalog  *config.CatalogRegistry

	flagshipModel string
	midModel      string
}

// New creates a GameMaster. pipeline is the already-wired document ingest
// pipeline (§4.6) narrative ATO/MAAP output is routed through.
func New(store Store, pipeline *ingest.Pipeline, gen retrylog.Generator, logger retrylog.Logger, bcast Broadcaster, catalog *config.CatalogRegistry, cfg Config) *GameMaster {
	return &GameMaster{
		store:         store,
		pipeline:      pipeline,
		retrier:       retrylog.New(gen, logger, nil, nil),
		extract:       retrylog.New(gen, logger, nil, nil),
		bcast:         bcast,
		catalog:       catalog,
		flagshipModel: cfg.FlagshipModel,
		midModel:      cfg.MidModel,
	}
}

func (gm *GameMaster) emit(ctx context.Context, scenarioID, event string, payload map[string]any) {
	if gm.bcast == nil {
		return
	}
	_ = gm.bcast.Emit(ctx, scenarioID, event, payload)
}

func (gm *GameMaster) fail(ctx context.Context, scenarioID string, err error) error {
	gm.emit(ctx, scenarioID, "gamemaster:error", map[string]any{"scenarioId": scenarioID, "message": err.Error()})
	return err
}

// atoDayPhase derives a rough OPLAN phase label from the current ATO day,
// folded into every context packet's narrative framing.
func atoDayPhase(atoDay int) string {
	switch {
	case atoDay <= 1:
		return "Phase 0 - Shape"
	case atoDay <= 3:
		return "Phase I - Deter"
	case atoDay <= 7:
		return "Phase II - Seize Initiative"
	default:
		return "Phase III - Dominate"
	}
}

// authorAndIngest runs one bounded LLM call and routes its narrative
// content through the document ingest pipeline, mirroring
// pkg/scenario.Generator.authorAndIngest.
func (gm *GameMaster) authorAndIngest(ctx context.Context, scenarioID, step, artifact, systemPrompt, userPrompt, sourceHint string) (ingest.Result, error) {
	result := gm.retrier.Call(ctx, retrylog.Request{
		Model:           gm.flagshipModel,
		Messages:        []retrylog.Message{{Role: "system", Content: systemPrompt}, {Role: "user", Content: userPrompt}},
		MaxTokens:       8000,
		MinOutputLength: 200,
		ScenarioID:      scenarioID,
		Step:            step,
		Artifact:        artifact,
	})
	if result.Content == "" {
		return ingest.Result{}, fmt.Errorf("gamemaster: %s: no content generated", artifact)
	}
	return gm.pipeline.Ingest(ctx, scenarioID, result.Content, sourceHint)
}
