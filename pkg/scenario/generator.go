// Package scenario implements the Scenario Generator (§4.7): a fixed,
// resumable sequence of steps that populate a new scenario's strategy
// cascade, campaign plan, reference-data order of battle, planning
// documents, MAAP, and MSEL injects, broadcasting progress as it goes.
package scenario

import (
	"context"
	"fmt"

	"github.com/neg-0/overwatch/pkg/catalog"
	"github.com/neg-0/overwatch/pkg/config"
	"github.com/neg-0/overwatch/pkg/ingest"
	"github.com/neg-0/overwatch/pkg/models"
	"github.com/neg-0/overwatch/pkg/retrylog"
)

// Store is the persistence surface the generator needs beyond what
// pkg/ingest.Store already covers: scenario lifecycle, per-step idempotent
// delete, and space-asset writes.
type Store interface {
	CreateScenario(ctx context.Context, s *models.Scenario) error
	GetScenario(ctx context.Context, id string) (*models.Scenario, bool, error)
	UpdateGenerationProgress(ctx context.Context, scenarioID string, status models.GenerationStatus, step string, progress int, errMsg string) error

	DeleteStrategyDocumentsByTiers(ctx context.Context, scenarioID string, tiers []models.StrategyTier) error
	DeletePlanningDocumentsByType(ctx context.Context, scenarioID string, docType models.PlanningDocType) error
	DeleteSpaceAssetsByScenario(ctx context.Context, scenarioID string) error
	CreateSpaceAsset(ctx context.Context, a *models.SpaceAsset) error
}

// Broadcaster emits the §6 scenario:* events.
type Broadcaster interface {
	EmitScenarioEvent(ctx context.Context, scenarioID, event string, payload map[string]any) error
}

// artifactAdapter lets retrylog.Retrier broadcast scenario:artifact-result
// through the same Broadcaster the generator uses for progress events.
type artifactAdapter struct {
	b Broadcaster
}

func (a artifactAdapter) BroadcastArtifactResult(ctx context.Context, scenarioID string, payload retrylog.ArtifactResult) error {
	if a.b == nil {
		return nil
	}
	return a.b.EmitScenarioEvent(ctx, scenarioID, "scenario:artifact-result", map[string]any{
		"step":         payload.Step,
		"artifact":     payload.Artifact,
		"status":       payload.Status,
		"outputLength": payload.OutputLength,
		"message":      payload.Message,
	})
}

// Config selects the model tier used for long-form document authoring and
// the catalog directory reference data is read from.
type Config struct {
	// FlagshipModel authors the narrative strategy/planning/ATO text every
	// LLM-authored step feeds through ingest(). Document-length generation
	// warrants the strongest tier; unlike classify/normalize this is not a
	// constrained-schema call.
	FlagshipModel string
}

// Generator runs the fixed, resumable step sequence.
type Generator struct {
	store    Store
	pipeline *ingest.Pipeline
	retrier  *retrylog.Retrier
	bcast    Broadcaster
	catalog  *config.CatalogRegistry
	udl      *catalog.Client
	model    string
}

// New creates a Generator. pipeline is the already-wired document ingest
// pipeline (§4.6) that every LLM-authored step's output is routed through.
// udl is optional — a nil Client means every Space Constellation asset is
// seeded from its template's static orbital fields, never from a live
// lookup.
func New(store Store, pipeline *ingest.Pipeline, gen retrylog.Generator, logger retrylog.Logger, bcast Broadcaster, reg *config.CatalogRegistry, udl *catalog.Client, cfg Config) *Generator {
	return &Generator{
		store:    store,
		pipeline: pipeline,
		retrier:  retrylog.New(gen, logger, artifactAdapter{b: bcast}, nil),
		bcast:    bcast,
		catalog:  reg,
		udl:      udl,
		model:    cfg.FlagshipModel,
	}
}

// step is one entry in the fixed generation sequence.
type step struct {
	name     string
	progress int
	run      func(ctx context.Context, g *Generator, s *models.Scenario) error
}

// steps is the §4.7 fixed sequence with its completion-percent anchors.
// "Done" (100%) is not a row here — it is set once every prior step
// succeeds.
var steps = []step{
	{"Strategic Context", 10, (*Generator).runStrategicContext},
	{"Campaign Plan", 25, (*Generator).runCampaignPlan},
	{"Theater Bases", 35, (*Generator).runTheaterBases},
	{"Joint Force ORBAT", 50, (*Generator).runJointForceORBAT},
	{"Space Constellation", 60, (*Generator).runSpaceConstellation},
	{"Planning Documents", 75, (*Generator).runPlanningDocuments},
	{"MAAP", 85, (*Generator).runMAAP},
	{"MSEL Injects", 95, (*Generator).runMSELInjects},
}

// stepIndex returns the position of a step by name, or -1.
func stepIndex(name string) int {
	for i, s := range steps {
		if s.name == name {
			return i
		}
	}
	return -1
}

// Generate runs every step from the beginning for a brand-new scenario.
func (g *Generator) Generate(ctx context.Context, sc *models.Scenario) error {
	if err := g.store.CreateScenario(ctx, sc); err != nil {
		return fmt.Errorf("scenario: create: %w", err)
	}
	return g.runFrom(ctx, sc, 0)
}

// Resume re-runs the sequence starting at fromStep (by name), re-deleting
// and rewriting that step's own output forward. Every step idempotently
// deletes its prior output before writing, so resuming from an earlier
// step than the one that failed is also safe.
func (g *Generator) Resume(ctx context.Context, scenarioID, fromStep string) error {
	sc, found, err := g.store.GetScenario(ctx, scenarioID)
	if err != nil {
		return fmt.Errorf("scenario: get: %w", err)
	}
	if !found {
		return fmt.Errorf("scenario: %s not found", scenarioID)
	}

	idx := stepIndex(fromStep)
	if idx < 0 {
		return fmt.Errorf("scenario: unknown resume step %q", fromStep)
	}
	return g.runFrom(ctx, sc, idx)
}

func (g *Generator) runFrom(ctx context.Context, sc *models.Scenario, fromIdx int) error {
	if err := g.store.UpdateGenerationProgress(ctx, sc.ID, models.GenerationGenerating, steps[fromIdx].name, 0, ""); err != nil {
		return fmt.Errorf("scenario: update progress: %w", err)
	}

	for i := fromIdx; i < len(steps); i++ {
		s := steps[i]
		if err := s.run(ctx, g, sc); err != nil {
			failMsg := fmt.Sprintf("%s: %v", s.name, err)
			_ = g.store.UpdateGenerationProgress(ctx, sc.ID, models.GenerationFailed, s.name, s.progress, failMsg)
			g.emitProgress(ctx, sc.ID, s.name, s.progress, string(models.GenerationFailed))
			return fmt.Errorf("scenario: step %q: %w", s.name, err)
		}

		if err := g.store.UpdateGenerationProgress(ctx, sc.ID, models.GenerationGenerating, s.name, s.progress, ""); err != nil {
			return fmt.Errorf("scenario: update progress: %w", err)
		}
		g.emitProgress(ctx, sc.ID, s.name, s.progress, string(models.GenerationGenerating))
	}

	if err := g.store.UpdateGenerationProgress(ctx, sc.ID, models.GenerationComplete, "Done", 100, ""); err != nil {
		return fmt.Errorf("scenario: update progress: %w", err)
	}
	g.emitProgress(ctx, sc.ID, "Done", 100, string(models.GenerationComplete))
	return nil
}

func (g *Generator) emitProgress(ctx context.Context, scenarioID, step string, progress int, status string) {
	if g.bcast == nil {
		return
	}
	_ = g.bcast.EmitScenarioEvent(ctx, scenarioID, "scenario:generation-progress", map[string]any{
		"scenarioId": scenarioID,
		"step":       step,
		"progress":   progress,
		"status":     status,
	})
}

// authorAndIngest runs one bounded LLM call for artifact and routes its
// content through the document ingest pipeline, which performs its own
// classify/normalize/persist cycle (and its own MinOutputLength check,
// independent of the retry/logger's).
func (g *Generator) authorAndIngest(ctx context.Context, sc *models.Scenario, stepName, artifact, systemPrompt, userPrompt, sourceHint string) error {
	result := g.retrier.Call(ctx, retrylog.Request{
		Model:           g.model,
		Messages:        []retrylog.Message{{Role: "system", Content: systemPrompt}, {Role: "user", Content: userPrompt}},
		MaxTokens:       8000,
		MinOutputLength: 200,
		ScenarioID:      sc.ID,
		Step:            stepName,
		Artifact:        artifact,
	})
	if result.Content == "" {
		return fmt.Errorf("%s: no content generated", artifact)
	}

	if _, err := g.pipeline.Ingest(ctx, sc.ID, result.Content, sourceHint); err != nil {
		return fmt.Errorf("%s: ingest: %w", artifact, err)
	}
	return nil
}

// scenarioDurationDays returns the whole-day span the scenario covers,
// used to bound how many MSEL injects and strategy-cascade references get
// authored.
func scenarioDurationDays(sc *models.Scenario) int {
	days := int(sc.EndDate.Sub(sc.StartDate).Hours()/24) + 1
	if days < 1 {
		days = 1
	}
	return days
}
