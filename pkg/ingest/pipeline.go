// Package ingest implements the Document Ingest Pipeline (§4.6): three pure
// stages — classify, normalize, link & persist — composed into one
// scenarioId/rawText/sourceHint -> IngestResult call.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/neg-0/overwatch/pkg/llm"
	"github.com/neg-0/overwatch/pkg/metrics"
	"github.com/neg-0/overwatch/pkg/models"
	"github.com/neg-0/overwatch/pkg/retrylog"
)

// maxPromptGraphemes bounds the classify-stage prompt prefix; oversized raw
// text is truncated grapheme-safely rather than thrown at the model whole.
const maxPromptGraphemes = 24000

// Store is the persistence surface the link & persist stage needs. A
// concrete implementation lives in pkg/store; tests use a fake.
type Store interface {
	HighestTierStrategyDocBelow(ctx context.Context, scenarioID string, tier models.StrategyTier) (*models.StrategyDocument, bool, error)
	HighestTierStrategyDoc(ctx context.Context, scenarioID string) (*models.StrategyDocument, bool, error)
	CreateStrategyDocument(ctx context.Context, doc *models.StrategyDocument) error
	StrategyPriorities(ctx context.Context, strategyDocID string) ([]models.StrategyPriority, error)
	MostRecentJIPTL(ctx context.Context, scenarioID string) (*models.PlanningDocument, bool, error)
	CreatePlanningDocument(ctx context.Context, doc *models.PlanningDocument) error
	CreateTaskingOrder(ctx context.Context, order *models.TaskingOrder) error
	CreateScenarioInject(ctx context.Context, inject *models.ScenarioInject) error
	CreateIngestLog(ctx context.Context, log *models.IngestLog) error
	ScenarioStart(ctx context.Context, scenarioID string) (time.Time, error)
}

// Broadcaster emits the §4.6 stage-boundary events to the scenario room.
type Broadcaster interface {
	EmitIngestEvent(ctx context.Context, scenarioID, event string, payload map[string]any) error
}

// Pipeline runs classify -> normalize -> link & persist.
type Pipeline struct {
	classify  *retrylog.Retrier
	normalize *retrylog.Retrier
	store     Store
	bcast     Broadcaster

	fastModel string
	midModel  string
}

// Config selects the model tiers used by each LLM-backed stage.
type Config struct {
	FastModel string // classify
	MidModel  string // normalize
}

// New creates a Pipeline. gen backs both stages (they differ only by model
// tier and schema, not transport).
func New(gen retrylog.Generator, store Store, bcast Broadcaster, cfg Config) *Pipeline {
	return &Pipeline{
		classify:  retrylog.New(gen, nil, nil, nil),
		normalize: retrylog.New(gen, nil, nil, nil),
		store:     store,
		bcast:     bcast,
		fastModel: cfg.FastModel,
		midModel:  cfg.MidModel,
	}
}

// Classification is the §4.6 step-1 output.
type Classification struct {
	HierarchyLevel   models.IngestHierarchyLevel `json:"hierarchyLevel"`
	DocumentType     string                      `json:"documentType"`
	SourceFormat     string                      `json:"sourceFormat"`
	Confidence       float64                     `json:"confidence"`
	Title            string                      `json:"title"`
	IssuingAuthority string                      `json:"issuingAuthority"`
	EffectiveDateStr string                      `json:"effectiveDateStr"`
}

// Result is the outcome of one ingest() call.
type Result struct {
	IngestID        string
	Classification  Classification
	ParentLinkID    string
	EntitiesCreated int
	ReviewFlagCount int
	ParseTimeMs     int64
	Success         bool
	Error           string
}

// Ingest runs the full three-stage pipeline for one document.
func (p *Pipeline) Ingest(ctx context.Context, scenarioID, rawText, sourceHint string) (Result, error) {
	start := time.Now()
	ingestID := fmt.Sprintf("ingest-%d", start.UnixNano())
	inputHash := hashInput(rawText)

	p.emit(ctx, scenarioID, "ingest:started", map[string]any{"ingestId": ingestID})

	prepared, err := Preprocess(rawText)
	if err != nil {
		prepared = rawText
	}
	prompt := TruncateGraphemeSafe(prepared, maxPromptGraphemes)

	classification, err := p.runClassify(ctx, scenarioID, ingestID, prompt, sourceHint)
	if err != nil {
		return p.fail(ctx, scenarioID, ingestID, inputHash, start, err)
	}
	p.emit(ctx, scenarioID, "ingest:classified", map[string]any{"ingestId": ingestID, "hierarchyLevel": classification.HierarchyLevel})

	normalizedJSON, err := p.runNormalize(ctx, scenarioID, ingestID, classification, prompt)
	if err != nil {
		return p.fail(ctx, scenarioID, ingestID, inputHash, start, err)
	}
	p.emit(ctx, scenarioID, "ingest:normalized", map[string]any{"ingestId": ingestID})

	parentLinkID, entitiesCreated, reviewFlags, err := p.linkAndPersist(ctx, scenarioID, classification, normalizedJSON)
	if err != nil {
		return p.fail(ctx, scenarioID, ingestID, inputHash, start, err)
	}

	duration := time.Since(start)
	p.store.CreateIngestLog(ctx, &models.IngestLog{
		ID:              ingestID,
		ScenarioID:      scenarioID,
		InputHash:       inputHash,
		HierarchyLevel:  classification.HierarchyLevel,
		DocumentType:    classification.DocumentType,
		SourceFormat:    classification.SourceFormat,
		Confidence:      classification.Confidence,
		ParentLinkID:    parentLinkID,
		EntitiesCreated: entitiesCreated,
		ReviewFlagCount: reviewFlags,
		ParseTimeMs:     duration.Milliseconds(),
		Success:         true,
		CreatedAt:       start,
	})
	metrics.IngestLog(scenarioID, "success")
	p.emit(ctx, scenarioID, "ingest:complete", map[string]any{"ingestId": ingestID, "entitiesCreated": entitiesCreated})

	return Result{
		IngestID:        ingestID,
		Classification:  classification,
		ParentLinkID:    parentLinkID,
		EntitiesCreated: entitiesCreated,
		ReviewFlagCount: reviewFlags,
		ParseTimeMs:     duration.Milliseconds(),
		Success:         true,
	}, nil
}

func (p *Pipeline) fail(ctx context.Context, scenarioID, ingestID, inputHash string, start time.Time, cause error) (Result, error) {
	duration := time.Since(start)
	p.store.CreateIngestLog(ctx, &models.IngestLog{
		ID:          ingestID,
		ScenarioID:  scenarioID,
		InputHash:   inputHash,
		ParseTimeMs: duration.Milliseconds(),
		Success:     false,
		Error:       cause.Error(),
		CreatedAt:   start,
	})
	metrics.IngestLog(scenarioID, "failure")
	return Result{IngestID: ingestID, ParseTimeMs: duration.Milliseconds(), Success: false, Error: cause.Error()}, cause
}

func (p *Pipeline) emit(ctx context.Context, scenarioID, event string, payload map[string]any) {
	if p.bcast == nil {
		return
	}
	_ = p.bcast.EmitIngestEvent(ctx, scenarioID, event, payload)
}

func hashInput(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

const classifyMinOutputLength = 40
const normalizeMinOutputLength = 80

func (p *Pipeline) runClassify(ctx context.Context, scenarioID, ingestID, prompt, sourceHint string) (Classification, error) {
	ctx = llm.WithSchema(ctx, classifySchema)
	res := p.classify.Call(ctx, retrylog.Request{
		Model: p.fastModel,
		Messages: []retrylog.Message{
			{Role: "system", Content: classifySystemPrompt},
			{Role: "user", Content: fmt.Sprintf("sourceHint: %s\n\n%s", sourceHint, prompt)},
		},
		MinOutputLength: classifyMinOutputLength,
		ScenarioID:      scenarioID,
		Step:            "ingest",
		Artifact:        ingestID + "-classify",
	})
	if res.Content == "" {
		return Classification{}, fmt.Errorf("ingest: classify produced no content")
	}

	var c Classification
	if err := json.Unmarshal([]byte(res.Content), &c); err != nil {
		return Classification{}, fmt.Errorf("ingest: classify response not valid JSON: %w", err)
	}
	return c, nil
}

func (p *Pipeline) runNormalize(ctx context.Context, scenarioID, ingestID string, classification Classification, prompt string) (string, error) {
	schema := normalizeSchemaFor(classification.HierarchyLevel)
	ctx = llm.WithSchema(ctx, schema)
	res := p.normalize.Call(ctx, retrylog.Request{
		Model: p.midModel,
		Messages: []retrylog.Message{
			{Role: "system", Content: normalizeSystemPrompt(classification.HierarchyLevel)},
			{Role: "user", Content: prompt},
		},
		MinOutputLength: normalizeMinOutputLength,
		ScenarioID:      scenarioID,
		Step:            "ingest",
		Artifact:        ingestID + "-normalize",
	})
	if res.Content == "" {
		return "", fmt.Errorf("ingest: normalize produced no content")
	}
	return res.Content, nil
}
