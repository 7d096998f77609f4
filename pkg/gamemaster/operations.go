package gamemaster

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neg-0/overwatch/pkg/llm"
	"github.com/neg-0/overwatch/pkg/models"
	"github.com/neg-0/overwatch/pkg/retrylog"
)

// degradedDamageThreshold is the damage percentage at or above which a
// functionally-killed target earns a DEGRADED priority entry on the
// current JIPTL (§4.8).
const degradedDamageThreshold = 70.0

// GenerateATO authors day atoDay's Air Tasking Order narrative and routes
// it through the document ingest pipeline, which persists the tasking
// order and its full package/mission tree.
func (gm *GameMaster) GenerateATO(ctx context.Context, scenarioID string, atoDay int) error {
	start := time.Now()
	pc, err := gm.buildContext(ctx, scenarioID, atoDay)
	if err != nil {
		return gm.fail(ctx, scenarioID, err)
	}

	result, err := gm.authorAndIngest(ctx, scenarioID, "gamemaster-ato", fmt.Sprintf("ato-day-%d", atoDay),
		atoSystemPrompt, atoUserPrompt(pc, atoDay), "gamemaster:ato")
	if err != nil {
		return gm.fail(ctx, scenarioID, fmt.Errorf("gamemaster: generate ATO: %w", err))
	}

	gm.emit(ctx, scenarioID, "gamemaster:ato-complete", map[string]any{
		"scenarioId": scenarioID, "day": atoDay, "createdId": result.ParentLinkID, "durationMs": time.Since(start).Milliseconds(),
	})
	return nil
}

// GenerateMAAP authors day atoDay's Master Air Attack Plan narrative and
// routes it through the document ingest pipeline.
func (gm *GameMaster) GenerateMAAP(ctx context.Context, scenarioID string, atoDay int) error {
	start := time.Now()
	pc, err := gm.buildContext(ctx, scenarioID, atoDay)
	if err != nil {
		return gm.fail(ctx, scenarioID, err)
	}

	result, err := gm.authorAndIngest(ctx, scenarioID, "gamemaster-maap", fmt.Sprintf("maap-day-%d", atoDay),
		maapSystemPrompt, maapUserPrompt(pc, atoDay), "gamemaster:maap")
	if err != nil {
		return gm.fail(ctx, scenarioID, fmt.Errorf("gamemaster: generate MAAP: %w", err))
	}

	gm.emit(ctx, scenarioID, "gamemaster:maap-complete", map[string]any{
		"scenarioId": scenarioID, "day": atoDay, "createdId": result.ParentLinkID, "durationMs": time.Since(start).Milliseconds(),
	})
	return nil
}

// bdaAssessment is one parsed entry of the BDA extraction call's response.
type bdaAssessment struct {
	TargetName     string  `json:"targetName"`
	DamagePercent  float64 `json:"damagePercent"`
	FunctionalKill bool    `json:"functionalKill"`
	RestrikeNeeded bool    `json:"restrikeNeeded"`
}

type bdaExtractResponse struct {
	Assessments []bdaAssessment `json:"assessments"`
}

// AssessBDA authors day atoDay's Battle Damage Assessment narrative
// (routed through ingest like the ATO/MAAP), then runs a second structured
// extraction over that narrative for per-target assessments, appending
// DEGRADED and RE-STRIKE priority entries to the current JIPTL.
func (gm *GameMaster) AssessBDA(ctx context.Context, scenarioID string, atoDay int) error {
	start := time.Now()
	pc, err := gm.buildContext(ctx, scenarioID, atoDay)
	if err != nil {
		return gm.fail(ctx, scenarioID, err)
	}

	bdaText, err := gm.authorBDANarrative(ctx, scenarioID, pc, atoDay)
	if err != nil {
		return gm.fail(ctx, scenarioID, fmt.Errorf("gamemaster: author BDA: %w", err))
	}

	assessments, err := gm.extractBDAAssessments(ctx, scenarioID, bdaText)
	if err != nil {
		return gm.fail(ctx, scenarioID, fmt.Errorf("gamemaster: extract BDA assessments: %w", err))
	}

	jiptl, found, err := gm.store.LatestPlanningDocumentByType(ctx, scenarioID, models.PlanJIPTL)
	if err != nil {
		return gm.fail(ctx, scenarioID, fmt.Errorf("gamemaster: load JIPTL: %w", err))
	}
	updated := 0
	jiptlID := ""
	if found {
		jiptlID = jiptl.ID
		updated = gm.applyBDAAssessments(ctx, scenarioID, jiptl.ID, assessments)
	}

	gm.emit(ctx, scenarioID, "gamemaster:bda-complete", map[string]any{
		"scenarioId": scenarioID, "day": atoDay, "createdId": jiptlID, "durationMs": time.Since(start).Milliseconds(),
		"priorityEntriesAdded": updated,
	})
	return nil
}

func (gm *GameMaster) authorBDANarrative(ctx context.Context, scenarioID string, pc *contextPacket, atoDay int) (string, error) {
	result := gm.retrier.Call(ctx, retrylog.Request{
		Model:           gm.flagshipModel,
		Messages:        []retrylog.Message{{Role: "system", Content: bdaSystemPrompt}, {Role: "user", Content: bdaUserPrompt(pc, atoDay)}},
		MaxTokens:       8000,
		MinOutputLength: 200,
		ScenarioID:      scenarioID,
		Step:            "gamemaster-bda",
		Artifact:        fmt.Sprintf("bda-day-%d", atoDay),
	})
	if result.Content == "" {
		return "", fmt.Errorf("no content generated")
	}
	if _, err := gm.pipeline.Ingest(ctx, scenarioID, result.Content, "gamemaster:bda"); err != nil {
		return "", err
	}
	return result.Content, nil
}

func (gm *GameMaster) extractBDAAssessments(ctx context.Context, scenarioID, bdaText string) ([]bdaAssessment, error) {
	extractCtx := llm.WithSchema(ctx, bdaExtractSchema)
	result := gm.extract.Call(extractCtx, retrylog.Request{
		Model:           gm.midModel,
		Messages:        []retrylog.Message{{Role: "system", Content: bdaExtractSystemPrompt}, {Role: "user", Content: bdaExtractUserPrompt(bdaText)}},
		MinOutputLength: 40,
		ScenarioID:      scenarioID,
		Step:            "gamemaster-bda",
		Artifact:        "bda-extract",
	})
	if result.Content == "" {
		return nil, fmt.Errorf("extraction produced no content")
	}
	var resp bdaExtractResponse
	if err := json.Unmarshal([]byte(result.Content), &resp); err != nil {
		return nil, fmt.Errorf("extraction response not valid JSON: %w", err)
	}
	return resp.Assessments, nil
}

// applyBDAAssessments records the §4.8 follow-on priority mutations for
// each assessed target, tolerating individual entry failures so one bad
// target doesn't abort the whole cycle.
func (gm *GameMaster) applyBDAAssessments(ctx context.Context, scenarioID, jiptlID string, assessments []bdaAssessment) int {
	added := 0
	for _, a := range assessments {
		if a.DamagePercent >= degradedDamageThreshold && a.FunctionalKill {
			entry := &models.PriorityEntry{
				Effect:      "DEGRADED",
				Description: fmt.Sprintf("%s assessed %.0f%% damage, functional kill", a.TargetName, a.DamagePercent),
			}
			if err := gm.store.AddPriorityEntry(ctx, jiptlID, entry); err == nil {
				added++
			}
		}
		if a.RestrikeNeeded {
			entry := &models.PriorityEntry{
				Effect:      "RE-STRIKE",
				Description: fmt.Sprintf("%s requires restrike, assessed %.0f%% damage", a.TargetName, a.DamagePercent),
			}
			if err := gm.store.AddPriorityEntry(ctx, jiptlID, entry); err == nil {
				added++
			}
		}
	}
	return added
}

type injectNormalized struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
	TriggerHour int    `json:"triggerHour"`
	InjectType  string `json:"injectType"`
}

// GenerateInject generates one MSEL inject as structured JSON and persists
// it directly — unlike ATO/MAAP/BDA, inject output never passes through
// the ingest pipeline's classify/normalize stages.
func (gm *GameMaster) GenerateInject(ctx context.Context, scenarioID string, atoDay int) error {
	start := time.Now()
	pc, err := gm.buildContext(ctx, scenarioID, atoDay)
	if err != nil {
		return gm.fail(ctx, scenarioID, err)
	}

	injectCtx := llm.WithSchema(ctx, injectSchema)
	result := gm.retrier.Call(injectCtx, retrylog.Request{
		Model:           gm.flagshipModel,
		Messages:        []retrylog.Message{{Role: "system", Content: injectSystemPrompt}, {Role: "user", Content: injectUserPrompt(pc, atoDay)}},
		MinOutputLength: 40,
		ScenarioID:      scenarioID,
		Step:            "gamemaster-inject",
		Artifact:        fmt.Sprintf("inject-day-%d", atoDay),
	})
	if result.Content == "" {
		return gm.fail(ctx, scenarioID, fmt.Errorf("gamemaster: generate inject: no content generated"))
	}

	var n injectNormalized
	if err := json.Unmarshal([]byte(result.Content), &n); err != nil {
		return gm.fail(ctx, scenarioID, fmt.Errorf("gamemaster: inject response not valid JSON: %w", err))
	}

	mselDoc, found, err := gm.store.LatestPlanningDocumentByType(ctx, scenarioID, models.PlanMSEL)
	if err != nil {
		return gm.fail(ctx, scenarioID, fmt.Errorf("gamemaster: load MSEL: %w", err))
	}
	if !found {
		mselDoc = &models.PlanningDocument{
			ID:         uuid.NewString(),
			ScenarioID: scenarioID,
			DocType:    models.PlanMSEL,
			Title:      "Master Scenario Events List",
			CreatedAt:  time.Now().UTC(),
		}
		if err := gm.store.CreatePlanningDocument(ctx, mselDoc); err != nil {
			return gm.fail(ctx, scenarioID, fmt.Errorf("gamemaster: create MSEL: %w", err))
		}
	}

	inject := &models.ScenarioInject{
		ID:            uuid.NewString(),
		ScenarioID:    scenarioID,
		PlanningDocID: mselDoc.ID,
		Title:         n.Title,
		Description:   n.Description,
		Impact:        n.Impact,
		TriggerDay:    atoDay,
		TriggerHour:   n.TriggerHour,
		InjectType:    models.InjectType(n.InjectType),
	}
	if err := gm.store.CreateScenarioInject(ctx, inject); err != nil {
		return gm.fail(ctx, scenarioID, fmt.Errorf("gamemaster: persist inject: %w", err))
	}

	gm.emit(ctx, scenarioID, "gamemaster:inject", map[string]any{
		"scenarioId": scenarioID, "day": atoDay, "createdId": inject.ID, "durationMs": time.Since(start).Milliseconds(),
	})
	return nil
}
