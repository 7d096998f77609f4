package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/neg-0/overwatch/pkg/models"
)

// firstGenerationStep is the name of the first entry in the generator's
// fixed step sequence — resuming from it runs the whole sequence.
const firstGenerationStep = "Strategic Context"

type generateScenarioRequest struct {
	Name      string `json:"name" binding:"required"`
	Theater   string `json:"theater"`
	Adversary string `json:"adversary"`
	Days      int    `json:"days"`
}

// generateScenarioHandler creates the scenario row synchronously, then
// kicks off the (long-running) generation pipeline in the background so
// the 202 response and a following GET never race an empty store.
func (s *Server) generateScenarioHandler(c *gin.Context) {
	var req generateScenarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	days := req.Days
	if days <= 0 {
		days = 7
	}
	start := time.Now().UTC()
	sc := &models.Scenario{
		ID:               uuid.NewString(),
		Name:             req.Name,
		Theater:          req.Theater,
		Adversary:        req.Adversary,
		StartDate:        start,
		EndDate:          start.AddDate(0, 0, days),
		GenerationStatus: models.GenerationGenerating,
		CreatedAt:        start,
	}

	if err := s.store.CreateScenario(c.Request.Context(), sc); err != nil {
		internalError(c, s.log, "generateScenario.CreateScenario", err)
		return
	}

	go func(scenarioID string) {
		ctx := context.Background()
		if err := s.generator.Resume(ctx, scenarioID, firstGenerationStep); err != nil {
			s.log.Error("api: scenario generation failed", "scenario_id", scenarioID, "error", err)
		}
	}(sc.ID)

	respond(c, http.StatusAccepted, scenarioCreatedResponse{
		ID:               sc.ID,
		Name:             sc.Name,
		GenerationStatus: string(sc.GenerationStatus),
	})
}

// deleteScenarioHandler stops any running simulation, then deletes the
// scenario and its cascade. Returns 200 even mid-generation.
func (s *Server) deleteScenarioHandler(c *gin.Context) {
	id := c.Param("id")
	_ = s.sim.Stop(c.Request.Context(), id)
	if err := s.store.DeleteScenario(c.Request.Context(), id); err != nil {
		internalError(c, s.log, "deleteScenario", err)
		return
	}
	respond(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}

// scenarioAggregate is the full GET /api/scenarios/:id response — scenario
// metadata plus simulation state, missions, and space assets in one shot.
type scenarioAggregate struct {
	Scenario    *models.Scenario        `json:"scenario"`
	Simulation  *models.SimulationState `json:"simulation,omitempty"`
	Missions    []models.Mission        `json:"missions"`
	SpaceAssets []models.SpaceAsset     `json:"spaceAssets"`
}

func (s *Server) getScenarioHandler(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	sc, found, err := s.store.GetScenario(ctx, id)
	if err != nil {
		internalError(c, s.log, "getScenario.GetScenario", err)
		return
	}
	if !found {
		fail(c, http.StatusNotFound, "scenario not found")
		return
	}

	simState, _, err := s.store.GetSimulationState(ctx, id)
	if err != nil {
		internalError(c, s.log, "getScenario.GetSimulationState", err)
		return
	}

	missions, err := s.store.ListAllMissionsByScenario(ctx, id)
	if err != nil {
		internalError(c, s.log, "getScenario.ListAllMissionsByScenario", err)
		return
	}

	assets, err := s.store.ListSpaceAssetsByScenario(ctx, id)
	if err != nil {
		internalError(c, s.log, "getScenario.ListSpaceAssetsByScenario", err)
		return
	}

	respond(c, http.StatusOK, scenarioAggregate{
		Scenario:    sc,
		Simulation:  simState,
		Missions:    missions,
		SpaceAssets: assets,
	})
}
