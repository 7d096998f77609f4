package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neg-0/overwatch/pkg/models"
)

// CreateScenario inserts a new Scenario row, assigning an ID if absent.
func (c *Client) CreateScenario(ctx context.Context, s *models.Scenario) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO scenarios (id, name, theater, adversary, start_date, end_date, generation_status, generation_step, generation_progress, generation_error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		s.ID, s.Name, s.Theater, s.Adversary, s.StartDate, s.EndDate, s.GenerationStatus, s.GenerationStep, s.GenerationProgress, s.GenerationError, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: create scenario: %w", err)
	}
	return nil
}

// GetScenario fetches one scenario by ID.
func (c *Client) GetScenario(ctx context.Context, id string) (*models.Scenario, bool, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT id, name, theater, adversary, start_date, end_date, generation_status, generation_step, generation_progress, generation_error, created_at
		FROM scenarios WHERE id = $1`, id)

	var s models.Scenario
	err := row.Scan(&s.ID, &s.Name, &s.Theater, &s.Adversary, &s.StartDate, &s.EndDate,
		&s.GenerationStatus, &s.GenerationStep, &s.GenerationProgress, &s.GenerationError, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: get scenario: %w", err)
	}
	return &s, true, nil
}

// DeleteScenario cascades to every scenario-scoped entity via ON DELETE CASCADE.
func (c *Client) DeleteScenario(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM scenarios WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("store: delete scenario: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete scenario rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("store: scenario %s not found", id)
	}
	return nil
}

// UpdateGenerationProgress advances the scenario generator's step/percent/
// status fields, overwriting generation_error only when errMsg is non-empty.
func (c *Client) UpdateGenerationProgress(ctx context.Context, scenarioID string, status models.GenerationStatus, step string, progress int, errMsg string) error {
	_, err := c.db.ExecContext(ctx, `
		UPDATE scenarios SET generation_status = $1, generation_step = $2, generation_progress = $3, generation_error = $4
		WHERE id = $5`, status, step, progress, errMsg, scenarioID)
	if err != nil {
		return fmt.Errorf("store: update generation progress: %w", err)
	}
	return nil
}

// UpsertSimulationState creates or replaces the scenario's single mutable
// clock/run record.
func (c *Client) UpsertSimulationState(ctx context.Context, s *models.SimulationState) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO simulation_states (scenario_id, status, sim_time, real_start_time, compression_ratio, current_ato_day, last_ato_day_gen, is_generating)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (scenario_id) DO UPDATE SET
			status = EXCLUDED.status, sim_time = EXCLUDED.sim_time, real_start_time = EXCLUDED.real_start_time,
			compression_ratio = EXCLUDED.compression_ratio, current_ato_day = EXCLUDED.current_ato_day,
			last_ato_day_gen = EXCLUDED.last_ato_day_gen, is_generating = EXCLUDED.is_generating`,
		s.ScenarioID, s.Status, s.SimTime, s.RealStartTime, s.CompressionRatio, s.CurrentAtoDay, s.LastAtoDayGen, s.IsGenerating)
	if err != nil {
		return fmt.Errorf("store: upsert simulation state: %w", err)
	}
	return nil
}

// GetSimulationState fetches the scenario's clock/run record.
func (c *Client) GetSimulationState(ctx context.Context, scenarioID string) (*models.SimulationState, bool, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT scenario_id, status, sim_time, real_start_time, compression_ratio, current_ato_day, last_ato_day_gen, is_generating
		FROM simulation_states WHERE scenario_id = $1`, scenarioID)

	var s models.SimulationState
	err := row.Scan(&s.ScenarioID, &s.Status, &s.SimTime, &s.RealStartTime, &s.CompressionRatio, &s.CurrentAtoDay, &s.LastAtoDayGen, &s.IsGenerating)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: get simulation state: %w", err)
	}
	return &s, true, nil
}
