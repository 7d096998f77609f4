package store

import (
	"context"
	"fmt"
	"time"

	"github.com/neg-0/overwatch/pkg/models"
)

// InjectsToFire returns every unfired ScenarioInject scheduled at or before
// the given (atoDay, hour) tick, in MSEL order, for the engine's per-tick
// inject scheduler.
func (c *Client) InjectsToFire(ctx context.Context, scenarioID string, atoDay, hour int) ([]models.ScenarioInject, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, scenario_id, planning_doc_id, title, description, impact, trigger_day, trigger_hour, inject_type, fired, fired_at
		FROM scenario_injects
		WHERE scenario_id = $1 AND fired = false
		  AND (trigger_day < $2 OR (trigger_day = $2 AND trigger_hour <= $3))
		ORDER BY trigger_day, trigger_hour`, scenarioID, atoDay, hour)
	if err != nil {
		return nil, fmt.Errorf("store: list injects to fire: %w", err)
	}
	defer rows.Close()

	var out []models.ScenarioInject
	for rows.Next() {
		var in models.ScenarioInject
		if err := rows.Scan(&in.ID, &in.ScenarioID, &in.PlanningDocID, &in.Title, &in.Description, &in.Impact,
			&in.TriggerDay, &in.TriggerHour, &in.InjectType, &in.Fired, &in.FiredAt); err != nil {
			return nil, fmt.Errorf("store: scan scenario inject: %w", err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// MarkInjectFired records the moment an inject fired, making the scheduler
// idempotent across restarts and seeks.
func (c *Client) MarkInjectFired(ctx context.Context, injectID string, firedAt time.Time) error {
	_, err := c.db.ExecContext(ctx, `UPDATE scenario_injects SET fired = true, fired_at = $1 WHERE id = $2`, firedAt, injectID)
	if err != nil {
		return fmt.Errorf("store: mark inject fired: %w", err)
	}
	return nil
}

// ResetInjectsFromDay clears the fired flag for every inject at or after
// atoDay, used by seek() when rewinding the clock past their scheduled time.
func (c *Client) ResetInjectsFromDay(ctx context.Context, scenarioID string, atoDay int) error {
	_, err := c.db.ExecContext(ctx, `
		UPDATE scenario_injects SET fired = false, fired_at = NULL
		WHERE scenario_id = $1 AND trigger_day >= $2`, scenarioID, atoDay)
	if err != nil {
		return fmt.Errorf("store: reset injects from day: %w", err)
	}
	return nil
}
