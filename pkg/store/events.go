package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neg-0/overwatch/pkg/models"
)

// CreateSimEvent appends one fact to a scenario's event log. The log is
// append-only: events are never updated or deleted, which is what makes
// seek() replay well-defined.
func (c *Client) CreateSimEvent(ctx context.Context, e *models.SimEvent) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	detail, err := marshalDetail(e.Detail)
	if err != nil {
		return fmt.Errorf("store: marshal event detail: %w", err)
	}
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO sim_events (id, scenario_id, event_time, event_type, asset_id, mission_id, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.ScenarioID, e.Time, e.EventType, e.AssetID, e.MissionID, detail)
	if err != nil {
		return fmt.Errorf("store: create sim event: %w", err)
	}
	return nil
}

// EventsUpTo returns every event for scenarioID with Time <= asOf, ordered
// oldest first — the replay stream seek() folds over.
func (c *Client) EventsUpTo(ctx context.Context, scenarioID string, asOf time.Time) ([]models.SimEvent, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, scenario_id, event_time, event_type, asset_id, mission_id, detail
		FROM sim_events WHERE scenario_id = $1 AND event_time <= $2
		ORDER BY event_time ASC`, scenarioID, asOf)
	if err != nil {
		return nil, fmt.Errorf("store: query events up to: %w", err)
	}
	defer rows.Close()

	var out []models.SimEvent
	for rows.Next() {
		var e models.SimEvent
		var detailRaw []byte
		if err := rows.Scan(&e.ID, &e.ScenarioID, &e.Time, &e.EventType, &e.AssetID, &e.MissionID, &detailRaw); err != nil {
			return nil, fmt.Errorf("store: scan sim event: %w", err)
		}
		if len(detailRaw) > 0 {
			if err := json.Unmarshal(detailRaw, &e.Detail); err != nil {
				return nil, fmt.Errorf("store: unmarshal event detail: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListEventsByScenario returns a scenario's most recent events, newest
// first, capped at limit (0 means unbounded) — the read path behind the
// events API resource, as distinct from EventsUpTo's replay-ordered feed.
func (c *Client) ListEventsByScenario(ctx context.Context, scenarioID string, limit int) ([]models.SimEvent, error) {
	query := `
		SELECT id, scenario_id, event_time, event_type, asset_id, mission_id, detail
		FROM sim_events WHERE scenario_id = $1
		ORDER BY event_time DESC`
	args := []any{scenarioID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list events by scenario: %w", err)
	}
	defer rows.Close()

	var out []models.SimEvent
	for rows.Next() {
		var e models.SimEvent
		var detailRaw []byte
		if err := rows.Scan(&e.ID, &e.ScenarioID, &e.Time, &e.EventType, &e.AssetID, &e.MissionID, &detailRaw); err != nil {
			return nil, fmt.Errorf("store: scan sim event: %w", err)
		}
		if len(detailRaw) > 0 {
			if err := json.Unmarshal(detailRaw, &e.Detail); err != nil {
				return nil, fmt.Errorf("store: unmarshal event detail: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListDecisionEventsByScenario returns a scenario's DECISION_REQUIRED events,
// newest first — each carries its four fixed response options in Detail.
func (c *Client) ListDecisionEventsByScenario(ctx context.Context, scenarioID string) ([]models.SimEvent, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, scenario_id, event_time, event_type, asset_id, mission_id, detail
		FROM sim_events WHERE scenario_id = $1 AND event_type = $2
		ORDER BY event_time DESC`, scenarioID, models.EventDecisionRequired)
	if err != nil {
		return nil, fmt.Errorf("store: list decision events: %w", err)
	}
	defer rows.Close()

	var out []models.SimEvent
	for rows.Next() {
		var e models.SimEvent
		var detailRaw []byte
		if err := rows.Scan(&e.ID, &e.ScenarioID, &e.Time, &e.EventType, &e.AssetID, &e.MissionID, &detailRaw); err != nil {
			return nil, fmt.Errorf("store: scan sim event: %w", err)
		}
		if len(detailRaw) > 0 {
			if err := json.Unmarshal(detailRaw, &e.Detail); err != nil {
				return nil, fmt.Errorf("store: unmarshal event detail: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// LogAttempt implements pkg/retrylog.Logger.
func (c *Client) LogAttempt(ctx context.Context, entry models.GenerationLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO generation_logs (id, scenario_id, step, artifact, attempt, status, prompt_tokens, output_tokens, output_length, duration_ms, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		entry.ID, entry.ScenarioID, entry.Step, entry.Artifact, entry.Attempt, entry.Status,
		entry.PromptTokens, entry.OutputTokens, entry.OutputLength, entry.DurationMs, entry.Message, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: log generation attempt: %w", err)
	}
	return nil
}
