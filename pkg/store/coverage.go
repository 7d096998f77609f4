package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neg-0/overwatch/pkg/models"
)

// CreateCoverageWindowDedup inserts a materialized AOS/LOS window, silently
// skipping an identical (asset, capability, start, end) row a prior
// coverage cycle already persisted.
func (c *Client) CreateCoverageWindowDedup(ctx context.Context, w *models.SpaceCoverageWindow) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO space_coverage_windows (id, scenario_id, asset_id, asset_name, capability, start_time, end_time, max_elevation, center_lat, center_lon, swath_width_km)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (asset_id, capability, start_time, end_time) DO NOTHING`,
		w.ID, w.ScenarioID, w.AssetID, w.AssetName, w.Capability, w.Start, w.End, w.MaxElevation, w.CenterLat, w.CenterLon, w.SwathWidthKm)
	if err != nil {
		return fmt.Errorf("store: create coverage window: %w", err)
	}
	return nil
}

// ListCoverageWindowsByScenario returns every materialized coverage window
// for a scenario, newest-start first.
func (c *Client) ListCoverageWindowsByScenario(ctx context.Context, scenarioID string) ([]models.SpaceCoverageWindow, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, scenario_id, asset_id, asset_name, capability, start_time, end_time, max_elevation, center_lat, center_lon, swath_width_km
		FROM space_coverage_windows WHERE scenario_id = $1 ORDER BY start_time DESC`, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("store: list coverage windows: %w", err)
	}
	defer rows.Close()

	var out []models.SpaceCoverageWindow
	for rows.Next() {
		var w models.SpaceCoverageWindow
		if err := rows.Scan(&w.ID, &w.ScenarioID, &w.AssetID, &w.AssetName, &w.Capability, &w.Start, &w.End,
			&w.MaxElevation, &w.CenterLat, &w.CenterLon, &w.SwathWidthKm); err != nil {
			return nil, fmt.Errorf("store: scan coverage window: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// ListSpaceNeedsActiveAt returns every SpaceNeed across a scenario whose
// time window contains instant, for the coverage cycle's gap/fulfillment
// pass.
func (c *Client) ListSpaceNeedsActiveAt(ctx context.Context, scenarioID string, instant time.Time) ([]models.SpaceNeed, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT n.id, n.mission_id, n.capability_type, n.priority_rank, n.strategy_rank, n.start_time, n.end_time,
		       n.coverage_lat, n.coverage_lon, n.fallback_capability, n.mission_criticality, n.fulfilled
		FROM space_needs n
		JOIN missions m ON m.id = n.mission_id
		JOIN mission_packages mp ON mp.id = m.mission_package_id
		JOIN tasking_orders t ON t.id = mp.tasking_order_id
		WHERE t.scenario_id = $1 AND n.start_time <= $2 AND n.end_time >= $2`, scenarioID, instant)
	if err != nil {
		return nil, fmt.Errorf("store: list active space needs: %w", err)
	}
	defer rows.Close()
	return scanSpaceNeeds(rows)
}

// ListUnfulfilledSpaceNeedsByScenario returns every SpaceNeed not yet marked
// fulfilled, used by the allocator's contention pass and the gap detector.
func (c *Client) ListUnfulfilledSpaceNeedsByScenario(ctx context.Context, scenarioID string) ([]models.SpaceNeed, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT n.id, n.mission_id, n.capability_type, n.priority_rank, n.strategy_rank, n.start_time, n.end_time,
		       n.coverage_lat, n.coverage_lon, n.fallback_capability, n.mission_criticality, n.fulfilled
		FROM space_needs n
		JOIN missions m ON m.id = n.mission_id
		JOIN mission_packages mp ON mp.id = m.mission_package_id
		JOIN tasking_orders t ON t.id = mp.tasking_order_id
		WHERE t.scenario_id = $1 AND n.fulfilled = false`, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("store: list unfulfilled space needs: %w", err)
	}
	defer rows.Close()
	return scanSpaceNeeds(rows)
}

// MarkSpaceNeedsFulfilled flips the fulfilled flag for the given SpaceNeed
// IDs, the monotone transition CheckFulfillment drives.
func (c *Client) MarkSpaceNeedsFulfilled(ctx context.Context, needIDs []string) error {
	if len(needIDs) == 0 {
		return nil
	}
	_, err := c.db.ExecContext(ctx, `UPDATE space_needs SET fulfilled = true WHERE id = ANY($1)`, needIDs)
	if err != nil {
		return fmt.Errorf("store: mark space needs fulfilled: %w", err)
	}
	return nil
}

func scanSpaceNeeds(rows *sql.Rows) ([]models.SpaceNeed, error) {
	var out []models.SpaceNeed
	for rows.Next() {
		var n models.SpaceNeed
		var fallback sql.NullString
		if err := rows.Scan(&n.ID, &n.MissionID, &n.CapabilityType, &n.PriorityRank, &n.StrategyRank,
			&n.StartTime, &n.EndTime, &n.CoverageLat, &n.CoverageLon, &fallback, &n.MissionCriticality, &n.Fulfilled); err != nil {
			return nil, fmt.Errorf("store: scan space need: %w", err)
		}
		if fallback.Valid {
			fb := models.CapabilityType(fallback.String)
			n.FallbackCapability = &fb
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
