package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/neg-0/overwatch/pkg/models"
)

// CreateSpaceAsset inserts one friendly or hostile satellite for a scenario.
func (c *Client) CreateSpaceAsset(ctx context.Context, a *models.SpaceAsset) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	capabilities := make([]string, len(a.Capabilities))
	for i, cap := range a.Capabilities {
		capabilities[i] = string(cap)
	}
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO space_assets (id, scenario_id, name, constellation, affiliation, capabilities, sat_no, tle_line1, tle_line2, inclination_deg, period_min, eccentricity, base_lon, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		a.ID, a.ScenarioID, a.Name, a.Constellation, a.Affiliation, capabilities, a.SatNo,
		a.TLELine1, a.TLELine2, a.InclinationDeg, a.PeriodMin, a.Eccentricity, a.BaseLon, a.Status)
	if err != nil {
		return fmt.Errorf("store: create space asset: %w", err)
	}
	return nil
}

// ListSpaceAssetsByScenario returns every SpaceAsset owned by a scenario.
func (c *Client) ListSpaceAssetsByScenario(ctx context.Context, scenarioID string) ([]models.SpaceAsset, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, scenario_id, name, constellation, affiliation, capabilities, sat_no, tle_line1, tle_line2, inclination_deg, period_min, eccentricity, base_lon, status
		FROM space_assets WHERE scenario_id = $1 ORDER BY name`, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("store: list space assets: %w", err)
	}
	defer rows.Close()

	var out []models.SpaceAsset
	for rows.Next() {
		var a models.SpaceAsset
		var capabilities []string
		if err := rows.Scan(&a.ID, &a.ScenarioID, &a.Name, &a.Constellation, &a.Affiliation, &capabilities, &a.SatNo,
			&a.TLELine1, &a.TLELine2, &a.InclinationDeg, &a.PeriodMin, &a.Eccentricity, &a.BaseLon, &a.Status); err != nil {
			return nil, fmt.Errorf("store: scan space asset: %w", err)
		}
		a.Capabilities = make([]models.CapabilityType, len(capabilities))
		for i, cap := range capabilities {
			a.Capabilities[i] = models.CapabilityType(cap)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteSpaceAssetsByScenario removes every SpaceAsset (and cascaded
// coverage windows) for a scenario, making the Space Constellation
// generation step idempotent.
func (c *Client) DeleteSpaceAssetsByScenario(ctx context.Context, scenarioID string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM space_assets WHERE scenario_id = $1`, scenarioID)
	if err != nil {
		return fmt.Errorf("store: delete space assets: %w", err)
	}
	return nil
}
