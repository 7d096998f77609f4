package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/neg-0/overwatch/pkg/models"
)

// GetSpaceAsset loads a single SpaceAsset by ID.
func (c *Client) GetSpaceAsset(ctx context.Context, assetID string) (*models.SpaceAsset, bool, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT id, scenario_id, name, constellation, affiliation, capabilities, sat_no, tle_line1, tle_line2,
		       inclination_deg, period_min, eccentricity, base_lon, status
		FROM space_assets WHERE id = $1`, assetID)

	var a models.SpaceAsset
	var capabilities []string
	err := row.Scan(&a.ID, &a.ScenarioID, &a.Name, &a.Constellation, &a.Affiliation, &capabilities, &a.SatNo,
		&a.TLELine1, &a.TLELine2, &a.InclinationDeg, &a.PeriodMin, &a.Eccentricity, &a.BaseLon, &a.Status)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: get space asset: %w", err)
	}
	a.Capabilities = make([]models.CapabilityType, len(capabilities))
	for i, cap := range capabilities {
		a.Capabilities[i] = models.CapabilityType(cap)
	}
	return &a, true, nil
}

// UpdateAssetStatus applies the MSEL SPACE inject effect or any other
// operational-status change to a SpaceAsset.
func (c *Client) UpdateAssetStatus(ctx context.Context, assetID string, status models.AssetStatus) error {
	_, err := c.db.ExecContext(ctx, `UPDATE space_assets SET status = $1 WHERE id = $2`, status, assetID)
	if err != nil {
		return fmt.Errorf("store: update asset status: %w", err)
	}
	return nil
}

// RandomOperationalAsset picks one OPERATIONAL friendly or hostile asset at
// random (for the MSEL SPACE inject effect, which degrades a satellite it
// doesn't otherwise target by name).
func (c *Client) RandomOperationalAsset(ctx context.Context, scenarioID string) (*models.SpaceAsset, bool, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT id, scenario_id, name, constellation, affiliation, capabilities, sat_no, tle_line1, tle_line2,
		       inclination_deg, period_min, eccentricity, base_lon, status
		FROM space_assets WHERE scenario_id = $1 AND status = $2
		ORDER BY random() LIMIT 1`, scenarioID, models.AssetOperational)

	var a models.SpaceAsset
	var capabilities []string
	err := row.Scan(&a.ID, &a.ScenarioID, &a.Name, &a.Constellation, &a.Affiliation, &capabilities, &a.SatNo,
		&a.TLELine1, &a.TLELine2, &a.InclinationDeg, &a.PeriodMin, &a.Eccentricity, &a.BaseLon, &a.Status)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: random operational asset: %w", err)
	}
	a.Capabilities = make([]models.CapabilityType, len(capabilities))
	for i, cap := range capabilities {
		a.Capabilities[i] = models.CapabilityType(cap)
	}
	return &a, true, nil
}
