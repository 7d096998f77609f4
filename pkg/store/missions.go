package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/neg-0/overwatch/pkg/models"
)

// ListMissionsByAtoDay returns every Mission tasked under atoDay's tasking
// orders, fully hydrated (waypoints, time windows, targets, support
// requirements, space needs), each paired with its package's priority rank
// for the allocator's tiebreak.
func (c *Client) ListMissionsByAtoDay(ctx context.Context, scenarioID string, atoDay int) ([]models.MissionRecord, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT m.id, m.mission_package_id, m.mission_id, m.callsign, m.domain, m.platform_type,
		       m.platform_count, m.mission_type, m.status, m.affiliation,
		       mp.priority_rank, mp.tasking_order_id
		FROM missions m
		JOIN mission_packages mp ON mp.id = m.mission_package_id
		JOIN tasking_orders t ON t.id = mp.tasking_order_id
		WHERE t.scenario_id = $1 AND t.ato_day_number = $2`, scenarioID, atoDay)
	if err != nil {
		return nil, fmt.Errorf("store: list missions by ato day: %w", err)
	}
	defer rows.Close()

	var out []models.MissionRecord
	for rows.Next() {
		var r models.MissionRecord
		if err := rows.Scan(&r.Mission.ID, &r.Mission.MissionPackageID, &r.Mission.MissionID, &r.Mission.Callsign,
			&r.Mission.Domain, &r.Mission.PlatformType, &r.Mission.PlatformCount, &r.Mission.MissionType,
			&r.Mission.Status, &r.Mission.Affiliation, &r.PackagePriorityRank, &r.TaskingOrderID); err != nil {
			return nil, fmt.Errorf("store: scan mission: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := c.hydrateMission(ctx, &out[i].Mission); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ListAllMissionsByScenario returns every Mission across a scenario's
// tasking orders regardless of status, unhydrated — the list seek() walks
// when re-deriving mission statuses from the event log.
func (c *Client) ListAllMissionsByScenario(ctx context.Context, scenarioID string) ([]models.Mission, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT m.id, m.mission_package_id, m.mission_id, m.callsign, m.domain, m.platform_type,
		       m.platform_count, m.mission_type, m.status, m.affiliation
		FROM missions m
		JOIN mission_packages mp ON mp.id = m.mission_package_id
		JOIN tasking_orders t ON t.id = mp.tasking_order_id
		WHERE t.scenario_id = $1`, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("store: list all missions: %w", err)
	}
	defer rows.Close()

	var out []models.Mission
	for rows.Next() {
		var m models.Mission
		if err := rows.Scan(&m.ID, &m.MissionPackageID, &m.MissionID, &m.Callsign, &m.Domain, &m.PlatformType,
			&m.PlatformCount, &m.MissionType, &m.Status, &m.Affiliation); err != nil {
			return nil, fmt.Errorf("store: scan mission: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListActiveMissions returns every non-terminal Mission across a scenario's
// tasking orders, hydrated with waypoints and time windows.
func (c *Client) ListActiveMissions(ctx context.Context, scenarioID string) ([]models.Mission, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT m.id, m.mission_package_id, m.mission_id, m.callsign, m.domain, m.platform_type,
		       m.platform_count, m.mission_type, m.status, m.affiliation
		FROM missions m
		JOIN mission_packages mp ON mp.id = m.mission_package_id
		JOIN tasking_orders t ON t.id = mp.tasking_order_id
		WHERE t.scenario_id = $1 AND m.status != ALL($2)`,
		scenarioID, statusStrings([]models.MissionStatus{models.MissionRecovered, models.MissionLost}))
	if err != nil {
		return nil, fmt.Errorf("store: list active missions: %w", err)
	}
	defer rows.Close()

	var out []models.Mission
	for rows.Next() {
		var m models.Mission
		if err := rows.Scan(&m.ID, &m.MissionPackageID, &m.MissionID, &m.Callsign, &m.Domain, &m.PlatformType,
			&m.PlatformCount, &m.MissionType, &m.Status, &m.Affiliation); err != nil {
			return nil, fmt.Errorf("store: scan active mission: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := c.hydrateMission(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// RandomActiveMission picks one non-terminal, non-delayed mission at random
// (for the MSEL FRICTION inject effect).
func (c *Client) RandomActiveMission(ctx context.Context, scenarioID string) (*models.Mission, bool, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT m.id, m.mission_package_id, m.mission_id, m.callsign, m.domain, m.platform_type,
		       m.platform_count, m.mission_type, m.status, m.affiliation
		FROM missions m
		JOIN mission_packages mp ON mp.id = m.mission_package_id
		JOIN tasking_orders t ON t.id = mp.tasking_order_id
		WHERE t.scenario_id = $1 AND m.status != ALL($2)
		ORDER BY random() LIMIT 1`,
		scenarioID, statusStrings([]models.MissionStatus{models.MissionRecovered, models.MissionLost, models.MissionDelayed}))

	var m models.Mission
	err := row.Scan(&m.ID, &m.MissionPackageID, &m.MissionID, &m.Callsign, &m.Domain, &m.PlatformType,
		&m.PlatformCount, &m.MissionType, &m.Status, &m.Affiliation)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: random active mission: %w", err)
	}
	return &m, true, nil
}

// UpdateMissionStatus applies one state-machine transition.
func (c *Client) UpdateMissionStatus(ctx context.Context, missionID string, status models.MissionStatus) error {
	_, err := c.db.ExecContext(ctx, `UPDATE missions SET status = $1 WHERE id = $2`, status, missionID)
	if err != nil {
		return fmt.Errorf("store: update mission status: %w", err)
	}
	return nil
}

// MissionStatusCounts tallies the previous day's missions by final status,
// feeding the Game Master's previous-day mission-status summary.
func (c *Client) MissionStatusCounts(ctx context.Context, scenarioID string, atoDay int) (map[models.MissionStatus]int, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT m.status, count(*)
		FROM missions m
		JOIN mission_packages mp ON mp.id = m.mission_package_id
		JOIN tasking_orders t ON t.id = mp.tasking_order_id
		WHERE t.scenario_id = $1 AND t.ato_day_number = $2
		GROUP BY m.status`, scenarioID, atoDay)
	if err != nil {
		return nil, fmt.Errorf("store: mission status counts: %w", err)
	}
	defer rows.Close()

	counts := map[models.MissionStatus]int{}
	for rows.Next() {
		var status models.MissionStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("store: scan mission status count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// hydrateMission loads a mission's waypoints, time windows, targets,
// support requirements, and space needs.
func (c *Client) hydrateMission(ctx context.Context, m *models.Mission) error {
	wpRows, err := c.db.QueryContext(ctx, `
		SELECT id, mission_id, sequence, waypoint_type, lat, lon, altitude_ft, speed_kts
		FROM waypoints WHERE mission_id = $1 ORDER BY sequence`, m.ID)
	if err != nil {
		return fmt.Errorf("store: query waypoints: %w", err)
	}
	for wpRows.Next() {
		var wp models.Waypoint
		if err := wpRows.Scan(&wp.ID, &wp.MissionID, &wp.Sequence, &wp.WaypointType, &wp.Lat, &wp.Lon, &wp.AltitudeFt, &wp.SpeedKts); err != nil {
			wpRows.Close()
			return fmt.Errorf("store: scan waypoint: %w", err)
		}
		m.Waypoints = append(m.Waypoints, wp)
	}
	if err := wpRows.Err(); err != nil {
		wpRows.Close()
		return err
	}
	wpRows.Close()

	twRows, err := c.db.QueryContext(ctx, `
		SELECT id, mission_id, window_type, start_time, end_time
		FROM time_windows WHERE mission_id = $1 ORDER BY start_time`, m.ID)
	if err != nil {
		return fmt.Errorf("store: query time windows: %w", err)
	}
	for twRows.Next() {
		var tw models.TimeWindow
		if err := twRows.Scan(&tw.ID, &tw.MissionID, &tw.WindowType, &tw.Start, &tw.End); err != nil {
			twRows.Close()
			return fmt.Errorf("store: scan time window: %w", err)
		}
		m.TimeWindows = append(m.TimeWindows, tw)
	}
	if err := twRows.Err(); err != nil {
		twRows.Close()
		return err
	}
	twRows.Close()

	needRows, err := c.db.QueryContext(ctx, `
		SELECT id, mission_id, capability_type, priority_rank, strategy_rank, start_time, end_time,
		       coverage_lat, coverage_lon, fallback_capability, mission_criticality, fulfilled
		FROM space_needs WHERE mission_id = $1`, m.ID)
	if err != nil {
		return fmt.Errorf("store: query space needs: %w", err)
	}
	for needRows.Next() {
		var n models.SpaceNeed
		var fallback sql.NullString
		if err := needRows.Scan(&n.ID, &n.MissionID, &n.CapabilityType, &n.PriorityRank, &n.StrategyRank,
			&n.StartTime, &n.EndTime, &n.CoverageLat, &n.CoverageLon, &fallback, &n.MissionCriticality, &n.Fulfilled); err != nil {
			needRows.Close()
			return fmt.Errorf("store: scan space need: %w", err)
		}
		if fallback.Valid {
			fb := models.CapabilityType(fallback.String)
			n.FallbackCapability = &fb
		}
		m.SpaceNeeds = append(m.SpaceNeeds, n)
	}
	if err := needRows.Err(); err != nil {
		needRows.Close()
		return err
	}
	needRows.Close()

	tgtRows, err := c.db.QueryContext(ctx, `
		SELECT id, mission_id, name, lat, lon, target_type FROM mission_targets WHERE mission_id = $1`, m.ID)
	if err != nil {
		return fmt.Errorf("store: query mission targets: %w", err)
	}
	for tgtRows.Next() {
		var tgt models.MissionTarget
		if err := tgtRows.Scan(&tgt.ID, &tgt.MissionID, &tgt.Name, &tgt.Lat, &tgt.Lon, &tgt.TargetType); err != nil {
			tgtRows.Close()
			return fmt.Errorf("store: scan mission target: %w", err)
		}
		m.Targets = append(m.Targets, tgt)
	}
	if err := tgtRows.Err(); err != nil {
		tgtRows.Close()
		return err
	}
	tgtRows.Close()

	srRows, err := c.db.QueryContext(ctx, `
		SELECT id, mission_id, support_type, description FROM support_requirements WHERE mission_id = $1`, m.ID)
	if err != nil {
		return fmt.Errorf("store: query support requirements: %w", err)
	}
	for srRows.Next() {
		var sr models.SupportRequirement
		if err := srRows.Scan(&sr.ID, &sr.MissionID, &sr.SupportType, &sr.Description); err != nil {
			srRows.Close()
			return fmt.Errorf("store: scan support requirement: %w", err)
		}
		m.SupportRequirements = append(m.SupportRequirements, sr)
	}
	if err := srRows.Err(); err != nil {
		srRows.Close()
		return err
	}
	srRows.Close()

	return nil
}

func statusStrings(statuses []models.MissionStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
