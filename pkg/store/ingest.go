package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neg-0/overwatch/pkg/models"
)

// The methods in this file satisfy pkg/ingest.Store: they give the document
// ingest pipeline everywhere it needs to read the strategy/planning
// cascade and write newly materialized entities.

func (c *Client) HighestTierStrategyDocBelow(ctx context.Context, scenarioID string, tier models.StrategyTier) (*models.StrategyDocument, bool, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT id, scenario_id, tier, doc_type, parent_doc_id, authority_level, title, content, effective_date, created_at
		FROM strategy_documents
		WHERE scenario_id = $1 AND tier < $2
		ORDER BY tier DESC
		LIMIT 1`, scenarioID, tier)
	return scanStrategyDocument(row)
}

func (c *Client) HighestTierStrategyDoc(ctx context.Context, scenarioID string) (*models.StrategyDocument, bool, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT id, scenario_id, tier, doc_type, parent_doc_id, authority_level, title, content, effective_date, created_at
		FROM strategy_documents
		WHERE scenario_id = $1
		ORDER BY tier DESC
		LIMIT 1`, scenarioID)
	return scanStrategyDocument(row)
}

func scanStrategyDocument(row *sql.Row) (*models.StrategyDocument, bool, error) {
	var doc models.StrategyDocument
	var parentDocID sql.NullString
	err := row.Scan(&doc.ID, &doc.ScenarioID, &doc.Tier, &doc.DocType, &parentDocID,
		&doc.AuthorityLevel, &doc.Title, &doc.Content, &doc.EffectiveDate, &doc.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: scan strategy document: %w", err)
	}
	if parentDocID.Valid {
		doc.ParentDocID = &parentDocID.String
	}
	return &doc, true, nil
}

// execer is the subset of *sql.DB / *sql.Tx the tree-shaped inserts below
// need; it lets createMission and its siblings run inside a transaction
// without caring whether they were handed a pool or an open tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// CreateStrategyDocument persists a strategy document and its priorities as
// one transactional unit: on failure, no partial document is observable.
func (c *Client) CreateStrategyDocument(ctx context.Context, doc *models.StrategyDocument) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin strategy document tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO strategy_documents (id, scenario_id, tier, doc_type, parent_doc_id, authority_level, title, content, effective_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		doc.ID, doc.ScenarioID, doc.Tier, doc.DocType, doc.ParentDocID, doc.AuthorityLevel, doc.Title, doc.Content, doc.EffectiveDate, doc.CreatedAt); err != nil {
		return fmt.Errorf("store: create strategy document: %w", err)
	}

	for _, pr := range doc.Priorities {
		if pr.ID == "" {
			pr.ID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO strategy_priorities (id, strategy_doc_id, rank, objective, description)
			VALUES ($1, $2, $3, $4, $5)`, pr.ID, doc.ID, pr.Rank, pr.Objective, pr.Description); err != nil {
			return fmt.Errorf("store: create strategy priority: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit strategy document: %w", err)
	}
	return nil
}

func (c *Client) StrategyPriorities(ctx context.Context, strategyDocID string) ([]models.StrategyPriority, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, strategy_doc_id, rank, objective, description
		FROM strategy_priorities WHERE strategy_doc_id = $1 ORDER BY rank`, strategyDocID)
	if err != nil {
		return nil, fmt.Errorf("store: query strategy priorities: %w", err)
	}
	defer rows.Close()

	var out []models.StrategyPriority
	for rows.Next() {
		var p models.StrategyPriority
		if err := rows.Scan(&p.ID, &p.StrategyDocID, &p.Rank, &p.Objective, &p.Description); err != nil {
			return nil, fmt.Errorf("store: scan strategy priority: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (c *Client) MostRecentJIPTL(ctx context.Context, scenarioID string) (*models.PlanningDocument, bool, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT id, scenario_id, doc_type, strategy_doc_id, title, content, created_at
		FROM planning_documents
		WHERE scenario_id = $1 AND doc_type = $2
		ORDER BY created_at DESC LIMIT 1`, scenarioID, models.PlanJIPTL)
	var doc models.PlanningDocument
	var strategyDocID sql.NullString
	err := row.Scan(&doc.ID, &doc.ScenarioID, &doc.DocType, &strategyDocID, &doc.Title, &doc.Content, &doc.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: scan planning document: %w", err)
	}
	if strategyDocID.Valid {
		doc.StrategyDocID = &strategyDocID.String
	}
	return &doc, true, nil
}

func (c *Client) CreatePlanningDocument(ctx context.Context, doc *models.PlanningDocument) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO planning_documents (id, scenario_id, doc_type, strategy_doc_id, title, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		doc.ID, doc.ScenarioID, doc.DocType, doc.StrategyDocID, doc.Title, doc.Content, doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: create planning document: %w", err)
	}

	for _, entry := range doc.Priorities {
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		if _, err := c.db.ExecContext(ctx, `
			INSERT INTO priority_entries (id, planning_doc_id, rank, effect, description, strategy_priority_id, overlap_ratio)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			entry.ID, doc.ID, entry.Rank, entry.Effect, entry.Description, entry.StrategyPriorityID, entry.OverlapRatio); err != nil {
			return fmt.Errorf("store: create priority entry: %w", err)
		}
	}
	return nil
}

// CreateTaskingOrder persists an order and its full package/mission/child
// tree as one transactional unit: on failure, no partial order is
// observable.
func (c *Client) CreateTaskingOrder(ctx context.Context, order *models.TaskingOrder) error {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tasking order tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO tasking_orders (id, scenario_id, order_type, ato_day_number, effective_start, effective_end, planning_doc_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		order.ID, order.ScenarioID, order.OrderType, order.AtoDayNumber, order.EffectiveStart, order.EffectiveEnd, order.PlanningDocID, order.CreatedAt); err != nil {
		return fmt.Errorf("store: create tasking order: %w", err)
	}

	for _, pkg := range order.Packages {
		if pkg.ID == "" {
			pkg.ID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO mission_packages (id, tasking_order_id, package_id, priority_rank, mission_type, effect_desired)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			pkg.ID, order.ID, pkg.PackageID, pkg.PriorityRank, pkg.MissionType, pkg.EffectDesired); err != nil {
			return fmt.Errorf("store: create mission package: %w", err)
		}

		for _, m := range pkg.Missions {
			if err := createMission(ctx, tx, pkg.ID, &m); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit tasking order: %w", err)
	}
	return nil
}

func createMission(ctx context.Context, tx execer, packageID string, m *models.Mission) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO missions (id, mission_package_id, mission_id, callsign, domain, platform_type, platform_count, mission_type, status, affiliation)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		m.ID, packageID, m.MissionID, m.Callsign, m.Domain, m.PlatformType, m.PlatformCount, m.MissionType, m.Status, m.Affiliation)
	if err != nil {
		return fmt.Errorf("store: create mission: %w", err)
	}

	for _, wp := range m.Waypoints {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO waypoints (id, mission_id, sequence, waypoint_type, lat, lon, altitude_ft, speed_kts)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			uuid.NewString(), m.ID, wp.Sequence, wp.WaypointType, wp.Lat, wp.Lon, wp.AltitudeFt, wp.SpeedKts); err != nil {
			return fmt.Errorf("store: create waypoint: %w", err)
		}
	}
	for _, tw := range m.TimeWindows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO time_windows (id, mission_id, window_type, start_time, end_time)
			VALUES ($1, $2, $3, $4, $5)`,
			uuid.NewString(), m.ID, tw.WindowType, tw.Start, tw.End); err != nil {
			return fmt.Errorf("store: create time window: %w", err)
		}
	}
	for _, tgt := range m.Targets {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO mission_targets (id, mission_id, name, lat, lon, target_type)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.NewString(), m.ID, tgt.Name, tgt.Lat, tgt.Lon, tgt.TargetType); err != nil {
			return fmt.Errorf("store: create mission target: %w", err)
		}
	}
	for _, sr := range m.SupportRequirements {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO support_requirements (id, mission_id, support_type, description)
			VALUES ($1, $2, $3, $4)`,
			uuid.NewString(), m.ID, sr.SupportType, sr.Description); err != nil {
			return fmt.Errorf("store: create support requirement: %w", err)
		}
	}
	for _, need := range m.SpaceNeeds {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO space_needs (id, mission_id, capability_type, priority_rank, strategy_rank, start_time, end_time, coverage_lat, coverage_lon, fallback_capability, mission_criticality, fulfilled)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			uuid.NewString(), m.ID, need.CapabilityType, need.PriorityRank, need.StrategyRank, need.StartTime, need.EndTime,
			need.CoverageLat, need.CoverageLon, need.FallbackCapability, need.MissionCriticality, need.Fulfilled); err != nil {
			return fmt.Errorf("store: create space need: %w", err)
		}
	}
	return nil
}

func (c *Client) CreateScenarioInject(ctx context.Context, inject *models.ScenarioInject) error {
	if inject.ID == "" {
		inject.ID = uuid.NewString()
	}
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO scenario_injects (id, scenario_id, planning_doc_id, title, description, impact, trigger_day, trigger_hour, inject_type, fired, fired_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		inject.ID, inject.ScenarioID, inject.PlanningDocID, inject.Title, inject.Description, inject.Impact,
		inject.TriggerDay, inject.TriggerHour, inject.InjectType, inject.Fired, inject.FiredAt)
	if err != nil {
		return fmt.Errorf("store: create scenario inject: %w", err)
	}
	return nil
}

func (c *Client) CreateIngestLog(ctx context.Context, log *models.IngestLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO ingest_logs (id, scenario_id, input_hash, hierarchy_level, document_type, source_format, confidence, parent_link_id, entities_created, review_flag_count, parse_time_ms, success, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		log.ID, log.ScenarioID, log.InputHash, log.HierarchyLevel, log.DocumentType, log.SourceFormat, log.Confidence,
		log.ParentLinkID, log.EntitiesCreated, log.ReviewFlagCount, log.ParseTimeMs, log.Success, log.Error, log.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: create ingest log: %w", err)
	}
	return nil
}

// ListIngestLogsByScenario returns a scenario's ingest pipeline run history,
// newest first — the read path behind the ingest API resource.
func (c *Client) ListIngestLogsByScenario(ctx context.Context, scenarioID string) ([]models.IngestLog, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, scenario_id, input_hash, hierarchy_level, document_type, source_format, confidence,
			parent_link_id, entities_created, review_flag_count, parse_time_ms, success, error, created_at
		FROM ingest_logs WHERE scenario_id = $1
		ORDER BY created_at DESC`, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("store: list ingest logs: %w", err)
	}
	defer rows.Close()

	var out []models.IngestLog
	for rows.Next() {
		var l models.IngestLog
		if err := rows.Scan(&l.ID, &l.ScenarioID, &l.InputHash, &l.HierarchyLevel, &l.DocumentType, &l.SourceFormat,
			&l.Confidence, &l.ParentLinkID, &l.EntitiesCreated, &l.ReviewFlagCount, &l.ParseTimeMs, &l.Success,
			&l.Error, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan ingest log: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (c *Client) ScenarioStart(ctx context.Context, scenarioID string) (time.Time, error) {
	var start time.Time
	err := c.db.QueryRowContext(ctx, `SELECT start_date FROM scenarios WHERE id = $1`, scenarioID).Scan(&start)
	if err != nil {
		return time.Time{}, fmt.Errorf("store: scenario start: %w", err)
	}
	return start, nil
}

// marshalDetail is used by the sim-event repository methods in events.go;
// declared here since ingest.go already imports encoding/json.
func marshalDetail(detail map[string]any) ([]byte, error) {
	if detail == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(detail)
}
