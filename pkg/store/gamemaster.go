package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/neg-0/overwatch/pkg/models"
)

// The methods in this file satisfy pkg/gamemaster.Store: context-packet
// reads (current priorities, the latest planning document of a given type)
// plus the standalone priority-entry insert BDA uses to append DEGRADED/
// RE-STRIKE entries onto an existing JIPTL without recreating it.

// LatestPlanningDocumentByType generalizes MostRecentJIPTL to any
// PlanningDocType, used by the Game Master to pull the latest MAAP excerpt
// into a generation context packet.
func (c *Client) LatestPlanningDocumentByType(ctx context.Context, scenarioID string, docType models.PlanningDocType) (*models.PlanningDocument, bool, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT id, scenario_id, doc_type, strategy_doc_id, title, content, created_at
		FROM planning_documents
		WHERE scenario_id = $1 AND doc_type = $2
		ORDER BY created_at DESC LIMIT 1`, scenarioID, docType)

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

// PlanningDocumentPriorities returns a planning document's ranked priority
// entries, the JIPTL's own tasking list the Game Master reads for its
// priorities summary and appends DEGRADED/RE-STRIKE entries to after BDA.
func (c *Client) PlanningDocumentPriorities(ctx context.Context, planningDocID string) ([]models.PriorityEntry, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, planning_doc_id, rank, effect, description, strategy_priority_id, overlap_ratio
		FROM priority_entries WHERE planning_doc_id = $1 ORDER BY rank`, planningDocID)
	if err != nil {
		return nil, fmt.Errorf("store: query priority entries: %w", err)
	}
	defer rows.Close()

	var out []models.PriorityEntry
	for rows.Next() {
		var p models.PriorityEntry
		var spID sql.NullString
		if err := rows.Scan(&p.ID, &p.PlanningDocID, &p.Rank, &p.Effect, &p.Description, &spID, &p.OverlapRatio); err != nil {
			return nil, fmt.Errorf("store: scan priority entry: %w", err)
		}
		if spID.Valid {
			p.StrategyPriorityID = &spID.String
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// AddPriorityEntry appends one ranked entry to an existing planning
// document, ranked after whatever already exists. BDA uses this to record
// DEGRADED/RE-STRIKE follow-on tasking on the current JIPTL without
// recreating the whole document.
func (c *Client) AddPriorityEntry(ctx context.Context, planningDocID string, entry *models.PriorityEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Rank == 0 {
		var maxRank sql.NullInt64
		if err := c.db.QueryRowContext(ctx, `SELECT max(rank) FROM priority_entries WHERE planning_doc_id = $1`, planningDocID).Scan(&maxRank); err != nil {
			return fmt.Errorf("store: max priority rank: %w", err)
		}
		entry.Rank = int(maxRank.Int64) + 1
	}
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO priority_entries (id, planning_doc_id, rank, effect, description, strategy_priority_id, overlap_ratio)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, planningDocID, entry.Rank, entry.Effect, entry.Description, entry.StrategyPriorityID, entry.OverlapRatio)
	if err != nil {
		return fmt.Errorf("store: add priority entry: %w", err)
	}
	return nil
}

// ListMissionsForAtoDay satisfies pkg/gamemaster.Store's narrower view of
// ListMissionsByAtoDay, dropping the package-priority pairing the allocator
// needs but the BDA context packet does not.
func (c *Client) ListMissionsForAtoDay(ctx context.Context, scenarioID string, atoDay int) ([]models.Mission, error) {
	records, err := c.ListMissionsByAtoDay(ctx, scenarioID, atoDay)
	if err != nil {
		return nil, err
	}
	out := make([]models.Mission, len(records))
	for i, r := range records {
		out[i] = r.Mission
	}
	return out, nil
}

// TaskingOrderCount reports how many tasking orders already exist for a
// given ATO day, letting the Game Master and simulation engine tell
// "not yet generated" apart from "generated but empty."
func (c *Client) TaskingOrderCount(ctx context.Context, scenarioID string, atoDay int) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `
		SELECT count(*) FROM tasking_orders WHERE scenario_id = $1 AND ato_day_number = $2`, scenarioID, atoDay).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("store: tasking order count: %w", err)
	}
	return n, nil
}

