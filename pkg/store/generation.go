package store

import (
	"context"
	"fmt"

	"github.com/neg-0/overwatch/pkg/models"
)

// DeleteStrategyDocumentsByTiers removes every StrategyDocument (and
// cascaded priorities) whose tier is in tiers, for a scenario. The
// Strategic Context and Campaign Plan generation steps each own a
// disjoint tier range, so this scopes regeneration to one step's own
// prior output without disturbing the other's.
func (c *Client) DeleteStrategyDocumentsByTiers(ctx context.Context, scenarioID string, tiers []models.StrategyTier) error {
	if len(tiers) == 0 {
		return nil
	}
	args := make([]any, 0, len(tiers)+1)
	args = append(args, scenarioID)
	placeholders := ""
	for i, t := range tiers {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += fmt.Sprintf("$%d", i+2)
		args = append(args, int(t))
	}
	_, err := c.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM strategy_documents WHERE scenario_id = $1 AND tier IN (%s)`, placeholders), args...)
	if err != nil {
		return fmt.Errorf("store: delete strategy documents: %w", err)
	}
	return nil
}

// DeletePlanningDocumentsByType removes every PlanningDocument of one
// doc type (and cascaded priority entries / scenario injects) for a
// scenario, so the Planning Documents and MSEL Injects steps can each
// regenerate their own slice without disturbing the other's output.
func (c *Client) DeletePlanningDocumentsByType(ctx context.Context, scenarioID string, docType models.PlanningDocType) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM planning_documents WHERE scenario_id = $1 AND doc_type = $2`, scenarioID, docType)
	if err != nil {
		return fmt.Errorf("store: delete planning documents: %w", err)
	}
	return nil
}

// DeleteTaskingOrdersByScenario removes every TaskingOrder (and cascaded
// packages/missions/children) for a scenario, making the MAAP generation
// step idempotent.
func (c *Client) DeleteTaskingOrdersByScenario(ctx context.Context, scenarioID string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM tasking_orders WHERE scenario_id = $1`, scenarioID)
	if err != nil {
		return fmt.Errorf("store: delete tasking orders: %w", err)
	}
	return nil
}
