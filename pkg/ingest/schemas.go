package ingest

import (
	"github.com/neg-0/overwatch/pkg/llm"
	"github.com/neg-0/overwatch/pkg/models"
)

// classifySystemPrompt instructs the fast-tier model to produce the
// hierarchy classification defined by Classification, nothing else.
const classifySystemPrompt = `You classify military planning documents. Given raw document
text, determine its place in the strategy-to-order document hierarchy: STRATEGY (NDS/NMS/
JSCP/CONPLAN/OPLAN), PLANNING (JIPTL/SPINS/ACO/MAAP), ORDER (ATO/MTO/STO/OPORD/EXORD/
FRAGORD), or EVENT_LIST (MSEL). Respond with the requested JSON object only.`

// classifySchema is the strict JSON schema the classify stage's response
// must conform to.
var classifySchema = llm.Schema{
	Name:   "document_classification",
	Strict: true,
	Schema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"hierarchyLevel":   map[string]any{"type": "string", "enum": []string{"STRATEGY", "PLANNING", "ORDER", "EVENT_LIST"}},
			"documentType":     map[string]any{"type": "string"},
			"sourceFormat":     map[string]any{"type": "string"},
			"confidence":       map[string]any{"type": "number"},
			"title":            map[string]any{"type": "string"},
			"issuingAuthority": map[string]any{"type": "string"},
			"effectiveDateStr": map[string]any{"type": "string"},
		},
		"required": []string{"hierarchyLevel", "documentType", "sourceFormat", "confidence", "title"},
	},
}

// normalizeSystemPrompt selects the instruction matching the document's
// classified hierarchy level; each level gets its own exhaustive-enum schema.
func normalizeSystemPrompt(level models.IngestHierarchyLevel) string {
	switch level {
	case models.HierarchyStrategy:
		return `Extract the strategy document's authority level, effective date, and ranked
priorities as strict JSON. Use typed null for any field you cannot determine.`
	case models.HierarchyPlanning:
		return `Extract the planning document's ranked priority entries (effect + description)
as strict JSON. Use typed null for any field you cannot determine.`
	case models.HierarchyOrder:
		return `Extract the tasking order's packages, missions, waypoints, time windows,
targets, support requirements, and space needs as strict JSON. Coerce every enum field to
its closest documented value; use typed null for any field you cannot determine.`
	case models.HierarchyEventList:
		return `Extract the MSEL's scheduled injects (title, description, impact, DTG,
injectType) as strict JSON.`
	default:
		return `Extract structured fields from this document as strict JSON.`
	}
}

func normalizeSchemaFor(level models.IngestHierarchyLevel) llm.Schema {
	switch level {
	case models.HierarchyStrategy:
		return llm.Schema{Name: "strategy_normalize", Strict: true, Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"authorityLevel": map[string]any{"type": "string"},
				"effectiveDate":  map[string]any{"type": []string{"string", "null"}},
				"priorities": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"rank":        map[string]any{"type": "integer"},
							"objective":   map[string]any{"type": "string"},
							"description": map[string]any{"type": "string"},
						},
						"required": []string{"rank", "objective", "description"},
					},
				},
			},
			"required": []string{"priorities"},
		}}
	case models.HierarchyPlanning:
		return llm.Schema{Name: "planning_normalize", Strict: true, Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"priorities": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"rank":        map[string]any{"type": "integer"},
							"effect":      map[string]any{"type": "string"},
							"description": map[string]any{"type": "string"},
						},
						"required": []string{"rank", "effect", "description"},
					},
				},
			},
			"required": []string{"priorities"},
		}}
	case models.HierarchyOrder:
		return llm.Schema{Name: "order_normalize", Strict: true, Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"orderType":      map[string]any{"type": "string"},
				"atoDayNumber":   map[string]any{"type": "integer"},
				"effectiveStart": map[string]any{"type": "string"},
				"effectiveEnd":   map[string]any{"type": "string"},
				"packages":       map[string]any{"type": "array"},
			},
			"required": []string{"orderType", "packages"},
		}}
	case models.HierarchyEventList:
		return llm.Schema{Name: "event_list_normalize", Strict: true, Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"injects": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"title":       map[string]any{"type": "string"},
							"description": map[string]any{"type": "string"},
							"impact":      map[string]any{"type": "string"},
							"dtg":         map[string]any{"type": "string"},
							"injectType":  map[string]any{"type": "string"},
						},
						"required": []string{"title", "dtg", "injectType"},
					},
				},
			},
			"required": []string{"injects"},
		}}
	default:
		return llm.Schema{Name: "generic_normalize", Strict: false, Schema: map[string]any{"type": "object"}}
	}
}
