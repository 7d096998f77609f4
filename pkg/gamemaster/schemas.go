package gamemaster

import "github.com/neg-0/overwatch/pkg/llm"

// bdaExtractSchema is the strict JSON schema the BDA per-target extraction
// call's response must conform to, mirroring pkg/ingest's schemas.go style.
var bdaExtractSchema = llm.Schema{
	Name:   "bda_target_assessments",
	Strict: true,
	Schema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"assessments": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"targetName":     map[string]any{"type": "string"},
						"damagePercent":  map[string]any{"type": "number"},
						"functionalKill": map[string]any{"type": "boolean"},
						"restrikeNeeded": map[string]any{"type": "boolean"},
					},
					"required": []string{"targetName", "damagePercent", "functionalKill", "restrikeNeeded"},
				},
			},
		},
		"required": []string{"assessments"},
	},
}

// injectSchema is the strict JSON schema a single generated MSEL inject
// must conform to.
var injectSchema = llm.Schema{
	Name:   "msel_inject",
	Strict: true,
	Schema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":       map[string]any{"type": "string"},
			"description": map[string]any{"type": "string"},
			"impact":      map[string]any{"type": "string"},
			"triggerHour": map[string]any{"type": "integer"},
			"injectType":  map[string]any{"type": "string"},
		},
		"required": []string{"title", "description", "impact", "triggerHour", "injectType"},
	},
}
