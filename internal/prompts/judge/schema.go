package judge

import "encoding/json"

// Schema is the JSON schema for coverage judge output.
var Schema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"coverage_ratio": map[string]any{
			"type":        "number",
			"minimum":     0,
			"maximum":     1,
			"description": "Fraction of source content that survived conversion",
		},
		"missing_points": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "Concrete story points absent from the script",
		},
		"over_summarized": map[string]any{
			"type":        "boolean",
			"description": "True if scenes were collapsed into exposition",
		},
	},
	"required":             []string{"coverage_ratio", "missing_points", "over_summarized"},
	"additionalProperties": false,
}

// SchemaJSON returns the schema as raw JSON for request formatting and
// local validation.
func SchemaJSON() json.RawMessage {
	data, err := json.Marshal(Schema)
	if err != nil {
		panic(err)
	}
	return data
}
