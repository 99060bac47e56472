package pages

import "encoding/json"

// Schema is the JSON schema for page break suggestion output.
var Schema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"pages": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"page": map[string]any{
						"type":        "integer",
						"description": "Page number, starting at 1",
					},
					"start_panel": map[string]any{
						"type":        "integer",
						"description": "First panel on the page (1-based, inclusive)",
					},
					"end_panel": map[string]any{
						"type":        "integer",
						"description": "Last panel on the page (1-based, inclusive)",
					},
				},
				"required":             []string{"page", "start_panel", "end_panel"},
				"additionalProperties": false,
			},
		},
	},
	"required":             []string{"pages"},
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
