package episodes

import "encoding/json"

// Schema is the JSON schema for episode break suggestion output.
var Schema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"episodes": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"number": map[string]any{
						"type":        "integer",
						"description": "Episode number, starting at 1",
					},
					"start_panel": map[string]any{
						"type":        "integer",
						"description": "First panel of the episode (1-based, inclusive)",
					},
					"end_panel": map[string]any{
						"type":        "integer",
						"description": "Last panel of the episode (1-based, inclusive)",
					},
					"title": map[string]any{
						"type":        "string",
						"description": "Short episode title",
					},
					"description": map[string]any{
						"type":        "string",
						"description": "One-sentence episode summary",
					},
				},
				"required":             []string{"number", "start_panel", "end_panel"},
				"additionalProperties": false,
			},
		},
	},
	"required":             []string{"episodes"},
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
