package convert

import "encoding/json"

// Schema is the JSON schema for chunk conversion output.
var Schema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"panels": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"index": map[string]any{
						"type":        "integer",
						"description": "Panel number within this chunk, starting at 1",
					},
					"description": map[string]any{
						"type":        "string",
						"description": "Visual description of the panel",
					},
					"dialogues": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"speaker": map[string]any{"type": "string"},
								"text":    map[string]any{"type": "string"},
							},
							"required":             []string{"speaker", "text"},
							"additionalProperties": false,
						},
					},
					"narration": map[string]any{
						"type":        "string",
						"description": "Narration caption, empty if none",
					},
				},
				"required":             []string{"index", "description"},
				"additionalProperties": false,
			},
		},
	},
	"required":             []string{"panels"},
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
