// Package convert holds the prompt and output schema for chunk-to-panel
// conversion.
package convert

import (
	"bytes"
	_ "embed"
	"text/template"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed user.tmpl
var userPromptTmpl string

var userTemplate = template.Must(template.New("user").Parse(userPromptTmpl))

// Prompt keys
const (
	SystemPromptKey = "conversion.chunk.system"
	UserPromptKey   = "conversion.chunk.user"
)

// UserPromptData feeds the user prompt template.
type UserPromptData struct {
	ChunkText   string
	PrevSummary string
	NextSummary string
	Analysis    string
}

// SystemPrompt returns the system prompt for chunk conversion.
func SystemPrompt() string {
	return systemPrompt
}

// UserPrompt builds the user prompt for chunk conversion.
func UserPrompt(data UserPromptData) string {
	var buf bytes.Buffer
	if err := userTemplate.Execute(&buf, data); err != nil {
		return userPromptTmpl
	}
	return buf.String()
}
