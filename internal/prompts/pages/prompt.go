// Package pages holds the prompt and output schema for page break
// suggestions.
package pages

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
	SystemPromptKey = "segmentation.pages.system"
	UserPromptKey   = "segmentation.pages.user"
)

// UserPromptData feeds the user prompt template.
type UserPromptData struct {
	TotalPanels      int
	MaxPanelsPerPage int
	PanelsJSON       string
}

// SystemPrompt returns the system prompt for page break suggestions.
func SystemPrompt() string {
	return systemPrompt
}

// UserPrompt builds the user prompt for page break suggestions.
func UserPrompt(data UserPromptData) string {
	var buf bytes.Buffer
	if err := userTemplate.Execute(&buf, data); err != nil {
		return userPromptTmpl
	}
	return buf.String()
}
