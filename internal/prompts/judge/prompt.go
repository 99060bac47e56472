// Package judge holds the prompt and output schema for the optional
// coverage-quality judge.
package judge

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
	SystemPromptKey = "conversion.judge.system"
	UserPromptKey   = "conversion.judge.user"
)

// UserPromptData feeds the user prompt template.
type UserPromptData struct {
	RawText       string
	GeneratedJSON string
}

// SystemPrompt returns the system prompt for coverage judging.
func SystemPrompt() string {
	return systemPrompt
}

// UserPrompt builds the user prompt for coverage judging.
func UserPrompt(data UserPromptData) string {
	var buf bytes.Buffer
	if err := userTemplate.Execute(&buf, data); err != nil {
		return userPromptTmpl
	}
	return buf.String()
}
