package licensepage

import (
	"fmt"
	"strings"

	"github.com/aymerick/raymond"
)

// PreambleContext is the data available to preamble templates.
type PreambleContext struct {
	Project    string `json:"project"`
	CrateCount int    `json:"crate_count"`
	GroupCount int    `json:"group_count"`
	Revision   string `json:"revision"`
	Branch     string `json:"branch"`
	Dirty      bool   `json:"dirty"` // uncommitted changes in the work tree
}

func (c PreambleContext) values() map[string]interface{} {
	return map[string]interface{}{
		"project":     c.Project,
		"crate_count": c.CrateCount,
		"group_count": c.GroupCount,
		"revision":    c.Revision,
		"branch":      c.Branch,
		"dirty":       c.Dirty,
	}
}

// RenderPreamble expands a Handlebars template against ctx. Surrounding
// blank lines are trimmed; an empty template renders to "".
func RenderPreamble(tmpl string, ctx PreambleContext) (string, error) {
	if strings.TrimSpace(tmpl) == "" {
		return "", nil
	}
	out, err := raymond.Render(tmpl, ctx.values())
	if err != nil {
		return "", fmt.Errorf("failed to render preamble template: %w", err)
	}
	return strings.Trim(out, "\n"), nil
}
