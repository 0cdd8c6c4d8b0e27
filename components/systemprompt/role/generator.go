// Package role generates the system prompt of a role-playing crew agent.
package role

import (
	"fmt"
	"strings"

	"github.com/bububa/codecrew/components/systemprompt"
)

const (
	roleSection    = "ROLE"
	goalSection    = "GOAL"
	outputSection  = "OUTPUT INSTRUCTIONS"
	contextSection = "EXTRA INFORMATION AND CONTEXT"
)

// Generator renders the role, backstory and goal of an agent
type Generator struct {
	systemprompt.BaseGenerator
	role            string
	backstory       string
	goal            string
	outputInstructs []string
}

var _ systemprompt.Generator = (*Generator)(nil)

// New returns a Generator for the agent playing role
func New(role string, options ...Option) *Generator {
	ret := &Generator{role: role}
	for _, opt := range options {
		opt(ret)
	}
	ret.outputInstructs = append(ret.outputInstructs, "- Always respond using the proper JSON schema.")
	return ret
}

func (g *Generator) Generate() string {
	parts := []string{"# " + roleSection, fmt.Sprintf("- You are %s.", g.role)}
	if g.backstory != "" {
		parts = append(parts, "- "+g.backstory)
	}
	parts = append(parts, "")
	if g.goal != "" {
		parts = append(parts, "# "+goalSection, "- Your personal goal is: "+g.goal, "")
	}
	parts = append(parts, "# "+outputSection)
	parts = append(parts, g.outputInstructs...)
	parts = append(parts, "")
	header := false
	for _, provider := range g.ContextProviders() {
		info := provider.Info()
		if info == "" {
			continue
		}
		if !header {
			parts = append(parts, "# "+contextSection)
			header = true
		}
		parts = append(parts, "## "+provider.Title(), info, "")
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}
