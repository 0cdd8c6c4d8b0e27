package cot

import (
	"fmt"
	"strings"

	"github.com/bububa/codecrew/components/systemprompt"
)

const (
	identitySection = "IDENTITY and PURPOSE"
	stepsSection    = "INTERNAL ASSISTANT STEPS"
	outputSection   = "OUTPUT INSTRUCTIONS"
	contextSection  = "EXTRA INFORMATION AND CONTEXT"
)

// Generator is Chain-of-Thought system prompt generator
type Generator struct {
	systemprompt.BaseGenerator
	background      []string
	steps           []string
	outputInstructs []string
}

var _ systemprompt.Generator = (*Generator)(nil)

// New returns a new system prompt Generator
func New(options ...Option) *Generator {
	ret := new(Generator)
	for _, opt := range options {
		opt(ret)
	}
	if len(ret.background) == 0 {
		ret.background = []string{"- This is a conversation with a helpful and friendly AI assistant."}
	}
	ret.outputInstructs = append(ret.outputInstructs, "- Always respond using the proper JSON schema.", "- Always use the available additional information and context to enhance the response.")
	return ret
}

func (g *Generator) Generate() string {
	var (
		sections = map[string][]string{
			identitySection: g.background,
			stepsSection:    g.steps,
			outputSection:   g.outputInstructs,
		}
		promptParts []string
	)
	for _, title := range []string{identitySection, stepsSection, outputSection} {
		content := sections[title]
		if len(content) > 0 {
			promptParts = append(promptParts, fmt.Sprintf("# %s", title))
			promptParts = append(promptParts, content...)
			promptParts = append(promptParts, "")
		}
	}
	if providers := g.ContextProviders(); len(providers) > 0 {
		header := false
		for _, provider := range providers {
			info := provider.Info()
			if info == "" {
				continue
			}
			if !header {
				promptParts = append(promptParts, fmt.Sprintf("# %s", contextSection))
				header = true
			}
			promptParts = append(promptParts, fmt.Sprintf("## %s", provider.Title()), info, "")
		}
	}
	return strings.TrimSpace(strings.Join(promptParts, "\n"))
}
