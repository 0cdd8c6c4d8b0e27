package crew

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/bububa/codecrew/agents"
	"github.com/bububa/codecrew/components"
)

// Printer writes the transcript of verbose agents
type Printer struct {
	mu          sync.Mutex
	w           io.Writer
	role        *color.Color
	thought     *color.Color
	action      *color.Color
	observation *color.Color
	failure     *color.Color
	answer      *color.Color
}

// NewPrinter returns a Printer writing to w
func NewPrinter(w io.Writer) *Printer {
	return &Printer{
		w:           w,
		role:        color.New(color.FgMagenta, color.Bold),
		thought:     color.New(color.FgWhite),
		action:      color.New(color.FgCyan),
		observation: color.New(color.FgYellow),
		failure:     color.New(color.FgRed),
		answer:      color.New(color.FgGreen),
	}
}

func (p *Printer) TaskStart(role string, task string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "\nWorking Agent: %s\n", p.role.Sprint(role))
	fmt.Fprintf(p.w, "Starting Task: %s\n\n", strings.TrimSpace(task))
}

func (p *Printer) Step(role string, step *agents.Step) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if step.Thought != "" {
		p.thought.Fprintf(p.w, "Thought: %s\n", step.Thought)
	}
	if step.Action != "" {
		p.action.Fprintf(p.w, "Action: %s\nAction Input: %s\n", step.Action, step.ActionInput)
	}
	if step.FinalAnswer != "" {
		p.answer.Fprintf(p.w, "Final Answer: %s\n", step.FinalAnswer)
	}
}

func (p *Printer) Observation(role string, callback components.ToolCallback) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if callback.IsError {
		p.failure.Fprintf(p.w, "Observation: %s\n\n", callback.Content)
		return
	}
	p.observation.Fprintf(p.w, "Observation: %s\n\n", callback.Content)
}

func (p *Printer) TaskEnd(role string, output string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "\n[%s] Task output: %s\n", p.role.Sprint(role), output)
}
