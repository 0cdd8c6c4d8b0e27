package crew

import (
	"log/slog"

	"github.com/bububa/codecrew/tools"
)

type AgentOption func(a *Agent)

func WithTools(list ...tools.AnonymousTool) AgentOption {
	return func(a *Agent) {
		a.tools = list
	}
}

// WithAgentPrinter prints the agent's steps even when the agent is not verbose
func WithAgentPrinter(p *Printer) AgentOption {
	return func(a *Agent) {
		a.printer = p
	}
}

func WithAgentLogger(l *slog.Logger) AgentOption {
	return func(a *Agent) {
		if l != nil {
			a.logger = l
		}
	}
}

type TaskOption func(t *Task)

// WithTaskName names the task in the crew output
func WithTaskName(name string) TaskOption {
	return func(t *Task) {
		t.Name = name
	}
}

func WithExpectedOutput(expected string) TaskOption {
	return func(t *Task) {
		t.ExpectedOutput = expected
	}
}

// WithContext uses the outputs of other tasks as the task context instead of the previous output
func WithContext(list ...*Task) TaskOption {
	return func(t *Task) {
		t.Context = list
	}
}

type Option func(c *Crew)

// WithAgents sets the crew members, by default the agents of the tasks
func WithAgents(list ...*Agent) Option {
	return func(c *Crew) {
		c.agents = list
	}
}

func WithProcess(p Process) Option {
	return func(c *Crew) {
		c.process = p
	}
}

// WithPrinter prints the transcript of the verbose agents
func WithPrinter(p *Printer) Option {
	return func(c *Crew) {
		c.printer = p
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Crew) {
		if l != nil {
			c.logger = l
		}
	}
}
