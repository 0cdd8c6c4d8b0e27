// Package crew runs role-playing agents through a plan of tasks.
package crew

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/bububa/codecrew/agents"
	"github.com/bububa/codecrew/schema"
	"github.com/bububa/codecrew/tools/delegation"
)

// Process is the execution strategy of a crew
type Process string

// Sequential runs the tasks in order, each one receiving the previous output as context
const Sequential Process = "sequential"

var (
	// ErrNoTasks is returned when a crew kicks off without tasks
	ErrNoTasks = errors.New("crew has no tasks")
	// ErrUnsupportedProcess is returned for a process other than Sequential
	ErrUnsupportedProcess = errors.New("unsupported crew process")
)

// Output is the result of a crew run
type Output struct {
	CrewID string       `json:"crew_id" yaml:"crew_id"`
	Raw    string       `json:"raw" yaml:"raw"`
	Tasks  []TaskOutput `json:"tasks" yaml:"tasks"`
	Usage  Usage        `json:"usage" yaml:"usage"`
}

func (o Output) String() string {
	return o.Raw
}

// Crew is a group of agents working on tasks
type Crew struct {
	id      uuid.UUID
	agents  []*Agent
	tasks   []*Task
	process Process
	printer *Printer
	logger  *slog.Logger
}

// New returns a new Crew for tasks
func New(tasks []*Task, opts ...Option) *Crew {
	ret := &Crew{
		id:      uuid.New(),
		tasks:   tasks,
		process: Sequential,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if len(ret.agents) == 0 {
		ret.agents = taskAgents(tasks)
	}
	return ret
}

func (c *Crew) ID() string {
	return c.id.String()
}

func (c *Crew) Agents() []*Agent {
	return c.agents
}

func (c *Crew) Tasks() []*Task {
	return c.tasks
}

// Kickoff runs every task synchronously and returns the output of the last one.
// Agent failures are returned unchanged.
func (c *Crew) Kickoff(ctx context.Context) (*Output, error) {
	if len(c.tasks) == 0 {
		return nil, ErrNoTasks
	}
	if c.process != Sequential {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProcess, c.process)
	}
	for _, task := range c.tasks {
		if err := validate.Struct(task); err != nil {
			return nil, fmt.Errorf("invalid task %q: %w", task.Name, err)
		}
	}
	c.prepareAgents()
	before := c.usage()
	steps := make([]agents.ChainableAgent, 0, len(c.tasks))
	for _, task := range c.tasks {
		steps = append(steps, &taskStep{task: task, crew: c})
	}
	chain := agents.NewChain[schema.Input, schema.Output](steps...)
	chain.SetName(c.id.String())
	c.logger.InfoContext(ctx, "crew kickoff", "crew", c.id.String(), "tasks", len(c.tasks), "agents", len(c.agents))
	out := new(schema.Output)
	if _, err := chain.Run(ctx, schema.NewInput(""), out); err != nil {
		return nil, err
	}
	ret := &Output{
		CrewID: c.id.String(),
		Raw:    out.ChatMessage,
		Tasks:  make([]TaskOutput, 0, len(c.tasks)),
	}
	for _, task := range c.tasks {
		if o := task.Output(); o != nil {
			ret.Tasks = append(ret.Tasks, *o)
		}
	}
	after := c.usage()
	ret.Usage = Usage{
		Requests:     after.Requests - before.Requests,
		InputTokens:  after.InputTokens - before.InputTokens,
		OutputTokens: after.OutputTokens - before.OutputTokens,
	}
	return ret, nil
}

// prepareAgents gives the delegating agents their co-workers and the verbose ones the printer
func (c *Crew) prepareAgents() {
	for _, agent := range c.agents {
		if agent.printer == nil && agent.Verbose() {
			agent.printer = c.printer
		}
		if !agent.AllowDelegation() {
			continue
		}
		coworkers := make([]delegation.Worker, 0, len(c.agents))
		for _, v := range c.agents {
			if v != agent {
				coworkers = append(coworkers, v)
			}
		}
		agent.setCoworkers(coworkers)
	}
}

func (c *Crew) usage() Usage {
	var ret Usage
	for _, agent := range c.agents {
		ret.add(agent.Usage())
	}
	return ret
}

func taskAgents(tasks []*Task) []*Agent {
	var (
		ret  []*Agent
		seen = make(map[*Agent]struct{}, len(tasks))
	)
	for _, task := range tasks {
		if task.Agent == nil {
			continue
		}
		if _, ok := seen[task.Agent]; ok {
			continue
		}
		seen[task.Agent] = struct{}{}
		ret = append(ret, task.Agent)
	}
	return ret
}
