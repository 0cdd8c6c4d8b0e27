package crew

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/bububa/codecrew/agents"
	"github.com/bububa/codecrew/components"
	"github.com/bububa/codecrew/schema"
)

// Task is a unit of work assigned to an agent
type Task struct {
	ID             uuid.UUID
	Name           string
	Description    string `validate:"required"`
	ExpectedOutput string
	Agent          *Agent `validate:"required"`
	// Context lists the tasks whose outputs feed this one
	Context []*Task
	output  *TaskOutput
}

// TaskOutput is the result of a task
type TaskOutput struct {
	TaskID      string `json:"task_id" yaml:"task_id"`
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Description string `json:"description" yaml:"description"`
	Agent       string `json:"agent" yaml:"agent"`
	Raw         string `json:"raw" yaml:"raw"`
}

// NewTask returns a new Task for agent
func NewTask(description string, agent *Agent, opts ...TaskOption) *Task {
	ret := &Task{
		ID:          uuid.New(),
		Description: description,
		Agent:       agent,
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Output returns the task result, nil until the task ran
func (t *Task) Output() *TaskOutput {
	return t.output
}

func (t *Task) execute(ctx context.Context, taskContext string) (*TaskOutput, *components.LLMUsage, error) {
	if len(t.Context) > 0 {
		taskContext = t.contextFromTasks()
	}
	raw, usage, err := t.Agent.execute(ctx, t.Description, t.ExpectedOutput, taskContext)
	if err != nil {
		return nil, usage, err
	}
	t.output = &TaskOutput{
		TaskID:      t.ID.String(),
		Name:        t.Name,
		Description: t.Description,
		Agent:       t.Agent.Role(),
		Raw:         raw,
	}
	return t.output, usage, nil
}

func (t *Task) contextFromTasks() string {
	list := make([]string, 0, len(t.Context))
	for _, v := range t.Context {
		if v.output != nil {
			list = append(list, v.output.Raw)
		}
	}
	return strings.Join(list, "\n")
}

// taskStep runs a task as a chain step, the previous step's output is its context
type taskStep struct {
	task *Task
	crew *Crew
}

var _ agents.ChainableAgent = (*taskStep)(nil)

func (s *taskStep) Name() string {
	if s.task.Name != "" {
		return s.task.Name
	}
	return s.task.ID.String()
}

func (s *taskStep) RunForChain(ctx context.Context, input any, llmResp *components.LLMResponse) (any, error) {
	var taskContext string
	switch v := input.(type) {
	case *schema.Input:
		taskContext = v.ChatMessage
	case *schema.Output:
		taskContext = v.ChatMessage
	default:
		return nil, agents.ErrInvalidInputSchema
	}
	s.crew.logger.InfoContext(ctx, "task started", "crew", s.crew.id.String(), "task", s.Name(), "agent", s.task.Agent.Role())
	out, usage, err := s.task.execute(ctx, taskContext)
	if llmResp != nil {
		llmResp.Usage = usage
	}
	if err != nil {
		return nil, err
	}
	s.crew.logger.InfoContext(ctx, "task finished", "crew", s.crew.id.String(), "task", s.Name(), "agent", s.task.Agent.Role())
	return schema.NewOutput(out.Raw), nil
}
