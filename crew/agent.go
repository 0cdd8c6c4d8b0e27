package crew

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/atomic"

	"github.com/bububa/codecrew/agents"
	"github.com/bububa/codecrew/components"
	"github.com/bububa/codecrew/components/systemprompt/role"
	"github.com/bububa/codecrew/llm"
	"github.com/bububa/codecrew/schema"
	"github.com/bububa/codecrew/tools"
	"github.com/bububa/codecrew/tools/delegation"
)

var validate = validator.New()

// AgentConfig describes a crew member
type AgentConfig struct {
	// Role names the agent, co-workers delegate to it by role
	Role string `validate:"required"`
	// Goal is the agent's personal goal
	Goal string `validate:"required"`
	// Backstory is the persona the agent plays
	Backstory string
	// AllowDelegation gives the agent the delegation tools over its co-workers
	AllowDelegation bool
	// Verbose prints the agent's reasoning steps
	Verbose bool
	// MaxIter bounds the reasoning steps of a task, 0 keeps the default
	MaxIter int `validate:"gte=0"`
	// MaxMessages bounds the history sent to the model, the task prompt is always kept
	MaxMessages int `validate:"gte=0"`
	// Client is the language model backend
	Client      llm.Client `validate:"required"`
	Model       string
	Temperature float32 `validate:"gte=0,lte=2"`
	MaxTokens   int     `validate:"gte=0"`
}

// Usage is the language model consumption of an agent or a crew
type Usage struct {
	Requests     int64 `json:"requests" yaml:"requests"`
	InputTokens  int64 `json:"input_tokens" yaml:"input_tokens"`
	OutputTokens int64 `json:"output_tokens" yaml:"output_tokens"`
}

func (u *Usage) add(v Usage) {
	u.Requests += v.Requests
	u.InputTokens += v.InputTokens
	u.OutputTokens += v.OutputTokens
}

// Agent is a role-playing crew member executing tasks with tools
type Agent struct {
	cfg       AgentConfig
	tools     []tools.AnonymousTool
	coworkers []delegation.Worker
	printer   *Printer
	logger    *slog.Logger

	requests     *atomic.Int64
	inputTokens  *atomic.Int64
	outputTokens *atomic.Int64
}

var _ delegation.Worker = (*Agent)(nil)

// NewAgent returns a new Agent, the config is validated
func NewAgent(cfg AgentConfig, opts ...AgentOption) (*Agent, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid agent %q: %w", cfg.Role, err)
	}
	ret := &Agent{
		cfg:          cfg,
		logger:       slog.Default(),
		requests:     atomic.NewInt64(0),
		inputTokens:  atomic.NewInt64(0),
		outputTokens: atomic.NewInt64(0),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret, nil
}

func (a *Agent) Role() string {
	return a.cfg.Role
}

func (a *Agent) Goal() string {
	return a.cfg.Goal
}

func (a *Agent) AllowDelegation() bool {
	return a.cfg.AllowDelegation
}

func (a *Agent) Verbose() bool {
	return a.cfg.Verbose
}

// Tools returns the agent's own tools, without the delegation tools
func (a *Agent) Tools() []tools.AnonymousTool {
	return a.tools
}

// Usage returns the consumption of every task the agent executed so far
func (a *Agent) Usage() Usage {
	return Usage{
		Requests:     a.requests.Load(),
		InputTokens:  a.inputTokens.Load(),
		OutputTokens: a.outputTokens.Load(),
	}
}

func (a *Agent) setCoworkers(list []delegation.Worker) {
	a.coworkers = list
}

// Execute runs a delegated task, it makes the Agent a delegation.Worker
func (a *Agent) Execute(ctx context.Context, task string, taskContext string) (string, error) {
	ret, _, err := a.execute(ctx, task, "", taskContext)
	return ret, err
}

func (a *Agent) execute(ctx context.Context, description string, expectedOutput string, taskContext string) (string, *components.LLMUsage, error) {
	if a.printer != nil {
		a.printer.TaskStart(a.Role(), description)
	}
	a.logger.DebugContext(ctx, "agent task started", slog.String("agent", a.Role()))
	executor := a.executor()
	llmResp := &components.LLMResponse{Usage: new(components.LLMUsage)}
	output := new(schema.Output)
	if err := executor.Run(ctx, schema.NewInput(taskPrompt(description, expectedOutput, taskContext)), output, llmResp); err != nil {
		a.logger.ErrorContext(ctx, "agent task failed", slog.String("agent", a.Role()), slog.Any("error", err))
		return "", llmResp.Usage, err
	}
	if usage := llmResp.Usage; usage != nil {
		a.inputTokens.Add(usage.InputTokens)
		a.outputTokens.Add(usage.OutputTokens)
	}
	if a.printer != nil {
		a.printer.TaskEnd(a.Role(), output.ChatMessage)
	}
	return output.ChatMessage, llmResp.Usage, nil
}

// executor builds a fresh tool agent, every task starts with an empty memory
func (a *Agent) executor() *agents.ToolAgent {
	generator := role.New(a.cfg.Role, role.WithBackstory(a.cfg.Backstory), role.WithGoal(a.cfg.Goal))
	ret := agents.NewToolAgent(
		agents.WithClient(a.cfg.Client),
		agents.WithModel(a.cfg.Model),
		agents.WithTemperature(a.cfg.Temperature),
		agents.WithMaxTokens(a.cfg.MaxTokens),
		agents.WithName(a.cfg.Role),
		agents.WithSystemPromptGenerator(generator),
		agents.WithMemory(components.NewMemory(a.cfg.MaxMessages).PinFirst()),
	)
	ret.SetTools(a.allTools()...)
	ret.SetMaxIterations(a.cfg.MaxIter)
	ret.SetStepHook(func(ctx context.Context, _ *agents.ToolAgent, step *agents.Step) {
		a.requests.Inc()
		if a.printer != nil {
			a.printer.Step(a.Role(), step)
		}
	})
	ret.SetObservationHook(func(ctx context.Context, _ *agents.ToolAgent, call components.ToolCall, callback components.ToolCallback) {
		a.logger.DebugContext(ctx, "tool used", slog.String("agent", a.Role()), slog.String("tool", call.Name), slog.Bool("error", callback.IsError))
		if a.printer != nil {
			a.printer.Observation(a.Role(), callback)
		}
	})
	return ret
}

func (a *Agent) allTools() []tools.AnonymousTool {
	list := make([]tools.AnonymousTool, 0, len(a.tools)+2)
	list = append(list, a.tools...)
	if a.cfg.AllowDelegation && len(a.coworkers) > 0 {
		list = append(list, delegation.NewTools(a.coworkers)...)
	}
	return list
}

func taskPrompt(description string, expectedOutput string, taskContext string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(description))
	if expectedOutput != "" {
		b.WriteString("\n\nThis is the expected criteria for your final answer: ")
		b.WriteString(strings.TrimSpace(expectedOutput))
		b.WriteString("\nYou MUST return the actual complete content as the final answer, not a summary.")
	}
	if taskContext != "" {
		b.WriteString("\n\nThis is the context you're working with:\n")
		b.WriteString(taskContext)
	}
	return b.String()
}
