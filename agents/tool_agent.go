package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/xid"

	"github.com/bububa/codecrew/components"
	"github.com/bububa/codecrew/components/systemprompt"
	"github.com/bububa/codecrew/schema"
	"github.com/bububa/codecrew/tools"
)

// DefaultMaxIterations bounds the reasoning steps of a ToolAgent run
const DefaultMaxIterations = 15

const (
	toolsContextTitle  = "Tools"
	formatContextTitle = "How to respond"
	finalAnswerAction  = "final answer"
	forceFinalAnswer   = "You ran out of steps. Give your best final answer now in final_answer, without any action."
)

const responseFormat = `- Think step by step about the task in "thought".
- To use a tool set "action" to the exact tool name and "action_input" to its plain text input.
- After every tool use you get an "Observation:" message with the tool's result.
- When you know the answer leave "action" empty and put the complete answer in "final_answer".`

// Step is one reasoning step of a ToolAgent
type Step struct {
	schema.Base
	// Thought is the model's reasoning
	Thought string `json:"thought" jsonschema:"title=thought,description=Your reasoning about what to do next."`
	// Action is the tool to use, empty when answering
	Action string `json:"action,omitempty" jsonschema:"title=action,description=The exact name of the tool to use. Leave empty when giving the final answer."`
	// ActionInput is the tool input
	ActionInput string `json:"action_input,omitempty" jsonschema:"title=action_input,description=The plain text input for the tool."`
	// FinalAnswer is the answer to the task
	FinalAnswer string `json:"final_answer,omitempty" jsonschema:"title=final_answer,description=The complete final answer to the task. Only set it when no action is needed."`
}

func (s Step) String() string {
	bs, _ := json.Marshal(s)
	return string(bs)
}

// ToolAgent represent agent with tool callback.
// It alternates between asking the model for a Step and running the tool the step names,
// feeding each tool result back as an observation, until the model gives a final answer.
type ToolAgent struct {
	agent           *Agent[schema.Input, Step]
	tools           []tools.AnonymousTool
	maxIterations   int
	stepHook        func(context.Context, *ToolAgent, *Step)
	observationHook func(context.Context, *ToolAgent, components.ToolCall, components.ToolCallback)
}

// NewToolAgent returns a new ToolAgent instance
func NewToolAgent(options ...Option) *ToolAgent {
	ret := &ToolAgent{
		agent:         NewAgent[schema.Input, Step](options...),
		maxIterations: DefaultMaxIterations,
	}
	ret.agent.RegisterSystemPromptContextProvider(systemprompt.NewFuncProvider(toolsContextTitle, ret.describeTools))
	ret.agent.RegisterSystemPromptContextProvider(systemprompt.NewStaticProvider(formatContextTitle, responseFormat))
	return ret
}

func (t ToolAgent) Name() string {
	return t.agent.Name()
}

// Agent returns the underlying chat agent
func (t *ToolAgent) Agent() *Agent[schema.Input, Step] {
	return t.agent
}

func (t *ToolAgent) SetTools(list ...tools.AnonymousTool) *ToolAgent {
	t.tools = list
	return t
}

func (t *ToolAgent) Tools() []tools.AnonymousTool {
	return t.tools
}

func (t *ToolAgent) SetMaxIterations(n int) *ToolAgent {
	if n > 0 {
		t.maxIterations = n
	}
	return t
}

func (t *ToolAgent) SetStepHook(fn func(context.Context, *ToolAgent, *Step)) *ToolAgent {
	t.stepHook = fn
	return t
}

func (t *ToolAgent) SetObservationHook(fn func(context.Context, *ToolAgent, components.ToolCall, components.ToolCallback)) *ToolAgent {
	t.observationHook = fn
	return t
}

func (t *ToolAgent) ResetMemory() {
	t.agent.ResetMemory()
}

// Run runs the agent loop with the given user input synchronously.
func (t *ToolAgent) Run(ctx context.Context, userInput *schema.Input, output *schema.Output, llmResp *components.LLMResponse) error {
	var (
		in       = userInput
		lastCall components.ToolCall
	)
	for i := 0; i < t.maxIterations; i++ {
		step, err := t.step(ctx, in, llmResp)
		if err != nil {
			return err
		}
		in = nil
		action := strings.TrimSpace(step.Action)
		if action == "" || strings.EqualFold(action, finalAnswerAction) {
			output.ChatMessage = step.answer()
			return nil
		}
		call := components.ToolCall{
			ID:        xid.New().String(),
			Name:      action,
			Arguments: step.ActionInput,
		}
		var callback components.ToolCallback
		if strings.EqualFold(call.Name, lastCall.Name) && call.Arguments == lastCall.Arguments {
			callback = components.ToolCallback{
				ID:      call.ID,
				Name:    call.Name,
				Content: fmt.Sprintf("I just used the %s tool with input %s. So I already know the result of that and don't need to use it again now.", call.Name, call.Arguments),
			}
		} else {
			callback = t.invoke(ctx, call)
		}
		lastCall = call
		if fn := t.observationHook; fn != nil {
			fn(ctx, t, call, callback)
		}
		t.agent.NewMessage(components.ToolRole, schema.String("Observation: "+callback.Content))
	}
	t.agent.NewMessage(components.UserRole, schema.String(forceFinalAnswer))
	step, err := t.step(ctx, nil, llmResp)
	if err != nil {
		return err
	}
	output.ChatMessage = step.answer()
	return nil
}

// RunForChain runs the agent loop for chain.
func (t *ToolAgent) RunForChain(ctx context.Context, userInput any, llmResp *components.LLMResponse) (any, error) {
	in, ok := userInput.(*schema.Input)
	if !ok {
		return nil, ErrInvalidInputSchema
	}
	out := new(schema.Output)
	if err := t.Run(ctx, in, out, llmResp); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *ToolAgent) step(ctx context.Context, in *schema.Input, llmResp *components.LLMResponse) (*Step, error) {
	step := new(Step)
	stepResp := new(components.LLMResponse)
	if err := t.agent.Run(ctx, in, step, stepResp); err != nil {
		return nil, err
	}
	if llmResp != nil {
		usage := llmResp.Usage
		*llmResp = *stepResp
		if usage != nil {
			usage.Merge(stepResp.Usage)
			llmResp.Usage = usage
		}
	}
	if fn := t.stepHook; fn != nil {
		fn(ctx, t, step)
	}
	return step, nil
}

func (t *ToolAgent) invoke(ctx context.Context, call components.ToolCall) components.ToolCallback {
	ret := components.ToolCallback{
		ID:   call.ID,
		Name: call.Name,
	}
	tool := t.lookup(call.Name)
	if tool == nil {
		ret.IsError = true
		ret.Content = fmt.Sprintf("Action '%s' don't exist, these are the only available Actions: %s", call.Name, strings.Join(t.toolNames(), ", "))
		return ret
	}
	input := schema.String(call.Arguments)
	out, err := tool.RunAnonymous(ctx, &input)
	if err != nil {
		ret.IsError = true
		ret.Content = "Error: " + err.Error()
		return ret
	}
	if s, ok := out.(schema.Schema); ok {
		ret.Content = schema.Stringify(s)
	} else {
		ret.Content = fmt.Sprint(out)
	}
	return ret
}

func (t *ToolAgent) lookup(name string) tools.AnonymousTool {
	for _, tool := range t.tools {
		if strings.EqualFold(tool.Title(), name) {
			return tool
		}
	}
	return nil
}

func (t *ToolAgent) toolNames() []string {
	names := make([]string, 0, len(t.tools))
	for _, tool := range t.tools {
		names = append(names, tool.Title())
	}
	return names
}

func (t *ToolAgent) describeTools() string {
	if len(t.tools) == 0 {
		return "- No tools are available, answer directly."
	}
	lines := make([]string, 0, len(t.tools))
	for _, tool := range t.tools {
		lines = append(lines, fmt.Sprintf("- %s: %s", tool.Title(), tool.Description()))
	}
	return strings.Join(lines, "\n")
}

func (s Step) answer() string {
	if s.FinalAnswer != "" {
		return s.FinalAnswer
	}
	if strings.EqualFold(strings.TrimSpace(s.Action), finalAnswerAction) && s.ActionInput != "" {
		return s.ActionInput
	}
	return s.Thought
}
