package agents

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bububa/codecrew/components"
	"github.com/bububa/codecrew/llm/llmtest"
	"github.com/bububa/codecrew/schema"
	"github.com/bububa/codecrew/tools"
)

type echoTool struct {
	tools.Config
	calls int
	err   error
}

func newEchoTool() *echoTool {
	ret := new(echoTool)
	ret.SetTitle("echo")
	ret.SetDescription("echoes its input")
	return ret
}

func (e *echoTool) Run(_ context.Context, in *schema.String, out *schema.String) error {
	e.calls++
	if e.err != nil {
		return e.err
	}
	*out = schema.String("echo: " + string(*in))
	return nil
}

func (e *echoTool) RunAnonymous(ctx context.Context, in any) (any, error) {
	return tools.RunAnonymous[schema.String, schema.String](ctx, e, e, in)
}

func lastObservation(t *testing.T, agent *ToolAgent) string {
	t.Helper()
	msg, ok := agent.Agent().Memory().Last(components.ToolRole)
	if !ok {
		t.Fatal("no observation in memory")
	}
	return schema.Stringify(msg.Content())
}

func TestToolAgentFinalAnswer(t *testing.T) {
	clt := llmtest.New(llmtest.JSON(Step{Thought: "easy", FinalAnswer: "42"}))
	agent := NewToolAgent(WithClient(clt))
	output := new(schema.Output)
	if err := agent.Run(context.Background(), schema.NewInput("answer"), output, nil); err != nil {
		t.Fatal(err)
	}
	if output.ChatMessage != "42" {
		t.Errorf("expect 42, but got %s", output.ChatMessage)
	}
	prompt := agent.Agent().SystemPrompt()
	if !strings.Contains(prompt, "No tools are available") {
		t.Errorf("expect system prompt to mention missing tools, but got %s", prompt)
	}
}

func TestToolAgentUsesTool(t *testing.T) {
	clt := llmtest.New(
		llmtest.JSON(Step{Thought: "use echo", Action: "echo", ActionInput: "hello"}),
		llmtest.JSON(Step{Thought: "done", FinalAnswer: "echo: hello"}),
	)
	tool := newEchoTool()
	agent := NewToolAgent(WithClient(clt)).SetTools(tool)
	var observed []components.ToolCallback
	agent.SetObservationHook(func(_ context.Context, _ *ToolAgent, _ components.ToolCall, cb components.ToolCallback) {
		observed = append(observed, cb)
	})
	llmResp := new(components.LLMResponse)
	output := new(schema.Output)
	if err := agent.Run(context.Background(), schema.NewInput("say hello"), output, llmResp); err != nil {
		t.Fatal(err)
	}
	if tool.calls != 1 {
		t.Errorf("expect 1 tool call, but got %d", tool.calls)
	}
	if len(observed) != 1 || observed[0].Content != "echo: hello" || observed[0].IsError {
		t.Errorf("unexpected observations: %+v", observed)
	}
	if got := lastObservation(t, agent); got != "Observation: echo: hello" {
		t.Errorf("expect observation message, but got %s", got)
	}
	if llmResp.Usage == nil || llmResp.Usage.OutputTokens != 2 {
		t.Errorf("expect usage of both steps, but got %+v", llmResp.Usage)
	}
	if !strings.Contains(agent.Agent().SystemPrompt(), "- echo: echoes its input") {
		t.Error("expect tool description in system prompt")
	}
}

func TestToolAgentUnknownTool(t *testing.T) {
	clt := llmtest.New(
		llmtest.JSON(Step{Action: "search", ActionInput: "x"}),
		llmtest.JSON(Step{FinalAnswer: "gave up"}),
	)
	agent := NewToolAgent(WithClient(clt)).SetTools(newEchoTool())
	var obs string
	agent.SetObservationHook(func(_ context.Context, _ *ToolAgent, _ components.ToolCall, cb components.ToolCallback) {
		obs = cb.Content
	})
	if err := agent.Run(context.Background(), schema.NewInput("find"), new(schema.Output), nil); err != nil {
		t.Fatal(err)
	}
	if obs != "Action 'search' don't exist, these are the only available Actions: echo" {
		t.Errorf("unexpected observation: %s", obs)
	}
}

func TestToolAgentToolError(t *testing.T) {
	clt := llmtest.New(
		llmtest.JSON(Step{Action: "echo", ActionInput: "x"}),
		llmtest.JSON(Step{FinalAnswer: "failed"}),
	)
	tool := newEchoTool()
	tool.err = errors.New("broken pipe")
	agent := NewToolAgent(WithClient(clt)).SetTools(tool)
	if err := agent.Run(context.Background(), schema.NewInput("go"), new(schema.Output), nil); err != nil {
		t.Fatal(err)
	}
	if got := lastObservation(t, agent); got != "Observation: Error: broken pipe" {
		t.Errorf("unexpected observation: %s", got)
	}
}

func TestToolAgentRepeatedCall(t *testing.T) {
	clt := llmtest.New(
		llmtest.JSON(Step{Action: "echo", ActionInput: "x"}),
		llmtest.JSON(Step{Action: "echo", ActionInput: "x"}),
		llmtest.JSON(Step{FinalAnswer: "done"}),
	)
	tool := newEchoTool()
	agent := NewToolAgent(WithClient(clt)).SetTools(tool)
	if err := agent.Run(context.Background(), schema.NewInput("go"), new(schema.Output), nil); err != nil {
		t.Fatal(err)
	}
	if tool.calls != 1 {
		t.Errorf("expect repeated call to be skipped, but got %d calls", tool.calls)
	}
	if got := lastObservation(t, agent); !strings.HasPrefix(got, "Observation: I just used the echo tool") {
		t.Errorf("unexpected observation: %s", got)
	}
}

func TestToolAgentMaxIterations(t *testing.T) {
	clt := llmtest.New(
		llmtest.JSON(Step{Action: "echo", ActionInput: "1"}),
		llmtest.JSON(Step{Action: "echo", ActionInput: "2"}),
		llmtest.JSON(Step{Thought: "best guess"}),
	)
	agent := NewToolAgent(WithClient(clt)).SetTools(newEchoTool()).SetMaxIterations(2)
	output := new(schema.Output)
	if err := agent.Run(context.Background(), schema.NewInput("loop"), output, nil); err != nil {
		t.Fatal(err)
	}
	if output.ChatMessage != "best guess" {
		t.Errorf("expect forced answer, but got %s", output.ChatMessage)
	}
	if clt.Remaining() != 0 {
		t.Errorf("expect every reply consumed, but %d left", clt.Remaining())
	}
}

func TestStepAnswer(t *testing.T) {
	cases := []struct {
		step   Step
		expect string
	}{
		{Step{Thought: "t", FinalAnswer: "f"}, "f"},
		{Step{Thought: "t", Action: "Final Answer", ActionInput: "i"}, "i"},
		{Step{Thought: "t"}, "t"},
	}
	for _, c := range cases {
		if got := c.step.answer(); got != c.expect {
			t.Errorf("expect %s, but got %s", c.expect, got)
		}
	}
}
