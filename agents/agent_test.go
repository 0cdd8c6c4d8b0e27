package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/bububa/codecrew/components"
	"github.com/bububa/codecrew/llm"
	"github.com/bububa/codecrew/llm/llmtest"
	"github.com/bububa/codecrew/schema"
)

func TestAgentRun(t *testing.T) {
	clt := llmtest.New(`{"chat_message":"2024-01-01"}`)
	agent := NewAgent[schema.Input, schema.Output](
		WithClient(clt),
		WithModel("test-model"),
		WithTemperature(0.6),
		WithMaxTokens(100),
		WithName("Assistant"))
	output := schema.NewOutput("")
	llmResp := new(components.LLMResponse)
	if err := agent.Run(context.Background(), schema.NewInput("Today is 2024-01-01"), output, llmResp); err != nil {
		t.Fatal(err)
	}
	if output.ChatMessage != "2024-01-01" {
		t.Errorf("expect 2024-01-01, but got %s", output.ChatMessage)
	}
	reqs := clt.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expect 1 request, but got %d", len(reqs))
	}
	req := reqs[0]
	if req.Model != "test-model" || req.Temperature != 0.6 || req.MaxTokens != 100 {
		t.Errorf("unexpected request params: %+v", req)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role() != components.SystemRole || req.Messages[1].Role() != components.UserRole {
		t.Errorf("expect system + user messages, but got %d messages", len(req.Messages))
	}
	if n := agent.Memory().MessageCount(); n != 2 {
		t.Errorf("expect user and assistant messages in memory, but got %d", n)
	}
	agent.ResetMemory()
	if n := agent.Memory().MessageCount(); n != 0 {
		t.Errorf("expect empty memory after reset, but got %d", n)
	}
}

func TestAgentHooks(t *testing.T) {
	boom := errors.New("backend down")
	clt := llmtest.NewWithHandler(func(*llm.Request) (string, error) { return "", boom })
	agent := NewAgent[schema.Input, schema.Output](WithClient(clt))
	var started, failed bool
	agent.SetStartHook(func(context.Context, *Agent[schema.Input, schema.Output], *schema.Input) { started = true })
	agent.SetErrorHook(func(_ context.Context, _ *Agent[schema.Input, schema.Output], _ *schema.Input, _ *components.LLMResponse, err error) {
		failed = errors.Is(err, boom)
	})
	err := agent.Run(context.Background(), schema.NewInput("hi"), schema.NewOutput(""), nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expect backend error, but got %v", err)
	}
	if !started || !failed {
		t.Errorf("expect start and error hooks to fire, started=%v failed=%v", started, failed)
	}
}

func TestAgentWithoutClient(t *testing.T) {
	agent := NewAgent[schema.Input, schema.Output]()
	if err := agent.Run(context.Background(), schema.NewInput("hi"), schema.NewOutput(""), nil); !errors.Is(err, ErrNoClient) {
		t.Errorf("expect ErrNoClient, but got %v", err)
	}
}

func TestChain(t *testing.T) {
	first := NewAgent[schema.Input, schema.Input](WithClient(llmtest.New(`{"chat_message":"step one"}`)))
	second := NewAgent[schema.Input, schema.Output](WithClient(llmtest.New(`{"chat_message":"step two"}`)))
	chain := NewChain[schema.Input, schema.Output](first, second)
	output := new(schema.Output)
	resps, err := chain.Run(context.Background(), schema.NewInput("start"), output)
	if err != nil {
		t.Fatal(err)
	}
	if output.ChatMessage != "step two" {
		t.Errorf("expect step two, but got %s", output.ChatMessage)
	}
	if len(resps) != 2 {
		t.Errorf("expect 2 responses, but got %d", len(resps))
	}
	history := second.Memory().History()
	if got := history[0].Content().String(); got != "step one" {
		t.Errorf("expect second agent to receive first output, but got %s", got)
	}

	llmResp := new(components.LLMResponse)
	wrapped := NewChain[schema.Input, schema.Output](
		NewAgent[schema.Input, schema.Output](WithClient(llmtest.New(`{"chat_message":"x"}`))),
	)
	if _, err := wrapped.RunForChain(context.Background(), schema.NewInput("go"), llmResp); err != nil {
		t.Fatal(err)
	}
	if llmResp.Usage == nil || llmResp.Usage.OutputTokens != 1 {
		t.Errorf("expect merged usage, but got %+v", llmResp.Usage)
	}
	if _, err := wrapped.RunForChain(context.Background(), "wrong", llmResp); !errors.Is(err, ErrInvalidInputSchema) {
		t.Errorf("expect ErrInvalidInputSchema, but got %v", err)
	}
}
