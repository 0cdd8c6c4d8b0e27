package agents

import (
	"context"
	"errors"

	"github.com/bububa/codecrew/components"
	"github.com/bububa/codecrew/schema"
)

// ErrInvalidOutputSchema is returned when the last chain step yields an unexpected output
var ErrInvalidOutputSchema = errors.New("invalid output schema")

// Chain agents chain
type Chain[I schema.Schema, O schema.Schema] struct {
	name   string
	agents []ChainableAgent
}

// NewChain returns a new Chain instance
func NewChain[I schema.Schema, O schema.Schema](agents ...ChainableAgent) *Chain[I, O] {
	return &Chain[I, O]{
		agents: agents,
	}
}

func (c Chain[I, O]) Name() string {
	return c.name
}

func (c *Chain[I, O]) SetName(name string) {
	c.name = name
}

// Run runs the chat agents with the given user input synchronously.
// Each agent receives the previous agent's output as its input.
func (c *Chain[I, O]) Run(ctx context.Context, input *I, output *O) ([]components.LLMResponse, error) {
	l := len(c.agents)
	llmRespList := make([]components.LLMResponse, 0, l)
	var (
		in  any = input
		out any = input
	)
	for _, agent := range c.agents {
		llmResp := new(components.LLMResponse)
		ret, err := agent.RunForChain(ctx, in, llmResp)
		if err != nil {
			return llmRespList, err
		}
		in = ret
		out = ret
		llmRespList = append(llmRespList, *llmResp)
	}
	outO, ok := out.(*O)
	if !ok {
		return llmRespList, ErrInvalidOutputSchema
	}
	*output = *outO
	return llmRespList, nil
}

// RunForChain runs the chain as a step of another chain.
func (c *Chain[I, O]) RunForChain(ctx context.Context, input any, llmResp *components.LLMResponse) (any, error) {
	in, ok := input.(*I)
	if !ok {
		return nil, ErrInvalidInputSchema
	}
	out := new(O)
	llmRespList, err := c.Run(ctx, in, out)
	if err != nil {
		return nil, err
	}
	for _, v := range llmRespList {
		if v.Usage == nil {
			continue
		}
		if llmResp.Usage == nil {
			llmResp.Usage = new(components.LLMUsage)
		}
		llmResp.Usage.Merge(v.Usage)
	}
	return out, nil
}
