// Package llm binds agents to language model providers through instructor-go,
// which turns every chat completion into a JSON document decoded into the caller's schema.
package llm

import (
	"context"
	"errors"

	"github.com/bububa/instructor-go/pkg/instructor"
	cohere "github.com/cohere-ai/cohere-go/v2"
	anthropic "github.com/liushuangls/go-anthropic/v2"
	openai "github.com/sashabaranov/go-openai"

	"github.com/bububa/codecrew/components"
	"github.com/bububa/codecrew/schema"
)

// defaultAnthropicMaxTokens is used when a request does not limit the response size,
// the messages API requires the field.
const defaultAnthropicMaxTokens = 4096

// ErrUnsupportedClient is returned for instructor clients without a request mapping
var ErrUnsupportedClient = errors.New("unsupported instructor client")

// Request is a provider independent chat request
type Request struct {
	Model       string
	Temperature float32
	MaxTokens   int
	Messages    []components.Message
}

// Client sends a chat request and decodes the structured reply into response
type Client interface {
	Chat(ctx context.Context, req *Request, response any, llmResp *components.LLMResponse) error
}

// InstructorClient implements Client on top of an instructor.Instructor
type InstructorClient struct {
	clt instructor.Instructor
}

var _ Client = (*InstructorClient)(nil)

// NewInstructorClient returns a new InstructorClient
func NewInstructorClient(clt instructor.Instructor) *InstructorClient {
	return &InstructorClient{clt: clt}
}

// Chat obtains a response from the language model synchronously
func (c *InstructorClient) Chat(ctx context.Context, req *Request, response any, llmResp *components.LLMResponse) error {
	switch clt := c.clt.(type) {
	case *instructor.InstructorOpenAI:
		chatReq := openai.ChatCompletionRequest{
			Model:               req.Model,
			Temperature:         req.Temperature,
			MaxCompletionTokens: req.MaxTokens,
		}
		for _, msg := range req.Messages {
			v := new(openai.ChatCompletionMessage)
			msg.ToOpenAI(v)
			chatReq.Messages = append(chatReq.Messages, *v)
		}
		res, err := clt.CreateChatCompletion(ctx, chatReq, response)
		if err != nil {
			return err
		}
		if llmResp != nil {
			llmResp.FromOpenAI(&res)
		}
	case *instructor.InstructorAnthropic:
		temperature := req.Temperature
		chatReq := anthropic.MessagesRequest{
			Model:       anthropic.Model(req.Model),
			Temperature: &temperature,
			MaxTokens:   req.MaxTokens,
		}
		if chatReq.MaxTokens <= 0 {
			chatReq.MaxTokens = defaultAnthropicMaxTokens
		}
		for _, msg := range req.Messages {
			if msg.Role() == components.SystemRole {
				chatReq.System = joinSystem(chatReq.System, schema.Stringify(msg.Content()))
				continue
			}
			v := new(anthropic.Message)
			msg.ToAnthropic(v)
			chatReq.Messages = append(chatReq.Messages, *v)
		}
		res, err := clt.CreateMessages(ctx, chatReq, response)
		if err != nil {
			return err
		}
		if llmResp != nil {
			llmResp.FromAnthropic(&res)
		}
	case *instructor.InstructorCohere:
		temperature := float64(req.Temperature)
		model := req.Model
		chatReq := cohere.ChatRequest{
			Model:       &model,
			Temperature: &temperature,
		}
		if req.MaxTokens > 0 {
			maxTokens := req.MaxTokens
			chatReq.MaxTokens = &maxTokens
		}
		var preamble string
		history := make([]components.Message, 0, len(req.Messages))
		for _, msg := range req.Messages {
			if msg.Role() == components.SystemRole {
				preamble = joinSystem(preamble, schema.Stringify(msg.Content()))
				continue
			}
			history = append(history, msg)
		}
		if preamble != "" {
			chatReq.Preamble = &preamble
		}
		if l := len(history); l > 0 {
			chatReq.Message = schema.Stringify(history[l-1].Content())
			for _, msg := range history[:l-1] {
				v := new(cohere.Message)
				msg.ToCohere(v)
				chatReq.ChatHistory = append(chatReq.ChatHistory, v)
			}
		}
		res, err := clt.Chat(ctx, &chatReq, response)
		if err != nil {
			return err
		}
		if llmResp != nil {
			llmResp.FromCohere(res)
		}
	default:
		return ErrUnsupportedClient
	}
	return nil
}

func joinSystem(a, b string) string {
	if a == "" {
		return b
	}
	return a + "\n\n" + b
}
