// Package llmtest provides a scripted llm.Client for tests.
package llmtest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/bububa/codecrew/components"
	"github.com/bububa/codecrew/llm"
	"github.com/bububa/codecrew/schema"
)

// ErrExhausted is returned once every scripted reply has been consumed
var ErrExhausted = errors.New("llmtest: no scripted reply left")

// Handler computes a reply for a request
type Handler func(req *llm.Request) (string, error)

// Client replays scripted replies in order. Replies are decoded into the
// caller's response the way instructor decodes a JSON completion.
type Client struct {
	mu       sync.Mutex
	replies  []string
	handler  Handler
	requests []llm.Request
}

var _ llm.Client = (*Client)(nil)

// New returns a Client replaying replies
func New(replies ...string) *Client {
	return &Client{replies: replies}
}

// NewWithHandler returns a Client answering every request with fn
func NewWithHandler(fn Handler) *Client {
	return &Client{handler: fn}
}

// JSON marshals v, for building scripted replies
func JSON(v any) string {
	bs, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(bs)
}

func (c *Client) Chat(ctx context.Context, req *llm.Request, response any, llmResp *components.LLMResponse) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	cp := *req
	cp.Messages = append([]components.Message(nil), req.Messages...)
	c.requests = append(c.requests, cp)
	var (
		reply string
		err   error
	)
	if c.handler != nil {
		c.mu.Unlock()
		reply, err = c.handler(&cp)
	} else {
		if len(c.replies) == 0 {
			c.mu.Unlock()
			return ErrExhausted
		}
		reply = c.replies[0]
		c.replies = c.replies[1:]
		c.mu.Unlock()
	}
	if err != nil {
		return err
	}
	if s, ok := response.(*schema.String); ok {
		*s = schema.String(reply)
	} else if err := json.Unmarshal([]byte(reply), response); err != nil {
		return err
	}
	if llmResp != nil {
		llmResp.Role = components.AssistantRole
		llmResp.Model = req.Model
		llmResp.Usage = &components.LLMUsage{
			InputTokens:  int64(len(req.Messages)),
			OutputTokens: 1,
		}
	}
	return nil
}

// Requests returns the recorded requests
func (c *Client) Requests() []llm.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]llm.Request(nil), c.requests...)
}

// Remaining returns the number of unused scripted replies
func (c *Client) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.replies)
}
