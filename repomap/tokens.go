package repomap

import (
	"fmt"

	"github.com/clipperhouse/uax29/words"
	"github.com/pkoukk/tiktoken-go"
)

// DefaultModel picks the tokenizer when no model is configured
const DefaultModel = "gpt-3.5-turbo"

// TokenCounter counts the tokens of a text
type TokenCounter interface {
	Count(text string) int
}

// WordsTokenCounter approximates tokens with unicode word segments
type WordsTokenCounter struct{}

func (c WordsTokenCounter) Count(text string) int {
	return len(words.SegmentAll([]byte(text)))
}

// TikTokenCounter counts tokens with the encoding of an OpenAI model
type TikTokenCounter struct {
	tke *tiktoken.Tiktoken
}

// NewTikTokenCounter returns the counter of model's encoding
func NewTikTokenCounter(model string) (*TikTokenCounter, error) {
	tke, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, fmt.Errorf("failed to get encoding for %s: %w", model, err)
	}
	return &TikTokenCounter{tke: tke}, nil
}

func (c *TikTokenCounter) Count(text string) int {
	return len(c.tke.Encode(text, nil, nil))
}

// CounterForModel returns a tiktoken counter for model, falling back to word
// segments for models tiktoken does not know.
func CounterForModel(model string) TokenCounter {
	if model == "" {
		model = DefaultModel
	}
	if c, err := NewTikTokenCounter(model); err == nil {
		return c
	}
	return WordsTokenCounter{}
}
