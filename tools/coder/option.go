package coder

import (
	"log/slog"

	"github.com/bububa/codecrew/llm"
	"github.com/bububa/codecrew/repomap"
	"github.com/bububa/codecrew/tools"
)

type Option func(*Config)

// WithClient sets the language model writing the edits
func WithClient(clt llm.Client) Option {
	return func(c *Config) {
		c.client = clt
	}
}

func WithModel(model string) Option {
	return func(c *Config) {
		if model != "" {
			c.model = model
		}
	}
}

func WithTemperature(temperature float32) Option {
	return func(c *Config) {
		c.temperature = temperature
	}
}

func WithMaxTokens(n int) Option {
	return func(c *Config) {
		c.maxTokens = n
	}
}

// WithCwd sets the directory relative paths are resolved against
func WithCwd(dir string) Option {
	return func(c *Config) {
		c.cwd = dir
	}
}

func WithIgnoreFile(name string) Option {
	return func(c *Config) {
		c.ignoreFile = name
	}
}

func WithMapTokens(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.mapTokens = n
		}
	}
}

// WithoutRepoMap leaves the repository map out of the prompt
func WithoutRepoMap() Option {
	return func(c *Config) {
		c.noMap = true
	}
}

func WithTagger(t repomap.Tagger) Option {
	return func(c *Config) {
		c.tagger = t
	}
}

func WithTokenCounter(counter repomap.TokenCounter) Option {
	return func(c *Config) {
		c.counter = counter
	}
}

func WithDryRun(dryRun bool) Option {
	return func(c *Config) {
		c.dryRun = dryRun
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithToolOptions(opts ...tools.Option) Option {
	return func(c *Config) {
		for _, opt := range opts {
			opt(&c.Config)
		}
	}
}
