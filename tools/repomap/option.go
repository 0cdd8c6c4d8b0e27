package repomap

import (
	"log/slog"

	"github.com/bububa/codecrew/repo"
	rmap "github.com/bububa/codecrew/repomap"
	"github.com/bububa/codecrew/tools"
)

type Option func(*Config)

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

// WithModel sets the model whose tokenizer measures the map
func WithModel(model string) Option {
	return func(c *Config) {
		if model != "" {
			c.model = model
		}
	}
}

func WithMapTokens(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.mapTokens = n
		}
	}
}

// WithCache enables the sqlite tags cache in the mapped folder
func WithCache(enabled bool) Option {
	return func(c *Config) {
		c.cache = enabled
	}
}

func WithTagger(t rmap.Tagger) Option {
	return func(c *Config) {
		c.tagger = t
	}
}

func WithTokenCounter(counter rmap.TokenCounter) Option {
	return func(c *Config) {
		c.counter = counter
	}
}

func WithRepoOptions(opts ...repo.Option) Option {
	return func(c *Config) {
		c.repoOpts = append(c.repoOpts, opts...)
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.logger = l
			c.repoOpts = append(c.repoOpts, repo.WithLogger(l))
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
