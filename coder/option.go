package coder

import (
	"context"
	"log/slog"

	"github.com/bububa/codecrew/agents"
)

// RepoMapFunc returns the repository map shown next to the edited file
type RepoMapFunc func(ctx context.Context, fname string) (string, error)

type Config struct {
	agentOpts []agents.Option
	root      string
	mapper    RepoMapFunc
	dryRun    bool
	logger    *slog.Logger
}

type Option func(*Config)

// WithAgentOptions configures the agent writing the edits, WithClient at least
func WithAgentOptions(opts ...agents.Option) Option {
	return func(c *Config) {
		c.agentOpts = append(c.agentOpts, opts...)
	}
}

// WithRoot sets the directory file names are shown relative to
func WithRoot(root string) Option {
	return func(c *Config) {
		c.root = root
	}
}

// WithRepoMap adds a repository map to the prompt
func WithRepoMap(fn RepoMapFunc) Option {
	return func(c *Config) {
		c.mapper = fn
	}
}

// WithDryRun computes edits without writing them
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
