package files

import (
	"log/slog"

	"github.com/bububa/codecrew/repo"
	"github.com/bububa/codecrew/tools"
)

type Option func(*Config)

// WithCwd sets the directory relative paths are resolved against
func WithCwd(dir string) Option {
	return func(c *Config) {
		c.cwd = dir
	}
}

// WithIgnoreFile sets the ignore file, relative to the repository root
func WithIgnoreFile(name string) Option {
	return func(c *Config) {
		c.ignoreFile = name
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
