// Package coder implements the tool editing a file from instructions.
package coder

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/bububa/codecrew/agents"
	"github.com/bububa/codecrew/coder"
	"github.com/bububa/codecrew/llm"
	"github.com/bububa/codecrew/repo"
	"github.com/bububa/codecrew/repomap"
	"github.com/bububa/codecrew/schema"
	"github.com/bububa/codecrew/tools"
)

const (
	Title       = "aider_coder_tool"
	Description = `A tool to edit files based on the provided instructions. The input must be in the format "<file_path>|<instructions>". Returns the status of the edit.`
	// ErrorPrefix starts the text returned on failure
	ErrorPrefix = "Final Answer: There was an error when editing the file:\n\n"
)

type Config struct {
	tools.Config
	client      llm.Client
	model       string
	temperature float32
	maxTokens   int
	cwd         string
	ignoreFile  string
	mapTokens   int
	noMap       bool
	tagger      repomap.Tagger
	counter     repomap.TokenCounter
	dryRun      bool
	logger      *slog.Logger
}

// Coder edits the file named in its input
type Coder struct {
	Config
}

var _ tools.Tool[schema.String, schema.String] = (*Coder)(nil)

func New(opts ...Option) *Coder {
	ret := &Coder{
		Config: Config{
			model:      repomap.DefaultModel,
			ignoreFile: repo.DefaultIgnoreFile,
			mapTokens:  repomap.DefaultMaxMapTokens,
			logger:     slog.Default(),
		},
	}
	ret.SetTitle(Title)
	ret.SetDescription(Description)
	for _, opt := range opts {
		opt(&ret.Config)
	}
	return ret
}

// Run splits the "<file_path>|<instructions>" input. A malformed input is returned as an error.
func (t *Coder) Run(ctx context.Context, input *schema.String, output *schema.String) error {
	fname, instructions, err := tools.SplitPair(string(*input))
	if err != nil {
		return err
	}
	*output = schema.String(t.Edit(ctx, fname, instructions))
	return nil
}

func (t *Coder) RunAnonymous(ctx context.Context, input any) (any, error) {
	return tools.RunAnonymous[schema.String, schema.String](ctx, t, t, input)
}

// Edit applies instructions to fname and reports the outcome as text
func (t *Coder) Edit(ctx context.Context, fname string, instructions string) string {
	ret := tools.Catch(ErrorPrefix, func() (string, error) {
		abs, err := tools.ResolvePath(t.cwd, fname)
		if err != nil {
			return "", err
		}
		t.logger.Info("editing file", slog.String("fname", abs))
		c, err := coder.New(abs, t.coderOptions()...)
		if err != nil {
			return "", err
		}
		result, err := c.Run(ctx, instructions)
		if err != nil {
			return "", err
		}
		status := "Edited"
		if !result.Written {
			status = "Proposed edit for"
		}
		var sb strings.Builder
		fmt.Fprintf(&sb, "%s %s", status, tools.DisplayPath(t.cwd, result.Path))
		if result.Explanation != "" {
			sb.WriteString("\n\n" + result.Explanation)
		}
		sb.WriteString("\n\n```diff\n" + strings.TrimRight(result.Diff, "\n") + "\n```")
		return sb.String(), nil
	})
	if strings.HasPrefix(ret, ErrorPrefix) {
		t.logger.Error("file edit failed", slog.String("fname", fname), slog.String("error", strings.TrimPrefix(ret, ErrorPrefix)))
	}
	return ret
}

func (t *Coder) coderOptions() []coder.Option {
	agentOpts := []agents.Option{
		agents.WithClient(t.client),
		agents.WithModel(t.model),
		agents.WithTemperature(t.temperature),
	}
	if t.maxTokens > 0 {
		agentOpts = append(agentOpts, agents.WithMaxTokens(t.maxTokens))
	}
	opts := []coder.Option{
		coder.WithAgentOptions(agentOpts...),
		coder.WithDryRun(t.dryRun),
		coder.WithLogger(t.logger),
	}
	if !t.noMap {
		opts = append(opts, coder.WithRepoMap(t.repoMap))
	}
	return opts
}

// repoMap maps the tracked files around fname, leaving fname itself out since
// its content is already in the prompt.
func (t *Coder) repoMap(ctx context.Context, fname string) (string, error) {
	dir := filepath.Dir(fname)
	others, err := repo.TrackedSrcFiles(ctx, dir, t.ignoreFile, repo.WithLogger(t.logger))
	if err != nil {
		return "", err
	}
	t.logger.Debug("coder files", slog.String("dir", dir), slog.Any("files", others))
	opts := []repomap.Option{
		repomap.WithMaxMapTokens(t.mapTokens),
		repomap.WithLogger(t.logger),
	}
	if t.tagger != nil {
		opts = append(opts, repomap.WithTagger(t.tagger))
	}
	counter := t.counter
	if counter == nil {
		counter = repomap.CounterForModel(t.model)
	}
	opts = append(opts, repomap.WithTokenCounter(counter))
	m := repomap.New(dir, opts...)
	ret, err := m.RankedTagsMap(ctx, repomap.Request{
		ChatFiles:  []string{fname},
		OtherFiles: others,
	})
	if err != nil {
		return "", err
	}
	t.logger.Debug("coder repo map", slog.String("map", ret))
	return ret, nil
}
