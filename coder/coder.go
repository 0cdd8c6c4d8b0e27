// Package coder edits a file with a language model. The model answers with a
// unified diff which is applied to the file only when every hunk matches.
package coder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bububa/codecrew/agents"
	"github.com/bububa/codecrew/components"
	"github.com/bububa/codecrew/components/systemprompt"
	"github.com/bububa/codecrew/components/systemprompt/cot"
	"github.com/bububa/codecrew/schema"
)

const (
	fileContextTitle    = "Files"
	repoMapContextTitle = "Repository map"
)

var background = []string{
	"- Act as an expert software developer.",
	"- You are diligent and tireless! You never leave comments describing code without implementing it.",
	"- Always use best practices when coding.",
	"- Respect and use existing conventions, libraries, etc that are already present in the code base.",
}

var steps = []string{
	"- Take the request for changes to the supplied file.",
	"- Think step by step and explain the needed changes in explanation.",
	"- Write the changes as a unified diff in diff.",
}

var outputInstructs = []string{
	"- Return edits similar to unified diffs that `diff -U0` would produce.",
	"- Start the diff with the file header: a line `--- path` followed by a line `+++ path`.",
	"- Start each hunk of changes with a `@@ ... @@` line. Line numbers are not needed.",
	"- Mark every line to remove with `-` and every line to add with `+`. Keep a few unchanged lines, prefixed with a space, around each change.",
	"- Removed and unchanged lines must match the current file exactly, including indentation.",
	"- When editing a function, method, loop or block, replace the whole block: delete all of it, then add the new version.",
	"- To move code, delete it in one hunk and add it back in another.",
	"- To create a new file, use `--- /dev/null` and a single hunk adding all of its lines.",
}

// EditResponse is the model's answer to an edit request
type EditResponse struct {
	schema.Base
	// Explanation describes the change
	Explanation string `json:"explanation" jsonschema:"title=explanation,description=A short explanation of the changes."`
	// Diff is the unified diff of the change
	Diff string `json:"diff" jsonschema:"title=diff,description=The changes as a unified diff of the file." validate:"required"`
}

func (r EditResponse) String() string {
	bs, _ := json.Marshal(r)
	return string(bs)
}

// Result describes an applied edit
type Result struct {
	// Path is the edited file
	Path string `json:"path"`
	// Explanation is the model's description of the change
	Explanation string `json:"explanation"`
	// Diff is the diff as written by the model
	Diff string `json:"diff"`
	// Content is the new file content
	Content string `json:"-"`
	// Written is false on dry runs
	Written bool `json:"written"`
	// Usage is the token usage of the edit
	Usage *components.LLMUsage `json:"usage,omitempty"`
}

// Coder edits one file
type Coder struct {
	Config
	fname   string
	relName string
	agent   *agents.Agent[schema.Input, EditResponse]
	repoMap string
}

// New returns a Coder editing fname
func New(fname string, opts ...Option) (*Coder, error) {
	abs, err := filepath.Abs(fname)
	if err != nil {
		return nil, err
	}
	ret := &Coder{
		Config: Config{
			logger: slog.Default(),
		},
		fname: abs,
	}
	for _, opt := range opts {
		opt(&ret.Config)
	}
	ret.relName = filepath.Base(abs)
	if ret.root != "" {
		if rel, err := filepath.Rel(ret.root, abs); err == nil {
			ret.relName = filepath.ToSlash(rel)
		}
	}
	generator := cot.New(
		cot.WithBackground(background),
		cot.WithSteps(steps),
		cot.WithOutputInstructs(outputInstructs),
		cot.WithContextProviders(
			systemprompt.NewFuncProvider(fileContextTitle, ret.fileContext),
			systemprompt.NewFuncProvider(repoMapContextTitle, func() string { return ret.repoMap }),
		),
	)
	agentOpts := append([]agents.Option{agents.WithSystemPromptGenerator(generator), agents.WithName("Coder")}, ret.agentOpts...)
	ret.agent = agents.NewAgent[schema.Input, EditResponse](agentOpts...)
	return ret, nil
}

// Path returns the absolute path of the edited file
func (c *Coder) Path() string {
	return c.fname
}

// Agent returns the agent writing the edits
func (c *Coder) Agent() *agents.Agent[schema.Input, EditResponse] {
	return c.agent
}

func (c *Coder) fileContext() string {
	content, err := c.read()
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%s\n```\n%s\n```", c.relName, content)
}

func (c *Coder) read() (string, error) {
	bs, err := os.ReadFile(c.fname)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(bs), nil
}

// Run asks for the edit described by instructions and applies it
func (c *Coder) Run(ctx context.Context, instructions string) (*Result, error) {
	content, err := c.read()
	if err != nil {
		return nil, err
	}
	if c.mapper != nil {
		repoMap, err := c.mapper(ctx, c.fname)
		if err != nil {
			c.logger.Warn("repository map unavailable", slog.String("fname", c.fname), slog.Any("error", err))
		}
		c.repoMap = repoMap
	}
	resp := new(EditResponse)
	llmResp := new(components.LLMResponse)
	if err := c.agent.Run(ctx, schema.NewInput(instructions), resp, llmResp); err != nil {
		return nil, err
	}
	c.logger.Debug("edit proposed", slog.String("fname", c.relName), slog.String("explanation", resp.Explanation))
	updated, err := Apply(content, resp.Diff, c.relName)
	if err != nil {
		return nil, err
	}
	ret := &Result{
		Path:        c.fname,
		Explanation: resp.Explanation,
		Diff:        resp.Diff,
		Content:     updated,
		Usage:       llmResp.Usage,
	}
	if c.dryRun {
		return ret, nil
	}
	if err := writeFileAtomic(c.fname, []byte(updated)); err != nil {
		return nil, err
	}
	ret.Written = true
	c.logger.Info("file edited", slog.String("fname", c.fname))
	return ret, nil
}

// writeFileAtomic replaces fname through a temporary file in the same directory
func writeFileAtomic(fname string, data []byte) error {
	perm := fs.FileMode(0o644)
	if info, err := os.Stat(fname); err == nil {
		perm = info.Mode().Perm()
	}
	tmp, err := os.CreateTemp(filepath.Dir(fname), "."+filepath.Base(fname)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}
	return os.Rename(tmpName, fname)
}
