// Package codesearch answers questions about a repository with a crew of code reviewers.
package codesearch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bububa/codecrew/crew"
	"github.com/bububa/codecrew/llm"
	"github.com/bububa/codecrew/tools"
	"github.com/bububa/codecrew/tools/files"
	"github.com/bububa/codecrew/tools/repomap"
)

const (
	reviewerBackstory = "You are an expert code reviewer. You search through code repositories to find answers to questions."
	detailsGoal       = "Provide details about the code that are useful to answer the question."
	coderGoal         = "Use tools to examine code and answer questions for the manager."
)

const getFileListTask = `Get a list of files from this folder: %s.

Provide ONLY the list of files that are relevant in your response.
DO NOT provide feedback or suggestions.
It is VERY important that the final answer is ONLY the list of files.
Like this:

<FILE_LIST>
  [replace this with the list of files]
</FILE_LIST>`

const trimFileListTask = `Trim the list of files to files that may contain content related to %s`

// Backend is the language model of a crew member
type Backend struct {
	Client      llm.Client
	Model       string
	Temperature float32
	MaxTokens   int
}

// Backends holds the backend of every crew member
type Backends struct {
	Manager   Backend
	Assistant Backend
	Coder     Backend
}

// SameBackend uses b for every crew member
func SameBackend(b Backend) Backends {
	return Backends{Manager: b, Assistant: b, Coder: b}
}

// ToolsConfig configures the tools of the Assistant and the Coder
type ToolsConfig struct {
	Cwd        string
	IgnoreFile string
	Model      string
	MapTokens  int
	Cache      bool
	Logger     *slog.Logger
}

// DefaultTools returns the file locator and the code finder tools
func DefaultTools(cfg ToolsConfig) []tools.AnonymousTool {
	fileOpts := []files.Option{files.WithCwd(cfg.Cwd), files.WithLogger(cfg.Logger)}
	finderOpts := []repomap.Option{
		repomap.WithCwd(cfg.Cwd),
		repomap.WithModel(cfg.Model),
		repomap.WithMapTokens(cfg.MapTokens),
		repomap.WithCache(cfg.Cache),
		repomap.WithLogger(cfg.Logger),
	}
	if cfg.IgnoreFile != "" {
		fileOpts = append(fileOpts, files.WithIgnoreFile(cfg.IgnoreFile))
		finderOpts = append(finderOpts, repomap.WithIgnoreFile(cfg.IgnoreFile))
	}
	return []tools.AnonymousTool{
		files.New(fileOpts...),
		repomap.NewCodeFinder(finderOpts...),
	}
}

type options struct {
	maxIter int
	verbose bool
	printer *crew.Printer
	logger  *slog.Logger
}

type Option func(o *options)

// WithMaxIter bounds the reasoning steps of every agent
func WithMaxIter(n int) Option {
	return func(o *options) {
		o.maxIter = n
	}
}

// WithVerbose prints the agents transcript with p
func WithVerbose(p *crew.Printer) Option {
	return func(o *options) {
		o.verbose = p != nil
		o.printer = p
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// SearchCode runs the file listing then the file trimming task on folder and returns the final answer
func SearchCode(ctx context.Context, backends Backends, toolset []tools.AnonymousTool, folder string, query string, opts ...Option) (string, error) {
	out, err := Run(ctx, backends, toolset, folder, query, opts...)
	if err != nil {
		return "", err
	}
	return out.Raw, nil
}

// Run is SearchCode returning the whole crew output.
// The Manager takes part in the crew but no task is assigned to it.
func Run(ctx context.Context, backends Backends, toolset []tools.AnonymousTool, folder string, query string, opts ...Option) (*crew.Output, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	manager, err := newAgent("Manager", detailsGoal, true, nil, backends.Manager, o)
	if err != nil {
		return nil, err
	}
	assistant, err := newAgent("Assistant", detailsGoal, false, toolset, backends.Assistant, o)
	if err != nil {
		return nil, err
	}
	coder, err := newAgent("Coder", coderGoal, false, toolset, backends.Coder, o)
	if err != nil {
		return nil, err
	}
	tasks := []*crew.Task{
		crew.NewTask(fmt.Sprintf(getFileListTask, folder), assistant, crew.WithTaskName("get_file_list")),
		crew.NewTask(fmt.Sprintf(trimFileListTask, query), coder, crew.WithTaskName("trim_file_list")),
	}
	crewOpts := []crew.Option{
		crew.WithAgents(manager, assistant, coder),
		crew.WithProcess(crew.Sequential),
		crew.WithLogger(o.logger),
	}
	if o.printer != nil {
		crewOpts = append(crewOpts, crew.WithPrinter(o.printer))
	}
	return crew.New(tasks, crewOpts...).Kickoff(ctx)
}

func newAgent(role string, goal string, allowDelegation bool, toolset []tools.AnonymousTool, backend Backend, o options) (*crew.Agent, error) {
	return crew.NewAgent(crew.AgentConfig{
		Role:            role,
		Goal:            goal,
		Backstory:       reviewerBackstory,
		AllowDelegation: allowDelegation,
		Verbose:         o.verbose,
		MaxIter:         o.maxIter,
		Client:          backend.Client,
		Model:           backend.Model,
		Temperature:     backend.Temperature,
		MaxTokens:       backend.MaxTokens,
	}, crew.WithTools(toolset...), crew.WithAgentLogger(o.logger))
}
