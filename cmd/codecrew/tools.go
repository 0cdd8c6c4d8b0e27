package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bububa/codecrew/llm"
	"github.com/bububa/codecrew/schema"
	"github.com/bububa/codecrew/tools"
	codertool "github.com/bububa/codecrew/tools/coder"
	"github.com/bububa/codecrew/tools/files"
	"github.com/bububa/codecrew/tools/repomap"
)

// ToolResult is the output of a tool command
type ToolResult struct {
	Tool   string `json:"tool" yaml:"tool"`
	Input  string `json:"input" yaml:"input"`
	Output string `json:"output" yaml:"output"`
}

func (r ToolResult) String() string {
	return r.Output
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Run a single tool of the crew",
}

var filesCmd = &cobra.Command{
	Use:   "files <folder>",
	Short: "List the tracked source files of a folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tool := files.New(files.WithIgnoreFile(app.cfg.Aider.IgnoreFile), files.WithLogger(app.logger))
		return runTool(cmd, tool, args[0])
	},
}

var findCmd = &cobra.Command{
	Use:   "find <file>",
	Short: "Print the ranked code map around a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTool(cmd, repomap.NewCodeFinder(repoMapOptions()...), args[0])
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <folder|query>",
	Short: "Print the ranked code map of a folder for a query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTool(cmd, repomap.NewSearch(repoMapOptions()...), args[0])
	},
}

var dryRun bool

var editCmd = &cobra.Command{
	Use:   "edit <file|instructions>",
	Short: "Edit a file following instructions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		clt, err := llm.NewClient(app.cfg.Aider.ProviderConfig)
		if err != nil {
			return fmt.Errorf("aider backend: %w", err)
		}
		tool := codertool.New(
			codertool.WithClient(clt),
			codertool.WithModel(app.cfg.Aider.Model),
			codertool.WithTemperature(app.cfg.Aider.Temperature),
			codertool.WithIgnoreFile(app.cfg.Aider.IgnoreFile),
			codertool.WithMapTokens(app.cfg.RepoMap.MapTokens),
			codertool.WithDryRun(dryRun || app.cfg.Aider.DryRun),
			codertool.WithLogger(app.logger),
		)
		return runTool(cmd, tool, args[0])
	},
}

func init() {
	editCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the edit without writing the file")
	toolsCmd.AddCommand(filesCmd, findCmd, searchCmd, editCmd)
}

func repoMapOptions() []repomap.Option {
	return []repomap.Option{
		repomap.WithIgnoreFile(app.cfg.Aider.IgnoreFile),
		repomap.WithModel(app.cfg.Aider.Model),
		repomap.WithMapTokens(app.cfg.RepoMap.MapTokens),
		repomap.WithCache(app.cfg.RepoMap.Cache),
		repomap.WithLogger(app.logger),
	}
}

// runTool runs tool with input, a malformed input fails the command
func runTool(cmd *cobra.Command, tool tools.Tool[schema.String, schema.String], input string) error {
	in := schema.String(input)
	var out schema.String
	if err := tool.Run(cmd.Context(), &in, &out); err != nil {
		return err
	}
	format, _ := parseFormat(outputFormat)
	return Render(cmd.OutOrStdout(), ToolResult{Tool: tool.Title(), Input: input, Output: string(out)}, format)
}
