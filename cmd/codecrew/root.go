package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bububa/codecrew/config"
	"github.com/bububa/codecrew/crew"
	"github.com/bububa/codecrew/crews/codesearch"
	"github.com/bububa/codecrew/llm"
	"github.com/bububa/codecrew/logging"
)

var (
	configPath   string
	outputFormat string
	quiet        bool
	logLevel     string
)

// app is the state shared by the commands once the configuration is loaded
var app struct {
	cfg    *config.Config
	logger *slog.Logger
}

var rootCmd = &cobra.Command{
	Use:   "codecrew <query> [folder]",
	Short: "Ask a crew of agents questions about a code repository",
	Long: `codecrew lists the tracked files of a folder, ranks its code symbols and
lets a crew of role-playing agents answer a question about it.

The folder defaults to the current directory.`,
	Args:              cobra.RangeArgs(1, 2),
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runSearch,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default codecrew.yaml in the working directory or the user config dir)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", string(FormatText), "output format: text, json or yaml")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "do not print the agents transcript")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(toolsCmd)
}

func setup(cmd *cobra.Command, _ []string) error {
	if _, err := parseFormat(outputFormat); err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if quiet {
		cfg.Verbose = false
	}
	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	app.cfg = cfg
	app.logger = logger
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]
	folder := "."
	if len(args) > 1 {
		folder = args[1]
	}
	backends, err := agentBackends(app.cfg)
	if err != nil {
		return err
	}
	opts := []codesearch.Option{
		codesearch.WithMaxIter(app.cfg.Agents.MaxIter),
		codesearch.WithLogger(app.logger),
	}
	if app.cfg.Verbose {
		opts = append(opts, codesearch.WithVerbose(crew.NewPrinter(cmd.ErrOrStderr())))
	}
	toolset := codesearch.DefaultTools(codesearch.ToolsConfig{
		IgnoreFile: app.cfg.Aider.IgnoreFile,
		Model:      app.cfg.Aider.Model,
		MapTokens:  app.cfg.RepoMap.MapTokens,
		Cache:      app.cfg.RepoMap.Cache,
		Logger:     app.logger,
	})
	out, err := codesearch.Run(cmd.Context(), backends, toolset, folder, query, opts...)
	if err != nil {
		return err
	}
	format, _ := parseFormat(outputFormat)
	return Render(cmd.OutOrStdout(), out, format)
}

// agentBackends gives every crew member the configured agents backend
func agentBackends(cfg *config.Config) (codesearch.Backends, error) {
	clt, err := llm.NewClient(cfg.Agents.ProviderConfig)
	if err != nil {
		return codesearch.Backends{}, fmt.Errorf("agents backend: %w", err)
	}
	return codesearch.SameBackend(codesearch.Backend{
		Client:      clt,
		Model:       cfg.Agents.Model,
		Temperature: cfg.Agents.Temperature,
		MaxTokens:   cfg.Agents.MaxTokens,
	}), nil
}
