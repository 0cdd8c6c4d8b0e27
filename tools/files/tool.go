// Package files implements the tool listing the tracked files of a folder.
package files

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bububa/codecrew/repo"
	"github.com/bububa/codecrew/schema"
	"github.com/bububa/codecrew/tools"
)

const (
	Title       = "aider_files_tool"
	Description = "A tool to get a list of tracked files from the specified folder. The input is the folder path. Returns a list of the files in the folder."
	// ErrorPrefix starts the text returned on failure
	ErrorPrefix = "There was an error searching the code.\n\n"
)

type Config struct {
	tools.Config
	cwd        string
	ignoreFile string
	repoOpts   []repo.Option
	logger     *slog.Logger
}

// Files lists the tracked source files of a folder
type Files struct {
	Config
}

var _ tools.Tool[schema.String, schema.String] = (*Files)(nil)

func New(opts ...Option) *Files {
	ret := &Files{
		Config: Config{
			ignoreFile: repo.DefaultIgnoreFile,
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

// Run lists the folder named by input. Failures are reported in the output text.
func (t *Files) Run(ctx context.Context, input *schema.String, output *schema.String) error {
	*output = schema.String(t.List(ctx, string(*input)))
	return nil
}

func (t *Files) RunAnonymous(ctx context.Context, input any) (any, error) {
	return tools.RunAnonymous[schema.String, schema.String](ctx, t, t, input)
}

// List returns the "Available files" listing of folder
func (t *Files) List(ctx context.Context, folder string) string {
	return tools.Catch(ErrorPrefix, func() (string, error) {
		abs, err := tools.ResolvePath(t.cwd, folder)
		if err != nil {
			return "", err
		}
		if !tools.Exists(abs) {
			return fmt.Sprintf("Invalid folder path provided: %s", abs), nil
		}
		t.logger.Debug("listing tracked files", slog.String("folder", abs))
		fnames, err := repo.TrackedSrcFiles(ctx, abs, t.ignoreFile, t.repoOpts...)
		if err != nil {
			return "", err
		}
		list := make([]string, 0, len(fnames))
		for _, fname := range fnames {
			list = append(list, tools.DisplayPath(t.cwd, fname))
		}
		return "Available files:\n\n" + strings.Join(list, "\n"), nil
	})
}
