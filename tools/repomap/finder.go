package repomap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bububa/codecrew/repo"
	rmap "github.com/bububa/codecrew/repomap"
	"github.com/bububa/codecrew/schema"
	"github.com/bububa/codecrew/tools"
)

const (
	CodeFinderTitle       = "aider_code_finder_tool"
	CodeFinderDescription = "A tool to get a summary of a file at the specified path. The input is the path to the file. The summary includes details about functions and other code found in the file and in related files."
)

// CodeFinder summarizes a file and the tracked files around it
type CodeFinder struct {
	Config
}

var _ tools.Tool[schema.String, schema.String] = (*CodeFinder)(nil)

func NewCodeFinder(opts ...Option) *CodeFinder {
	ret := new(CodeFinder)
	ret.SetTitle(CodeFinderTitle)
	ret.SetDescription(CodeFinderDescription)
	ret.init(opts)
	return ret
}

func (t *CodeFinder) Run(ctx context.Context, input *schema.String, output *schema.String) error {
	*output = schema.String(t.Find(ctx, string(*input)))
	return nil
}

func (t *CodeFinder) RunAnonymous(ctx context.Context, input any) (any, error) {
	return tools.RunAnonymous[schema.String, schema.String](ctx, t, t, input)
}

// Find maps the tracked files of fname's folder, centred on fname
func (t *CodeFinder) Find(ctx context.Context, fname string) string {
	return tools.Catch(ErrorPrefix, func() (string, error) {
		abs, err := tools.ResolvePath(t.cwd, fname)
		if err != nil {
			return "", err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return fmt.Sprintf("Invalid file path provided: %s", abs), nil
		}
		root := abs
		var mentioned []string
		if !info.IsDir() {
			root = filepath.Dir(abs)
			mentioned = []string{filepath.Base(abs)}
		}
		others, err := repo.TrackedSrcFiles(ctx, root, t.ignoreFile, t.repoOpts...)
		if err != nil {
			return "", err
		}
		t.logger.Debug("found tracked files", slog.String("root", root), slog.Int("count", len(others)))
		if !info.IsDir() && !contains(others, abs) {
			others = append(others, abs)
		}
		ranked, err := t.rank(ctx, root, rmap.Request{
			OtherFiles:      others,
			MentionedFnames: mentioned,
		})
		if err != nil {
			return "", err
		}
		return ResultPrefix + ranked, nil
	})
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
