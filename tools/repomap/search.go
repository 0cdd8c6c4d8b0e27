package repomap

import (
	"context"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bububa/codecrew/repo"
	rmap "github.com/bububa/codecrew/repomap"
	"github.com/bububa/codecrew/schema"
	"github.com/bububa/codecrew/tools"
)

const (
	SearchTitle       = "aider_search_tool"
	SearchDescription = `A tool to ask questions about the code in a given folder path. The input must be in the format "<folder_path>|<query>". Returns a list of relevant source files and code examples.`
)

var nonWord = regexp.MustCompile(`\W+`)

// Search maps the tracked files of a folder, centred on the words of a query
type Search struct {
	Config
}

var _ tools.Tool[schema.String, schema.String] = (*Search)(nil)

func NewSearch(opts ...Option) *Search {
	ret := new(Search)
	ret.SetTitle(SearchTitle)
	ret.SetDescription(SearchDescription)
	ret.init(opts)
	return ret
}

// Run splits the "<folder_path>|<query>" input. A malformed input is returned as an error.
func (t *Search) Run(ctx context.Context, input *schema.String, output *schema.String) error {
	folder, query, err := tools.SplitPair(string(*input))
	if err != nil {
		return err
	}
	*output = schema.String(t.Search(ctx, folder, query))
	return nil
}

func (t *Search) RunAnonymous(ctx context.Context, input any) (any, error) {
	return tools.RunAnonymous[schema.String, schema.String](ctx, t, t, input)
}

// Search maps folder favouring the files and identifiers named in query
func (t *Search) Search(ctx context.Context, folder string, query string) string {
	return tools.Catch(ErrorPrefix, func() (string, error) {
		t.logger.Info("searching code", slog.String("folder", folder), slog.String("query", query))
		abs, err := tools.ResolvePath(t.cwd, folder)
		if err != nil {
			return "", err
		}
		if !tools.Exists(abs) {
			return "Invalid folder path provided", nil
		}
		others, err := repo.TrackedSrcFiles(ctx, abs, t.ignoreFile, t.repoOpts...)
		if err != nil {
			return "", err
		}
		idents := IdentMentions(query)
		ranked, err := t.rank(ctx, abs, rmap.Request{
			OtherFiles:      others,
			MentionedFnames: FileMentions(query, abs, others),
			MentionedIdents: idents,
		})
		if err != nil {
			return "", err
		}
		return ResultPrefix + ranked, nil
	})
}

// IdentMentions returns the distinct words of text
func IdentMentions(text string) []string {
	seen := make(map[string]struct{})
	var ret []string
	for _, word := range nonWord.Split(text, -1) {
		if word == "" {
			continue
		}
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}
		ret = append(ret, word)
	}
	return ret
}

// FileMentions returns the root relative names of the files that text names by
// relative path, base name or base name without extension.
func FileMentions(text string, root string, fnames []string) []string {
	words := make(map[string]struct{})
	for _, word := range strings.Fields(text) {
		word = strings.Trim(word, "\"'`*!?,.:;()[]{}")
		if word != "" {
			words[strings.ToLower(word)] = struct{}{}
		}
	}
	var ret []string
	for _, fname := range fnames {
		rel, err := filepath.Rel(root, fname)
		if err != nil {
			continue
		}
		rel = filepath.ToSlash(rel)
		base := strings.ToLower(filepath.Base(fname))
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		candidates := []string{strings.ToLower(rel), base}
		if len(stem) >= 3 {
			candidates = append(candidates, stem)
		}
		for _, c := range candidates {
			if _, ok := words[c]; ok {
				ret = append(ret, rel)
				break
			}
		}
	}
	return ret
}
