// Package repomap implements the tools ranking the code of a repository:
// the code finder centred on one file and the search centred on a query.
package repomap

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/bububa/codecrew/repo"
	rmap "github.com/bububa/codecrew/repomap"
	"github.com/bububa/codecrew/tools"
)

const (
	// ErrorPrefix starts the text returned on failure
	ErrorPrefix = "There was an error searching the code.\n\n"
	// ResultPrefix starts a ranked map
	ResultPrefix = "Matching Content:\n\n"
)

type Config struct {
	tools.Config
	cwd        string
	ignoreFile string
	model      string
	mapTokens  int
	cache      bool
	tagger     rmap.Tagger
	counter    rmap.TokenCounter
	counterMu  sync.Mutex
	repoOpts   []repo.Option
	logger     *slog.Logger
}

func (c *Config) init(opts []Option) {
	c.ignoreFile = repo.DefaultIgnoreFile
	c.model = rmap.DefaultModel
	c.mapTokens = rmap.DefaultMaxMapTokens
	c.logger = slog.Default()
	for _, opt := range opts {
		opt(c)
	}
}

func (c *Config) tokenCounter() rmap.TokenCounter {
	c.counterMu.Lock()
	defer c.counterMu.Unlock()
	if c.counter == nil {
		c.counter = rmap.CounterForModel(c.model)
	}
	return c.counter
}

func (c *Config) getTagger() rmap.Tagger {
	if c.tagger == nil {
		c.tagger = rmap.NewTreeSitterTagger()
	}
	return c.tagger
}

// rank builds the ranked map of req below root
func (c *Config) rank(ctx context.Context, root string, req rmap.Request) (string, error) {
	tagger := c.getTagger()
	if c.cache {
		cache, err := rmap.OpenCache(filepath.Join(root, rmap.DefaultCacheDir), c.logger)
		if err != nil {
			c.logger.Warn("tags cache unavailable", slog.String("root", root), slog.Any("error", err))
		} else {
			defer cache.Close()
			tagger = &rmap.CachedTagger{Tagger: tagger, Cache: cache}
		}
	}
	m := rmap.New(root,
		rmap.WithTagger(tagger),
		rmap.WithTokenCounter(c.tokenCounter()),
		rmap.WithMaxMapTokens(c.mapTokens),
		rmap.WithLogger(c.logger))
	c.logger.Debug("ranking code",
		slog.String("root", root),
		slog.Int("chat_files", len(req.ChatFiles)),
		slog.Int("other_files", len(req.OtherFiles)),
		slog.Any("mentioned_fnames", req.MentionedFnames))
	return m.RankedTagsMap(ctx, req)
}
