// Package repomap builds a ranked map of the definitions of a repository.
//
// Files are nodes of a graph with an edge from every file referencing an
// identifier to every file defining it. PageRank over that graph, biased
// towards the files in the chat, orders the definitions, and as many of them
// as fit the token budget are rendered with their source lines.
package repomap

import (
	"context"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultMaxMapTokens is the default token budget of a map
const DefaultMaxMapTokens = 1024

// Request describes one ranking
type Request struct {
	// ChatFiles are the files in focus. Their own definitions are left out of the map.
	ChatFiles []string
	// OtherFiles are the candidate files
	OtherFiles []string
	// MentionedFnames are root relative paths to favour. Their definitions are always ranked.
	MentionedFnames []string
	// MentionedIdents are identifiers to favour
	MentionedIdents []string
}

// RankedTag is an entry of the ranking: a definition, or a whole file when Tag is nil
type RankedTag struct {
	RelFname string
	Tag      *Tag
}

// RepoMap ranks the definitions of the files below root
type RepoMap struct {
	root         string
	tagger       Tagger
	counter      TokenCounter
	maxMapTokens int
	logger       *slog.Logger
}

// Option configures a RepoMap
type Option func(*RepoMap)

// WithTagger sets the tag extractor
func WithTagger(t Tagger) Option {
	return func(m *RepoMap) {
		m.tagger = t
	}
}

// WithTokenCounter sets the tokenizer measuring the map
func WithTokenCounter(c TokenCounter) Option {
	return func(m *RepoMap) {
		m.counter = c
	}
}

// WithMaxMapTokens sets the token budget
func WithMaxMapTokens(n int) Option {
	return func(m *RepoMap) {
		if n > 0 {
			m.maxMapTokens = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(m *RepoMap) {
		if l != nil {
			m.logger = l
		}
	}
}

// New returns a RepoMap rooted at root
func New(root string, opts ...Option) *RepoMap {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	m := &RepoMap{
		root:         root,
		maxMapTokens: DefaultMaxMapTokens,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.tagger == nil {
		m.tagger = NewTreeSitterTagger()
	}
	if m.counter == nil {
		m.counter = WordsTokenCounter{}
	}
	return m
}

// Root returns the map root
func (m *RepoMap) Root() string {
	return m.root
}

// MaxMapTokens returns the token budget
func (m *RepoMap) MaxMapTokens() int {
	return m.maxMapTokens
}

func (m *RepoMap) relFname(fname string) string {
	rel, err := filepath.Rel(m.root, fname)
	if err != nil {
		return filepath.ToSlash(fname)
	}
	return filepath.ToSlash(rel)
}

func (m *RepoMap) absFname(fname string) string {
	if filepath.IsAbs(fname) {
		return filepath.Clean(fname)
	}
	return filepath.Join(m.root, fname)
}

// RankedTags orders the definitions of the request's files by importance.
// Files without ranked definitions follow as whole-file entries.
func (m *RepoMap) RankedTags(ctx context.Context, req Request) ([]RankedTag, error) {
	var (
		defines         = make(map[string]map[string]struct{})
		references      = make(map[string][]string)
		definitions     = make(map[[2]string][]Tag)
		personalization = make(map[string]float64)
		chatRel         = make(map[string]struct{})
		mentionedFnames = toSet(req.MentionedFnames)
		mentionedIdents = toSet(req.MentionedIdents)
	)
	chatAbs := make(map[string]struct{}, len(req.ChatFiles))
	for _, f := range req.ChatFiles {
		chatAbs[m.absFname(f)] = struct{}{}
	}
	fnames := uniqueSorted(append(append([]string{}, req.ChatFiles...), req.OtherFiles...), m.absFname)
	if len(fnames) == 0 {
		return nil, nil
	}
	personalize := 100 / float64(len(fnames))
	for _, fname := range fnames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		info, err := os.Stat(fname)
		if err != nil || !info.Mode().IsRegular() {
			m.logger.Warn("repo-map can't include file", slog.String("fname", fname))
			continue
		}
		rel := m.relFname(fname)
		if _, ok := chatAbs[fname]; ok {
			personalization[rel] = personalize
			chatRel[rel] = struct{}{}
		}
		if _, ok := mentionedFnames[rel]; ok {
			personalization[rel] = personalize
		}
		tags, err := m.tagger.Tags(ctx, fname, rel)
		if err != nil {
			m.logger.Warn("repo-map tags failed", slog.String("fname", rel), slog.Any("error", err))
			continue
		}
		for _, tag := range tags {
			switch tag.Kind {
			case KindDef:
				set, ok := defines[tag.Name]
				if !ok {
					set = make(map[string]struct{})
					defines[tag.Name] = set
				}
				set[rel] = struct{}{}
				key := [2]string{rel, tag.Name}
				definitions[key] = append(definitions[key], tag)
			case KindRef:
				references[tag.Name] = append(references[tag.Name], rel)
			}
		}
	}
	if len(references) == 0 {
		for ident, set := range defines {
			references[ident] = sortedKeys(set)
		}
	}

	g := newGraph()
	idents := make([]string, 0, len(defines))
	for ident := range defines {
		if _, ok := references[ident]; ok {
			idents = append(idents, ident)
		}
	}
	sort.Strings(idents)
	for _, ident := range idents {
		definers := sortedKeys(defines[ident])
		mul := 1.0
		if _, ok := mentionedIdents[ident]; ok {
			mul *= 10
		}
		if strings.HasPrefix(ident, "_") {
			mul *= 0.1
		}
		counts := make(map[string]int)
		for _, referencer := range references[ident] {
			counts[referencer]++
		}
		for _, referencer := range sortedKeys(counts) {
			weight := mul * math.Sqrt(float64(counts[referencer]))
			for _, definer := range definers {
				g.addEdge(referencer, definer, weight, ident)
			}
		}
	}

	ranked := g.pageRank(personalization)

	outWeight := make(map[string]float64)
	for _, e := range g.edges {
		outWeight[e.src] += e.weight
	}
	rankedDefinitions := make(map[[2]string]float64)
	for _, e := range g.edges {
		rankedDefinitions[[2]string{e.dst, e.ident}] += ranked[e.src] * e.weight / outWeight[e.src]
	}
	// mentioned files always show their own definitions, ranked by the file's weight
	for _, rel := range sortedKeys(mentionedFnames) {
		var idents []string
		for key := range definitions {
			if key[0] == rel {
				if _, ok := rankedDefinitions[key]; !ok {
					idents = append(idents, key[1])
				}
			}
		}
		for _, ident := range idents {
			rankedDefinitions[[2]string{rel, ident}] = ranked[rel] / float64(len(idents))
		}
	}
	defKeys := make([][2]string, 0, len(rankedDefinitions))
	for k := range rankedDefinitions {
		defKeys = append(defKeys, k)
	}
	sort.Slice(defKeys, func(i, j int) bool {
		ri, rj := rankedDefinitions[defKeys[i]], rankedDefinitions[defKeys[j]]
		if ri != rj {
			return ri > rj
		}
		if defKeys[i][0] != defKeys[j][0] {
			return defKeys[i][0] < defKeys[j][0]
		}
		return defKeys[i][1] < defKeys[j][1]
	})

	var ret []RankedTag
	included := make(map[string]struct{})
	for _, key := range defKeys {
		if _, ok := chatRel[key[0]]; ok {
			continue
		}
		for i := range definitions[key] {
			tag := definitions[key][i]
			ret = append(ret, RankedTag{RelFname: tag.RelFname, Tag: &tag})
			included[tag.RelFname] = struct{}{}
		}
	}

	withoutTags := make(map[string]struct{})
	for _, f := range req.OtherFiles {
		withoutTags[m.relFname(m.absFname(f))] = struct{}{}
	}
	nodes := g.sortedNodes()
	sort.SliceStable(nodes, func(i, j int) bool {
		return ranked[nodes[i]] > ranked[nodes[j]]
	})
	for _, fname := range nodes {
		delete(withoutTags, fname)
		if _, ok := included[fname]; !ok {
			if _, isChat := chatRel[fname]; isChat {
				continue
			}
			ret = append(ret, RankedTag{RelFname: fname})
			included[fname] = struct{}{}
		}
	}
	for _, fname := range sortedKeys(withoutTags) {
		if _, ok := included[fname]; ok {
			continue
		}
		if _, isChat := chatRel[fname]; isChat {
			continue
		}
		ret = append(ret, RankedTag{RelFname: fname})
	}
	return ret, nil
}

// RankedTagsMap renders the highest ranked tags that fit the token budget.
// It returns an empty string when nothing can be mapped.
func (m *RepoMap) RankedTagsMap(ctx context.Context, req Request) (string, error) {
	if len(req.ChatFiles) == 0 && len(req.OtherFiles) == 0 {
		return "", nil
	}
	rankedTags, err := m.RankedTags(ctx, req)
	if err != nil {
		return "", err
	}
	chatRel := make(map[string]struct{}, len(req.ChatFiles))
	for _, f := range req.ChatFiles {
		chatRel[m.relFname(m.absFname(f))] = struct{}{}
	}
	r := newRenderer(m.root)

	numTags := len(rankedTags)
	lower, upper := 0, numTags
	middle := min(m.maxMapTokens/25, numTags)
	var (
		bestTree   string
		bestTokens int
	)
	const okErr = 0.15
	for lower <= upper {
		tree := r.tree(rankedTags[:middle], chatRel)
		numTokens := m.counter.Count(tree)
		pctErr := math.Abs(float64(numTokens-m.maxMapTokens)) / float64(m.maxMapTokens)
		if (numTokens <= m.maxMapTokens && numTokens > bestTokens) || pctErr < okErr {
			bestTree = tree
			bestTokens = numTokens
			if pctErr < okErr {
				break
			}
		}
		if numTokens < m.maxMapTokens {
			lower = middle + 1
		} else {
			upper = middle - 1
		}
		middle = min(max((lower+upper)/2, 0), numTags)
	}
	m.logger.Debug("repo-map built",
		slog.Int("ranked_tags", numTags),
		slog.Int("tokens", bestTokens),
		slog.Int("max_tokens", m.maxMapTokens))
	return bestTree, nil
}

func toSet(list []string) map[string]struct{} {
	ret := make(map[string]struct{}, len(list))
	for _, v := range list {
		ret[v] = struct{}{}
	}
	return ret
}

func sortedKeys[V any](m map[string]V) []string {
	ret := make([]string, 0, len(m))
	for k := range m {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}

func uniqueSorted(list []string, normalize func(string) string) []string {
	set := make(map[string]struct{}, len(list))
	for _, v := range list {
		set[normalize(v)] = struct{}{}
	}
	return sortedKeys(set)
}
