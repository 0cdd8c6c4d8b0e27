//go:build !cgo

package repomap

import "context"

// TreeSitterTagger extracts definitions and references with tree-sitter.
// This stub is used when CGO is not available and yields no tags.
type TreeSitterTagger struct{}

var _ Tagger = (*TreeSitterTagger)(nil)

// NewTreeSitterTagger returns a new TreeSitterTagger
func NewTreeSitterTagger() *TreeSitterTagger {
	return &TreeSitterTagger{}
}

// TreeSitterAvailable reports whether tag extraction is compiled in
func TreeSitterAvailable() bool {
	return false
}

// Tags returns no tags when CGO is not available
func (t *TreeSitterTagger) Tags(ctx context.Context, fname string, relFname string) ([]Tag, error) {
	return nil, nil
}

// TagsFromSource returns no tags when CGO is not available
func (t *TreeSitterTagger) TagsFromSource(ctx context.Context, source []byte, lang Language, fname string, relFname string) ([]Tag, error) {
	return nil, nil
}
