package repomap

import "context"

// TagKind tells definitions from references
type TagKind string

const (
	KindDef TagKind = "def"
	KindRef TagKind = "ref"
)

// Tag is a named identifier found in a file
type Tag struct {
	// RelFname is the path relative to the map root, slash separated
	RelFname string `json:"rel_fname"`
	// Fname is the absolute path
	Fname string `json:"fname"`
	// Line is 0-based, -1 when unknown
	Line int     `json:"line"`
	Name string  `json:"name"`
	Kind TagKind `json:"kind"`
}

// Tagger extracts the tags of a file
type Tagger interface {
	Tags(ctx context.Context, fname string, relFname string) ([]Tag, error)
}

// TaggerFunc adapts a function to Tagger
type TaggerFunc func(ctx context.Context, fname string, relFname string) ([]Tag, error)

func (f TaggerFunc) Tags(ctx context.Context, fname string, relFname string) ([]Tag, error) {
	return f(ctx, fname, relFname)
}
