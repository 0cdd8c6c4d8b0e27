package repomap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCachedTagger(t *testing.T) {
	root := writeFiles(t, map[string]string{"a.go": "package a\n"})
	cache, err := OpenCache(filepath.Join(root, DefaultCacheDir), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	calls := 0
	inner := TaggerFunc(func(_ context.Context, fname string, rel string) ([]Tag, error) {
		calls++
		return []Tag{{RelFname: rel, Fname: fname, Line: 0, Name: "a", Kind: KindDef}}, nil
	})
	tagger := &CachedTagger{Tagger: inner, Cache: cache}
	ctx := context.Background()
	fname := filepath.Join(root, "a.go")
	for i := 0; i < 2; i++ {
		tags, err := tagger.Tags(ctx, fname, "a.go")
		if err != nil {
			t.Fatal(err)
		}
		if len(tags) != 1 || tags[0].Name != "a" || tags[0].Kind != KindDef {
			t.Errorf("unexpected tags: %+v", tags)
		}
	}
	if calls != 1 {
		t.Errorf("expect one extraction, but got %d", calls)
	}

	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(fname, later, later); err != nil {
		t.Fatal(err)
	}
	if _, err := tagger.Tags(ctx, fname, "a.go"); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("expect a modified file to be extracted again, but got %d extractions", calls)
	}
}

func TestCacheMiss(t *testing.T) {
	cache, err := OpenCache(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()
	if _, ok, err := cache.Get(context.Background(), "missing.go", 1); err != nil || ok {
		t.Errorf("expect a miss, but got ok=%v err=%v", ok, err)
	}
}
