package repomap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeTags maps a root relative file name to its tags; Line and Kind are set, the rest is filled in
type fakeTags map[string][]Tag

func (f fakeTags) Tags(_ context.Context, fname string, rel string) ([]Tag, error) {
	list := f[rel]
	ret := make([]Tag, 0, len(list))
	for _, t := range list {
		t.Fname = fname
		t.RelFname = rel
		ret = append(ret, t)
	}
	return ret, nil
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func def(name string, line int) Tag {
	return Tag{Name: name, Line: line, Kind: KindDef}
}

func ref(name string, line int) Tag {
	return Tag{Name: name, Line: line, Kind: KindRef}
}

func newFixture(t *testing.T) (string, fakeTags) {
	root := writeFiles(t, map[string]string{
		"main.go":          "package main\n\nfunc main() {\n\tLoadConfig()\n\tServe()\n}\n",
		"config/config.go": "package config\n\nfunc LoadConfig() {}\n\nfunc _helper() {}\n",
		"server/server.go": "package server\n\nfunc Serve() {}\n",
		"README.md":        "# readme\n",
	})
	tags := fakeTags{
		"main.go":          {def("main", 2), ref("LoadConfig", 3), ref("Serve", 4), ref("_helper", 3)},
		"config/config.go": {def("LoadConfig", 2), def("_helper", 4)},
		"server/server.go": {def("Serve", 2)},
	}
	return root, tags
}

func TestRankedTags(t *testing.T) {
	root, tags := newFixture(t)
	m := New(root, WithTagger(tags))
	req := Request{
		ChatFiles:       []string{filepath.Join(root, "main.go")},
		OtherFiles:      []string{filepath.Join(root, "config/config.go"), filepath.Join(root, "server/server.go"), filepath.Join(root, "README.md")},
		MentionedIdents: []string{"Serve"},
	}
	ranked, err := m.RankedTags(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(ranked) == 0 || ranked[0].Tag == nil || ranked[0].Tag.Name != "Serve" {
		t.Fatalf("expect mentioned identifier Serve first, but got %+v", ranked)
	}
	var names []string
	for _, r := range ranked {
		if r.RelFname == "main.go" {
			t.Errorf("expect chat file to be excluded, but got %+v", r)
		}
		if r.Tag != nil {
			names = append(names, r.Tag.Name)
		} else {
			names = append(names, r.RelFname)
		}
	}
	got := strings.Join(names, ",")
	if got != "Serve,LoadConfig,_helper,README.md" {
		t.Errorf("unexpected ranking: %s", got)
	}
}

func TestRankedTagsMap(t *testing.T) {
	root, tags := newFixture(t)
	m := New(root, WithTagger(tags), WithTokenCounter(WordsTokenCounter{}))
	req := Request{
		ChatFiles:  []string{filepath.Join(root, "main.go")},
		OtherFiles: []string{filepath.Join(root, "config/config.go"), filepath.Join(root, "server/server.go")},
	}
	out, err := m.RankedTagsMap(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	for _, expect := range []string{"config/config.go:\n", "│func LoadConfig() {}\n", "server/server.go:\n", "│func Serve() {}\n", "⋮...\n"} {
		if !strings.Contains(out, expect) {
			t.Errorf("expect map to contain %q, but got:\n%s", expect, out)
		}
	}
	if strings.Contains(out, "main.go") {
		t.Errorf("expect chat file to be left out, but got:\n%s", out)
	}
}

func TestRankedTagsMapBudget(t *testing.T) {
	files := make(map[string]string)
	tags := make(fakeTags)
	var other []string
	var mainTags []Tag
	for i := 0; i < 200; i++ {
		name := fmt.Sprintf("pkg/file%03d.go", i)
		ident := fmt.Sprintf("Func%03d", i)
		files[name] = fmt.Sprintf("package pkg\n\nfunc %s(a, b, c int) (int, error) { return a + b + c, nil }\n", ident)
		tags[name] = []Tag{def(ident, 2)}
		mainTags = append(mainTags, ref(ident, 0))
		other = append(other, name)
	}
	files["main.go"] = "package main\n"
	tags["main.go"] = mainTags
	root := writeFiles(t, files)
	for i := range other {
		other[i] = filepath.Join(root, other[i])
	}
	const budget = 300
	m := New(root, WithTagger(tags), WithMaxMapTokens(budget))
	out, err := m.RankedTagsMap(context.Background(), Request{
		ChatFiles:  []string{filepath.Join(root, "main.go")},
		OtherFiles: other,
	})
	if err != nil {
		t.Fatal(err)
	}
	if out == "" {
		t.Fatal("expect a non empty map")
	}
	if n := (WordsTokenCounter{}).Count(out); float64(n) > budget*1.15 {
		t.Errorf("expect map within budget %d, but got %d tokens", budget, n)
	}
}

func TestRankedTagsMapEmpty(t *testing.T) {
	m := New(t.TempDir(), WithTagger(fakeTags{}))
	out, err := m.RankedTagsMap(context.Background(), Request{})
	if err != nil {
		t.Fatal(err)
	}
	if out != "" {
		t.Errorf("expect empty map, but got %q", out)
	}
}

func TestRankedTagsFilesWithoutTags(t *testing.T) {
	root := writeFiles(t, map[string]string{"a.txt": "a\n", "b.txt": "b\n"})
	m := New(root, WithTagger(fakeTags{}))
	out, err := m.RankedTagsMap(context.Background(), Request{
		OtherFiles: []string{filepath.Join(root, "a.txt"), filepath.Join(root, "b.txt")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if out != "\na.txt\n\nb.txt\n" {
		t.Errorf("expect bare file names, but got %q", out)
	}
}

func TestPageRank(t *testing.T) {
	g := newGraph()
	g.addEdge("a", "c", 1, "x")
	g.addEdge("b", "c", 1, "y")
	g.addEdge("c", "a", 1, "z")
	ranks := g.pageRank(nil)
	var sum float64
	for _, v := range ranks {
		sum += v
	}
	if sum < 0.999 || sum > 1.001 {
		t.Errorf("expect ranks to sum to 1, but got %f", sum)
	}
	if !(ranks["c"] > ranks["a"] && ranks["a"] > ranks["b"]) {
		t.Errorf("expect c > a > b, but got %v", ranks)
	}
	biased := g.pageRank(map[string]float64{"b": 1})
	if biased["b"] <= ranks["b"] {
		t.Errorf("expect personalization to raise b, but got %f <= %f", biased["b"], ranks["b"])
	}
}

func TestWordsTokenCounter(t *testing.T) {
	if n := (WordsTokenCounter{}).Count("hello world"); n != 3 {
		t.Errorf("expect 3 segments, but got %d", n)
	}
}

func TestRankedTagsMentionedFile(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"lonely.go": "package lonely\n\nfunc Alone() {}\n",
		"other.go":  "package other\n\nfunc Other() {}\n",
	})
	tags := fakeTags{
		"lonely.go": {def("Alone", 2)},
		"other.go":  {def("Other", 2), ref("fmt", 2)},
	}
	m := New(root, WithTagger(tags))
	out, err := m.RankedTagsMap(context.Background(), Request{
		OtherFiles:      []string{filepath.Join(root, "lonely.go"), filepath.Join(root, "other.go")},
		MentionedFnames: []string{"lonely.go"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "lonely.go:\n⋮...\n│func Alone() {}\n") {
		t.Errorf("expect definitions of the mentioned file, but got:\n%s", out)
	}
	if !strings.Contains(out, "\nother.go\n") {
		t.Errorf("expect other.go listed by name, but got:\n%s", out)
	}
}
