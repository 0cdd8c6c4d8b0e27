package tools

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestCatch(t *testing.T) {
	const prefix = "There was an error searching the code.\n\n"
	if got := Catch(prefix, func() (string, error) { return "ok", nil }); got != "ok" {
		t.Errorf("expect ok, but got %s", got)
	}
	got := Catch(prefix, func() (string, error) { return "", errors.New("boom") })
	if got != prefix+"boom" {
		t.Errorf("expect prefixed error, but got %q", got)
	}
	got = Catch(prefix, func() (string, error) {
		var m map[string]int
		m["x"] = 1
		return "unreachable", nil
	})
	if !strings.HasPrefix(got, "There was an error") {
		t.Errorf("expect panic converted to error text, but got %q", got)
	}
}

func TestSplitPair(t *testing.T) {
	a, b, err := SplitPair("main.go|add a comment")
	if err != nil {
		t.Fatal(err)
	}
	if a != "main.go" || b != "add a comment" {
		t.Errorf("expect main.go / add a comment, but got %q / %q", a, b)
	}

	a, b, err = SplitPair(" pkg/a.go | use x|y instead ")
	if err != nil {
		t.Fatal(err)
	}
	if a != "pkg/a.go" || b != "use x|y instead" {
		t.Errorf("expect split on first delimiter only, but got %q / %q", a, b)
	}

	for _, input := range []string{"no delimiter", "|instructions", "path|", "|"} {
		if _, _, err := SplitPair(input); !errors.Is(err, ErrMalformedInput) {
			t.Errorf("input %q: expect ErrMalformedInput, but got %v", input, err)
		}
	}
}

func TestCleanPath(t *testing.T) {
	cases := map[string]string{
		"'./src'":       "./src",
		` "pkg/a.go" `: "pkg/a.go",
		"`dir`":         "dir",
		"plain":         "plain",
	}
	for in, expect := range cases {
		if got := CleanPath(in); got != expect {
			t.Errorf("CleanPath(%q): expect %q, but got %q", in, expect, got)
		}
	}
}

func TestResolvePath(t *testing.T) {
	cwd := t.TempDir()
	got, err := ResolvePath(cwd, " 'missing/dir' ")
	if err != nil {
		t.Fatal(err)
	}
	if expect := filepath.Join(cwd, "missing", "dir"); got != expect {
		t.Errorf("expect %s, but got %s", expect, got)
	}
	abs := filepath.Join(cwd, "x")
	if got, _ := ResolvePath("/elsewhere", abs); got != abs {
		t.Errorf("expect absolute path kept, but got %s", got)
	}
	if got := DisplayPath(cwd, filepath.Join(cwd, "a", "b.go")); got != filepath.Join("a", "b.go") {
		t.Errorf("expect relative display path, but got %s", got)
	}
}
