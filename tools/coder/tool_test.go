package coder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bububa/codecrew/coder"
	"github.com/bububa/codecrew/llm/llmtest"
	"github.com/bububa/codecrew/schema"
	"github.com/bububa/codecrew/tools"
)

func writeFile(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "app.py"), []byte("def run():\n    return 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestCoderMalformedInput(t *testing.T) {
	tool := New()
	for _, input := range []string{"app.py", "|do something", "app.py|  "} {
		in := schema.String(input)
		var out schema.String
		if err := tool.Run(context.Background(), &in, &out); !errors.Is(err, tools.ErrMalformedInput) {
			t.Errorf("expect ErrMalformedInput for %q, but got %v", input, err)
		}
	}
}

func TestCoderEdit(t *testing.T) {
	dir := writeFile(t)
	clt := llmtest.New(llmtest.JSON(coder.EditResponse{
		Explanation: "return 2",
		Diff:        "--- app.py\n+++ app.py\n@@ @@\n def run():\n-    return 1\n+    return 2\n",
	}))
	tool := New(WithClient(clt), WithCwd(dir), WithoutRepoMap())
	in := schema.String("app.py|make run return 2|please")
	out, err := tool.RunAnonymous(context.Background(), &in)
	if err != nil {
		t.Fatal(err)
	}
	got := schema.Stringify(out.(*schema.String))
	if !strings.HasPrefix(got, "Edited app.py\n\nreturn 2") {
		t.Errorf("unexpected output %q", got)
	}
	bs, _ := os.ReadFile(filepath.Join(dir, "app.py"))
	if string(bs) != "def run():\n    return 2\n" {
		t.Errorf("unexpected file content %q", bs)
	}
	reqs := clt.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expect 1 request, but got %d", len(reqs))
	}
	if last := reqs[0].Messages[len(reqs[0].Messages)-1].Content().String(); last != "make run return 2|please" {
		t.Errorf("expect later delimiters kept in instructions, but got %q", last)
	}
}

func TestCoderEditFailure(t *testing.T) {
	dir := writeFile(t)
	clt := llmtest.New(llmtest.JSON(coder.EditResponse{Diff: "@@ @@\n-def missing():\n+def found():\n"}))
	out := New(WithClient(clt), WithCwd(dir), WithoutRepoMap()).Edit(context.Background(), "app.py", "rename")
	if !strings.HasPrefix(out, ErrorPrefix) || !strings.Contains(out, "hunk does not match") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestCoderNoClient(t *testing.T) {
	dir := writeFile(t)
	out := New(WithCwd(dir)).Edit(context.Background(), "app.py", "anything")
	if !strings.HasPrefix(out, "Final Answer: There was an error") {
		t.Errorf("unexpected output %q", out)
	}
}
