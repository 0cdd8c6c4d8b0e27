package delegation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bububa/codecrew/schema"
	"github.com/bububa/codecrew/tools"
)

type fakeWorker struct {
	role    string
	task    string
	context string
}

func (w *fakeWorker) Role() string {
	return w.role
}

func (w *fakeWorker) Execute(_ context.Context, task string, taskContext string) (string, error) {
	w.task = task
	w.context = taskContext
	return "done: " + task, nil
}

func run(t *testing.T, tool *Tool, input string) (string, error) {
	t.Helper()
	in := schema.String(input)
	var out schema.String
	err := tool.Run(context.Background(), &in, &out)
	return string(out), err
}

func TestDelegate(t *testing.T) {
	coder := &fakeWorker{role: "Coder"}
	tool := New([]Worker{&fakeWorker{role: "Assistant"}, coder})
	out, err := run(t, tool, " coder | list files | folder is . ")
	if err != nil {
		t.Fatal(err)
	}
	if out != "done: list files" || coder.context != "folder is ." {
		t.Errorf("unexpected delegation: %q, %+v", out, coder)
	}
	if !strings.Contains(tool.Description(), "Assistant, Coder") {
		t.Errorf("expect roles in description, but got %s", tool.Description())
	}
}

func TestDelegateUnknownCoworker(t *testing.T) {
	tool := New([]Worker{&fakeWorker{role: "Coder"}})
	out, err := run(t, tool, "Manager|task|context")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "Co-worker mentioned on the Action Input not found") || !strings.HasSuffix(out, "Coder.") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestDelegateMalformed(t *testing.T) {
	tool := New(nil)
	if _, err := run(t, tool, "Coder|task"); !errors.Is(err, tools.ErrMalformedInput) {
		t.Errorf("expect ErrMalformedInput, but got %v", err)
	}
}

func TestNewTools(t *testing.T) {
	list := NewTools([]Worker{&fakeWorker{role: "Coder"}})
	if len(list) != 2 || list[0].Title() != DelegateWorkTitle || list[1].Title() != AskQuestionTitle {
		t.Fatalf("unexpected tools %v", list)
	}
	if !strings.HasPrefix(list[1].Description(), "Useful to ask a question") {
		t.Errorf("unexpected description %s", list[1].Description())
	}
}
