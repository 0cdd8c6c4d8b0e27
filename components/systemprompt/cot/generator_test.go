package cot

import (
	"strings"
	"testing"

	"github.com/bububa/codecrew/components/systemprompt"
)

func TestGenerateDefault(t *testing.T) {
	expect := `# IDENTITY and PURPOSE
- This is a conversation with a helpful and friendly AI assistant.

# OUTPUT INSTRUCTIONS
- Always respond using the proper JSON schema.
- Always use the available additional information and context to enhance the response.`
	if got := New().Generate(); got != expect {
		t.Errorf("expect:\n%s\nbut got:\n%s", expect, got)
	}
}

func TestGenerateWithContextProviders(t *testing.T) {
	g := New(
		WithBackground([]string{"- You are Coder."}),
		WithSteps([]string{"- Read the file."}),
		WithContextProviders(
			systemprompt.NewStaticProvider("Files", "main.go"),
			systemprompt.NewStaticProvider("Empty", ""),
		),
	)
	got := g.Generate()
	for _, part := range []string{"# INTERNAL ASSISTANT STEPS", "# EXTRA INFORMATION AND CONTEXT", "## Files\nmain.go"} {
		if !strings.Contains(got, part) {
			t.Errorf("expect prompt to contain %q, but got:\n%s", part, got)
		}
	}
	if strings.Contains(got, "## Empty") {
		t.Error("providers without info must be skipped")
	}
	g.RemoveContextProviders("Files")
	if strings.Contains(g.Generate(), contextSection) {
		t.Error("context section must disappear once every provider is removed")
	}
	if _, err := g.ContextProvider("Empty"); err != nil {
		t.Errorf("expect Empty provider to remain registered: %v", err)
	}
}
