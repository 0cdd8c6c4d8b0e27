package codesearch

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bububa/codecrew/agents"
	"github.com/bububa/codecrew/components"
	"github.com/bububa/codecrew/llm"
	"github.com/bububa/codecrew/llm/llmtest"
)

func TestSearchCode(t *testing.T) {
	manager := llmtest.New()
	assistant := llmtest.New(
		llmtest.JSON(agents.Step{Thought: "list the folder", Action: "aider_files_tool", ActionInput: "."}),
		llmtest.JSON(agents.Step{Thought: "done", FinalAnswer: "<FILE_LIST>\nconfig.go\ncodesearch.go\n</FILE_LIST>"}),
	)
	coder := llmtest.New(llmtest.JSON(agents.Step{Thought: "config", FinalAnswer: "config.go"}))
	backends := Backends{
		Manager:   Backend{Client: manager, Model: "starling-lm"},
		Assistant: Backend{Client: assistant, Model: "starling-lm"},
		Coder:     Backend{Client: coder, Model: "starling-lm"},
	}
	ret, err := SearchCode(context.Background(), backends, DefaultTools(ToolsConfig{}), ".", "find the config loader")
	if err != nil {
		t.Fatal(err)
	}
	if ret == "" {
		t.Fatal("expect a non-empty result")
	}
	if len(manager.Requests()) != 0 {
		t.Errorf("expect an idle manager, but got %d requests", len(manager.Requests()))
	}
	requests := assistant.Requests()
	if len(requests) != 2 {
		t.Fatalf("expect 2 assistant requests, but got %d", len(requests))
	}
	msgs := requests[1].Messages
	observation := msgs[len(msgs)-1]
	if observation.Role() != components.ToolRole || !strings.HasPrefix(observation.Content().String(), "Observation: ") {
		t.Errorf("expect the file listing observation, but got %s", observation.Content().String())
	}
	system := requests[0].Messages[0].Content().String()
	if !strings.Contains(system, "- aider_files_tool:") || !strings.Contains(system, "- aider_code_finder_tool:") {
		t.Errorf("expect the assistant tools in the system prompt, but got %s", system)
	}
	prompt := coder.Requests()[0].Messages[1].Content().String()
	if !strings.Contains(prompt, "find the config loader") || !strings.Contains(prompt, "<FILE_LIST>") {
		t.Errorf("unexpected coder prompt %s", prompt)
	}
}

func TestSearchCodeBackendError(t *testing.T) {
	failure := errors.New("backend down")
	clt := llmtest.NewWithHandler(func(*llm.Request) (string, error) {
		return "", failure
	})
	_, err := SearchCode(context.Background(), SameBackend(Backend{Client: clt}), nil, ".", "find the config loader")
	if !errors.Is(err, failure) {
		t.Errorf("expect the backend error, but got %v", err)
	}
}

func TestSearchCodeWithoutClient(t *testing.T) {
	if _, err := SearchCode(context.Background(), Backends{}, nil, ".", "query"); err == nil {
		t.Error("expect an error for missing backends")
	}
}
