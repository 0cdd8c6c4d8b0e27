package components

import (
	"strings"
	"testing"

	"github.com/bububa/codecrew/schema"
)

func TestMemoryOverflow(t *testing.T) {
	mem := NewMemory(2)
	mem.NewTurn()
	mem.NewMessage(UserRole, schema.String("1"))
	mem.NewMessage(AssistantRole, schema.String("2"))
	mem.NewMessage(UserRole, schema.String("3"))
	if n := mem.MessageCount(); n != 2 {
		t.Fatalf("expect 2 messages, but got %d", n)
	}
	if got := schema.Stringify(mem.History()[0].Content()); got != "2" {
		t.Errorf("expect oldest message dropped, but first is %s", got)
	}
}

func TestMemoryDeleteTurn(t *testing.T) {
	mem := NewMemory(0)
	mem.NewTurn()
	first := mem.TurnID()
	mem.NewMessage(UserRole, schema.String("a"))
	mem.NewTurn()
	mem.NewMessage(UserRole, schema.String("b"))
	if err := mem.DeleteTurn(first); err != nil {
		t.Fatal(err)
	}
	if n := mem.MessageCount(); n != 1 {
		t.Errorf("expect 1 message, but got %d", n)
	}
	if err := mem.DeleteTurn("missing"); err == nil {
		t.Error("expect error for unknown turn")
	}
}

func TestMemoryCopyAndReset(t *testing.T) {
	src := NewMemory(5)
	src.NewMessage(UserRole, schema.String("a"))
	dst := NewMemory(0)
	dst.Copy(src)
	if dst.MaxMessages() != 5 || dst.MessageCount() != 1 {
		t.Errorf("unexpected copy: max=%d count=%d", dst.MaxMessages(), dst.MessageCount())
	}
	dst.Reset()
	if dst.MessageCount() != 0 {
		t.Errorf("expect empty memory after reset, but got %d", dst.MessageCount())
	}
	if src.MessageCount() != 1 {
		t.Error("reset must not touch the source memory")
	}
}

func TestMemoryPinFirst(t *testing.T) {
	mem := NewMemory(3).PinFirst()
	for _, v := range []string{"task", "step 1", "observation 1", "step 2", "observation 2"} {
		mem.NewMessage(UserRole, schema.String(v))
	}
	history := mem.History()
	got := make([]string, 0, len(history))
	for _, msg := range history {
		got = append(got, schema.Stringify(msg.Content()))
	}
	if strings.Join(got, ",") != "task,step 2,observation 2" {
		t.Errorf("expect the task to stay pinned, but got %v", got)
	}
}

func TestMemoryLast(t *testing.T) {
	mem := NewMemory(0)
	if _, ok := mem.Last(ToolRole); ok {
		t.Error("expect no tool message in an empty memory")
	}
	mem.NewMessage(ToolRole, schema.String("Observation: a"))
	mem.NewMessage(AssistantRole, schema.String("thinking"))
	mem.NewMessage(ToolRole, schema.String("Observation: b"))
	msg, ok := mem.Last(ToolRole)
	if !ok || schema.Stringify(msg.Content()) != "Observation: b" {
		t.Errorf("expect the latest observation, but got %v", msg.Content())
	}
	history := mem.History()
	history[0] = Message{}
	if first := mem.History()[0]; first.Role() != ToolRole {
		t.Error("expect History to return a copy")
	}
}
