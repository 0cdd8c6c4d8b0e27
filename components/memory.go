package components

import (
	"fmt"
	"sync"

	"github.com/bububa/codecrew/schema"
)

// Memory is the chat history of an agent, safe for concurrent use.
// Every message belongs to a turn. With maxMessages set the oldest messages are dropped first,
// a pinned memory always keeps its first message, which holds the task of a tool agent.
type Memory struct {
	mtx         sync.RWMutex
	history     []Message
	turnID      string
	maxMessages int
	pinFirst    bool
}

// NewMemory returns an empty Memory, 0 maxMessages keeps everything
func NewMemory(maxMessages int) *Memory {
	return &Memory{
		maxMessages: maxMessages,
		history:     make([]Message, 0, maxMessages+1),
	}
}

func (m *Memory) MaxMessages() int {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	return m.maxMessages
}

func (m *Memory) SetMaxMessages(maxMessages int) *Memory {
	m.mtx.Lock()
	m.maxMessages = maxMessages
	m.mtx.Unlock()
	return m
}

// PinFirst keeps the first message when the history overflows
func (m *Memory) PinFirst() *Memory {
	m.mtx.Lock()
	m.pinFirst = true
	m.mtx.Unlock()
	return m
}

func (m *Memory) TurnID() string {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	return m.turnID
}

func (m *Memory) SetTurnID(turnID string) *Memory {
	m.mtx.Lock()
	m.turnID = turnID
	m.mtx.Unlock()
	return m
}

// NewTurn starts a turn with a random id
func (m *Memory) NewTurn() *Memory {
	return m.SetTurnID(NewTurnID())
}

// NewMessage appends a message to the current turn
func (m *Memory) NewMessage(role MessageRole, content schema.Schema) *Message {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	msg := NewMessage(role, content).SetTurnID(m.turnID)
	m.history = append(m.history, *msg)
	if over := len(m.history) - m.maxMessages; m.maxMessages > 0 && over > 0 {
		if m.pinFirst && m.maxMessages > 1 {
			m.history = append(m.history[:1], m.history[1+over:]...)
		} else {
			m.history = m.history[over:]
		}
	}
	return msg
}

// SetHistory replaces the history with a copy of history
func (m *Memory) SetHistory(history []Message) *Memory {
	m.mtx.Lock()
	m.history = append(make([]Message, 0, len(history)), history...)
	m.mtx.Unlock()
	return m
}

// History returns a copy of the messages, oldest first
func (m *Memory) History() []Message {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	return append([]Message(nil), m.history...)
}

// Last returns the latest message with role
func (m *Memory) Last(role MessageRole) (Message, bool) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	for i := len(m.history) - 1; i >= 0; i-- {
		if m.history[i].Role() == role {
			return m.history[i], true
		}
	}
	return Message{}, false
}

// Copy replaces the memory with the settings and history of src
func (m *Memory) Copy(src *Memory) {
	if src == m {
		return
	}
	src.mtx.RLock()
	history := append([]Message(nil), src.history...)
	maxMessages, turnID, pinFirst := src.maxMessages, src.turnID, src.pinFirst
	src.mtx.RUnlock()
	m.mtx.Lock()
	m.history = history
	m.maxMessages = maxMessages
	m.turnID = turnID
	m.pinFirst = pinFirst
	m.mtx.Unlock()
}

func (m *Memory) Reset() *Memory {
	m.mtx.Lock()
	m.history = make([]Message, 0, m.maxMessages)
	m.mtx.Unlock()
	return m
}

// DeleteTurn removes the messages of a turn
func (m *Memory) DeleteTurn(turnID string) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	list := make([]Message, 0, len(m.history))
	for _, v := range m.history {
		if v.TurnID() != turnID {
			list = append(list, v)
		}
	}
	if len(list) == len(m.history) {
		return fmt.Errorf("turn %s not found in memory", turnID)
	}
	m.history = list
	if len(list) == 0 {
		m.turnID = ""
	} else if turnID == m.turnID {
		m.turnID = list[len(list)-1].TurnID()
	}
	return nil
}

func (m *Memory) MessageCount() int {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	return len(m.history)
}
