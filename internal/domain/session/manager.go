package session

import (
	"sync"

	"github.com/google/uuid"

	"tangent-server/internal/domain/conversation"
)

// Manager owns one State per user. There is exactly one active writer per
// session in the intended usage model, so a plain map behind a mutex is
// sufficient.
type Manager struct {
	mu       sync.Mutex
	states   map[uuid.UUID]*State
	branches *conversation.BranchService
	messages *conversation.MessageService
}

func NewManager(branches *conversation.BranchService, messages *conversation.MessageService) *Manager {
	return &Manager{
		states:   make(map[uuid.UUID]*State),
		branches: branches,
		messages: messages,
	}
}

// ForUser returns the user's session state, creating it on first use.
func (m *Manager) ForUser(userID uuid.UUID) *State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok := m.states[userID]; ok {
		return state
	}
	state := NewState(m.branches, m.messages)
	m.states[userID] = state
	return state
}

// Drop discards the user's session state, e.g. on sign-out.
func (m *Manager) Drop(userID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, userID)
}
