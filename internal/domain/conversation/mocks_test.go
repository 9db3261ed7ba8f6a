package conversation

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
)

// In-memory repository fakes shared across the service tests. Each fake can
// be primed with per-method errors to exercise failure paths.

type mockConversationRepository struct {
	conversations map[uuid.UUID]*Conversation
	createErr     error
	updateErr     error
}

func newMockConversationRepository() *mockConversationRepository {
	return &mockConversationRepository{conversations: make(map[uuid.UUID]*Conversation)}
}

func (m *mockConversationRepository) Create(ctx context.Context, conv *Conversation) error {
	if m.createErr != nil {
		return m.createErr
	}
	copied := *conv
	m.conversations[conv.ID] = &copied
	return nil
}

func (m *mockConversationRepository) FindByID(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	conv, ok := m.conversations[id]
	if !ok {
		return nil, errors.New("conversation not found")
	}
	copied := *conv
	return &copied, nil
}

func (m *mockConversationRepository) FindByFilter(ctx context.Context, filter ConversationFilter) ([]*Conversation, error) {
	var out []*Conversation
	for _, conv := range m.conversations {
		if filter.UserID != nil && conv.UserID != *filter.UserID {
			continue
		}
		copied := *conv
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockConversationRepository) UpdateTitle(ctx context.Context, id uuid.UUID, title string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	conv, ok := m.conversations[id]
	if !ok {
		return errors.New("conversation not found")
	}
	conv.Title = title
	return nil
}

func (m *mockConversationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	delete(m.conversations, id)
	return nil
}

func (m *mockConversationRepository) FindBranchless(ctx context.Context, cutoff time.Time) ([]*Conversation, error) {
	return nil, nil
}

type mockBranchRepository struct {
	branches  map[uuid.UUID]*Branch
	createErr error
	updateErr error
	deleteErr error
}

func newMockBranchRepository() *mockBranchRepository {
	return &mockBranchRepository{branches: make(map[uuid.UUID]*Branch)}
}

func (m *mockBranchRepository) Create(ctx context.Context, branch *Branch) error {
	if m.createErr != nil {
		return m.createErr
	}
	copied := *branch
	m.branches[branch.ID] = &copied
	return nil
}

func (m *mockBranchRepository) FindByID(ctx context.Context, id uuid.UUID) (*Branch, error) {
	branch, ok := m.branches[id]
	if !ok {
		return nil, errors.New("branch not found")
	}
	copied := *branch
	return &copied, nil
}

func (m *mockBranchRepository) FindByFilter(ctx context.Context, filter BranchFilter) ([]*Branch, error) {
	var out []*Branch
	for _, branch := range m.branches {
		if filter.ConversationID != nil && branch.ConversationID != *filter.ConversationID {
			continue
		}
		if filter.RootOnly && !branch.IsRoot() {
			continue
		}
		copied := *branch
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *mockBranchRepository) FindRoot(ctx context.Context, conversationID uuid.UUID) (*Branch, error) {
	for _, branch := range m.branches {
		if branch.ConversationID == conversationID && branch.IsRoot() {
			copied := *branch
			return &copied, nil
		}
	}
	return nil, errors.New("root branch not found")
}

func (m *mockBranchRepository) UpdateTitle(ctx context.Context, id uuid.UUID, title string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	branch, ok := m.branches[id]
	if !ok {
		return errors.New("branch not found")
	}
	branch.Title = &title
	return nil
}

func (m *mockBranchRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.branches, id)
	return nil
}

type mockMessageRepository struct {
	messages  []*Message
	createErr error
	// failOnRole fails Create only for messages with this role, so tests can
	// let the user insert succeed and the assistant insert fail.
	failOnRole Role
}

func newMockMessageRepository() *mockMessageRepository {
	return &mockMessageRepository{}
}

func (m *mockMessageRepository) Create(ctx context.Context, msg *Message) error {
	if m.createErr != nil && (m.failOnRole == "" || m.failOnRole == msg.Role) {
		return m.createErr
	}
	copied := *msg
	m.messages = append(m.messages, &copied)
	return nil
}

func (m *mockMessageRepository) FindByFilter(ctx context.Context, filter MessageFilter) ([]*Message, error) {
	var out []*Message
	for _, msg := range m.messages {
		if filter.ConversationID != nil && msg.ConversationID != *filter.ConversationID {
			continue
		}
		if filter.BranchID != nil && msg.BranchID != *filter.BranchID {
			continue
		}
		copied := *msg
		out = append(out, &copied)
	}
	return out, nil
}

func (m *mockMessageRepository) FindByID(ctx context.Context, id uuid.UUID) (*Message, error) {
	for _, msg := range m.messages {
		if msg.ID == id {
			copied := *msg
			return &copied, nil
		}
	}
	return nil, errors.New("message not found")
}

func (m *mockMessageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	for i, msg := range m.messages {
		if msg.ID == id {
			m.messages = append(m.messages[:i], m.messages[i+1:]...)
			return nil
		}
	}
	return errors.New("message not found")
}

// mockResponder replays canned replies and records the histories it received.
type mockResponder struct {
	reply     string
	err       error
	histories [][]Turn
}

func (m *mockResponder) GenerateReply(ctx context.Context, history []Turn) (string, error) {
	m.histories = append(m.histories, history)
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}
