package conversation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a message turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single turn in a branch. Messages are immutable once created;
// the branch-on-edit flow creates new branches and messages instead of
// mutating history. ParentID references the message this one replies to,
// which may live in an ancestor branch when the message seeds a fork.
type Message struct {
	ID             uuid.UUID  `json:"id"`
	Content        string     `json:"content"`
	Role           Role       `json:"role"`
	ParentID       *uuid.UUID `json:"parent_id"`
	ConversationID uuid.UUID  `json:"conversation_id"`
	BranchID       uuid.UUID  `json:"branch_id"`
	CreatedAt      time.Time  `json:"created_at"`
}

// MessageFilter narrows message queries.
type MessageFilter struct {
	ID             *uuid.UUID
	ConversationID *uuid.UUID
	BranchID       *uuid.UUID
}

// MessageRepository defines storage operations for messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *Message) error
	FindByFilter(ctx context.Context, filter MessageFilter) ([]*Message, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Message, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// NewMessage builds a message in the given branch.
func NewMessage(conversationID, branchID uuid.UUID, role Role, content string, parentID *uuid.UUID) *Message {
	return &Message{
		ID:             uuid.New(),
		Content:        content,
		Role:           role,
		ParentID:       parentID,
		ConversationID: conversationID,
		BranchID:       branchID,
		CreatedAt:      time.Now(),
	}
}
