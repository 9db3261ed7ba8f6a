// Package conversation holds the branching conversation model: conversations,
// branches, messages, and the services that manipulate them.
package conversation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DefaultConversationTitle is the title a conversation starts with before the
// first exchange overwrites it.
const DefaultConversationTitle = "New Chat"

// Conversation is a top-level chat session owned by a user.
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConversationFilter narrows conversation queries.
type ConversationFilter struct {
	ID     *uuid.UUID
	UserID *uuid.UUID
}

// ConversationRepository defines storage operations for conversations.
type ConversationRepository interface {
	Create(ctx context.Context, conv *Conversation) error
	FindByID(ctx context.Context, id uuid.UUID) (*Conversation, error)
	FindByFilter(ctx context.Context, filter ConversationFilter) ([]*Conversation, error)
	UpdateTitle(ctx context.Context, id uuid.UUID, title string) error
	Delete(ctx context.Context, id uuid.UUID) error
	// FindBranchless returns conversations created before cutoff that have no
	// branches, i.e. orphans from interrupted creates.
	FindBranchless(ctx context.Context, cutoff time.Time) ([]*Conversation, error)
}

// NewConversation builds a conversation with a fresh ID and the default title.
func NewConversation(userID uuid.UUID) *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        uuid.New(),
		Title:     DefaultConversationTitle,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
