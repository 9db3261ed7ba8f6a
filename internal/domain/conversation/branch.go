package conversation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Branch titles shown before a derived title is written.
const (
	RootBranchTitle = "Main Thread"
	NewBranchTitle  = "New Thread"
)

// Branch is a linear thread of messages within a conversation. Branches form
// a forest rooted at the conversation's main branch: the root has a nil
// ParentBranchID, every other branch points at an existing branch in the same
// conversation. ParentBranchID is set once at creation and never mutated,
// which rules out cycles structurally.
type Branch struct {
	ID             uuid.UUID  `json:"id"`
	ConversationID uuid.UUID  `json:"conversation_id"`
	ParentBranchID *uuid.UUID `json:"parent_branch_id"`
	Title          *string    `json:"title"`
	CreatedAt      time.Time  `json:"created_at"`
}

// IsRoot reports whether this is the conversation's permanent main branch.
func (b *Branch) IsRoot() bool {
	return b.ParentBranchID == nil
}

// DisplayTitle returns the title shown in branch listings.
func (b *Branch) DisplayTitle() string {
	if b.Title != nil && *b.Title != "" {
		return *b.Title
	}
	if b.IsRoot() {
		return RootBranchTitle
	}
	return NewBranchTitle
}

// BranchFilter narrows branch queries.
type BranchFilter struct {
	ID             *uuid.UUID
	ConversationID *uuid.UUID
	RootOnly       bool
}

// BranchRepository defines storage operations for branches.
type BranchRepository interface {
	Create(ctx context.Context, branch *Branch) error
	FindByID(ctx context.Context, id uuid.UUID) (*Branch, error)
	FindByFilter(ctx context.Context, filter BranchFilter) ([]*Branch, error)
	FindRoot(ctx context.Context, conversationID uuid.UUID) (*Branch, error)
	UpdateTitle(ctx context.Context, id uuid.UUID, title string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// NewRootBranch builds the permanent main branch for a conversation.
func NewRootBranch(conversationID uuid.UUID) *Branch {
	return &Branch{
		ID:             uuid.New(),
		ConversationID: conversationID,
		ParentBranchID: nil,
		CreatedAt:      time.Now(),
	}
}

// NewForkedBranch builds a branch forked from parent within the same conversation.
func NewForkedBranch(conversationID, parentBranchID uuid.UUID, title string) *Branch {
	parent := parentBranchID
	return &Branch{
		ID:             uuid.New(),
		ConversationID: conversationID,
		ParentBranchID: &parent,
		Title:          &title,
		CreatedAt:      time.Now(),
	}
}
