package dbschema

import (
	"time"

	"github.com/google/uuid"

	"tangent-server/internal/domain/conversation"
	"tangent-server/internal/infrastructure/database"
)

func init() {
	database.RegisterSchemaForAutoMigrate(Conversation{})
	database.RegisterSchemaForAutoMigrate(Branch{})
	database.RegisterSchemaForAutoMigrate(Message{})
}

// Conversation represents the database schema for conversations
type Conversation struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title     string    `gorm:"type:varchar(256);not null"`
	UserID    uuid.UUID `gorm:"type:uuid;index:idx_conversations_user;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Branches []Branch `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE"`
}

// Branch represents the database schema for branches. The root branch of a
// conversation has a null parent_branch_id; exactly one per conversation.
type Branch struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ConversationID uuid.UUID  `gorm:"type:uuid;index:idx_branches_conversation;not null"`
	ParentBranchID *uuid.UUID `gorm:"type:uuid"`
	Title          *string    `gorm:"type:varchar(256)"`
	CreatedAt      time.Time

	Messages []Message `gorm:"foreignKey:BranchID;constraint:OnDelete:CASCADE"`
}

// Message represents the database schema for messages
type Message struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Content        string     `gorm:"type:text;not null"`
	Role           string     `gorm:"type:varchar(20);not null"`
	ParentID       *uuid.UUID `gorm:"type:uuid"`
	ConversationID uuid.UUID  `gorm:"type:uuid;index:idx_messages_conversation_branch;not null"`
	BranchID       uuid.UUID  `gorm:"type:uuid;index:idx_messages_conversation_branch;not null"`
	CreatedAt      time.Time
}

// NewSchemaConversation converts a domain conversation to its database entity.
func NewSchemaConversation(c *conversation.Conversation) *Conversation {
	return &Conversation{
		ID:        c.ID,
		Title:     c.Title,
		UserID:    c.UserID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// EtoD converts the database entity to its domain representation.
func (e *Conversation) EtoD() *conversation.Conversation {
	return &conversation.Conversation{
		ID:        e.ID,
		Title:     e.Title,
		UserID:    e.UserID,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

// NewSchemaBranch converts a domain branch to its database entity.
func NewSchemaBranch(b *conversation.Branch) *Branch {
	return &Branch{
		ID:             b.ID,
		ConversationID: b.ConversationID,
		ParentBranchID: b.ParentBranchID,
		Title:          b.Title,
		CreatedAt:      b.CreatedAt,
	}
}

// EtoD converts the database entity to its domain representation.
func (e *Branch) EtoD() *conversation.Branch {
	return &conversation.Branch{
		ID:             e.ID,
		ConversationID: e.ConversationID,
		ParentBranchID: e.ParentBranchID,
		Title:          e.Title,
		CreatedAt:      e.CreatedAt,
	}
}

// NewSchemaMessage converts a domain message to its database entity.
func NewSchemaMessage(m *conversation.Message) *Message {
	return &Message{
		ID:             m.ID,
		Content:        m.Content,
		Role:           string(m.Role),
		ParentID:       m.ParentID,
		ConversationID: m.ConversationID,
		BranchID:       m.BranchID,
		CreatedAt:      m.CreatedAt,
	}
}

// EtoD converts the database entity to its domain representation.
func (e *Message) EtoD() *conversation.Message {
	return &conversation.Message{
		ID:             e.ID,
		Content:        e.Content,
		Role:           conversation.Role(e.Role),
		ParentID:       e.ParentID,
		ConversationID: e.ConversationID,
		BranchID:       e.BranchID,
		CreatedAt:      e.CreatedAt,
	}
}
