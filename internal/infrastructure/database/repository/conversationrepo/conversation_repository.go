package conversationrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tangent-server/internal/domain/conversation"
	"tangent-server/internal/infrastructure/database/dbschema"
	"tangent-server/internal/utils/apperrors"
)

// Repository persists conversations.
type Repository struct {
	db *gorm.DB
}

var _ conversation.ConversationRepository = (*Repository)(nil)

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the conversation record.
func (r *Repository) Create(ctx context.Context, conv *conversation.Conversation) error {
	entity := dbschema.NewSchemaConversation(conv)
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return apperrors.New(ctx, apperrors.LayerRepository, apperrors.ErrorTypePersistence, "failed to create conversation", err)
	}
	conv.CreatedAt = entity.CreatedAt
	conv.UpdatedAt = entity.UpdatedAt
	return nil
}

// FindByID fetches a conversation by ID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*conversation.Conversation, error) {
	var entity dbschema.Conversation
	if err := r.db.WithContext(ctx).First(&entity, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(ctx, apperrors.LayerRepository, apperrors.ErrorTypeNotFound,
				fmt.Sprintf("conversation not found: %s", id), nil)
		}
		return nil, apperrors.New(ctx, apperrors.LayerRepository, apperrors.ErrorTypePersistence, "failed to fetch conversation", err)
	}
	return entity.EtoD(), nil
}

// FindByFilter fetches conversations matching the filter, newest first.
func (r *Repository) FindByFilter(ctx context.Context, filter conversation.ConversationFilter) ([]*conversation.Conversation, error) {
	query := r.db.WithContext(ctx).Model(&dbschema.Conversation{})
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}

	var entities []dbschema.Conversation
	if err := query.Order("created_at DESC").Find(&entities).Error; err != nil {
		return nil, apperrors.New(ctx, apperrors.LayerRepository, apperrors.ErrorTypePersistence, "failed to list conversations", err)
	}

	result := make([]*conversation.Conversation, len(entities))
	for i := range entities {
		result[i] = entities[i].EtoD()
	}
	return result, nil
}

// UpdateTitle overwrites the conversation title.
func (r *Repository) UpdateTitle(ctx context.Context, id uuid.UUID, title string) error {
	tx := r.db.WithContext(ctx).Model(&dbschema.Conversation{}).Where("id = ?", id).Update("title", title)
	if tx.Error != nil {
		return apperrors.New(ctx, apperrors.LayerRepository, apperrors.ErrorTypePersistence, "failed to update conversation title", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return apperrors.New(ctx, apperrors.LayerRepository, apperrors.ErrorTypeNotFound,
			fmt.Sprintf("conversation not found: %s", id), nil)
	}
	return nil
}

// Delete removes the conversation record.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&dbschema.Conversation{}, "id = ?", id).Error; err != nil {
		return apperrors.New(ctx, apperrors.LayerRepository, apperrors.ErrorTypePersistence, "failed to delete conversation", err)
	}
	return nil
}

// FindBranchless returns conversations created before cutoff that have no
// branch rows, i.e. orphans from interrupted creates.
func (r *Repository) FindBranchless(ctx context.Context, cutoff time.Time) ([]*conversation.Conversation, error) {
	var entities []dbschema.Conversation
	err := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Where("NOT EXISTS (SELECT 1 FROM tangent.branches b WHERE b.conversation_id = tangent.conversations.id)").
		Find(&entities).Error
	if err != nil {
		return nil, apperrors.New(ctx, apperrors.LayerRepository, apperrors.ErrorTypePersistence, "failed to find branchless conversations", err)
	}

	result := make([]*conversation.Conversation, len(entities))
	for i := range entities {
		result[i] = entities[i].EtoD()
	}
	return result, nil
}
