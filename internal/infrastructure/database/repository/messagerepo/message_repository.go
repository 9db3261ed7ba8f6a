package messagerepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tangent-server/internal/domain/conversation"
	"tangent-server/internal/infrastructure/database/dbschema"
	"tangent-server/internal/utils/apperrors"
)

// Repository persists messages.
type Repository struct {
	db *gorm.DB
}

var _ conversation.MessageRepository = (*Repository)(nil)

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the message record.
func (r *Repository) Create(ctx context.Context, msg *conversation.Message) error {
	entity := dbschema.NewSchemaMessage(msg)
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return apperrors.New(ctx, apperrors.LayerRepository, apperrors.ErrorTypePersistence, "failed to create message", err)
	}
	msg.CreatedAt = entity.CreatedAt
	return nil
}

// FindByFilter fetches messages matching the filter in chronological order.
func (r *Repository) FindByFilter(ctx context.Context, filter conversation.MessageFilter) ([]*conversation.Message, error) {
	query := r.db.WithContext(ctx).Model(&dbschema.Message{})
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.ConversationID != nil {
		query = query.Where("conversation_id = ?", *filter.ConversationID)
	}
	if filter.BranchID != nil {
		query = query.Where("branch_id = ?", *filter.BranchID)
	}

	var entities []dbschema.Message
	if err := query.Order("created_at ASC").Find(&entities).Error; err != nil {
		return nil, apperrors.New(ctx, apperrors.LayerRepository, apperrors.ErrorTypePersistence, "failed to list messages", err)
	}

	result := make([]*conversation.Message, len(entities))
	for i := range entities {
		result[i] = entities[i].EtoD()
	}
	return result, nil
}

// FindByID fetches a message by ID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*conversation.Message, error) {
	var entity dbschema.Message
	if err := r.db.WithContext(ctx).First(&entity, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(ctx, apperrors.LayerRepository, apperrors.ErrorTypeNotFound,
				fmt.Sprintf("message not found: %s", id), nil)
		}
		return nil, apperrors.New(ctx, apperrors.LayerRepository, apperrors.ErrorTypePersistence, "failed to fetch message", err)
	}
	return entity.EtoD(), nil
}

// Delete removes the message record; used by the send-message retraction.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&dbschema.Message{}, "id = ?", id).Error; err != nil {
		return apperrors.New(ctx, apperrors.LayerRepository, apperrors.ErrorTypePersistence, "failed to delete message", err)
	}
	return nil
}
