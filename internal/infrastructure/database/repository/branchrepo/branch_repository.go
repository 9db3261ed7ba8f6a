package branchrepo

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

// Repository persists branches.
type Repository struct {
	db *gorm.DB
}

var _ conversation.BranchRepository = (*Repository)(nil)

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the branch record.
func (r *Repository) Create(ctx context.Context, branch *conversation.Branch) error {
	entity := dbschema.NewSchemaBranch(branch)
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return apperrors.New(ctx, apperrors.LayerRepository, apperrors.ErrorTypePersistence, "failed to create branch", err)
	}
	branch.CreatedAt = entity.CreatedAt
	return nil
}

// FindByID fetches a branch by ID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*conversation.Branch, error) {
	var entity dbschema.Branch
	if err := r.db.WithContext(ctx).First(&entity, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(ctx, apperrors.LayerRepository, apperrors.ErrorTypeNotFound,
				fmt.Sprintf("branch not found: %s", id), nil)
		}
		return nil, apperrors.New(ctx, apperrors.LayerRepository, apperrors.ErrorTypePersistence, "failed to fetch branch", err)
	}
	return entity.EtoD(), nil
}

// FindByFilter fetches branches matching the filter, oldest first.
func (r *Repository) FindByFilter(ctx context.Context, filter conversation.BranchFilter) ([]*conversation.Branch, error) {
	query := r.db.WithContext(ctx).Model(&dbschema.Branch{})
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.ConversationID != nil {
		query = query.Where("conversation_id = ?", *filter.ConversationID)
	}
	if filter.RootOnly {
		query = query.Where("parent_branch_id IS NULL")
	}

	var entities []dbschema.Branch
	if err := query.Order("created_at ASC").Find(&entities).Error; err != nil {
		return nil, apperrors.New(ctx, apperrors.LayerRepository, apperrors.ErrorTypePersistence, "failed to list branches", err)
	}

	result := make([]*conversation.Branch, len(entities))
	for i := range entities {
		result[i] = entities[i].EtoD()
	}
	return result, nil
}

// FindRoot fetches the conversation's root branch.
func (r *Repository) FindRoot(ctx context.Context, conversationID uuid.UUID) (*conversation.Branch, error) {
	var entity dbschema.Branch
	err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND parent_branch_id IS NULL", conversationID).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(ctx, apperrors.LayerRepository, apperrors.ErrorTypeNotFound,
				fmt.Sprintf("root branch not found for conversation %s", conversationID), nil)
		}
		return nil, apperrors.New(ctx, apperrors.LayerRepository, apperrors.ErrorTypePersistence, "failed to fetch root branch", err)
	}
	return entity.EtoD(), nil
}

// UpdateTitle overwrites the branch title.
func (r *Repository) UpdateTitle(ctx context.Context, id uuid.UUID, title string) error {
	tx := r.db.WithContext(ctx).Model(&dbschema.Branch{}).Where("id = ?", id).Update("title", title)
	if tx.Error != nil {
		return apperrors.New(ctx, apperrors.LayerRepository, apperrors.ErrorTypePersistence, "failed to update branch title", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return apperrors.New(ctx, apperrors.LayerRepository, apperrors.ErrorTypeNotFound,
			fmt.Sprintf("branch not found: %s", id), nil)
	}
	return nil
}

// Delete removes the branch record.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&dbschema.Branch{}, "id = ?", id).Error; err != nil {
		return apperrors.New(ctx, apperrors.LayerRepository, apperrors.ErrorTypePersistence, "failed to delete branch", err)
	}
	return nil
}
