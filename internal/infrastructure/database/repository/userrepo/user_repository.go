package userrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tangent-server/internal/domain/user"
	"tangent-server/internal/infrastructure/database/dbschema"
	"tangent-server/internal/utils/apperrors"
)

// Repository persists user accounts.
type Repository struct {
	db *gorm.DB
}

var _ user.Repository = (*Repository)(nil)

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the user record.
func (r *Repository) Create(ctx context.Context, u *user.User) error {
	entity := dbschema.NewSchemaUser(u)
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return apperrors.New(ctx, apperrors.LayerRepository, apperrors.ErrorTypePersistence, "failed to create user", err)
	}
	u.CreatedAt = entity.CreatedAt
	u.UpdatedAt = entity.UpdatedAt
	return nil
}

// FindByEmail fetches a user by email address.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	var entity dbschema.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(ctx, apperrors.LayerRepository, apperrors.ErrorTypeNotFound,
				fmt.Sprintf("user not found: %s", email), nil)
		}
		return nil, apperrors.New(ctx, apperrors.LayerRepository, apperrors.ErrorTypePersistence, "failed to fetch user", err)
	}
	return entity.EtoD(), nil
}

// FindByID fetches a user by ID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	var entity dbschema.User
	if err := r.db.WithContext(ctx).First(&entity, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(ctx, apperrors.LayerRepository, apperrors.ErrorTypeNotFound,
				fmt.Sprintf("user not found: %s", id), nil)
		}
		return nil, apperrors.New(ctx, apperrors.LayerRepository, apperrors.ErrorTypePersistence, "failed to fetch user", err)
	}
	return entity.EtoD(), nil
}
