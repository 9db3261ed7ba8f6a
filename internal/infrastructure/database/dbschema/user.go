package dbschema

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"tangent-server/internal/domain/user"
	"tangent-server/internal/infrastructure/database"
)

func init() {
	database.RegisterSchemaForAutoMigrate(User{})
}

// User represents the database schema for users
type User struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey"`
	Email        string            `gorm:"type:varchar(320);uniqueIndex;not null"`
	PasswordHash string            `gorm:"type:varchar(100);not null"`
	Profile      datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewSchemaUser converts a domain user to its database entity.
func NewSchemaUser(u *user.User) *User {
	profile := datatypes.JSONMap{}
	for k, v := range u.Profile {
		profile[k] = v
	}
	return &User{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Profile:      profile,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// EtoD converts the database entity to its domain representation.
func (e *User) EtoD() *user.User {
	profile := make(map[string]string, len(e.Profile))
	for k, v := range e.Profile {
		switch val := v.(type) {
		case string:
			profile[k] = val
		default:
			if raw, err := json.Marshal(val); err == nil {
				profile[k] = string(raw)
			}
		}
	}
	return &user.User{
		ID:           e.ID,
		Email:        e.Email,
		PasswordHash: e.PasswordHash,
		Profile:      profile,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}
