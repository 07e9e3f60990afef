package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/saastools-backend/pkg/enums"
)

// User represents a seller or admin account.
type User struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Email             string         `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash      string         `gorm:"column:password_hash;not null"`
	Name              string         `gorm:"column:name;not null"`
	Role              enums.UserRole `gorm:"column:role;type:text;not null;default:'seller'"`
	IsVerified        bool           `gorm:"column:is_verified;not null;default:false"`
	VerificationToken *string        `gorm:"column:verification_token;uniqueIndex"`
	LastLoginAt       *time.Time     `gorm:"column:last_login_at"`
	CreatedAt         time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time      `gorm:"column:updated_at;autoUpdateTime"`

	Subscriptions []Subscription `gorm:"foreignKey:UserID"`
}

func (u User) IsAdmin() bool {
	return u.Role == enums.UserRoleAdmin
}
