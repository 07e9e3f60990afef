package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/saastools-backend/pkg/db/models"
	"github.com/angelmondragon/saastools-backend/pkg/enums"
)

// UserDTO is the transport shape that omits credentials and tokens.
type UserDTO struct {
	ID          uuid.UUID      `json:"id"`
	Email       string         `json:"email"`
	Name        string         `json:"name"`
	Role        enums.UserRole `json:"role"`
	IsVerified  bool           `json:"is_verified"`
	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email             string
	PasswordHash      string
	Name              string
	Role              enums.UserRole
	IsVerified        bool
	VerificationToken *string
}

// UpdateProfileRequest is the editable subset of a user profile.
type UpdateProfileRequest struct {
	Name string `json:"name" validate:"required,notblank,max=100"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		IsVerified:  u.IsVerified,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	role := c.Role
	if !role.IsValid() {
		role = enums.UserRoleSeller
	}
	return &models.User{
		Email:             c.Email,
		PasswordHash:      c.PasswordHash,
		Name:              c.Name,
		Role:              role,
		IsVerified:        c.IsVerified,
		VerificationToken: c.VerificationToken,
	}
}
