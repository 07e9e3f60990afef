package tools

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/saastools-backend/pkg/db/models"
)

// ToolDTO is the public view of a tool. HasAccess is only set for signed-in callers.
type ToolDTO struct {
	ID          uuid.UUID       `json:"id"`
	Slug        string          `json:"slug"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Icon        string          `json:"icon"`
	Price       decimal.Decimal `json:"price"`
	AnnualPrice decimal.Decimal `json:"annual_price"`
	IsActive    bool            `json:"is_active"`
	HasAccess   bool            `json:"has_access"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CreateToolRequest is the admin payload for a new tool.
type CreateToolRequest struct {
	Name        string          `json:"name" validate:"required,min=1,max=200"`
	Slug        string          `json:"slug,omitempty" validate:"omitempty,max=100,slug"`
	Description string          `json:"description" validate:"required"`
	Icon        string          `json:"icon,omitempty"`
	Price       decimal.Decimal `json:"price"`
	IsActive    *bool           `json:"is_active,omitempty"`
}

// UpdateToolRequest holds the optional fields of an admin tool update.
type UpdateToolRequest struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description,omitempty"`
	Icon        *string          `json:"icon,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	IsActive    *bool            `json:"is_active,omitempty"`
}

func FromModel(t models.Tool, hasAccess bool) ToolDTO {
	return ToolDTO{
		ID:          t.ID,
		Slug:        t.Slug,
		Name:        t.Name,
		Description: t.Description,
		Icon:        t.Icon,
		Price:       t.Price,
		AnnualPrice: t.AnnualPrice(),
		IsActive:    t.IsActive,
		HasAccess:   hasAccess,
		CreatedAt:   t.CreatedAt,
	}
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases name and joins its alphanumeric runs with hyphens.
func Slugify(name string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}
