package email

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/saastools-backend/internal/repo"
	"github.com/angelmondragon/saastools-backend/pkg/db/models"
)

// Repository loads and stores email templates.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// FindActiveByName returns nil, nil when the template is missing or disabled.
func (r *Repository) FindActiveByName(ctx context.Context, name string) (*models.EmailTemplate, error) {
	return repo.FirstOrNil[models.EmailTemplate](r.DB(ctx).Where("name = ? AND is_active = ?", name, true))
}

// Upsert inserts the template or replaces the stored copy with the same name.
func (r *Repository) Upsert(ctx context.Context, tpl *models.EmailTemplate) error {
	return r.Base.Upsert(ctx, tpl, "name", "subject", "html_body", "text_body", "is_active")
}
