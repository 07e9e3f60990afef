package content

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/saastools-backend/internal/repo"
	"github.com/angelmondragon/saastools-backend/pkg/db/models"
)

type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// FindActiveBySection returns nil, nil when the section is missing or disabled.
func (r *Repository) FindActiveBySection(ctx context.Context, section string) (*models.LandingPageContent, error) {
	return repo.FirstOrNil[models.LandingPageContent](r.DB(ctx).Where("section = ? AND is_active = ?", section, true))
}

func (r *Repository) Upsert(ctx context.Context, row *models.LandingPageContent) error {
	return r.Base.Upsert(ctx, row, "section", "content", "is_active")
}
