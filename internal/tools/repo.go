package tools

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/saastools-backend/internal/repo"
	"github.com/angelmondragon/saastools-backend/pkg/db/models"
)

// Repository persists tools.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) Create(ctx context.Context, tool *models.Tool) error {
	return r.DB(ctx).Create(tool).Error
}

// ListActive returns active tools, oldest first.
func (r *Repository) ListActive(ctx context.Context) ([]models.Tool, error) {
	var rows []models.Tool
	err := r.DB(ctx).Where("is_active = ?", true).Order("created_at ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) ListAll(ctx context.Context) ([]models.Tool, error) {
	var rows []models.Tool
	err := r.DB(ctx).Order("created_at ASC").Find(&rows).Error
	return rows, err
}

// FindByID returns nil, nil when the tool does not exist.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Tool, error) {
	return r.first(r.DB(ctx).Where("id = ?", id))
}

func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Tool, error) {
	return r.first(r.DB(ctx).Where("slug = ?", slug))
}

func (r *Repository) FindByName(ctx context.Context, name string) (*models.Tool, error) {
	return r.first(r.DB(ctx).Where("name = ?", name))
}

// Update applies a partial column update.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.DB(ctx).Model(&models.Tool{}).Where("id = ?", id).Updates(updates).Error
}

// Upsert inserts the tool or refreshes the stored row with the same slug.
func (r *Repository) Upsert(ctx context.Context, tool *models.Tool) error {
	return r.Base.Upsert(ctx, tool, "slug", "name", "description", "icon", "price", "is_active")
}

// NameByID maps tool ids to names, including inactive tools.
func (r *Repository) NameByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Tool
	if err := r.DB(ctx).Select("id", "name").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row.Name
	}
	return out, nil
}

func (r *Repository) first(query *gorm.DB) (*models.Tool, error) {
	return repo.FirstOrNil[models.Tool](query)
}
