package usage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/saastools-backend/internal/repo"
	"github.com/angelmondragon/saastools-backend/pkg/db/models"
)

// Repository records and aggregates tool usage.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) Create(ctx context.Context, row *models.Usage) error {
	return r.DB(ctx).Create(row).Error
}

// ListByUser returns the most recent usage rows with their tool.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Usage, error) {
	var rows []models.Usage
	err := r.DB(ctx).
		Preload("Tool").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// ToolCount is the number of usage rows recorded for one tool.
type ToolCount struct {
	ToolID uuid.UUID
	Count  int64
}

// CountByToolSince groups usage at or after since by tool.
func (r *Repository) CountByToolSince(ctx context.Context, since time.Time) ([]ToolCount, error) {
	var rows []ToolCount
	err := r.DB(ctx).
		Model(&models.Usage{}).
		Select("tool_id, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("tool_id").
		Order("count DESC").
		Scan(&rows).Error
	return rows, err
}

// CountByUsers maps each user id to its total usage rows.
func (r *Repository) CountByUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		UserID uuid.UUID
		Count  int64
	}
	if err := r.DB(ctx).
		Model(&models.Usage{}).
		Select("user_id, COUNT(*) AS count").
		Where("user_id IN ?", userIDs).
		Group("user_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.UserID] = row.Count
	}
	return out, nil
}
