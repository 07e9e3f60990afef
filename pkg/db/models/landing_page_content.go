package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// LandingPageContent holds the JSON payload rendered for one marketing section.
type LandingPageContent struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Section   string         `gorm:"column:section;type:text;not null;uniqueIndex"`
	Content   datatypes.JSON `gorm:"column:content;not null"`
	IsActive  bool           `gorm:"column:is_active;not null"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (LandingPageContent) TableName() string {
	return "landing_page_content"
}
