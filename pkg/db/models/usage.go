package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Usage is an append-only record of one tool invocation.
type Usage struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID      `gorm:"column:user_id;type:uuid;not null;index"`
	ToolID    uuid.UUID      `gorm:"column:tool_id;type:uuid;not null;index"`
	Metadata  datatypes.JSON `gorm:"column:metadata"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime;index"`

	Tool *Tool `gorm:"foreignKey:ToolID"`
}

func (Usage) TableName() string {
	return "usage_records"
}
