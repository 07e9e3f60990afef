package models

import (
	"time"

	"github.com/google/uuid"
)

// EmailTemplate is a named, placeholder-bearing message body.
type EmailTemplate struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;type:text;not null;uniqueIndex"`
	Subject   string    `gorm:"column:subject;not null"`
	HTML      string    `gorm:"column:html_body;not null"`
	Text      string    `gorm:"column:text_body;not null;default:''"`
	IsActive  bool      `gorm:"column:is_active;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
