package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// KeywordResearchSlug identifies the built-in keyword research tool.
const KeywordResearchSlug = "keyword-research"

// KeywordResearchName is the display name the keyword tool was seeded with.
const KeywordResearchName = "Keyword Research & Backend Formatter"

// Tool is a purchasable capability sold as an annual subscription.
type Tool struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Slug        string          `gorm:"column:slug;type:text;not null;uniqueIndex"`
	Name        string          `gorm:"column:name;not null"`
	Description string          `gorm:"column:description;not null;default:''"`
	Icon        string          `gorm:"column:icon;not null;default:''"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	IsActive    bool            `gorm:"column:is_active;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// AnnualPrice is the amount charged for one year, price being monthly.
func (t Tool) AnnualPrice() decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(12))
}
