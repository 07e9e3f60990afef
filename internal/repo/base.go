// Package repo holds the gorm plumbing shared by the domain repositories.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Base is embedded by every repository.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to ctx.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Upsert inserts row or, when conflictColumn already holds its value,
// overwrites only the listed columns. updated_at is always refreshed.
func (b Base) Upsert(ctx context.Context, row any, conflictColumn string, columns ...string) error {
	columns = append(columns, "updated_at")
	return b.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: conflictColumn}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(row).Error
}

// FirstOrNil runs First on query and maps a missing row to nil, nil.
func FirstOrNil[T any](query *gorm.DB) (*T, error) {
	var row T
	err := query.First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
