package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

func (t *Tool) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}

func (s *Subscription) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

func (u *Usage) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

func (e *EmailTemplate) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}

func (l *LandingPageContent) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}

// All lists every persisted model, in dependency order, for AutoMigrate in tests and dev tooling.
func All() []any {
	return []any{
		&User{},
		&Tool{},
		&Subscription{},
		&Usage{},
		&EmailTemplate{},
		&LandingPageContent{},
	}
}
