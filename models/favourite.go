package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FavoriteLink marks a product as a user's favourite. Existence is the
// whole fact; duplicate rows for one (user, product) pair mean the same thing.
type FavoriteLink struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
}

func (FavoriteLink) TableName() string {
	return "favourite"
}

func (f *FavoriteLink) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
