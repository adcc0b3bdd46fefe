package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Name         string          `gorm:"not null;index" json:"name"`
	Price        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Description  string          `json:"description"`
	CategoryID   *uuid.UUID      `gorm:"type:uuid;index" json:"category_id"`
	IsBestSeller bool            `gorm:"default:false" json:"is_best_seller"`
	CreatedAt    time.Time       `json:"created_at"`

	// Display annotations derived from the favourite and cart relations.
	IsFavorite bool `gorm:"-" json:"-"`
	IsInCart   bool `gorm:"-" json:"-"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
