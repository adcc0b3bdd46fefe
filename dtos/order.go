package dtos

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderInsert is the body of POST /orders.
type OrderInsert struct {
	Email        string    `json:"email" binding:"required,email"`
	Phone        string    `json:"phone" binding:"required"`
	Address      string    `json:"address" binding:"required"`
	UserID       uuid.UUID `json:"user_id" binding:"required"`
	PaymentID    *string   `json:"payment_id"`
	DeliveryCost int64     `json:"delivery_cost" binding:"min=0"`
	StatusID     string    `json:"status_id" binding:"required"`
}

// OrderLineInsert is one element of the batch body of POST /orders_items.
type OrderLineInsert struct {
	Title     string          `json:"title" binding:"required"`
	Cost      decimal.Decimal `json:"cost"`
	Quantity  int             `json:"quantity" binding:"min=1"`
	OrderID   int64           `json:"order_id" binding:"gt=0"`
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
}
