package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatusNew is the status every order is created with.
const OrderStatusNew = "new"

type Order struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	Email     string    `gorm:"not null" json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `gorm:"not null" json:"address"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	PaymentID *string   `json:"payment_id"`
	// DeliveryCost is in minor currency units.
	DeliveryCost int64  `gorm:"not null;default:0" json:"delivery_cost"`
	StatusID     string `gorm:"not null" json:"status_id"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderLine is an order item. Title and Cost are snapshots of the product at
// order time, so history stays correct when the catalog changes.
type OrderLine struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Title     string          `gorm:"not null" json:"title"`
	Cost      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"cost"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	OrderID   int64           `gorm:"not null;index" json:"order_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null" json:"product_id"`
}

func (OrderLine) TableName() string {
	return "orders_items"
}

// OrderWithLines is the read-side composite of an order and its lines.
type OrderWithLines struct {
	Order
	Lines []OrderLine
}

func (o OrderWithLines) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.Cost.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

// Total is the subtotal plus the delivery cost. The store never returns it.
func (o OrderWithLines) Total() decimal.Decimal {
	return o.Subtotal().Add(decimal.NewFromInt(o.DeliveryCost))
}
