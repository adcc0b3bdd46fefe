package dtos

import "github.com/google/uuid"

// CartLineInsert is the body of POST /cart.
type CartLineInsert struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	UserID    uuid.UUID `json:"user_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"min=1"`
}

// CartQuantityPatch is the body of PATCH /cart?id=eq.<line>.
type CartQuantityPatch struct {
	Quantity int `json:"quantity" binding:"min=1"`
}
