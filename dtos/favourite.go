package dtos

import "github.com/google/uuid"

// FavouriteInsert is the body of POST /favourite.
type FavouriteInsert struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	UserID    uuid.UUID `json:"user_id" binding:"required"`
}
