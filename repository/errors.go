package repository

import (
	"errors"
	"fmt"

	"storefront-core/models"
)

var (
	ErrNotFound        = errors.New("repository: not found")
	ErrInvalidQuantity = errors.New("repository: quantity must be at least 1")
)

// PartialOrderError reports an order that was persisted while its lines
// were not. The order is left in place; callers decide what to tell the user.
type PartialOrderError struct {
	Order models.Order
	Err   error
}

func (e *PartialOrderError) Error() string {
	return fmt.Sprintf("order %d created but its lines were not saved: %v", e.Order.ID, e.Err)
}

func (e *PartialOrderError) Unwrap() error {
	return e.Err
}
