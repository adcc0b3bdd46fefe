package viewstate

import (
	"storefront-core/models"

	"github.com/google/uuid"
)

// Annotate returns a copy of products with IsFavorite and IsInCart set from
// the favourite set and the cart items.
func Annotate(products []models.Product, favourites map[uuid.UUID]bool, cart []models.CartItem) []models.Product {
	inCart := make(map[uuid.UUID]bool, len(cart))
	for _, it := range cart {
		inCart[it.Product.ID] = true
	}

	out := make([]models.Product, len(products))
	for i, p := range products {
		p.IsFavorite = favourites[p.ID]
		p.IsInCart = inCart[p.ID]
		out[i] = p
	}
	return out
}
