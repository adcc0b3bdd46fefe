// Package repository reads and writes the storefront collections through the
// PostgREST transport. User-scoped repositories take the user from the
// session on every call and never cache it.
package repository

import (
	"context"

	"storefront-core/postgrest"
	"storefront-core/rest"

	"github.com/google/uuid"
)

const (
	tableProducts   = "products"
	tableCategories = "categories"
	tableCart       = "cart"
	tableFavourite  = "favourite"
	tableOrders     = "orders"
	tableOrderLines = "orders_items"
	tableProfiles   = "profiles"
)

// Store is the collection transport. *rest.Client satisfies it.
type Store interface {
	Select(ctx context.Context, table string, q postgrest.Query, out interface{}) error
	Insert(ctx context.Context, table string, body interface{}, prefer rest.Prefer, out interface{}) error
	Update(ctx context.Context, table string, q postgrest.Query, body interface{}) error
	Delete(ctx context.Context, table string, q postgrest.Query) error
}

// Sessions yields the signed-in user. *session.Holder satisfies it.
type Sessions interface {
	UserID() (uuid.UUID, error)
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id.String())
	}
	return out
}
