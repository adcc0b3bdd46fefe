package repository

import (
	"context"
	"fmt"

	"storefront-core/dtos"
	"storefront-core/models"
	"storefront-core/postgrest"
	"storefront-core/rest"
	"storefront-core/session"

	"github.com/google/uuid"
)

// FavoriteRepository stores favourite links for an explicit user. A link's
// existence is the whole fact; duplicates read as one.
type FavoriteRepository struct {
	store    Store
	products *ProductRepository
}

func NewFavoriteRepository(store Store, products *ProductRepository) *FavoriteRepository {
	return &FavoriteRepository{store: store, products: products}
}

func (r *FavoriteRepository) IsFavorite(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	links, err := r.links(ctx, userID, postgrest.Eq("product_id", productID))
	if err != nil {
		return false, err
	}
	return len(links) > 0, nil
}

func (r *FavoriteRepository) Add(ctx context.Context, userID, productID uuid.UUID) error {
	if userID == uuid.Nil {
		return session.ErrUnauthenticated
	}
	body := dtos.FavouriteInsert{ProductID: productID, UserID: userID}
	if err := dtos.Validate(body); err != nil {
		return fmt.Errorf("add favourite: %w", err)
	}
	if err := r.store.Insert(ctx, tableFavourite, body, rest.ReturnMinimal, nil); err != nil {
		return fmt.Errorf("add favourite: %w", err)
	}
	return nil
}

// Remove deletes every link for the (user, product) pair.
func (r *FavoriteRepository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	if userID == uuid.Nil {
		return session.ErrUnauthenticated
	}
	q := postgrest.Query{}.Where(
		postgrest.Eq("user_id", userID),
		postgrest.Eq("product_id", productID),
	)
	if err := r.store.Delete(ctx, tableFavourite, q); err != nil {
		return fmt.Errorf("remove favourite: %w", err)
	}
	return nil
}

// ProductIDs returns the distinct favourite product ids of userID.
func (r *FavoriteRepository) ProductIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	links, err := r.links(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]bool, len(links))
	ids := make([]uuid.UUID, 0, len(links))
	for _, l := range links {
		if seen[l.ProductID] {
			continue
		}
		seen[l.ProductID] = true
		ids = append(ids, l.ProductID)
	}
	return ids, nil
}

// FavoriteProducts fetches the favourite products of userID, each marked
// IsFavorite. With no favourites the product store is not queried.
func (r *FavoriteRepository) FavoriteProducts(ctx context.Context, userID uuid.UUID) ([]models.Product, error) {
	ids, err := r.ProductIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []models.Product{}, nil
	}

	products, err := r.products.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range products {
		products[i].IsFavorite = true
	}
	return products, nil
}

func (r *FavoriteRepository) links(ctx context.Context, userID uuid.UUID, filters ...postgrest.Filter) ([]models.FavoriteLink, error) {
	if userID == uuid.Nil {
		return nil, session.ErrUnauthenticated
	}
	q := postgrest.Select("product_id").Where(postgrest.Eq("user_id", userID)).Where(filters...)
	var links []models.FavoriteLink
	if err := r.store.Select(ctx, tableFavourite, q, &links); err != nil {
		return nil, fmt.Errorf("fetch favourites: %w", err)
	}
	return links, nil
}
