package repository

import (
	"context"
	"fmt"
	"strings"

	"storefront-core/models"
	"storefront-core/postgrest"

	"github.com/google/uuid"
)

type ProductRepository struct {
	store Store
}

func NewProductRepository(store Store) *ProductRepository {
	return &ProductRepository{store: store}
}

func (r *ProductRepository) List(ctx context.Context) ([]models.Product, error) {
	return r.selectProducts(ctx, postgrest.Query{}.OrderBy(postgrest.Asc("name")))
}

func (r *ProductRepository) BestSellers(ctx context.Context) ([]models.Product, error) {
	q := postgrest.Query{}.
		Where(postgrest.Eq("is_best_seller", true)).
		OrderBy(postgrest.Asc("name"))
	return r.selectProducts(ctx, q)
}

func (r *ProductRepository) ByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.Product, error) {
	q := postgrest.Query{}.
		Where(postgrest.Eq("category_id", categoryID)).
		OrderBy(postgrest.Asc("name"))
	return r.selectProducts(ctx, q)
}

// ByIDs fetches the products with the given ids in one request. An empty
// id set returns nothing without calling the store.
func (r *ProductRepository) ByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := postgrest.Query{}.Where(postgrest.In("id", idStrings(ids)...))
	return r.selectProducts(ctx, q)
}

func (r *ProductRepository) Get(ctx context.Context, id uuid.UUID) (models.Product, error) {
	q := postgrest.Query{Limit: 1}.Where(postgrest.Eq("id", id))
	products, err := r.selectProducts(ctx, q)
	if err != nil {
		return models.Product{}, err
	}
	if len(products) == 0 {
		return models.Product{}, ErrNotFound
	}
	return products[0], nil
}

// Search matches term anywhere in the product name, ignoring case.
func (r *ProductRepository) Search(ctx context.Context, term string) ([]models.Product, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return r.List(ctx)
	}
	q := postgrest.Query{}.
		Where(postgrest.ILike("name", "*"+term+"*")).
		OrderBy(postgrest.Asc("name"))
	return r.selectProducts(ctx, q)
}

func (r *ProductRepository) selectProducts(ctx context.Context, q postgrest.Query) ([]models.Product, error) {
	var products []models.Product
	if err := r.store.Select(ctx, tableProducts, q, &products); err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}
	return products, nil
}
