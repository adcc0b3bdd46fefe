package repository

import (
	"context"
	"fmt"

	"storefront-core/models"
	"storefront-core/postgrest"

	"github.com/google/uuid"
)

type CategoryRepository struct {
	store Store
}

func NewCategoryRepository(store Store) *CategoryRepository {
	return &CategoryRepository{store: store}
}

func (r *CategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	q := postgrest.Query{}.OrderBy(postgrest.Asc("name"))
	if err := r.store.Select(ctx, tableCategories, q, &categories); err != nil {
		return nil, fmt.Errorf("fetch categories: %w", err)
	}
	return categories, nil
}

func (r *CategoryRepository) Get(ctx context.Context, id uuid.UUID) (models.Category, error) {
	var categories []models.Category
	q := postgrest.Query{Limit: 1}.Where(postgrest.Eq("id", id))
	if err := r.store.Select(ctx, tableCategories, q, &categories); err != nil {
		return models.Category{}, fmt.Errorf("fetch category: %w", err)
	}
	if len(categories) == 0 {
		return models.Category{}, ErrNotFound
	}
	return categories[0], nil
}
