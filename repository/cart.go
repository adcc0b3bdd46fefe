package repository

import (
	"context"
	"fmt"

	"storefront-core/dtos"
	"storefront-core/models"
	"storefront-core/postgrest"
	"storefront-core/rest"

	"github.com/google/uuid"
)

// CartRepository manages the signed-in user's cart lines.
type CartRepository struct {
	store    Store
	sessions Sessions
	products *ProductRepository
}

func NewCartRepository(store Store, sessions Sessions, products *ProductRepository) *CartRepository {
	return &CartRepository{store: store, sessions: sessions, products: products}
}

// Lines returns the user's cart rows, oldest first.
func (r *CartRepository) Lines(ctx context.Context) ([]models.CartLine, error) {
	userID, err := r.sessions.UserID()
	if err != nil {
		return nil, err
	}
	return r.lines(ctx, postgrest.Query{}.Where(postgrest.Eq("user_id", userID)))
}

// Items resolves every cart line against its product. Lines whose product
// no longer exists are dropped.
func (r *CartRepository) Items(ctx context.Context) ([]models.CartItem, error) {
	lines, err := r.Lines(ctx)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return []models.CartItem{}, nil
	}

	ids := make([]uuid.UUID, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}
	products, err := r.products.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	items := make([]models.CartItem, 0, len(lines))
	for _, l := range lines {
		p, ok := byID[l.ProductID]
		if !ok {
			continue
		}
		p.IsInCart = true
		items = append(items, models.CartItem{ID: l.ID, Product: p, Quantity: l.Quantity})
	}
	return items, nil
}

// Add puts one unit of productID in the cart: an existing line gains one,
// otherwise a new line with quantity 1 is inserted.
func (r *CartRepository) Add(ctx context.Context, productID uuid.UUID) error {
	userID, err := r.sessions.UserID()
	if err != nil {
		return err
	}

	line, err := r.lineForProduct(ctx, userID, productID)
	if err != nil {
		return err
	}
	if line != nil {
		return r.patchQuantity(ctx, userID, line.ID, line.Quantity+1)
	}

	body := dtos.CartLineInsert{ProductID: productID, UserID: userID, Quantity: 1}
	if err := dtos.Validate(body); err != nil {
		return fmt.Errorf("add to cart: %w", err)
	}
	if err := r.store.Insert(ctx, tableCart, body, rest.ReturnMinimal, nil); err != nil {
		return fmt.Errorf("add to cart: %w", err)
	}
	return nil
}

// UpdateQuantity sets a line's quantity. Quantities below 1 are rejected;
// delete the line instead.
func (r *CartRepository) UpdateQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	userID, err := r.sessions.UserID()
	if err != nil {
		return err
	}
	return r.patchQuantity(ctx, userID, lineID, quantity)
}

func (r *CartRepository) Delete(ctx context.Context, lineID uuid.UUID) error {
	userID, err := r.sessions.UserID()
	if err != nil {
		return err
	}
	q := postgrest.Query{}.Where(postgrest.Eq("id", lineID), postgrest.Eq("user_id", userID))
	if err := r.store.Delete(ctx, tableCart, q); err != nil {
		return fmt.Errorf("delete cart line: %w", err)
	}
	return nil
}

// RemoveByProduct deletes the line holding productID. With no such line it
// succeeds without touching the store.
func (r *CartRepository) RemoveByProduct(ctx context.Context, productID uuid.UUID) error {
	userID, err := r.sessions.UserID()
	if err != nil {
		return err
	}

	line, err := r.lineForProduct(ctx, userID, productID)
	if err != nil {
		return err
	}
	if line == nil {
		return nil
	}

	q := postgrest.Query{}.Where(postgrest.Eq("id", line.ID), postgrest.Eq("user_id", userID))
	if err := r.store.Delete(ctx, tableCart, q); err != nil {
		return fmt.Errorf("delete cart line: %w", err)
	}
	return nil
}

func (r *CartRepository) lineForProduct(ctx context.Context, userID, productID uuid.UUID) (*models.CartLine, error) {
	q := postgrest.Query{Limit: 1}.Where(
		postgrest.Eq("user_id", userID),
		postgrest.Eq("product_id", productID),
	)
	lines, err := r.lines(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, nil
	}
	return &lines[0], nil
}

func (r *CartRepository) lines(ctx context.Context, q postgrest.Query) ([]models.CartLine, error) {
	var lines []models.CartLine
	q = q.OrderBy(postgrest.Asc("created_at"))
	if err := r.store.Select(ctx, tableCart, q, &lines); err != nil {
		return nil, fmt.Errorf("fetch cart: %w", err)
	}
	return lines, nil
}

func (r *CartRepository) patchQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) error {
	body := dtos.CartQuantityPatch{Quantity: quantity}
	if err := dtos.Validate(body); err != nil {
		return fmt.Errorf("update cart line: %w", err)
	}
	q := postgrest.Query{}.Where(postgrest.Eq("id", lineID), postgrest.Eq("user_id", userID))
	if err := r.store.Update(ctx, tableCart, q, body); err != nil {
		return fmt.Errorf("update cart line: %w", err)
	}
	return nil
}
