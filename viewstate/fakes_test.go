package viewstate

import (
	"context"
	"errors"
	"sync"

	"storefront-core/models"
	"storefront-core/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var errBoom = errors.New("boom")

type fakeCartStore struct {
	mu        sync.Mutex
	items     []models.CartItem
	itemsErr  error
	updateErr error
	deleteErr map[uuid.UUID]error
	addErrAt  int
	updates   []int
	deletes   []uuid.UUID
	adds      []uuid.UUID
	loads     int
}

func (f *fakeCartStore) Items(ctx context.Context) ([]models.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if f.itemsErr != nil {
		return nil, f.itemsErr
	}
	return append([]models.CartItem(nil), f.items...), nil
}

func (f *fakeCartStore) Add(ctx context.Context, productID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adds = append(f.adds, productID)
	if f.addErrAt > 0 && len(f.adds) == f.addErrAt {
		return errBoom
	}
	for i := range f.items {
		if f.items[i].Product.ID == productID {
			f.items[i].Quantity++
			return nil
		}
	}
	f.items = append(f.items, models.CartItem{ID: uuid.New(), Product: models.Product{ID: productID}, Quantity: 1})
	return nil
}

func (f *fakeCartStore) UpdateQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, quantity)
	return f.updateErr
}

func (f *fakeCartStore) Delete(ctx context.Context, lineID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, lineID)
	if err := f.deleteErr[lineID]; err != nil {
		return err
	}
	for i, it := range f.items {
		if it.ID == lineID {
			f.items = append(f.items[:i], f.items[i+1:]...)
			break
		}
	}
	return nil
}

func item(name, price string, qty int) models.CartItem {
	return models.CartItem{
		ID:       uuid.New(),
		Product:  models.Product{ID: uuid.New(), Name: name, Price: decimal.RequireFromString(price)},
		Quantity: qty,
	}
}

type fakePlacer struct {
	got   repository.PlaceOrder
	calls int
	err   error
}

func (f *fakePlacer) CreateOrderWithItems(ctx context.Context, p repository.PlaceOrder) (models.OrderWithLines, error) {
	f.calls++
	f.got = p
	order := models.OrderWithLines{Order: models.Order{ID: 1, DeliveryCost: p.DeliveryCost}}
	for _, it := range p.Items {
		order.Lines = append(order.Lines, models.OrderLine{Title: it.Product.Name, Cost: it.Product.Price, Quantity: it.Quantity})
	}
	return order, f.err
}
