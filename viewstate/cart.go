// Package viewstate holds the display-side projections of the cart,
// favourites and order history and applies optimistic edits to them.
package viewstate

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"storefront-core/logger"
	"storefront-core/models"
	"storefront-core/session"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrUnknownLine = errors.New("viewstate: cart line not loaded")

// CartStore is the cart repository as seen by the view.
type CartStore interface {
	Items(ctx context.Context) ([]models.CartItem, error)
	Add(ctx context.Context, productID uuid.UUID) error
	UpdateQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error
	Delete(ctx context.Context, lineID uuid.UUID) error
}

type CartState struct {
	Items   []models.CartItem
	Loading bool
	Error   string
}

// Cart is the optimistic cart projection. Single-line edits roll back
// their own line on failure; Clear reloads because earlier deletes have
// already happened. Edits to the same line run one at a time.
type Cart struct {
	repo CartStore
	log  *slog.Logger

	mu      sync.Mutex
	items   []models.CartItem
	loading bool
	errMsg  string
	lines   keyedLocks
}

func NewCart(repo CartStore, log *slog.Logger) *Cart {
	if log == nil {
		log = logger.Discard()
	}
	return &Cart{repo: repo, log: log, items: []models.CartItem{}}
}

func (c *Cart) Snapshot() CartState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CartState{
		Items:   append([]models.CartItem(nil), c.items...),
		Loading: c.loading,
		Error:   c.errMsg,
	}
}

// Load replaces the cart with the store's. Signed out, the cart is empty.
// On a read failure the previous items are kept and the error is recorded.
func (c *Cart) Load(ctx context.Context) error {
	c.mu.Lock()
	c.loading = true
	c.mu.Unlock()

	items, err := c.repo.Items(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false

	switch {
	case errors.Is(err, session.ErrUnauthenticated):
		c.items = []models.CartItem{}
		c.errMsg = ""
		return nil
	case err != nil:
		c.errMsg = err.Error()
		c.log.Warn("cart load failed", "err", err)
		return err
	}
	c.items = items
	c.errMsg = ""
	return nil
}

func (c *Cart) Increment(ctx context.Context, lineID uuid.UUID) error {
	return c.step(ctx, lineID, +1)
}

// Decrement lowers a line by one. At quantity 1 it does nothing; use Remove.
func (c *Cart) Decrement(ctx context.Context, lineID uuid.UUID) error {
	return c.step(ctx, lineID, -1)
}

func (c *Cart) step(ctx context.Context, lineID uuid.UUID, delta int) error {
	unlock := c.lockLine(lineID)
	defer unlock()

	c.mu.Lock()
	i := c.indexOf(lineID)
	if i < 0 {
		c.mu.Unlock()
		return ErrUnknownLine
	}
	prev := c.items[i].Quantity
	next := prev + delta
	if next < 1 {
		c.mu.Unlock()
		return nil
	}
	c.items[i].Quantity = next
	c.mu.Unlock()

	if err := c.repo.UpdateQuantity(ctx, lineID, next); err != nil {
		c.mu.Lock()
		if j := c.indexOf(lineID); j >= 0 {
			c.items[j].Quantity = prev
		}
		c.errMsg = err.Error()
		c.mu.Unlock()
		c.log.Warn("cart quantity update rolled back", "line_id", lineID, "quantity", next, "err", err)
		return err
	}
	return nil
}

// Remove drops a line locally, then deletes it remotely. On failure the
// line is put back where it was.
func (c *Cart) Remove(ctx context.Context, lineID uuid.UUID) error {
	unlock := c.lockLine(lineID)
	defer unlock()

	c.mu.Lock()
	i := c.indexOf(lineID)
	if i < 0 {
		c.mu.Unlock()
		return ErrUnknownLine
	}
	removed := c.items[i]
	c.items = append(c.items[:i:i], c.items[i+1:]...)
	c.mu.Unlock()

	if err := c.repo.Delete(ctx, lineID); err != nil {
		c.mu.Lock()
		at := i
		if at > len(c.items) {
			at = len(c.items)
		}
		c.items = append(c.items[:at:at], append([]models.CartItem{removed}, c.items[at:]...)...)
		c.errMsg = err.Error()
		c.mu.Unlock()
		c.log.Warn("cart remove rolled back", "line_id", lineID, "err", err)
		return err
	}
	return nil
}

// Clear empties the cart locally and deletes its lines one by one. The
// first failed delete stops the run and the cart is reloaded.
func (c *Cart) Clear(ctx context.Context) error {
	c.mu.Lock()
	pending := c.items
	c.items = []models.CartItem{}
	c.mu.Unlock()

	for _, it := range pending {
		if err := c.repo.Delete(ctx, it.ID); err != nil {
			c.log.Warn("cart clear interrupted", "line_id", it.ID, "err", err)
			if loadErr := c.Load(ctx); loadErr != nil {
				c.log.Warn("cart reload after clear failed", "err", loadErr)
			}
			c.mu.Lock()
			c.errMsg = err.Error()
			c.mu.Unlock()
			return err
		}
	}
	return nil
}

// AddFromOrder puts a previously ordered line back in the cart, one unit
// per ordered quantity (at least one), and reloads.
func (c *Cart) AddFromOrder(ctx context.Context, line models.OrderLine) error {
	n := line.Quantity
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		if err := c.repo.Add(ctx, line.ProductID); err != nil {
			c.recordWriteFailure(ctx, err)
			return err
		}
	}
	return c.Load(ctx)
}

// AddProduct adds one unit of productID and reloads.
func (c *Cart) AddProduct(ctx context.Context, productID uuid.UUID) error {
	if err := c.repo.Add(ctx, productID); err != nil {
		c.recordWriteFailure(ctx, err)
		return err
	}
	return c.Load(ctx)
}

func (c *Cart) Subtotal() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.CartSubtotal(c.items)
}

// Total is the subtotal plus deliveryCost.
func (c *Cart) Total(deliveryCost int64) decimal.Decimal {
	return c.Subtotal().Add(decimal.NewFromInt(deliveryCost))
}

// recordWriteFailure resynchronizes after a partly applied add sequence.
func (c *Cart) recordWriteFailure(ctx context.Context, err error) {
	c.log.Warn("cart add failed", "err", err)
	if loadErr := c.Load(ctx); loadErr != nil {
		c.log.Warn("cart reload after add failed", "err", loadErr)
	}
	c.mu.Lock()
	c.errMsg = err.Error()
	c.mu.Unlock()
}

func (c *Cart) indexOf(lineID uuid.UUID) int {
	for i, it := range c.items {
		if it.ID == lineID {
			return i
		}
	}
	return -1
}

func (c *Cart) lockLine(lineID uuid.UUID) func() {
	return c.lines.lock(lineID)
}
