package viewstate

import (
	"context"
	"log/slog"

	"storefront-core/logger"
	"storefront-core/models"
	"storefront-core/repository"
)

type OrderPlacer interface {
	CreateOrderWithItems(ctx context.Context, p repository.PlaceOrder) (models.OrderWithLines, error)
}

// Contact is the delivery contact entered at checkout.
type Contact struct {
	Email   string
	Phone   string
	Address string
}

type Checkout struct {
	cart   *Cart
	orders OrderPlacer
	log    *slog.Logger
}

func NewCheckout(cart *Cart, orders OrderPlacer, log *slog.Logger) *Checkout {
	if log == nil {
		log = logger.Discard()
	}
	return &Checkout{cart: cart, orders: orders, log: log}
}

// Place turns the current cart into an order. The cart is cleared only when
// the order and all of its lines were saved; a *repository.PartialOrderError
// leaves it as is.
func (c *Checkout) Place(ctx context.Context, contact Contact, paymentID *string, deliveryCost int64) (models.OrderWithLines, error) {
	items := c.cart.Snapshot().Items

	order, err := c.orders.CreateOrderWithItems(ctx, repository.PlaceOrder{
		Email:        contact.Email,
		Phone:        contact.Phone,
		Address:      contact.Address,
		PaymentID:    paymentID,
		DeliveryCost: deliveryCost,
		Items:        items,
	})
	if err != nil {
		return order, err
	}

	if err := c.cart.Clear(ctx); err != nil {
		c.log.Warn("order placed but cart not cleared", "order_id", order.ID, "err", err)
	}
	c.log.Info("order placed", "order_id", order.ID, "lines", len(order.Lines), "total", order.Total().StringFixed(2))
	return order, nil
}
