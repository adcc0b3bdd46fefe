package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"storefront-core/dtos"
	"storefront-core/logger"
	"storefront-core/models"
	"storefront-core/postgrest"
	"storefront-core/rest"

	"golang.org/x/sync/errgroup"
)

const defaultHistoryConcurrency = 4

// PlaceOrder is the contact and delivery data for a new order plus the cart
// snapshot it is built from.
type PlaceOrder struct {
	Email        string
	Phone        string
	Address      string
	PaymentID    *string
	DeliveryCost int64
	Items        []models.CartItem
}

type OrderRepository struct {
	store       Store
	sessions    Sessions
	concurrency int
	log         *slog.Logger
}

// NewOrderRepository builds the repository. concurrency bounds the order
// history fan-out; 1 fetches lines strictly one order at a time.
func NewOrderRepository(store Store, sessions Sessions, concurrency int, log *slog.Logger) *OrderRepository {
	if concurrency < 1 {
		concurrency = defaultHistoryConcurrency
	}
	if log == nil {
		log = logger.Discard()
	}
	return &OrderRepository{store: store, sessions: sessions, concurrency: concurrency, log: log}
}

// CreateOrderWithItems writes the order, then all of its lines in one batch.
// The two writes are not atomic: if the batch fails the order stays
// persisted and a *PartialOrderError is returned.
func (r *OrderRepository) CreateOrderWithItems(ctx context.Context, p PlaceOrder) (models.OrderWithLines, error) {
	userID, err := r.sessions.UserID()
	if err != nil {
		return models.OrderWithLines{}, err
	}

	body := dtos.OrderInsert{
		Email:        p.Email,
		Phone:        p.Phone,
		Address:      p.Address,
		UserID:       userID,
		PaymentID:    p.PaymentID,
		DeliveryCost: p.DeliveryCost,
		StatusID:     models.OrderStatusNew,
	}
	if err := dtos.Validate(body); err != nil {
		return models.OrderWithLines{}, fmt.Errorf("create order: %w", err)
	}

	// Lines are checked before anything is written; the order id is stamped
	// once the order exists.
	lines := make([]dtos.OrderLineInsert, len(p.Items))
	for i, item := range p.Items {
		lines[i] = dtos.OrderLineInsert{
			Title:     item.Product.Name,
			Cost:      item.Product.Price,
			Quantity:  item.Quantity,
			ProductID: item.Product.ID,
		}
		if err := dtos.ValidateExcept(lines[i], "OrderID"); err != nil {
			return models.OrderWithLines{}, fmt.Errorf("create order: line %d: %w", i, err)
		}
	}

	var created []models.Order
	if err := r.store.Insert(ctx, tableOrders, body, rest.ReturnRepresentation, &created); err != nil {
		return models.OrderWithLines{}, fmt.Errorf("create order: %w", err)
	}
	if len(created) == 0 || created[0].ID == 0 {
		return models.OrderWithLines{}, errors.New("create order: store returned no order id")
	}
	order := created[0]

	result := models.OrderWithLines{Order: order, Lines: []models.OrderLine{}}
	if len(lines) == 0 {
		return result, nil
	}
	for i := range lines {
		lines[i].OrderID = order.ID
	}

	var saved []models.OrderLine
	if err := r.store.Insert(ctx, tableOrderLines, lines, rest.ReturnRepresentation, &saved); err != nil {
		r.log.Warn("order lines not saved", "order_id", order.ID, "lines", len(lines), "err", err)
		return result, &PartialOrderError{Order: order, Err: err}
	}
	result.Lines = saved
	return result, nil
}

// Orders returns the user's orders, newest first.
func (r *OrderRepository) Orders(ctx context.Context) ([]models.Order, error) {
	userID, err := r.sessions.UserID()
	if err != nil {
		return nil, err
	}

	var orders []models.Order
	q := postgrest.Query{}.
		Where(postgrest.Eq("user_id", userID)).
		OrderBy(postgrest.Desc("created_at"))
	if err := r.store.Select(ctx, tableOrders, q, &orders); err != nil {
		return nil, fmt.Errorf("fetch orders: %w", err)
	}
	return orders, nil
}

func (r *OrderRepository) OrderLines(ctx context.Context, orderID int64) ([]models.OrderLine, error) {
	var lines []models.OrderLine
	q := postgrest.Query{}.
		Where(postgrest.Eq("order_id", orderID)).
		OrderBy(postgrest.Asc("id"))
	if err := r.store.Select(ctx, tableOrderLines, q, &lines); err != nil {
		return nil, fmt.Errorf("fetch order lines: %w", err)
	}
	return lines, nil
}

// Order returns one of the user's orders with its lines, or ErrNotFound.
func (r *OrderRepository) Order(ctx context.Context, id int64) (models.OrderWithLines, error) {
	userID, err := r.sessions.UserID()
	if err != nil {
		return models.OrderWithLines{}, err
	}

	var orders []models.Order
	q := postgrest.Query{Limit: 1}.Where(
		postgrest.Eq("id", id),
		postgrest.Eq("user_id", userID),
	)
	if err := r.store.Select(ctx, tableOrders, q, &orders); err != nil {
		return models.OrderWithLines{}, fmt.Errorf("fetch order: %w", err)
	}
	if len(orders) == 0 {
		return models.OrderWithLines{}, ErrNotFound
	}

	lines, err := r.OrderLines(ctx, id)
	if err != nil {
		return models.OrderWithLines{}, err
	}
	return models.OrderWithLines{Order: orders[0], Lines: lines}, nil
}

// OrdersHistory returns every order with its lines, newest first. A failed
// line fetch yields an empty line list for that order rather than an error.
func (r *OrderRepository) OrdersHistory(ctx context.Context) ([]models.OrderWithLines, error) {
	orders, err := r.Orders(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]models.OrderWithLines, len(orders))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, o := range orders {
		i, o := i, o
		g.Go(func() error {
			lines, err := r.OrderLines(gctx, o.ID)
			if err != nil {
				r.log.Warn("order lines unavailable", "order_id", o.ID, "err", err)
				lines = []models.OrderLine{}
			}
			result[i] = models.OrderWithLines{Order: o, Lines: lines}
			return nil
		})
	}
	// Workers never fail, so Wait only returns once every slot is filled.
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
