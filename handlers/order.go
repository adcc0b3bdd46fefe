package handlers

import (
	"net/http"

	"storefront-core/dtos"
	"storefront-core/middleware"
	"storefront-core/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type OrderHandler struct {
	DB *gorm.DB
}

func (h *OrderHandler) GetOrders(c *gin.Context) {
	listRows[models.Order](c, h.DB, ordersCollection)
}

// CreateOrder inserts order headers. Status and totals are taken as sent;
// the store does not recompute them.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		permissionDenied(c, ordersCollection.name)
		return
	}

	rows, ok := bindRows[dtos.OrderInsert](c)
	if !ok {
		return
	}

	orders := make([]models.Order, 0, len(rows))
	for _, r := range rows {
		if r.UserID != userID {
			rlsViolation(c, ordersCollection.name)
			return
		}
		orders = append(orders, models.Order{
			Email:        r.Email,
			Phone:        r.Phone,
			Address:      r.Address,
			UserID:       r.UserID,
			PaymentID:    r.PaymentID,
			DeliveryCost: r.DeliveryCost,
			StatusID:     r.StatusID,
		})
	}

	if err := h.DB.Create(&orders).Error; err != nil {
		internalError(c, err)
		return
	}
	respondWrite(c, http.StatusCreated, orders)
}

// GetOrderLines lists order items of the caller's orders only.
func (h *OrderHandler) GetOrderLines(c *gin.Context) {
	q, err := parseRequestQuery(c)
	if err != nil {
		writeQueryError(c, err)
		return
	}

	lines := make([]models.OrderLine, 0)
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusOK, lines)
		return
	}

	owned := h.DB.Model(&models.Order{}).Select("id").Where("user_id = ?", userID)
	scoped, err := applyQuery(h.DB.Model(&models.OrderLine{}).Where("order_id IN (?)", owned), orderLinesCollection, q)
	if err != nil {
		writeQueryError(c, err)
		return
	}
	if err := scoped.Find(&lines).Error; err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, lines)
}

// CreateOrderLines inserts a batch of order items atomically. Every item
// must reference an order owned by the caller.
func (h *OrderHandler) CreateOrderLines(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		permissionDenied(c, orderLinesCollection.name)
		return
	}

	rows, ok := bindRows[dtos.OrderLineInsert](c)
	if !ok {
		return
	}

	orderIDs := make([]int64, 0, len(rows))
	seen := make(map[int64]bool)
	for _, r := range rows {
		if !seen[r.OrderID] {
			seen[r.OrderID] = true
			orderIDs = append(orderIDs, r.OrderID)
		}
	}

	var owned int64
	if err := h.DB.Model(&models.Order{}).Where("id IN ? AND user_id = ?", orderIDs, userID).Count(&owned).Error; err != nil {
		internalError(c, err)
		return
	}
	if int(owned) != len(orderIDs) {
		rlsViolation(c, orderLinesCollection.name)
		return
	}

	lines := make([]models.OrderLine, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, models.OrderLine{
			Title:     r.Title,
			Cost:      r.Cost,
			Quantity:  r.Quantity,
			OrderID:   r.OrderID,
			ProductID: r.ProductID,
		})
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&lines).Error
	})
	if err != nil {
		internalError(c, err)
		return
	}
	respondWrite(c, http.StatusCreated, lines)
}
