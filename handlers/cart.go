package handlers

import (
	"net/http"

	"storefront-core/dtos"
	"storefront-core/middleware"
	"storefront-core/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CartHandler struct {
	DB *gorm.DB
}

func (h *CartHandler) GetCart(c *gin.Context) {
	listRows[models.CartLine](c, h.DB, cartCollection)
}

// AddToCart inserts one or more lines. Every line must belong to the caller.
func (h *CartHandler) AddToCart(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		permissionDenied(c, cartCollection.name)
		return
	}

	rows, ok := bindRows[dtos.CartLineInsert](c)
	if !ok {
		return
	}

	lines := make([]models.CartLine, 0, len(rows))
	for _, r := range rows {
		if r.UserID != userID {
			rlsViolation(c, cartCollection.name)
			return
		}
		lines = append(lines, models.CartLine{ProductID: r.ProductID, UserID: r.UserID, Quantity: r.Quantity})
	}

	var product models.Product
	for _, l := range lines {
		if err := h.DB.Select("id").First(&product, "id = ?", l.ProductID).Error; err != nil {
			restErrorDetails(c, http.StatusConflict, "23503", `insert or update on table "cart" violates foreign key constraint`,
				"Key (product_id)=("+l.ProductID.String()+") is not present in table \"products\".")
			return
		}
	}

	if err := h.DB.Create(&lines).Error; err != nil {
		internalError(c, err)
		return
	}
	respondWrite(c, http.StatusCreated, lines)
}

// UpdateCartItem changes the quantity of the filtered lines.
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	patch, ok := bindObject[dtos.CartQuantityPatch](c)
	if !ok {
		return
	}

	scoped, ok := filteredWrite[models.CartLine](c, h.DB, cartCollection)
	if !ok {
		return
	}

	var lines []models.CartLine
	if err := scoped.Session(&gorm.Session{}).Find(&lines).Error; err != nil {
		internalError(c, err)
		return
	}
	if len(lines) > 0 {
		ids := make([]interface{}, len(lines))
		for i, l := range lines {
			ids[i] = l.ID
		}
		if err := h.DB.Model(&models.CartLine{}).Where("id IN ?", ids).Update("quantity", patch.Quantity).Error; err != nil {
			internalError(c, err)
			return
		}
		for i := range lines {
			lines[i].Quantity = patch.Quantity
		}
	}
	respondWrite(c, http.StatusOK, lines)
}

func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	deleteRows[models.CartLine](c, h.DB, cartCollection)
}

// deleteRows deletes the filtered, owner-scoped rows of col.
func deleteRows[T any](c *gin.Context, db *gorm.DB, col collection) {
	scoped, ok := filteredWrite[T](c, db, col)
	if !ok {
		return
	}

	rows := make([]T, 0)
	if err := scoped.Session(&gorm.Session{}).Find(&rows).Error; err != nil {
		internalError(c, err)
		return
	}
	if len(rows) > 0 {
		if err := db.Delete(&rows).Error; err != nil {
			internalError(c, err)
			return
		}
	}
	respondWrite(c, http.StatusOK, rows)
}
