package handlers

import (
	"storefront-core/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ProductHandler serves the read-only products collection.
type ProductHandler struct {
	DB *gorm.DB
}

func (h *ProductHandler) GetProducts(c *gin.Context) {
	listRows[models.Product](c, h.DB, productsCollection)
}
