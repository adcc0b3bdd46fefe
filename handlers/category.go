package handlers

import (
	"storefront-core/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CategoryHandler struct {
	DB *gorm.DB
}

func (h *CategoryHandler) GetCategories(c *gin.Context) {
	listRows[models.Category](c, h.DB, categoriesCollection)
}
