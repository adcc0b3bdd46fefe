package handlers

import (
	"net/http"

	"storefront-core/dtos"
	"storefront-core/middleware"
	"storefront-core/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type FavouriteHandler struct {
	DB *gorm.DB
}

func (h *FavouriteHandler) GetFavourites(c *gin.Context) {
	listRows[models.FavoriteLink](c, h.DB, favouriteCollection)
}

// AddFavourite inserts favourite links. Duplicates are stored as given.
func (h *FavouriteHandler) AddFavourite(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		permissionDenied(c, favouriteCollection.name)
		return
	}

	rows, ok := bindRows[dtos.FavouriteInsert](c)
	if !ok {
		return
	}

	links := make([]models.FavoriteLink, 0, len(rows))
	for _, r := range rows {
		if r.UserID != userID {
			rlsViolation(c, favouriteCollection.name)
			return
		}
		links = append(links, models.FavoriteLink{ProductID: r.ProductID, UserID: r.UserID})
	}

	if err := h.DB.Create(&links).Error; err != nil {
		internalError(c, err)
		return
	}
	respondWrite(c, http.StatusCreated, links)
}

func (h *FavouriteHandler) RemoveFavourite(c *gin.Context) {
	deleteRows[models.FavoriteLink](c, h.DB, favouriteCollection)
}
