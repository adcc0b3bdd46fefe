package handlers

import (
	"net/http"
	"time"

	"storefront-core/dtos"
	"storefront-core/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ProfileHandler struct {
	DB *gorm.DB
}

func (h *ProfileHandler) GetProfiles(c *gin.Context) {
	listRows[models.Profile](c, h.DB, profilesCollection)
}

// UpdateProfile applies the non-nil fields of the patch to the caller's profile.
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	patch, ok := bindObject[dtos.ProfilePatch](c)
	if !ok {
		return
	}

	scoped, ok := filteredWrite[models.Profile](c, h.DB, profilesCollection)
	if !ok {
		return
	}

	updates := map[string]interface{}{"updated_at": time.Now().UTC()}
	if patch.FullName != nil {
		updates["full_name"] = *patch.FullName
	}
	if patch.Phone != nil {
		updates["phone"] = *patch.Phone
	}
	if patch.Address != nil {
		updates["address"] = *patch.Address
	}

	profiles := make([]models.Profile, 0, 1)
	if err := scoped.Session(&gorm.Session{}).Find(&profiles).Error; err != nil {
		internalError(c, err)
		return
	}
	for i := range profiles {
		if err := h.DB.Model(&profiles[i]).Updates(updates).Error; err != nil {
			internalError(c, err)
			return
		}
	}
	respondWrite(c, http.StatusOK, profiles)
}
