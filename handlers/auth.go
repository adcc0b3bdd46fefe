package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"storefront-core/dtos"
	"storefront-core/middleware"
	"storefront-core/models"
	"storefront-core/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuthHandler implements the identity endpoints under /auth/v1: password
// sign-up and sign-in, emailed one-time codes, password change and logout.
type AuthHandler struct {
	DB     *gorm.DB
	Mailer utils.Mailer
	// Now is the clock used for code expiry. Defaults to time.Now.
	Now func() time.Time
}

func (h *AuthHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func authError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, gin.H{"code": status, "error_code": code, "msg": msg})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates an unconfirmed user and emails a signup code. Signing up
// again before confirming replaces the password and sends a fresh code.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req dtos.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		authError(c, http.StatusBadRequest, "validation_failed", utils.SanitizeValidationError(err))
		return
	}
	email := normalizeEmail(req.Email)

	hash, err := utils.HashSecret(req.Password)
	if err != nil {
		authError(c, http.StatusInternalServerError, "unexpected_failure", "Failed to hash password")
		return
	}

	var user models.User
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("email = ?", email).First(&user).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			user = models.User{Email: email, Password: hash}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			return tx.Create(&models.Profile{ID: user.ID, Email: email, UpdatedAt: h.now().UTC()}).Error
		case err != nil:
			return err
		case user.Confirmed():
			return errUserExists
		default:
			return tx.Model(&user).Update("password", hash).Error
		}
	})
	if errors.Is(err, errUserExists) {
		authError(c, http.StatusUnprocessableEntity, "user_already_exists", "User already registered")
		return
	}
	if err != nil {
		authError(c, http.StatusInternalServerError, "unexpected_failure", "Failed to create user")
		return
	}

	if err := h.issueCode(user, models.OTPPurposeSignup); err != nil {
		log.Printf("signup code for %s: %v", email, err)
	}

	c.JSON(http.StatusOK, dtos.AuthUser{ID: user.ID, Email: user.Email})
}

var errUserExists = errors.New("user already registered")

// Token handles grant_type=password.
func (h *AuthHandler) Token(c *gin.Context) {
	if grant := c.Query("grant_type"); grant != "password" {
		authError(c, http.StatusBadRequest, "unsupported_grant_type", "Unsupported grant type: "+grant)
		return
	}

	var req dtos.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		authError(c, http.StatusBadRequest, "validation_failed", utils.SanitizeValidationError(err))
		return
	}

	var user models.User
	if err := h.DB.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error; err != nil {
		authError(c, http.StatusBadRequest, "invalid_credentials", "Invalid login credentials")
		return
	}
	if !utils.CheckSecret(user.Password, req.Password) {
		authError(c, http.StatusBadRequest, "invalid_credentials", "Invalid login credentials")
		return
	}
	if !user.Confirmed() {
		authError(c, http.StatusBadRequest, "email_not_confirmed", "Email not confirmed")
		return
	}

	h.respondSession(c, user)
}

// SendOTP emails a sign-in code. The response does not reveal whether the
// address is registered.
func (h *AuthHandler) SendOTP(c *gin.Context) {
	h.requestCode(c, models.OTPPurposeEmail)
}

// Recover emails a password recovery code.
func (h *AuthHandler) Recover(c *gin.Context) {
	h.requestCode(c, models.OTPPurposeRecovery)
}

func (h *AuthHandler) requestCode(c *gin.Context, purpose models.OTPPurpose) {
	var req dtos.OTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		authError(c, http.StatusBadRequest, "validation_failed", utils.SanitizeValidationError(err))
		return
	}

	var user models.User
	if err := h.DB.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error; err == nil {
		if err := h.issueCode(user, purpose); err != nil {
			log.Printf("%s code for %s: %v", purpose, user.Email, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{})
}

// issueCode invalidates pending codes of the same purpose, stores a new
// hashed code and mails it.
func (h *AuthHandler) issueCode(user models.User, purpose models.OTPPurpose) error {
	code, err := utils.GenerateOTP()
	if err != nil {
		return err
	}
	hash, err := utils.HashSecret(code)
	if err != nil {
		return err
	}

	now := h.now()
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.OTPCode{}).
			Where("user_id = ? AND purpose = ? AND used_at IS NULL", user.ID, purpose).
			Update("used_at", now).Error; err != nil {
			return err
		}
		return tx.Create(&models.OTPCode{
			UserID:    user.ID,
			Purpose:   purpose,
			CodeHash:  hash,
			ExpiresAt: now.Add(utils.OTPTTL),
		}).Error
	})
	if err != nil {
		return err
	}

	if h.Mailer == nil {
		return nil
	}
	return h.Mailer.SendOTP(user.Email, code, string(purpose))
}

// Verify redeems a one-time code. Status codes distinguish a wrong code
// (400), an expired one (403), a code of the wrong kind (422) and too many
// attempts (429).
func (h *AuthHandler) Verify(c *gin.Context) {
	var req dtos.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		authError(c, http.StatusBadRequest, "validation_failed", utils.SanitizeValidationError(err))
		return
	}
	purpose := models.OTPPurpose(req.Type)

	var user models.User
	if err := h.DB.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error; err != nil {
		authError(c, http.StatusBadRequest, "otp_invalid", "Token has expired or is invalid")
		return
	}
	if purpose == models.OTPPurposeSignup && user.Confirmed() {
		authError(c, http.StatusUnprocessableEntity, "email_exists", "Email address already confirmed")
		return
	}
	if purpose != models.OTPPurposeSignup && !user.Confirmed() {
		authError(c, http.StatusUnprocessableEntity, "email_not_confirmed", "Email not confirmed")
		return
	}

	var otp models.OTPCode
	err := h.DB.Where("user_id = ? AND purpose = ? AND used_at IS NULL", user.ID, purpose).
		Order("created_at DESC").First(&otp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		var other int64
		h.DB.Model(&models.OTPCode{}).Where("user_id = ? AND used_at IS NULL", user.ID).Count(&other)
		if other > 0 {
			authError(c, http.StatusUnprocessableEntity, "otp_type_mismatch", "Token does not match the requested verification type")
			return
		}
		authError(c, http.StatusBadRequest, "otp_invalid", "Token has expired or is invalid")
		return
	}
	if err != nil {
		authError(c, http.StatusInternalServerError, "unexpected_failure", "Failed to verify token")
		return
	}

	now := h.now()
	if otp.Attempts >= models.MaxOTPAttempts {
		authError(c, http.StatusTooManyRequests, "over_request_rate_limit", "Too many verification attempts")
		return
	}
	if !now.Before(otp.ExpiresAt) {
		authError(c, http.StatusForbidden, "otp_expired", "Token has expired or is invalid")
		return
	}
	if !utils.CheckSecret(otp.CodeHash, req.Token) {
		h.DB.Model(&otp).Update("attempts", gorm.Expr("attempts + 1"))
		authError(c, http.StatusBadRequest, "otp_invalid", "Token has expired or is invalid")
		return
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&otp).Update("used_at", now).Error; err != nil {
			return err
		}
		if purpose == models.OTPPurposeSignup {
			return tx.Model(&user).Update("email_confirmed_at", now).Error
		}
		return nil
	})
	if err != nil {
		authError(c, http.StatusInternalServerError, "unexpected_failure", "Failed to verify token")
		return
	}

	h.respondSession(c, user)
}

// UpdateUser changes the caller's password.
func (h *AuthHandler) UpdateUser(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var req dtos.PasswordUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		authError(c, http.StatusUnprocessableEntity, "weak_password", utils.SanitizeValidationError(err))
		return
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		authError(c, http.StatusNotFound, "user_not_found", "User not found")
		return
	}

	hash, err := utils.HashSecret(req.Password)
	if err != nil {
		authError(c, http.StatusInternalServerError, "unexpected_failure", "Failed to hash password")
		return
	}
	if err := h.DB.Model(&user).Update("password", hash).Error; err != nil {
		authError(c, http.StatusInternalServerError, "unexpected_failure", "Failed to update password")
		return
	}

	c.JSON(http.StatusOK, dtos.AuthUser{ID: user.ID, Email: user.Email})
}

// Logout is acknowledged only; access tokens are stateless and simply expire.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) respondSession(c *gin.Context, user models.User) {
	token, err := utils.GenerateToken(user.ID, user.Email)
	if err != nil {
		authError(c, http.StatusInternalServerError, "unexpected_failure", "Failed to generate token")
		return
	}

	c.JSON(http.StatusOK, dtos.SessionResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(utils.AccessTokenTTL.Seconds()),
		User:        dtos.AuthUser{ID: user.ID, Email: user.Email},
	})
}
