package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OTPPurpose string

const (
	OTPPurposeSignup   OTPPurpose = "signup"
	OTPPurposeRecovery OTPPurpose = "recovery"
	OTPPurposeEmail    OTPPurpose = "email"
)

// MaxOTPAttempts is how many wrong codes a pending OTP tolerates.
const MaxOTPAttempts = 5

type OTPCode struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
	Purpose   OTPPurpose `gorm:"not null" json:"purpose"`
	CodeHash  string     `gorm:"not null" json:"-"`
	Attempts  int        `gorm:"default:0" json:"attempts"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	UsedAt    *time.Time `json:"used_at"`
	CreatedAt time.Time  `json:"created_at"`
}

func (OTPCode) TableName() string {
	return "otp_codes"
}

func (o *OTPCode) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// Usable reports whether the code can still be redeemed at now.
func (o *OTPCode) Usable(now time.Time) bool {
	return o.UsedAt == nil && now.Before(o.ExpiresAt) && o.Attempts < MaxOTPAttempts
}
