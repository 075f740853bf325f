package user

import (
	"time"

	"gorm.io/gorm"

	"lendsmart-backend/internal/domain/fault"
)

type Role string

const (
	RoleBorrower Role = "borrower"
	RoleLender   Role = "lender"
	RoleAdmin    Role = "admin"
)

type KYCStatus string

const (
	KYCPending  KYCStatus = "pending"
	KYCVerified KYCStatus = "verified"
	KYCRejected KYCStatus = "rejected"
)

var (
	ErrNotFound = fault.New(fault.KindNotFound, "user_not_found")
	// ErrKYCRequired gates both borrowing and lending.
	ErrKYCRequired = fault.New(fault.KindValidation, "kyc_required")
)

type User struct {
	ID        uint64         `gorm:"primaryKey;column:id" json:"-"`
	UserID    string         `gorm:"size:32;uniqueIndex:ux_users_user_id_active" json:"user_id"`
	Name      string         `gorm:"size:255" json:"name"`
	Email     string         `gorm:"size:255;index" json:"email"`
	Role      Role           `gorm:"type:varchar(16);default:'borrower'" json:"role"`
	KYCStatus KYCStatus      `gorm:"type:varchar(16);default:'pending';column:kyc_status" json:"kyc_status"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

func (u *User) KYCVerified() bool { return u.KYCStatus == KYCVerified }

// AccountAgeMonths approximates the account age in whole months, feeding the
// fallback risk scorer.
func (u *User) AccountAgeMonths(now time.Time) int {
	if now.Before(u.CreatedAt) {
		return 0
	}
	months := int(now.Sub(u.CreatedAt).Hours() / 24 / 30)
	return months
}
