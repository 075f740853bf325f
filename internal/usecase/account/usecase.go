package account

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"lendsmart-backend/internal/domain/fault"
	"lendsmart-backend/internal/domain/user"
	"lendsmart-backend/pkg/id"
)

var ErrInvalidInput = fault.New(fault.KindValidation, "invalid_account")

type Usecase struct{ users user.Repository }

func NewUsecase(users user.Repository) *Usecase { return &Usecase{users: users} }

type RegisterInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type UserDTO struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	KYCStatus string    `json:"kyc_status"`
	CreatedAt time.Time `json:"created_at"`
}

func toDTO(u *user.User) *UserDTO {
	return &UserDTO{
		UserID:    u.UserID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		KYCStatus: string(u.KYCStatus),
		CreatedAt: u.CreatedAt,
	}
}

func (u *Usecase) Register(ctx context.Context, in RegisterInput) (*UserDTO, error) {
	if in.Name == "" || in.Email == "" {
		return nil, ErrInvalidInput.WithDetail("name and email are required")
	}
	role := user.Role(in.Role)
	switch role {
	case user.RoleBorrower, user.RoleLender, user.RoleAdmin:
	case "":
		role = user.RoleBorrower
	default:
		return nil, ErrInvalidInput.WithDetail("unknown role %q", in.Role)
	}

	usr := &user.User{
		UserID:    id.NewID32(),
		Name:      in.Name,
		Email:     in.Email,
		Role:      role,
		KYCStatus: user.KYCPending,
	}
	if err := u.users.Create(ctx, usr); err != nil {
		return nil, err
	}
	return toDTO(usr), nil
}

func (u *Usecase) Get(ctx context.Context, userID string) (*UserDTO, error) {
	usr, err := u.users.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound.WithUser(userID)
		}
		return nil, err
	}
	return toDTO(usr), nil
}

// SetKYCStatus records the outcome of an external KYC check. The provider
// integration itself lives outside the engine.
func (u *Usecase) SetKYCStatus(ctx context.Context, userID string, status user.KYCStatus) (*UserDTO, error) {
	switch status {
	case user.KYCPending, user.KYCVerified, user.KYCRejected:
	default:
		return nil, ErrInvalidInput.WithUser(userID).WithDetail("unknown kyc status %q", status)
	}
	usr, err := u.users.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound.WithUser(userID)
		}
		return nil, err
	}
	usr.KYCStatus = status
	if err := u.users.Save(ctx, usr); err != nil {
		return nil, err
	}
	return toDTO(usr), nil
}
