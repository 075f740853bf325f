package loanmock

import (
	"context"

	domain "lendsmart-backend/internal/domain/loan"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies loan.Repository. Fill in the
// fields a test needs; unfilled lookups report context.Canceled.
type Repo struct {
	CreateFn                     func(ctx context.Context, l *domain.Loan) error
	GetByLoanIDFn                func(ctx context.Context, loanID string) (*domain.Loan, error)
	GetByLoanIDForUpdateFn       func(ctx context.Context, loanID string) (*domain.Loan, error)
	GetPendingLoanByBorrowerIDFn func(ctx context.Context, borrowerID string) (*domain.Loan, error)
	SaveFn                       func(ctx context.Context, l *domain.Loan) error
	ListByStatusFn               func(ctx context.Context, status domain.Status, limit, offset int) ([]domain.Loan, error)
	ListByBorrowerFn             func(ctx context.Context, borrowerID string, limit, offset int) ([]domain.Loan, error)
	CountByBorrowerAndStatusFn   func(ctx context.Context, borrowerID string, status domain.Status) (int64, error)
}

func (m *Repo) Create(ctx context.Context, l *domain.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Repo) GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDFn != nil {
		return m.GetByLoanIDFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDForUpdateFn != nil {
		return m.GetByLoanIDForUpdateFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetPendingLoanByBorrowerID(ctx context.Context, borrowerID string) (*domain.Loan, error) {
	if m.GetPendingLoanByBorrowerIDFn != nil {
		return m.GetPendingLoanByBorrowerIDFn(ctx, borrowerID)
	}
	return nil, context.Canceled
}

func (m *Repo) Save(ctx context.Context, l *domain.Loan) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, l)
	}
	return nil
}

func (m *Repo) ListByStatus(ctx context.Context, status domain.Status, limit, offset int) ([]domain.Loan, error) {
	if m.ListByStatusFn != nil {
		return m.ListByStatusFn(ctx, status, limit, offset)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByBorrower(ctx context.Context, borrowerID string, limit, offset int) ([]domain.Loan, error) {
	if m.ListByBorrowerFn != nil {
		return m.ListByBorrowerFn(ctx, borrowerID, limit, offset)
	}
	return nil, context.Canceled
}

func (m *Repo) CountByBorrowerAndStatus(ctx context.Context, borrowerID string, status domain.Status) (int64, error) {
	if m.CountByBorrowerAndStatusFn != nil {
		return m.CountByBorrowerAndStatusFn(ctx, borrowerID, status)
	}
	return 0, nil
}
