package loan

import "context"

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	// GetByLoanIDForUpdate locks the loan row for the duration of the
	// enclosing transaction (read-modify-write).
	GetByLoanIDForUpdate(ctx context.Context, loanID string) (*Loan, error)
	GetPendingLoanByBorrowerID(ctx context.Context, borrowerID string) (*Loan, error)
	Save(ctx context.Context, l *Loan) error

	ListByStatus(ctx context.Context, status Status, limit, offset int) ([]Loan, error)
	ListByBorrower(ctx context.Context, borrowerID string, limit, offset int) ([]Loan, error)
	CountByBorrowerAndStatus(ctx context.Context, borrowerID string, status Status) (int64, error)
}
