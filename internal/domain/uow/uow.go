package uow

import (
	"context"

	"lendsmart-backend/internal/domain/loan"
	"lendsmart-backend/internal/domain/user"
)

type Repos struct {
	Loans loan.Repository
	Users user.Repository
}

// UnitOfWork scopes one atomic read-modify-write to a single loan aggregate.
// Cross-loan operations are independent; no cross-aggregate lock exists.
type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock loan first, then pass it in
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
}
