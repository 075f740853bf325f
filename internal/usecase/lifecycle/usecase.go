package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"lendsmart-backend/internal/domain/fault"
	"lendsmart-backend/internal/domain/loan"
	"lendsmart-backend/internal/domain/schedule"
	"lendsmart-backend/internal/domain/uow"
)

var (
	ErrUnknownStatus    = fault.New(fault.KindValidation, "unknown_status")
	ErrRestrictedStatus = fault.New(fault.KindValidation, "status_not_operator_settable")
)

// Usecase applies administrative transitions (activate, cancel, reject,
// expire, mark-defaulted) through the validated transition table.
type Usecase struct {
	uow uow.UnitOfWork
	log zerolog.Logger
}

func NewUsecase(tx uow.UnitOfWork, log zerolog.Logger) *Usecase {
	return &Usecase{uow: tx, log: log}
}

type LoanDTO struct {
	LoanID         string     `json:"loan_id"`
	Status         string     `json:"status"`
	FundingDate    *time.Time `json:"funding_date,omitempty"`
	CompletionDate *time.Time `json:"completion_date,omitempty"`
	DefaultDate    *time.Time `json:"default_date,omitempty"`
	Installments   int        `json:"installments"`
}

var known = map[loan.Status]bool{
	loan.StatusPending: true, loan.StatusFunded: true, loan.StatusActive: true,
	loan.StatusRepaid: true, loan.StatusDefaulted: true, loan.StatusCancelled: true,
	loan.StatusRejected: true, loan.StatusExpired: true,
}

// adminTargets are the statuses an operator may set directly. funded is owned
// by the funding coordinator, which performs the bookkeeping that state
// implies (contributions, schedule, ledger registration); setting it here
// would commit a funded loan with nothing funded.
var adminTargets = map[loan.Status]bool{
	loan.StatusActive: true, loan.StatusRepaid: true, loan.StatusDefaulted: true,
	loan.StatusCancelled: true, loan.StatusRejected: true, loan.StatusExpired: true,
}

// Transition moves the loan to target under the table's rules, atomically.
// Entering active fills an absent schedule (declared side effect of that
// state) so a manually activated loan is still billable. Entering repaid
// requires every installment to be settled first.
func (u *Usecase) Transition(ctx context.Context, loanID string, target loan.Status) (*LoanDTO, error) {
	if !known[target] {
		return nil, ErrUnknownStatus.WithLoan(loanID).WithDetail("status %q", target)
	}
	if !adminTargets[target] {
		return nil, ErrRestrictedStatus.WithLoan(loanID).
			WithDetail("status %q is set by the funding flow, not by operators", target)
	}

	var dto *LoanDTO
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		now := time.Now().UTC()
		// the table check wins on edges like pending -> repaid
		if target == loan.StatusRepaid && loan.CanTransition(l.Status, target) && !l.AllInstallmentsPaid() {
			return loan.ErrInstallmentsOutstanding.WithLoan(l.LoanID).
				WithDetail("%d of %d installments paid", l.PaidInstallments(), len(l.Schedule))
		}
		if err := l.Transition(target, now); err != nil {
			return err
		}
		if target == loan.StatusActive && len(l.Schedule) == 0 {
			sched, err := schedule.Build(l.AmountRequested, l.RateAnnualPct, l.TermValue, l.TermUnit, *l.FundingDate)
			if err != nil {
				return err
			}
			l.Schedule = sched
			if due, ok := l.MaturityDate(); ok {
				l.DueDate = &due
			}
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		dto = &LoanDTO{
			LoanID:         l.LoanID,
			Status:         string(l.Status),
			FundingDate:    l.FundingDate,
			CompletionDate: l.CompletionDate,
			DefaultDate:    l.DefaultDate,
			Installments:   len(l.Schedule),
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, loan.ErrNotFound.WithLoan(loanID)
		}
		return nil, err
	}
	u.log.Info().Str("loan_id", loanID).Str("status", string(target)).Msg("loan transitioned")
	return dto, nil
}
