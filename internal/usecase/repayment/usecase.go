package repayment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	"lendsmart-backend/internal/domain/gateway"
	"lendsmart-backend/internal/domain/loan"
	"lendsmart-backend/internal/domain/uow"
)

const (
	notifyTimeout = 30 * time.Second
	notifyRetries = 3
)

type Usecase struct {
	uow      uow.UnitOfWork
	notifier gateway.Notifier
	log      zerolog.Logger

	wg sync.WaitGroup
}

func NewUsecase(tx uow.UnitOfWork, notifier gateway.Notifier, log zerolog.Logger) *Usecase {
	return &Usecase{uow: tx, notifier: notifier, log: log}
}

// Flush waits for in-flight post-commit notifications (shutdown/tests only).
func (u *Usecase) Flush() { u.wg.Wait() }

// Record applies one payment to an installment inside a single atomic unit of
// work on the loan row. A payment against an already-paid installment is
// rejected outright, never merged: that is the guard against duplicate
// submissions double-counting money. When the last installment settles, the
// loan transitions to repaid and the completion date is stamped exactly once.
func (u *Usecase) Record(ctx context.Context, in RecordInput) (*LoanDTO, error) {
	var (
		dto         *LoanDTO
		borrowerID  string
		lenderID    string
		fullyRepaid bool
	)

	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *loan.Loan) error {
		if l.Status != loan.StatusActive && l.Status != loan.StatusFunded {
			return loan.ErrNotRepayable.WithLoan(l.LoanID).
				WithDetail("status is %s, want active or funded", l.Status)
		}
		if len(l.Schedule) == 0 {
			return loan.ErrNoSchedule.WithLoan(l.LoanID)
		}
		inst := l.FindInstallment(in.InstallmentNumber)
		if inst == nil {
			return loan.ErrInstallmentNotFound.WithLoan(l.LoanID).
				WithDetail("installment %d of %d", in.InstallmentNumber, len(l.Schedule))
		}
		if inst.Status == loan.InstallmentPaid {
			return loan.ErrInstallmentAlreadyPaid.WithLoan(l.LoanID).
				WithDetail("installment %d", in.InstallmentNumber)
		}
		if in.Amount <= 0 {
			return loan.ErrInvalidAmount.WithLoan(l.LoanID).
				WithDetail("amount must be > 0, got %v", in.Amount)
		}

		now := time.Now().UTC()
		when := now
		if in.PaymentDate != nil {
			when = in.PaymentDate.UTC()
		}

		inst.AmountPaid = loan.Round2(inst.AmountPaid + in.Amount)
		inst.PaymentDate = &when
		if in.TransactionRef != "" {
			inst.TransactionRef = in.TransactionRef
		}
		if inst.AmountPaid >= inst.AmountDue-0.005 {
			inst.Status = loan.InstallmentPaid
		} else {
			inst.Status = loan.InstallmentPartiallyPaid
		}

		if l.AllInstallmentsPaid() {
			// funded loans settle through active; the table has no
			// funded -> repaid edge
			if l.Status == loan.StatusFunded {
				if err := l.Transition(loan.StatusActive, now); err != nil {
					return err
				}
			}
			if err := l.Transition(loan.StatusRepaid, now); err != nil {
				return err
			}
			fullyRepaid = true
		}

		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		borrowerID = l.BorrowerID
		lenderID = l.LenderID
		dto = toDTO(l)
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, loan.ErrNotFound.WithLoan(in.LoanID)
		}
		return nil, err
	}

	// Post-commit, fire-and-forget.
	u.notify(borrowerID, "Repayment recorded",
		fmt.Sprintf("Payment of %.2f against installment %d of loan %s was recorded.",
			in.Amount, in.InstallmentNumber, in.LoanID))
	if lenderID != "" {
		u.notify(lenderID, "Repayment received",
			fmt.Sprintf("Loan %s received a payment of %.2f.", in.LoanID, in.Amount))
	}
	if fullyRepaid {
		u.notify(borrowerID, "Loan fully repaid",
			fmt.Sprintf("Loan %s is fully repaid. Congratulations!", in.LoanID))
		if lenderID != "" {
			u.notify(lenderID, "Loan fully repaid",
				fmt.Sprintf("Loan %s has been fully repaid.", in.LoanID))
		}
	}
	return dto, nil
}

// notify mirrors the funding coordinator's at-most-once delivery policy.
func (u *Usecase) notify(userID, title, body string) {
	u.wg.Add(1)
	go func() {
		defer u.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		b := retry.WithMaxRetries(notifyRetries, retry.NewExponential(200*time.Millisecond))
		err := retry.Do(ctx, b, func(ctx context.Context) error {
			return retry.RetryableError(u.notifier.Send(ctx, userID, title, body))
		})
		if err != nil {
			u.log.Warn().Err(err).Str("user_id", userID).Str("title", title).
				Msg("notification dropped")
		}
	}()
}
