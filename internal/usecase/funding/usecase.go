package funding

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
	"lendsmart-backend/internal/domain/schedule"
	"lendsmart-backend/internal/domain/uow"
	"lendsmart-backend/internal/domain/user"
)

const (
	notifyTimeout = 30 * time.Second
	notifyRetries = 3
)

type Usecase struct {
	uow      uow.UnitOfWork
	notifier gateway.Notifier
	ledger   gateway.Ledger
	log      zerolog.Logger

	wg sync.WaitGroup
}

func NewUsecase(tx uow.UnitOfWork, notifier gateway.Notifier, ledger gateway.Ledger, log zerolog.Logger) *Usecase {
	return &Usecase{uow: tx, notifier: notifier, ledger: ledger, log: log}
}

// Flush waits for in-flight post-commit notifications. Used on shutdown and
// by tests; callers never block on it during a request.
func (u *Usecase) Flush() { u.wg.Wait() }

// Fund applies one funding contribution inside a single atomic unit of work
// scoped to the loan row. Preconditions are checked in order against the
// locked row, so concurrent calls are linearized and amountFunded can never
// exceed amountRequested. On full funding the repayment schedule is built and
// the external ledger is tried best-effort: its failure is logged and the
// commit stands with an empty contract ref.
func (u *Usecase) Fund(ctx context.Context, in FundInput) (*LoanDTO, error) {
	var (
		dto          *LoanDTO
		borrowerID   string
		becameFunded bool
	)

	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *loan.Loan) error {
		if l.Status != loan.StatusPending {
			return loan.ErrNotFundable.WithLoan(l.LoanID).
				WithDetail("status is %s, want pending", l.Status)
		}

		lender, err := r.Users.GetByUserID(ctx, in.LenderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return user.ErrNotFound.WithUser(in.LenderID)
			}
			return err
		}
		if !lender.KYCVerified() {
			return user.ErrKYCRequired.WithUser(in.LenderID)
		}
		if in.LenderID == l.BorrowerID {
			return loan.ErrSelfLending.WithLoan(l.LoanID).WithUser(in.LenderID)
		}
		if in.Amount <= 0 {
			return loan.ErrInvalidAmount.WithLoan(l.LoanID).
				WithDetail("amount must be > 0, got %v", in.Amount)
		}
		if in.Amount > l.Remaining() {
			return loan.ErrExceedsRemaining.WithLoan(l.LoanID).
				WithDetail("amount %v exceeds remaining %v", in.Amount, l.Remaining())
		}

		now := time.Now().UTC()
		l.LenderID = in.LenderID
		l.Contributions = append(l.Contributions, loan.Contribution{
			LenderID: in.LenderID,
			Amount:   loan.Round2(in.Amount),
			At:       now,
		})
		l.AmountFunded = loan.Round2(l.AmountFunded + in.Amount)
		if l.FundingDate == nil {
			t := now
			l.FundingDate = &t
		}

		if l.FullyFunded() {
			if err := l.Transition(loan.StatusFunded, now); err != nil {
				return err
			}
			sched, err := schedule.Build(l.AmountRequested, l.RateAnnualPct, l.TermValue, l.TermUnit, now)
			if err != nil {
				return err
			}
			l.Schedule = sched
			if due, ok := l.MaturityDate(); ok {
				l.DueDate = &due
			}
			u.registerWithLedger(ctx, l)
			becameFunded = true
		}

		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		borrowerID = l.BorrowerID
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
	u.notify(borrowerID, "Loan funded",
		fmt.Sprintf("Your loan %s received a contribution of %.2f.", in.LoanID, in.Amount))
	u.notify(in.LenderID, "Funding recorded",
		fmt.Sprintf("Your contribution of %.2f to loan %s was recorded.", in.Amount, in.LoanID))
	if becameFunded {
		u.notify(borrowerID, "Loan fully funded",
			fmt.Sprintf("Loan %s is fully funded; your repayment schedule is ready.", in.LoanID))
	}
	return dto, nil
}

// registerWithLedger is best-effort: an error never aborts the funding
// commit, it only leaves the contract ref unset.
func (u *Usecase) registerWithLedger(ctx context.Context, l *loan.Loan) {
	due := time.Time{}
	if l.DueDate != nil {
		due = *l.DueDate
	} else if d, ok := l.MaturityDate(); ok {
		due = d
	}
	ref, err := u.ledger.Register(ctx, gateway.LoanTerms{
		LoanID:        l.LoanID,
		BorrowerID:    l.BorrowerID,
		LenderID:      l.LenderID,
		Principal:     l.AmountRequested,
		RateAnnualPct: l.RateAnnualPct,
		TermValue:     l.TermValue,
		TermUnit:      l.TermUnit,
		DueDate:       due,
	})
	if err != nil {
		u.log.Warn().Err(err).Str("loan_id", l.LoanID).
			Msg("ledger registration failed, continuing without contract ref")
		return
	}
	l.ExternalContractRef = ref
}

// notify delivers asynchronously with bounded exponential backoff. A delivery
// failure is logged and dropped: at-most-once, never guaranteed.
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
