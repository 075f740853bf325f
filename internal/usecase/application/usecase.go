package application

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"lendsmart-backend/internal/domain/fault"
	"lendsmart-backend/internal/domain/gateway"
	"lendsmart-backend/internal/domain/loan"
	"lendsmart-backend/internal/domain/risk"
	"lendsmart-backend/internal/domain/user"
	"lendsmart-backend/pkg/id"
)

// DefaultRatePct is the indicative rate when the application could not be
// scored at all.
const DefaultRatePct = 12.0

var ErrInvalidInput = fault.New(fault.KindValidation, "invalid_application")

type Usecase struct {
	loans  loan.Repository
	users  user.Repository
	bureau gateway.CreditBureau // nil means heuristic-only
	log    zerolog.Logger
}

func NewUsecase(loans loan.Repository, users user.Repository, bureau gateway.CreditBureau, log zerolog.Logger) *Usecase {
	return &Usecase{loans: loans, users: users, bureau: bureau, log: log}
}

// Apply creates the Loan aggregate in pending. Scoring is best-effort: a
// bureau or history failure downgrades to the heuristic or to no score at
// all, never to a failed application.
func (u *Usecase) Apply(ctx context.Context, in ApplyInput) (*LoanDTO, error) {
	if in.BorrowerID == "" {
		return nil, ErrInvalidInput.WithDetail("borrower_id is required")
	}
	if in.Amount <= 0 {
		return nil, loan.ErrInvalidAmount.WithUser(in.BorrowerID).WithDetail("amount must be > 0")
	}
	if in.RateAnnualPct < 0 {
		return nil, ErrInvalidInput.WithUser(in.BorrowerID).WithDetail("rate must be >= 0")
	}
	unit := loan.TermUnit(in.TermUnit)
	if in.TermValue <= 0 || !loan.ValidTermUnit(unit) {
		return nil, ErrInvalidInput.WithUser(in.BorrowerID).WithDetail("term=%d unit=%q", in.TermValue, in.TermUnit)
	}

	borrower, err := u.users.GetByUserID(ctx, in.BorrowerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound.WithUser(in.BorrowerID)
		}
		return nil, err
	}
	if !borrower.KYCVerified() {
		return nil, user.ErrKYCRequired.WithUser(in.BorrowerID)
	}

	// Block a borrower who already has a pending application.
	if pending, err := u.loans.GetPendingLoanByBorrowerID(ctx, in.BorrowerID); err == nil {
		return nil, loan.ErrPendingExists.WithLoan(pending.LoanID).WithUser(in.BorrowerID)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	score, level := u.resolveScore(ctx, borrower, in.Amount, now)

	rate := in.RateAnnualPct
	if rate == 0 {
		rate = indicativeRate(score)
	}

	l := &loan.Loan{
		LoanID:          id.NewID32(),
		BorrowerID:      in.BorrowerID,
		AmountRequested: loan.Round2(in.Amount),
		RateAnnualPct:   rate,
		TermValue:       in.TermValue,
		TermUnit:        unit,
		Purpose:         in.Purpose,
		Status:          loan.StatusPending,
		CreditScore:     score,
		RiskLevel:       level,
		ApplicationDate: now,
		StatusUpdatedAt: now,
	}
	if err := u.loans.Create(ctx, l); err != nil {
		return nil, err
	}
	return toDTO(l), nil
}

func (u *Usecase) Get(ctx context.Context, loanID string) (*LoanDTO, error) {
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, loan.ErrNotFound.WithLoan(loanID)
		}
		return nil, err
	}
	return toDTO(l), nil
}

// resolveScore tries the external bureau first, then the heuristic scorer.
// Every failure is swallowed with a warning; a nil score is acceptable.
func (u *Usecase) resolveScore(ctx context.Context, borrower *user.User, amount float64, now time.Time) (*int, string) {
	if u.bureau != nil {
		if s, err := u.bureau.Score(ctx, borrower.UserID); err == nil {
			return &s, string(risk.LevelFor(s, amount))
		} else {
			u.log.Warn().Err(err).Str("user_id", borrower.UserID).
				Msg("credit bureau unavailable, falling back to heuristic")
		}
	}

	repaid, err := u.loans.CountByBorrowerAndStatus(ctx, borrower.UserID, loan.StatusRepaid)
	if err != nil {
		u.log.Warn().Err(err).Str("user_id", borrower.UserID).
			Msg("history lookup failed, proceeding unscored")
		return nil, ""
	}
	defaulted, err := u.loans.CountByBorrowerAndStatus(ctx, borrower.UserID, loan.StatusDefaulted)
	if err != nil {
		u.log.Warn().Err(err).Str("user_id", borrower.UserID).
			Msg("history lookup failed, proceeding unscored")
		return nil, ""
	}

	s := risk.Score(risk.History{
		KYCVerified:      borrower.KYCVerified(),
		AccountAgeMonths: borrower.AccountAgeMonths(now),
		RepaidLoans:      int(repaid),
		DefaultedLoans:   int(defaulted),
	})
	return &s, string(risk.LevelFor(s, amount))
}

// indicativeRate maps a score to an annual rate: 5% for a perfect score up to
// 15% for the floor (base 5 plus up to 10 points of risk premium).
func indicativeRate(score *int) float64 {
	if score == nil {
		return DefaultRatePct
	}
	frac := float64(risk.MaxScore-*score) / float64(risk.MaxScore-risk.MinScore)
	return loan.Round2(5 + frac*10)
}
