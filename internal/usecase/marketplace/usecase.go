package marketplace

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"lendsmart-backend/internal/domain/loan"
)

// Read-only projections for marketplace display. Nothing here mutates a loan.

type Usecase struct{ loans loan.Repository }

func NewUsecase(loans loan.Repository) *Usecase { return &Usecase{loans: loans} }

type Metrics struct {
	FundingProgressPct   float64 `json:"funding_progress_pct"`
	RepaymentProgressPct float64 `json:"repayment_progress_pct"`
	TimeRemainingSecs    int64   `json:"time_remaining_secs"`
	OverdueInstallments  int     `json:"overdue_installments"`
	// Simple-interest display estimate; billing follows the amortized
	// schedule, not this number.
	ExpectedReturn float64 `json:"expected_return"`
}

type ListingDTO struct {
	LoanID          string  `json:"loan_id"`
	BorrowerID      string  `json:"borrower_id"`
	AmountRequested float64 `json:"amount_requested"`
	AmountFunded    float64 `json:"amount_funded"`
	RateAnnualPct   float64 `json:"rate_annual_pct"`
	TermValue       int     `json:"term_value"`
	TermUnit        string  `json:"term_unit"`
	Purpose         string  `json:"purpose"`
	Status          string  `json:"status"`
	RiskLevel       string  `json:"risk_level,omitempty"`
	Metrics         Metrics `json:"metrics"`
}

func metricsOf(l *loan.Loan, now time.Time) Metrics {
	remaining, _ := l.TimeRemaining(now)
	return Metrics{
		FundingProgressPct:   l.FundingProgress(),
		RepaymentProgressPct: l.RepaymentProgress(),
		TimeRemainingSecs:    int64(remaining.Seconds()),
		OverdueInstallments:  l.OverdueInstallments(now),
		ExpectedReturn:       l.ExpectedReturn(),
	}
}

func toListing(l *loan.Loan, now time.Time) ListingDTO {
	return ListingDTO{
		LoanID:          l.LoanID,
		BorrowerID:      l.BorrowerID,
		AmountRequested: l.AmountRequested,
		AmountFunded:    l.AmountFunded,
		RateAnnualPct:   l.RateAnnualPct,
		TermValue:       l.TermValue,
		TermUnit:        string(l.TermUnit),
		Purpose:         l.Purpose,
		Status:          string(l.Status),
		RiskLevel:       l.RiskLevel,
		Metrics:         metricsOf(l, now),
	}
}

// MetricsFor returns the derived metrics for one loan.
func (u *Usecase) MetricsFor(ctx context.Context, loanID string) (*Metrics, error) {
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, loan.ErrNotFound.WithLoan(loanID)
		}
		return nil, err
	}
	m := metricsOf(l, time.Now().UTC())
	return &m, nil
}

// ListOpen lists pending loans still collecting funding.
func (u *Usecase) ListOpen(ctx context.Context, limit, offset int) ([]ListingDTO, error) {
	ls, err := u.loans.ListByStatus(ctx, loan.StatusPending, normalizeLimit(limit), offset)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	out := make([]ListingDTO, 0, len(ls))
	for i := range ls {
		out = append(out, toListing(&ls[i], now))
	}
	return out, nil
}

// ListByBorrower lists a borrower's loans, newest first.
func (u *Usecase) ListByBorrower(ctx context.Context, borrowerID string, limit, offset int) ([]ListingDTO, error) {
	ls, err := u.loans.ListByBorrower(ctx, borrowerID, normalizeLimit(limit), offset)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	out := make([]ListingDTO, 0, len(ls))
	for i := range ls {
		out = append(out, toListing(&ls[i], now))
	}
	return out, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 20
	}
	return limit
}
