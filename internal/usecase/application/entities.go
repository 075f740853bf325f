package application

import (
	"time"

	"lendsmart-backend/internal/domain/loan"
)

type ApplyInput struct {
	BorrowerID string  `json:"borrower_id"`
	Amount     float64 `json:"amount"`
	// Optional; when zero an indicative risk-based rate is assigned.
	RateAnnualPct float64 `json:"rate_annual_pct"`
	TermValue     int     `json:"term_value"`
	TermUnit      string  `json:"term_unit"`
	Purpose       string  `json:"purpose"`
}

type LoanDTO struct {
	LoanID          string    `json:"loan_id"`
	BorrowerID      string    `json:"borrower_id"`
	AmountRequested float64   `json:"amount_requested"`
	AmountFunded    float64   `json:"amount_funded"`
	RateAnnualPct   float64   `json:"rate_annual_pct"`
	TermValue       int       `json:"term_value"`
	TermUnit        string    `json:"term_unit"`
	Purpose         string    `json:"purpose"`
	Status          string    `json:"status"`
	CreditScore     *int      `json:"credit_score,omitempty"`
	RiskLevel       string    `json:"risk_level,omitempty"`
	ApplicationDate time.Time `json:"application_date"`
}

func toDTO(l *loan.Loan) *LoanDTO {
	return &LoanDTO{
		LoanID:          l.LoanID,
		BorrowerID:      l.BorrowerID,
		AmountRequested: l.AmountRequested,
		AmountFunded:    l.AmountFunded,
		RateAnnualPct:   l.RateAnnualPct,
		TermValue:       l.TermValue,
		TermUnit:        string(l.TermUnit),
		Purpose:         l.Purpose,
		Status:          string(l.Status),
		CreditScore:     l.CreditScore,
		RiskLevel:       l.RiskLevel,
		ApplicationDate: l.ApplicationDate,
	}
}
