package funding

import (
	"time"

	"lendsmart-backend/internal/domain/loan"
)

type FundInput struct {
	LoanID   string  `json:"loan_id"`
	LenderID string  `json:"lender_id"`
	Amount   float64 `json:"amount"`
}

type LoanDTO struct {
	LoanID              string             `json:"loan_id"`
	BorrowerID          string             `json:"borrower_id"`
	LenderID            string             `json:"lender_id,omitempty"`
	AmountRequested     float64            `json:"amount_requested"`
	AmountFunded        float64            `json:"amount_funded"`
	Status              string             `json:"status"`
	FundingDate         *time.Time         `json:"funding_date,omitempty"`
	DueDate             *time.Time         `json:"due_date,omitempty"`
	ExternalContractRef string             `json:"external_contract_ref,omitempty"`
	Schedule            []loan.Installment `json:"repayment_schedule,omitempty"`
}

func toDTO(l *loan.Loan) *LoanDTO {
	return &LoanDTO{
		LoanID:              l.LoanID,
		BorrowerID:          l.BorrowerID,
		LenderID:            l.LenderID,
		AmountRequested:     l.AmountRequested,
		AmountFunded:        l.AmountFunded,
		Status:              string(l.Status),
		FundingDate:         l.FundingDate,
		DueDate:             l.DueDate,
		ExternalContractRef: l.ExternalContractRef,
		Schedule:            l.Schedule,
	}
}
