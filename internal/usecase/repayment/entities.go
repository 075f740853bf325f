package repayment

import (
	"time"

	"lendsmart-backend/internal/domain/loan"
)

type RecordInput struct {
	LoanID            string
	InstallmentNumber int
	Amount            float64
	// Optional; defaults to now.
	PaymentDate    *time.Time
	TransactionRef string
}

type LoanDTO struct {
	LoanID         string             `json:"loan_id"`
	Status         string             `json:"status"`
	AmountFunded   float64            `json:"amount_funded"`
	CompletionDate *time.Time         `json:"completion_date,omitempty"`
	Schedule       []loan.Installment `json:"repayment_schedule"`
}

func toDTO(l *loan.Loan) *LoanDTO {
	return &LoanDTO{
		LoanID:         l.LoanID,
		Status:         string(l.Status),
		AmountFunded:   l.AmountFunded,
		CompletionDate: l.CompletionDate,
		Schedule:       l.Schedule,
	}
}
