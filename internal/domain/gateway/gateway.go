package gateway

import (
	"context"
	"time"

	"lendsmart-backend/internal/domain/loan"
)

// Collaborator capability interfaces. The engine depends on these shapes
// only; stub and vendor implementations are interchangeable.

// Notifier delivers a user-facing message. Callers treat delivery as
// fire-and-forget: a Send failure is logged and never surfaced.
type Notifier interface {
	Send(ctx context.Context, userID, title, body string) error
}

// LoanTerms is the slice of the aggregate handed to the external ledger.
type LoanTerms struct {
	LoanID        string
	BorrowerID    string
	LenderID      string
	Principal     float64
	RateAnnualPct float64
	TermValue     int
	TermUnit      loan.TermUnit
	DueDate       time.Time
}

// Ledger registers funded loan terms with an external contract system. A
// failure is tolerated; the loan stays valid without a contract ref.
type Ledger interface {
	Register(ctx context.Context, terms LoanTerms) (contractRef string, err error)
}

// CreditBureau is the external scoring source. When it fails, applications
// fall back to the in-process heuristic, and ultimately proceed unscored.
type CreditBureau interface {
	Score(ctx context.Context, userID string) (int, error)
}
