package schedule

import (
	"math"
	"time"

	"lendsmart-backend/internal/domain/fault"
	"lendsmart-backend/internal/domain/loan"
)

// Level-payment amortization. Pure and deterministic: safe to call without
// synchronization.

var (
	ErrInvalidPrincipal = fault.New(fault.KindValidation, "invalid_principal")
	ErrInvalidRate      = fault.New(fault.KindValidation, "invalid_rate")
	ErrInvalidTerm      = fault.New(fault.KindValidation, "invalid_term")
)

const (
	daysPerMonth  = 30.0
	weeksPerMonth = 4.33
)

// Installments converts a term to the number of monthly installments.
// Day/week conversions are approximate (30 days, 4.33 weeks per month) and
// can land on a fraction; fractional counts round UP so the schedule always
// covers at least the requested horizon. Minimum one installment.
func Installments(term int, unit loan.TermUnit) int {
	var months float64
	switch unit {
	case loan.TermDays:
		months = float64(term) / daysPerMonth
	case loan.TermWeeks:
		months = float64(term) / weeksPerMonth
	case loan.TermMonths:
		months = float64(term)
	case loan.TermYears:
		months = float64(term) * 12
	default:
		return 0
	}
	// Small epsilon keeps exact counts (e.g. 12 months) from ceiling up on
	// float noise.
	n := int(math.Ceil(months - 1e-9))
	if n < 1 {
		n = 1
	}
	return n
}

// Payment is the level monthly payment for principal p at annual rate
// (percent) over n monthly installments.
func Payment(principal, annualRatePct float64, n int) float64 {
	r := annualRatePct / 100 / 12
	if r == 0 {
		return principal / float64(n)
	}
	pow := math.Pow(1+r, float64(n))
	return principal * r * pow / (pow - 1)
}

// Build produces the full repayment schedule: n pending installments with
// declining interest and rising principal components, due dates advancing one
// month per installment from start. Amounts are rounded to cents; the final
// installment absorbs the rounding residue so the principal components sum
// exactly to the requested principal.
func Build(principal, annualRatePct float64, term int, unit loan.TermUnit, start time.Time) ([]loan.Installment, error) {
	if principal <= 0 {
		return nil, ErrInvalidPrincipal.WithDetail("principal must be > 0, got %v", principal)
	}
	if annualRatePct < 0 {
		return nil, ErrInvalidRate.WithDetail("annual rate must be >= 0, got %v", annualRatePct)
	}
	if term <= 0 || !loan.ValidTermUnit(unit) {
		return nil, ErrInvalidTerm.WithDetail("term=%d unit=%q", term, unit)
	}

	n := Installments(term, unit)
	monthlyRate := annualRatePct / 100 / 12
	payment := Payment(principal, annualRatePct, n)

	out := make([]loan.Installment, 0, n)
	remaining := principal
	allocated := 0.0
	for i := 1; i <= n; i++ {
		interest := loan.Round2(remaining * monthlyRate)
		principalPart := loan.Round2(payment - interest)
		if i == n {
			// absorb rounding residue
			principalPart = loan.Round2(principal - allocated)
		}
		out = append(out, loan.Installment{
			Number:    i,
			DueDate:   start.AddDate(0, i, 0),
			AmountDue: loan.Round2(principalPart + interest),
			Principal: principalPart,
			Interest:  interest,
			Status:    loan.InstallmentPending,
		})
		allocated = loan.Round2(allocated + principalPart)
		remaining = loan.Round2(remaining - principalPart)
	}
	return out, nil
}
