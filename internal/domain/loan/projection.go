package loan

import "time"

// Read-only derived metrics for marketplace display. None of these mutate the
// aggregate.

// FundingProgress is amountFunded/amountRequested in percent.
func (l *Loan) FundingProgress() float64 {
	if l.AmountRequested <= 0 {
		return 0
	}
	return l.AmountFunded / l.AmountRequested * 100
}

// RepaymentProgress is paid installments over total installments in percent.
func (l *Loan) RepaymentProgress() float64 {
	if len(l.Schedule) == 0 {
		return 0
	}
	return float64(l.PaidInstallments()) / float64(len(l.Schedule)) * 100
}

// TimeRemaining is the time until maturity (fundingDate + term), floored at
// zero once matured. ok is false when the loan has no funding date yet.
func (l *Loan) TimeRemaining(now time.Time) (time.Duration, bool) {
	maturity, ok := l.MaturityDate()
	if !ok {
		return 0, false
	}
	d := maturity.Sub(now)
	if d < 0 {
		d = 0
	}
	return d, true
}

// StatusAt is the display status of an installment: unpaid and past due reads
// as overdue. Overdue is derived at read time and never persisted, so a late
// payment still lands against a pending or partially_paid installment.
func (i *Installment) StatusAt(now time.Time) InstallmentStatus {
	if i.Status != InstallmentPaid && !i.DueDate.IsZero() && now.After(i.DueDate) {
		return InstallmentOverdue
	}
	return i.Status
}

// OverdueInstallments counts installments past due and not fully paid.
func (l *Loan) OverdueInstallments(now time.Time) int {
	n := 0
	for i := range l.Schedule {
		if l.Schedule[i].StatusAt(now) == InstallmentOverdue {
			n++
		}
	}
	return n
}

// ExpectedReturn is the simple-interest marketplace estimate
// principal·(rate/100)·termYears. This is deliberately NOT the amortized
// interest total used for billing; the two models must not be confused.
func (l *Loan) ExpectedReturn() float64 {
	return Round2(l.AmountRequested * (l.RateAnnualPct / 100) * l.TermYearsApprox())
}
