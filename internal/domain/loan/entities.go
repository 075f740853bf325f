package loan

import (
	"math"
	"time"

	"gorm.io/gorm"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusFunded    Status = "funded"
	StatusActive    Status = "active"
	StatusRepaid    Status = "repaid"
	StatusDefaulted Status = "defaulted"
	StatusCancelled Status = "cancelled"
	StatusRejected  Status = "rejected"
	StatusExpired   Status = "expired"
)

type TermUnit string

const (
	TermDays   TermUnit = "days"
	TermWeeks  TermUnit = "weeks"
	TermMonths TermUnit = "months"
	TermYears  TermUnit = "years"
)

func ValidTermUnit(u TermUnit) bool {
	switch u {
	case TermDays, TermWeeks, TermMonths, TermYears:
		return true
	}
	return false
}

type InstallmentStatus string

const (
	InstallmentPending       InstallmentStatus = "pending"
	InstallmentPartiallyPaid InstallmentStatus = "partially_paid"
	InstallmentPaid          InstallmentStatus = "paid"
	InstallmentOverdue       InstallmentStatus = "overdue"
)

// Installment is one scheduled repayment unit. The schedule lives embedded in
// the loan row so loan + installments always commit as one aggregate.
type Installment struct {
	Number         int               `json:"installment_number"`
	DueDate        time.Time         `json:"due_date"`
	AmountDue      float64           `json:"amount_due"`
	Principal      float64           `json:"principal_component"`
	Interest       float64           `json:"interest_component"`
	AmountPaid     float64           `json:"amount_paid"`
	Status         InstallmentStatus `json:"status"`
	PaymentDate    *time.Time        `json:"payment_date,omitempty"`
	TransactionRef string            `json:"transaction_ref,omitempty"`
}

// Contribution records one partial funding. The single LenderID field keeps
// the last contributor; the list keeps the full history.
type Contribution struct {
	LenderID string    `json:"lender_id"`
	Amount   float64   `json:"amount"`
	At       time.Time `json:"at"`
}

type Loan struct {
	ID         uint64 `gorm:"primaryKey;column:id" json:"-"`
	LoanID     string `gorm:"size:32;uniqueIndex:ux_loans_loan_id_active" json:"loan_id"`
	BorrowerID string `gorm:"size:32;index:idx_loans_borrower_active" json:"borrower_id"`
	// Last contributor wins; see Contributions for the full history.
	LenderID        string  `gorm:"size:32;index" json:"lender_id,omitempty"`
	AmountRequested float64 `gorm:"type:decimal(18,2)" json:"amount_requested"`
	AmountFunded    float64 `gorm:"type:decimal(18,2)" json:"amount_funded"`
	// Annual interest rate in percent (12 means 12% p.a.).
	RateAnnualPct float64  `gorm:"type:decimal(6,3);column:rate_annual_pct" json:"rate_annual_pct"`
	TermValue     int      `gorm:"column:term_value" json:"term_value"`
	TermUnit      TermUnit `gorm:"type:varchar(8);column:term_unit" json:"term_unit"`
	Purpose       string   `gorm:"type:text" json:"purpose"`
	Status        Status   `gorm:"type:varchar(16);default:'pending'" json:"status"`

	CreditScore *int   `gorm:"column:credit_score" json:"credit_score,omitempty"`
	RiskLevel   string `gorm:"size:8" json:"risk_level,omitempty"`

	Schedule            []Installment  `gorm:"column:schedule;serializer:json" json:"repayment_schedule,omitempty"`
	Contributions       []Contribution `gorm:"column:contributions;serializer:json" json:"contributions,omitempty"`
	ExternalContractRef string         `gorm:"size:128" json:"external_contract_ref,omitempty"`

	ApplicationDate time.Time  `gorm:"column:application_date" json:"application_date"`
	FundingDate     *time.Time `gorm:"column:funding_date" json:"funding_date,omitempty"`
	DueDate         *time.Time `gorm:"column:due_date" json:"due_date,omitempty"`
	CompletionDate  *time.Time `gorm:"column:completion_date" json:"completion_date,omitempty"`
	DefaultDate     *time.Time `gorm:"column:default_date" json:"default_date,omitempty"`

	StatusUpdatedAt time.Time      `gorm:"autoCreateTime" json:"status_updated_at"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
	DeletedBy       string         `gorm:"size:32" json:"-"`
}

func (Loan) TableName() string { return "loans" }

// Round2 rounds a money amount to cents.
func Round2(x float64) float64 { return math.Round(x*100) / 100 }

// amountEpsilon absorbs float64 noise when comparing money amounts.
const amountEpsilon = 1e-9

// Remaining is the unfunded balance.
func (l *Loan) Remaining() float64 { return Round2(l.AmountRequested - l.AmountFunded) }

func (l *Loan) FullyFunded() bool {
	return l.AmountFunded >= l.AmountRequested-amountEpsilon
}

// FindInstallment returns the installment with the given number, or nil.
func (l *Loan) FindInstallment(number int) *Installment {
	for i := range l.Schedule {
		if l.Schedule[i].Number == number {
			return &l.Schedule[i]
		}
	}
	return nil
}

func (l *Loan) PaidInstallments() int {
	n := 0
	for i := range l.Schedule {
		if l.Schedule[i].Status == InstallmentPaid {
			n++
		}
	}
	return n
}

// AllInstallmentsPaid reports whether the schedule exists and every
// installment has been settled.
func (l *Loan) AllInstallmentsPaid() bool {
	if len(l.Schedule) == 0 {
		return false
	}
	return l.PaidInstallments() == len(l.Schedule)
}

// MaturityDate is the funding date advanced by the loan term.
func (l *Loan) MaturityDate() (time.Time, bool) {
	if l.FundingDate == nil {
		return time.Time{}, false
	}
	start := *l.FundingDate
	switch l.TermUnit {
	case TermDays:
		return start.AddDate(0, 0, l.TermValue), true
	case TermWeeks:
		return start.AddDate(0, 0, 7*l.TermValue), true
	case TermMonths:
		return start.AddDate(0, l.TermValue, 0), true
	case TermYears:
		return start.AddDate(l.TermValue, 0, 0), true
	}
	return time.Time{}, false
}

// TermYearsApprox converts the term to years for the simple-interest display
// estimate (days/365, weeks/52).
func (l *Loan) TermYearsApprox() float64 {
	switch l.TermUnit {
	case TermDays:
		return float64(l.TermValue) / 365
	case TermWeeks:
		return float64(l.TermValue) / 52
	case TermMonths:
		return float64(l.TermValue) / 12
	case TermYears:
		return float64(l.TermValue)
	}
	return 0
}
