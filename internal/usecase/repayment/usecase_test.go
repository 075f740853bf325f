package repayment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"lendsmart-backend/internal/domain/loan"
	"lendsmart-backend/internal/domain/schedule"
	"lendsmart-backend/internal/domain/user"
	"lendsmart-backend/internal/testutil/gatewaymock"
	"lendsmart-backend/internal/testutil/memuow"
)

const (
	borrowerID = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	lenderID   = "1111111111111111111111111111111a"
	loanID     = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
)

// activeLoan seeds an active loan with a freshly built schedule.
func activeLoan(t *testing.T, principal, ratePct float64, termValue int, unit loan.TermUnit) *memuow.Store {
	t.Helper()
	funded := time.Now().UTC().AddDate(0, -1, 0)
	sched, err := schedule.Build(principal, ratePct, termValue, unit, funded)
	if err != nil {
		t.Fatalf("build schedule: %v", err)
	}
	s := memuow.New()
	s.SeedLoan(&loan.Loan{
		LoanID:          loanID,
		BorrowerID:      borrowerID,
		LenderID:        lenderID,
		AmountRequested: principal,
		AmountFunded:    principal,
		RateAnnualPct:   ratePct,
		TermValue:       termValue,
		TermUnit:        unit,
		Status:          loan.StatusActive,
		FundingDate:     &funded,
		Schedule:        sched,
	})
	s.SeedUser(&user.User{UserID: borrowerID, Role: user.RoleBorrower, KYCStatus: user.KYCVerified})
	s.SeedUser(&user.User{UserID: lenderID, Role: user.RoleLender, KYCStatus: user.KYCVerified})
	return s
}

func newUsecase(s *memuow.Store) (*Usecase, *gatewaymock.Notifier) {
	notifier := &gatewaymock.Notifier{}
	return NewUsecase(s, notifier, zerolog.Nop()), notifier
}

// A short payment marks the installment partially paid; topping it up to the
// full amount due settles it.
func TestRecord_PartialThenFullPayment(t *testing.T) {
	s := activeLoan(t, 1200, 12, 12, loan.TermMonths)
	uc, _ := newUsecase(s)
	ctx := context.Background()

	dto, err := uc.Record(ctx, RecordInput{LoanID: loanID, InstallmentNumber: 1, Amount: 50})
	if err != nil {
		t.Fatalf("partial payment: %v", err)
	}
	first := dto.Schedule[0]
	if first.Status != loan.InstallmentPartiallyPaid {
		t.Fatalf("status = %s, want partially_paid", first.Status)
	}
	if first.AmountPaid != 50 {
		t.Fatalf("amount paid = %v, want 50", first.AmountPaid)
	}
	if first.PaymentDate == nil {
		t.Fatal("payment date not stamped")
	}

	remainder := loan.Round2(first.AmountDue - 50)
	dto, err = uc.Record(ctx, RecordInput{LoanID: loanID, InstallmentNumber: 1, Amount: remainder, TransactionRef: "tx-0001"})
	if err != nil {
		t.Fatalf("settling payment: %v", err)
	}
	first = dto.Schedule[0]
	if first.Status != loan.InstallmentPaid {
		t.Fatalf("status = %s, want paid", first.Status)
	}
	if first.AmountPaid != first.AmountDue {
		t.Fatalf("amount paid = %v, want %v", first.AmountPaid, first.AmountDue)
	}
	if first.TransactionRef != "tx-0001" {
		t.Fatalf("transaction ref = %q", first.TransactionRef)
	}
	if dto.Status != string(loan.StatusActive) {
		t.Fatalf("loan status = %s, want still active", dto.Status)
	}
}

// Paying a settled installment again is rejected and changes nothing.
func TestRecord_AlreadyPaidInstallmentRejected(t *testing.T) {
	s := activeLoan(t, 1200, 12, 12, loan.TermMonths)
	uc, _ := newUsecase(s)
	ctx := context.Background()

	before, _ := s.Loan(loanID)
	due := before.Schedule[0].AmountDue
	if _, err := uc.Record(ctx, RecordInput{LoanID: loanID, InstallmentNumber: 1, Amount: due}); err != nil {
		t.Fatalf("first payment: %v", err)
	}
	settled, _ := s.Loan(loanID)

	_, err := uc.Record(ctx, RecordInput{LoanID: loanID, InstallmentNumber: 1, Amount: due})
	if !errors.Is(err, loan.ErrInstallmentAlreadyPaid) {
		t.Fatalf("want ErrInstallmentAlreadyPaid, got %v", err)
	}
	after, _ := s.Loan(loanID)
	if after.Schedule[0].AmountPaid != settled.Schedule[0].AmountPaid {
		t.Fatalf("duplicate payment double-counted: %v then %v",
			settled.Schedule[0].AmountPaid, after.Schedule[0].AmountPaid)
	}
}

// Settling every installment completes the loan exactly once.
func TestRecord_FullRepaymentCompletesLoan(t *testing.T) {
	s := activeLoan(t, 600, 10, 3, loan.TermMonths)
	uc, notifier := newUsecase(s)
	ctx := context.Background()

	seeded, _ := s.Loan(loanID)
	var dto *LoanDTO
	var err error
	for _, inst := range seeded.Schedule {
		dto, err = uc.Record(ctx, RecordInput{LoanID: loanID, InstallmentNumber: inst.Number, Amount: inst.AmountDue})
		if err != nil {
			t.Fatalf("installment %d: %v", inst.Number, err)
		}
	}
	if dto.Status != string(loan.StatusRepaid) {
		t.Fatalf("status = %s, want repaid", dto.Status)
	}
	if dto.CompletionDate == nil {
		t.Fatal("completion date not stamped")
	}

	uc.Flush()
	var fullyRepaid int
	for _, d := range notifier.Sent() {
		if d.Title == "Loan fully repaid" {
			fullyRepaid++
		}
	}
	if fullyRepaid != 2 {
		t.Fatalf("fully-repaid notifications = %d, want borrower and lender", fullyRepaid)
	}
}

// A funded loan that somehow settles before activation passes through active
// on its way to repaid.
func TestRecord_FundedLoanSettlesThroughActive(t *testing.T) {
	s := activeLoan(t, 600, 10, 1, loan.TermMonths)
	seeded, _ := s.Loan(loanID)
	seeded.Status = loan.StatusFunded
	s.SeedLoan(seeded)
	uc, _ := newUsecase(s)

	dto, err := uc.Record(context.Background(), RecordInput{
		LoanID: loanID, InstallmentNumber: 1, Amount: seeded.Schedule[0].AmountDue,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if dto.Status != string(loan.StatusRepaid) {
		t.Fatalf("status = %s, want repaid", dto.Status)
	}
}

func TestRecord_NotRepayableStatuses(t *testing.T) {
	for _, status := range []loan.Status{loan.StatusPending, loan.StatusRepaid, loan.StatusCancelled} {
		s := activeLoan(t, 1200, 12, 12, loan.TermMonths)
		seeded, _ := s.Loan(loanID)
		seeded.Status = status
		s.SeedLoan(seeded)
		uc, _ := newUsecase(s)

		_, err := uc.Record(context.Background(), RecordInput{LoanID: loanID, InstallmentNumber: 1, Amount: 100})
		if !errors.Is(err, loan.ErrNotRepayable) {
			t.Errorf("status %s: want ErrNotRepayable, got %v", status, err)
		}
	}
}

func TestRecord_NoSchedule(t *testing.T) {
	s := memuow.New()
	s.SeedLoan(&loan.Loan{LoanID: loanID, BorrowerID: borrowerID, Status: loan.StatusActive})
	uc, _ := newUsecase(s)

	_, err := uc.Record(context.Background(), RecordInput{LoanID: loanID, InstallmentNumber: 1, Amount: 100})
	if !errors.Is(err, loan.ErrNoSchedule) {
		t.Fatalf("want ErrNoSchedule, got %v", err)
	}
}

func TestRecord_InstallmentNotFound(t *testing.T) {
	s := activeLoan(t, 1200, 12, 12, loan.TermMonths)
	uc, _ := newUsecase(s)

	for _, n := range []int{0, 13, -1} {
		_, err := uc.Record(context.Background(), RecordInput{LoanID: loanID, InstallmentNumber: n, Amount: 100})
		if !errors.Is(err, loan.ErrInstallmentNotFound) {
			t.Errorf("installment %d: want ErrInstallmentNotFound, got %v", n, err)
		}
	}
}

func TestRecord_InvalidAmount(t *testing.T) {
	s := activeLoan(t, 1200, 12, 12, loan.TermMonths)
	uc, _ := newUsecase(s)

	_, err := uc.Record(context.Background(), RecordInput{LoanID: loanID, InstallmentNumber: 1, Amount: 0})
	if !errors.Is(err, loan.ErrInvalidAmount) {
		t.Fatalf("want ErrInvalidAmount, got %v", err)
	}
}

func TestRecord_LoanNotFound(t *testing.T) {
	uc, _ := newUsecase(memuow.New())

	_, err := uc.Record(context.Background(), RecordInput{LoanID: "ffffffffffffffffffffffffffffffff", InstallmentNumber: 1, Amount: 100})
	if !errors.Is(err, loan.ErrNotFound) {
		t.Fatalf("want loan.ErrNotFound, got %v", err)
	}
}

// An explicit payment date is honored instead of the clock.
func TestRecord_ExplicitPaymentDate(t *testing.T) {
	s := activeLoan(t, 1200, 12, 12, loan.TermMonths)
	uc, _ := newUsecase(s)
	when := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	dto, err := uc.Record(context.Background(), RecordInput{
		LoanID: loanID, InstallmentNumber: 2, Amount: 40, PaymentDate: &when,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	got := dto.Schedule[1].PaymentDate
	if got == nil || !got.Equal(when) {
		t.Fatalf("payment date = %v, want %v", got, when)
	}
}
