package loan

import "lendsmart-backend/internal/domain/fault"

// Sentinel errors for the loan aggregate. Use errors.Is against these;
// contextualized copies (WithLoan/WithDetail) still match.
var (
	ErrNotFound = fault.New(fault.KindNotFound, "loan_not_found")

	ErrNotFundable        = fault.New(fault.KindStateConflict, "loan_not_fundable")
	ErrSelfLending        = fault.New(fault.KindValidation, "self_lending_forbidden")
	ErrInvalidAmount      = fault.New(fault.KindValidation, "invalid_amount")
	ErrExceedsRemaining   = fault.New(fault.KindStateConflict, "amount_exceeds_remaining")
	ErrInvalidTransition  = fault.New(fault.KindStateConflict, "invalid_transition")
	ErrConcurrentConflict = fault.New(fault.KindConcurrencyConflict, "concurrent_update")

	ErrNotRepayable            = fault.New(fault.KindStateConflict, "loan_not_repayable")
	ErrNoSchedule              = fault.New(fault.KindStateConflict, "no_repayment_schedule")
	ErrInstallmentNotFound     = fault.New(fault.KindNotFound, "installment_not_found")
	ErrInstallmentAlreadyPaid  = fault.New(fault.KindStateConflict, "installment_already_paid")
	ErrInstallmentsOutstanding = fault.New(fault.KindStateConflict, "installments_outstanding")

	ErrPendingExists = fault.New(fault.KindStateConflict, "pending_loan_exists")
)
