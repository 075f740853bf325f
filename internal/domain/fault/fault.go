// Package fault carries the error taxonomy shared by every layer. Errors are
// classified by Kind for transport mapping and identified by Code for
// errors.Is matching, so a contextualized copy still matches its sentinel.
package fault

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation          Kind = "validation"
	KindNotFound            Kind = "not_found"
	KindStateConflict       Kind = "state_conflict"
	KindConcurrencyConflict Kind = "concurrency_conflict"
	KindCollaborator        Kind = "collaborator"
)

type Error struct {
	Kind   Kind
	Code   string
	LoanID string
	UserID string
	Detail string
}

func New(kind Kind, code string) *Error {
	return &Error{Kind: kind, Code: code}
}

func (e *Error) Error() string {
	msg := e.Code
	if e.LoanID != "" {
		msg += fmt.Sprintf(" loan=%s", e.LoanID)
	}
	if e.UserID != "" {
		msg += fmt.Sprintf(" user=%s", e.UserID)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Is matches by Code only, so sentinel comparisons survive WithLoan/WithUser/
// WithDetail copies.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithLoan returns a copy annotated with the loan id.
func (e *Error) WithLoan(loanID string) *Error {
	c := *e
	c.LoanID = loanID
	return &c
}

// WithUser returns a copy annotated with the user id.
func (e *Error) WithUser(userID string) *Error {
	c := *e
	c.UserID = userID
	return &c
}

// WithDetail returns a copy with a formatted detail message.
func (e *Error) WithDetail(format string, args ...any) *Error {
	c := *e
	c.Detail = fmt.Sprintf(format, args...)
	return &c
}

// KindOf extracts the Kind from an error chain; unknown errors report
// KindCollaborator so transport maps them to a 5xx.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindCollaborator
}
