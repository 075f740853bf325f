package loan

import "time"

// transitions is the authoritative status table. Statuses not listed are
// terminal. Any change outside this table must fail and leave the loan
// untouched.
var transitions = map[Status][]Status{
	StatusPending:   {StatusFunded, StatusCancelled, StatusRejected, StatusExpired},
	StatusFunded:    {StatusActive, StatusCancelled},
	StatusActive:    {StatusRepaid, StatusDefaulted},
	StatusDefaulted: {StatusRepaid},
}

func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves the status.
func Terminal(s Status) bool { return len(transitions[s]) == 0 }

// Transition validates the requested status change against the table and
// applies it together with its date side effects:
//
//	active    → stamp FundingDate if absent
//	repaid    → stamp CompletionDate
//	defaulted → stamp DefaultDate
//
// Schedule generation on activation is the caller's job (the schedule package
// would otherwise be a circular dependency); callers go through the usecases,
// which always fill an absent schedule before or upon activation.
func (l *Loan) Transition(to Status, now time.Time) error {
	if !CanTransition(l.Status, to) {
		return ErrInvalidTransition.WithLoan(l.LoanID).
			WithDetail("cannot transition %s -> %s", l.Status, to)
	}
	l.Status = to
	l.StatusUpdatedAt = now

	switch to {
	case StatusActive:
		if l.FundingDate == nil {
			t := now
			l.FundingDate = &t
		}
	case StatusRepaid:
		if l.CompletionDate == nil {
			t := now
			l.CompletionDate = &t
		}
	case StatusDefaulted:
		if l.DefaultDate == nil {
			t := now
			l.DefaultDate = &t
		}
	}
	return nil
}
