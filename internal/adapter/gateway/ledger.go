package gateway

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"lendsmart-backend/internal/domain/fault"
	"lendsmart-backend/internal/domain/gateway"
	"lendsmart-backend/pkg/id"
)

var (
	_ gateway.Ledger = (*StubLedger)(nil)
	_ gateway.Ledger = (*BreakerLedger)(nil)
)

var ErrLedgerUnavailable = fault.New(fault.KindCollaborator, "ledger_unavailable")

// StubLedger mints a local contract ref without calling out. Used where no
// real contract system is configured.
type StubLedger struct{}

func NewStubLedger() *StubLedger { return &StubLedger{} }

func (s *StubLedger) Register(ctx context.Context, terms gateway.LoanTerms) (string, error) {
	return "LSC-" + id.NewID32(), nil
}

// BreakerLedger wraps a Ledger with a circuit breaker so a struggling
// contract system stops eating the funding path's time budget. Registration
// is already best-effort upstream, so a fast open-circuit failure is safe.
type BreakerLedger struct {
	inner gateway.Ledger
	cb    *gobreaker.CircuitBreaker
}

func NewBreakerLedger(inner gateway.Ledger) *BreakerLedger {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ledger",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
	})
	return &BreakerLedger{inner: inner, cb: cb}
}

func (b *BreakerLedger) Register(ctx context.Context, terms gateway.LoanTerms) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.Register(ctx, terms)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return "", ErrLedgerUnavailable.WithDetail("circuit open")
		}
		return "", err
	}
	return out.(string), nil
}
