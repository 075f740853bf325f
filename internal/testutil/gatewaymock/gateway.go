package gatewaymock

import (
	"context"
	"sync"

	"lendsmart-backend/internal/domain/gateway"
)

var (
	_ gateway.Notifier     = (*Notifier)(nil)
	_ gateway.Ledger       = (*Ledger)(nil)
	_ gateway.CreditBureau = (*Bureau)(nil)
)

// Notifier records every delivery and optionally fails via SendFn.
type Notifier struct {
	mu     sync.Mutex
	sent   []Sent
	SendFn func(ctx context.Context, userID, title, body string) error
}

type Sent struct{ UserID, Title, Body string }

func (m *Notifier) Send(ctx context.Context, userID, title, body string) error {
	if m.SendFn != nil {
		if err := m.SendFn(ctx, userID, title, body); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, Sent{UserID: userID, Title: title, Body: body})
	return nil
}

// Sent returns a snapshot of successful deliveries.
func (m *Notifier) Sent() []Sent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Sent, len(m.sent))
	copy(out, m.sent)
	return out
}

// Ledger counts Register calls; RegisterFn controls the outcome.
type Ledger struct {
	mu         sync.Mutex
	calls      int
	RegisterFn func(ctx context.Context, terms gateway.LoanTerms) (string, error)
}

func (m *Ledger) Register(ctx context.Context, terms gateway.LoanTerms) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.RegisterFn != nil {
		return m.RegisterFn(ctx, terms)
	}
	return "contract-" + terms.LoanID, nil
}

func (m *Ledger) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Bureau is a function-backed credit bureau mock.
type Bureau struct {
	ScoreFn func(ctx context.Context, userID string) (int, error)
}

func (m *Bureau) Score(ctx context.Context, userID string) (int, error) {
	if m.ScoreFn != nil {
		return m.ScoreFn(ctx, userID)
	}
	return 0, context.Canceled
}
