package gateway

import (
	"context"
	"hash/fnv"

	"lendsmart-backend/internal/domain/gateway"
)

var _ gateway.CreditBureau = (*StubBureau)(nil)

// StubBureau derives a stable pseudo-score from the user id, so local runs
// get deterministic, plausible scores without a bureau account.
type StubBureau struct{}

func NewStubBureau() *StubBureau { return &StubBureau{} }

func (s *StubBureau) Score(ctx context.Context, userID string) (int, error) {
	h := fnv.New32a()
	h.Write([]byte(userID))
	// map into [550, 800)
	return 550 + int(h.Sum32()%250), nil
}
