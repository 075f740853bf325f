package gateway

import (
	"context"

	"github.com/rs/zerolog"

	"lendsmart-backend/internal/domain/gateway"
)

var _ gateway.Notifier = (*LogNotifier)(nil)

// LogNotifier writes deliveries to the log instead of a real channel. Used in
// local and test deployments where no push provider is configured.
type LogNotifier struct{ log zerolog.Logger }

func NewLogNotifier(log zerolog.Logger) *LogNotifier { return &LogNotifier{log: log} }

func (n *LogNotifier) Send(ctx context.Context, userID, title, body string) error {
	n.log.Info().
		Str("user_id", userID).
		Str("title", title).
		Str("body", body).
		Msg("notification")
	return nil
}
