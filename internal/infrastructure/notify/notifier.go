package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/iho/pairpoints/internal/usecase"
)

// Delivery timeout for one notification attempt. Detached from the caller's
// context so a torn-down caller never cancels delivery mid-flight.
const deliveryTimeout = 5 * time.Second

// Notifier delivers notifications to accounts over the change stream and the
// process log. Fire-and-forget: a failed delivery is logged and dropped,
// never surfaced to the originating operation.
type Notifier struct {
	publisher usecase.Publisher
	logger    *slog.Logger
}

// New creates a Notifier. publisher may be nil, in which case notifications
// are only logged.
func New(publisher usecase.Publisher, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}

	return &Notifier{
		publisher: publisher,
		logger:    logger,
	}
}

// Notify dispatches one notification asynchronously. Never blocks the caller
// and never fails it.
func (n *Notifier) Notify(ctx context.Context, accountID, kind string, payload any) {
	go n.deliver(accountID, kind, payload)
}

func (n *Notifier) deliver(accountID, kind string, payload any) {
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error("notification payload marshal failed",
			slog.String("account_id", accountID),
			slog.String("kind", kind),
			slog.String("error", err.Error()))
		return
	}

	n.logger.Info("notification dispatched",
		slog.String("account_id", accountID),
		slog.String("kind", kind),
		slog.String("payload", string(body)))

	if n.publisher == nil {
		return
	}

	envelope := map[string]any{
		"kind":    kind,
		"payload": payload,
	}
	if err := n.publisher.Publish(ctx, "notifications/"+accountID, envelope); err != nil {
		n.logger.Warn("notification publish failed",
			slog.String("account_id", accountID),
			slog.String("kind", kind),
			slog.String("error", err.Error()))
	}
}
