package notify

import (
	"context"
	"log/slog"

	"gearshare/internal/app/policies"
)

// LogNotifier satisfies the notifier port by logging the notice. Deployments
// with a push/email gateway swap in a real implementation.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, userID string, kind string, payload map[string]string) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("user notification", "user_id", userID, "kind", kind, "payload", payload)
	return nil
}

var _ policies.NotifierPort = LogNotifier{}
