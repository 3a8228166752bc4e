package notify

import (
	"context"
	"log/slog"
)

// LogTransport implements Transport by logging notifications. It is used
// when no delivery backend is configured.
type LogTransport struct {
	log *slog.Logger
}

// NewLogTransport creates a transport that writes notifications to log.
func NewLogTransport(log *slog.Logger) *LogTransport {
	return &LogTransport{log: log}
}

// Name returns the transport name.
func (*LogTransport) Name() string { return "log" }

// Send logs n and reports success.
func (l *LogTransport) Send(_ context.Context, n *Notification) error {
	l.log.Info("notification (no backend configured)",
		"intent_id", n.IntentID,
		"kind", n.Kind,
		"user", n.UserRef,
		"title", n.Title,
	)
	return nil
}
