// Package logsink writes audit events to a structured logger. It is the
// sink used when no Kafka brokers are configured.
package logsink

import (
	"context"
	"log/slog"

	audit "clearledger/pkg/platform/audit"
)

type Store struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Store {
	return &Store{logger: logger.With("component", "audit")}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	s.logger.InfoContext(ctx, "audit event",
		"event_id", event.ID,
		"action", event.Action,
		"timestamp", event.Timestamp,
		"user_id", event.UserID,
		"username", event.Username,
		"subject", event.Subject,
		"reason", event.Reason,
		"request_id", event.RequestID,
		"client_ip", event.ClientIP,
	)
	return nil
}
