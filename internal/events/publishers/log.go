package publishers

import (
	"context"
	"log/slog"

	"custody/internal/events/models"
)

// Log writes each notification as a structured log record. It is the default
// publisher when no broker is configured.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Publish(ctx context.Context, batch []*models.Envelope) error {
	for _, env := range batch {
		l.logger.InfoContext(ctx, "notification",
			"event_id", env.ID.String(),
			"seq", env.Seq,
			"type", string(env.Type),
			"key", env.Key,
			"occurred_at", env.OccurredAt,
			"payload", string(env.Payload),
		)
	}
	return nil
}
