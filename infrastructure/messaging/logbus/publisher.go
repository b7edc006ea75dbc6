// Package logbus publishes domain events to the application log. It is the
// event bus for local and CLI runs.
package logbus

import (
	"context"

	"ideapardaz/application/ports"
	"ideapardaz/domain/events"

	"go.uber.org/zap"
)

// Publisher writes one log line per event
type Publisher struct {
	logger *zap.Logger
}

var _ ports.EventPublisher = (*Publisher)(nil)

// NewPublisher creates a log publisher. A nil logger discards events.
func NewPublisher(logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{logger: logger.Named("events")}
}

// Publish never fails
func (p *Publisher) Publish(_ context.Context, domainEvents ...events.DomainEvent) error {
	for _, e := range domainEvents {
		p.logger.Info("Domain event",
			zap.String("eventType", e.GetEventType()),
			zap.String("aggregateID", e.GetAggregateID()),
			zap.String("userID", e.GetUserID()),
			zap.Time("timestamp", e.GetTimestamp()),
		)
	}
	return nil
}
