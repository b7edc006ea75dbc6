package ports

import (
	"context"

	"ideapardaz/domain/events"
)

// EventPublisher delivers committed domain events to interested parties
type EventPublisher interface {
	Publish(ctx context.Context, events ...events.DomainEvent) error
}
