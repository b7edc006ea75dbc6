package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"ideapardaz/application/ports"
	"ideapardaz/domain/events"
	"ideapardaz/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"
)

// Source identifies this service on the bus
const Source = "ideapardaz.store"

// maxEntries is the PutEvents limit per call
const maxEntries = 10

// Client is the subset of the EventBridge API the publisher uses
type Client interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

var _ Client = (*eventbridge.Client)(nil)

// Publisher implements ports.EventPublisher on AWS EventBridge
type Publisher struct {
	client       Client
	eventBusName string
	metrics      *observability.Collector
	logger       *zap.Logger
}

var _ ports.EventPublisher = (*Publisher)(nil)

// NewPublisher creates a new EventBridge publisher. metrics may be nil.
func NewPublisher(client Client, eventBusName string, metrics *observability.Collector, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		client:       client,
		eventBusName: eventBusName,
		metrics:      metrics,
		logger:       logger,
	}
}

// Publish sends events in batches of ten. Every batch is attempted; the
// first failure is returned.
func (p *Publisher) Publish(ctx context.Context, domainEvents ...events.DomainEvent) error {
	var firstErr error
	for i := 0; i < len(domainEvents); i += maxEntries {
		end := i + maxEntries
		if end > len(domainEvents) {
			end = len(domainEvents)
		}
		if err := p.publishBatch(ctx, domainEvents[i:end]); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (p *Publisher) publishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	entries := make([]types.PutEventsRequestEntry, 0, len(domainEvents))
	sent := make([]events.DomainEvent, 0, len(domainEvents))

	for _, event := range domainEvents {
		eventData, err := json.Marshal(event)
		if err != nil {
			p.logger.Error("Failed to marshal event",
				zap.Error(err),
				zap.String("eventType", event.GetEventType()),
			)
			p.count(event.GetEventType(), err)
			continue
		}

		entries = append(entries, types.PutEventsRequestEntry{
			EventBusName: aws.String(p.eventBusName),
			Source:       aws.String(Source),
			DetailType:   aws.String(event.GetEventType()),
			Detail:       aws.String(string(eventData)),
			Time:         aws.Time(event.GetTimestamp()),
			Resources: []string{
				fmt.Sprintf("ideapardaz:user/%s/%s", event.GetUserID(), event.GetAggregateID()),
			},
		})
		sent = append(sent, event)
	}
	if len(entries) == 0 {
		return nil
	}

	result, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{Entries: entries})
	if err != nil {
		for _, event := range sent {
			p.count(event.GetEventType(), err)
		}
		return fmt.Errorf("failed to publish events to EventBridge: %w", err)
	}

	for i, event := range sent {
		var entryErr error
		if i < len(result.Entries) && result.Entries[i].ErrorCode != nil {
			entry := result.Entries[i]
			entryErr = fmt.Errorf("%s: %s", aws.ToString(entry.ErrorCode), aws.ToString(entry.ErrorMessage))
			p.logger.Error("Failed to publish event",
				zap.String("eventType", event.GetEventType()),
				zap.String("errorCode", aws.ToString(entry.ErrorCode)),
				zap.String("errorMessage", aws.ToString(entry.ErrorMessage)),
			)
		}
		p.count(event.GetEventType(), entryErr)
	}
	if result.FailedEntryCount > 0 {
		return fmt.Errorf("%d events failed to publish", result.FailedEntryCount)
	}

	p.logger.Debug("Events published to EventBridge",
		zap.Int("count", len(entries)),
		zap.String("eventBus", p.eventBusName),
	)
	return nil
}

func (p *Publisher) count(eventType string, err error) {
	if p.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	p.metrics.EventsPublished.WithLabelValues(eventType, status).Inc()
}
