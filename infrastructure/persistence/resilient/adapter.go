// Package resilient decorates a persistence adapter with retries, a circuit
// breaker, metrics and tracing.
package resilient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ideapardaz/application/ports"
	pkgerrors "ideapardaz/pkg/errors"
	"ideapardaz/pkg/observability"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Options configures the decorator
type Options struct {
	// Backend labels metrics, spans and the breaker
	Backend string

	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration

	// Retryable reports whether a failed call may be repeated unchanged.
	// Nil retries nothing.
	Retryable func(error) bool
	// IsFailure reports whether an error counts against the breaker.
	// Nil counts every error except cancellation and revision conflicts.
	IsFailure func(error) bool

	Breaker BreakerConfig

	Metrics *observability.Collector
	Logger  *zap.Logger
}

// BreakerConfig holds configuration for the circuit breaker
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns the breaker settings used when none are given
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          15 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

func (o Options) withDefaults() Options {
	if o.Backend == "" {
		o.Backend = "unknown"
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.InitialInterval <= 0 {
		o.InitialInterval = 50 * time.Millisecond
	}
	if o.MaxInterval <= 0 {
		o.MaxInterval = time.Second
	}
	if o.Retryable == nil {
		o.Retryable = func(error) bool { return false }
	}
	if o.IsFailure == nil {
		o.IsFailure = func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, ports.ErrRevisionConflict)
		}
	}
	if o.Breaker == (BreakerConfig{}) {
		o.Breaker = DefaultBreakerConfig()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Factory wraps every adapter of an underlying factory. All users of one
// backend share a breaker.
type Factory struct {
	next    ports.AdapterFactory
	opts    Options
	breaker *gobreaker.CircuitBreaker
}

var _ ports.AdapterFactory = (*Factory)(nil)

// NewFactory creates a decorating factory
func NewFactory(next ports.AdapterFactory, opts Options) *Factory {
	opts = opts.withDefaults()
	return &Factory{next: next, opts: opts, breaker: newBreaker(opts)}
}

// ForUser implements ports.AdapterFactory
func (f *Factory) ForUser(ctx context.Context, userID string) (ports.PersistenceAdapter, error) {
	inner, err := f.next.ForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Adapter{next: inner, opts: f.opts, breaker: f.breaker}, nil
}

// Adapter is a PersistenceAdapter that guards another one
type Adapter struct {
	next    ports.PersistenceAdapter
	opts    Options
	breaker *gobreaker.CircuitBreaker
}

var (
	_ ports.PersistenceAdapter = (*Adapter)(nil)
	_ ports.Subscriber         = (*Adapter)(nil)
)

// Wrap decorates a single adapter with its own breaker
func Wrap(next ports.PersistenceAdapter, opts Options) *Adapter {
	opts = opts.withDefaults()
	return &Adapter{next: next, opts: opts, breaker: newBreaker(opts)}
}

func newBreaker(opts Options) *gobreaker.CircuitBreaker {
	cfg := opts.Breaker
	logger := opts.Logger
	metrics := opts.Metrics
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        opts.Backend,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("backend", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			if metrics != nil {
				metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			}
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !opts.IsFailure(err)
		},
	})
}

// Load reads the durable state. Reads are always safe to repeat.
func (a *Adapter) Load(ctx context.Context) (ports.Snapshot, error) {
	var snap ports.Snapshot
	err := a.call(ctx, "load", true, nil, func(ctx context.Context) error {
		var err error
		snap, err = a.next.Load(ctx)
		return err
	})
	return snap, err
}

// ApplyBatch commits a batch. Only batches carrying a token are retried,
// since the token lets the backend recognise a replay.
func (a *Adapter) ApplyBatch(ctx context.Context, batch ports.Batch) (ports.Revision, error) {
	var rev ports.Revision
	attrs := []attribute.KeyValue{
		attribute.Int("batch.operations", len(batch.Operations)),
		attribute.Bool("batch.tokened", batch.Token != ""),
	}
	err := a.call(ctx, "apply_batch", batch.Token != "", attrs, func(ctx context.Context) error {
		var err error
		rev, err = a.next.ApplyBatch(ctx, batch)
		return err
	})
	return rev, err
}

// Subscribe passes through to the wrapped adapter. Adapters that cannot push
// changes get a subscription that never fires.
func (a *Adapter) Subscribe(ctx context.Context, onChange func(ports.Change)) (func(), error) {
	sub, ok := a.next.(ports.Subscriber)
	if !ok {
		return func() {}, nil
	}
	return sub.Subscribe(ctx, onChange)
}

// Close closes the wrapped adapter
func (a *Adapter) Close() error {
	return a.next.Close()
}

// Unwrap returns the decorated adapter
func (a *Adapter) Unwrap() ports.PersistenceAdapter {
	return a.next
}

func (a *Adapter) call(ctx context.Context, operation string, retry bool, attrs []attribute.KeyValue, fn func(context.Context) error) error {
	ctx, span := observability.Tracer().Start(ctx, "persistence."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append(attrs, attribute.String("persistence.backend", a.opts.Backend))...),
	)
	defer span.End()

	start := time.Now()
	attempts := 0
	op := func() error {
		attempts++
		if attempts > 1 && a.opts.Metrics != nil {
			a.opts.Metrics.PersistRetries.WithLabelValues(a.opts.Backend, operation).Inc()
		}
		_, err := a.breaker.Execute(func() (interface{}, error) {
			return nil, fn(ctx)
		})
		switch {
		case err == nil:
			return nil
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return backoff.Permanent(pkgerrors.NewUnavailableError(a.opts.Backend).WithCause(err))
		case !retry || !a.opts.Retryable(err):
			return backoff.Permanent(err)
		}
		a.opts.Logger.Debug("Retrying persistence call",
			zap.String("backend", a.opts.Backend),
			zap.String("operation", operation),
			zap.Int("attempt", attempts),
			zap.Error(err),
		)
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = a.opts.InitialInterval
	policy.MaxInterval = a.opts.MaxInterval
	policy.Multiplier = 2
	policy.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(a.opts.MaxAttempts-1)), ctx)

	err := backoff.Retry(op, b)
	if a.opts.Metrics != nil {
		a.opts.Metrics.RecordPersistence(a.opts.Backend, operation, err, time.Since(start))
	}
	span.SetAttributes(attribute.Int("persistence.attempts", attempts))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%s %s: %w", a.opts.Backend, operation, err)
	}
	return nil
}
