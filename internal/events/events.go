// Package events publishes marketplace domain events. Publishing is fire-and-forget: the
// Dispatcher queues events and a background worker hands them to a Sink, logging failures.
package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the service layer.
const (
	OrderPlaced     = "order.placed"
	OrderShipped    = "order.shipped"
	OrderCompleted  = "order.completed"
	OrderCancelled  = "order.cancelled"
	DisputeOpened   = "dispute.opened"
	DisputeResolved = "dispute.resolved"
	KYCReviewed     = "kyc.reviewed"
)

// Event is a single domain fact.
type Event struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	AggregateID string         `json:"aggregateId"`
	OccurredAt  time.Time      `json:"occurredAt"`
	Data        map[string]any `json:"data,omitempty"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType, aggregateID string, data map[string]any) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		AggregateID: aggregateID,
		OccurredAt:  time.Now().UTC(),
		Data:        data,
	}
}

// Publisher is what the service layer depends on.
type Publisher interface {
	Publish(ctx context.Context, evt Event)
}

// Sink delivers events somewhere durable.
type Sink interface {
	Write(ctx context.Context, evt Event) error
	Close() error
}

// ErrClosed is returned by Sink implementations used after Close.
var ErrClosed = errors.New("events: sink closed")

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}

// Dispatcher queues events for asynchronous delivery to a Sink.
type Dispatcher struct {
	sink   Sink
	logger *slog.Logger
	queue  chan Event

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewDispatcher starts the delivery worker. bufferSize bounds the queue; when the queue is full
// new events are dropped and logged rather than blocking the caller.
func NewDispatcher(sink Sink, logger *slog.Logger, bufferSize int) *Dispatcher {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	d := &Dispatcher{
		sink:   sink,
		logger: logger,
		queue:  make(chan Event, bufferSize),
		done:   make(chan struct{}),
	}
	go d.loop()
	return d
}

// Publish enqueues evt without blocking.
func (d *Dispatcher) Publish(_ context.Context, evt Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn("event dropped after shutdown", "type", evt.Type, "aggregateId", evt.AggregateID)
		return
	}
	select {
	case d.queue <- evt:
	default:
		d.logger.Warn("event queue full, dropping event", "type", evt.Type, "aggregateId", evt.AggregateID)
	}
}

func (d *Dispatcher) loop() {
	defer close(d.done)
	for evt := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := d.sink.Write(ctx, evt); err != nil {
			d.logger.Error("publish event failed", "error", err, "type", evt.Type, "eventId", evt.ID)
		}
		cancel()
	}
}

// Close stops accepting events, drains the queue and closes the sink.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	select {
	case <-d.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return d.sink.Close()
}

// LogSink writes events to a structured logger. Used when no broker is configured.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Write(_ context.Context, evt Event) error {
	s.Logger.Info("domain event",
		"eventId", evt.ID,
		"type", evt.Type,
		"aggregateId", evt.AggregateID,
		"occurredAt", evt.OccurredAt,
	)
	return nil
}

func (LogSink) Close() error { return nil }
