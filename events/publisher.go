package events

import (
	"context"
	"errors"
	"fmt"

	"restaurant-service/models"
)

const (
	BackendSNS      = "sns"
	BackendKafka    = "kafka"
	BackendRabbitMQ = "rabbitmq"
	BackendNone     = "none"
)

// Publisher delivers order events to one destination.
type Publisher interface {
	Publish(ctx context.Context, evt models.OrderEvent) error
	Close() error
}

// Fanout publishes every event to all of its publishers and joins their errors.
type Fanout struct {
	publishers []Publisher
}

func NewFanout(publishers ...Publisher) *Fanout {
	var kept []Publisher
	for _, p := range publishers {
		if p != nil {
			kept = append(kept, p)
		}
	}
	return &Fanout{publishers: kept}
}

func (f *Fanout) Publish(ctx context.Context, evt models.OrderEvent) error {
	var errs []error
	for _, p := range f.publishers {
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) Close() error {
	var errs []error
	for _, p := range f.publishers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, models.OrderEvent) error { return nil }
func (NoopPublisher) Close() error                                     { return nil }
