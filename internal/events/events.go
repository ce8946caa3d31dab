package events

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

type Type string

const (
	OrderCreated       Type = "order.created"
	OrderStatusChanged Type = "order.status_changed"
	OrderDeleted       Type = "order.deleted"
)

// Event is what staff screens and downstream consumers learn about an order.
type Event struct {
	Type         Type      `json:"type"`
	RestaurantID string    `json:"restaurantId"`
	OrderID      string    `json:"orderId"`
	Status       string    `json:"status,omitempty"`
	Total        float64   `json:"total,omitempty"`
	At           time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Fanout hands each event to every publisher. Failures are logged and joined;
// one broken sink never keeps the others from receiving the event.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, e); err != nil {
			zap.L().Warn("event publish failed",
				zap.String("type", string(e.Type)),
				zap.String("orderId", e.OrderID),
				zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
