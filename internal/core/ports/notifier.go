package ports

import (
	"context"
	"time"
)

type OrderEventType string

const (
	OrderCreated         OrderEventType = "order.created"
	OrderCancelled       OrderEventType = "order.cancelled"
	OrderStatusChanged   OrderEventType = "order.status_changed"
	OrderRepriced        OrderEventType = "order.repriced"
	PaymentStatusChanged OrderEventType = "payment.status_changed"
)

// OrderEvent is published after a state change has been committed.
type OrderEvent struct {
	Type          OrderEventType
	OrderID       string
	OrderNumber   string
	OrderStatus   string
	PaymentStatus string
	OccurredAt    time.Time
}

// Notifier delivers order events to downstream consumers (email, push, SMS fan-out).
// Delivery is at-most-once from the caller's point of view; failures are logged, not retried.
type Notifier interface {
	Notify(ctx context.Context, event OrderEvent) error
}

// OrderLocker serializes writers of the same order across processes.
type OrderLocker interface {
	// Lock blocks until the lock for key is held or ctx is done. The returned function
	// releases it and is safe to call once.
	Lock(ctx context.Context, key string) (unlock func(context.Context) error, err error)
}
