package ports

import (
	"context"
	"time"

	"pharmacy/internal/core/domain/model/kernel"
	"pharmacy/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates.
type OrderRepository interface {
	// Add persists a new order aggregate. The order number must already be assigned and
	// is unique across all orders.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists changes to an existing order with an optimistic version check.
	// Returns *errs.ConflictError when the stored version differs from aggregate.Version().
	// The order number is never rewritten.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order by its identifier, payment history included.
	// Returns *errs.ObjectNotFoundError when absent.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetAllUpdatedSince returns orders touched at or after since, oldest first.
	GetAllUpdatedSince(ctx context.Context, since time.Time, limit int) ([]*order.Order, error)
}

// OrderNumberSequence hands out per-category sequence values for order numbers.
// Values are strictly increasing per category and never reused.
type OrderNumberSequence interface {
	Next(ctx context.Context, category order.Category) (int64, error)
}
